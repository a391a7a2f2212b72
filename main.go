package main

import (
	_ "github.com/lib/pq"

	"github.com/pgdelta/pgdelta/cmd"
)

func main() {
	cmd.Execute()
}
