package cmd

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pgdelta/pgdelta/internal/introspect"
)

var (
	introspectDB          string
	introspectEnvironment string
	introspectSchemas     []string
)

func init() {
	introspectCmd.Flags().StringVar(&introspectDB, "db", "", "Database connection string (overrides the environment)")
	introspectCmd.Flags().StringVar(&introspectEnvironment, "source-environment", "", "Named environment to introspect")
	introspectCmd.Flags().StringSliceVar(&introspectSchemas, "schemas", nil, "Restrict introspection to these schemas")
	rootCmd.AddCommand(introspectCmd)
}

var introspectCmd = &cobra.Command{
	Use:   "introspect",
	Short: "Dump the database's schema state as a snapshot JSON",
	Long: `Reads the current schema state of a database and writes it to stdout as
a snapshot document that "pgdelta plan" accepts in place of a live
connection.

Examples:
  pgdelta introspect > snapshot.json
  pgdelta introspect --db postgres://localhost:5432/app --schemas public,audit`,
	Run: runIntrospect,
}

func runIntrospect(cmd *cobra.Command, args []string) {
	ctx := context.Background()

	url, err := resolveDatabaseURL(introspectDB, introspectEnvironment)
	if err != nil {
		fmt.Fprintf(os.Stderr, "resolve database: %v\n", err)
		printConfigNotFound()
		os.Exit(1)
	}

	db, err := sql.Open("postgres", url)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	snap, err := introspect.Snapshot(ctx, db, introspect.Options{Schemas: introspectSchemas})
	if err != nil {
		fmt.Fprintf(os.Stderr, "introspect: %v\n", err)
		os.Exit(1)
	}

	out, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "encode snapshot: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(out))
}
