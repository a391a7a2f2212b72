package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "pgdelta",
	Short: "pgdelta computes and applies PostgreSQL schema migrations.",
	Long: `pgdelta diffs a source (observed) database state against a target
(desired) state, orders the resulting DDL into an executable plan, and can
apply that plan with dependency-aware retry rounds.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
