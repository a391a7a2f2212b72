package cmd

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/pgdelta/pgdelta/internal/apply"
	"github.com/pgdelta/pgdelta/internal/catalog"
	"github.com/pgdelta/pgdelta/internal/executor"
	"github.com/pgdelta/pgdelta/internal/introspect"
)

var (
	applyDB              string
	applyEnvironment     string
	applyAutoApprove     bool
	applyMaxRounds       int
	applyFinalValidation bool
	applySkipHashCheck   bool
	applyDebugLog        bool
)

func init() {
	applyCmd.Flags().StringVar(&applyDB, "db", "", "Target database connection string (overrides the environment)")
	applyCmd.Flags().StringVar(&applyEnvironment, "target-environment", "", "Named environment to apply against")
	applyCmd.Flags().BoolVar(&applyAutoApprove, "auto-approve", false, "Apply without the interactive confirmation prompt")
	applyCmd.Flags().IntVar(&applyMaxRounds, "max-rounds", 0, "Maximum retry rounds (default 10)")
	applyCmd.Flags().BoolVar(&applyFinalValidation, "final-validation", false, "Replay function bodies with check_function_bodies=on after success")
	applyCmd.Flags().BoolVar(&applySkipHashCheck, "skip-hash-check", false, "Apply even if the database no longer matches the plan's source hash")
	applyCmd.Flags().BoolVar(&applyDebugLog, "debug", false, "Log each deferred statement to stderr")
	rootCmd.AddCommand(applyCmd)
}

var applyCmd = &cobra.Command{
	Use:   "apply [plan.json]",
	Short: "Execute a migration plan against a database",
	Long: `Executes a plan produced by "pgdelta plan" using dependency-aware retry
rounds: statements that fail because a dependency does not exist yet are
retried in the next round, statements the environment cannot support are
skipped, and anything else aborts the run.

Examples:
  pgdelta apply plan.json --target-environment local
  pgdelta plan --schema schema/ | pgdelta apply - --auto-approve`,
	Args: cobra.ExactArgs(1),
	Run:  runApply,
}

func runApply(cmd *cobra.Command, args []string) {
	ctx := context.Background()

	data, err := readPlanInput(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "read plan: %v\n", err)
		os.Exit(1)
	}
	artifact, err := executor.ParsePlanArtifact(data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	if len(artifact.Changes) == 0 {
		fmt.Println("Plan is empty; nothing to apply.")
		return
	}

	targetURL, err := resolveDatabaseURL(applyDB, applyEnvironment)
	if err != nil {
		fmt.Fprintf(os.Stderr, "resolve target database: %v\n", err)
		os.Exit(1)
	}

	if !applyAutoApprove {
		fmt.Printf("About to apply %d statement(s) to %s\n", len(artifact.Changes), redactURL(targetURL))
		if !confirm("Continue? [y/N] ") {
			fmt.Println("Aborted.")
			os.Exit(1)
		}
	}

	db, err := sql.Open("postgres", targetURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	var sourceSnapshot *catalog.Snapshot
	if artifact.SourceHash != "" && !applySkipHashCheck {
		sourceSnapshot, err = introspect.Snapshot(ctx, db, introspect.Options{})
		if err != nil {
			fmt.Fprintf(os.Stderr, "introspect for hash check: %v\n", err)
			os.Exit(1)
		}
	}

	opts := executor.ApplyOptions{
		SourceSnapshot:  sourceSnapshot,
		FinalValidation: applyFinalValidation,
		MaxRounds:       applyMaxRounds,
		Verbose:         true,
	}
	if applyDebugLog {
		opts.DebugLog = func(line string) { fmt.Fprintln(os.Stderr, line) }
	}

	result, err := executor.ApplyPlan(ctx, db, artifact, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	switch result.Status {
	case apply.StatusSuccess:
		// summary already printed by the executor
	case apply.StatusStuck:
		color.Yellow("Remaining statements:")
		for _, s := range result.StuckStatements {
			fmt.Printf("  %s\n", s.ID)
		}
		os.Exit(1)
	case apply.StatusError:
		os.Exit(1)
	}
}

func readPlanInput(path string) ([]byte, error) {
	if path == "-" {
		return os.ReadFile("/dev/stdin")
	}
	return os.ReadFile(path)
}

func confirm(prompt string) bool {
	fmt.Print(prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

// redactURL hides the password portion of a connection string for display.
func redactURL(url string) string {
	at := strings.Index(url, "@")
	scheme := strings.Index(url, "://")
	if at == -1 || scheme == -1 || at < scheme {
		return url
	}
	userinfo := url[scheme+3 : at]
	if colon := strings.Index(userinfo, ":"); colon != -1 {
		return url[:scheme+3] + userinfo[:colon] + ":***" + url[at:]
	}
	return url
}
