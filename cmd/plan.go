package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/pgdelta/pgdelta/internal/config"
	"github.com/pgdelta/pgdelta/internal/differ"
	"github.com/pgdelta/pgdelta/internal/executor"
	"github.com/pgdelta/pgdelta/internal/locks"
	"github.com/pgdelta/pgdelta/internal/planner"
)

var (
	planDB          string
	planEnvironment string
	planSchema      string
	planFormat      string
	planOut         string
	planRewrites    bool
)

func init() {
	planCmd.Flags().StringVar(&planDB, "db", "", "Source database connection string (overrides the environment)")
	planCmd.Flags().StringVar(&planEnvironment, "from-environment", "", "Named environment to read the source state from")
	planCmd.Flags().StringVar(&planSchema, "schema", "", "Target state: schema directory, .sql file, or snapshot .json")
	planCmd.Flags().StringVar(&planFormat, "format", "json", "Output format: json, sql, or table")
	planCmd.Flags().StringVarP(&planOut, "out", "o", "", "Write the json or sql plan to a file instead of stdout (table output always goes to stdout)")
	planCmd.Flags().BoolVar(&planRewrites, "safer-rewrites", false, "Suggest lock-safe rewrites for high-impact statements")
	rootCmd.AddCommand(planCmd)
}

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Diff the target schema against the database and emit a migration plan",
	Long: `Reads the source state from a live database and the target state from a
declarative schema directory, computes the DDL required to transform source
into target, and emits the ordered plan.

Examples:
  pgdelta plan --schema schema/ > plan.json
  pgdelta plan --from-environment staging --schema schema/ --format sql
  pgdelta plan --db postgres://localhost:5432/app --schema schema/ --format table`,
	Run: runPlan,
}

func runPlan(cmd *cobra.Command, args []string) {
	ctx := context.Background()

	sourceURL, err := resolveDatabaseURL(planDB, planEnvironment)
	if err != nil {
		fmt.Fprintf(os.Stderr, "resolve source database: %v\n", err)
		os.Exit(1)
	}

	schemaInput := planSchema
	if schemaInput == "" {
		env, err := config.ResolveEnvironment(loadConfigOrNil(), planEnvironment)
		if err == nil && env.SchemaPath != "" {
			schemaInput = env.SchemaPath
		} else if dir, err := config.GetSchemaDir(); err == nil {
			schemaInput = dir
		}
	}
	if schemaInput == "" {
		fmt.Fprintln(os.Stderr, "no target schema: pass --schema or set schema_path in pgdelta.toml")
		printConfigNotFound()
		os.Exit(1)
	}

	source, err := loadSnapshot(ctx, sourceURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load source state: %v\n", err)
		os.Exit(1)
	}
	target, err := loadSnapshot(ctx, schemaInput)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load target state: %v\n", err)
		os.Exit(1)
	}

	changes := differ.ComputeSchemaDiff(source, target)
	plan := planner.Build(changes)
	artifact, err := executor.BuildPlanArtifact(plan, source)
	if err != nil {
		fmt.Fprintf(os.Stderr, "build plan: %v\n", err)
		os.Exit(1)
	}

	for _, d := range artifact.Diagnostics {
		fmt.Fprintf(os.Stderr, "warning: %s\n", d)
	}

	out := os.Stdout
	if planOut != "" {
		f, err := os.Create(planOut)
		if err != nil {
			fmt.Fprintf(os.Stderr, "create %s: %v\n", planOut, err)
			os.Exit(1)
		}
		defer f.Close()
		out = f
	}

	switch planFormat {
	case "json":
		data, err := artifact.MarshalIndented()
		if err != nil {
			fmt.Fprintf(os.Stderr, "encode plan: %v\n", err)
			os.Exit(1)
		}
		fmt.Fprintln(out, string(data))
	case "sql":
		fmt.Fprint(out, artifact.Script())
	case "table":
		renderPlanTable(artifact)
	default:
		fmt.Fprintf(os.Stderr, "unknown format %q (want json, sql, or table)\n", planFormat)
		os.Exit(1)
	}
}

func renderPlanTable(artifact *executor.PlanArtifact) {
	if len(artifact.Changes) == 0 {
		pterm.Success.Println("No changes; database already matches the target schema.")
		return
	}

	rows := pterm.TableData{{"#", "Operation", "Object", "Lock", "SQL"}}
	for i, c := range artifact.Changes {
		subject := ""
		if len(c.Provides) > 0 {
			subject = c.Provides[0]
		} else if len(c.Drops) > 0 {
			subject = c.Drops[0]
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			c.Operation + " " + c.ObjectType,
			subject,
			c.LockMode,
			truncateSQL(c.SQL, 60),
		})
	}
	_ = pterm.DefaultTable.WithHasHeader().WithData(rows).Render()

	if planRewrites {
		for _, c := range artifact.Changes {
			impact := locks.AnalyzeLockImpact(c.Operation+" "+c.ObjectType, c.SQL)
			if !locks.ShouldRewrite(impact) {
				continue
			}
			rewrite := locks.GenerateSaferRewrite(c.SQL)
			if rewrite == nil {
				continue
			}
			pterm.Warning.Printf("%s\n", rewrite.Description)
			for _, s := range rewrite.SQL {
				pterm.Printf("  %s\n", s)
			}
		}
	}
}

func truncateSQL(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}
