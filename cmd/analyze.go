package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pgdelta/pgdelta/diagnostic"
	"github.com/pgdelta/pgdelta/internal/analyzer"
)

var (
	analyzeFormat string
)

func init() {
	analyzeCmd.Flags().StringVar(&analyzeFormat, "format", "text", "Output format: text, sql, or json")
	rootCmd.AddCommand(analyzeCmd)
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file-or-dir>...",
	Short: "Topologically order an arbitrary SQL corpus",
	Long: `Splits the given SQL files into statements, classifies each one,
reads any leading "-- pg-topo:" annotations, extracts the objects every
statement provides and requires, and prints the statements in dependency
order.

Examples:
  pgdelta analyze migrations/
  pgdelta analyze schema.sql --format sql > ordered.sql`,
	Args: cobra.MinimumNArgs(1),
	Run:  runAnalyze,
}

func runAnalyze(cmd *cobra.Command, args []string) {
	inputs, err := collectInputs(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	result := analyzer.Analyze(inputs)

	contentByPath := make(map[string]string, len(inputs))
	for _, in := range inputs {
		contentByPath[in.FilePath] = in.SQL
	}

	formatter := diagnostic.NewFormatter()
	hadError := false
	for _, d := range result.Diagnostics {
		rendered := formatter.Format(diagnostic.Diagnostic{
			Range:    diagnostic.Range{Start: d.Position, End: d.Position},
			Severity: diagnostic.SeverityError,
			Code:     d.Code,
			Message:  d.Message,
		}, d.FilePath, contentByPath[d.FilePath])
		fmt.Fprint(os.Stderr, rendered)
		hadError = true
	}

	switch analyzeFormat {
	case "text":
		for i, node := range result.Ordered {
			fmt.Printf("%3d. [%s] %s (stmt %d)\n", i+1, node.Class, node.FilePath, node.StatementIndex)
		}
		fmt.Printf("\n%d statement(s), %d edge(s), %d cycle group(s)\n",
			result.Graph.NodeCount, result.Graph.Edges, len(result.Graph.CycleGroups))
	case "sql":
		for _, node := range result.Ordered {
			fmt.Println(strings.TrimSpace(node.Text) + ";")
			fmt.Println()
		}
	case "json":
		out, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "encode result: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(string(out))
	default:
		fmt.Fprintf(os.Stderr, "unknown format %q (want text, sql, or json)\n", analyzeFormat)
		os.Exit(1)
	}

	if hadError {
		os.Exit(1)
	}
}

// collectInputs expands the argument list into analyzer inputs; a missing
// root is a DISCOVERY_ERROR surfaced immediately.
func collectInputs(roots []string) ([]analyzer.Input, error) {
	var inputs []analyzer.Input
	for _, root := range roots {
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("DISCOVERY_ERROR: input root %s: %w", root, err)
		}
		if !info.IsDir() {
			data, err := os.ReadFile(root)
			if err != nil {
				return nil, err
			}
			inputs = append(inputs, analyzer.Input{FilePath: root, SQL: string(data)})
			continue
		}

		var paths []string
		err = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if !info.IsDir() && strings.HasSuffix(path, ".sql") {
				paths = append(paths, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		sort.Strings(paths)
		for _, p := range paths {
			data, err := os.ReadFile(p)
			if err != nil {
				return nil, err
			}
			inputs = append(inputs, analyzer.Input{FilePath: p, SQL: string(data)})
		}
	}
	return inputs, nil
}
