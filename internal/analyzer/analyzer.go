// Package analyzer implements the statement analyzer (spec.md §4.6): it
// takes raw SQL text, splits it into statements, classifies and annotates
// each one, extracts the object references it provides and requires, and
// topologically orders the result — the same graph.Sort primitive C5
// uses, so a hand-authored migration file gets the same deterministic
// ordering guarantees as a generated one.
package analyzer

import (
	"fmt"
	"sort"

	"github.com/pgdelta/pgdelta/diagnostic"
	"github.com/pgdelta/pgdelta/internal/graph"
	"github.com/pgdelta/pgdelta/internal/ident"
)

// Diagnostic is a code+message analyzer finding; unlike diagnostic.Diagnostic
// it always carries a Position, since every analyzer diagnostic is
// anchored to a specific input file and byte offset.
type Diagnostic struct {
	Code     string
	Message  string
	FilePath string
	Position diagnostic.Position
}

// Input is one raw SQL source the analyzer ingests; FilePath is used only
// for diagnostics and the determinism tie-break (spec.md §4.6).
type Input struct {
	FilePath string
	SQL      string
}

// StatementNode is one statement after splitting, classifying,
// annotating, and extracting its refs.
type StatementNode struct {
	FilePath       string
	StatementIndex int
	Text           string
	Class          StatementClass
	Hints          AnnotationHints
	Provides       []string
	Requires       []string
}

// Graph summarizes the topo-sort that produced AnalyzeResult.Ordered.
type Graph struct {
	NodeCount   int
	Edges       int
	CycleGroups [][]int
}

// AnalyzeResult is the top-level output (spec.md §4.6 step 6).
type AnalyzeResult struct {
	Ordered     []StatementNode
	Diagnostics []Diagnostic
	Graph       Graph
}

// Analyze runs the full split/classify/annotate/extract/topo-sort
// pipeline over every input, in the order given.
func Analyze(inputs []Input) AnalyzeResult {
	var nodes []StatementNode
	var diags []Diagnostic

	for _, in := range inputs {
		spans := splitStatements(in.SQL)
		for idx, span := range spans {
			node := StatementNode{
				FilePath:       in.FilePath,
				StatementIndex: idx,
				Text:           span.Text,
			}

			class, _, err := classify(span.Text)
			if err != nil {
				// The recovery parser narrows the failure to a position
				// inside the statement and suggests a likely cause.
				collector := diagnostic.NewCollector(in.FilePath, span.Text)
				recovery := diagnostic.NewErrorRecoveryParser(collector)
				_, _ = recovery.Parse(span.Text)
				if details := collector.Errors(); len(details) > 0 {
					for _, d := range details {
						diags = append(diags, Diagnostic{
							Code:     diagnostic.CodeParseError,
							Message:  d.Message,
							FilePath: in.FilePath,
							Position: diagnostic.PositionFromOffset(in.SQL, span.Start+d.Range.Start.Offset),
						})
					}
				} else {
					diags = append(diags, Diagnostic{
						Code:     diagnostic.CodeParseError,
						Message:  fmt.Sprintf("statement %d could not be parsed: %v", idx, err),
						FilePath: in.FilePath,
						Position: diagnostic.PositionFromOffset(in.SQL, span.Start),
					})
				}
				continue
			}
			node.Class = class
			if class == ClassUnknown {
				diags = append(diags, Diagnostic{
					Code:     diagnostic.CodeUnknownStatementClass,
					Message:  fmt.Sprintf("statement %d did not match any known classifier", idx),
					FilePath: in.FilePath,
					Position: diagnostic.PositionFromOffset(in.SQL, span.Start),
				})
			}

			hints, annotDiags := parseAnnotations(span.Text)
			for _, d := range annotDiags {
				d.FilePath = in.FilePath
				d.Position = diagnostic.PositionFromOffset(in.SQL, span.Start)
				diags = append(diags, d)
			}
			node.Hints = hints

			refs := extractRefs(class, span.Text)
			node.Provides = filterBuiltin(append(refs.Provides, hints.Provides...))
			node.Requires = filterBuiltin(append(refs.Requires, hints.Requires...))
			for _, dep := range hints.DependsOn {
				node.Requires = append(node.Requires, "table:"+dep)
			}

			nodes = append(nodes, node)
		}
	}

	diags = append(diags, detectDuplicateProducers(nodes)...)

	ordered, g := topoSort(nodes)
	return AnalyzeResult{Ordered: ordered, Diagnostics: diags, Graph: g}
}

func filterBuiltin(refs []string) []string {
	var out []string
	for _, r := range refs {
		if !ident.IsBuiltin(r) {
			out = append(out, r)
		}
	}
	return out
}

func detectDuplicateProducers(nodes []StatementNode) []Diagnostic {
	producedBy := map[string]int{}
	var diags []Diagnostic
	for i, n := range nodes {
		for _, p := range n.Provides {
			if first, ok := producedBy[p]; ok {
				diags = append(diags, Diagnostic{
					Code:     diagnostic.CodeDuplicateProducer,
					Message:  fmt.Sprintf("%q is provided by both statement %d and statement %d", p, first, i),
					FilePath: n.FilePath,
				})
				continue
			}
			producedBy[p] = i
		}
	}
	return diags
}

// topoSort orders nodes with graph.Sort, tie-breaking on
// (filePath, statementIndex) per spec.md §4.6's determinism requirement.
func topoSort(nodes []StatementNode) ([]StatementNode, Graph) {
	gNodes := make([]graph.Node, len(nodes))
	edgeCount := 0
	requiresSet := map[string]bool{}
	for _, n := range nodes {
		for _, r := range n.Requires {
			requiresSet[r] = true
		}
	}
	provided := map[string]bool{}
	for _, n := range nodes {
		for _, p := range n.Provides {
			provided[p] = true
		}
	}

	for i, n := range nodes {
		gNodes[i] = graph.Node{Provides: n.Provides, Requires: n.Requires}
		for _, r := range n.Requires {
			if provided[r] {
				edgeCount++
			}
		}
	}

	less := func(i, j int) bool {
		if nodes[i].FilePath != nodes[j].FilePath {
			return nodes[i].FilePath < nodes[j].FilePath
		}
		return nodes[i].StatementIndex < nodes[j].StatementIndex
	}

	result := graph.Sort(gNodes, less)

	ordered := make([]StatementNode, 0, len(nodes))
	for _, idx := range result.Order {
		ordered = append(ordered, nodes[idx])
	}

	var cycleGroups [][]int
	for _, cycle := range result.Cycles {
		group := append([]int(nil), cycle...)
		sort.Ints(group)
		cycleGroups = append(cycleGroups, group)
		for _, idx := range group {
			ordered = append(ordered, nodes[idx])
		}
	}

	return ordered, Graph{NodeCount: len(nodes), Edges: edgeCount, CycleGroups: cycleGroups}
}
