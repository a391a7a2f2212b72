// Package planner implements the topological ordering stage (spec.md
// §4.4): it takes the flat Change list a differ produced and turns it
// into a single deterministic, dependency-respecting script.
package planner

import (
	"sort"

	"github.com/pgdelta/pgdelta/internal/change"
	"github.com/pgdelta/pgdelta/internal/graph"
)

// categoryPriority gives each objectType its position in the tiebreak
// order (spec.md §4.4 "Category priorities"); lower sorts first.
var categoryPriority = map[string]int{
	"schema": 0, "extension": 1, "language": 2, "collation": 3, "type": 4,
	"domain": 5, "sequence": 6, "table": 7, "constraint": 8, "index": 9,
	"function": 10, "procedure": 11, "aggregate": 12, "view": 13,
	"materialized_view": 14, "rule": 15, "trigger": 16, "event_trigger": 17,
	"policy": 18, "publication": 19, "subscription": 20, "fdw": 21,
	"server": 22, "user_mapping": 23, "foreign_table": 24, "role": 25,
	"column": 7, // columns sort with their owning table's priority
}

func priorityOf(objectType string) int {
	if p, ok := categoryPriority[objectType]; ok {
		return p
	}
	return len(categoryPriority)
}

// Plan is the ordered output of Plan() plus the diagnostics accumulated
// while building it.
type Plan struct {
	Changes     []change.Change
	Diagnostics []Diagnostic
}

// Diagnostic mirrors diagnostic.Diagnostic's code taxonomy but is
// scoped to planner-level findings that have no source-text location
// to attach to (spec.md §7: CYCLE_DETECTED).
type Diagnostic struct {
	Code    string
	Message string
}

const codeCycleDetected = "CYCLE_DETECTED"

// Build orders changes into the drop-phase-then-build-phase script
// spec.md §4.4 describes. The input order is preserved as the stable
// tie-break of last resort: Build sets Change.OriginalIndex to each
// change's position in changes, replacing any value the caller set.
func Build(changes []change.Change) Plan {
	withIndex := make([]change.Change, len(changes))
	copy(withIndex, changes)
	for i := range withIndex {
		withIndex[i].OriginalIndex = i
	}

	var dropPhase, buildPhase []change.Change
	for _, c := range withIndex {
		if len(c.Drops) > 0 {
			dropPhase = append(dropPhase, c)
		} else {
			buildPhase = append(buildPhase, c)
		}
	}

	orderedBuild, buildCycles := order(buildPhase, false)
	orderedDrop, dropCycles := order(dropPhase, true)

	result := make([]change.Change, 0, len(changes))
	result = append(result, orderedDrop...)
	result = append(result, orderedBuild...)

	var diags []Diagnostic
	for _, group := range append(dropCycles, buildCycles...) {
		diags = append(diags, Diagnostic{Code: codeCycleDetected, Message: cycleMessage(group)})
	}

	return Plan{Changes: result, Diagnostics: diags}
}

// order runs the shared topo-sort primitive over one phase's changes.
// In the drop-phase, edges invert (spec.md §4.4 step 2: "in drop-phase,
// the edge inverts") and the stable tie-break additionally reverses the
// build-phase category order, since drops should unwind in roughly the
// opposite order their objects were built.
func order(changes []change.Change, dropPhase bool) ([]change.Change, [][]change.Change) {
	if len(changes) == 0 {
		return nil, nil
	}

	nodes := make([]graph.Node, len(changes))
	for i, c := range changes {
		if dropPhase {
			// The drop-phase edge is the inversion of the build-phase one:
			// if A drops something B requires, B must run before A. Feeding
			// Requires as Provides (and Drops as Requires) makes graph.Sort's
			// provider-first scheduling produce exactly that inverted order —
			// a change that still needs the table (drop a constraint on it)
			// runs before the change that drops the table.
			nodes[i] = graph.Node{Provides: c.Requires, Requires: c.Drops}
		} else {
			nodes[i] = graph.Node{Provides: c.Provides, Requires: c.Requires}
		}
	}

	less := func(i, j int) bool {
		pi, pj := priorityOf(changes[i].ObjectType), priorityOf(changes[j].ObjectType)
		if dropPhase {
			pi, pj = -pi, -pj
		}
		if pi != pj {
			return pi < pj
		}
		si, sj := change.ScopeOrder(changes[i].Scope), change.ScopeOrder(changes[j].Scope)
		if si != sj {
			return si < sj
		}
		idi, idj := stableIDOf(changes[i]), stableIDOf(changes[j])
		if idi != idj {
			return idi < idj
		}
		return changes[i].OriginalIndex < changes[j].OriginalIndex
	}

	res := graph.Sort(nodes, less)

	ordered := make([]change.Change, len(res.Order))
	for i, idx := range res.Order {
		ordered[i] = changes[idx]
	}

	var cycles [][]change.Change
	for _, group := range res.Cycles {
		sort.Slice(group, func(a, b int) bool { return changes[group[a]].OriginalIndex < changes[group[b]].OriginalIndex })
		var cyc []change.Change
		for _, idx := range group {
			cyc = append(cyc, changes[idx])
			ordered = append(ordered, changes[idx])
		}
		cycles = append(cycles, cyc)
	}

	return ordered, cycles
}

// stableIDOf returns the first provided ID of a change, or else its first
// dropped ID, or else its first required ID, used purely as the stable-ID
// tiebreak key (spec.md §4.4 step 3).
func stableIDOf(c change.Change) string {
	if len(c.Provides) > 0 {
		return c.Provides[0]
	}
	if len(c.Drops) > 0 {
		return c.Drops[0]
	}
	if len(c.Requires) > 0 {
		return c.Requires[0]
	}
	return ""
}

func cycleMessage(group []change.Change) string {
	msg := "cycle detected among: "
	for i, c := range group {
		if i > 0 {
			msg += ", "
		}
		msg += stableIDOf(c)
	}
	return msg
}
