// Package graph implements the dependency-ordering primitive shared by
// the planner (internal/planner) and the statement analyzer
// (internal/analyzer): a stable topological sort over a
// provides/requires dependency graph, with cycle detection.
package graph

import "sort"

// Node is one unit the topo sort orders: the set of keys it Provides and
// the set of keys it Requires (spec.md §4.4). Nodes are identified by
// their index in the slice passed to Sort; the caller keeps any payload.
type Node struct {
	Provides []string
	Requires []string
}

// Less ranks two node indices when neither depends on the other,
// giving a deterministic tie-break (spec.md §4.4 "stable by (category
// priority, scope priority, stable-ID, original index)"). Callers embed
// whatever tie-break fields they need and close over this comparison.
type Less func(i, j int) bool

// Result is the output of Sort: Order lists node indices in dependency
// order, and Cycles holds at most one group: every node that never
// became ready (nodes on a cycle and nodes that depend on one, for
// spec.md §4.4 "CYCLE_DETECTED" diagnostic), in ascending index order.
type Result struct {
	Order  []int
	Cycles [][]int
}

// Sort performs a stable Kahn's-algorithm topological sort over nodes,
// breaking ties among simultaneously-ready nodes with less, and
// reporting any nodes that never become ready as Cycles. A required key
// that no node provides is ignored and does not hold its node back.
func Sort(nodes []Node, less Less) Result {
	n := len(nodes)

	// provider[key] = indices of nodes that provide key. A key can be
	// provided by more than one node (e.g. two Changes racing to create
	// the same comment subordinate never happens in practice, but the
	// graph makes no such assumption).
	provider := map[string][]int{}
	for i, nd := range nodes {
		for _, k := range nd.Provides {
			provider[k] = append(provider[k], i)
		}
	}

	// indegree[i] counts the distinct nodes other than i that provide
	// some key i requires and have not been emitted yet.
	indegree := make([]int, n)
	dependents := make([][]int, n) // reverse edges: dependents[i] = nodes that require something i provides
	for i, nd := range nodes {
		seen := map[int]bool{}
		for _, req := range nd.Requires {
			for _, p := range provider[req] {
				if p == i || seen[p] {
					continue
				}
				seen[p] = true
				indegree[i]++
				dependents[p] = append(dependents[p], i)
			}
		}
	}

	ready := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if indegree[i] == 0 {
			ready = append(ready, i)
		}
	}

	var order []int
	remaining := make([]bool, n)
	for i := range remaining {
		remaining[i] = true
	}

	for len(ready) > 0 {
		sort.Slice(ready, func(a, b int) bool { return less(ready[a], ready[b]) })
		pick := ready[0]
		ready = ready[1:]
		remaining[pick] = false
		order = append(order, pick)
		for _, dep := range dependents[pick] {
			if !remaining[dep] {
				continue
			}
			indegree[dep]--
			if indegree[dep] == 0 {
				ready = append(ready, dep)
			}
		}
	}

	if len(order) == n {
		return Result{Order: order}
	}

	var stuck []int
	for i := 0; i < n; i++ {
		if remaining[i] {
			stuck = append(stuck, i)
		}
	}
	return Result{Order: order, Cycles: [][]int{stuck}}
}
