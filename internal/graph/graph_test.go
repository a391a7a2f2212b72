package graph

import "testing"

func indexLess(i, j int) bool { return i < j }

func TestSortLinearChain(t *testing.T) {
	nodes := []Node{
		{Provides: []string{"a"}},
		{Provides: []string{"b"}, Requires: []string{"a"}},
		{Provides: []string{"c"}, Requires: []string{"b"}},
	}
	res := Sort(nodes, indexLess)
	if len(res.Cycles) != 0 {
		t.Fatalf("unexpected cycles: %v", res.Cycles)
	}
	want := []int{0, 1, 2}
	for i, v := range want {
		if res.Order[i] != v {
			t.Fatalf("Order = %v, want %v", res.Order, want)
		}
	}
}

func TestSortStableTieBreak(t *testing.T) {
	nodes := []Node{
		{Provides: []string{"a"}},
		{Provides: []string{"b"}},
		{Provides: []string{"c"}},
	}
	res := Sort(nodes, indexLess)
	want := []int{0, 1, 2}
	for i, v := range want {
		if res.Order[i] != v {
			t.Fatalf("Order = %v, want %v", res.Order, want)
		}
	}
}

func TestSortDetectsCycle(t *testing.T) {
	nodes := []Node{
		{Provides: []string{"a"}, Requires: []string{"b"}},
		{Provides: []string{"b"}, Requires: []string{"a"}},
	}
	res := Sort(nodes, indexLess)
	if len(res.Cycles) != 1 || len(res.Cycles[0]) != 2 {
		t.Fatalf("Cycles = %v, want one cycle of 2 nodes", res.Cycles)
	}
	if len(res.Order) != 0 {
		t.Fatalf("Order = %v, want empty since both nodes are stuck", res.Order)
	}
}

func TestSortPartialCycleStillOrdersUnaffectedNodes(t *testing.T) {
	nodes := []Node{
		{Provides: []string{"x"}},
		{Provides: []string{"a"}, Requires: []string{"b", "x"}},
		{Provides: []string{"b"}, Requires: []string{"a"}},
	}
	res := Sort(nodes, indexLess)
	if len(res.Order) != 1 || res.Order[0] != 0 {
		t.Fatalf("Order = %v, want [0]", res.Order)
	}
	if len(res.Cycles) != 1 || len(res.Cycles[0]) != 2 {
		t.Fatalf("Cycles = %v, want one cycle of 2 nodes", res.Cycles)
	}
}

func TestSortRequireUnsatisfiableKeyStillTerminates(t *testing.T) {
	nodes := []Node{
		{Provides: []string{"a"}, Requires: []string{"missing"}},
	}
	res := Sort(nodes, indexLess)
	if len(res.Order) != 1 {
		t.Fatalf("Order = %v, want node with unsatisfiable requirement to be ready immediately", res.Order)
	}
}
