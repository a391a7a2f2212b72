package planner

import (
	"testing"

	"github.com/pgdelta/pgdelta/internal/catalog"
	"github.com/pgdelta/pgdelta/internal/change"
)

func TestPlanOrdersSchemaBeforeTable(t *testing.T) {
	tbl := change.CreateTable(catalog.Table{Schema: "app", Name: "users"})
	sch := change.CreateSchema(catalog.Schema{Name: "app"})

	p := Build([]change.Change{tbl, sch})
	if len(p.Changes) != 2 {
		t.Fatalf("got %d changes, want 2", len(p.Changes))
	}
	if p.Changes[0].ObjectType != "schema" {
		t.Errorf("first change = %s, want schema first by category priority", p.Changes[0].ObjectType)
	}
}

func TestPlanRunsDropPhaseBeforeBuildPhase(t *testing.T) {
	createTbl := change.CreateTable(catalog.Table{Schema: "app", Name: "users"})
	dropTbl := change.DropTable(catalog.Table{Schema: "app", Name: "old"})

	p := Build([]change.Change{createTbl, dropTbl})
	if p.Changes[0].Operation != change.OpDrop {
		t.Errorf("first change = %v, want the drop-phase change first", p.Changes[0].Operation)
	}
}

func TestPlanRespectsRequiresEdge(t *testing.T) {
	col := change.AlterTableAddColumn("app", "users", catalog.Column{Schema: "app", Table: "users", Name: "email", DataType: "text"})
	tbl := change.CreateTable(catalog.Table{Schema: "app", Name: "users"})

	p := Build([]change.Change{col, tbl})
	tblIdx, colIdx := -1, -1
	for i, c := range p.Changes {
		if c.ObjectType == "table" {
			tblIdx = i
		}
		if c.ObjectType == "column" {
			colIdx = i
		}
	}
	if tblIdx == -1 || colIdx == -1 || tblIdx > colIdx {
		t.Errorf("table must precede its added column: tblIdx=%d colIdx=%d", tblIdx, colIdx)
	}
}

func TestPlanReportsCycle(t *testing.T) {
	a := change.Change{Operation: change.OpAlter, ObjectType: "table", Provides: []string{"a"}, Requires: []string{"b"}}
	b := change.Change{Operation: change.OpAlter, ObjectType: "table", Provides: []string{"b"}, Requires: []string{"a"}}

	p := Build([]change.Change{a, b})
	if len(p.Diagnostics) != 1 || p.Diagnostics[0].Code != codeCycleDetected {
		t.Fatalf("Diagnostics = %+v, want one CYCLE_DETECTED", p.Diagnostics)
	}
	if len(p.Changes) != 2 {
		t.Fatalf("cyclic changes should still be emitted (in input order) = %d", len(p.Changes))
	}
}

func TestPlanIsDeterministicAcrossRuns(t *testing.T) {
	changes := []change.Change{
		change.CreateSchema(catalog.Schema{Name: "b"}),
		change.CreateSchema(catalog.Schema{Name: "a"}),
	}
	p1 := Build(changes)
	p2 := Build(changes)
	for i := range p1.Changes {
		if p1.Changes[i].Serialize(change.SerializeOptions{}) != p2.Changes[i].Serialize(change.SerializeOptions{}) {
			t.Fatalf("Plan is not deterministic at index %d", i)
		}
	}
}

func TestPlanDropPhaseInvertsRequiresEdge(t *testing.T) {
	table := catalog.Table{Schema: "app", Name: "users"}
	dropTbl := change.DropTable(table)
	dropCon := change.AlterTableDropConstraint(catalog.Constraint{
		Schema: "app",
		Table:  "users",
		Name:   "users_email_key",
		Kind:   catalog.ConstraintUnique,
	})

	// Input order deliberately puts the table drop first; the constraint
	// drop still needs the table to exist, so it must run before it.
	p := Build([]change.Change{dropTbl, dropCon})
	if len(p.Changes) != 2 {
		t.Fatalf("got %d changes, want 2", len(p.Changes))
	}
	if p.Changes[0].ObjectType != "constraint" {
		t.Errorf("first change = %s, want the constraint drop before DROP TABLE", p.Changes[0].ObjectType)
	}
	if len(p.Diagnostics) != 0 {
		t.Errorf("Diagnostics = %+v, want none", p.Diagnostics)
	}
}
