package executor

import (
	"context"
	"strings"
	"testing"

	"github.com/pgdelta/pgdelta/internal/catalog"
	"github.com/pgdelta/pgdelta/internal/differ"
	"github.com/pgdelta/pgdelta/internal/planner"
)

func targetSnapshot() *catalog.Snapshot {
	snap := catalog.Empty()
	s := catalog.Schema{Name: "app"}
	snap.Schemas[s.StableID()] = s
	t := catalog.Table{
		Schema: "app",
		Name:   "users",
		Columns: []catalog.Column{
			{Schema: "app", Table: "users", Name: "id", Position: 1, DataType: "bigint", NotNull: true},
			{Schema: "app", Table: "users", Name: "email", Position: 2, DataType: "text"},
		},
	}
	snap.Tables[t.StableID()] = t
	return snap
}

func TestSnapshotHashDeterministic(t *testing.T) {
	a, err := SnapshotHash(targetSnapshot())
	if err != nil {
		t.Fatalf("SnapshotHash: %v", err)
	}
	b, err := SnapshotHash(targetSnapshot())
	if err != nil {
		t.Fatalf("SnapshotHash: %v", err)
	}
	if a != b {
		t.Errorf("equal snapshots hashed differently: %s vs %s", a, b)
	}

	other := targetSnapshot()
	tbl := other.Tables["table:app.users"]
	tbl.Columns[1].NotNull = true
	other.Tables["table:app.users"] = tbl
	c, err := SnapshotHash(other)
	if err != nil {
		t.Fatalf("SnapshotHash: %v", err)
	}
	if a == c {
		t.Error("different snapshots hashed identically")
	}
}

func TestBuildPlanArtifactRoundTrip(t *testing.T) {
	changes := differ.ComputeSchemaDiff(catalog.Empty(), targetSnapshot())
	if len(changes) == 0 {
		t.Fatal("expected changes from empty -> target diff")
	}
	plan := planner.Build(changes)

	artifact, err := BuildPlanArtifact(plan, catalog.Empty())
	if err != nil {
		t.Fatalf("BuildPlanArtifact: %v", err)
	}
	if artifact.Version != PlanVersion {
		t.Errorf("version = %d", artifact.Version)
	}
	if artifact.SourceHash == "" {
		t.Error("expected a source hash")
	}
	for _, c := range artifact.Changes {
		if c.SQL == "" {
			t.Errorf("change %s has empty SQL", c.ID)
		}
		if c.LockMode == "" {
			t.Errorf("change %s has no lock mode", c.ID)
		}
	}

	data, err := artifact.MarshalIndented()
	if err != nil {
		t.Fatalf("MarshalIndented: %v", err)
	}
	parsed, err := ParsePlanArtifact(data)
	if err != nil {
		t.Fatalf("ParsePlanArtifact: %v", err)
	}
	if len(parsed.Changes) != len(artifact.Changes) {
		t.Errorf("round-trip changed change count: %d vs %d", len(parsed.Changes), len(artifact.Changes))
	}

	script := artifact.Script()
	if !strings.Contains(script, ";\n\n") {
		t.Error("script must separate statements with ;\\n\\n")
	}
	if !strings.Contains(script, "CREATE SCHEMA") {
		t.Errorf("script missing CREATE SCHEMA:\n%s", script)
	}
}

func TestBuildPlanArtifactDeterministic(t *testing.T) {
	build := func() string {
		plan := planner.Build(differ.ComputeSchemaDiff(catalog.Empty(), targetSnapshot()))
		artifact, err := BuildPlanArtifact(plan, nil)
		if err != nil {
			t.Fatalf("BuildPlanArtifact: %v", err)
		}
		data, err := artifact.MarshalIndented()
		if err != nil {
			t.Fatalf("MarshalIndented: %v", err)
		}
		return string(data)
	}
	if build() != build() {
		t.Error("two plans over identical input must compare byte-equal")
	}
}

func TestParsePlanArtifactRejectsWrongVersion(t *testing.T) {
	if _, err := ParsePlanArtifact([]byte(`{"version": 99, "changes": []}`)); err == nil {
		t.Fatal("expected version error")
	}
}

func TestParsePlanArtifactRejectsMalformedShape(t *testing.T) {
	// operation outside the enum, missing sql
	bad := `{"version": 1, "changes": [{"id": "x", "operation": "explode", "object_type": "table", "scope": "object"}]}`
	if _, err := ParsePlanArtifact([]byte(bad)); err == nil {
		t.Fatal("expected schema validation error")
	}
}

func TestApplyPlanRefusesStalePlan(t *testing.T) {
	artifact := &PlanArtifact{Version: PlanVersion, SourceHash: "ffffffffffffffff"}
	_, err := ApplyPlan(context.Background(), nil, artifact, ApplyOptions{
		SourceSnapshot: targetSnapshot(),
	})
	if err == nil || !strings.Contains(err.Error(), "stale") {
		t.Fatalf("expected stale-plan error, got %v", err)
	}
}
