package differ

import (
	"strings"
	"testing"

	"github.com/pgdelta/pgdelta/internal/catalog"
	"github.com/pgdelta/pgdelta/internal/change"
)

func TestDiffTablesCreated(t *testing.T) {
	branch := map[string]catalog.Table{
		"table:app.users": {Schema: "app", Name: "users", Columns: []catalog.Column{
			{Schema: "app", Table: "users", Name: "id", DataType: "integer"},
		}},
	}
	changes := DiffTables(nil, branch)
	if len(changes) != 1 || changes[0].Operation != change.OpCreate {
		t.Fatalf("changes = %+v, want one create", changes)
	}
}

func TestDiffTablesColumnAdded(t *testing.T) {
	main := map[string]catalog.Table{
		"table:app.users": {Schema: "app", Name: "users", Columns: []catalog.Column{
			{Schema: "app", Table: "users", Name: "id", DataType: "integer"},
		}},
	}
	branch := map[string]catalog.Table{
		"table:app.users": {Schema: "app", Name: "users", Columns: []catalog.Column{
			{Schema: "app", Table: "users", Name: "id", DataType: "integer"},
			{Schema: "app", Table: "users", Name: "email", DataType: "text"},
		}},
	}
	changes := DiffTables(main, branch)
	if len(changes) != 1 {
		t.Fatalf("changes = %+v, want one AlterTableAddColumn", changes)
	}
	if changes[0].ObjectType != "column" || changes[0].Operation != change.OpAlter {
		t.Errorf("changes[0] = %+v", changes[0])
	}
}

func TestDiffTablesNoChangeWhenEqual(t *testing.T) {
	tbl := catalog.Table{Schema: "app", Name: "users", Owner: "app_admin"}
	main := map[string]catalog.Table{tbl.StableID(): tbl}
	branch := map[string]catalog.Table{tbl.StableID(): tbl}
	changes := DiffTables(main, branch)
	if len(changes) != 0 {
		t.Fatalf("changes = %+v, want none", changes)
	}
}

func TestDiffPrivilegesGrantAndRevoke(t *testing.T) {
	old := []catalog.Privilege{{Grantee: "app_ro", Privilege: "SELECT"}}
	new := []catalog.Privilege{{Grantee: "app_ro", Privilege: "INSERT"}}
	changes := diffPrivileges("table", "table:app.users", "TABLE app.users", old, new)
	if len(changes) != 2 {
		t.Fatalf("changes = %+v, want one grant + one revoke", changes)
	}
}

func TestDiffPrivilegesGrantableFlipIsGrantOptionRevoke(t *testing.T) {
	old := []catalog.Privilege{{Grantee: "app_ro", Privilege: "SELECT", Grantable: true}}
	new := []catalog.Privilege{{Grantee: "app_ro", Privilege: "SELECT", Grantable: false}}
	changes := diffPrivileges("table", "table:app.users", "TABLE app.users", old, new)
	if len(changes) != 1 {
		t.Fatalf("changes = %+v, want one grant-option revoke", changes)
	}
	if changes[0].Operation != change.OpAlter {
		t.Errorf("changes[0].Operation = %v, want alter", changes[0].Operation)
	}
}

func TestDiffPrivilegesGrantableUpgradeIsFreshGrant(t *testing.T) {
	old := []catalog.Privilege{{Grantee: "app_ro", Privilege: "SELECT", Grantable: false}}
	new := []catalog.Privilege{{Grantee: "app_ro", Privilege: "SELECT", Grantable: true}}
	changes := diffPrivileges("table", "table:app.users", "TABLE app.users", old, new)
	if len(changes) != 1 {
		t.Fatalf("changes = %+v, want a single GRANT ... WITH GRANT OPTION", changes)
	}
	if changes[0].Operation != change.OpCreate {
		t.Errorf("changes[0].Operation = %v, want create", changes[0].Operation)
	}
	sql := changes[0].Serialize(change.SerializeOptions{})
	if !strings.Contains(sql, "WITH GRANT OPTION") {
		t.Errorf("sql = %q, want WITH GRANT OPTION", sql)
	}
}

func TestDiffCommentTransitions(t *testing.T) {
	hello := "hello"
	world := "world"
	cases := []struct {
		name     string
		old, new *string
		wantOp   change.Operation
		wantLen  int
	}{
		{"null to nonnull", nil, &hello, change.OpCreate, 1},
		{"nonnull to null", &hello, nil, change.OpDrop, 1},
		{"changed", &hello, &world, change.OpCreate, 1},
		{"unchanged", &hello, &hello, "", 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out := diffComment("table", "table:app.users", "TABLE app.users", tc.old, tc.new)
			if len(out) != tc.wantLen {
				t.Fatalf("len = %d, want %d", len(out), tc.wantLen)
			}
			if tc.wantLen > 0 && out[0].Operation != tc.wantOp {
				t.Errorf("Operation = %v, want %v", out[0].Operation, tc.wantOp)
			}
		})
	}
}

func TestDiffTypesEnumPureAppendIsAlter(t *testing.T) {
	main := map[string]catalog.Type{
		"type:app.status": {Schema: "app", Name: "status", Kind: catalog.TypeKindEnum, Labels: []string{"active"}},
	}
	branch := map[string]catalog.Type{
		"type:app.status": {Schema: "app", Name: "status", Kind: catalog.TypeKindEnum, Labels: []string{"active", "archived"}},
	}
	changes := DiffTypes(main, branch)
	if len(changes) != 1 || changes[0].Operation != change.OpAlter {
		t.Fatalf("changes = %+v, want one alter for the appended label", changes)
	}
}

func TestDiffTypesEnumRemovalForcesRecreate(t *testing.T) {
	main := map[string]catalog.Type{
		"type:app.status": {Schema: "app", Name: "status", Kind: catalog.TypeKindEnum, Labels: []string{"active", "archived"}},
	}
	branch := map[string]catalog.Type{
		"type:app.status": {Schema: "app", Name: "status", Kind: catalog.TypeKindEnum, Labels: []string{"active"}},
	}
	changes := DiffTypes(main, branch)
	if len(changes) != 2 || changes[0].Operation != change.OpDrop || changes[1].Operation != change.OpCreate {
		t.Fatalf("changes = %+v, want drop+create", changes)
	}
}

func TestDiffAggregatesAlwaysRecreates(t *testing.T) {
	main := map[string]catalog.Aggregate{
		"aggregate:app.agg()": {Schema: "app", Name: "agg", TransitionFunction: "f1", StateDataType: "int"},
	}
	branch := map[string]catalog.Aggregate{
		"aggregate:app.agg()": {Schema: "app", Name: "agg", TransitionFunction: "f2", StateDataType: "int"},
	}
	changes := DiffAggregates(main, branch)
	if len(changes) != 2 || changes[0].Operation != change.OpDrop || changes[1].Operation != change.OpCreate {
		t.Fatalf("changes = %+v, want drop+create", changes)
	}
}

func TestDiffPublicationsAllTablesTransitionRecreates(t *testing.T) {
	main := map[string]catalog.Publication{
		"publication:pub1": {Name: "pub1", AllTables: true},
	}
	branch := map[string]catalog.Publication{
		"publication:pub1": {Name: "pub1", AllTables: false, Tables: []catalog.PublicationTable{{Schema: "app", Table: "users"}}},
	}
	changes := DiffPublications(main, branch)
	if len(changes) != 2 || changes[0].Operation != change.OpDrop || changes[1].Operation != change.OpCreate {
		t.Fatalf("changes = %+v, want drop+create", changes)
	}
}
