package change

import (
	"strings"
	"testing"

	"github.com/pgdelta/pgdelta/internal/catalog"
)

func TestQuoteIdent(t *testing.T) {
	cases := []struct {
		name string
		in   string
		opts SerializeOptions
		want string
	}{
		{"plain lowercase", "users", SerializeOptions{}, "users"},
		{"mixed case forces quoting", "Users", SerializeOptions{}, `"Users"`},
		{"always quote option", "users", SerializeOptions{AlwaysQuote: true}, `"users"`},
		{"embedded quote is doubled", `a"b`, SerializeOptions{}, `"a""b"`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := QuoteIdent(tc.in, tc.opts); got != tc.want {
				t.Errorf("QuoteIdent(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestEscapeLiteral(t *testing.T) {
	if got, want := EscapeLiteral("it's"), `'it''s'`; got != want {
		t.Errorf("EscapeLiteral = %q, want %q", got, want)
	}
}

func TestCreateSchemaProvides(t *testing.T) {
	c := CreateSchema(catalog.Schema{Name: "app"})
	if len(c.Provides) != 1 || c.Provides[0] != "schema:app" {
		t.Fatalf("Provides = %v", c.Provides)
	}
	if !strings.Contains(c.Serialize(SerializeOptions{}), "CREATE SCHEMA app") {
		t.Errorf("Serialize = %q", c.Serialize(SerializeOptions{}))
	}
}

func TestCreateTableProvidesColumns(t *testing.T) {
	tbl := catalog.Table{
		Schema: "public",
		Name:   "users",
		Columns: []catalog.Column{
			{Schema: "public", Table: "users", Name: "id", DataType: "integer", NotNull: true},
			{Schema: "public", Table: "users", Name: "email", DataType: "text"},
		},
	}
	c := CreateTable(tbl)
	if len(c.Provides) != 3 {
		t.Fatalf("Provides = %v, want 3 entries", c.Provides)
	}
	stmt := c.Serialize(SerializeOptions{})
	if !strings.Contains(stmt, "CREATE TABLE public.users") || !strings.Contains(stmt, "NOT NULL") {
		t.Errorf("Serialize = %q", stmt)
	}
}

func TestGrantPrivilegesRoundTrip(t *testing.T) {
	c := GrantPrivileges(string(catalog.ConstraintCheck), "table:public.users", GrantTarget("TABLE public.users"), "app_ro", []string{"SELECT"}, false)
	if c.Scope != ScopePrivilege {
		t.Errorf("Scope = %v", c.Scope)
	}
	want := "acl:table:public.users@app_ro"
	if len(c.Provides) != 1 || c.Provides[0] != want {
		t.Fatalf("Provides = %v, want [%s]", c.Provides, want)
	}
}

func TestAlterTableAlterColumnTypeUsesUsingClause(t *testing.T) {
	c := AlterTableAlterColumnType("public", "users", "age", "bigint", "age::bigint")
	stmt := c.Serialize(SerializeOptions{})
	if !strings.Contains(stmt, "TYPE bigint USING age::bigint") {
		t.Errorf("Serialize = %q", stmt)
	}
}

func TestAlterTypeAddEnumValuePosition(t *testing.T) {
	c := AlterTypeAddEnumValue("public", "status", "archived", "active", true)
	stmt := c.Serialize(SerializeOptions{})
	if !strings.Contains(stmt, "BEFORE 'active'") {
		t.Errorf("Serialize = %q", stmt)
	}
}

func TestScopeOrder(t *testing.T) {
	if ScopeOrder(ScopeObject) >= ScopeOrder(ScopeComment) {
		t.Errorf("object must sort before comment")
	}
	if ScopeOrder(ScopeComment) >= ScopeOrder(ScopePrivilege) {
		t.Errorf("comment must sort before privilege")
	}
}
