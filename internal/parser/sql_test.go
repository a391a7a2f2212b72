package parser

import (
	"strings"
	"testing"

	"github.com/pgdelta/pgdelta/internal/catalog"
)

func TestParseSQLSchemaTableAndColumns(t *testing.T) {
	sql := `
CREATE SCHEMA app;
CREATE TABLE app.users (
    id bigint GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
    email text NOT NULL UNIQUE,
    name varchar(255),
    created_at timestamptz NOT NULL DEFAULT now()
);
`
	snap, err := ParseSQLSchema(sql)
	if err != nil {
		t.Fatalf("ParseSQLSchema: %v", err)
	}

	if _, ok := snap.Schemas["schema:app"]; !ok {
		t.Fatalf("expected schema:app, got %v", keysOf(snap.Schemas))
	}

	table, ok := snap.Tables["table:app.users"]
	if !ok {
		t.Fatalf("expected table:app.users, got %v", keysOf(snap.Tables))
	}
	if len(table.Columns) != 4 {
		t.Fatalf("expected 4 columns, got %d", len(table.Columns))
	}

	id, _ := table.ColumnByName("id")
	if id.Identity != catalog.IdentityAlways {
		t.Errorf("id identity = %q", id.Identity)
	}
	if !id.NotNull {
		t.Error("identity column must be NOT NULL")
	}

	email, _ := table.ColumnByName("email")
	if !email.NotNull {
		t.Error("email must be NOT NULL")
	}

	name, _ := table.ColumnByName("name")
	if name.DataType != "varchar(255)" {
		t.Errorf("name type = %q", name.DataType)
	}

	created, _ := table.ColumnByName("created_at")
	if created.Default == nil || !strings.Contains(*created.Default, "now()") {
		t.Errorf("created_at default = %v", created.Default)
	}

	// PK from the id column and UNIQUE from email become constraint entities.
	foundPK, foundUnique := false, false
	for _, c := range snap.Constraints {
		switch c.Kind {
		case catalog.ConstraintPrimaryKey:
			foundPK = true
		case catalog.ConstraintUnique:
			foundUnique = true
		}
	}
	if !foundPK || !foundUnique {
		t.Errorf("expected pk and unique constraints, got %v", keysOf(snap.Constraints))
	}
}

func TestParseSQLSchemaForeignKey(t *testing.T) {
	sql := `
CREATE TABLE users (id int PRIMARY KEY);
CREATE TABLE orders (
    id int PRIMARY KEY,
    user_id int,
    CONSTRAINT orders_user_fk FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE CASCADE
);
`
	snap, err := ParseSQLSchema(sql)
	if err != nil {
		t.Fatalf("ParseSQLSchema: %v", err)
	}

	fk, ok := snap.Constraints["constraint:public.orders.orders_user_fk"]
	if !ok {
		t.Fatalf("expected named FK, got %v", keysOf(snap.Constraints))
	}
	if fk.Kind != catalog.ConstraintForeignKey {
		t.Errorf("kind = %q", fk.Kind)
	}
	if !strings.Contains(fk.Body, "REFERENCES users (id)") {
		t.Errorf("body = %q", fk.Body)
	}
	if !strings.Contains(fk.Body, "ON DELETE CASCADE") {
		t.Errorf("body = %q", fk.Body)
	}
}

func TestParseSQLSchemaIndexSequenceView(t *testing.T) {
	sql := `
CREATE TABLE t (id int, email text);
CREATE UNIQUE INDEX t_email_key ON t (email);
CREATE SEQUENCE t_seq START 100 INCREMENT 5 CYCLE;
CREATE VIEW v AS SELECT id FROM t;
`
	snap, err := ParseSQLSchema(sql)
	if err != nil {
		t.Fatalf("ParseSQLSchema: %v", err)
	}

	idx, ok := snap.Indexes["index:public.t_email_key"]
	if !ok {
		t.Fatalf("expected index, got %v", keysOf(snap.Indexes))
	}
	if !strings.Contains(idx.Definition, "CREATE UNIQUE INDEX") {
		t.Errorf("definition = %q", idx.Definition)
	}

	seq, ok := snap.Sequences["sequence:public.t_seq"]
	if !ok {
		t.Fatalf("expected sequence, got %v", keysOf(snap.Sequences))
	}
	if seq.Start != 100 || seq.Increment != 5 || !seq.Cycle {
		t.Errorf("sequence options = %+v", seq)
	}

	view, ok := snap.Views["view:public.v"]
	if !ok {
		t.Fatalf("expected view, got %v", keysOf(snap.Views))
	}
	if !strings.Contains(view.Definition, "SELECT") {
		t.Errorf("definition = %q", view.Definition)
	}
}

func TestParseSQLSchemaEnumAndDomain(t *testing.T) {
	sql := `
CREATE TYPE status AS ENUM ('active', 'disabled');
CREATE DOMAIN email AS text CHECK (VALUE ~ '@');
`
	snap, err := ParseSQLSchema(sql)
	if err != nil {
		t.Fatalf("ParseSQLSchema: %v", err)
	}

	enum, ok := snap.Types["type:public.status"]
	if !ok {
		t.Fatalf("expected enum type, got %v", keysOf(snap.Types))
	}
	if enum.Kind != catalog.TypeKindEnum || len(enum.Labels) != 2 {
		t.Errorf("enum = %+v", enum)
	}

	domain, ok := snap.Types["type:public.email"]
	if !ok {
		t.Fatalf("expected domain type, got %v", keysOf(snap.Types))
	}
	if domain.Kind != catalog.TypeKindDomain || domain.BaseType != "text" {
		t.Errorf("domain = %+v", domain)
	}
	if len(domain.Constraints) != 1 {
		t.Errorf("domain constraints = %v", domain.Constraints)
	}
}

func TestParseSQLSchemaFunction(t *testing.T) {
	sql := `
CREATE FUNCTION add(a int, b int) RETURNS int LANGUAGE sql AS $$ SELECT a + b $$;
`
	snap, err := ParseSQLSchema(sql)
	if err != nil {
		t.Fatalf("ParseSQLSchema: %v", err)
	}

	var fn catalog.Function
	found := false
	for _, f := range snap.Functions {
		fn = f
		found = true
	}
	if !found {
		t.Fatal("expected a function")
	}
	if fn.Name != "add" || fn.Language != "sql" {
		t.Errorf("function = %+v", fn)
	}
	if fn.IdentityArguments != "(int4, int4)" && fn.IdentityArguments != "(int, int)" {
		t.Errorf("signature = %q", fn.IdentityArguments)
	}
	if !strings.Contains(fn.Definition, "CREATE FUNCTION") {
		t.Errorf("definition = %q", fn.Definition)
	}
}

func TestParseSQLSchemaCommentAndGrant(t *testing.T) {
	sql := `
CREATE TABLE t (id int);
COMMENT ON TABLE t IS 'people';
COMMENT ON COLUMN t.id IS 'surrogate key';
GRANT SELECT, INSERT ON TABLE t TO reporting;
`
	snap, err := ParseSQLSchema(sql)
	if err != nil {
		t.Fatalf("ParseSQLSchema: %v", err)
	}

	table := snap.Tables["table:public.t"]
	if table.Comment == nil || *table.Comment != "people" {
		t.Errorf("table comment = %v", table.Comment)
	}
	id, _ := table.ColumnByName("id")
	if id.Comment == nil || *id.Comment != "surrogate key" {
		t.Errorf("column comment = %v", id.Comment)
	}
	if len(table.Privileges) != 2 {
		t.Fatalf("privileges = %+v", table.Privileges)
	}
	for _, p := range table.Privileges {
		if p.Grantee != "reporting" {
			t.Errorf("grantee = %q", p.Grantee)
		}
	}
}

func TestParseSQLSchemaRejectsBadSQL(t *testing.T) {
	if _, err := ParseSQLSchema("CREATE TABEL broken (id int)"); err == nil {
		t.Fatal("expected parse error")
	}
}

func keysOf[V any](m map[string]V) []string {
	var out []string
	for k := range m {
		out = append(out, k)
	}
	return out
}
