package analyzer

import "testing"

func TestSplitStatementsIgnoresSemicolonInString(t *testing.T) {
	spans := splitStatements(`INSERT INTO t VALUES ('a;b'); SELECT 1`)
	if len(spans) != 2 {
		t.Fatalf("spans = %d, want 2", len(spans))
	}
}

func TestSplitStatementsIgnoresSemicolonInDollarQuote(t *testing.T) {
	sql := "CREATE FUNCTION f() RETURNS int AS $$ BEGIN RETURN 1; END; $$ LANGUAGE plpgsql; SELECT 2"
	spans := splitStatements(sql)
	if len(spans) != 2 {
		t.Fatalf("spans = %d, want 2: %+v", len(spans), spans)
	}
}

func TestSplitStatementsIgnoresSemicolonInLineComment(t *testing.T) {
	sql := "-- drop everything; it's fine\nSELECT 1"
	spans := splitStatements(sql)
	if len(spans) != 1 {
		t.Fatalf("spans = %d, want 1", len(spans))
	}
}

func TestClassifyCreateTable(t *testing.T) {
	class, _, err := classify("CREATE TABLE app.widgets (id integer)")
	if err != nil {
		t.Fatalf("classify error: %v", err)
	}
	if class != ClassCreateTable {
		t.Errorf("class = %v, want CREATE_TABLE", class)
	}
}

func TestClassifyUnknownOnParseError(t *testing.T) {
	class, _, err := classify("CREATE TABLE ((( not valid sql")
	if err == nil {
		t.Fatal("expected a parse error")
	}
	if class != ClassUnknown {
		t.Errorf("class = %v, want UNKNOWN", class)
	}
}

func TestParseAnnotationsPhaseAndRequires(t *testing.T) {
	text := "-- pg-topo:phase routines\n-- pg-topo:requires table:app.widgets\nCREATE FUNCTION app.f() RETURNS int AS $$ SELECT 1 $$ LANGUAGE sql"
	hints, diags := parseAnnotations(text)
	if len(diags) != 0 {
		t.Fatalf("diags = %+v, want none", diags)
	}
	if hints.Phase != PhaseRoutines {
		t.Errorf("Phase = %q", hints.Phase)
	}
	if len(hints.Requires) != 1 || hints.Requires[0] != "table:app.widgets" {
		t.Errorf("Requires = %+v", hints.Requires)
	}
}

func TestParseAnnotationsDuplicatePhaseIsInvalid(t *testing.T) {
	text := "-- pg-topo:phase routines\n-- pg-topo:phase post_data\nSELECT 1"
	_, diags := parseAnnotations(text)
	if len(diags) != 1 {
		t.Fatalf("diags = %+v, want one", diags)
	}
}

func TestAnalyzeOrdersCreateTableBeforeIndex(t *testing.T) {
	result := Analyze([]Input{{
		FilePath: "a.sql",
		SQL:      "CREATE INDEX idx_w ON app.widgets (name);\nCREATE TABLE app.widgets (id integer, name text);",
	}})
	if len(result.Ordered) != 2 {
		t.Fatalf("ordered = %+v, want 2 statements", result.Ordered)
	}
	if result.Ordered[0].Class != ClassCreateTable {
		t.Errorf("first statement = %v, want CREATE_TABLE first", result.Ordered[0].Class)
	}
}

func TestAnalyzeReportsDuplicateProducer(t *testing.T) {
	result := Analyze([]Input{{
		FilePath: "a.sql",
		SQL:      "CREATE TABLE app.widgets (id integer);\nCREATE TABLE app.widgets (id integer);",
	}})
	found := false
	for _, d := range result.Diagnostics {
		if d.Code == "DUPLICATE_PRODUCER" {
			found = true
		}
	}
	if !found {
		t.Fatalf("diagnostics = %+v, want a DUPLICATE_PRODUCER", result.Diagnostics)
	}
}

func TestAnalyzeOrdersSchemaBeforeQualifiedTable(t *testing.T) {
	result := Analyze([]Input{{
		FilePath: "a.sql",
		SQL:      "CREATE TABLE app.widgets (id integer);\nCREATE SCHEMA app;",
	}})
	if len(result.Ordered) != 2 {
		t.Fatalf("ordered = %+v, want 2 statements", result.Ordered)
	}
	if result.Ordered[0].Class != ClassCreateSchema {
		t.Errorf("first statement = %v, want CREATE_SCHEMA first", result.Ordered[0].Class)
	}
}

func TestSchemaOf(t *testing.T) {
	if s, ok := schemaOf("table:app.users"); !ok || s != "app" {
		t.Errorf("schemaOf(table:app.users) = %q, %v", s, ok)
	}
	if _, ok := schemaOf("table:users"); ok {
		t.Error("unqualified ref must not yield a schema")
	}
	if _, ok := schemaOf("schema:app"); ok {
		t.Error("schema refs must not yield a schema")
	}
}
