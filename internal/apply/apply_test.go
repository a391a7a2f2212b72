package apply

import (
	"strings"
	"testing"

	"github.com/lib/pq"
)

func TestClassifyDependencyError(t *testing.T) {
	err := &pq.Error{Code: "42P01", Message: "relation \"widgets\" does not exist"}
	class, code, _ := classify(err)
	if class != classDependency {
		t.Fatalf("class = %v, want classDependency", class)
	}
	if code != "42P01" {
		t.Errorf("code = %q", code)
	}
}

func TestClassifyEnvironmentCapabilityBySQLSTATE(t *testing.T) {
	err := &pq.Error{Code: "0A000", Message: "feature not supported"}
	class, _, _ := classify(err)
	if class != classEnvironmentCapability {
		t.Fatalf("class = %v, want classEnvironmentCapability", class)
	}
}

func TestClassifyEnvironmentCapabilityByMessage(t *testing.T) {
	tests := []struct {
		name string
		err  *pq.Error
	}{
		// 42704 is a dependency code, but retrying will never install a
		// missing language; the message pattern wins over the SQLSTATE.
		{"missing language", &pq.Error{Code: "42704", Message: `language "plpython3u" does not exist`}},
		{"pre-existing role", &pq.Error{Code: "42710", Message: `role "app_ro" already exists`}},
		{"event trigger needs superuser", &pq.Error{Code: "42501", Message: "must be superuser to create event triggers"}},
		{"walreceiver unavailable", &pq.Error{Code: "55000", Message: "could not connect to the publisher: walreceiver is not running"}},
		{"replica identity missing", &pq.Error{Code: "55000", Message: `table "t" does not have a replica identity and publishes updates`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			class, _, _ := classify(tt.err)
			if class != classEnvironmentCapability {
				t.Fatalf("class = %v, want classEnvironmentCapability", class)
			}
		})
	}
}

func TestClassifyExistenceMessagesAreNotSkips(t *testing.T) {
	tests := []struct {
		name string
		err  *pq.Error
		want errorClass
	}{
		// duplicate_table is a planner bug, not an environment limitation
		{"pre-existing table", &pq.Error{Code: "42P07", Message: `relation "app.foo" already exists`}, classHardError},
		// undefined_table stays a deferrable dependency failure
		{"missing relation", &pq.Error{Code: "42P01", Message: `relation "app.foo" does not exist`}, classDependency},
		// a generic does-not-exist under an unlisted code is a hard error
		{"missing window", &pq.Error{Code: "42P20", Message: `window "w" does not exist`}, classHardError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			class, _, _ := classify(tt.err)
			if class != tt.want {
				t.Fatalf("class = %v, want %v", class, tt.want)
			}
		})
	}
}

func TestClassifyHardError(t *testing.T) {
	err := &pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"}
	class, _, _ := classify(err)
	if class != classHardError {
		t.Fatalf("class = %v, want classHardError", class)
	}
}

func TestAsCreateOrReplaceFunction(t *testing.T) {
	got := asCreateOrReplace("CREATE FUNCTION app.f() RETURNS int AS $$ SELECT 1 $$ LANGUAGE sql")
	if !strings.HasPrefix(got, "CREATE OR REPLACE FUNCTION") {
		t.Fatalf("got = %q", got)
	}
}

func TestAsCreateOrReplaceLeavesExistingOrReplace(t *testing.T) {
	sql := "CREATE OR REPLACE FUNCTION app.f() RETURNS int AS $$ SELECT 1 $$ LANGUAGE sql"
	if got := asCreateOrReplace(sql); got != sql {
		t.Fatalf("got = %q, want unchanged", got)
	}
}

func TestLogDeferredEncodesKeyvals(t *testing.T) {
	var line string
	logDeferred(func(s string) { line = s }, "table:app.widgets", "42P01", "relation does not exist")
	if !strings.Contains(line, "id=table:app.widgets") {
		t.Errorf("line = %q, missing id", line)
	}
	if !strings.Contains(line, "sqlstate=42P01") {
		t.Errorf("line = %q, missing sqlstate", line)
	}
}
