package ident

import "testing"

func TestNormalizeIdentifier(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		mode     Mode
		expected string
	}{
		{"unquoted lowercased in raw mode", "Users", ModeRaw, "users"},
		{"unquoted preserved in ast mode", "Users", ModeAST, "Users"},
		{"quoted unquoted and preserved", `"Users"`, ModeRaw, "Users"},
		{"quoted doubled quote unescaped", `"a""b"`, ModeRaw, `a"b`},
		{"trims whitespace", "  users  ", ModeRaw, "users"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeIdentifier(tt.raw, tt.mode)
			if got != tt.expected {
				t.Errorf("NormalizeIdentifier(%q, %v) = %q, want %q", tt.raw, tt.mode, got, tt.expected)
			}
		})
	}
}

func TestNormalizeSignature(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected string
	}{
		{"empty args", "()", "()"},
		{"single arg", "(Integer)", "(integer)"},
		{"collapses whitespace", "( Integer ,  Text )", "(integer,text)"},
		{"preserves quoted case", `("MyType")`, `("MyType")`},
		{"array suffix", "(integer[])", "(integer[])"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeSignature(tt.raw)
			if got != tt.expected {
				t.Errorf("NormalizeSignature(%q) = %q, want %q", tt.raw, got, tt.expected)
			}
		})
	}
}

func TestSplitQualifiedName(t *testing.T) {
	got := SplitQualifiedName("Public.Users", ModeRaw)
	if got.Schema != "public" || got.Name != "users" {
		t.Errorf("got %+v", got)
	}

	got = SplitQualifiedName("users", ModeRaw)
	if got.Schema != "" || got.Name != "users" {
		t.Errorf("got %+v", got)
	}

	got = SplitQualifiedName(`"My Schema"."My Table"`, ModeRaw)
	if got.Schema != "My Schema" || got.Name != "My Table" {
		t.Errorf("got %+v", got)
	}
}

func TestStableIDConstructors(t *testing.T) {
	if got, want := Table("public", "users"), "table:public.users"; got != want {
		t.Errorf("Table() = %q, want %q", got, want)
	}
	if got, want := Column("public", "users", "id"), "column:public.users.id"; got != want {
		t.Errorf("Column() = %q, want %q", got, want)
	}
	if got, want := Comment("table:public.users"), "comment:table:public.users"; got != want {
		t.Errorf("Comment() = %q, want %q", got, want)
	}
	if got, want := ACL("table:public.users", "alice"), "acl:table:public.users@alice"; got != want {
		t.Errorf("ACL() = %q, want %q", got, want)
	}
	if got, want := Routine(KindFunction, "public", "foo", "(int,text)"), "function:public.foo(int,text)"; got != want {
		t.Errorf("Routine() = %q, want %q", got, want)
	}
}

func TestIsBuiltin(t *testing.T) {
	tests := []struct {
		ref  string
		want bool
	}{
		{"schema:pg_catalog", true},
		{"schema:public", true},
		{"schema:app", false},
		{"role:alice", true},
		{"type:text", true},
		{"type:app.widget", false},
		{"table:app.users", false},
	}
	for _, tt := range tests {
		if got := IsBuiltin(tt.ref); got != tt.want {
			t.Errorf("IsBuiltin(%q) = %v, want %v", tt.ref, got, tt.want)
		}
	}
}
