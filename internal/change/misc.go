package change

import (
	"fmt"
	"strings"

	"github.com/pgdelta/pgdelta/internal/catalog"
	"github.com/pgdelta/pgdelta/internal/ident"
)

// rawCreate and rawDrop cover the many entity kinds whose CREATE/DROP
// statement is a single, already-fully-formed fragment computed by the
// caller — keeping this package from needing one payload struct per
// kind for the straightforward cases (spec.md §3.3 design notes).
type rawCreate struct{ stmt string }

func (p rawCreate) Serialize(opts SerializeOptions) string { return p.stmt }

type rawDrop struct{ stmt string }

func (p rawDrop) Serialize(opts SerializeOptions) string { return p.stmt }

// RawCreate builds a generic create Change from a precomputed statement.
func RawCreate(objectType string, provides []string, stmt string) Change {
	return Change{Operation: OpCreate, ObjectType: objectType, Scope: ScopeObject, Provides: provides, Payload: rawCreate{stmt: stmt}}
}

// RawDrop builds a generic drop Change from a precomputed statement.
func RawDrop(objectType string, drops []string, stmt string) Change {
	return Change{Operation: OpDrop, ObjectType: objectType, Scope: ScopeObject, Drops: drops, Payload: rawDrop{stmt: stmt}}
}

// CreateIndex builds the Change that creates an index from its already
// fully-formed definition text (the extractor is expected to hand back
// the exact CREATE INDEX body, per spec.md §3.2 Index.definition).
func CreateIndex(i catalog.Index) Change {
	return Change{
		Operation:  OpCreate,
		ObjectType: string(ident.KindIndex),
		Scope:      ScopeObject,
		Provides:   []string{i.StableID()},
		Requires:   []string{ident.Table(i.Schema, i.Table)},
		Payload:    rawCreate{stmt: i.Definition},
	}
}

// DropIndex builds the Change that drops an index.
func DropIndex(i catalog.Index) Change {
	return Change{
		Operation:  OpDrop,
		ObjectType: string(ident.KindIndex),
		Scope:      ScopeObject,
		Drops:      []string{i.StableID()},
		Payload:    rawDrop{stmt: fmt.Sprintf("DROP INDEX %s", QuoteQualified(i.Schema, i.Name, SerializeOptions{}))},
	}
}

// CreateCollation builds the Change that creates a collation.
func CreateCollation(c catalog.Collation) Change {
	var parts []string
	if c.Locale != "" {
		parts = append(parts, "LOCALE = "+EscapeLiteral(c.Locale))
	}
	if c.Collate != "" {
		parts = append(parts, "LC_COLLATE = "+EscapeLiteral(c.Collate))
	}
	if c.Ctype != "" {
		parts = append(parts, "LC_CTYPE = "+EscapeLiteral(c.Ctype))
	}
	if c.ICURules != "" {
		parts = append(parts, "RULES = "+EscapeLiteral(c.ICURules))
	}
	if !c.IsDeterministic {
		parts = append(parts, "DETERMINISTIC = false")
	}
	stmt := fmt.Sprintf("CREATE COLLATION %s (%s)", QuoteQualified(c.Schema, c.Name, SerializeOptions{}), strings.Join(parts, ", "))
	return RawCreate(string(ident.KindCollation), []string{c.StableID()}, stmt)
}

// DropCollation builds the Change that drops a collation.
func DropCollation(c catalog.Collation) Change {
	stmt := fmt.Sprintf("DROP COLLATION %s", QuoteQualified(c.Schema, c.Name, SerializeOptions{}))
	return RawDrop(string(ident.KindCollation), []string{c.StableID()}, stmt)
}

// CreateExtension builds the Change that installs an extension.
func CreateExtension(e catalog.Extension) Change {
	stmt := fmt.Sprintf("CREATE EXTENSION %s", QuoteIdent(e.Name, SerializeOptions{}))
	if e.Schema != "" {
		stmt += " SCHEMA " + QuoteIdent(e.Schema, SerializeOptions{})
	}
	if e.Version != "" {
		stmt += " VERSION " + EscapeLiteral(e.Version)
	}
	return RawCreate(string(ident.KindExtension), []string{e.StableID()}, stmt)
}

// DropExtension builds the Change that drops an extension.
func DropExtension(e catalog.Extension) Change {
	stmt := fmt.Sprintf("DROP EXTENSION %s", QuoteIdent(e.Name, SerializeOptions{}))
	return RawDrop(string(ident.KindExtension), []string{e.StableID()}, stmt)
}

// AlterExtensionUpdateVersion builds the Change that upgrades an
// installed extension in place (spec.md §4.2.1: version is the only
// alterable field on Extension; name/schema changes fall back to
// DropExtension+CreateExtension since extensions own their member
// objects).
func AlterExtensionUpdateVersion(e catalog.Extension) Change {
	stmt := fmt.Sprintf("ALTER EXTENSION %s UPDATE TO %s", QuoteIdent(e.Name, SerializeOptions{}), EscapeLiteral(e.Version))
	return Change{Operation: OpAlter, ObjectType: string(ident.KindExtension), Scope: ScopeObject, Requires: []string{e.StableID()}, Payload: rawCreate{stmt: stmt}}
}

// CreateLanguage builds the Change that creates a procedural language.
func CreateLanguage(l catalog.Language) Change {
	trusted := ""
	if l.Trusted {
		trusted = "TRUSTED "
	}
	stmt := fmt.Sprintf("CREATE %sLANGUAGE %s HANDLER %s", trusted, QuoteIdent(l.Name, SerializeOptions{}), l.HandlerFunc)
	if l.InlineFunc != "" {
		stmt += " INLINE " + l.InlineFunc
	}
	if l.ValidatorFunc != "" {
		stmt += " VALIDATOR " + l.ValidatorFunc
	}
	return RawCreate(string(ident.KindLanguage), []string{l.StableID()}, stmt)
}

// DropLanguage builds the Change that drops a procedural language.
func DropLanguage(l catalog.Language) Change {
	stmt := fmt.Sprintf("DROP LANGUAGE %s", QuoteIdent(l.Name, SerializeOptions{}))
	return RawDrop(string(ident.KindLanguage), []string{l.StableID()}, stmt)
}

// CreateRule builds the Change that creates a rewrite rule.
func CreateRule(r catalog.Rule) Change {
	instead := "ALSO"
	if r.Instead {
		instead = "INSTEAD"
	}
	stmt := fmt.Sprintf("CREATE RULE %s AS ON %s TO %s", QuoteIdent(r.Name, SerializeOptions{}), r.Event, QuoteQualified(r.Schema, r.Table, SerializeOptions{}))
	if r.Condition != "" {
		stmt += " WHERE " + r.Condition
	}
	stmt += fmt.Sprintf(" DO %s %s", instead, r.Actions)
	return Change{
		Operation: OpCreate, ObjectType: string(ident.KindRule), Scope: ScopeObject,
		Provides: []string{r.StableID()}, Requires: []string{ident.Table(r.Schema, r.Table)}, Payload: rawCreate{stmt: stmt},
	}
}

// DropRule builds the Change that drops a rewrite rule.
func DropRule(r catalog.Rule) Change {
	stmt := fmt.Sprintf("DROP RULE %s ON %s", QuoteIdent(r.Name, SerializeOptions{}), QuoteQualified(r.Schema, r.Table, SerializeOptions{}))
	return RawDrop(string(ident.KindRule), []string{r.StableID()}, stmt)
}

// CreateTrigger builds the Change that creates a trigger.
func CreateTrigger(t catalog.Trigger) Change {
	stmt := fmt.Sprintf("CREATE TRIGGER %s %s %s ON %s FOR EACH %s",
		QuoteIdent(t.Name, SerializeOptions{}), t.Timing, strings.Join(t.Events, " OR "), QuoteQualified(t.Schema, t.Table, SerializeOptions{}), t.Level)
	if t.Condition != "" {
		stmt += " WHEN (" + t.Condition + ")"
	}
	stmt += fmt.Sprintf(" EXECUTE FUNCTION %s(%s)", t.Function, strings.Join(t.Arguments, ", "))
	return Change{
		Operation: OpCreate, ObjectType: string(ident.KindTrigger), Scope: ScopeObject,
		Provides: []string{t.StableID()}, Requires: []string{ident.Table(t.Schema, t.Table)}, Payload: rawCreate{stmt: stmt},
	}
}

// DropTrigger builds the Change that drops a trigger.
func DropTrigger(t catalog.Trigger) Change {
	stmt := fmt.Sprintf("DROP TRIGGER %s ON %s", QuoteIdent(t.Name, SerializeOptions{}), QuoteQualified(t.Schema, t.Table, SerializeOptions{}))
	return RawDrop(string(ident.KindTrigger), []string{t.StableID()}, stmt)
}

// CreateEventTrigger builds the Change that creates a database-global
// event trigger.
func CreateEventTrigger(e catalog.EventTrigger) Change {
	stmt := fmt.Sprintf("CREATE EVENT TRIGGER %s ON %s", QuoteIdent(e.Name, SerializeOptions{}), e.Event)
	if len(e.Tags) > 0 {
		var quoted []string
		for _, t := range e.Tags {
			quoted = append(quoted, EscapeLiteral(t))
		}
		stmt += " WHEN TAG IN (" + strings.Join(quoted, ", ") + ")"
	}
	stmt += " EXECUTE FUNCTION " + e.Function
	return RawCreate(string(ident.KindEventTrigger), []string{e.StableID()}, stmt)
}

// DropEventTrigger builds the Change that drops an event trigger.
func DropEventTrigger(e catalog.EventTrigger) Change {
	stmt := fmt.Sprintf("DROP EVENT TRIGGER %s", QuoteIdent(e.Name, SerializeOptions{}))
	return RawDrop(string(ident.KindEventTrigger), []string{e.StableID()}, stmt)
}

type alterEventTriggerEnabled struct {
	name    string
	enabled bool
}

func (p alterEventTriggerEnabled) Serialize(opts SerializeOptions) string {
	state := "DISABLE"
	if p.enabled {
		state = "ENABLE"
	}
	return sqlf("ALTER EVENT TRIGGER %s %s", QuoteIdent(p.name, opts), state)
}

// AlterEventTriggerEnabled builds the Change that flips an event
// trigger's enabled state.
func AlterEventTriggerEnabled(e catalog.EventTrigger) Change {
	return Change{
		Operation: OpAlter, ObjectType: string(ident.KindEventTrigger), Scope: ScopeObject,
		Requires: []string{e.StableID()}, Payload: alterEventTriggerEnabled{name: e.Name, enabled: e.Enabled},
	}
}

// CreatePolicy builds the Change that creates a row-level security
// policy.
func CreatePolicy(p catalog.Policy) Change {
	perm := "PERMISSIVE"
	if !p.Permissive {
		perm = "RESTRICTIVE"
	}
	stmt := fmt.Sprintf("CREATE POLICY %s ON %s AS %s FOR %s", QuoteIdent(p.Name, SerializeOptions{}), QuoteQualified(p.Schema, p.Table, SerializeOptions{}), perm, p.Command)
	if len(p.Roles) > 0 {
		stmt += " TO " + strings.Join(p.Roles, ", ")
	}
	if p.Using != "" {
		stmt += " USING (" + p.Using + ")"
	}
	if p.WithCheck != "" {
		stmt += " WITH CHECK (" + p.WithCheck + ")"
	}
	return Change{
		Operation: OpCreate, ObjectType: string(ident.KindPolicy), Scope: ScopeObject,
		Provides: []string{p.StableID()}, Requires: []string{ident.Table(p.Schema, p.Table)}, Payload: rawCreate{stmt: stmt},
	}
}

// DropPolicy builds the Change that drops a row-level security policy.
func DropPolicy(p catalog.Policy) Change {
	stmt := fmt.Sprintf("DROP POLICY %s ON %s", QuoteIdent(p.Name, SerializeOptions{}), QuoteQualified(p.Schema, p.Table, SerializeOptions{}))
	return RawDrop(string(ident.KindPolicy), []string{p.StableID()}, stmt)
}

type alterPolicy struct{ p catalog.Policy }

func (c alterPolicy) Serialize(opts SerializeOptions) string {
	stmt := fmt.Sprintf("ALTER POLICY %s ON %s", QuoteIdent(c.p.Name, opts), QuoteQualified(c.p.Schema, c.p.Table, opts))
	if len(c.p.Roles) > 0 {
		stmt += " TO " + strings.Join(c.p.Roles, ", ")
	}
	if c.p.Using != "" {
		stmt += " USING (" + c.p.Using + ")"
	}
	if c.p.WithCheck != "" {
		stmt += " WITH CHECK (" + c.p.WithCheck + ")"
	}
	return stmt
}

// AlterPolicy builds the Change for a policy's alterable fields (roles,
// using, with check). Its command and permissive/restrictive mode are
// not alterable in place and force DropPolicy+CreatePolicy instead
// (spec.md §4.2.1).
func AlterPolicy(p catalog.Policy) Change {
	return Change{
		Operation: OpAlter, ObjectType: string(ident.KindPolicy), Scope: ScopeObject,
		Requires: []string{p.StableID()}, Payload: alterPolicy{p: p},
	}
}
