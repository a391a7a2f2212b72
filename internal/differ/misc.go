package differ

import (
	"github.com/pgdelta/pgdelta/internal/catalog"
	"github.com/pgdelta/pgdelta/internal/change"
	"github.com/pgdelta/pgdelta/internal/ident"
)

// DiffCollations diffs collations. Postgres has no ALTER COLLATION for
// its defining locale fields, so any change is drop+create.
func DiffCollations(main, branch map[string]catalog.Collation) []change.Change {
	created, dropped, altered := partition(main, branch)
	var out []change.Change
	for _, id := range created {
		out = append(out, change.CreateCollation(branch[id]))
	}
	for _, id := range dropped {
		out = append(out, change.DropCollation(main[id]))
	}
	for _, id := range altered {
		o, n := main[id], branch[id]
		out = append(out, change.DropCollation(o), change.CreateCollation(n))
	}
	return out
}

// DiffExtensions diffs extensions. Version is alterable in place via
// ALTER EXTENSION UPDATE; name/schema changes force drop+create.
func DiffExtensions(main, branch map[string]catalog.Extension) []change.Change {
	created, dropped, altered := partition(main, branch)
	var out []change.Change
	for _, id := range created {
		out = append(out, change.CreateExtension(branch[id]))
	}
	for _, id := range dropped {
		out = append(out, change.DropExtension(main[id]))
	}
	for _, id := range altered {
		o, n := main[id], branch[id]
		if o.Schema != n.Schema {
			out = append(out, change.DropExtension(o), change.CreateExtension(n))
			continue
		}
		if o.Version != n.Version {
			out = append(out, change.AlterExtensionUpdateVersion(n))
		}
	}
	return out
}

// DiffLanguages diffs procedural languages. A change to Trusted or to
// any handler/inline/validator function is drop+create since Postgres
// has no ALTER LANGUAGE for handler functions; privileges are diffed as
// grants and revokes; owner and comment changes emit no Change.
func DiffLanguages(main, branch map[string]catalog.Language) []change.Change {
	created, dropped, altered := partition(main, branch)
	var out []change.Change
	for _, id := range created {
		l := branch[id]
		out = append(out, change.CreateLanguage(l))
		out = append(out, diffPrivileges(string(ident.KindLanguage), l.StableID(), change.GrantTarget("LANGUAGE "+change.QuoteIdent(l.Name, change.SerializeOptions{})), nil, l.Privileges)...)
	}
	for _, id := range dropped {
		out = append(out, change.DropLanguage(main[id]))
	}
	for _, id := range altered {
		o, n := main[id], branch[id]
		target := change.GrantTarget("LANGUAGE " + change.QuoteIdent(n.Name, change.SerializeOptions{}))
		if o.Trusted != n.Trusted || o.HandlerFunc != n.HandlerFunc || o.InlineFunc != n.InlineFunc || o.ValidatorFunc != n.ValidatorFunc {
			out = append(out, change.DropLanguage(o), change.CreateLanguage(n))
		}
		out = append(out, diffPrivileges(string(ident.KindLanguage), n.StableID(), target, o.Privileges, n.Privileges)...)
	}
	return out
}

// DiffRules diffs rewrite rules; any field change is drop+create.
func DiffRules(main, branch map[string]catalog.Rule) []change.Change {
	created, dropped, altered := partition(main, branch)
	var out []change.Change
	for _, id := range created {
		out = append(out, change.CreateRule(branch[id]))
	}
	for _, id := range dropped {
		out = append(out, change.DropRule(main[id]))
	}
	for _, id := range altered {
		out = append(out, change.DropRule(main[id]), change.CreateRule(branch[id]))
	}
	return out
}

// DiffTriggers diffs triggers; any field change is drop+create.
func DiffTriggers(main, branch map[string]catalog.Trigger) []change.Change {
	created, dropped, altered := partition(main, branch)
	var out []change.Change
	for _, id := range created {
		out = append(out, change.CreateTrigger(branch[id]))
	}
	for _, id := range dropped {
		out = append(out, change.DropTrigger(main[id]))
	}
	for _, id := range altered {
		out = append(out, change.DropTrigger(main[id]), change.CreateTrigger(branch[id]))
	}
	return out
}

// DiffEventTriggers diffs database-global event triggers. Enabled is
// alterable in place; a change to Event, Function or Tags forces
// drop+create; owner and comment changes emit no Change.
func DiffEventTriggers(main, branch map[string]catalog.EventTrigger) []change.Change {
	created, dropped, altered := partition(main, branch)
	var out []change.Change
	for _, id := range created {
		out = append(out, change.CreateEventTrigger(branch[id]))
	}
	for _, id := range dropped {
		out = append(out, change.DropEventTrigger(main[id]))
	}
	for _, id := range altered {
		o, n := main[id], branch[id]
		if o.Event != n.Event || o.Function != n.Function || !stringSliceEqual(o.Tags, n.Tags) {
			out = append(out, change.DropEventTrigger(o), change.CreateEventTrigger(n))
			continue
		}
		if o.Enabled != n.Enabled {
			out = append(out, change.AlterEventTriggerEnabled(n))
		}
	}
	return out
}

// DiffPolicies diffs row-level security policies. Roles/using/with-check
// are alterable in place; command or permissive mode forces drop+create
// (spec.md §4.2.1).
func DiffPolicies(main, branch map[string]catalog.Policy) []change.Change {
	created, dropped, altered := partition(main, branch)
	var out []change.Change
	for _, id := range created {
		out = append(out, change.CreatePolicy(branch[id]))
	}
	for _, id := range dropped {
		out = append(out, change.DropPolicy(main[id]))
	}
	for _, id := range altered {
		o, n := main[id], branch[id]
		if o.Command != n.Command || o.Permissive != n.Permissive {
			out = append(out, change.DropPolicy(o), change.CreatePolicy(n))
			continue
		}
		if !stringSliceEqual(o.Roles, n.Roles) || o.Using != n.Using || o.WithCheck != n.WithCheck {
			out = append(out, change.AlterPolicy(n))
		}
	}
	return out
}

func stringSliceEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
