// Package catalog defines the value objects for every schema entity the
// engine understands (spec.md §3.2): schemas, tables, columns,
// constraints, indexes, views, materialized views, functions, procedures,
// aggregates, sequences, types/domains/collations, extensions, languages,
// rules, triggers, event triggers, policies, publications, subscriptions,
// foreign-data wrappers/servers/user mappings/foreign tables, and the
// role-scoped privilege sets attached to them.
//
// Every entity is an immutable value type exposing a stable identifier
// (internal/ident), and is compared for equality with google/go-cmp
// (spec.md §3.2's deepEqual(dataFields_a, dataFields_b)).
package catalog

import "github.com/google/go-cmp/cmp"

// Entity is satisfied by every catalog value type. StableID is the
// canonical identifier string (internal/ident); Equal performs the
// spec.md §3.2 equality check (stableId equality is assumed by callers,
// who only ever compare two entities already known to share an ID — e.g.
// two map entries for the same key across old/new snapshots).
type Entity interface {
	StableID() string
}

// Equal reports whether two entities of the same concrete type have
// identical data, per spec.md §3.2: "two entities with the same stableId
// are equal iff deepEqual(dataFields_a, dataFields_b)". Since exported
// struct fields include both identity and data fields, and two entities
// are only ever compared when they already share a stable ID (so their
// identity fields already match), a plain structural comparison is
// equivalent to comparing dataFields alone.
func Equal[T Entity](a, b T) bool {
	return cmp.Equal(a, b)
}

// Privilege is one {grantee, privilege, grantable} triple, the unit the
// privilege differ (spec.md §4.2) operates on.
type Privilege struct {
	Grantee    string
	Privilege  string // e.g. SELECT, INSERT, EXECUTE, USAGE
	Grantable  bool
	GrantedBy  string
}

// Comment is an optional free-text comment attached to an entity.
type Comment = *string
