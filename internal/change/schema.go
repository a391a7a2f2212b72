package change

import (
	"github.com/pgdelta/pgdelta/internal/catalog"
	"github.com/pgdelta/pgdelta/internal/ident"
)

type createSchema struct{ s catalog.Schema }

func (p createSchema) Serialize(opts SerializeOptions) string {
	return sqlf("CREATE SCHEMA %s", QuoteIdent(p.s.Name, opts))
}

type dropSchema struct{ s catalog.Schema }

func (p dropSchema) Serialize(opts SerializeOptions) string {
	return sqlf("DROP SCHEMA %s", QuoteIdent(p.s.Name, opts))
}

// CreateSchema builds the Change that creates a schema.
func CreateSchema(s catalog.Schema) Change {
	return Change{
		Operation:  OpCreate,
		ObjectType: string(ident.KindSchema),
		Scope:      ScopeObject,
		Provides:   []string{s.StableID()},
		Payload:    createSchema{s: s},
	}
}

// DropSchema builds the Change that drops a schema (and, by cascade,
// everything it contains — the planner need not synthesize the
// subordinate drops, per spec.md §4.2 "Drop path").
func DropSchema(s catalog.Schema) Change {
	return Change{
		Operation:  OpDrop,
		ObjectType: string(ident.KindSchema),
		Scope:      ScopeObject,
		Drops:      []string{s.StableID()},
		Payload:    dropSchema{s: s},
	}
}
