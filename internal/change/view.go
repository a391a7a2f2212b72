package change

import (
	"github.com/pgdelta/pgdelta/internal/catalog"
	"github.com/pgdelta/pgdelta/internal/ident"
)

type createView struct{ v catalog.View }

func (p createView) Serialize(opts SerializeOptions) string {
	return sqlf("CREATE VIEW %s AS %s", QuoteQualified(p.v.Schema, p.v.Name, opts), p.v.Definition)
}

type dropView struct{ v catalog.View }

func (p dropView) Serialize(opts SerializeOptions) string {
	return sqlf("DROP VIEW %s", QuoteQualified(p.v.Schema, p.v.Name, opts))
}

// CreateView builds the Change that creates a non-materialized view.
func CreateView(v catalog.View) Change {
	return Change{
		Operation:  OpCreate,
		ObjectType: string(ident.KindView),
		Scope:      ScopeObject,
		Provides:   []string{v.StableID()},
		Payload:    createView{v: v},
	}
}

// DropView builds the Change that drops a non-materialized view.
func DropView(v catalog.View) Change {
	return Change{
		Operation:  OpDrop,
		ObjectType: string(ident.KindView),
		Scope:      ScopeObject,
		Drops:      []string{v.StableID()},
		Payload:    dropView{v: v},
	}
}

type replaceView struct{ v catalog.View }

func (p replaceView) Serialize(opts SerializeOptions) string {
	return sqlf("CREATE OR REPLACE VIEW %s AS %s", QuoteQualified(p.v.Schema, p.v.Name, opts), p.v.Definition)
}

// AlterViewDefinition builds the Change that replaces a view's query
// using CREATE OR REPLACE VIEW, which Postgres allows as long as the
// output column set is a superset with unchanged types and names. The
// differ uses it for every view definition change; it does not fall back
// to DropView+CreateView when the new definition removes or retypes a
// column.
func AlterViewDefinition(v catalog.View) Change {
	return Change{
		Operation:  OpAlter,
		ObjectType: string(ident.KindView),
		Scope:      ScopeObject,
		Requires:   []string{v.StableID()},
		Payload:    replaceView{v: v},
	}
}

type createMaterializedView struct{ m catalog.MaterializedView }

func (p createMaterializedView) Serialize(opts SerializeOptions) string {
	return sqlf("CREATE MATERIALIZED VIEW %s AS %s", QuoteQualified(p.m.Schema, p.m.Name, opts), p.m.Definition)
}

type dropMaterializedView struct{ m catalog.MaterializedView }

func (p dropMaterializedView) Serialize(opts SerializeOptions) string {
	return sqlf("DROP MATERIALIZED VIEW %s", QuoteQualified(p.m.Schema, p.m.Name, opts))
}

// CreateMaterializedView builds the Change that creates a materialized
// view.
func CreateMaterializedView(m catalog.MaterializedView) Change {
	provides := []string{m.StableID()}
	for _, c := range m.Columns {
		provides = append(provides, c.StableID())
	}
	return Change{
		Operation:  OpCreate,
		ObjectType: string(ident.KindMaterializedView),
		Scope:      ScopeObject,
		Provides:   provides,
		Payload:    createMaterializedView{m: m},
	}
}

// DropMaterializedView builds the Change that drops a materialized
// view. Materialized views have no in-place alter: any definition or
// column-set change is a drop+create (spec.md §4.2.1 "non-alterable
// delta" treatment, the same rule applied to aggregates).
func DropMaterializedView(m catalog.MaterializedView) Change {
	drops := []string{m.StableID()}
	for _, c := range m.Columns {
		drops = append(drops, c.StableID())
	}
	return Change{
		Operation:  OpDrop,
		ObjectType: string(ident.KindMaterializedView),
		Scope:      ScopeObject,
		Drops:      drops,
		Payload:    dropMaterializedView{m: m},
	}
}
