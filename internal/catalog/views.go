package catalog

import "github.com/pgdelta/pgdelta/internal/ident"

// View is a non-materialized view.
type View struct {
	Schema     string
	Name       string
	Definition string
	Comment    Comment
	Privileges []Privilege
}

func (v View) StableID() string { return ident.Qualified(ident.KindView, v.Schema, v.Name) }

// MaterializedView is a materialized view; unlike View it carries its own
// column list (materialized views persist storage, so their columns are
// part of the entity's identity surface for diffing purposes).
type MaterializedView struct {
	Schema     string
	Name       string
	Definition string
	Columns    []Column
	Comment    Comment
	Privileges []Privilege
}

func (m MaterializedView) StableID() string {
	return ident.Qualified(ident.KindMaterializedView, m.Schema, m.Name)
}
