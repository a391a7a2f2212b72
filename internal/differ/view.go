package differ

import (
	"github.com/pgdelta/pgdelta/internal/catalog"
	"github.com/pgdelta/pgdelta/internal/change"
	"github.com/pgdelta/pgdelta/internal/ident"
)

// DiffViews diffs non-materialized views. A definition change always
// becomes CREATE OR REPLACE VIEW (AlterViewDefinition); there is no
// drop+create fallback, since View carries no output column list to
// compare. A new definition that removes or retypes an output column
// therefore yields a statement Postgres rejects.
func DiffViews(main, branch map[string]catalog.View) []change.Change {
	created, dropped, altered := partition(main, branch)
	var out []change.Change
	for _, id := range created {
		v := branch[id]
		out = append(out, change.CreateView(v))
		out = append(out, diffComment(string(ident.KindView), v.StableID(), viewCommentTarget(v), nil, v.Comment)...)
		out = append(out, diffPrivileges(string(ident.KindView), v.StableID(), viewGrantTarget(v), nil, v.Privileges)...)
	}
	for _, id := range dropped {
		out = append(out, change.DropView(main[id]))
	}
	for _, id := range altered {
		o, n := main[id], branch[id]
		if o.Definition != n.Definition {
			out = append(out, change.AlterViewDefinition(n))
		}
		out = append(out, diffComment(string(ident.KindView), n.StableID(), viewCommentTarget(n), o.Comment, n.Comment)...)
		out = append(out, diffPrivileges(string(ident.KindView), n.StableID(), viewGrantTarget(n), o.Privileges, n.Privileges)...)
	}
	return out
}

func viewCommentTarget(v catalog.View) change.CommentTarget {
	return change.CommentTarget("VIEW " + change.QuoteQualified(v.Schema, v.Name, change.SerializeOptions{}))
}

func viewGrantTarget(v catalog.View) change.GrantTarget {
	return change.GrantTarget("TABLE " + change.QuoteQualified(v.Schema, v.Name, change.SerializeOptions{}))
}

// DiffMaterializedViews diffs materialized views. Any change to the
// definition or column set forces drop+create (spec.md §4.2.1: no
// in-place alter for a materialized view's defining query).
func DiffMaterializedViews(main, branch map[string]catalog.MaterializedView) []change.Change {
	created, dropped, altered := partition(main, branch)
	var out []change.Change
	for _, id := range created {
		out = append(out, change.CreateMaterializedView(branch[id]))
	}
	for _, id := range dropped {
		out = append(out, change.DropMaterializedView(main[id]))
	}
	for _, id := range altered {
		o, n := main[id], branch[id]
		if o.Definition != n.Definition || len(o.Columns) != len(n.Columns) {
			out = append(out, change.DropMaterializedView(o))
			out = append(out, change.CreateMaterializedView(n))
			continue
		}
		target := change.CommentTarget("MATERIALIZED VIEW " + change.QuoteQualified(n.Schema, n.Name, change.SerializeOptions{}))
		out = append(out, diffComment(string(ident.KindMaterializedView), n.StableID(), target, o.Comment, n.Comment)...)
	}
	return out
}
