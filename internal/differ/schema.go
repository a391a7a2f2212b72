package differ

import (
	"github.com/pgdelta/pgdelta/internal/catalog"
	"github.com/pgdelta/pgdelta/internal/change"
	"github.com/pgdelta/pgdelta/internal/ident"
)

// DiffSchemas diffs the schema namespace itself: creation, drop, owner
// reassignment, and comment.
func DiffSchemas(main, branch map[string]catalog.Schema) []change.Change {
	created, dropped, altered := partition(main, branch)

	var out []change.Change
	for _, id := range created {
		s := branch[id]
		if ident.IsBuiltin(s.StableID()) {
			continue
		}
		out = append(out, change.CreateSchema(s))
		out = append(out, diffComment(string(ident.KindSchema), s.StableID(), change.CommentTarget("SCHEMA "+change.QuoteIdent(s.Name, change.SerializeOptions{})), nil, s.Comment)...)
	}
	for _, id := range dropped {
		s := main[id]
		if ident.IsBuiltin(s.StableID()) {
			continue
		}
		out = append(out, change.DropSchema(s))
	}
	for _, id := range altered {
		o, n := main[id], branch[id]
		if o.Owner != n.Owner {
			out = append(out, change.AlterOwnerTo(string(ident.KindSchema), n.StableID(), "SCHEMA "+n.Name, n.Owner))
		}
		target := change.CommentTarget("SCHEMA " + change.QuoteIdent(n.Name, change.SerializeOptions{}))
		out = append(out, diffComment(string(ident.KindSchema), n.StableID(), target, o.Comment, n.Comment)...)
	}
	return out
}
