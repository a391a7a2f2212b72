package differ

import (
	"github.com/pgdelta/pgdelta/internal/catalog"
	"github.com/pgdelta/pgdelta/internal/change"
	"github.com/pgdelta/pgdelta/internal/ident"
)

// DiffSequences diffs standalone sequences. DataType and Start are
// non-alterable in this model and force a drop+create (spec.md §4.2.1).
func DiffSequences(main, branch map[string]catalog.Sequence) []change.Change {
	created, dropped, altered := partition(main, branch)
	var out []change.Change
	for _, id := range created {
		out = append(out, change.CreateSequence(branch[id]))
	}
	for _, id := range dropped {
		out = append(out, change.DropSequence(main[id]))
	}
	for _, id := range altered {
		o, n := main[id], branch[id]
		if o.DataType != n.DataType || o.Start != n.Start {
			out = append(out, change.DropSequence(o))
			out = append(out, change.CreateSequence(n))
			continue
		}
		if o.Min != n.Min || o.Max != n.Max || o.Increment != n.Increment || o.Cycle != n.Cycle || o.Cache != n.Cache {
			out = append(out, change.AlterSequenceSetOptions(n))
		}
		target := change.CommentTarget("SEQUENCE " + change.QuoteQualified(n.Schema, n.Name, change.SerializeOptions{}))
		out = append(out, diffComment(string(ident.KindSequence), n.StableID(), target, o.Comment, n.Comment)...)
	}
	return out
}
