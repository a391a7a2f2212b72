package differ

import (
	"github.com/pgdelta/pgdelta/internal/catalog"
	"github.com/pgdelta/pgdelta/internal/change"
	"github.com/pgdelta/pgdelta/internal/ident"
)

// DiffTypes diffs composite/enum/range/base types and domains (all
// modeled as catalog.Type, discriminated by Kind). Enum label additions
// are alterable in place; a removed or reordered-incompatibly label, or
// any change to a composite/range/base type's defining fields, forces
// drop+create (spec.md §4.2.1).
func DiffTypes(main, branch map[string]catalog.Type) []change.Change {
	created, dropped, altered := partition(main, branch)
	var out []change.Change
	for _, id := range created {
		out = append(out, change.CreateType(branch[id]))
	}
	for _, id := range dropped {
		out = append(out, change.DropType(main[id]))
	}
	for _, id := range altered {
		o, n := main[id], branch[id]
		out = append(out, diffOneType(o, n)...)
	}
	return out
}

func diffOneType(o, n catalog.Type) []change.Change {
	if o.Kind != n.Kind {
		return []change.Change{change.DropType(o), change.CreateType(n)}
	}

	switch n.Kind {
	case catalog.TypeKindEnum:
		if enumIsPureAppend(o.Labels, n.Labels) {
			var out []change.Change
			prev := ""
			if len(o.Labels) > 0 {
				prev = o.Labels[len(o.Labels)-1]
			}
			for _, label := range n.Labels[len(o.Labels):] {
				out = append(out, change.AlterTypeAddEnumValue(n.Schema, n.Name, label, prev, false))
				prev = label
			}
			return append(out, diffTypeOwnerAndComment(o, n)...)
		}
		return []change.Change{change.DropType(o), change.CreateType(n)}

	case catalog.TypeKindDomain:
		var out []change.Change
		if o.BaseType != n.BaseType || o.NotNull != n.NotNull || !defaultEqual(o.Default, n.Default) {
			return []change.Change{change.DropType(o), change.CreateType(n)}
		}
		oldByName := map[string]catalog.DomainConstraint{}
		for _, c := range o.Constraints {
			oldByName[c.Name] = c
		}
		newByName := map[string]catalog.DomainConstraint{}
		for _, c := range n.Constraints {
			newByName[c.Name] = c
		}
		for _, c := range n.Constraints {
			if _, ok := oldByName[c.Name]; !ok {
				out = append(out, change.AlterDomainAddConstraint(n.Schema, n.Name, c))
			}
		}
		for _, c := range o.Constraints {
			if _, ok := newByName[c.Name]; !ok {
				out = append(out, change.AlterDomainDropConstraint(n.Schema, n.Name, c.Name))
			}
		}
		return append(out, diffTypeOwnerAndComment(o, n)...)

	default: // composite, range, base
		if !catalog.Equal(stripCommentAndOwner(o), stripCommentAndOwner(n)) {
			return []change.Change{change.DropType(o), change.CreateType(n)}
		}
		return diffTypeOwnerAndComment(o, n)
	}
}

// enumIsPureAppend reports whether new extends old's label list without
// reordering or removing any existing label.
func enumIsPureAppend(old, new []string) bool {
	if len(new) < len(old) {
		return false
	}
	for i, l := range old {
		if new[i] != l {
			return false
		}
	}
	return true
}

func stripCommentAndOwner(t catalog.Type) catalog.Type {
	t.Comment = nil
	t.Owner = ""
	return t
}

func diffTypeOwnerAndComment(o, n catalog.Type) []change.Change {
	var out []change.Change
	if o.Owner != n.Owner {
		out = append(out, change.AlterOwnerTo(string(ident.KindType), n.StableID(), "TYPE "+change.QuoteQualified(n.Schema, n.Name, change.SerializeOptions{}), n.Owner))
	}
	kind := string(ident.KindType)
	label := "TYPE "
	if n.Kind == catalog.TypeKindDomain {
		kind = string(ident.KindDomain)
		label = "DOMAIN "
	}
	target := change.CommentTarget(label + change.QuoteQualified(n.Schema, n.Name, change.SerializeOptions{}))
	out = append(out, diffComment(kind, n.StableID(), target, o.Comment, n.Comment)...)
	return out
}
