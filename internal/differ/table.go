package differ

import (
	"github.com/pgdelta/pgdelta/internal/catalog"
	"github.com/pgdelta/pgdelta/internal/change"
	"github.com/pgdelta/pgdelta/internal/ident"
)

// DiffTables diffs base tables: creation/drop (with their initial
// column set), then for tables present in both snapshots, their
// columns (name-keyed, order-insensitive per spec.md §4.2.1), RLS flag,
// replica identity, owner, and comment. Constraints and indexes are
// diffed separately (DiffConstraints, DiffIndexes) since they are
// independent entity kinds in the snapshot.
func DiffTables(main, branch map[string]catalog.Table) []change.Change {
	created, dropped, altered := partition(main, branch)

	var out []change.Change
	for _, id := range created {
		t := branch[id]
		out = append(out, change.CreateTable(t))
		out = append(out, diffTableOwnerAndComment(nil, &t)...)
		out = append(out, diffPrivileges(string(ident.KindTable), t.StableID(), change.GrantTarget("TABLE "+change.QuoteQualified(t.Schema, t.Name, change.SerializeOptions{})), nil, t.Privileges)...)
	}
	for _, id := range dropped {
		out = append(out, change.DropTable(dropped_(main, id)))
	}
	for _, id := range altered {
		o, n := main[id], branch[id]
		out = append(out, diffColumns(o, n)...)
		if o.RLSEnabled != n.RLSEnabled {
			if n.RLSEnabled {
				out = append(out, change.AlterTableEnableRLS(n.Schema, n.Name))
			} else {
				out = append(out, change.AlterTableDisableRLS(n.Schema, n.Name))
			}
		}
		if o.ReplicaIdentity != n.ReplicaIdentity {
			out = append(out, change.AlterTableSetReplicaIdentity(n.Schema, n.Name, n.ReplicaIdentity, ""))
		}
		out = append(out, diffTableOwnerAndComment(&o, &n)...)
		out = append(out, diffPrivileges(string(ident.KindTable), n.StableID(),
			change.GrantTarget("TABLE "+change.QuoteQualified(n.Schema, n.Name, change.SerializeOptions{})), o.Privileges, n.Privileges)...)
	}
	return out
}

func dropped_(main map[string]catalog.Table, id string) catalog.Table { return main[id] }

func diffTableOwnerAndComment(old, new *catalog.Table) []change.Change {
	var out []change.Change
	if old == nil || old.Owner != new.Owner {
		if old != nil {
			out = append(out, change.AlterOwnerTo(string(ident.KindTable), new.StableID(), "TABLE "+change.QuoteQualified(new.Schema, new.Name, change.SerializeOptions{}), new.Owner))
		}
	}
	var oldComment catalog.Comment
	if old != nil {
		oldComment = old.Comment
	}
	target := change.CommentTarget("TABLE " + change.QuoteQualified(new.Schema, new.Name, change.SerializeOptions{}))
	out = append(out, diffComment(string(ident.KindTable), new.StableID(), target, oldComment, new.Comment)...)
	return out
}

// diffColumns diffs a table's owned columns by name (spec.md §4.2.1:
// renames are modeled as drop+add, never detected as a rename).
func diffColumns(old, new catalog.Table) []change.Change {
	oldByName := map[string]catalog.Column{}
	for _, c := range old.Columns {
		oldByName[c.Name] = c
	}
	newByName := map[string]catalog.Column{}
	for _, c := range new.Columns {
		newByName[c.Name] = c
	}

	var out []change.Change
	for _, c := range new.Columns {
		if _, ok := oldByName[c.Name]; !ok {
			out = append(out, change.AlterTableAddColumn(new.Schema, new.Name, c))
			out = append(out, diffComment(string(ident.KindColumn), c.StableID(),
				change.CommentTarget("COLUMN "+change.QuoteQualified(new.Schema, new.Name, change.SerializeOptions{})+"."+change.QuoteIdent(c.Name, change.SerializeOptions{})), nil, c.Comment)...)
		}
	}
	for _, c := range old.Columns {
		if _, ok := newByName[c.Name]; !ok {
			out = append(out, change.AlterTableDropColumn(old.Schema, old.Name, c.Name))
		}
	}
	for name, oc := range oldByName {
		nc, ok := newByName[name]
		if !ok || catalog.Equal(oc, nc) {
			continue
		}
		if oc.DataType != nc.DataType {
			out = append(out, change.AlterTableAlterColumnType(new.Schema, new.Name, name, nc.DataType, ""))
		}
		if oc.NotNull != nc.NotNull {
			if nc.NotNull {
				out = append(out, change.AlterTableSetNotNull(new.Schema, new.Name, name))
			} else {
				out = append(out, change.AlterTableDropNotNull(new.Schema, new.Name, name))
			}
		}
		if !defaultEqual(oc.Default, nc.Default) {
			if nc.Default == nil {
				out = append(out, change.AlterTableDropDefault(new.Schema, new.Name, name))
			} else {
				out = append(out, change.AlterTableSetDefault(new.Schema, new.Name, name, *nc.Default))
			}
		}
		target := change.CommentTarget("COLUMN " + change.QuoteQualified(new.Schema, new.Name, change.SerializeOptions{}) + "." + change.QuoteIdent(name, change.SerializeOptions{}))
		out = append(out, diffComment(string(ident.KindColumn), nc.StableID(), target, oc.Comment, nc.Comment)...)
	}
	return out
}

func defaultEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// DiffConstraints diffs table constraints as an independent entity kind
// (spec.md §3.2: Constraint carries its own stable ID). Altered
// constraints are dropped and re-added since ALTER on an existing
// constraint's body has no general-purpose form.
func DiffConstraints(main, branch map[string]catalog.Constraint) []change.Change {
	created, dropped, altered := partition(main, branch)
	var out []change.Change
	for _, id := range created {
		out = append(out, change.AlterTableAddConstraint(branch[id]))
	}
	for _, id := range dropped {
		out = append(out, change.AlterTableDropConstraint(main[id]))
	}
	for _, id := range altered {
		out = append(out, change.AlterTableDropConstraint(main[id]))
		out = append(out, change.AlterTableAddConstraint(branch[id]))
	}
	return out
}

// DiffIndexes diffs indexes as an independent entity kind. Any change
// to an index's definition is a drop+create since Postgres has no
// general ALTER INDEX for index bodies.
func DiffIndexes(main, branch map[string]catalog.Index) []change.Change {
	created, dropped, altered := partition(main, branch)
	var out []change.Change
	for _, id := range created {
		out = append(out, change.CreateIndex(branch[id]))
		out = append(out, diffComment(string(ident.KindIndex), branch[id].StableID(),
			change.CommentTarget("INDEX "+change.QuoteQualified(branch[id].Schema, branch[id].Name, change.SerializeOptions{})), nil, branch[id].Comment)...)
	}
	for _, id := range dropped {
		out = append(out, change.DropIndex(main[id]))
	}
	for _, id := range altered {
		o, n := main[id], branch[id]
		if o.Definition != n.Definition {
			out = append(out, change.DropIndex(o))
			out = append(out, change.CreateIndex(n))
		}
		target := change.CommentTarget("INDEX " + change.QuoteQualified(n.Schema, n.Name, change.SerializeOptions{}))
		out = append(out, diffComment(string(ident.KindIndex), n.StableID(), target, o.Comment, n.Comment)...)
	}
	return out
}
