package differ

import (
	"github.com/pgdelta/pgdelta/internal/catalog"
	"github.com/pgdelta/pgdelta/internal/change"
)

// DiffPublications diffs logical-replication publications. The
// all_tables flag is not alterable in place (spec.md §4.2.2 design
// notes), so a flip to or from FOR ALL TABLES forces drop+create; a
// schema-list or table-list publication diffs its membership as a set,
// one Change per added/dropped entry.
func DiffPublications(main, branch map[string]catalog.Publication) []change.Change {
	created, dropped, altered := partition(main, branch)
	var out []change.Change
	for _, id := range created {
		out = append(out, change.CreatePublication(branch[id]))
	}
	for _, id := range dropped {
		out = append(out, change.DropPublication(main[id]))
	}
	for _, id := range altered {
		o, n := main[id], branch[id]
		if o.AllTables != n.AllTables {
			dropC, createC := change.RecreatePublicationForAllTablesTransition(o, n)
			out = append(out, dropC, createC)
			continue
		}
		if o.PublishInsert != n.PublishInsert || o.PublishUpdate != n.PublishUpdate ||
			o.PublishDelete != n.PublishDelete || o.PublishTruncate != n.PublishTruncate ||
			o.PublishViaPartitionRoot != n.PublishViaPartitionRoot {
			out = append(out, change.AlterPublicationSetOptions(n))
		}
		out = append(out, diffPublicationSchemas(n, o.Schemas, n.Schemas)...)
		out = append(out, diffPublicationTables(n, o.Tables, n.Tables)...)
	}
	return out
}

func diffPublicationSchemas(pub catalog.Publication, old, new []string) []change.Change {
	oldSet := map[string]bool{}
	for _, s := range old {
		oldSet[s] = true
	}
	newSet := map[string]bool{}
	for _, s := range new {
		newSet[s] = true
	}
	var out []change.Change
	for _, s := range new {
		if !oldSet[s] {
			out = append(out, change.AlterPublicationAddSchema(pub, s))
		}
	}
	for _, s := range old {
		if !newSet[s] {
			out = append(out, change.AlterPublicationDropSchema(pub, s))
		}
	}
	return out
}

func diffPublicationTables(pub catalog.Publication, old, new []catalog.PublicationTable) []change.Change {
	key := func(t catalog.PublicationTable) string { return t.Schema + "." + t.Table }
	oldByKey := map[string]catalog.PublicationTable{}
	for _, t := range old {
		oldByKey[key(t)] = t
	}
	newByKey := map[string]catalog.PublicationTable{}
	for _, t := range new {
		newByKey[key(t)] = t
	}
	var out []change.Change
	for _, t := range new {
		if o, ok := oldByKey[key(t)]; !ok {
			out = append(out, change.AlterPublicationAddTable(pub, t))
		} else if !stringSliceEqual(o.Columns, t.Columns) || o.RowFilter != t.RowFilter {
			out = append(out, change.AlterPublicationDropTable(pub, o))
			out = append(out, change.AlterPublicationAddTable(pub, t))
		}
	}
	for _, t := range old {
		if _, ok := newByKey[key(t)]; !ok {
			out = append(out, change.AlterPublicationDropTable(pub, t))
		}
	}
	return out
}
