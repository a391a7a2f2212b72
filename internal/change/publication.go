package change

import (
	"fmt"
	"strings"

	"github.com/pgdelta/pgdelta/internal/catalog"
	"github.com/pgdelta/pgdelta/internal/ident"
)

func publicationActions(pub catalog.Publication) []string {
	var actions []string
	if pub.PublishInsert {
		actions = append(actions, "insert")
	}
	if pub.PublishUpdate {
		actions = append(actions, "update")
	}
	if pub.PublishDelete {
		actions = append(actions, "delete")
	}
	if pub.PublishTruncate {
		actions = append(actions, "truncate")
	}
	return actions
}

func publicationWithClause(pub catalog.Publication) string {
	opts := []string{"publish = " + EscapeLiteral(strings.Join(publicationActions(pub), ","))}
	if pub.PublishViaPartitionRoot {
		opts = append(opts, "publish_via_partition_root = true")
	}
	return " WITH (" + strings.Join(opts, ", ") + ")"
}

func publicationTarget(pub catalog.Publication) string {
	switch {
	case pub.AllTables:
		return " FOR ALL TABLES"
	case len(pub.Schemas) > 0:
		return " FOR TABLES IN SCHEMA " + strings.Join(pub.Schemas, ", ")
	case len(pub.Tables) > 0:
		var tbls []string
		for _, t := range pub.Tables {
			entry := QuoteQualified(t.Schema, t.Table, SerializeOptions{})
			if len(t.Columns) > 0 {
				entry += " (" + strings.Join(t.Columns, ", ") + ")"
			}
			if t.RowFilter != "" {
				entry += " WHERE (" + t.RowFilter + ")"
			}
			tbls = append(tbls, entry)
		}
		return " FOR TABLE " + strings.Join(tbls, ", ")
	default:
		return ""
	}
}

// CreatePublication builds the Change that creates a logical-replication
// publication.
func CreatePublication(pub catalog.Publication) Change {
	stmt := fmt.Sprintf("CREATE PUBLICATION %s%s%s", QuoteIdent(pub.Name, SerializeOptions{}), publicationTarget(pub), publicationWithClause(pub))
	return RawCreate(string(ident.KindPublication), []string{pub.StableID()}, stmt)
}

// DropPublication builds the Change that drops a publication.
func DropPublication(pub catalog.Publication) Change {
	stmt := fmt.Sprintf("DROP PUBLICATION %s", QuoteIdent(pub.Name, SerializeOptions{}))
	return RawDrop(string(ident.KindPublication), []string{pub.StableID()}, stmt)
}

type alterPublicationOptions struct{ pub catalog.Publication }

func (p alterPublicationOptions) Serialize(opts SerializeOptions) string {
	return sqlf("ALTER PUBLICATION %s SET%s", QuoteIdent(p.pub.Name, opts), publicationWithClause(p.pub))
}

// AlterPublicationSetOptions builds the Change for a publication's
// publish-action/partition-root options.
func AlterPublicationSetOptions(pub catalog.Publication) Change {
	return Change{
		Operation: OpAlter, ObjectType: string(ident.KindPublication), Scope: ScopeObject,
		Requires: []string{pub.StableID()}, Payload: alterPublicationOptions{pub: pub},
	}
}

type alterPublicationAddTable struct {
	name  string
	table catalog.PublicationTable
}

func (p alterPublicationAddTable) Serialize(opts SerializeOptions) string {
	entry := QuoteQualified(p.table.Schema, p.table.Table, opts)
	if len(p.table.Columns) > 0 {
		entry += " (" + strings.Join(p.table.Columns, ", ") + ")"
	}
	if p.table.RowFilter != "" {
		entry += " WHERE (" + p.table.RowFilter + ")"
	}
	return sqlf("ALTER PUBLICATION %s ADD TABLE %s", QuoteIdent(p.name, opts), entry)
}

// AlterPublicationAddTable builds the Change that adds one table entry
// to a table-list publication (spec.md §4.2.2: publication membership is
// diffed as a set, one Change per added/dropped entry).
func AlterPublicationAddTable(pub catalog.Publication, t catalog.PublicationTable) Change {
	return Change{
		Operation: OpAlter, ObjectType: string(ident.KindPublication), Scope: ScopeObject,
		Requires: []string{pub.StableID()}, Payload: alterPublicationAddTable{name: pub.Name, table: t},
	}
}

type alterPublicationDropTable struct {
	name          string
	schema, table string
}

func (p alterPublicationDropTable) Serialize(opts SerializeOptions) string {
	return sqlf("ALTER PUBLICATION %s DROP TABLE %s", QuoteIdent(p.name, opts), QuoteQualified(p.schema, p.table, opts))
}

// AlterPublicationDropTable builds the Change that removes one table
// entry from a table-list publication.
func AlterPublicationDropTable(pub catalog.Publication, t catalog.PublicationTable) Change {
	return Change{
		Operation: OpAlter, ObjectType: string(ident.KindPublication), Scope: ScopeObject,
		Requires: []string{pub.StableID()}, Payload: alterPublicationDropTable{name: pub.Name, schema: t.Schema, table: t.Table},
	}
}

type alterPublicationAddSchema struct{ name, schema string }

func (p alterPublicationAddSchema) Serialize(opts SerializeOptions) string {
	return sqlf("ALTER PUBLICATION %s ADD TABLES IN SCHEMA %s", QuoteIdent(p.name, opts), QuoteIdent(p.schema, opts))
}

// AlterPublicationAddSchema builds the Change that adds one schema entry
// to a schema-list publication.
func AlterPublicationAddSchema(pub catalog.Publication, schema string) Change {
	return Change{
		Operation: OpAlter, ObjectType: string(ident.KindPublication), Scope: ScopeObject,
		Requires: []string{pub.StableID()}, Payload: alterPublicationAddSchema{name: pub.Name, schema: schema},
	}
}

type alterPublicationDropSchema struct{ name, schema string }

func (p alterPublicationDropSchema) Serialize(opts SerializeOptions) string {
	return sqlf("ALTER PUBLICATION %s DROP TABLES IN SCHEMA %s", QuoteIdent(p.name, opts), QuoteIdent(p.schema, opts))
}

// AlterPublicationDropSchema builds the Change that removes one schema
// entry from a schema-list publication.
func AlterPublicationDropSchema(pub catalog.Publication, schema string) Change {
	return Change{
		Operation: OpAlter, ObjectType: string(ident.KindPublication), Scope: ScopeObject,
		Requires: []string{pub.StableID()}, Payload: alterPublicationDropSchema{name: pub.Name, schema: schema},
	}
}

// RecreatePublicationForAllTablesTransition drops and recreates a
// publication whose AllTables flag flipped relative to the previous
// state: Postgres has no ALTER PUBLICATION form that moves a
// publication into or out of FOR ALL TABLES mode (spec.md §4.2.2 design
// notes). Returns the {drop, create} pair in the order the planner
// should see them as independent Changes.
func RecreatePublicationForAllTablesTransition(old, new catalog.Publication) (Change, Change) {
	return DropPublication(old), CreatePublication(new)
}
