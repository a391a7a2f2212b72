package change

import (
	"strings"

	"github.com/pgdelta/pgdelta/internal/catalog"
	"github.com/pgdelta/pgdelta/internal/ident"
)

type createTable struct{ t catalog.Table }

func (p createTable) Serialize(opts SerializeOptions) string {
	qualified := QuoteQualified(p.t.Schema, p.t.Name, opts)
	var cols []string
	for _, c := range p.t.Columns {
		cols = append(cols, columnDefinition(c, opts))
	}
	var b strings.Builder
	b.WriteString("CREATE TABLE ")
	b.WriteString(qualified)
	if p.t.Partitioning.Parent != "" {
		b.WriteString(" PARTITION OF ")
		b.WriteString(p.t.Partitioning.Parent)
		b.WriteString(" ")
		b.WriteString(p.t.Partitioning.Bound)
		return b.String()
	}
	b.WriteString(" (")
	b.WriteString(strings.Join(cols, ", "))
	b.WriteString(")")
	if p.t.Partitioning.Strategy != "" {
		b.WriteString(" PARTITION BY ")
		b.WriteString(strings.ToUpper(p.t.Partitioning.Strategy))
		b.WriteString(" (")
		b.WriteString(p.t.Partitioning.Key)
		b.WriteString(")")
	}
	return b.String()
}

func columnDefinition(c catalog.Column, opts SerializeOptions) string {
	var b strings.Builder
	b.WriteString(QuoteIdent(c.Name, opts))
	b.WriteString(" ")
	b.WriteString(c.DataType)
	switch c.Identity {
	case catalog.IdentityAlways:
		b.WriteString(" GENERATED ALWAYS AS IDENTITY")
	case catalog.IdentityByDefault:
		b.WriteString(" GENERATED BY DEFAULT AS IDENTITY")
	}
	if c.Default != nil && c.Generated != catalog.GeneratedStored {
		b.WriteString(" DEFAULT ")
		b.WriteString(*c.Default)
	}
	if c.Generated == catalog.GeneratedStored && c.Default != nil {
		b.WriteString(" GENERATED ALWAYS AS (")
		b.WriteString(*c.Default)
		b.WriteString(") STORED")
	}
	if c.NotNull {
		b.WriteString(" NOT NULL")
	}
	if c.Collation != "" {
		b.WriteString(" COLLATE ")
		b.WriteString(c.Collation)
	}
	return b.String()
}

type dropTable struct{ t catalog.Table }

func (p dropTable) Serialize(opts SerializeOptions) string {
	return sqlf("DROP TABLE %s", QuoteQualified(p.t.Schema, p.t.Name, opts))
}

// CreateTable builds the Change that creates a table with its initial
// column set (constraints and indexes are separate Change values, per
// spec.md §4.2.1, so they can be ordered independently against
// cross-table foreign keys).
func CreateTable(t catalog.Table) Change {
	provides := []string{t.StableID()}
	for _, c := range t.Columns {
		provides = append(provides, c.StableID())
	}
	return Change{
		Operation:  OpCreate,
		ObjectType: string(ident.KindTable),
		Scope:      ScopeObject,
		Provides:   provides,
		Payload:    createTable{t: t},
	}
}

// DropTable builds the Change that drops a table (cascading to its
// columns, constraints, and indexes).
func DropTable(t catalog.Table) Change {
	drops := []string{t.StableID()}
	for _, c := range t.Columns {
		drops = append(drops, c.StableID())
	}
	return Change{
		Operation:  OpDrop,
		ObjectType: string(ident.KindTable),
		Scope:      ScopeObject,
		Drops:      drops,
		Payload:    dropTable{t: t},
	}
}

type alterTableAddColumn struct {
	schema, table string
	col           catalog.Column
}

func (p alterTableAddColumn) Serialize(opts SerializeOptions) string {
	return sqlf("ALTER TABLE %s ADD COLUMN %s", QuoteQualified(p.schema, p.table, opts), columnDefinition(p.col, opts))
}

// AlterTableAddColumn builds the Change that adds a new column to an
// existing table.
func AlterTableAddColumn(schema, table string, col catalog.Column) Change {
	return Change{
		Operation:  OpAlter,
		ObjectType: string(ident.KindColumn),
		Scope:      ScopeObject,
		Provides:   []string{col.StableID()},
		Requires:   []string{ident.Table(schema, table)},
		Payload:    alterTableAddColumn{schema: schema, table: table, col: col},
	}
}

type alterTableDropColumn struct {
	schema, table, column string
}

func (p alterTableDropColumn) Serialize(opts SerializeOptions) string {
	return sqlf("ALTER TABLE %s DROP COLUMN %s", QuoteQualified(p.schema, p.table, opts), QuoteIdent(p.column, opts))
}

// AlterTableDropColumn builds the Change that drops a column.
func AlterTableDropColumn(schema, table, column string) Change {
	return Change{
		Operation:  OpAlter,
		ObjectType: string(ident.KindColumn),
		Scope:      ScopeObject,
		Drops:      []string{ident.Column(schema, table, column)},
		Requires:   []string{ident.Table(schema, table)},
		Payload:    alterTableDropColumn{schema: schema, table: table, column: column},
	}
}

type alterColumnType struct {
	schema, table, column, newType, usingExpr string
}

func (p alterColumnType) Serialize(opts SerializeOptions) string {
	base := sqlf("ALTER TABLE %s ALTER COLUMN %s TYPE %s", QuoteQualified(p.schema, p.table, opts), QuoteIdent(p.column, opts), p.newType)
	if p.usingExpr != "" {
		base += " USING " + p.usingExpr
	}
	return base
}

// AlterTableAlterColumnType builds the Change for a column's data-type
// change. usingExpr may be empty when no cast is required.
func AlterTableAlterColumnType(schema, table, column, newType, usingExpr string) Change {
	colID := ident.Column(schema, table, column)
	return Change{
		Operation:  OpAlter,
		ObjectType: string(ident.KindColumn),
		Scope:      ScopeObject,
		Requires:   []string{colID},
		Payload:    alterColumnType{schema: schema, table: table, column: column, newType: newType, usingExpr: usingExpr},
	}
}

type alterColumnNullability struct {
	schema, table, column string
	setNotNull            bool
}

func (p alterColumnNullability) Serialize(opts SerializeOptions) string {
	verb := "DROP NOT NULL"
	if p.setNotNull {
		verb = "SET NOT NULL"
	}
	return sqlf("ALTER TABLE %s ALTER COLUMN %s %s", QuoteQualified(p.schema, p.table, opts), QuoteIdent(p.column, opts), verb)
}

// AlterTableSetNotNull builds the Change that adds a NOT NULL constraint
// to an existing column.
func AlterTableSetNotNull(schema, table, column string) Change {
	return Change{
		Operation:  OpAlter,
		ObjectType: string(ident.KindColumn),
		Scope:      ScopeObject,
		Requires:   []string{ident.Column(schema, table, column)},
		Payload:    alterColumnNullability{schema: schema, table: table, column: column, setNotNull: true},
	}
}

// AlterTableDropNotNull builds the Change that removes a column's NOT
// NULL constraint.
func AlterTableDropNotNull(schema, table, column string) Change {
	return Change{
		Operation:  OpAlter,
		ObjectType: string(ident.KindColumn),
		Scope:      ScopeObject,
		Requires:   []string{ident.Column(schema, table, column)},
		Payload:    alterColumnNullability{schema: schema, table: table, column: column, setNotNull: false},
	}
}

type alterColumnDefault struct {
	schema, table, column string
	expr                  *string
}

func (p alterColumnDefault) Serialize(opts SerializeOptions) string {
	if p.expr == nil {
		return sqlf("ALTER TABLE %s ALTER COLUMN %s DROP DEFAULT", QuoteQualified(p.schema, p.table, opts), QuoteIdent(p.column, opts))
	}
	return sqlf("ALTER TABLE %s ALTER COLUMN %s SET DEFAULT %s", QuoteQualified(p.schema, p.table, opts), QuoteIdent(p.column, opts), *p.expr)
}

// AlterTableSetDefault builds the Change that sets (or replaces) a
// column's default expression.
func AlterTableSetDefault(schema, table, column, expr string) Change {
	return Change{
		Operation:  OpAlter,
		ObjectType: string(ident.KindColumn),
		Scope:      ScopeObject,
		Requires:   []string{ident.Column(schema, table, column)},
		Payload:    alterColumnDefault{schema: schema, table: table, column: column, expr: &expr},
	}
}

// AlterTableDropDefault builds the Change that removes a column's
// default expression.
func AlterTableDropDefault(schema, table, column string) Change {
	return Change{
		Operation:  OpAlter,
		ObjectType: string(ident.KindColumn),
		Scope:      ScopeObject,
		Requires:   []string{ident.Column(schema, table, column)},
		Payload:    alterColumnDefault{schema: schema, table: table, column: column, expr: nil},
	}
}

type alterTableAddConstraint struct {
	schema, table string
	c             catalog.Constraint
}

func (p alterTableAddConstraint) Serialize(opts SerializeOptions) string {
	notValid := ""
	if p.c.NotValid {
		notValid = " NOT VALID"
	}
	return sqlf("ALTER TABLE %s ADD CONSTRAINT %s %s%s", QuoteQualified(p.schema, p.table, opts), QuoteIdent(p.c.Name, opts), p.c.Body, notValid)
}

// AlterTableAddConstraint builds the Change that adds a table
// constraint.
func AlterTableAddConstraint(c catalog.Constraint) Change {
	return Change{
		Operation:  OpAlter,
		ObjectType: string(ident.KindConstraint),
		Scope:      ScopeObject,
		Provides:   []string{c.StableID()},
		Requires:   []string{ident.Table(c.Schema, c.Table)},
		Payload:    alterTableAddConstraint{schema: c.Schema, table: c.Table, c: c},
	}
}

type alterTableDropConstraint struct {
	schema, table, name string
}

func (p alterTableDropConstraint) Serialize(opts SerializeOptions) string {
	return sqlf("ALTER TABLE %s DROP CONSTRAINT %s", QuoteQualified(p.schema, p.table, opts), QuoteIdent(p.name, opts))
}

// AlterTableDropConstraint builds the Change that drops a table
// constraint.
func AlterTableDropConstraint(c catalog.Constraint) Change {
	return Change{
		Operation:  OpAlter,
		ObjectType: string(ident.KindConstraint),
		Scope:      ScopeObject,
		Drops:      []string{c.StableID()},
		Requires:   []string{ident.Table(c.Schema, c.Table)},
		Payload:    alterTableDropConstraint{schema: c.Schema, table: c.Table, name: c.Name},
	}
}

type alterTableRLS struct {
	schema, table string
	enable        bool
}

func (p alterTableRLS) Serialize(opts SerializeOptions) string {
	verb := "DISABLE"
	if p.enable {
		verb = "ENABLE"
	}
	return sqlf("ALTER TABLE %s %s ROW LEVEL SECURITY", QuoteQualified(p.schema, p.table, opts), verb)
}

// AlterTableEnableRLS builds the Change that turns on row-level security.
func AlterTableEnableRLS(schema, table string) Change {
	return Change{
		Operation:  OpAlter,
		ObjectType: string(ident.KindTable),
		Scope:      ScopeObject,
		Requires:   []string{ident.Table(schema, table)},
		Payload:    alterTableRLS{schema: schema, table: table, enable: true},
	}
}

// AlterTableDisableRLS builds the Change that turns off row-level
// security.
func AlterTableDisableRLS(schema, table string) Change {
	return Change{
		Operation:  OpAlter,
		ObjectType: string(ident.KindTable),
		Scope:      ScopeObject,
		Requires:   []string{ident.Table(schema, table)},
		Payload:    alterTableRLS{schema: schema, table: table, enable: false},
	}
}

type alterTableReplicaIdentity struct {
	schema, table string
	mode          catalog.ReplicaIdentity
	indexName     string
}

func (p alterTableReplicaIdentity) Serialize(opts SerializeOptions) string {
	clause := strings.ToUpper(string(p.mode))
	if p.mode == catalog.ReplicaIdentityIndex {
		clause = "USING INDEX " + QuoteIdent(p.indexName, opts)
	}
	return sqlf("ALTER TABLE %s REPLICA IDENTITY %s", QuoteQualified(p.schema, p.table, opts), clause)
}

// AlterTableSetReplicaIdentity builds the Change that changes a table's
// replica identity; indexName is only consulted when mode is
// ReplicaIdentityIndex.
func AlterTableSetReplicaIdentity(schema, table string, mode catalog.ReplicaIdentity, indexName string) Change {
	return Change{
		Operation:  OpAlter,
		ObjectType: string(ident.KindTable),
		Scope:      ScopeObject,
		Requires:   []string{ident.Table(schema, table)},
		Payload:    alterTableReplicaIdentity{schema: schema, table: table, mode: mode, indexName: indexName},
	}
}
