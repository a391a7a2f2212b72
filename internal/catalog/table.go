package catalog

import "github.com/pgdelta/pgdelta/internal/ident"

// Schema is a PostgreSQL namespace.
type Schema struct {
	Name    string
	Owner   string
	Comment Comment
}

func (s Schema) StableID() string { return ident.Schema(s.Name) }

// Identity enumerates a column's identity-generation behavior.
type Identity string

const (
	IdentityNone      Identity = "none"
	IdentityAlways    Identity = "always"
	IdentityByDefault Identity = "by_default"
)

// Generated enumerates a column's generated-expression behavior.
type Generated string

const (
	GeneratedNone   Generated = "none"
	GeneratedStored Generated = "stored"
)

// Column is owned by a Table; it is diffed name-keyed and order-insensitively
// (spec.md §4.2.1 — renames are modeled as drop+add).
type Column struct {
	Schema      string
	Table       string
	Name        string
	Position    int
	DataType    string
	NotNull     bool
	Identity    Identity
	Generated   Generated
	Default     *string
	Collation   string
	Comment     Comment
}

func (c Column) StableID() string { return ident.Column(c.Schema, c.Table, c.Name) }

// ReplicaIdentity mirrors pg_class.relreplident.
type ReplicaIdentity string

const (
	ReplicaIdentityDefault ReplicaIdentity = "default"
	ReplicaIdentityNothing ReplicaIdentity = "nothing"
	ReplicaIdentityFull    ReplicaIdentity = "full"
	ReplicaIdentityIndex   ReplicaIdentity = "index"
)

// Partitioning describes a table's partitioning strategy, when any.
// Topology changes (strategy or key) are non-alterable (spec.md §4.2.1).
type Partitioning struct {
	Strategy string // "", "range", "list", "hash"
	Key      string // raw partition key expression
	Parent   string // stable ID of the parent partitioned table, if this is a partition
	Bound    string // raw partition bound expression, if this is a partition
}

// Table is a base table. Columns are diffed order-insensitively by name;
// their declared Position is data, not identity.
type Table struct {
	Schema          string
	Name            string
	Owner           string
	Comment         Comment
	Columns         []Column
	Partitioning    Partitioning
	RLSEnabled      bool
	ReplicaIdentity ReplicaIdentity
	Options         map[string]string
	Privileges      []Privilege
}

func (t Table) StableID() string { return ident.Table(t.Schema, t.Name) }

// ColumnByName returns the column named name, if present.
func (t Table) ColumnByName(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// ConstraintKind enumerates the kinds of table constraints.
type ConstraintKind string

const (
	ConstraintPrimaryKey ConstraintKind = "primary_key"
	ConstraintUnique     ConstraintKind = "unique"
	ConstraintForeignKey ConstraintKind = "foreign_key"
	ConstraintCheck      ConstraintKind = "check"
	ConstraintExclusion  ConstraintKind = "exclusion"
)

// Constraint is a table constraint. Body carries the kind-specific
// definition (column list, referenced table/columns/actions, check
// expression, exclusion operators) as the raw, already-normalized SQL
// fragment the extractor produced; the differ treats Body as opaque data
// and only alters/recreates the whole constraint when it changes.
type Constraint struct {
	Schema string
	Table  string
	Name   string
	Kind   ConstraintKind
	Body   string
	NotValid bool
}

func (c Constraint) StableID() string { return ident.Qualified(ident.KindConstraint, c.Schema, c.Table+"."+c.Name) }

// Index is a table index (excluding the implicit indexes backing primary
// key / unique constraints, which are owned by their Constraint).
type Index struct {
	Schema     string
	Name       string
	Table      string
	Definition string // full CREATE INDEX ... statement body, as extracted
	Comment    Comment
}

func (i Index) StableID() string { return ident.Qualified(ident.KindIndex, i.Schema, i.Name) }

// Sequence is a standalone or column-owned sequence.
type Sequence struct {
	Schema    string
	Name      string
	DataType  string
	Start     int64
	Min       int64
	Max       int64
	Increment int64
	Cycle     bool
	Cache     int64
	OwnedBy   string // stable ID of the owning column, or ""
	Comment   Comment
}

func (s Sequence) StableID() string { return ident.Qualified(ident.KindSequence, s.Schema, s.Name) }
