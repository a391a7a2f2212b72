package catalog

import "github.com/pgdelta/pgdelta/internal/ident"

// TypeKind discriminates the pg_type "typtype" tag.
type TypeKind string

const (
	TypeKindComposite TypeKind = "composite"
	TypeKindEnum      TypeKind = "enum"
	TypeKindRange     TypeKind = "range"
	TypeKindBase      TypeKind = "base"
	TypeKindDomain    TypeKind = "domain"
)

// DomainConstraint is one named CHECK constraint attached to a domain,
// diffed in declared order (spec.md §3.2 "domain has ... ordered
// constraints[]").
type DomainConstraint struct {
	Name  string
	Check string
}

// Type is a user-defined type, discriminated by Kind. Only the fields
// relevant to Kind are populated; the differ (internal/differ) treats
// the others as zero and ignores them.
type Type struct {
	Schema string
	Name   string
	Kind   TypeKind
	Owner  string
	Comment Comment

	// composite
	Columns []Column

	// enum — order is significant (ALTER TYPE ... ADD VALUE ... BEFORE/AFTER)
	Labels []string

	// range
	Subtype             string
	SubtypeOpclass      string
	CanonicalFunction   string
	SubtypeDiffFunction string

	// base
	InputFunction   string
	OutputFunction  string
	ReceiveFunction string
	SendFunction    string
	InternalLength  int
	PassedByValue   bool
	Alignment       string
	Storage         string
	Category        string

	// domain
	BaseType    string
	NotNull     bool
	Default     *string
	Constraints []DomainConstraint
}

func (t Type) StableID() string { return ident.Qualified(ident.KindType, t.Schema, t.Name) }

// CollationProvider enumerates pg_collation.collprovider.
type CollationProvider string

const (
	CollationProviderDefault CollationProvider = "d"
	CollationProviderLibc    CollationProvider = "c"
	CollationProviderICU     CollationProvider = "i"
	CollationProviderBuiltin CollationProvider = "b"
)

// Collation is a CREATE COLLATION object.
type Collation struct {
	Schema         string
	Name           string
	Provider       CollationProvider
	IsDeterministic bool
	Encoding       string
	Collate        string
	Ctype          string
	Locale         string
	ICURules       string
	Version        string
	Owner          string
	Comment        Comment
}

func (c Collation) StableID() string { return ident.Qualified(ident.KindCollation, c.Schema, c.Name) }

// Extension is a CREATE EXTENSION object. Extensions are globally scoped
// (unqualified), though they install into a target schema.
type Extension struct {
	Name        string
	Schema      string
	Version     string
	Comment     Comment
}

func (e Extension) StableID() string { return ident.Global(ident.KindExtension, e.Name) }

// Language is a CREATE LANGUAGE (procedural language) object.
type Language struct {
	Name         string
	Trusted      bool
	HandlerFunc  string
	InlineFunc   string
	ValidatorFunc string
	Owner        string
	Comment      Comment
	Privileges   []Privilege
}

func (l Language) StableID() string { return ident.Global(ident.KindLanguage, l.Name) }

// Rule is a CREATE RULE object.
type Rule struct {
	Schema     string
	Name       string
	Table      string
	Event      string // SELECT, INSERT, UPDATE, DELETE
	Condition  string
	Instead    bool
	Actions    string
	Comment    Comment
}

func (r Rule) StableID() string { return ident.Qualified(ident.KindRule, r.Schema, r.Table+"."+r.Name) }

// Trigger is a CREATE TRIGGER object.
type Trigger struct {
	Schema       string
	Name         string
	Table        string
	Timing       string // BEFORE, AFTER, INSTEAD OF
	Events       []string
	Level        string // ROW, STATEMENT
	Condition    string
	Function     string
	Arguments    []string
	Comment      Comment
}

func (t Trigger) StableID() string {
	return ident.Qualified(ident.KindTrigger, t.Schema, t.Table+"."+t.Name)
}

// EventTrigger is a CREATE EVENT TRIGGER object (database-global).
type EventTrigger struct {
	Name     string
	Event    string
	Tags     []string
	Function string
	Enabled  bool
	Owner    string
	Comment  Comment
}

func (e EventTrigger) StableID() string { return ident.Global(ident.KindEventTrigger, e.Name) }

// Policy is a CREATE POLICY (row-level security) object.
type Policy struct {
	Schema     string
	Name       string
	Table      string
	Permissive bool
	Roles      []string
	Command    string // ALL, SELECT, INSERT, UPDATE, DELETE
	Using      string
	WithCheck  string
}

func (p Policy) StableID() string {
	return ident.Qualified(ident.KindPolicy, p.Schema, p.Table+"."+p.Name)
}

// PublicationTable names one table entry in a publication, optionally
// restricted to a column list and/or a row filter.
type PublicationTable struct {
	Schema    string
	Table     string
	Columns   []string // empty means all columns
	RowFilter string   // empty means no filter
}

// Publication is a CREATE PUBLICATION (logical replication) object.
type Publication struct {
	Name                   string
	AllTables              bool
	Tables                 []PublicationTable
	Schemas                []string
	PublishInsert          bool
	PublishUpdate          bool
	PublishDelete          bool
	PublishTruncate        bool
	PublishViaPartitionRoot bool
	Owner                  string
}

func (p Publication) StableID() string { return ident.Global(ident.KindPublication, p.Name) }

// Subscription is a CREATE SUBSCRIPTION (logical replication) object.
type Subscription struct {
	Name        string
	Connection  string
	Publications []string
	Enabled     bool
	TwoPhase    bool
	Owner       string
}

func (s Subscription) StableID() string { return ident.Global(ident.KindSubscription, s.Name) }

// ForeignDataWrapper is a CREATE FOREIGN DATA WRAPPER object.
type ForeignDataWrapper struct {
	Name       string
	Handler    string
	Validator  string
	Options    map[string]string
	Owner      string
}

func (f ForeignDataWrapper) StableID() string { return ident.Global(ident.KindFDW, f.Name) }

// Server is a CREATE SERVER (foreign server) object.
type Server struct {
	Name    string
	FDW     string
	Type    string
	Version string
	Options map[string]string
	Owner   string
	Comment Comment
	Privileges []Privilege
}

func (s Server) StableID() string { return ident.Global(ident.KindServer, s.Name) }

// UserMapping is a CREATE USER MAPPING object, scoped to a server + user.
type UserMapping struct {
	Server  string
	User    string
	Options map[string]string
}

func (u UserMapping) StableID() string {
	return ident.Global(ident.KindUserMapping, u.Server+"."+u.User)
}

// ForeignTable is a CREATE FOREIGN TABLE object.
type ForeignTable struct {
	Schema     string
	Name       string
	Server     string
	Columns    []Column
	Options    map[string]string
	Owner      string
	Comment    Comment
	Privileges []Privilege
}

func (f ForeignTable) StableID() string {
	return ident.Qualified(ident.KindForeignTable, f.Schema, f.Name)
}

// DefaultPrivilege is an ALTER DEFAULT PRIVILEGES entry, scoped to the
// role that will create objects and, for schema-scoped defaults, the
// schema those objects land in.
type DefaultPrivilege struct {
	ForRole    string
	InSchema   string // empty for database-wide defaults
	ObjectKind string // "table", "sequence", "function", "type", etc.
	Privilege
}

func (d DefaultPrivilege) StableID() string {
	return ident.DefaultACL(d.ForRole, d.InSchema, d.ObjectKind, d.Grantee)
}
