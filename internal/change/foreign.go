package change

import (
	"fmt"
	"strings"

	"github.com/pgdelta/pgdelta/internal/catalog"
	"github.com/pgdelta/pgdelta/internal/ident"
)

func optionsClause(opts map[string]string) string {
	if len(opts) == 0 {
		return ""
	}
	var pairs []string
	for k, v := range opts {
		pairs = append(pairs, fmt.Sprintf("%s %s", k, EscapeLiteral(v)))
	}
	return " OPTIONS (" + strings.Join(pairs, ", ") + ")"
}

// CreateForeignDataWrapper builds the Change that creates an FDW.
func CreateForeignDataWrapper(f catalog.ForeignDataWrapper) Change {
	stmt := "CREATE FOREIGN DATA WRAPPER " + QuoteIdent(f.Name, SerializeOptions{})
	if f.Handler != "" {
		stmt += " HANDLER " + f.Handler
	}
	if f.Validator != "" {
		stmt += " VALIDATOR " + f.Validator
	}
	stmt += optionsClause(f.Options)
	return RawCreate(string(ident.KindFDW), []string{f.StableID()}, stmt)
}

// DropForeignDataWrapper builds the Change that drops an FDW.
func DropForeignDataWrapper(f catalog.ForeignDataWrapper) Change {
	stmt := fmt.Sprintf("DROP FOREIGN DATA WRAPPER %s", QuoteIdent(f.Name, SerializeOptions{}))
	return RawDrop(string(ident.KindFDW), []string{f.StableID()}, stmt)
}

// CreateServer builds the Change that creates a foreign server.
func CreateServer(s catalog.Server) Change {
	stmt := "CREATE SERVER " + QuoteIdent(s.Name, SerializeOptions{})
	if s.Type != "" {
		stmt += " TYPE " + EscapeLiteral(s.Type)
	}
	if s.Version != "" {
		stmt += " VERSION " + EscapeLiteral(s.Version)
	}
	stmt += " FOREIGN DATA WRAPPER " + QuoteIdent(s.FDW, SerializeOptions{})
	stmt += optionsClause(s.Options)
	return RawCreate(string(ident.KindServer), []string{s.StableID()}, stmt)
}

// DropServer builds the Change that drops a foreign server.
func DropServer(s catalog.Server) Change {
	stmt := fmt.Sprintf("DROP SERVER %s", QuoteIdent(s.Name, SerializeOptions{}))
	return RawDrop(string(ident.KindServer), []string{s.StableID()}, stmt)
}

type alterServerOptions struct{ s catalog.Server }

func (p alterServerOptions) Serialize(opts SerializeOptions) string {
	return sqlf("ALTER SERVER %s%s", QuoteIdent(p.s.Name, opts), optionsClause(p.s.Options))
}

// AlterServerOptions builds the Change that replaces a server's option
// set.
func AlterServerOptions(s catalog.Server) Change {
	return Change{
		Operation: OpAlter, ObjectType: string(ident.KindServer), Scope: ScopeObject,
		Requires: []string{s.StableID()}, Payload: alterServerOptions{s: s},
	}
}

// CreateUserMapping builds the Change that creates a user mapping.
func CreateUserMapping(u catalog.UserMapping) Change {
	stmt := fmt.Sprintf("CREATE USER MAPPING FOR %s SERVER %s%s", QuoteIdent(u.User, SerializeOptions{}), QuoteIdent(u.Server, SerializeOptions{}), optionsClause(u.Options))
	return Change{
		Operation: OpCreate, ObjectType: string(ident.KindUserMapping), Scope: ScopeObject,
		Provides: []string{u.StableID()}, Requires: []string{ident.Global(ident.KindServer, u.Server)}, Payload: rawCreate{stmt: stmt},
	}
}

// DropUserMapping builds the Change that drops a user mapping.
func DropUserMapping(u catalog.UserMapping) Change {
	stmt := fmt.Sprintf("DROP USER MAPPING FOR %s SERVER %s", QuoteIdent(u.User, SerializeOptions{}), QuoteIdent(u.Server, SerializeOptions{}))
	return RawDrop(string(ident.KindUserMapping), []string{u.StableID()}, stmt)
}

// CreateForeignTable builds the Change that creates a foreign table.
func CreateForeignTable(f catalog.ForeignTable) Change {
	var cols []string
	for _, c := range f.Columns {
		cols = append(cols, columnDefinition(c, SerializeOptions{}))
	}
	stmt := fmt.Sprintf("CREATE FOREIGN TABLE %s (%s) SERVER %s%s",
		QuoteQualified(f.Schema, f.Name, SerializeOptions{}), strings.Join(cols, ", "), QuoteIdent(f.Server, SerializeOptions{}), optionsClause(f.Options))
	provides := []string{f.StableID()}
	for _, c := range f.Columns {
		provides = append(provides, c.StableID())
	}
	return Change{
		Operation: OpCreate, ObjectType: string(ident.KindForeignTable), Scope: ScopeObject,
		Provides: provides, Requires: []string{ident.Global(ident.KindServer, f.Server)}, Payload: rawCreate{stmt: stmt},
	}
}

// DropForeignTable builds the Change that drops a foreign table.
func DropForeignTable(f catalog.ForeignTable) Change {
	drops := []string{f.StableID()}
	for _, c := range f.Columns {
		drops = append(drops, c.StableID())
	}
	stmt := fmt.Sprintf("DROP FOREIGN TABLE %s", QuoteQualified(f.Schema, f.Name, SerializeOptions{}))
	return RawDrop(string(ident.KindForeignTable), drops, stmt)
}

// CreateSubscription builds the Change that creates a logical
// replication subscription.
func CreateSubscription(s catalog.Subscription) Change {
	stmt := fmt.Sprintf("CREATE SUBSCRIPTION %s CONNECTION %s PUBLICATION %s", QuoteIdent(s.Name, SerializeOptions{}), EscapeLiteral(s.Connection), strings.Join(s.Publications, ", "))
	var opts []string
	if !s.Enabled {
		opts = append(opts, "enabled = false")
	}
	if s.TwoPhase {
		opts = append(opts, "two_phase = true")
	}
	if len(opts) > 0 {
		stmt += " WITH (" + strings.Join(opts, ", ") + ")"
	}
	return RawCreate(string(ident.KindSubscription), []string{s.StableID()}, stmt)
}

// DropSubscription builds the Change that drops a subscription.
func DropSubscription(s catalog.Subscription) Change {
	stmt := fmt.Sprintf("DROP SUBSCRIPTION %s", QuoteIdent(s.Name, SerializeOptions{}))
	return RawDrop(string(ident.KindSubscription), []string{s.StableID()}, stmt)
}

type alterSubscriptionEnabled struct {
	name    string
	enabled bool
}

func (p alterSubscriptionEnabled) Serialize(opts SerializeOptions) string {
	state := "DISABLE"
	if p.enabled {
		state = "ENABLE"
	}
	return sqlf("ALTER SUBSCRIPTION %s %s", QuoteIdent(p.name, opts), state)
}

// AlterSubscriptionEnabled builds the Change that flips a subscription's
// enabled state. TwoPhase is fixed at creation time in Postgres and any
// change to it forces DropSubscription+CreateSubscription (spec.md §9
// design notes).
func AlterSubscriptionEnabled(s catalog.Subscription) Change {
	return Change{
		Operation: OpAlter, ObjectType: string(ident.KindSubscription), Scope: ScopeObject,
		Requires: []string{s.StableID()}, Payload: alterSubscriptionEnabled{name: s.Name, enabled: s.Enabled},
	}
}

type alterSubscriptionPublications struct {
	name         string
	publications []string
}

func (p alterSubscriptionPublications) Serialize(opts SerializeOptions) string {
	return sqlf("ALTER SUBSCRIPTION %s SET PUBLICATION %s", QuoteIdent(p.name, opts), strings.Join(p.publications, ", "))
}

// AlterSubscriptionPublications builds the Change that resets a
// subscription's publication list.
func AlterSubscriptionPublications(s catalog.Subscription) Change {
	return Change{
		Operation: OpAlter, ObjectType: string(ident.KindSubscription), Scope: ScopeObject,
		Requires: []string{s.StableID()}, Payload: alterSubscriptionPublications{name: s.Name, publications: s.Publications},
	}
}

// CreateDefaultPrivilege builds the Change that installs an ALTER
// DEFAULT PRIVILEGES entry.
func CreateDefaultPrivilege(d catalog.DefaultPrivilege) Change {
	inSchema := ""
	if d.InSchema != "" {
		inSchema = " IN SCHEMA " + QuoteIdent(d.InSchema, SerializeOptions{})
	}
	stmt := fmt.Sprintf("ALTER DEFAULT PRIVILEGES FOR ROLE %s%s GRANT %s ON %sS TO %s",
		QuoteIdent(d.ForRole, SerializeOptions{}), inSchema, d.Privilege.Privilege, strings.ToUpper(d.ObjectKind), QuoteIdent(d.Grantee, SerializeOptions{}))
	return Change{
		Operation: OpCreate, ObjectType: string(ident.KindDefaultACL), Scope: ScopeDefaultPrivilege,
		Provides: []string{d.StableID()}, Payload: rawCreate{stmt: stmt},
	}
}

// DropDefaultPrivilege builds the Change that removes a default
// privilege entry.
func DropDefaultPrivilege(d catalog.DefaultPrivilege) Change {
	inSchema := ""
	if d.InSchema != "" {
		inSchema = " IN SCHEMA " + QuoteIdent(d.InSchema, SerializeOptions{})
	}
	stmt := fmt.Sprintf("ALTER DEFAULT PRIVILEGES FOR ROLE %s%s REVOKE %s ON %sS FROM %s",
		QuoteIdent(d.ForRole, SerializeOptions{}), inSchema, d.Privilege.Privilege, strings.ToUpper(d.ObjectKind), QuoteIdent(d.Grantee, SerializeOptions{}))
	return Change{
		Operation: OpDrop, ObjectType: string(ident.KindDefaultACL), Scope: ScopeDefaultPrivilege,
		Drops: []string{d.StableID()}, Payload: rawDrop{stmt: stmt},
	}
}
