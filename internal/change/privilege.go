package change

import "strings"

// GrantTarget is the "ON <target>" clause of a GRANT/REVOKE statement,
// e.g. "TABLE public.users" or "FUNCTION public.foo(int)" or "SCHEMA app".
type GrantTarget string

type grantPrivileges struct {
	target     GrantTarget
	privileges []string
	grantee    string
	withOption bool
}

func (p grantPrivileges) Serialize(opts SerializeOptions) string {
	clause := ""
	if p.withOption {
		clause = " WITH GRANT OPTION"
	}
	return sqlf("GRANT %s ON %s TO %s%s", strings.Join(p.privileges, ", "), p.target, QuoteIdent(p.grantee, opts), clause)
}

type revokePrivileges struct {
	target     GrantTarget
	privileges []string
	grantee    string
}

func (p revokePrivileges) Serialize(opts SerializeOptions) string {
	return sqlf("REVOKE %s ON %s FROM %s", strings.Join(p.privileges, ", "), p.target, QuoteIdent(p.grantee, opts))
}

type revokeGrantOption struct {
	target     GrantTarget
	privileges []string
	grantee    string
}

func (p revokeGrantOption) Serialize(opts SerializeOptions) string {
	return sqlf("REVOKE GRANT OPTION FOR %s ON %s FROM %s", strings.Join(p.privileges, ", "), p.target, QuoteIdent(p.grantee, opts))
}

// GrantPrivileges builds the Change for one {grantee, grantable} group of
// privileges on an object (spec.md §4.2: "emit Grant<K>Privileges for
// each grantee x {grantable=true, grantable=false} group").
func GrantPrivileges(objectType, objectID string, target GrantTarget, grantee string, privileges []string, withOption bool) Change {
	return Change{
		Operation:  OpCreate,
		ObjectType: objectType,
		Scope:      ScopePrivilege,
		Provides:   []string{"acl:" + objectID + "@" + grantee},
		Requires:   []string{objectID},
		Payload:    grantPrivileges{target: target, privileges: privileges, grantee: grantee, withOption: withOption},
	}
}

// RevokePrivileges builds the Change that fully revokes a set of
// privileges a grantee previously held.
func RevokePrivileges(objectType, objectID string, target GrantTarget, grantee string, privileges []string) Change {
	return Change{
		Operation:  OpDrop,
		ObjectType: objectType,
		Scope:      ScopePrivilege,
		Drops:      []string{"acl:" + objectID + "@" + grantee},
		Requires:   []string{objectID},
		Payload:    revokePrivileges{target: target, privileges: privileges, grantee: grantee},
	}
}

// RevokeGrantOptionFor builds the Change for a grantable:true->false
// transition: the grant option is revoked but the base privilege is kept
// (spec.md §4.2).
func RevokeGrantOptionFor(objectType, objectID string, target GrantTarget, grantee string, privileges []string) Change {
	return Change{
		Operation:  OpAlter,
		ObjectType: objectType,
		Scope:      ScopePrivilege,
		Requires:   []string{objectID, "acl:" + objectID + "@" + grantee},
		Payload:    revokeGrantOption{target: target, privileges: privileges, grantee: grantee},
	}
}

// AlterOwnerTo builds the Change that reassigns ownership of an object.
type alterOwner struct {
	ddlTarget string // e.g. "TABLE public.users"
	newOwner  string
}

func (p alterOwner) Serialize(opts SerializeOptions) string {
	return sqlf("ALTER %s OWNER TO %s", p.ddlTarget, QuoteIdent(p.newOwner, opts))
}

func AlterOwnerTo(objectType, objectID, ddlTarget, newOwner string) Change {
	return Change{
		Operation:  OpAlter,
		ObjectType: objectType,
		Scope:      ScopeObject,
		Requires:   []string{objectID},
		Payload:    alterOwner{ddlTarget: ddlTarget, newOwner: newOwner},
	}
}
