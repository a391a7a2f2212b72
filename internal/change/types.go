package change

import (
	"strings"

	"github.com/pgdelta/pgdelta/internal/catalog"
	"github.com/pgdelta/pgdelta/internal/ident"
)

type createType struct{ t catalog.Type }

func (p createType) Serialize(opts SerializeOptions) string {
	qualified := QuoteQualified(p.t.Schema, p.t.Name, opts)
	switch p.t.Kind {
	case catalog.TypeKindEnum:
		var labels []string
		for _, l := range p.t.Labels {
			labels = append(labels, EscapeLiteral(l))
		}
		return sqlf("CREATE TYPE %s AS ENUM (%s)", qualified, strings.Join(labels, ", "))
	case catalog.TypeKindComposite:
		var cols []string
		for _, c := range p.t.Columns {
			cols = append(cols, columnDefinition(c, opts))
		}
		return sqlf("CREATE TYPE %s AS (%s)", qualified, strings.Join(cols, ", "))
	case catalog.TypeKindRange:
		args := "SUBTYPE = " + p.t.Subtype
		if p.t.SubtypeOpclass != "" {
			args += ", SUBTYPE_OPCLASS = " + p.t.SubtypeOpclass
		}
		if p.t.CanonicalFunction != "" {
			args += ", CANONICAL = " + p.t.CanonicalFunction
		}
		if p.t.SubtypeDiffFunction != "" {
			args += ", SUBTYPE_DIFF = " + p.t.SubtypeDiffFunction
		}
		return sqlf("CREATE TYPE %s AS RANGE (%s)", qualified, args)
	case catalog.TypeKindDomain:
		var b strings.Builder
		b.WriteString(sqlf("CREATE DOMAIN %s AS %s", qualified, p.t.BaseType))
		if p.t.NotNull {
			b.WriteString(" NOT NULL")
		}
		if p.t.Default != nil {
			b.WriteString(" DEFAULT " + *p.t.Default)
		}
		for _, c := range p.t.Constraints {
			b.WriteString(sqlf(" CONSTRAINT %s CHECK (%s)", QuoteIdent(c.Name, opts), c.Check))
		}
		return b.String()
	default: // TypeKindBase
		return sqlf("CREATE TYPE %s (INPUT = %s, OUTPUT = %s, INTERNALLENGTH = %d, ALIGNMENT = %s, STORAGE = %s)",
			qualified, p.t.InputFunction, p.t.OutputFunction, p.t.InternalLength, p.t.Alignment, p.t.Storage)
	}
}

type dropType struct{ t catalog.Type }

func (p dropType) Serialize(opts SerializeOptions) string {
	verb := "TYPE"
	if p.t.Kind == catalog.TypeKindDomain {
		verb = "DOMAIN"
	}
	return sqlf("DROP %s %s", verb, QuoteQualified(p.t.Schema, p.t.Name, opts))
}

// objectKindFor returns the stable-ID kind for the given type variant;
// domains are a distinct ident.Kind even though catalog models them as
// a Type with Kind == TypeKindDomain.
func objectKindFor(t catalog.Type) ident.Kind {
	if t.Kind == catalog.TypeKindDomain {
		return ident.KindDomain
	}
	return ident.KindType
}

// CreateType builds the Change that creates a composite/enum/range/base
// type or a domain (domains are modeled under catalog.Type with
// Kind == TypeKindDomain, per spec.md §3.2).
func CreateType(t catalog.Type) Change {
	provides := []string{t.StableID()}
	if t.Kind == catalog.TypeKindComposite {
		for _, c := range t.Columns {
			provides = append(provides, c.StableID())
		}
	}
	return Change{
		Operation:  OpCreate,
		ObjectType: string(objectKindFor(t)),
		Scope:      ScopeObject,
		Provides:   provides,
		Payload:    createType{t: t},
	}
}

// DropType builds the Change that drops a type or domain.
func DropType(t catalog.Type) Change {
	drops := []string{t.StableID()}
	if t.Kind == catalog.TypeKindComposite {
		for _, c := range t.Columns {
			drops = append(drops, c.StableID())
		}
	}
	return Change{
		Operation:  OpDrop,
		ObjectType: string(objectKindFor(t)),
		Scope:      ScopeObject,
		Drops:      drops,
		Payload:    dropType{t: t},
	}
}

type alterTypeAddEnumValue struct {
	schema, name, value, neighbor string
	before                        bool
}

func (p alterTypeAddEnumValue) Serialize(opts SerializeOptions) string {
	pos := ""
	if p.neighbor != "" {
		dir := "AFTER"
		if p.before {
			dir = "BEFORE"
		}
		pos = sqlf(" %s %s", dir, EscapeLiteral(p.neighbor))
	}
	return sqlf("ALTER TYPE %s ADD VALUE %s%s", QuoteQualified(p.schema, p.name, opts), EscapeLiteral(p.value), pos)
}

// AlterTypeAddEnumValue builds the Change that appends (or inserts) one
// label into an existing enum type. Enum labels can only be added, never
// renamed or removed in place (spec.md §4.2.1: a removed label forces
// DropType+CreateType); when neighbor is "" the value is appended at the
// end.
func AlterTypeAddEnumValue(schema, name, value, neighbor string, before bool) Change {
	return Change{
		Operation:  OpAlter,
		ObjectType: string(ident.KindType),
		Scope:      ScopeObject,
		Requires:   []string{ident.Qualified(ident.KindType, schema, name)},
		Payload:    alterTypeAddEnumValue{schema: schema, name: name, value: value, neighbor: neighbor, before: before},
	}
}

type alterDomainAddConstraint struct {
	schema, name string
	c            catalog.DomainConstraint
}

func (p alterDomainAddConstraint) Serialize(opts SerializeOptions) string {
	return sqlf("ALTER DOMAIN %s ADD CONSTRAINT %s CHECK (%s)", QuoteQualified(p.schema, p.name, opts), QuoteIdent(p.c.Name, opts), p.c.Check)
}

// AlterDomainAddConstraint builds the Change that adds a named CHECK
// constraint to an existing domain.
func AlterDomainAddConstraint(schema, name string, c catalog.DomainConstraint) Change {
	return Change{
		Operation:  OpAlter,
		ObjectType: string(ident.KindDomain),
		Scope:      ScopeObject,
		Requires:   []string{ident.Qualified(ident.KindDomain, schema, name)},
		Payload:    alterDomainAddConstraint{schema: schema, name: name, c: c},
	}
}

type alterDomainDropConstraint struct {
	schema, name, constraintName string
}

func (p alterDomainDropConstraint) Serialize(opts SerializeOptions) string {
	return sqlf("ALTER DOMAIN %s DROP CONSTRAINT %s", QuoteQualified(p.schema, p.name, opts), QuoteIdent(p.constraintName, opts))
}

// AlterDomainDropConstraint builds the Change that removes a domain's
// CHECK constraint.
func AlterDomainDropConstraint(schema, name, constraintName string) Change {
	return Change{
		Operation:  OpAlter,
		ObjectType: string(ident.KindDomain),
		Scope:      ScopeObject,
		Requires:   []string{ident.Qualified(ident.KindDomain, schema, name)},
		Payload:    alterDomainDropConstraint{schema: schema, name: name, constraintName: constraintName},
	}
}
