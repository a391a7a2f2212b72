package change

import (
	"github.com/pgdelta/pgdelta/internal/catalog"
	"github.com/pgdelta/pgdelta/internal/ident"
)

type createSequence struct{ s catalog.Sequence }

func (p createSequence) Serialize(opts SerializeOptions) string {
	cycle := "NO CYCLE"
	if p.s.Cycle {
		cycle = "CYCLE"
	}
	return sqlf("CREATE SEQUENCE %s AS %s START %d MINVALUE %d MAXVALUE %d INCREMENT %d CACHE %d %s",
		QuoteQualified(p.s.Schema, p.s.Name, opts), p.s.DataType, p.s.Start, p.s.Min, p.s.Max, p.s.Increment, p.s.Cache, cycle)
}

type dropSequence struct{ s catalog.Sequence }

func (p dropSequence) Serialize(opts SerializeOptions) string {
	return sqlf("DROP SEQUENCE %s", QuoteQualified(p.s.Schema, p.s.Name, opts))
}

// CreateSequence builds the Change that creates a standalone sequence.
// Identity-column sequences are created implicitly by CreateTable and
// have no corresponding Change of their own.
func CreateSequence(s catalog.Sequence) Change {
	return Change{
		Operation:  OpCreate,
		ObjectType: string(ident.KindSequence),
		Scope:      ScopeObject,
		Provides:   []string{s.StableID()},
		Payload:    createSequence{s: s},
	}
}

// DropSequence builds the Change that drops a standalone sequence.
func DropSequence(s catalog.Sequence) Change {
	return Change{
		Operation:  OpDrop,
		ObjectType: string(ident.KindSequence),
		Scope:      ScopeObject,
		Drops:      []string{s.StableID()},
		Payload:    dropSequence{s: s},
	}
}

type alterSequenceOptions struct{ s catalog.Sequence }

func (p alterSequenceOptions) Serialize(opts SerializeOptions) string {
	cycle := "NO CYCLE"
	if p.s.Cycle {
		cycle = "CYCLE"
	}
	return sqlf("ALTER SEQUENCE %s MINVALUE %d MAXVALUE %d INCREMENT %d CACHE %d %s",
		QuoteQualified(p.s.Schema, p.s.Name, opts), p.s.Min, p.s.Max, p.s.Increment, p.s.Cache, cycle)
}

// AlterSequenceSetOptions builds the Change for a sequence's alterable
// options (min/max/increment/cache/cycle). DataType and Start are not
// alterable in place after creation in this model and drive a
// drop+create instead.
func AlterSequenceSetOptions(s catalog.Sequence) Change {
	return Change{
		Operation:  OpAlter,
		ObjectType: string(ident.KindSequence),
		Scope:      ScopeObject,
		Requires:   []string{s.StableID()},
		Payload:    alterSequenceOptions{s: s},
	}
}
