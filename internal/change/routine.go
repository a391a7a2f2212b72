package change

import (
	"github.com/pgdelta/pgdelta/internal/catalog"
	"github.com/pgdelta/pgdelta/internal/ident"
)

type createFunction struct{ f catalog.Function }

func (p createFunction) Serialize(opts SerializeOptions) string {
	return sqlf("CREATE FUNCTION %s%s RETURNS %s LANGUAGE %s %s AS %s",
		QuoteQualified(p.f.Schema, p.f.Name, opts), p.f.IdentityArguments, p.f.ReturnType, p.f.Language,
		functionAttributes(p.f.Volatility, p.f.Security, p.f.Parallel, p.f.Strict, p.f.Leakproof), EscapeLiteral(p.f.Definition))
}

func functionAttributes(v catalog.Volatility, s catalog.Security, par catalog.Parallel, strict, leakproof bool) string {
	attrs := string(v)
	if s == catalog.SecurityDefiner {
		attrs += " SECURITY DEFINER"
	}
	attrs += " PARALLEL " + string(par)
	if strict {
		attrs += " STRICT"
	}
	if leakproof {
		attrs += " LEAKPROOF"
	}
	return attrs
}

type dropFunction struct{ f catalog.Function }

func (p dropFunction) Serialize(opts SerializeOptions) string {
	return sqlf("DROP FUNCTION %s%s", QuoteQualified(p.f.Schema, p.f.Name, opts), p.f.IdentityArguments)
}

// CreateFunction builds the Change that creates a function.
func CreateFunction(f catalog.Function) Change {
	return Change{
		Operation:  OpCreate,
		ObjectType: string(ident.KindFunction),
		Scope:      ScopeObject,
		Provides:   []string{f.StableID()},
		Payload:    createFunction{f: f},
	}
}

// DropFunction builds the Change that drops a function.
func DropFunction(f catalog.Function) Change {
	return Change{
		Operation:  OpDrop,
		ObjectType: string(ident.KindFunction),
		Scope:      ScopeObject,
		Drops:      []string{f.StableID()},
		Payload:    dropFunction{f: f},
	}
}

type replaceFunction struct{ f catalog.Function }

func (p replaceFunction) Serialize(opts SerializeOptions) string {
	return sqlf("CREATE OR REPLACE FUNCTION %s%s RETURNS %s LANGUAGE %s %s AS %s",
		QuoteQualified(p.f.Schema, p.f.Name, opts), p.f.IdentityArguments, p.f.ReturnType, p.f.Language,
		functionAttributes(p.f.Volatility, p.f.Security, p.f.Parallel, p.f.Strict, p.f.Leakproof), EscapeLiteral(p.f.Definition))
}

// AlterFunctionDefinition builds the Change that replaces a function's
// body/attributes in place with CREATE OR REPLACE FUNCTION. Postgres
// forbids this when the return type changes; the differ emits
// DropFunction+CreateFunction instead for that case (spec.md §4.2.1).
func AlterFunctionDefinition(f catalog.Function) Change {
	return Change{
		Operation:  OpAlter,
		ObjectType: string(ident.KindFunction),
		Scope:      ScopeObject,
		Requires:   []string{f.StableID()},
		Payload:    replaceFunction{f: f},
	}
}

type createProcedure struct{ p catalog.Procedure }

func (p createProcedure) Serialize(opts SerializeOptions) string {
	secDef := ""
	if p.p.Security == catalog.SecurityDefiner {
		secDef = " SECURITY DEFINER"
	}
	return sqlf("CREATE PROCEDURE %s%s LANGUAGE %s%s AS %s",
		QuoteQualified(p.p.Schema, p.p.Name, opts), p.p.IdentityArguments, p.p.Language, secDef, EscapeLiteral(p.p.Definition))
}

type dropProcedure struct{ p catalog.Procedure }

func (p dropProcedure) Serialize(opts SerializeOptions) string {
	return sqlf("DROP PROCEDURE %s%s", QuoteQualified(p.p.Schema, p.p.Name, opts), p.p.IdentityArguments)
}

// CreateProcedure builds the Change that creates a procedure.
func CreateProcedure(p catalog.Procedure) Change {
	return Change{
		Operation:  OpCreate,
		ObjectType: string(ident.KindProcedure),
		Scope:      ScopeObject,
		Provides:   []string{p.StableID()},
		Payload:    createProcedure{p: p},
	}
}

// DropProcedure builds the Change that drops a procedure.
func DropProcedure(p catalog.Procedure) Change {
	return Change{
		Operation:  OpDrop,
		ObjectType: string(ident.KindProcedure),
		Scope:      ScopeObject,
		Drops:      []string{p.StableID()},
		Payload:    dropProcedure{p: p},
	}
}

type replaceProcedure struct{ p catalog.Procedure }

func (p replaceProcedure) Serialize(opts SerializeOptions) string {
	secDef := ""
	if p.p.Security == catalog.SecurityDefiner {
		secDef = " SECURITY DEFINER"
	}
	return sqlf("CREATE OR REPLACE PROCEDURE %s%s LANGUAGE %s%s AS %s",
		QuoteQualified(p.p.Schema, p.p.Name, opts), p.p.IdentityArguments, p.p.Language, secDef, EscapeLiteral(p.p.Definition))
}

// AlterProcedureDefinition builds the Change that replaces a
// procedure's body in place.
func AlterProcedureDefinition(p catalog.Procedure) Change {
	return Change{
		Operation:  OpAlter,
		ObjectType: string(ident.KindProcedure),
		Scope:      ScopeObject,
		Requires:   []string{p.StableID()},
		Payload:    replaceProcedure{p: p},
	}
}

type createAggregate struct{ a catalog.Aggregate }

func (p createAggregate) Serialize(opts SerializeOptions) string {
	args := []string{"SFUNC = " + p.a.TransitionFunction, "STYPE = " + p.a.StateDataType}
	if p.a.FinalFunction != "" {
		args = append(args, "FINALFUNC = "+p.a.FinalFunction)
	}
	if p.a.CombineFunction != "" {
		args = append(args, "COMBINEFUNC = "+p.a.CombineFunction)
	}
	if p.a.SerialFunction != "" {
		args = append(args, "SERIALFUNC = "+p.a.SerialFunction)
	}
	if p.a.DeserialFunction != "" {
		args = append(args, "DESERIALFUNC = "+p.a.DeserialFunction)
	}
	if p.a.MovingTransitionFunc != "" {
		args = append(args, "MSFUNC = "+p.a.MovingTransitionFunc)
	}
	if p.a.MovingInverseFunc != "" {
		args = append(args, "MINVFUNC = "+p.a.MovingInverseFunc)
	}
	if p.a.MovingFinalFunc != "" {
		args = append(args, "MFINALFUNC = "+p.a.MovingFinalFunc)
	}
	if p.a.SortOperator != "" {
		args = append(args, "SORTOP = "+p.a.SortOperator)
	}
	if p.a.InitialCondition != "" {
		args = append(args, "INITCOND = "+EscapeLiteral(p.a.InitialCondition))
	}
	args = append(args, "PARALLEL = "+string(p.a.ParallelSafety))
	joined := args[0]
	for _, a := range args[1:] {
		joined += ", " + a
	}
	return sqlf("CREATE AGGREGATE %s%s (%s)", QuoteQualified(p.a.Schema, p.a.Name, opts), p.a.IdentityArguments, joined)
}

type dropAggregate struct{ a catalog.Aggregate }

func (p dropAggregate) Serialize(opts SerializeOptions) string {
	return sqlf("DROP AGGREGATE %s%s", QuoteQualified(p.a.Schema, p.a.Name, opts), p.a.IdentityArguments)
}

// CreateAggregate builds the Change that creates an aggregate.
func CreateAggregate(a catalog.Aggregate) Change {
	return Change{
		Operation:  OpCreate,
		ObjectType: string(ident.KindAggregate),
		Scope:      ScopeObject,
		Provides:   []string{a.StableID()},
		Payload:    createAggregate{a: a},
	}
}

// DropAggregate builds the Change that drops an aggregate. Aggregates
// have no ALTER AGGREGATE form for their defining functions/state type,
// so any delta in those fields is modeled as DropAggregate+
// CreateAggregate (spec.md §9 design notes).
func DropAggregate(a catalog.Aggregate) Change {
	return Change{
		Operation:  OpDrop,
		ObjectType: string(ident.KindAggregate),
		Scope:      ScopeObject,
		Drops:      []string{a.StableID()},
		Payload:    dropAggregate{a: a},
	}
}
