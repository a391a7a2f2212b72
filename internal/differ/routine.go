package differ

import (
	"github.com/pgdelta/pgdelta/internal/catalog"
	"github.com/pgdelta/pgdelta/internal/change"
	"github.com/pgdelta/pgdelta/internal/ident"
)

// DiffFunctions diffs functions, preferring CREATE OR REPLACE FUNCTION
// and falling back to drop+create when the return type changes, which
// Postgres forbids replacing in place (spec.md §4.2.1).
func DiffFunctions(main, branch map[string]catalog.Function) []change.Change {
	created, dropped, altered := partition(main, branch)
	var out []change.Change
	for _, id := range created {
		f := branch[id]
		out = append(out, change.CreateFunction(f))
		out = append(out, diffComment(string(ident.KindFunction), f.StableID(), functionCommentTarget(f), nil, f.Comment)...)
		out = append(out, diffPrivileges(string(ident.KindFunction), f.StableID(), functionGrantTarget(f), nil, f.Privileges)...)
	}
	for _, id := range dropped {
		out = append(out, change.DropFunction(main[id]))
	}
	for _, id := range altered {
		o, n := main[id], branch[id]
		if o.ReturnType != n.ReturnType {
			out = append(out, change.DropFunction(o))
			out = append(out, change.CreateFunction(n))
		} else if o.Definition != n.Definition || o.Volatility != n.Volatility || o.Security != n.Security ||
			o.Parallel != n.Parallel || o.Strict != n.Strict || o.Leakproof != n.Leakproof || o.Language != n.Language {
			out = append(out, change.AlterFunctionDefinition(n))
		}
		if o.Owner != n.Owner {
			out = append(out, change.AlterOwnerTo(string(ident.KindFunction), n.StableID(), "FUNCTION "+change.QuoteQualified(n.Schema, n.Name, change.SerializeOptions{})+n.IdentityArguments, n.Owner))
		}
		out = append(out, diffComment(string(ident.KindFunction), n.StableID(), functionCommentTarget(n), o.Comment, n.Comment)...)
		out = append(out, diffPrivileges(string(ident.KindFunction), n.StableID(), functionGrantTarget(n), o.Privileges, n.Privileges)...)
	}
	return out
}

func functionCommentTarget(f catalog.Function) change.CommentTarget {
	return change.CommentTarget("FUNCTION " + change.QuoteQualified(f.Schema, f.Name, change.SerializeOptions{}) + f.IdentityArguments)
}

func functionGrantTarget(f catalog.Function) change.GrantTarget {
	return change.GrantTarget("FUNCTION " + change.QuoteQualified(f.Schema, f.Name, change.SerializeOptions{}) + f.IdentityArguments)
}

// DiffProcedures diffs procedures the same way functions are diffed,
// minus the return-type consideration (procedures have none).
func DiffProcedures(main, branch map[string]catalog.Procedure) []change.Change {
	created, dropped, altered := partition(main, branch)
	var out []change.Change
	for _, id := range created {
		p := branch[id]
		out = append(out, change.CreateProcedure(p))
		out = append(out, diffComment(string(ident.KindProcedure), p.StableID(), procedureCommentTarget(p), nil, p.Comment)...)
		out = append(out, diffPrivileges(string(ident.KindProcedure), p.StableID(), procedureGrantTarget(p), nil, p.Privileges)...)
	}
	for _, id := range dropped {
		out = append(out, change.DropProcedure(main[id]))
	}
	for _, id := range altered {
		o, n := main[id], branch[id]
		if o.Definition != n.Definition || o.Security != n.Security || o.Language != n.Language {
			out = append(out, change.AlterProcedureDefinition(n))
		}
		if o.Owner != n.Owner {
			out = append(out, change.AlterOwnerTo(string(ident.KindProcedure), n.StableID(), "PROCEDURE "+change.QuoteQualified(n.Schema, n.Name, change.SerializeOptions{})+n.IdentityArguments, n.Owner))
		}
		out = append(out, diffComment(string(ident.KindProcedure), n.StableID(), procedureCommentTarget(n), o.Comment, n.Comment)...)
		out = append(out, diffPrivileges(string(ident.KindProcedure), n.StableID(), procedureGrantTarget(n), o.Privileges, n.Privileges)...)
	}
	return out
}

func procedureCommentTarget(p catalog.Procedure) change.CommentTarget {
	return change.CommentTarget("PROCEDURE " + change.QuoteQualified(p.Schema, p.Name, change.SerializeOptions{}) + p.IdentityArguments)
}

func procedureGrantTarget(p catalog.Procedure) change.GrantTarget {
	return change.GrantTarget("PROCEDURE " + change.QuoteQualified(p.Schema, p.Name, change.SerializeOptions{}) + p.IdentityArguments)
}

// DiffAggregates diffs aggregates. Every field change forces drop+create
// since Postgres has no ALTER AGGREGATE for defining functions or state
// type (spec.md §9 design notes).
func DiffAggregates(main, branch map[string]catalog.Aggregate) []change.Change {
	created, dropped, altered := partition(main, branch)
	var out []change.Change
	for _, id := range created {
		a := branch[id]
		out = append(out, change.CreateAggregate(a))
		out = append(out, diffPrivileges(string(ident.KindAggregate), a.StableID(), aggregateGrantTarget(a), nil, a.Privileges)...)
	}
	for _, id := range dropped {
		out = append(out, change.DropAggregate(main[id]))
	}
	for _, id := range altered {
		o, n := main[id], branch[id]
		out = append(out, change.DropAggregate(o))
		out = append(out, change.CreateAggregate(n))
		out = append(out, diffPrivileges(string(ident.KindAggregate), n.StableID(), aggregateGrantTarget(n), o.Privileges, n.Privileges)...)
	}
	return out
}

func aggregateGrantTarget(a catalog.Aggregate) change.GrantTarget {
	return change.GrantTarget("FUNCTION " + change.QuoteQualified(a.Schema, a.Name, change.SerializeOptions{}) + a.IdentityArguments)
}
