package differ

import (
	"github.com/pgdelta/pgdelta/internal/catalog"
	"github.com/pgdelta/pgdelta/internal/change"
)

// ComputeSchemaDiff composes every per-kind differ in a fixed order
// that is itself a topological order over entity kinds (spec.md §4.7);
// its flat output is suitable for passing directly to planner.Build.
// The within-kind order here only affects readability of the raw diff
// output — planner.Build re-sorts the whole list by dependency and
// category priority regardless.
func ComputeSchemaDiff(main, branch *catalog.Snapshot) []change.Change {
	var out []change.Change
	out = append(out, DiffSchemas(main.Schemas, branch.Schemas)...)
	out = append(out, DiffExtensions(main.Extensions, branch.Extensions)...)
	out = append(out, DiffLanguages(main.Languages, branch.Languages)...)
	out = append(out, DiffCollations(main.Collations, branch.Collations)...)
	out = append(out, DiffTypes(main.Types, branch.Types)...)
	out = append(out, DiffSequences(main.Sequences, branch.Sequences)...)
	out = append(out, DiffTables(main.Tables, branch.Tables)...)
	out = append(out, DiffConstraints(main.Constraints, branch.Constraints)...)
	out = append(out, DiffIndexes(main.Indexes, branch.Indexes)...)
	out = append(out, DiffFunctions(main.Functions, branch.Functions)...)
	out = append(out, DiffProcedures(main.Procedures, branch.Procedures)...)
	out = append(out, DiffAggregates(main.Aggregates, branch.Aggregates)...)
	out = append(out, DiffViews(main.Views, branch.Views)...)
	out = append(out, DiffMaterializedViews(main.MaterializedViews, branch.MaterializedViews)...)
	out = append(out, DiffRules(main.Rules, branch.Rules)...)
	out = append(out, DiffTriggers(main.Triggers, branch.Triggers)...)
	out = append(out, DiffEventTriggers(main.EventTriggers, branch.EventTriggers)...)
	out = append(out, DiffPolicies(main.Policies, branch.Policies)...)
	out = append(out, DiffPublications(main.Publications, branch.Publications)...)
	out = append(out, DiffSubscriptions(main.Subscriptions, branch.Subscriptions)...)
	out = append(out, DiffForeignDataWrappers(main.ForeignDataWrappers, branch.ForeignDataWrappers)...)
	out = append(out, DiffServers(main.Servers, branch.Servers)...)
	out = append(out, DiffUserMappings(main.UserMappings, branch.UserMappings)...)
	out = append(out, DiffForeignTables(main.ForeignTables, branch.ForeignTables)...)
	out = append(out, DiffDefaultPrivileges(main.DefaultPrivileges, branch.DefaultPrivileges)...)
	return out
}
