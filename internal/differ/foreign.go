package differ

import (
	"github.com/pgdelta/pgdelta/internal/catalog"
	"github.com/pgdelta/pgdelta/internal/change"
)

// DiffForeignDataWrappers diffs FDWs; any field change is drop+create.
func DiffForeignDataWrappers(main, branch map[string]catalog.ForeignDataWrapper) []change.Change {
	created, dropped, altered := partition(main, branch)
	var out []change.Change
	for _, id := range created {
		out = append(out, change.CreateForeignDataWrapper(branch[id]))
	}
	for _, id := range dropped {
		out = append(out, change.DropForeignDataWrapper(main[id]))
	}
	for _, id := range altered {
		out = append(out, change.DropForeignDataWrapper(main[id]), change.CreateForeignDataWrapper(branch[id]))
	}
	return out
}

// DiffServers diffs foreign servers; options are alterable in place, a
// change to FDW, Type or Version forces drop+create, and owner, comment
// and privilege changes emit no Change.
func DiffServers(main, branch map[string]catalog.Server) []change.Change {
	created, dropped, altered := partition(main, branch)
	var out []change.Change
	for _, id := range created {
		out = append(out, change.CreateServer(branch[id]))
	}
	for _, id := range dropped {
		out = append(out, change.DropServer(main[id]))
	}
	for _, id := range altered {
		o, n := main[id], branch[id]
		if o.FDW != n.FDW || o.Type != n.Type || o.Version != n.Version {
			out = append(out, change.DropServer(o), change.CreateServer(n))
			continue
		}
		if !mapEqual(o.Options, n.Options) {
			out = append(out, change.AlterServerOptions(n))
		}
	}
	return out
}

func mapEqual(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if b[k] != v {
			return false
		}
	}
	return true
}

// DiffUserMappings diffs user mappings; any field change is drop+create.
func DiffUserMappings(main, branch map[string]catalog.UserMapping) []change.Change {
	created, dropped, altered := partition(main, branch)
	var out []change.Change
	for _, id := range created {
		out = append(out, change.CreateUserMapping(branch[id]))
	}
	for _, id := range dropped {
		out = append(out, change.DropUserMapping(main[id]))
	}
	for _, id := range altered {
		out = append(out, change.DropUserMapping(main[id]), change.CreateUserMapping(branch[id]))
	}
	return out
}

// DiffForeignTables diffs foreign tables; any field change is
// drop+create since the schema of a foreign table tracks a remote
// relation rather than local storage.
func DiffForeignTables(main, branch map[string]catalog.ForeignTable) []change.Change {
	created, dropped, altered := partition(main, branch)
	var out []change.Change
	for _, id := range created {
		out = append(out, change.CreateForeignTable(branch[id]))
	}
	for _, id := range dropped {
		out = append(out, change.DropForeignTable(main[id]))
	}
	for _, id := range altered {
		out = append(out, change.DropForeignTable(main[id]), change.CreateForeignTable(branch[id]))
	}
	return out
}

// DiffSubscriptions diffs logical-replication subscriptions. Enabled
// and the publication list are alterable in place; two_phase is fixed
// at creation and any change forces drop+create (spec.md §9 design
// notes).
func DiffSubscriptions(main, branch map[string]catalog.Subscription) []change.Change {
	created, dropped, altered := partition(main, branch)
	var out []change.Change
	for _, id := range created {
		out = append(out, change.CreateSubscription(branch[id]))
	}
	for _, id := range dropped {
		out = append(out, change.DropSubscription(main[id]))
	}
	for _, id := range altered {
		o, n := main[id], branch[id]
		if o.Connection != n.Connection || o.TwoPhase != n.TwoPhase {
			out = append(out, change.DropSubscription(o), change.CreateSubscription(n))
			continue
		}
		if o.Enabled != n.Enabled {
			out = append(out, change.AlterSubscriptionEnabled(n))
		}
		if !stringSliceEqual(o.Publications, n.Publications) {
			out = append(out, change.AlterSubscriptionPublications(n))
		}
	}
	return out
}

// DiffDefaultPrivileges diffs ALTER DEFAULT PRIVILEGES entries; these
// have no partial alter, only grant/revoke of the entry as a whole.
func DiffDefaultPrivileges(main, branch map[string]catalog.DefaultPrivilege) []change.Change {
	created, dropped, altered := partition(main, branch)
	var out []change.Change
	for _, id := range created {
		out = append(out, change.CreateDefaultPrivilege(branch[id]))
	}
	for _, id := range dropped {
		out = append(out, change.DropDefaultPrivilege(main[id]))
	}
	for _, id := range altered {
		out = append(out, change.DropDefaultPrivilege(main[id]), change.CreateDefaultPrivilege(branch[id]))
	}
	return out
}
