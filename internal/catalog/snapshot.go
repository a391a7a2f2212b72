package catalog

// Snapshot is the external state-snapshot shape consumed from an
// extractor (spec.md §6.1): for each object kind, a mapping
// {stableId -> Entity}. Populating a Snapshot from a live database is an
// out-of-scope collaborator (spec.md §1) — only this shape is specified
// here.
type Snapshot struct {
	Schemas            map[string]Schema
	Tables             map[string]Table
	Indexes            map[string]Index
	Constraints        map[string]Constraint
	Sequences          map[string]Sequence
	Views              map[string]View
	MaterializedViews  map[string]MaterializedView
	Functions          map[string]Function
	Procedures         map[string]Procedure
	Aggregates         map[string]Aggregate
	Types              map[string]Type
	Collations         map[string]Collation
	Extensions         map[string]Extension
	Languages          map[string]Language
	Rules              map[string]Rule
	Triggers           map[string]Trigger
	EventTriggers      map[string]EventTrigger
	Policies           map[string]Policy
	Publications       map[string]Publication
	Subscriptions      map[string]Subscription
	ForeignDataWrappers map[string]ForeignDataWrapper
	Servers            map[string]Server
	UserMappings       map[string]UserMapping
	ForeignTables      map[string]ForeignTable
	DefaultPrivileges  map[string]DefaultPrivilege
}

// Empty returns a Snapshot with every map initialized (as opposed to nil),
// convenient as a zero/empty comparison baseline (spec.md §8 invariant 2:
// "applying diff(ctx, ∅, X) to an empty database...").
func Empty() *Snapshot {
	return &Snapshot{
		Schemas:             map[string]Schema{},
		Tables:              map[string]Table{},
		Indexes:             map[string]Index{},
		Constraints:         map[string]Constraint{},
		Sequences:           map[string]Sequence{},
		Views:               map[string]View{},
		MaterializedViews:   map[string]MaterializedView{},
		Functions:           map[string]Function{},
		Procedures:          map[string]Procedure{},
		Aggregates:          map[string]Aggregate{},
		Types:               map[string]Type{},
		Collations:          map[string]Collation{},
		Extensions:          map[string]Extension{},
		Languages:           map[string]Language{},
		Rules:               map[string]Rule{},
		Triggers:            map[string]Trigger{},
		EventTriggers:       map[string]EventTrigger{},
		Policies:            map[string]Policy{},
		Publications:        map[string]Publication{},
		Subscriptions:       map[string]Subscription{},
		ForeignDataWrappers: map[string]ForeignDataWrapper{},
		Servers:             map[string]Server{},
		UserMappings:        map[string]UserMapping{},
		ForeignTables:       map[string]ForeignTable{},
		DefaultPrivileges:   map[string]DefaultPrivilege{},
	}
}
