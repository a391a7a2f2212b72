package catalog

import "github.com/pgdelta/pgdelta/internal/ident"

// Volatility enumerates a function's declared volatility.
type Volatility string

const (
	VolatilityVolatile Volatility = "volatile"
	VolatilityStable   Volatility = "stable"
	VolatilityImmutable Volatility = "immutable"
)

// Security enumerates a function's security mode.
type Security string

const (
	SecurityInvoker Security = "invoker"
	SecurityDefiner Security = "definer"
)

// Parallel enumerates a function's declared parallel safety.
type Parallel string

const (
	ParallelUnsafe      Parallel = "unsafe"
	ParallelRestricted  Parallel = "restricted"
	ParallelSafe        Parallel = "safe"
)

// Function is a SQL-callable function. Procedures are modeled by the
// separate Procedure type below, a distinct stable-ID kind with a similar
// shape but no ReturnType.
type Function struct {
	Schema             string
	Name               string
	IdentityArguments  string // raw "(type1, type2, ...)" signature as declared
	ArgumentTypes      []string
	ReturnType         string
	Language           string
	Volatility         Volatility
	Security           Security
	Parallel           Parallel
	Strict             bool
	Leakproof          bool
	Definition         string // server-generated body, re-emitted verbatim
	Owner              string
	Comment            Comment
	Privileges         []Privilege
}

func (f Function) StableID() string {
	return ident.Routine(ident.KindFunction, f.Schema, f.Name, f.IdentityArguments)
}

// Procedure is a CREATE PROCEDURE object; it has no ReturnType.
type Procedure struct {
	Schema            string
	Name              string
	IdentityArguments string
	ArgumentTypes     []string
	Language          string
	Security          Security
	Definition        string
	Owner             string
	Comment           Comment
	Privileges        []Privilege
}

func (p Procedure) StableID() string {
	return ident.Routine(ident.KindProcedure, p.Schema, p.Name, p.IdentityArguments)
}

// AggKind enumerates the three aggregate shapes Postgres supports.
type AggKind string

const (
	AggKindNormal   AggKind = "n"
	AggKindOrdered  AggKind = "o"
	AggKindHypothetical AggKind = "h"
)

// Aggregate is a CREATE AGGREGATE object.
type Aggregate struct {
	Schema               string
	Name                 string
	IdentityArguments    string
	ArgumentTypes        []string
	TransitionFunction   string
	StateDataType        string
	FinalFunction        string
	CombineFunction      string
	SerialFunction       string
	DeserialFunction     string
	MovingTransitionFunc string
	MovingInverseFunc    string
	MovingFinalFunc      string
	SortOperator         string
	InitialCondition     string
	ParallelSafety       Parallel
	AggKind              AggKind
	Owner                string
	Comment              Comment
	Privileges           []Privilege
}

func (a Aggregate) StableID() string {
	return ident.Routine(ident.KindAggregate, a.Schema, a.Name, a.IdentityArguments)
}
