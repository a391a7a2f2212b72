// Package apply implements the round-applier (spec.md §4.5): it takes an
// ordered list of SQL statements and executes them against one pooled
// connection over a series of rounds, deferring statements that fail on
// a not-yet-satisfied dependency and skipping statements that fail
// because the target environment lacks some optional capability.
//
// The round-applier never reorders statements itself — ordering is C5's
// job. It only decides, round by round, which of the statements it was
// handed are ready to succeed yet.
package apply

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-logfmt/logfmt"
	"github.com/lib/pq"
)

// Status is the final disposition of a round-apply run.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
	StatusStuck   Status = "stuck"
)

// Statement is one SQL statement to apply, carrying the id it was planned
// under so callers can correlate RoundResult back to their own plan.
type Statement struct {
	ID             string
	SQL            string
	StatementClass string
}

// RoundSummary reports what happened in a single round, passed to
// OnRoundComplete after each round finishes.
type RoundSummary struct {
	Round    int
	Applied  int
	Deferred int
	Skipped  int
}

// DeferredRecord is one statement that failed with a dependency error and
// was deferred to a later round; also what gets logfmt-encoded when debug
// logging is enabled.
type DeferredRecord struct {
	ID       string
	SQLSTATE string
	Message  string
}

// RoundResult is the outcome of a full round-apply run (spec.md §4.5).
type RoundResult struct {
	Status          Status
	TotalRounds     int
	TotalApplied    int
	TotalSkipped    int
	Rounds          []RoundSummary
	Errors          []string
	StuckStatements []Statement
}

// Options configures a round-apply run.
type Options struct {
	Pool            *sql.DB
	Statements      []Statement
	OnRoundComplete func(RoundSummary)
	MaxRounds       int
	FinalValidation bool

	// DebugLog, when non-nil, receives one logfmt-encoded record per
	// deferred statement (spec.md §4.5 debug-logging contract).
	DebugLog func(line string)
}

const defaultMaxRounds = 10

// errorClass is the applier's classification of one execution failure.
type errorClass int

const (
	classHardError errorClass = iota
	classDependency
	classEnvironmentCapability
)

var dependencySQLSTATEs = map[string]bool{
	"42P01": true, // undefined_table
	"42703": true, // undefined_column
	"42704": true, // undefined_object
	"42883": true, // undefined_function
	"3F000": true, // schema does not exist
}

var environmentSQLSTATEs = map[string]bool{
	"58P01": true, // control file not found (CREATE EXTENSION)
	"0A000": true, // feature not supported
}

// environmentMessagePatterns catches environment-capability failures that
// Postgres reports under a generic SQLSTATE with a distinguishing message
// (spec.md §4.5: "plus message-matched cases"). The scope is the four
// capability classes §6.4 names — replication, event triggers, languages,
// pre-existing roles — plus the replica-identity prerequisite §4.5 lists,
// each matched by the specific phrasing
// Postgres emits, never by a bare existence-check substring; every
// substring in an entry must appear for the entry to match.
var environmentMessagePatterns = [][]string{
	{"logical replication"},
	{"walreceiver"},
	{"must be superuser to create"},
	{"permission denied to create event trigger"},
	{`language "`, "does not exist"},
	{"does not have a replica identity"},
	{`role "`, "already exists"},
}

func matchesAll(msg string, substrings []string) bool {
	for _, s := range substrings {
		if !strings.Contains(msg, s) {
			return false
		}
	}
	return true
}

func classify(err error) (errorClass, string, string) {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return classHardError, "", err.Error()
	}
	code := string(pqErr.Code)
	msg := pqErr.Message

	// Message patterns run before the SQLSTATE maps: language-does-not-
	// exist arrives as 42704 (a dependency code), but no number of retry
	// rounds will install the language, so it must skip rather than defer.
	lowerMsg := strings.ToLower(msg)
	for _, pattern := range environmentMessagePatterns {
		if matchesAll(lowerMsg, pattern) {
			return classEnvironmentCapability, code, msg
		}
	}
	if dependencySQLSTATEs[code] {
		return classDependency, code, msg
	}
	if environmentSQLSTATEs[code] {
		return classEnvironmentCapability, code, msg
	}
	return classHardError, code, msg
}

// Run executes opts.Statements against opts.Pool following the round
// protocol in spec.md §4.5, acquiring exactly one connection and
// releasing it on every exit path.
func Run(ctx context.Context, opts Options) (*RoundResult, error) {
	maxRounds := opts.MaxRounds
	if maxRounds <= 0 {
		maxRounds = defaultMaxRounds
	}

	conn, err := opts.Pool.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("apply: acquire connection: %w", err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, "SET check_function_bodies = off"); err != nil {
		return nil, fmt.Errorf("apply: SET check_function_bodies = off: %w", err)
	}

	result := &RoundResult{}
	queue := append([]Statement(nil), opts.Statements...)
	var applied []Statement

	for round := 1; len(queue) > 0; round++ {
		var next []Statement
		summary := RoundSummary{Round: round}

		for i, stmt := range queue {
			if ctx.Err() != nil {
				result.Status = StatusStuck
				result.StuckStatements = append(next, queue[i:]...)
				return finish(result, summary, opts)
			}

			_, execErr := conn.ExecContext(ctx, stmt.SQL)
			if execErr == nil {
				applied = append(applied, stmt)
				result.TotalApplied++
				summary.Applied++
				continue
			}

			class, code, msg := classify(execErr)
			switch class {
			case classDependency:
				next = append(next, stmt)
				summary.Deferred++
				logDeferred(opts.DebugLog, stmt.ID, code, msg)
			case classEnvironmentCapability:
				result.TotalSkipped++
				summary.Skipped++
			default:
				result.Status = StatusError
				result.Errors = append(result.Errors, fmt.Sprintf("%s: %s", stmt.ID, msg))
				result.Rounds = append(result.Rounds, summary)
				if opts.OnRoundComplete != nil {
					opts.OnRoundComplete(summary)
				}
				return result, nil
			}
		}

		result.Rounds = append(result.Rounds, summary)
		result.TotalRounds = round
		if opts.OnRoundComplete != nil {
			opts.OnRoundComplete(summary)
		}

		if len(next) == 0 {
			result.Status = StatusSuccess
			break
		}
		if summary.Applied == 0 {
			result.Status = StatusStuck
			result.StuckStatements = next
			return result, nil
		}
		if round >= maxRounds {
			result.Status = StatusStuck
			result.StuckStatements = next
			return result, nil
		}
		queue = next
	}

	if result.Status == StatusSuccess && opts.FinalValidation {
		if err := runFinalValidation(ctx, conn, applied); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("final validation: %v", err))
		}
	}

	return result, nil
}

func finish(result *RoundResult, summary RoundSummary, opts Options) (*RoundResult, error) {
	result.Rounds = append(result.Rounds, summary)
	if opts.OnRoundComplete != nil {
		opts.OnRoundComplete(summary)
	}
	return result, nil
}

// runFinalValidation re-issues every applied CREATE_FUNCTION/CREATE_PROCEDURE
// statement with check_function_bodies back on, so bodies that reference
// other routines created later in the plan get a real body check now that
// the whole schema exists (spec.md §4.5 step 5).
func runFinalValidation(ctx context.Context, conn *sql.Conn, applied []Statement) error {
	if _, err := conn.ExecContext(ctx, "SET check_function_bodies = on"); err != nil {
		return fmt.Errorf("SET check_function_bodies = on: %w", err)
	}
	var failures []string
	for _, stmt := range applied {
		if stmt.StatementClass != "CREATE_FUNCTION" && stmt.StatementClass != "CREATE_PROCEDURE" {
			continue
		}
		replaySQL := asCreateOrReplace(stmt.SQL)
		if _, err := conn.ExecContext(ctx, replaySQL); err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", stmt.ID, err))
		}
	}
	if len(failures) > 0 {
		return fmt.Errorf("%s", strings.Join(failures, "; "))
	}
	return nil
}

// asCreateOrReplace rewrites "CREATE FUNCTION"/"CREATE PROCEDURE" to the
// "CREATE OR REPLACE" form, leaving an already-"OR REPLACE" statement
// untouched.
func asCreateOrReplace(sqlText string) string {
	upper := strings.ToUpper(sqlText)
	if strings.Contains(upper, "OR REPLACE") {
		return sqlText
	}
	for _, kw := range []string{"CREATE FUNCTION", "CREATE PROCEDURE"} {
		if idx := strings.Index(upper, kw); idx != -1 {
			return sqlText[:idx] + "CREATE OR REPLACE " + sqlText[idx+len("CREATE "):]
		}
	}
	return sqlText
}

func logDeferred(sink func(string), id, code, message string) {
	if sink == nil {
		return
	}
	var b strings.Builder
	enc := logfmt.NewEncoder(&b)
	_ = enc.EncodeKeyval("id", id)
	_ = enc.EncodeKeyval("sqlstate", code)
	_ = enc.EncodeKeyval("msg", message)
	_ = enc.EndRecord()
	sink(b.String())
}
