package apply

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"strings"
	"sync"
	"testing"

	"github.com/lib/pq"
)

// scriptedConn is an in-memory driver connection whose ExecContext
// consults a per-statement script: each queued error is returned once,
// then the statement succeeds. A script ending in repeatLast keeps
// returning its final error forever.
type script struct {
	mu         sync.Mutex
	errs       map[string][]error
	repeatLast map[string]bool
	executed   []string
}

func (s *script) exec(query string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.executed = append(s.executed, query)
	queue := s.errs[query]
	if len(queue) == 0 {
		return nil
	}
	err := queue[0]
	if len(queue) > 1 || !s.repeatLast[query] {
		s.errs[query] = queue[1:]
	}
	return err
}

type scriptedConnector struct{ s *script }

func (c scriptedConnector) Connect(context.Context) (driver.Conn, error) {
	return scriptedConn{s: c.s}, nil
}
func (c scriptedConnector) Driver() driver.Driver { return scriptedDriver{} }

type scriptedDriver struct{}

func (scriptedDriver) Open(string) (driver.Conn, error) { return nil, driver.ErrBadConn }

type scriptedConn struct{ s *script }

func (c scriptedConn) Prepare(string) (driver.Stmt, error) { return nil, driver.ErrSkip }
func (c scriptedConn) Close() error                        { return nil }
func (c scriptedConn) Begin() (driver.Tx, error)           { return nil, driver.ErrSkip }

func (c scriptedConn) ExecContext(_ context.Context, query string, _ []driver.NamedValue) (driver.Result, error) {
	if err := c.s.exec(query); err != nil {
		return nil, err
	}
	return driver.RowsAffected(0), nil
}

func pqErr(code, msg string) *pq.Error {
	return &pq.Error{Code: pq.ErrorCode(code), Message: msg}
}

func newScriptedDB(s *script) *sql.DB {
	return sql.OpenDB(scriptedConnector{s: s})
}

// S1: every statement succeeds first try.
func TestRunSingleRoundSuccess(t *testing.T) {
	s := &script{errs: map[string][]error{}, repeatLast: map[string]bool{}}
	db := newScriptedDB(s)
	defer db.Close()

	rounds := 0
	result, err := Run(context.Background(), Options{
		Pool: db,
		Statements: []Statement{
			{ID: "1", SQL: "CREATE SCHEMA test"},
			{ID: "2", SQL: "CREATE TABLE test.users (id int)"},
		},
		OnRoundComplete: func(RoundSummary) { rounds++ },
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Status != StatusSuccess {
		t.Errorf("status = %v", result.Status)
	}
	if result.TotalRounds != 1 || result.TotalApplied != 2 {
		t.Errorf("rounds=%d applied=%d", result.TotalRounds, result.TotalApplied)
	}
	if rounds != 1 {
		t.Errorf("OnRoundComplete called %d times, want 1", rounds)
	}
	if result.Rounds[0].Deferred != 0 {
		t.Errorf("deferred = %d", result.Rounds[0].Deferred)
	}
}

// S2: dependency resolved in round 2.
func TestRunDependencyResolvedInSecondRound(t *testing.T) {
	s := &script{
		errs: map[string][]error{
			"CREATE TABLE test.users (id int)": {pqErr("3F000", "schema \"test\" does not exist")},
		},
		repeatLast: map[string]bool{},
	}
	db := newScriptedDB(s)
	defer db.Close()

	result, err := Run(context.Background(), Options{
		Pool: db,
		Statements: []Statement{
			{ID: "table", SQL: "CREATE TABLE test.users (id int)"},
			{ID: "schema", SQL: "CREATE SCHEMA test"},
		},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Status != StatusSuccess || result.TotalRounds != 2 || result.TotalApplied != 2 {
		t.Errorf("status=%v rounds=%d applied=%d", result.Status, result.TotalRounds, result.TotalApplied)
	}
}

// S3: three-level chain in reverse order needs three rounds.
func TestRunThreeLevelChainReversed(t *testing.T) {
	s := &script{
		errs: map[string][]error{
			"CREATE INDEX idx ON test.users (name)": {
				pqErr("42P01", "relation \"test.users\" does not exist"),
				pqErr("42P01", "relation \"test.users\" does not exist"),
			},
			"CREATE TABLE test.users (id int, name text)": {
				pqErr("3F000", "schema \"test\" does not exist"),
			},
		},
		repeatLast: map[string]bool{},
	}
	db := newScriptedDB(s)
	defer db.Close()

	result, err := Run(context.Background(), Options{
		Pool: db,
		Statements: []Statement{
			{ID: "idx", SQL: "CREATE INDEX idx ON test.users (name)"},
			{ID: "table", SQL: "CREATE TABLE test.users (id int, name text)"},
			{ID: "schema", SQL: "CREATE SCHEMA test"},
		},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Status != StatusSuccess || result.TotalRounds != 3 || result.TotalApplied != 3 {
		t.Errorf("status=%v rounds=%d applied=%d", result.Status, result.TotalRounds, result.TotalApplied)
	}
}

// S4: a circular FK pair that fails every round gets stuck.
func TestRunStuckOnCircularDependency(t *testing.T) {
	s := &script{
		errs: map[string][]error{
			"CREATE TABLE a (b_id int REFERENCES b)": {pqErr("42P01", "relation \"b\" does not exist")},
			"CREATE TABLE b (a_id int REFERENCES a)": {pqErr("42P01", "relation \"a\" does not exist")},
		},
		repeatLast: map[string]bool{
			"CREATE TABLE a (b_id int REFERENCES b)": true,
			"CREATE TABLE b (a_id int REFERENCES a)": true,
		},
	}
	db := newScriptedDB(s)
	defer db.Close()

	var deferredLogs []string
	result, err := Run(context.Background(), Options{
		Pool: db,
		Statements: []Statement{
			{ID: "a", SQL: "CREATE TABLE a (b_id int REFERENCES b)"},
			{ID: "b", SQL: "CREATE TABLE b (a_id int REFERENCES a)"},
		},
		DebugLog: func(line string) { deferredLogs = append(deferredLogs, line) },
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Status != StatusStuck {
		t.Errorf("status = %v", result.Status)
	}
	if len(result.StuckStatements) != 2 || result.TotalApplied != 0 {
		t.Errorf("stuck=%d applied=%d", len(result.StuckStatements), result.TotalApplied)
	}
	if len(deferredLogs) == 0 {
		t.Fatal("expected deferred debug records")
	}
	if !strings.Contains(deferredLogs[0], "sqlstate=42P01") {
		t.Errorf("debug record = %q", deferredLogs[0])
	}
}

// S5: an environment-capability failure is skipped, the rest applies.
func TestRunEnvironmentSkip(t *testing.T) {
	s := &script{
		errs: map[string][]error{
			"CREATE EXTENSION pgaudit": {pqErr("58P01", `extension "pgaudit" is not available`)},
		},
		repeatLast: map[string]bool{"CREATE EXTENSION pgaudit": true},
	}
	db := newScriptedDB(s)
	defer db.Close()

	result, err := Run(context.Background(), Options{
		Pool: db,
		Statements: []Statement{
			{ID: "ext", SQL: "CREATE EXTENSION pgaudit", StatementClass: "CREATE_EXTENSION"},
			{ID: "schema", SQL: "CREATE SCHEMA test"},
		},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Status != StatusSuccess || result.TotalApplied != 1 || result.TotalSkipped != 1 {
		t.Errorf("status=%v applied=%d skipped=%d", result.Status, result.TotalApplied, result.TotalSkipped)
	}
}

// S6: a syntax error is a hard failure that aborts the run.
func TestRunHardFailureAborts(t *testing.T) {
	s := &script{
		errs: map[string][]error{
			"INVALID SQL": {pqErr("42601", "syntax error at or near \"INVALID\"")},
		},
		repeatLast: map[string]bool{},
	}
	db := newScriptedDB(s)
	defer db.Close()

	result, err := Run(context.Background(), Options{
		Pool: db,
		Statements: []Statement{
			{ID: "ok", SQL: "CREATE TABLE test (id int)"},
			{ID: "bad", SQL: "INVALID SQL"},
		},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Status != StatusError {
		t.Errorf("status = %v", result.Status)
	}
	if result.TotalApplied != 1 {
		t.Errorf("applied = %d", result.TotalApplied)
	}
	if len(result.Errors) != 1 || !strings.Contains(result.Errors[0], "bad") {
		t.Errorf("errors = %v", result.Errors)
	}
}

// Final validation replays applied CREATE_FUNCTION statements as
// CREATE OR REPLACE with body checking back on.
func TestRunFinalValidationReplaysFunctions(t *testing.T) {
	s := &script{errs: map[string][]error{}, repeatLast: map[string]bool{}}
	db := newScriptedDB(s)
	defer db.Close()

	fn := "CREATE FUNCTION f() RETURNS int LANGUAGE sql AS $$ SELECT 1 $$"
	result, err := Run(context.Background(), Options{
		Pool:            db,
		Statements:      []Statement{{ID: "fn", SQL: fn, StatementClass: "CREATE_FUNCTION"}},
		FinalValidation: true,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Status != StatusSuccess {
		t.Fatalf("status = %v", result.Status)
	}

	var sawOn, sawReplay bool
	for _, q := range s.executed {
		if q == "SET check_function_bodies = on" {
			sawOn = true
		}
		if strings.HasPrefix(q, "CREATE OR REPLACE FUNCTION") {
			sawReplay = true
		}
	}
	if !sawOn || !sawReplay {
		t.Errorf("executed = %v", s.executed)
	}
}
