// Package executor turns a planner.Plan into the externally visible
// artifacts: the JSON plan document, the SQL script, and a live
// application via the round-applier. It also owns the source-hash guard
// that keeps a stale plan from being replayed against a database that
// has moved on since the plan was computed.
package executor

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/mitchellh/hashstructure/v2"
	"github.com/xeipuuv/gojsonschema"

	"github.com/pgdelta/pgdelta/internal/apply"
	"github.com/pgdelta/pgdelta/internal/catalog"
	"github.com/pgdelta/pgdelta/internal/change"
	"github.com/pgdelta/pgdelta/internal/locks"
	"github.com/pgdelta/pgdelta/internal/planner"
)

// PlanVersion is the artifact format version.
const PlanVersion = 1

// PlanChange is one serialized change in the plan artifact. Payload is the
// json.Marshal output of the change's payload value; the payload types keep
// their fields unexported, so it encodes as an empty object and cannot be
// turned back into a statement. SQL is the serialized statement.
type PlanChange struct {
	ID         string          `json:"id"`
	Operation  string          `json:"operation"`
	ObjectType string          `json:"object_type"`
	Scope      string          `json:"scope"`
	Provides   []string        `json:"provides,omitempty"`
	Requires   []string        `json:"requires,omitempty"`
	Drops      []string        `json:"drops,omitempty"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	SQL        string          `json:"sql"`
	LockMode   string          `json:"lock_mode,omitempty"`

	// StatementClass is carried for the applier's final-validation pass
	// (CREATE_FUNCTION/CREATE_PROCEDURE replay).
	StatementClass string `json:"statement_class,omitempty"`
}

// PlanArtifact is the JSON plan document (spec.md §6.2), extended with the
// source-snapshot hash guard.
type PlanArtifact struct {
	Version     int          `json:"version"`
	SourceHash  string       `json:"source_hash,omitempty"`
	Changes     []PlanChange `json:"changes"`
	Diagnostics []string     `json:"diagnostics,omitempty"`
}

// SnapshotHash computes a stable hash over a snapshot. Two equal snapshots
// hash identically regardless of map iteration order.
func SnapshotHash(snap *catalog.Snapshot) (string, error) {
	h, err := hashstructure.Hash(snap, hashstructure.FormatV2, nil)
	if err != nil {
		return "", fmt.Errorf("hash snapshot: %w", err)
	}
	return fmt.Sprintf("%016x", h), nil
}

// BuildPlanArtifact converts an ordered plan into its artifact form.
// source may be nil when the caller has no snapshot to guard against.
func BuildPlanArtifact(plan planner.Plan, source *catalog.Snapshot) (*PlanArtifact, error) {
	artifact := &PlanArtifact{Version: PlanVersion}

	if source != nil {
		hash, err := SnapshotHash(source)
		if err != nil {
			return nil, err
		}
		artifact.SourceHash = hash
	}

	for i, c := range plan.Changes {
		sqlText := c.Serialize(change.SerializeOptions{})
		payload, err := json.Marshal(c.Payload)
		if err != nil {
			return nil, fmt.Errorf("marshal payload for change %d: %w", i, err)
		}
		pc := PlanChange{
			ID:             changeID(i, c),
			Operation:      string(c.Operation),
			ObjectType:     c.ObjectType,
			Scope:          string(c.Scope),
			Provides:       c.Provides,
			Requires:       c.Requires,
			Drops:          c.Drops,
			Payload:        payload,
			SQL:            sqlText,
			LockMode:       locks.DetectLockMode(sqlText).String(),
			StatementClass: statementClass(c),
		}
		artifact.Changes = append(artifact.Changes, pc)
	}

	for _, d := range plan.Diagnostics {
		artifact.Diagnostics = append(artifact.Diagnostics, d.Code+": "+d.Message)
	}
	return artifact, nil
}

// changeID names one change within the artifact: ordinal plus the first
// stable ID the change provides, or else drops, or else requires.
func changeID(index int, c change.Change) string {
	subject := ""
	if len(c.Provides) > 0 {
		subject = c.Provides[0]
	} else if len(c.Drops) > 0 {
		subject = c.Drops[0]
	} else if len(c.Requires) > 0 {
		subject = c.Requires[0]
	}
	if subject == "" {
		return fmt.Sprintf("%03d", index+1)
	}
	return fmt.Sprintf("%03d %s", index+1, subject)
}

// statementClass maps a change to the applier's statement-class vocabulary;
// only the classes the final-validation pass cares about are distinguished.
func statementClass(c change.Change) string {
	if c.Operation != change.OpCreate || c.Scope != change.ScopeObject {
		return ""
	}
	switch c.ObjectType {
	case "function":
		return "CREATE_FUNCTION"
	case "procedure":
		return "CREATE_PROCEDURE"
	default:
		return ""
	}
}

// Script renders the artifact as a SQL script file, statements separated
// by ";\n\n" (spec.md §6.3).
func (a *PlanArtifact) Script() string {
	var b strings.Builder
	for _, c := range a.Changes {
		if c.SQL == "" {
			continue
		}
		b.WriteString(c.SQL)
		b.WriteString(";\n\n")
	}
	return b.String()
}

// Statements converts the artifact into the round-applier's input.
func (a *PlanArtifact) Statements() []apply.Statement {
	stmts := make([]apply.Statement, 0, len(a.Changes))
	for _, c := range a.Changes {
		if c.SQL == "" {
			continue
		}
		stmts = append(stmts, apply.Statement{
			ID:             c.ID,
			SQL:            c.SQL,
			StatementClass: c.StatementClass,
		})
	}
	return stmts
}

// MarshalIndented renders the artifact as deterministic, indented JSON.
func (a *PlanArtifact) MarshalIndented() ([]byte, error) {
	return json.MarshalIndent(a, "", "  ")
}

// planSchema validates the shape of a plan document before it is trusted,
// so a hand-edited or truncated file fails with a field-level message
// instead of a zero-valued struct.
const planSchema = `{
  "type": "object",
  "required": ["version", "changes"],
  "properties": {
    "version": {"type": "integer"},
    "source_hash": {"type": "string"},
    "diagnostics": {"type": "array", "items": {"type": "string"}},
    "changes": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "operation", "object_type", "scope", "sql"],
        "properties": {
          "id": {"type": "string"},
          "operation": {"enum": ["create", "alter", "drop"]},
          "object_type": {"type": "string"},
          "scope": {"enum": ["object", "comment", "privilege", "default_privilege", "membership"]},
          "provides": {"type": "array", "items": {"type": "string"}},
          "requires": {"type": "array", "items": {"type": "string"}},
          "drops": {"type": "array", "items": {"type": "string"}},
          "sql": {"type": "string"},
          "lock_mode": {"type": "string"},
          "statement_class": {"type": "string"}
        }
      }
    }
  }
}`

// ParsePlanArtifact reads a plan artifact back from its JSON encoding.
func ParsePlanArtifact(data []byte) (*PlanArtifact, error) {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(planSchema),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return nil, fmt.Errorf("parse plan artifact: %w", err)
	}
	if !result.Valid() {
		var problems []string
		for _, e := range result.Errors() {
			problems = append(problems, e.String())
		}
		return nil, fmt.Errorf("invalid plan artifact: %s", strings.Join(problems, "; "))
	}

	var artifact PlanArtifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		return nil, fmt.Errorf("parse plan artifact: %w", err)
	}
	if artifact.Version != PlanVersion {
		return nil, fmt.Errorf("unsupported plan version %d (want %d)", artifact.Version, PlanVersion)
	}
	return &artifact, nil
}

// ApplyOptions configures ApplyPlan.
type ApplyOptions struct {
	// SourceSnapshot, when non-nil, re-checks the artifact's SourceHash
	// before anything executes.
	SourceSnapshot *catalog.Snapshot

	// FinalValidation replays function/procedure bodies with
	// check_function_bodies back on after a successful run.
	FinalValidation bool

	MaxRounds int
	Verbose   bool

	// DebugLog receives one logfmt record per deferred statement.
	DebugLog func(string)
}

// ApplyPlan executes the artifact against db using the round-applier.
func ApplyPlan(ctx context.Context, db *sql.DB, artifact *PlanArtifact, opts ApplyOptions) (*apply.RoundResult, error) {
	if opts.SourceSnapshot != nil && artifact.SourceHash != "" {
		hash, err := SnapshotHash(opts.SourceSnapshot)
		if err != nil {
			return nil, err
		}
		if hash != artifact.SourceHash {
			return nil, fmt.Errorf("plan is stale: source hash %s no longer matches database state %s; re-run plan", artifact.SourceHash, hash)
		}
	}

	var onRound func(apply.RoundSummary)
	if opts.Verbose {
		bold := color.New(color.Bold)
		onRound = func(s apply.RoundSummary) {
			bold.Printf("round %d:", s.Round)
			fmt.Printf(" applied=%d deferred=%d skipped=%d\n", s.Applied, s.Deferred, s.Skipped)
		}
	}

	result, err := apply.Run(ctx, apply.Options{
		Pool:            db,
		Statements:      artifact.Statements(),
		OnRoundComplete: onRound,
		MaxRounds:       opts.MaxRounds,
		FinalValidation: opts.FinalValidation,
		DebugLog:        opts.DebugLog,
	})
	if err != nil {
		return nil, err
	}

	if opts.Verbose {
		switch result.Status {
		case apply.StatusSuccess:
			color.Green("applied %d statement(s) in %d round(s), %d skipped", result.TotalApplied, result.TotalRounds, result.TotalSkipped)
		case apply.StatusStuck:
			color.Yellow("stuck after %d round(s): %d statement(s) remain", result.TotalRounds, len(result.StuckStatements))
		case apply.StatusError:
			color.Red("failed: %s", strings.Join(result.Errors, "; "))
		}
	}
	return result, nil
}
