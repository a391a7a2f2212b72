package diagnostic

import "strings"

// Severity classifies how serious a Diagnostic is.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityInfo
	SeverityHint
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityInfo:
		return "info"
	case SeverityHint:
		return "hint"
	default:
		return "unknown"
	}
}

// Code taxonomy (spec.md §7). These are the stable diagnostic codes
// emitted by the analyzer, differ, planner, and applier.
const (
	CodeParseError           = "PARSE_ERROR"
	CodeDiscoveryError       = "DISCOVERY_ERROR"
	CodeUnknownStatementClass = "UNKNOWN_STATEMENT_CLASS"
	CodeUnresolvedDependency = "UNRESOLVED_DEPENDENCY"
	CodeDuplicateProducer    = "DUPLICATE_PRODUCER"
	CodeCycleDetected        = "CYCLE_DETECTED"
	CodeInvalidAnnotation    = "INVALID_ANNOTATION"
	CodeRuntimeExecutionError = "RUNTIME_EXECUTION_ERROR"
)

// Position is a line/character/byte-offset location in a source text.
// Line and Character are 0-indexed, matching LSP convention.
type Position struct {
	Line      int
	Character int
	Offset    int
}

// Range spans from Start (inclusive) to End (exclusive).
type Range struct {
	Start Position
	End   Position
}

// Diagnostic is one finding attached to a location in source text.
type Diagnostic struct {
	Range    Range
	Severity Severity
	Code     string
	Message  string
}

// NewDiagnostic builds a Diagnostic.
func NewDiagnostic(r Range, severity Severity, code, message string) Diagnostic {
	return Diagnostic{Range: r, Severity: severity, Code: code, Message: message}
}

// PositionFromOffset computes the line/character/offset Position of a
// byte offset within text.
func PositionFromOffset(text string, offset int) Position {
	if offset > len(text) {
		offset = len(text)
	}
	if offset < 0 {
		offset = 0
	}
	line := strings.Count(text[:offset], "\n")
	lastNewline := strings.LastIndex(text[:offset], "\n")
	character := offset - lastNewline - 1
	return Position{Line: line, Character: character, Offset: offset}
}

// RangeFromOffsets builds a Range from a pair of byte offsets into text.
func RangeFromOffsets(text string, start, end int) Range {
	return Range{Start: PositionFromOffset(text, start), End: PositionFromOffset(text, end)}
}
