package analyzer

import (
	"strings"

	"github.com/pgdelta/pgdelta/diagnostic"
)

// Phase is the pg-topo:phase directive's value (spec.md §4.6 step 3).
type Phase string

const (
	PhaseBootstrap      Phase = "bootstrap"
	PhasePreData        Phase = "pre_data"
	PhaseDataStructures  Phase = "data_structures"
	PhaseRoutines        Phase = "routines"
	PhasePostData        Phase = "post_data"
	PhasePrivileges      Phase = "privileges"
)

var validPhases = map[Phase]bool{
	PhaseBootstrap:      true,
	PhasePreData:        true,
	PhaseDataStructures: true,
	PhaseRoutines:       true,
	PhasePostData:       true,
	PhasePrivileges:     true,
}

// AnnotationHints is what a leading run of `-- pg-topo:` comment lines
// contributes to a statement (spec.md §6.5).
type AnnotationHints struct {
	Phase      Phase
	DependsOn  []string
	Requires   []string
	Provides   []string
}

const annotationPrefix = "-- pg-topo:"

// parseAnnotations reads the leading comment lines of text (stopping at
// the first non-comment, non-blank line) and extracts pg-topo directives.
// Malformed or conflicting directives are reported as INVALID_ANNOTATION
// diagnostics rather than causing the whole statement to be dropped.
func parseAnnotations(text string) (AnnotationHints, []Diagnostic) {
	var hints AnnotationHints
	var diags []Diagnostic
	var phaseSeen bool

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if !strings.HasPrefix(trimmed, "--") {
			break
		}
		if !strings.HasPrefix(trimmed, annotationPrefix) {
			continue
		}
		directive := strings.TrimSpace(strings.TrimPrefix(trimmed, annotationPrefix))
		name, value, ok := strings.Cut(directive, " ")
		if !ok {
			diags = append(diags, Diagnostic{Code: diagnostic.CodeInvalidAnnotation, Message: "malformed pg-topo directive: " + trimmed})
			continue
		}
		value = strings.TrimSpace(value)

		switch name {
		case "phase":
			if phaseSeen {
				diags = append(diags, Diagnostic{Code: diagnostic.CodeInvalidAnnotation, Message: "duplicate pg-topo:phase directive"})
				continue
			}
			p := Phase(value)
			if !validPhases[p] {
				diags = append(diags, Diagnostic{Code: diagnostic.CodeInvalidAnnotation, Message: "unknown pg-topo:phase value: " + value})
				continue
			}
			hints.Phase = p
			phaseSeen = true
		case "depends_on":
			for _, ref := range strings.Split(value, ",") {
				if ref = strings.TrimSpace(ref); ref != "" {
					hints.DependsOn = append(hints.DependsOn, ref)
				}
			}
		case "requires":
			hints.Requires = append(hints.Requires, strings.TrimSpace(value))
		case "provides":
			hints.Provides = append(hints.Provides, strings.TrimSpace(value))
		default:
			diags = append(diags, Diagnostic{Code: diagnostic.CodeInvalidAnnotation, Message: "unknown pg-topo directive: " + name})
		}
	}

	for _, r := range hints.Requires {
		for _, p := range hints.Provides {
			if r == p {
				diags = append(diags, Diagnostic{Code: diagnostic.CodeInvalidAnnotation, Message: "pg-topo:requires and pg-topo:provides both name " + r})
			}
		}
	}

	return hints, diags
}
