package analyzer

import "regexp"

// Reference extraction is class-specific (spec.md §4.6 step 4): for each
// StatementClass we know enough about the grammar shape to pull the
// qualified name being defined (provides) or leaned on (requires) with a
// small anchored regex, the same style the rest of this codebase's SQL
// tooling already uses for extracting names out of generated statements.
var (
	reCreateTable     = regexp.MustCompile(`(?is)CREATE\s+TABLE\s+(?:IF\s+NOT\s+EXISTS\s+)?([a-zA-Z0-9_."]+)`)
	reCreateIndexOn   = regexp.MustCompile(`(?is)CREATE\s+(?:UNIQUE\s+)?INDEX\s+(?:CONCURRENTLY\s+)?(?:IF\s+NOT\s+EXISTS\s+)?[a-zA-Z0-9_."]+\s+ON\s+(?:ONLY\s+)?([a-zA-Z0-9_."]+)`)
	reCreateFunction  = regexp.MustCompile(`(?is)CREATE\s+(?:OR\s+REPLACE\s+)?FUNCTION\s+([a-zA-Z0-9_."]+)`)
	reCreateView      = regexp.MustCompile(`(?is)CREATE\s+(?:OR\s+REPLACE\s+)?(?:MATERIALIZED\s+)?VIEW\s+([a-zA-Z0-9_."]+)`)
	reCreateSchema    = regexp.MustCompile(`(?is)CREATE\s+SCHEMA\s+(?:IF\s+NOT\s+EXISTS\s+)?([a-zA-Z0-9_."]+)`)
	reCreateTrigger   = regexp.MustCompile(`(?is)CREATE\s+(?:CONSTRAINT\s+)?TRIGGER\s+[a-zA-Z0-9_."]+.*?\bON\s+([a-zA-Z0-9_."]+)`)
	reCreatePolicy    = regexp.MustCompile(`(?is)CREATE\s+POLICY\s+[a-zA-Z0-9_."]+\s+ON\s+([a-zA-Z0-9_."]+)`)
	reAlterTable      = regexp.MustCompile(`(?is)ALTER\s+TABLE\s+(?:ONLY\s+)?(?:IF\s+EXISTS\s+)?([a-zA-Z0-9_."]+)`)
	reAlterSequence   = regexp.MustCompile(`(?is)ALTER\s+SEQUENCE\s+(?:IF\s+EXISTS\s+)?([a-zA-Z0-9_."]+)`)
	reGrantOnTable    = regexp.MustCompile(`(?is)\bON\s+(?:TABLE\s+)?([a-zA-Z0-9_."]+)\s+(?:TO|FROM)\b`)
)

// classRefs is what class-specific extraction contributes before
// annotation hints are merged in.
type classRefs struct {
	Provides []string
	Requires []string
}

// extractRefs derives the provides/requires this statement carries from
// its class and text alone (annotations are merged in separately by the
// caller, and builtin-filtered there too).
func extractRefs(class StatementClass, text string) classRefs {
	var out classRefs
	switch class {
	case ClassCreateTable:
		if m := reCreateTable.FindStringSubmatch(text); m != nil {
			out.Provides = append(out.Provides, "table:"+m[1])
		}
	case ClassCreateIndex:
		if m := reCreateIndexOn.FindStringSubmatch(text); m != nil {
			out.Requires = append(out.Requires, "table:"+m[1])
		}
	case ClassCreateFunction:
		if m := reCreateFunction.FindStringSubmatch(text); m != nil {
			out.Provides = append(out.Provides, "function:"+m[1])
		}
	case ClassCreateView:
		if m := reCreateView.FindStringSubmatch(text); m != nil {
			out.Provides = append(out.Provides, "view:"+m[1])
		}
	case ClassCreateSchema:
		if m := reCreateSchema.FindStringSubmatch(text); m != nil {
			out.Provides = append(out.Provides, "schema:"+m[1])
		}
	case ClassCreateTrigger:
		if m := reCreateTrigger.FindStringSubmatch(text); m != nil {
			out.Requires = append(out.Requires, "table:"+m[1])
		}
	case ClassCreatePolicy:
		if m := reCreatePolicy.FindStringSubmatch(text); m != nil {
			out.Requires = append(out.Requires, "table:"+m[1])
		}
	case ClassAlterTable:
		if m := reAlterTable.FindStringSubmatch(text); m != nil {
			out.Requires = append(out.Requires, "table:"+m[1])
		}
	case ClassAlterSequence:
		if m := reAlterSequence.FindStringSubmatch(text); m != nil {
			out.Requires = append(out.Requires, "sequence:"+m[1])
		}
	case ClassGrant, ClassRevoke, ClassComment:
		if m := reGrantOnTable.FindStringSubmatch(text); m != nil {
			out.Requires = append(out.Requires, "table:"+m[1])
		}
	}

	// A statement that creates or touches a schema-qualified object leans
	// on the schema itself; builtin schemas are filtered out by the caller.
	for _, id := range out.Provides {
		if s, ok := schemaOf(id); ok {
			out.Requires = append(out.Requires, "schema:"+s)
		}
	}
	for _, id := range append([]string(nil), out.Requires...) {
		if s, ok := schemaOf(id); ok {
			out.Requires = append(out.Requires, "schema:"+s)
		}
	}
	return out
}

// schemaOf extracts the schema qualifier from a non-schema ref like
// "table:app.users"; returns false for unqualified or schema refs.
func schemaOf(id string) (string, bool) {
	colon := -1
	for i := 0; i < len(id); i++ {
		if id[i] == ':' {
			colon = i
			break
		}
	}
	if colon == -1 || id[:colon] == "schema" {
		return "", false
	}
	rest := id[colon+1:]
	for i := 0; i < len(rest); i++ {
		if rest[i] == '.' {
			return rest[:i], true
		}
	}
	return "", false
}
