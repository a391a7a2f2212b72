package diagnostic

import (
	"fmt"
	"regexp"
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v6"
)

// ErrorRecoveryParser turns pg_query's one-line parse failures into
// located diagnostics: a PARSE_ERROR anchored to the offending token,
// plus a hint diagnostic when the failure matches a recognizable mistake
// (keyword typo, MySQL-isms, missing comma/paren/semicolon, unterminated
// dollar quote).
//
// The statement analyzer hands it one already-split statement at a time;
// it never re-splits the input itself.
type ErrorRecoveryParser struct {
	collector *Collector
}

// NewErrorRecoveryParser creates a recovery parser reporting into collector.
func NewErrorRecoveryParser(collector *Collector) *ErrorRecoveryParser {
	return &ErrorRecoveryParser{collector: collector}
}

// Parse attempts a full pg_query parse. On failure the error is reported
// to the collector as a located PARSE_ERROR (plus any suggestion hint)
// and the original error is returned.
func (p *ErrorRecoveryParser) Parse(sql string) (*pg_query.ParseResult, error) {
	result, err := pg_query.Parse(sql)
	if err == nil {
		return result, nil
	}
	p.report(sql, err)
	return nil, err
}

var reAtOrNear = regexp.MustCompile(`at or near "([^"]+)"`)

func (p *ErrorRecoveryParser) report(sql string, err error) {
	msg := strings.TrimPrefix(err.Error(), "failed to parse SQL: ")

	token := ""
	if m := reAtOrNear.FindStringSubmatch(msg); m != nil {
		token = m[1]
	}
	pos := errorPosition(sql, msg, token)

	length := len(token)
	if length == 0 {
		length = 1
	}
	r := RangeFromOffsets(sql, pos.Offset, pos.Offset+length)
	p.collector.AddError(r, CodeParseError, msg)

	if hint := p.suggest(sql, msg, token, pos); hint != "" {
		p.collector.AddHint(r, CodeParseError, hint)
	}
}

// errorPosition locates the failure inside sql from the error message:
// the "at or near" token when present, end-of-input when the parser ran
// off the end, offset 0 otherwise.
func errorPosition(sql, msg, token string) Position {
	if token != "" {
		if offset := strings.Index(sql, token); offset >= 0 {
			return PositionFromOffset(sql, offset)
		}
	}
	if strings.Contains(msg, "at end of input") {
		return PositionFromOffset(sql, len(sql))
	}
	return PositionFromOffset(sql, 0)
}

// suggest runs the mistake matchers in order of specificity and returns
// the first suggestion, or "".
func (p *ErrorRecoveryParser) suggest(sql, msg, token string, pos Position) string {
	matchers := []func(string, string, string, Position) string{
		suggestDollarQuote,
		suggestMySQLSyntax,
		suggestKeywordTypo,
		suggestTrailingComma,
		suggestMissingComma,
		suggestMissingSemicolon,
		suggestMissingParenthesis,
		suggestIncompleteStatement,
	}
	for _, matcher := range matchers {
		if hint := matcher(sql, msg, token, pos); hint != "" {
			return hint
		}
	}
	return ""
}

var reDollarTag = regexp.MustCompile(`\$[a-zA-Z_]*\$`)

// suggestDollarQuote detects an unterminated dollar-quoted body, the
// classic failure mode of hand-edited function definitions.
func suggestDollarQuote(sql, msg, token string, pos Position) string {
	tags := reDollarTag.FindAllString(sql, -1)
	counts := map[string]int{}
	for _, tag := range tags {
		counts[tag]++
	}
	for tag, n := range counts {
		if n%2 != 0 {
			return fmt.Sprintf("Unterminated dollar-quoted string\n"+
				"  The body opened with %s is never closed\n"+
				"  Add a closing %s after the function body", tag, tag)
		}
	}
	return ""
}

// suggestMySQLSyntax detects MySQL constructs that Postgres rejects.
func suggestMySQLSyntax(sql, msg, token string, pos Position) string {
	if strings.Contains(sql, "`") {
		return "Backticks (`) are MySQL syntax, not supported in PostgreSQL\n" +
			"  For identifiers: use double quotes \"identifier\"\n" +
			"  For strings: use single quotes 'string'"
	}

	upper := strings.ToUpper(sql)
	if strings.Contains(upper, "AUTO_INCREMENT") || strings.Contains(upper, "AUTO INCREMENT") {
		return "AUTO_INCREMENT is MySQL syntax, not supported in PostgreSQL\n" +
			"  Use GENERATED ALWAYS AS IDENTITY (or BIGSERIAL)\n" +
			"  Example: id bigint GENERATED ALWAYS AS IDENTITY PRIMARY KEY"
	}
	if strings.Contains(upper, "ENGINE=") || strings.Contains(upper, "ENGINE =") {
		return "ENGINE= is MySQL syntax; PostgreSQL tables have no storage engine clause"
	}
	return ""
}

// keywordTypos maps common misspellings to the intended SQL keyword.
var keywordTypos = map[string]string{
	"TABEL":      "TABLE",
	"TALBE":      "TABLE",
	"PRIMAY":     "PRIMARY",
	"PRIMERY":    "PRIMARY",
	"FORIEGN":    "FOREIGN",
	"FOREGIN":    "FOREIGN",
	"REFERNCES":  "REFERENCES",
	"TIMESTAMPZ": "TIMESTAMPTZ",
	"NOTNULL":    "NOT NULL",
	"INTEGR":     "INTEGER",
	"DEFALT":     "DEFAULT",
	"UNQUE":      "UNIQUE",
	"UNIUQE":     "UNIQUE",
}

func suggestKeywordTypo(sql, msg, token string, pos Position) string {
	if suggestion, found := keywordTypos[strings.ToUpper(token)]; found {
		return fmt.Sprintf("Invalid SQL keyword '%s'\n  Did you mean '%s'?", token, suggestion)
	}
	return ""
}

var reColumnDef = regexp.MustCompile(`^\w+\s+\w+`)
var reIdentStart = regexp.MustCompile(`^\w+`)

// suggestMissingComma detects a column definition line that forgot the
// trailing comma before the next column.
func suggestMissingComma(sql, msg, token string, pos Position) string {
	lines := strings.Split(sql, "\n")
	if pos.Line <= 0 || pos.Line >= len(lines) {
		return ""
	}
	prevLine := strings.TrimSpace(lines[pos.Line-1])
	currentLine := strings.TrimSpace(lines[pos.Line])

	if reColumnDef.MatchString(prevLine) &&
		!strings.HasSuffix(prevLine, ",") &&
		!strings.HasSuffix(prevLine, "(") &&
		!strings.HasPrefix(prevLine, "--") &&
		reIdentStart.MatchString(currentLine) {
		return fmt.Sprintf("Missing comma between column definitions\n"+
			"  Previous line: %s\n"+
			"  Add a comma after it", prevLine)
	}
	return ""
}

// suggestTrailingComma detects a comma left before the closing paren of
// a column list.
func suggestTrailingComma(sql, msg, token string, pos Position) string {
	if token != ")" || !strings.Contains(msg, "syntax error") {
		return ""
	}
	for i := pos.Offset - 1; i >= 0; i-- {
		switch sql[i] {
		case ',':
			return "Trailing comma before closing parenthesis\n" +
				"  Remove the comma after the last column definition"
		case ' ', '\t', '\n', '\r':
			continue
		default:
			return ""
		}
	}
	return ""
}

var reParenThenCreate = regexp.MustCompile(`\)\s*\n\s*CREATE`)

// suggestMissingSemicolon detects two statements run together.
func suggestMissingSemicolon(sql, msg, token string, pos Position) string {
	if strings.ToUpper(token) == "CREATE" && strings.Contains(msg, "syntax error") &&
		reParenThenCreate.MatchString(sql) {
		return "Missing semicolon after previous statement\n" +
			"  Add ';' after the closing parenthesis of the previous statement"
	}
	return ""
}

// suggestMissingParenthesis detects an unbalanced column list.
func suggestMissingParenthesis(sql, msg, token string, pos Position) string {
	if token == ";" {
		openCount := strings.Count(sql[:pos.Offset], "(")
		closeCount := strings.Count(sql[:pos.Offset], ")")
		if openCount > closeCount {
			return fmt.Sprintf("Missing closing parenthesis\n"+
				"  Found %d opening and %d closing parentheses before ';'", openCount, closeCount)
		}
	}
	return ""
}

// suggestIncompleteStatement covers truncated statements (parse fails at
// end of input).
func suggestIncompleteStatement(sql, msg, token string, pos Position) string {
	if !strings.Contains(msg, "at end of input") {
		return ""
	}
	upper := strings.ToUpper(sql)

	if strings.Contains(upper, "CREATE INDEX") && !strings.Contains(upper, " ON ") {
		return "Incomplete CREATE INDEX statement\n" +
			"  Expected: CREATE INDEX index_name ON table_name (column_name)"
	}
	if strings.Contains(upper, "REFERENCES") {
		return "Incomplete foreign key constraint\n" +
			"  Expected: REFERENCES table_name (column_name)"
	}
	if strings.Contains(upper, "CREATE TABLE") &&
		strings.Count(sql, "(") > strings.Count(sql, ")") {
		return "Incomplete CREATE TABLE statement\n" +
			"  Add ')' after the last column definition"
	}
	return ""
}
