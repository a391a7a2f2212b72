package analyzer

import "strings"

// statementSpan is one top-level statement's byte range within its input,
// including any leading comment lines (so annotation parsing later sees
// them) and excluding the trailing semicolon.
type statementSpan struct {
	Text  string
	Start int
	End   int
}

// splitStatements splits sql at top-level semicolons. The scanner is
// quote-, dollar-quote-, line-comment-, block-comment-, and
// paren-depth-aware: a semicolon inside a string literal, a quoted
// identifier, a dollar-quoted body, a comment, or while paren depth is
// nonzero never ends a statement (spec.md §4.6 step 1).
func splitStatements(sql string) []statementSpan {
	var spans []statementSpan
	var parenDepth int
	start := 0
	n := len(sql)

	i := 0
	for i < n {
		c := sql[i]
		switch {
		case c == '-' && i+1 < n && sql[i+1] == '-':
			i = skipLineComment(sql, i)
			continue
		case c == '/' && i+1 < n && sql[i+1] == '*':
			i = skipBlockComment(sql, i)
			continue
		case c == '\'':
			i = skipSingleQuoted(sql, i)
			continue
		case c == '"':
			i = skipDoubleQuoted(sql, i)
			continue
		case c == '$':
			if tag, ok := dollarTagAt(sql, i); ok {
				i = skipDollarQuoted(sql, i, tag)
				continue
			}
		case c == '(':
			parenDepth++
		case c == ')':
			if parenDepth > 0 {
				parenDepth--
			}
		case c == ';' && parenDepth == 0:
			spans = append(spans, makeSpan(sql, start, i))
			start = i + 1
		}
		i++
	}

	if strings.TrimSpace(sql[start:]) != "" {
		spans = append(spans, makeSpan(sql, start, n))
	}
	return spans
}

func makeSpan(sql string, start, end int) statementSpan {
	return statementSpan{Text: sql[start:end], Start: start, End: end}
}

func skipLineComment(sql string, i int) int {
	for i < len(sql) && sql[i] != '\n' {
		i++
	}
	return i
}

func skipBlockComment(sql string, i int) int {
	i += 2
	for i+1 < len(sql) {
		if sql[i] == '*' && sql[i+1] == '/' {
			return i + 2
		}
		i++
	}
	return len(sql)
}

func skipSingleQuoted(sql string, i int) int {
	i++
	for i < len(sql) {
		if sql[i] == '\'' {
			if i+1 < len(sql) && sql[i+1] == '\'' {
				i += 2
				continue
			}
			return i + 1
		}
		i++
	}
	return len(sql)
}

func skipDoubleQuoted(sql string, i int) int {
	i++
	for i < len(sql) {
		if sql[i] == '"' {
			if i+1 < len(sql) && sql[i+1] == '"' {
				i += 2
				continue
			}
			return i + 1
		}
		i++
	}
	return len(sql)
}

// dollarTagAt reports whether sql[i:] begins a dollar-quote opener
// ($tag$) and returns the full opener (including both $ signs).
func dollarTagAt(sql string, i int) (string, bool) {
	j := i + 1
	for j < len(sql) && (isAlnum(sql[j]) || sql[j] == '_') {
		j++
	}
	if j < len(sql) && sql[j] == '$' {
		return sql[i : j+1], true
	}
	return "", false
}

func isAlnum(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func skipDollarQuoted(sql string, i int, tag string) int {
	i += len(tag)
	end := strings.Index(sql[i:], tag)
	if end == -1 {
		return len(sql)
	}
	return i + end + len(tag)
}
