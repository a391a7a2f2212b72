package diagnostic

import (
	"strings"
	"testing"
)

func TestErrorRecoveryParserValidSQL(t *testing.T) {
	collector := NewCollector("test.sql", "CREATE TABLE t (id int)")
	parser := NewErrorRecoveryParser(collector)

	result, err := parser.Parse("CREATE TABLE t (id int)")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if result == nil {
		t.Fatal("expected a parse result")
	}
	if collector.Count() != 0 {
		t.Errorf("valid SQL produced %d diagnostics", collector.Count())
	}
}

func TestErrorRecoveryParserReportsParseError(t *testing.T) {
	sql := "CREATE TABEL users (id int)"
	collector := NewCollector("test.sql", sql)
	parser := NewErrorRecoveryParser(collector)

	if _, err := parser.Parse(sql); err == nil {
		t.Fatal("expected a parse error")
	}

	errs := collector.Errors()
	if len(errs) != 1 {
		t.Fatalf("errors = %+v, want one", errs)
	}
	if errs[0].Code != CodeParseError {
		t.Errorf("code = %q, want %q", errs[0].Code, CodeParseError)
	}
	if errs[0].Range.Start.Offset != strings.Index(sql, "TABEL") {
		t.Errorf("error anchored at offset %d", errs[0].Range.Start.Offset)
	}

	hints := collector.Hints()
	if len(hints) != 1 || !strings.Contains(hints[0].Message, "TABLE") {
		t.Errorf("hints = %+v, want a TABLE typo suggestion", hints)
	}
}

func TestErrorRecoveryParserDollarQuoteHint(t *testing.T) {
	sql := "CREATE FUNCTION f() RETURNS int LANGUAGE sql AS $$ SELECT 1"
	collector := NewCollector("test.sql", sql)
	parser := NewErrorRecoveryParser(collector)

	if _, err := parser.Parse(sql); err == nil {
		t.Fatal("expected a parse error")
	}
	hints := collector.Hints()
	if len(hints) != 1 || !strings.Contains(hints[0].Message, "dollar-quoted") {
		t.Errorf("hints = %+v, want an unterminated dollar-quote suggestion", hints)
	}
}

func TestErrorRecoveryParserMySQLBackticks(t *testing.T) {
	sql := "CREATE TABLE `users` (id int)"
	collector := NewCollector("test.sql", sql)
	parser := NewErrorRecoveryParser(collector)

	if _, err := parser.Parse(sql); err == nil {
		t.Fatal("expected a parse error")
	}
	hints := collector.Hints()
	if len(hints) != 1 || !strings.Contains(hints[0].Message, "Backticks") {
		t.Errorf("hints = %+v, want a backtick suggestion", hints)
	}
}

func TestCollectorAllSortsByOffset(t *testing.T) {
	content := "CREATE TABLE t (\n  id int\n)"
	collector := NewCollector("test.sql", content)
	collector.AddError(RangeFromOffsets(content, 19, 21), CodeParseError, "later")
	collector.AddError(RangeFromOffsets(content, 0, 6), CodeParseError, "earlier")

	all := collector.All()
	if all[0].Message != "earlier" || all[1].Message != "later" {
		t.Errorf("All() order = %q, %q", all[0].Message, all[1].Message)
	}
	// insertion order preserved in the collector itself
	if collector.Errors()[0].Message != "later" {
		t.Error("Errors() must keep insertion order")
	}
}
