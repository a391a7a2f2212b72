package diagnostic

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

// Formatter renders a Diagnostic as a human-readable, optionally
// colorized report with source-line context, in the style cmd/ uses
// color.New(...) for CLI output elsewhere in this module.
type Formatter struct {
	ShowSource      bool
	ShowCodeContext bool
	Color           bool
}

// NewFormatter returns a Formatter with source and code-context display
// enabled and color following the terminal's own defaults.
func NewFormatter() *Formatter {
	return &Formatter{ShowSource: true, ShowCodeContext: true, Color: true}
}

// Format renders diag, given the file it came from and its full source
// content (used to render the offending line when ShowCodeContext is
// set).
func (f *Formatter) Format(diag Diagnostic, path, content string) string {
	var b strings.Builder

	sev := severityLabel(diag.Severity)
	sevColor := severityColor(diag.Severity)

	if f.Color {
		sevColor.Fprintf(&b, "%s", sev)
	} else {
		b.WriteString(sev)
	}
	b.WriteString(": ")
	b.WriteString(diag.Message)
	if diag.Code != "" {
		fmt.Fprintf(&b, " [%s]", diag.Code)
	}
	b.WriteString("\n")

	if f.ShowSource {
		fmt.Fprintf(&b, "  --> %s:%d:%d\n", path, diag.Range.Start.Line+1, diag.Range.Start.Character+1)
	}

	if f.ShowCodeContext {
		line := sourceLine(content, diag.Range.Start.Line)
		fmt.Fprintf(&b, "  → %3d: %s\n", diag.Range.Start.Line+1, line)
		width := diag.Range.End.Character - diag.Range.Start.Character
		if width < 1 {
			width = 1
		}
		b.WriteString("       ")
		b.WriteString(strings.Repeat(" ", diag.Range.Start.Character))
		b.WriteString(strings.Repeat("~", width))
		b.WriteString("\n")
	}

	return b.String()
}

func sourceLine(content string, line int) string {
	lines := strings.Split(content, "\n")
	if line < 0 || line >= len(lines) {
		return ""
	}
	return lines[line]
}

func severityLabel(s Severity) string {
	switch s {
	case SeverityError:
		return "ERROR"
	case SeverityWarning:
		return "WARNING"
	case SeverityInfo:
		return "INFO"
	default:
		return "HINT"
	}
}

func severityColor(s Severity) *color.Color {
	switch s {
	case SeverityError:
		return color.New(color.FgRed, color.Bold)
	case SeverityWarning:
		return color.New(color.FgYellow, color.Bold)
	case SeverityInfo:
		return color.New(color.FgCyan)
	default:
		return color.New(color.FgHiBlack)
	}
}
