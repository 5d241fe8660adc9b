package lsp

import (
	"strings"

	"github.com/r9s-ai/macrofmt/internal/reindent"
)

const (
	severityError       = 1
	severityWarning     = 2
	severityInformation = 3

	diagnosticSource = "macrofmt"
)

// collectDiagnostics reports macro blocks the formatter cannot or will not
// touch: blocks that never close, tokens that restart an open block, and
// block openers whose leading tabs make the indentation unknowable.
func collectDiagnostics(d reindent.Dialect, text string) []Diagnostic {
	lines := strings.Split(text, "\n")
	rep := d.Scan(reindent.LineBuffer(lines))

	diags := make([]Diagnostic, 0, len(rep.Unterminated)+len(rep.Reentrant))
	for _, line := range rep.Unterminated {
		diags = append(diags, tokenDiagnostic(d, lines, line, severityWarning,
			"macro block is never closed; it will not be re-indented"))
	}
	for _, line := range rep.Reentrant {
		diags = append(diags, tokenDiagnostic(d, lines, line, severityInformation,
			"macro token inside an open block restarts the block here"))
	}
	for _, span := range rep.Spans {
		if _, err := reindent.IndentWidth(lines[span.Start]); err != nil {
			diags = append(diags, Diagnostic{
				Range: Range{
					Start: Position{Line: span.Start, Character: 0},
					End:   Position{Line: span.Start, Character: leadingWhitespace(lines[span.Start])},
				},
				Severity: severityError,
				Source:   diagnosticSource,
				Message:  "macro block opener has " + err.Error() + "; use at most one tab before spaces",
			})
		}
	}
	return diags
}

func tokenDiagnostic(d reindent.Dialect, lines []string, line, severity int, msg string) Diagnostic {
	start := strings.Index(lines[line], d.Token)
	if start < 0 {
		start = 0
	}
	return Diagnostic{
		Range: Range{
			Start: Position{Line: line, Character: start},
			End:   Position{Line: line, Character: start + len(d.Token)},
		},
		Severity: severity,
		Source:   diagnosticSource,
		Message:  msg,
	}
}

func leadingWhitespace(line string) int {
	return len(line) - len(strings.TrimLeft(line, " \t"))
}
