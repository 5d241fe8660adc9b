package lsp

import (
	"fmt"
	"strings"

	"github.com/r9s-ai/macrofmt/internal/reindent"
)

// hoverAt describes the macro block enclosing pos, if any.
func hoverAt(d reindent.Dialect, text string, pos Position) *Hover {
	if text == "" || pos.Line < 0 {
		return nil
	}
	lines := strings.Split(text, "\n")
	for _, span := range d.FindSpans(reindent.LineBuffer(lines)) {
		if !span.Contains(pos.Line) {
			continue
		}
		line := strings.TrimLeft(lines[pos.Line], " \t")
		value := fmt.Sprintf("`%s` block, lines %d-%d\n\nline shape: %s",
			d.Token, span.Start+1, span.End+1, d.Balance(line))
		return &Hover{
			Contents: MarkupContent{Kind: "markdown", Value: value},
			Range: &Range{
				Start: Position{Line: pos.Line, Character: 0},
				End:   Position{Line: pos.Line, Character: len(lines[pos.Line])},
			},
		}
	}
	return nil
}
