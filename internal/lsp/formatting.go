package lsp

import "github.com/r9s-ai/macrofmt/internal/reindent"

// formatEdits returns a single edit replacing the whole document, or no
// edits when the document is already formatted.
func formatEdits(d reindent.Dialect, text string) ([]TextEdit, error) {
	formatted, err := d.FormatText(text)
	if err != nil {
		return nil, err
	}
	if formatted == text {
		return []TextEdit{}, nil
	}
	return []TextEdit{{
		Range: Range{
			Start: Position{Line: 0, Character: 0},
			End:   endPosition(text),
		},
		NewText: formatted,
	}}, nil
}

func endPosition(text string) Position {
	line := 0
	col := 0
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			line++
			col = 0
			continue
		}
		col++
	}
	return Position{Line: line, Character: col}
}
