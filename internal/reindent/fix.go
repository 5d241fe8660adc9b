package reindent

import (
	"fmt"
	"strings"
)

// FixIndent rewrites the leading whitespace of every line inside the macro
// blocks of buf. Each block keeps the indentation of its first line; nested
// lines follow the brace shape of the lines above them.
//
// If a block's first line carries more than one leading tab, FixIndent
// returns an error wrapping ErrTooManyTabs and buf is left unchanged.
func (d Dialect) FixIndent(buf LineBuffer) error {
	spans := d.FindSpans(buf)
	base := make([]int, len(spans))
	for i, span := range spans {
		n, err := IndentWidth(buf[span.Start])
		if err != nil {
			return fmt.Errorf("line %d: %w", span.Start+1, err)
		}
		base[i] = n
	}
	for i, span := range spans {
		d.fixSpan(buf, span, base[i])
	}
	return nil
}

func (d Dialect) fixSpan(buf LineBuffer, span Span, indent int) {
	for i := span.Start; i <= span.End; i++ {
		line := strings.TrimLeft(buf[i], " \t")
		switch {
		case d.Balance(line) == Opening:
			buf[i] = strings.Repeat(" ", indent) + line
			indent += d.IndentWidth
		case strings.HasPrefix(line, string(d.Close)):
			indent -= d.IndentWidth
			if indent < 0 {
				indent = 0
			}
			buf[i] = strings.Repeat(" ", indent) + line
		default:
			buf[i] = strings.Repeat(" ", indent) + line
		}
	}
}

// FormatText splits text on newlines, fixes its macro blocks and joins the
// result back. Line terminators and a trailing newline are preserved.
func (d Dialect) FormatText(text string) (string, error) {
	buf := LineBuffer(strings.Split(text, "\n"))
	if err := d.FixIndent(buf); err != nil {
		return "", err
	}
	return strings.Join(buf, "\n"), nil
}
