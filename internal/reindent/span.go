package reindent

import "strings"

// LineBuffer is an ordered sequence of lines without line terminators.
type LineBuffer []string

// Span is an inclusive range of line indices holding one macro block.
type Span struct {
	Start int
	End   int
}

// Contains reports whether line index i falls inside s.
func (s Span) Contains(i int) bool {
	return i >= s.Start && i <= s.End
}

// Report is the result of scanning a buffer for macro blocks.
type Report struct {
	Spans []Span
	// Unterminated holds the start line of a block that was still open when
	// the buffer ended. Such blocks produce no span.
	Unterminated []int
	// Reentrant holds lines whose token replaced the start of a block that
	// had not closed yet.
	Reentrant []int
}

// FindSpans returns the macro blocks of buf in ascending order.
func (d Dialect) FindSpans(buf LineBuffer) []Span {
	return d.Scan(buf).Spans
}

// Scan locates macro blocks in buf. Brace tracking is by presence: a line
// containing an open brace counts +1, otherwise a line containing a close
// brace counts -1, regardless of how many braces it holds. A block ends on
// the line where the count returns to zero.
func (d Dialect) Scan(buf LineBuffer) Report {
	var (
		rep      Report
		brackets int
		inside   bool
		span     Span
	)
	for i, line := range buf {
		if d.IsComment(line) {
			continue
		}
		if strings.Contains(line, d.Token) {
			if inside {
				rep.Reentrant = append(rep.Reentrant, i)
			}
			inside = true
			span.Start = i
		}
		if !inside {
			continue
		}
		if strings.ContainsRune(line, d.Open) {
			brackets++
		} else if strings.ContainsRune(line, d.Close) {
			brackets--
		}
		if brackets == 0 {
			span.End = i
			if span.Start < span.End {
				rep.Spans = append(rep.Spans, span)
			}
			inside = false
		}
	}
	if inside {
		rep.Unterminated = append(rep.Unterminated, span.Start)
	}
	return rep
}

// IsComment reports whether line is skipped while locating blocks.
func (d Dialect) IsComment(line string) bool {
	return strings.HasPrefix(strings.TrimLeft(line, " \t"), d.CommentPrefix)
}
