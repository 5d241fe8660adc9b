package lsp

import (
	"strings"

	"github.com/r9s-ai/macrofmt/internal/reindent"
)

const (
	semanticTypeMacro = iota
	semanticTypeString
	semanticTypeOperator
	semanticTypeComment
)

var semanticTokenLegendTypes = []string{
	"macro",
	"string",
	"operator",
	"comment",
}

type semanticTokensLegend struct {
	TokenTypes     []string `json:"tokenTypes"`
	TokenModifiers []string `json:"tokenModifiers"`
}

type semanticTokensOptions struct {
	Legend semanticTokensLegend `json:"legend"`
	Full   bool                 `json:"full"`
}

type semanticTokens struct {
	Data []uint32 `json:"data"`
}

type semanticTokensParams struct {
	TextDocument textDocumentIdentifier `json:"textDocument"`
}

type semanticSpan struct {
	line   int
	start  int
	length int
	typ    int
}

func semanticTokensFull(d reindent.Dialect, text string) semanticTokens {
	data := encodeSemanticSpans(classifySemanticSpans(d, text))
	if data == nil {
		data = []uint32{}
	}
	return semanticTokens{Data: data}
}

// classifySemanticSpans marks macro tokens anywhere in the document and the
// strings, braces and skipped comment lines inside macro blocks. Spans are
// returned in document order as the encoding requires.
func classifySemanticSpans(d reindent.Dialect, text string) []semanticSpan {
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	blocks := d.FindSpans(reindent.LineBuffer(lines))

	var out []semanticSpan
	next := 0
	for i, line := range lines {
		for next < len(blocks) && blocks[next].End < i {
			next++
		}
		inBlock := next < len(blocks) && blocks[next].Contains(i)

		if d.IsComment(line) {
			if inBlock {
				start := leadingWhitespace(line)
				out = append(out, semanticSpan{line: i, start: start, length: len(line) - start, typ: semanticTypeComment})
			}
			continue
		}
		if !inBlock {
			out = append(out, tokenSpans(d, line, i, 0, len(line))...)
			continue
		}
		out = append(out, classifyBlockLine(d, line, i)...)
	}
	return out
}

// classifyBlockLine splits a block line into string literals, braces and the
// macro tokens found between them. Quotes toggle string state the same way
// brace balancing does.
func classifyBlockLine(d reindent.Dialect, line string, lineNo int) []semanticSpan {
	var out []semanticSpan
	plainStart := 0
	strStart := -1
	for i, r := range line {
		switch {
		case r == '"':
			if strStart < 0 {
				out = append(out, tokenSpans(d, line, lineNo, plainStart, i)...)
				strStart = i
				continue
			}
			out = append(out, semanticSpan{line: lineNo, start: strStart, length: i + 1 - strStart, typ: semanticTypeString})
			strStart = -1
			plainStart = i + 1
		case strStart >= 0:
		case r == d.Open || r == d.Close:
			out = append(out, tokenSpans(d, line, lineNo, plainStart, i)...)
			size := len(string(r))
			out = append(out, semanticSpan{line: lineNo, start: i, length: size, typ: semanticTypeOperator})
			plainStart = i + size
		}
	}
	if strStart >= 0 {
		out = append(out, semanticSpan{line: lineNo, start: strStart, length: len(line) - strStart, typ: semanticTypeString})
		return out
	}
	return append(out, tokenSpans(d, line, lineNo, plainStart, len(line))...)
}

// tokenSpans finds macro tokens in line[from:to].
func tokenSpans(d reindent.Dialect, line string, lineNo, from, to int) []semanticSpan {
	var out []semanticSpan
	for from < to {
		idx := strings.Index(line[from:to], d.Token)
		if idx < 0 {
			break
		}
		start := from + idx
		out = append(out, semanticSpan{line: lineNo, start: start, length: len(d.Token), typ: semanticTypeMacro})
		from = start + len(d.Token)
	}
	return out
}

func encodeSemanticSpans(spans []semanticSpan) []uint32 {
	if len(spans) == 0 {
		return nil
	}
	data := make([]uint32, 0, len(spans)*5)
	prevLine := 0
	prevStart := 0
	for i, s := range spans {
		lineDelta := s.line
		startDelta := s.start
		if i > 0 {
			lineDelta = s.line - prevLine
			if lineDelta == 0 {
				startDelta = s.start - prevStart
			}
		}
		data = append(data, uint32(lineDelta), uint32(startDelta), uint32(s.length), uint32(s.typ), 0)
		prevLine = s.line
		prevStart = s.start
	}
	return data
}
