package reindent

import (
	"errors"
	"fmt"
)

const maxIndentWidth = 16

// Dialect describes the surface syntax of one embedded markup language.
type Dialect struct {
	// Token marks the line that starts a macro block, e.g. "html!".
	Token string
	Open  rune
	Close rune
	// IndentWidth is the number of spaces per nesting level.
	IndentWidth int
	// CommentPrefix marks lines ignored while locating blocks.
	CommentPrefix string
}

// DefaultDialect returns the html! dialect with four-space indentation.
func DefaultDialect() Dialect {
	return Dialect{
		Token:         "html!",
		Open:          '{',
		Close:         '}',
		IndentWidth:   4,
		CommentPrefix: "//",
	}
}

func (d Dialect) Validate() error {
	if d.Token == "" {
		return errors.New("macro token must not be empty")
	}
	if d.Open == d.Close {
		return fmt.Errorf("open and close braces must differ, both are %q", d.Open)
	}
	if d.Open == quote || d.Close == quote {
		return fmt.Errorf("braces must not be the quote character %q", quote)
	}
	if d.IndentWidth <= 0 || d.IndentWidth > maxIndentWidth {
		return fmt.Errorf("indent width must be in [1, %d], got %d", maxIndentWidth, d.IndentWidth)
	}
	if d.CommentPrefix == "" {
		return errors.New("comment prefix must not be empty")
	}
	return nil
}
