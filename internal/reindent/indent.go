package reindent

import (
	"errors"
	"fmt"
)

// ErrTooManyTabs reports a line led by more than one tab. At most one tab of
// ambient indentation may precede the space indentation this package writes.
var ErrTooManyTabs = errors.New("more than one leading tab")

// IndentWidth returns the number of leading spaces of line. Leading tabs are
// tolerated only once.
func IndentWidth(line string) (int, error) {
	tabs, spaces := 0, 0
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case '\t':
			tabs++
			continue
		case ' ':
			spaces++
			continue
		}
		break
	}
	if tabs > 1 {
		return 0, fmt.Errorf("%w: found %d", ErrTooManyTabs, tabs)
	}
	return spaces, nil
}
