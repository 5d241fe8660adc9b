package reindent

const quote = '"'

// Balance classifies the brace count of a single line.
type Balance int

const (
	Neutral Balance = iota
	Opening
	Closing
)

func (b Balance) String() string {
	switch b {
	case Opening:
		return "opening"
	case Closing:
		return "closing"
	default:
		return "neutral"
	}
}

// Balance counts open and close braces on line, skipping those between
// double quotes. Escaped quotes are not recognized: every quote toggles the
// string state.
func (d Dialect) Balance(line string) Balance {
	opens, closes := 0, 0
	inString := false
	for _, r := range line {
		switch {
		case r == quote:
			inString = !inString
		case inString:
		case r == d.Open:
			opens++
		case r == d.Close:
			closes++
		}
	}
	switch {
	case opens > closes:
		return Opening
	case closes > opens:
		return Closing
	default:
		return Neutral
	}
}
