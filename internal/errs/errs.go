package errs

import (
	"fmt"

	"go.uber.org/multierr"
)

// Capture runs errF and merges its error, if any, into *err. A non-empty msg
// wraps the errF error. An existing *err is kept alongside the new error.
func Capture(err *error, errF func() error, msg string) {
	fErr := errF()
	if fErr == nil {
		return
	}
	if msg != "" {
		fErr = fmt.Errorf(msg+": %w", fErr)
	}
	if *err == nil {
		*err = fErr
		return
	}
	multierr.AppendInto(err, fErr)
}
