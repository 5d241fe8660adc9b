package difftest

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// AssertSame reports a diff of want and got via t.Errorf. Nil and empty
// slices compare equal.
func AssertSame(t *testing.T, want, got interface{}, opts ...cmp.Option) {
	t.Helper()
	allOpts := append([]cmp.Option{
		cmpopts.EquateEmpty(),
	}, opts...)
	if diff := cmp.Diff(want, got, allOpts...); diff != "" {
		t.Errorf("mismatch (-want +got)\n%s", diff)
	}
}
