package cli

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/r9s-ai/macrofmt/internal/reindent"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nopServe(opts ServeRuntimeOptions) error { return nil }

func TestRootCmdHasSubcommands(t *testing.T) {
	t.Parallel()

	opts := normalizeOptions(Options{ServeRunner: nopServe})
	root := newRootCmd(opts)

	for _, name := range []string{"serve", "format", "check", "spans", "version"} {
		if _, _, err := root.Find([]string{name}); err != nil {
			t.Fatalf("find %s subcommand: %v", name, err)
		}
	}
}

func TestRunDefaultsToServe(t *testing.T) {
	t.Parallel()

	var got ServeRuntimeOptions
	called := false
	err := Run([]string{"--indent", "2"}, Options{
		Stdin:  strings.NewReader(""),
		Stdout: &bytes.Buffer{},
		Stderr: &bytes.Buffer{},
		ServeRunner: func(opts ServeRuntimeOptions) error {
			called = true
			got = opts
			return nil
		},
	})
	require.NoError(t, err)
	require.True(t, called, "expected default serve runner to be called")
	assert.Equal(t, 2, got.Dialect.IndentWidth)
	assert.NotNil(t, got.Logger)
}

func TestServePassesDialectFromFlags(t *testing.T) {
	t.Parallel()

	var got reindent.Dialect
	err := Run([]string{"serve", "--token", "view!", "--open", "[", "--close", "]"}, Options{
		Stdin:  strings.NewReader(""),
		Stdout: &bytes.Buffer{},
		Stderr: &bytes.Buffer{},
		ServeRunner: func(opts ServeRuntimeOptions) error {
			got = opts.Dialect
			return nil
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "view!", got.Token)
	assert.Equal(t, '[', got.Open)
	assert.Equal(t, ']', got.Close)
}

func TestServeRunnerErrorPropagates(t *testing.T) {
	t.Parallel()

	err := Run([]string{"serve"}, Options{
		Stdin:  strings.NewReader(""),
		Stdout: &bytes.Buffer{},
		Stderr: &bytes.Buffer{},
		ServeRunner: func(opts ServeRuntimeOptions) error {
			return errors.New("boom")
		},
	})
	assert.EqualError(t, err, "boom")
}

func TestInvalidDialectFlags(t *testing.T) {
	t.Parallel()

	err := Run([]string{"format", "--open", "{{"}, Options{
		Stdin:       strings.NewReader(""),
		Stdout:      &bytes.Buffer{},
		Stderr:      &bytes.Buffer{},
		ServeRunner: nopServe,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "single character")
}

func TestInvalidLogLevel(t *testing.T) {
	t.Parallel()

	err := Run([]string{"format", "--log-level", "loud"}, Options{
		Stdin:       strings.NewReader(""),
		Stdout:      &bytes.Buffer{},
		Stderr:      &bytes.Buffer{},
		ServeRunner: nopServe,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
}

func TestConfigFileFlag(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "dialect.conf")
	require.NoError(t, os.WriteFile(path, []byte("token MACRO\nindent 2\n"), 0o600))

	var out bytes.Buffer
	err := Run([]string{"format", "--config", path}, Options{
		Stdin:       strings.NewReader("MACRO {\nx\n}\n"),
		Stdout:      &out,
		Stderr:      &bytes.Buffer{},
		ServeRunner: nopServe,
	})
	require.NoError(t, err)
	assert.Equal(t, "MACRO {\n  x\n}\n", out.String())
}

func TestVersionCommandOutput(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	err := Run([]string{"version"}, Options{
		Stdin:  strings.NewReader(""),
		Stdout: &out,
		Stderr: &bytes.Buffer{},
		BuildInfo: BuildInfo{
			Version:   "1.2.3",
			Commit:    "abc123",
			BuildDate: "2026-02-26T11:11:11Z\n",
		},
		ServeRunner: nopServe,
	})
	require.NoError(t, err)
	got := out.String()
	if !strings.Contains(got, "macrofmt version=1.2.3 commit=abc123 build_date=2026-02-26T11:11:11Z") {
		t.Fatalf("unexpected version output: %q", got)
	}
}

func TestVersionFlagsRemoved(t *testing.T) {
	t.Parallel()

	opts := Options{
		Stdin:  strings.NewReader(""),
		Stdout: &bytes.Buffer{},
		Stderr: &bytes.Buffer{},
		ServeRunner: func(opts ServeRuntimeOptions) error {
			return errors.New("should not run")
		},
	}

	err := Run([]string{"--version"}, opts)
	if err == nil || !strings.Contains(err.Error(), "--version") {
		t.Fatalf("expected --version error, got: %v", err)
	}
}
