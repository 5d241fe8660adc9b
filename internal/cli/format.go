package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/r9s-ai/macrofmt/internal/errs"
	"github.com/r9s-ai/macrofmt/internal/reindent"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const stdinName = "<stdin>"

type formatOptions struct {
	write   bool
	list    bool
	include []string
}

func newFormatCmd(opts Options, g *globalFlags) *cobra.Command {
	formatOpts := formatOptions{}
	cmd := &cobra.Command{
		Use:   "format [path...|-]",
		Short: "Re-indent macro blocks in files, directories or stdin",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := runFormat(opts, g, args, formatOpts)
			return err
		},
	}

	fs := cmd.Flags()
	fs.BoolVarP(&formatOpts.write, "write", "w", false, "write result back to file")
	fs.BoolVarP(&formatOpts.list, "list", "l", false, "list files whose formatting differs")
	fs.StringSliceVar(&formatOpts.include, "include", []string{defaultInclude}, "glob of files to format when walking directories")
	return cmd
}

func newCheckCmd(opts Options, g *globalFlags) *cobra.Command {
	include := []string{defaultInclude}
	cmd := &cobra.Command{
		Use:   "check [path...|-]",
		Short: "List files with misaligned macro blocks and fail if any",
		RunE: func(cmd *cobra.Command, args []string) error {
			changed, err := runFormat(opts, g, args, formatOptions{list: true, include: include})
			if err != nil {
				return err
			}
			if changed > 0 {
				return fmt.Errorf("%d file(s) need formatting", changed)
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&include, "include", include, "glob of files to check when walking directories")
	return cmd
}

// runFormat formats every input and reports how many differ from their
// formatted form. A failing file does not stop the others; all failures are
// returned together.
func runFormat(opts Options, g *globalFlags, args []string, fo formatOptions) (int, error) {
	f := formatter{dialect: g.dialect, logger: g.logger}

	if isStdinArgs(args) {
		if fo.write {
			return 0, errors.New("--write requires a file path")
		}
		src, err := readFormatSource("-", opts.Stdin)
		if err != nil {
			return 0, err
		}
		out, err := f.format(stdinName, src)
		if err != nil {
			return 0, err
		}
		changed := out != string(src)
		if fo.list {
			if changed {
				_, err = fmt.Fprintln(opts.Stdout, stdinName)
			}
		} else {
			_, err = io.WriteString(opts.Stdout, out)
		}
		return boolToInt(changed), err
	}

	files, err := collectFiles(args, fo.include)
	if err != nil {
		return 0, err
	}
	if len(files) == 0 {
		g.logger.Warnw("no files matched", "paths", args, "include", fo.include)
		return 0, nil
	}
	if len(files) > 1 && !fo.write && !fo.list {
		return 0, errors.New("formatting multiple files requires --write or --list")
	}

	var (
		changed int
		mErr    error
	)
	for _, path := range files {
		src, err := readFormatSource(path, opts.Stdin)
		if err != nil {
			mErr = multierr.Append(mErr, err)
			continue
		}
		out, err := f.format(path, src)
		if err != nil {
			mErr = multierr.Append(mErr, err)
			continue
		}
		if out != string(src) {
			changed++
			if fo.list {
				if _, err := fmt.Fprintln(opts.Stdout, path); err != nil {
					return changed, multierr.Append(mErr, err)
				}
			}
		}
		switch {
		case fo.write:
			if err := writeFormattedOutput(path, src, out); err != nil {
				mErr = multierr.Append(mErr, err)
				continue
			}
			if out != string(src) {
				g.logger.Infow("formatted", "file", path)
			}
		case !fo.list:
			if _, err := io.WriteString(opts.Stdout, out); err != nil {
				return changed, multierr.Append(mErr, err)
			}
		}
	}
	return changed, mErr
}

type formatter struct {
	dialect reindent.Dialect
	logger  *zap.SugaredLogger
}

func (f formatter) format(name string, src []byte) (string, error) {
	text := string(src)
	rep := f.dialect.Scan(reindent.LineBuffer(strings.Split(text, "\n")))
	for _, line := range rep.Unterminated {
		f.logger.Warnw("macro block is never closed, left unchanged", "file", name, "line", line+1)
	}
	for _, line := range rep.Reentrant {
		f.logger.Warnw("macro token inside an open block restarts it", "file", name, "line", line+1)
	}
	f.logger.Debugw("macro blocks found", "file", name, "count", len(rep.Spans))

	out, err := f.dialect.FormatText(text)
	if err != nil {
		return "", fmt.Errorf("format %s: %w", name, err)
	}
	return out, nil
}

func isStdinArgs(args []string) bool {
	if len(args) == 0 {
		return true
	}
	return len(args) == 1 && strings.TrimSpace(args[0]) == "-"
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func readFormatSource(path string, in io.Reader) ([]byte, error) {
	if path == "-" {
		src, err := io.ReadAll(in)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return src, nil
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file %q: %w", path, err)
	}
	return src, nil
}

// writeFormattedOutput replaces path with formatted through a temporary file
// in the same directory. The original permission bits are kept.
func writeFormattedOutput(path string, src []byte, formatted string) (mErr error) {
	if formatted == string(src) {
		return nil
	}
	mode := os.FileMode(0o644)
	if st, statErr := os.Stat(path); statErr == nil {
		mode = st.Mode().Perm()
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".macrofmt-*")
	if err != nil {
		return fmt.Errorf("write file %q: %w", path, err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if mErr != nil {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := io.WriteString(tmp, formatted); err != nil {
		errs.Capture(&err, tmp.Close, "close temp file")
		return fmt.Errorf("write file %q: %w", path, err)
	}
	if err := tmp.Chmod(mode); err != nil {
		errs.Capture(&err, tmp.Close, "close temp file")
		return fmt.Errorf("chmod %q: %w", tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %q: %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("write file %q: %w", path, err)
	}
	return nil
}
