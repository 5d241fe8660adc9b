package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/r9s-ai/macrofmt/internal/reindent"
	"github.com/spf13/cobra"
)

func newSpansCmd(opts Options, g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "spans [file|-]",
		Short: "Print the line ranges of macro blocks",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) > 1 {
				return errors.New("spans accepts at most one file path")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "-"
			if len(args) == 1 && strings.TrimSpace(args[0]) != "" {
				path = strings.TrimSpace(args[0])
			}
			src, err := readFormatSource(path, opts.Stdin)
			if err != nil {
				return err
			}
			rep := g.dialect.Scan(reindent.LineBuffer(strings.Split(string(src), "\n")))
			return writeReport(opts.Stdout, rep)
		},
	}
}

// writeReport prints one line per finding with 1-based line numbers.
func writeReport(w io.Writer, rep reindent.Report) error {
	var b strings.Builder
	for _, s := range rep.Spans {
		fmt.Fprintf(&b, "span %d-%d\n", s.Start+1, s.End+1)
	}
	for _, line := range rep.Unterminated {
		fmt.Fprintf(&b, "unterminated %d\n", line+1)
	}
	for _, line := range rep.Reentrant {
		fmt.Fprintf(&b, "reentrant %d\n", line+1)
	}
	_, err := io.WriteString(w, b.String())
	return err
}
