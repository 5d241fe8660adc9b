package cli

import (
	"io"
	"os"

	"github.com/r9s-ai/macrofmt/internal/config"
	"github.com/r9s-ai/macrofmt/internal/reindent"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type BuildInfo struct {
	Version   string
	Commit    string
	BuildDate string
}

type Options struct {
	Stdin       io.Reader
	Stdout      io.Writer
	Stderr      io.Writer
	BuildInfo   BuildInfo
	ServeRunner ServeRunner
}

// globalFlags holds the persistent flags shared by every subcommand. The
// dialect and logger are resolved once per invocation before a subcommand
// runs.
type globalFlags struct {
	configPath string
	logLevel   string
	token      string
	open       string
	close      string
	indent     int
	comment    string

	dialect reindent.Dialect
	logger  *zap.SugaredLogger
}

func Run(args []string, opts Options) error {
	resolved := normalizeOptions(opts)
	root := newRootCmd(resolved)
	root.SetArgs(args)
	return root.Execute()
}

func normalizeOptions(opts Options) Options {
	if opts.Stdin == nil {
		opts.Stdin = os.Stdin
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	if opts.ServeRunner == nil {
		opts.ServeRunner = defaultServeRunner
	}
	return opts
}

func newRootCmd(opts Options) *cobra.Command {
	g := &globalFlags{}
	cmd := &cobra.Command{
		Use:           "macrofmt",
		Short:         "Re-indent brace-delimited macro blocks",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return g.resolve(cmd, opts.Stderr)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if g.logger != nil {
				_ = g.logger.Sync()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServeWithOptions(opts, g)
		},
	}
	cmd.SetIn(opts.Stdin)
	cmd.SetOut(opts.Stdout)
	cmd.SetErr(opts.Stderr)

	pfs := cmd.PersistentFlags()
	pfs.StringVar(&g.configPath, "config", "", "dialect config file (default ./"+config.DefaultFile+" if present)")
	pfs.StringVar(&g.logLevel, "log-level", "info", "log level: debug, info, warn, error")
	pfs.StringVar(&g.token, "token", "", "macro invocation token")
	pfs.StringVar(&g.open, "open", "", "open brace character")
	pfs.StringVar(&g.close, "close", "", "close brace character")
	pfs.IntVar(&g.indent, "indent", 0, "spaces per nesting level")
	pfs.StringVar(&g.comment, "comment", "", "comment line prefix")

	cmd.AddCommand(
		newServeCmd(opts, g),
		newFormatCmd(opts, g),
		newCheckCmd(opts, g),
		newSpansCmd(opts, g),
		newVersionCmd(opts),
	)
	return cmd
}

func (g *globalFlags) resolve(cmd *cobra.Command, stderr io.Writer) error {
	logger, err := newLogger(stderr, g.logLevel)
	if err != nil {
		return err
	}
	g.logger = logger

	var o config.Overrides
	fs := cmd.Flags()
	if fs.Changed("token") {
		o.Token = &g.token
	}
	if fs.Changed("open") {
		o.Open = &g.open
	}
	if fs.Changed("close") {
		o.Close = &g.close
	}
	if fs.Changed("indent") {
		o.Indent = &g.indent
	}
	if fs.Changed("comment") {
		o.Comment = &g.comment
	}
	d, err := config.Load(g.configPath, o)
	if err != nil {
		return err
	}
	g.dialect = d
	g.logger.Debugw("dialect resolved",
		"token", d.Token,
		"open", string(d.Open),
		"close", string(d.Close),
		"indent", d.IndentWidth,
		"comment", d.CommentPrefix,
	)
	return nil
}
