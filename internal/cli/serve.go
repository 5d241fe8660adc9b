package cli

import (
	"fmt"
	"io"

	"github.com/r9s-ai/macrofmt/internal/lsp"
	"github.com/r9s-ai/macrofmt/internal/reindent"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type ServeRuntimeOptions struct {
	Stdin     io.Reader
	Stdout    io.Writer
	Stderr    io.Writer
	BuildInfo BuildInfo
	Dialect   reindent.Dialect
	Logger    *zap.SugaredLogger
}

type ServeRunner func(opts ServeRuntimeOptions) error

func newServeCmd(opts Options, g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the macro block language server over stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServeWithOptions(opts, g)
		},
	}
}

func runServeWithOptions(opts Options, g *globalFlags) error {
	return opts.ServeRunner(ServeRuntimeOptions{
		Stdin:     opts.Stdin,
		Stdout:    opts.Stdout,
		Stderr:    opts.Stderr,
		BuildInfo: opts.BuildInfo,
		Dialect:   g.dialect,
		Logger:    g.logger,
	})
}

func defaultServeRunner(opts ServeRuntimeOptions) error {
	srv := lsp.NewServer(opts.Stdin, opts.Stdout, opts.Logger.Named("lsp"), opts.Dialect)
	srv.Version = opts.BuildInfo.Version
	if err := srv.Run(); err != nil {
		return fmt.Errorf("server exited with error: %w", err)
	}
	return nil
}
