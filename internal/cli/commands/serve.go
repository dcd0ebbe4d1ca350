package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/timecheck/internal/server"
	"github.com/ccollicutt/timecheck/pkg/analyzer"
	"github.com/ccollicutt/timecheck/pkg/config"
)

// ServeOptions holds command-line options for the serve command.
type ServeOptions struct {
	Config string
	Addr   string
}

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	opts := &ServeOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the upload web interface",
		Long: `Run an HTTP server for checking uploaded workbooks.

Routes:
  GET  /           Upload form
  POST /check      HTML report for the uploaded file
  POST /api/check  JSON report for the uploaded file
  GET  /healthz    Health check

The listen address comes from --addr, then TIMECHECK_ADDR, then the
config file, defaulting to :8080.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Config, "config", "c", "", "Config file with server and webhook settings")
	cmd.Flags().StringVar(&opts.Addr, "addr", "", "Listen address (overrides config)")

	return cmd
}

func runServe(cmd *cobra.Command, opts *ServeOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx, opts.Config)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if opts.Addr != "" {
		cfg.Server.Addr = opts.Addr
	}

	a, err := analyzer.NewAnalyzer(config.DefaultPipeline())
	if err != nil {
		return fmt.Errorf("creating analyzer: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), nil))
	server.Version = Version

	srv, err := server.New(cfg, a, logger)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	return srv.ListenAndServe(ctx)
}
