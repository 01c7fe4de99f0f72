package commands

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/surveygate/internal/server"
)

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long: `Start the HTTP API server.

The server exposes query execution, analysis, schema and sample data
endpoints over JSON. All databases found in the data directory are
registered read-only at startup.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := runtimeFrom(cmd)
			if err != nil {
				return err
			}

			p, registry, err := openPipeline(cfg, logger)
			if err != nil {
				return err
			}
			defer registry.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			srv := server.New(server.Config{
				Pipeline: p,
				Addr:     cfg.ListenAddr,
				Logger:   logger,
			})
			return srv.Serve(ctx)
		},
	}
}
