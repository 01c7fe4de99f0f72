// Package commands implements the surveygate subcommands.
package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/surveygate/internal/config"
	"github.com/leapstack-labs/surveygate/internal/pipeline"
	"github.com/leapstack-labs/surveygate/internal/store"
)

// runtimeKey stores the loaded config and logger in the command context.
type runtimeKey struct{}

type runtime struct {
	cfg    *config.Config
	logger *slog.Logger
}

// WithRuntime attaches the loaded configuration and logger to ctx.
func WithRuntime(ctx context.Context, cfg *config.Config, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, runtimeKey{}, &runtime{cfg: cfg, logger: logger})
}

// runtimeFrom extracts the runtime installed by the root command.
func runtimeFrom(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	rt, ok := cmd.Context().Value(runtimeKey{}).(*runtime)
	if !ok {
		return nil, nil, fmt.Errorf("configuration not loaded")
	}
	return rt.cfg, rt.logger, nil
}

// openPipeline opens the database registry and builds the query pipeline.
// The caller must Close the returned registry.
func openPipeline(cfg *config.Config, logger *slog.Logger) (*pipeline.Pipeline, *store.Registry, error) {
	registry, err := store.OpenRegistry(cfg.DataDir, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open databases: %w", err)
	}

	p := pipeline.New(pipeline.Config{
		Registry:     registry,
		Logger:       logger,
		DefaultLimit: cfg.DefaultLimit,
		MaxLimit:     cfg.MaxLimit,
	})
	return p, registry, nil
}
