package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/surveygate/internal/seed"
)

// NewSeedCommand creates the seed command.
func NewSeedCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create the sample survey database",
		Long: `Create the sample survey database in the data directory.

The database contains surveys, questions, responses and demographics
tables with a small amount of sample data. Running seed against an
existing database applies any pending migrations and leaves the rest
untouched.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := runtimeFrom(cmd)
			if err != nil {
				return err
			}

			path, err := seed.Run(cfg.DataDir)
			if err != nil {
				return err
			}

			logger.Info("sample database ready", "path", path)
			fmt.Fprintf(cmd.OutOrStdout(), "Sample survey database created at %s\n", path)
			return nil
		},
	}
}
