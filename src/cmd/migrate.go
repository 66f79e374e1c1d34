package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theleywin/talent-nest-network/src/lib"
	"github.com/theleywin/talent-nest-network/src/logging"
)

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create tables and indexes",
		Long: `Create the tables (SQLite) or indexes (MongoDB) of the configured
database, including the unique index allowing one pending connection
request per sender and receiver.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rootOpts.load()
			if err != nil {
				return err
			}
			db, err := lib.ConnectDB(cmd.Context(), cfg.Database)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close(context.Background()) }()

			if err := db.Migrate(cmd.Context()); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			logging.Info().Str("driver", cfg.Database.Driver).Msg("migration complete")
			fmt.Fprintln(cmd.OutOrStdout(), "migration complete")
			return nil
		},
	}
}
