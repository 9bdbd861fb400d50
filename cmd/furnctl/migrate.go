package main

import (
	"fmt"

	"furniture-assistant/internal/config"
	"furniture-assistant/internal/database"
	"furniture-assistant/migrations"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newMigrateCmd(load func() *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Long: `Create the furniture table and seed the default catalog in the
database named by the DB_* settings. Already applied migrations are skipped.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := load()
			log := newLogger(cfg)
			defer log.Sync()

			dbService, err := database.New(cfg.Database)
			if err != nil {
				return err
			}
			defer dbService.Close()

			if err := database.RunMigrations(cmd.Context(), dbService.DB(), migrations.FS, ".", log); err != nil {
				return err
			}

			log.Info("Database is up to date", zap.String("host", cfg.Database.Host))
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}
}
