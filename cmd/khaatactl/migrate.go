package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/segyhp/khaata-engine/internal/config"
	"github.com/segyhp/khaata-engine/internal/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, zl, err := setup()
		if err != nil {
			return err
		}
		defer zl.Sync()

		if cfg.Storage.Driver != config.DriverPostgres {
			return fmt.Errorf("migrate needs STORAGE_DRIVER=postgres, got %q", cfg.Storage.Driver)
		}

		db, err := database.NewPostgres(cmd.Context(), database.Options{
			URL:         cfg.Database.URL,
			PingTimeout: cfg.GetHealthTimeout(),
		})
		if err != nil {
			return fmt.Errorf("open db: %w", err)
		}
		defer db.Close()

		applied, err := database.Migrate(cmd.Context(), db)
		if err != nil {
			return err
		}
		if len(applied) == 0 {
			zl.Info("schema is up to date")
			return nil
		}
		zl.Info("migrations applied", zap.Strings("files", applied))
		return nil
	},
}
