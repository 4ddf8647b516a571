package main

import (
	"github.com/spf13/cobra"

	"recipebox/internal/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE: func(_ *cobra.Command, _ []string) error {
		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		defer logger.Sync()

		return database.RunMigrations(cfg.DatabasePath, logger)
	},
}
