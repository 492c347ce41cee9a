package main

import (
	"speedrun/backend/internal/config"
	"speedrun/backend/internal/database"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(database.Migrate)
	},
}

// withDB opens the configured database, runs fn and closes it again.
func withDB(fn func(*gorm.DB) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.DatabaseURL == "" {
		return errDatabaseURL
	}
	db, err := database.Connect(cfg.DatabaseURL, cfg.DBLogLevel)
	if err != nil {
		return err
	}
	defer database.Close(db)
	return fn(db)
}
