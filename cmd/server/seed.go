package main

import (
	"errors"

	"speedrun/backend/internal/database"
	"speedrun/backend/internal/seed"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var errDatabaseURL = errors.New("DATABASE_URL is required")

var seedFile string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load users and games from a YAML fixture",
	Long: `Inserts the users, games, versions and categories listed in the
fixture. Rows that already exist are left untouched, so the command can be
run repeatedly.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fixture, err := seed.LoadFile(seedFile)
		if err != nil {
			return err
		}
		return withDB(func(db *gorm.DB) error {
			if err := database.Migrate(db); err != nil {
				return err
			}
			sum, err := seed.Apply(cmd.Context(), db, fixture)
			if err != nil {
				return err
			}
			cmd.Printf("Seeded %s\n", sum)
			return nil
		})
	},
}

func init() {
	seedCmd.Flags().StringVarP(&seedFile, "file", "f", "seed.yaml", "Seed fixture to load")
}
