package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "speedrun",
	Short: "Speedrun leaderboard server",
	Long: `Serves the speedrun API and pages: games, versions, categories,
submitted runs, comments and moderated leaderboards.

Configuration is read from .env in the working directory and from the
environment.`,
	SilenceUsage: true,
}

// @title           Speedrun API
// @version         1.0
// @description     Games, runs, categories and moderated leaderboards.
// @host            localhost:8080
// @BasePath        /api/v1
// @securityDefinitions.apiKey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
}
