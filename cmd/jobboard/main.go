// @title       Job Board API
// @version     1.0
// @description Job postings, moderation and applications for the municipal job board.
// @BasePath    /

// @securityDefinitions.apikey BearerAuth
// @in                         header
// @name                       Authorization
// @description                Bearer token issued by the auth service

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"jobboard/cmd/jobboard/commands"
	"jobboard/logger"
)

var rootCmd = &cobra.Command{
	Use:   "jobboard",
	Short: "Job board API - job lifecycle and application pipeline",
	Long: `Job board API server and maintenance tools.

Available commands:
  serve    - Start the HTTP API
  indexes  - Create the MongoDB indexes the API relies on
  seed     - Insert demo users and jobs for local development

Configuration is read from .env, jobboard.toml and JOBBOARD_* environment variables.

Examples:
  jobboard serve                         # Start with jobboard.toml / environment
  JOBBOARD_STORE_DRIVER=memory jobboard serve
  jobboard indexes --config prod.toml`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&commands.ConfigPath, "config", "c", "", "Path to a TOML config file (default ./jobboard.toml if present)")
	rootCmd.PersistentFlags().BoolVar(&commands.JSONLogs, "json-logs", false, "Log JSON instead of console output")

	rootCmd.AddCommand(commands.ServeCmd)
	rootCmd.AddCommand(commands.IndexesCmd)
	rootCmd.AddCommand(commands.SeedCmd)
}

func main() {
	defer logger.Cleanup()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
