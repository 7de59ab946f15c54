package commands

import (
	"github.com/spf13/cobra"

	"github.com/wonny/stockdash/pkg/config"
	"github.com/wonny/stockdash/pkg/logger"
)

var (
	// Global flags
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "stockdash",
	Short: "Stock price dashboard backend",
	Long: `stockdash CLI

Upload daily stock price files (CSV/XLSX), inspect their columns,
filter rows and chart one feature per ticker.

Usage:
  go run ./cmd/stockdash [command]

Examples:
  go run ./cmd/stockdash serve
  go run ./cmd/stockdash inspect prices.csv --format yaml
  go run ./cmd/stockdash upload prices.csv --server http://localhost:8080
  go run ./cmd/stockdash prune --older-than 168h`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logging)")
}

// loadConfig loads config and builds the logger shared by every command
func loadConfig() (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, logger.New(cfg), nil
}
