package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"

	"financehub/internal/config"
	"financehub/internal/database"
	"financehub/internal/logger"
)

var flagVerbose bool

var rootCmd = &cobra.Command{
	Use:          "ledgerctl",
	Short:        "FinanceHub ledger operations",
	Long:         "Apply migrations, reconcile account balances against the ledger, and seed the category catalog.",
	SilenceUsage: true,
	PersistentPreRun: func(*cobra.Command, []string) {
		if flagVerbose {
			logger.SetLevel(zapcore.DebugLevel)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "log at debug level")
}

// openDatabase loads configuration and connects without migrating.
func openDatabase() (*config.Config, *database.Manager, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	dbManager, err := database.NewManager(cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	return cfg, dbManager, nil
}
