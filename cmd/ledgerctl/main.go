// Command ledgerctl runs operator tasks against the ledger database:
// schema migrations, balance reconciliation and catalog seeding.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"financehub/internal/logger"
)

func main() {
	logger.Init(os.Getenv("ENV"), os.Getenv("LOG_LEVEL"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	logger.Sync()
	if err != nil {
		os.Exit(1)
	}
}
