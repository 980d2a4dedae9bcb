// Command inventoryctl runs inventory maintenance tasks from the shell:
// migrations, CSV import and export, purge, category seeding and an
// interactive console.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/JonMunkholm/inventory/internal/core/tables" // Register resources
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}
