// Command essayctl searches, filters and reads essays from the terminal,
// imports the JSON corpus into SQLite, and serves the essay tools to MCP
// clients.
//
// Usage:
//
//	go run ./cmd/essayctl search startup ideas
//	go run ./cmd/essayctl -c configs/development.yaml browse
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/Adithya-Monish-Kumar-K/essay-browser/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.NewRootCommand(os.Stdin, os.Stdout).ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
