// Package main is the entry point for the kanban CLI.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"kanban/internal/backend"
	"kanban/internal/cli"
	"kanban/internal/commands"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, backend.New)
	code := dispatcher.Run(ctx, os.Args[1:], os.Stdout, os.Stderr)

	stop()
	os.Exit(code)
}
