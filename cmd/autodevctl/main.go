package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/codex-k8s/autodevctl/internal/cli"
	"github.com/codex-k8s/autodevctl/internal/logging"
)

// main is the entry point for the autodevctl CLI binary.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cli.Execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()

	code := cli.ExitCode(err)
	if err != nil {
		var exitErr *cli.ExitError
		// Test failures end the run without an error worth logging.
		if !errors.As(err, &exitErr) || exitErr.Err != nil {
			logger := logging.NewLogger(os.Stderr, logging.LevelInfo)
			logger.Error("command failed", "error", err)
		}
	}
	os.Exit(code)
}
