package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/pterm/pterm"

	"github.com/GriffinCanCode/SourceHealth/cmd/sourcehealth/commands"
)

// Exit codes
const (
	exitOK     = 0
	exitError  = 1
	exitBroken = 2
)

func main() {
	// Handle graceful shutdown: no new fetches start after the first signal
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	os.Exit(run(ctx, stop))
}

func run(ctx context.Context, stop context.CancelFunc) int {
	defer stop()

	err := commands.NewRootCmd().ExecuteContext(ctx)
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, commands.ErrBrokenSources):
		pterm.Error.Println(err)
		return exitBroken
	default:
		pterm.Error.Println(err)
		return exitError
	}
}
