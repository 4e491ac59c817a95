// Package main is the dice command line roller.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/term"
)

// Build-time variables, injected via ldflags.
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	root := newRootCmd(options{
		out: os.Stdout,
		err: os.Stderr,
		tty: func() bool { return term.IsTerminal(int(os.Stdout.Fd())) },
	})

	if err := root.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errRollFailed) {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(1)
	}
}
