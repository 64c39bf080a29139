// Command compress-gob builds a Gobliiins STK/ITK archive from the .gob
// configuration file written by the extractor.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/meigma/stk"
)

// Exit codes.
const (
	exitFailure     = 1
	exitConfigError = 2
)

func main() {
	os.Exit(execute())
}

func execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "compress-gob:", err)
		return exitCode(err)
	}
	return 0
}

func exitCode(err error) int {
	if stk.IsConfigError(err) {
		return exitConfigError
	}
	return exitFailure
}
