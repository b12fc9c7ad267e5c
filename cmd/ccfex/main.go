// Command ccfex lists or extracts the members of a CCF archive.
//
// Usage:
//
//	ccfex [flags] <archive>
package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/meigma/ccf/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		cli.NewLogger(os.Stderr, "ccfex", false).Error("extract failed", "err", err)
		stop()
		os.Exit(1) //nolint:gocritic // stop already called
	}
}
