// Command ccfarc bundles files into a CCF archive.
//
// Usage:
//
//	ccfarc [flags] <infile1> [infile2] ...
//
// Each input is stored under its base name, cut to 20 bytes. The archive is
// written to out.ccf in the working directory unless -o is given.
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
		cli.NewLogger(os.Stderr, "ccfarc", false).Error("archive failed", "err", err)
		stop()
		os.Exit(1) //nolint:gocritic // stop already called
	}
}
