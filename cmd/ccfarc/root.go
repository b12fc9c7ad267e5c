package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/meigma/ccf"
	"github.com/meigma/ccf/internal/cli"
)

// defaultOutput is the archive name used when -o is not given.
const defaultOutput = "out.ccf"

type options struct {
	output      string
	compression string
	level       int
	workers     int
	verbose     bool
}

func newRootCmd() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "ccfarc <infile1> [infile2] ...",
		Short: "Bundle files into a CCF archive",
		Long: `ccfarc stores each input file as one member of a CCF archive.

Members are compressed independently and kept compressed only when that
makes them smaller. Use --compression none to store every member verbatim.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.output, "output", "o", defaultOutput, "archive to write")
	flags.StringVarP(&opts.compression, "compression", "c", "zlib", "compression: zlib, zstd, lz4 or none")
	flags.IntVar(&opts.level, "level", 0, "compression level (unset uses the algorithm default)")
	flags.IntVarP(&opts.workers, "workers", "j", 1, "members to compress concurrently")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug output")

	return cmd
}

func run(cmd *cobra.Command, paths []string, opts options) error {
	logger := cli.NewLogger(cmd.ErrOrStderr(), "ccfarc", opts.verbose)

	compression, err := ccf.ParseCompression(opts.compression)
	if err != nil {
		return err
	}

	encodeOpts := []ccf.EncodeOption{
		ccf.EncodeWithCompression(compression),
		ccf.EncodeWithWorkers(opts.workers),
		ccf.EncodeWithLogger(logger),
		ccf.EncodeWithProgress(func(e ccf.ProgressEvent) {
			if e.Stage != ccf.StageWriting {
				return
			}
			logger.Info(fmt.Sprintf("[%d/%d] %s", e.MembersDone, e.MembersTotal, e.Name),
				"file_size", e.FileSize,
				"data_size", e.DataSize,
			)
		}),
	}
	if cmd.Flags().Changed("level") {
		encodeOpts = append(encodeOpts, ccf.EncodeWithLevel(opts.level))
	}

	w := ccf.NewWriter(encodeOpts...)
	for _, path := range paths {
		if _, err := w.AddFile(path); err != nil {
			return fmt.Errorf("add %s: %w", path, err)
		}
	}

	logger.Info("writing archive", "output", opts.output, "members", w.Len(), "compression", compression.String())
	if _, err := w.WriteFile(cmd.Context(), opts.output); err != nil {
		return fmt.Errorf("write %s: %w", opts.output, err)
	}
	return nil
}
