package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/meigma/ccf"
	"github.com/meigma/ccf/internal/cli"
)

type options struct {
	dir         string
	compression string
	maxMember   uint64
	list        bool
	direct      bool
	verbose     bool
}

func newRootCmd() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "ccfex <archive>",
		Short: "List or extract the members of a CCF archive",
		Long: `ccfex writes every member of a CCF archive into the destination
directory, replacing files of the same name. With --list it prints the
descriptor table instead.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args[0], opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.dir, "dir", "C", ".", "destination directory")
	flags.StringVarP(&opts.compression, "compression", "c", "zlib", "compression the archive was written with")
	flags.Uint64Var(&opts.maxMember, "max-member-size", ccf.DefaultMaxMemberSize, "reject members larger than this many bytes (0 for no limit)")
	flags.BoolVarP(&opts.list, "list", "l", false, "print the descriptor table and exit")
	flags.BoolVar(&opts.direct, "direct", false, "write members in place instead of through temp files")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug output")

	return cmd
}

func run(cmd *cobra.Command, path string, opts options) error {
	logger := cli.NewLogger(cmd.ErrOrStderr(), "ccfex", opts.verbose)

	compression, err := ccf.ParseCompression(opts.compression)
	if err != nil {
		return err
	}

	decodeOpts := []ccf.DecodeOption{
		ccf.DecodeWithCompression(compression),
		ccf.DecodeWithLogger(logger),
		ccf.DecodeWithProgress(func(e ccf.ProgressEvent) {
			logger.Info(fmt.Sprintf("[%d/%d] %s", e.MembersDone, e.MembersTotal, e.Name),
				"file_size", e.FileSize,
				"data_size", e.DataSize,
			)
		}),
		ccf.DecodeWithMaxMemberSize(opts.maxMember),
	}

	f, err := ccf.OpenFile(path, decodeOpts...)
	if err != nil {
		return err
	}
	defer f.Close()

	if opts.list {
		return list(cmd.OutOrStdout(), f.Archive)
	}

	stats, err := f.ExtractDir(cmd.Context(), opts.dir, ccf.ExtractWithDirectWrites(opts.direct))
	if err != nil {
		return err
	}
	logger.Debug("done", "files", stats.FileCount, "bytes", stats.TotalBytes)
	return nil
}

// list prints one row per descriptor. Each member is decoded so the digest
// covers the original bytes.
func list(w io.Writer, a *ccf.Archive) error {
	h := a.Header()
	fmt.Fprintf(w, "chunk size: %d\nfile count: %d\n\n", h.ChunkSize, h.FileCount)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "INDEX\tNAME\tOFFSET\tDATA SIZE\tFILE SIZE\tDIGEST")
	for i, d := range a.Descriptors() {
		data, err := a.ReadMember(i)
		if err != nil {
			return err
		}
		m := ccf.Member{Name: d.Name, Data: data}
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%d\t%s\n",
			i, d.Name, d.Offset, d.DataSize, d.FileSize, m.Digest())
	}
	return tw.Flush()
}
