package ccf

import (
	"context"
	"fmt"

	"github.com/meigma/ccf/internal/extract"
)

// Sink receives restored member content during extraction.
type Sink = extract.Sink

// Committer is a writer that can be committed or discarded.
type Committer = extract.Committer

// ExtractStats contains statistics from an extraction.
type ExtractStats struct {
	// FileCount is the number of members written.
	FileCount int

	// TotalBytes is the total restored size of the members written.
	TotalBytes uint64

	// Skipped is the number of members the sink declined.
	Skipped int
}

// Extract restores every member in archive order and hands it to sink.
// The first failure stops extraction; members already committed stay.
func (a *Archive) Extract(ctx context.Context, sink Sink) (ExtractStats, error) {
	var stats ExtractStats
	total := len(a.descriptors)
	for i, d := range a.descriptors {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		if !sink.ShouldProcess(d.Name) {
			a.log().Debug("member skipped", "index", i, "name", d.Name)
			stats.Skipped++
			continue
		}

		data, err := a.ReadMember(i)
		if err != nil {
			return stats, err
		}
		if err := writeToSink(sink, d.Name, data); err != nil {
			return stats, &MemberError{Op: "extract", Index: i, Name: d.Name, Err: ioError(err)}
		}

		stats.FileCount++
		stats.TotalBytes += uint64(len(data))
		a.reportProgress(StageExtracting, i, d, stats.FileCount+stats.Skipped, total)
	}
	a.log().Info("archive extracted", "members", stats.FileCount, "bytes", stats.TotalBytes, "skipped", stats.Skipped)
	return stats, nil
}

// ExtractDir restores every member into the directory dir, one flat file per
// member named after its descriptor. Existing files are overwritten unless
// ExtractWithOverwrite(false) is given; colliding truncated names overwrite
// each other in archive order.
func (a *Archive) ExtractDir(ctx context.Context, dir string, opts ...ExtractOption) (ExtractStats, error) {
	var cfg extractConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	sink, err := extract.NewFileSink(dir, cfg.sinkOpts...)
	if err != nil {
		return ExtractStats{}, ioError(err)
	}
	defer sink.Close()

	return a.Extract(ctx, sink)
}

func writeToSink(sink Sink, name string, data []byte) error {
	c, err := sink.Writer(name)
	if err != nil {
		return err
	}
	if _, err := c.Write(data); err != nil {
		_ = c.Discard() //nolint:errcheck // write error takes precedence
		return fmt.Errorf("write %s: %w", name, err)
	}
	return c.Commit()
}

// reportProgress sends a progress event if a callback is configured.
func (a *Archive) reportProgress(stage ProgressStage, index int, d Descriptor, done, total int) {
	if a.cfg.progress == nil {
		return
	}
	a.cfg.progress(ProgressEvent{
		Stage:        stage,
		Index:        index,
		Name:         d.Name,
		DataSize:     d.DataSize,
		FileSize:     d.FileSize,
		MembersDone:  done,
		MembersTotal: total,
	})
}
