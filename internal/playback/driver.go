package playback

import (
	"context"
	"time"

	"github.com/zsiec/termreel/internal/errors"
	"github.com/zsiec/termreel/internal/frame"
	"github.com/zsiec/termreel/internal/logger"
	"github.com/zsiec/termreel/internal/metrics"
	"github.com/zsiec/termreel/internal/pacing"
)

// Pacer bounds the wall-clock length of each display cycle.
type Pacer interface {
	BeginCycle()
	EndCycle() pacing.Cycle
}

// Stats summarizes one Run.
type Stats struct {
	Frames   int
	Cells    int
	Bytes    int
	Overruns int
	// MaxWork is the longest decode and render time of any cycle.
	MaxWork time.Duration
	Elapsed time.Duration
}

// Driver walks a frame stream from offset 0 to its end, one frame per
// pacing cycle.
type Driver struct {
	log        logger.Logger
	overrunLog *logger.RateLimited
}

// NewDriver creates a driver that logs through log.
func NewDriver(log logger.Logger) *Driver {
	log = logger.WithComponent(log, "playback")
	return &Driver{
		log:        log,
		overrunLog: logger.NewRateLimited(log, 5*time.Second, 3),
	}
}

// Run renders every frame in stream to sink. Each cycle opens a
// synchronized frame, decodes into it, waits for the pacer and then closes
// the frame so it is presented on the cycle boundary.
//
// A decode error halts playback immediately and is returned as is; nothing
// is retried or skipped. ctx is only checked between cycles, so a started
// cycle always completes.
func (d *Driver) Run(ctx context.Context, stream frame.Stream, sink frame.Sink, pacer Pacer) (Stats, error) {
	var stats Stats
	start := time.Now()
	metrics.SetPlaybackActive(true)
	defer metrics.SetPlaybackActive(false)

	d.log.WithField("stream_bytes", stream.Len()).Info("Playback started")

	painter := &countingPainter{next: sink}
	cursor := 0
	for cursor < stream.Len() {
		if err := ctx.Err(); err != nil {
			d.log.WithField("frames", stats.Frames).Info("Playback stopped")
			return d.finish(stats, start), err
		}

		pacer.BeginCycle()
		if err := sink.BeginSynchronizedFrame(); err != nil {
			return d.fail(stats, start, errors.WrapTerminalError(err, "failed to begin frame"))
		}

		painter.cells = 0
		decodeStart := time.Now()
		next, err := stream.DecodeFrame(cursor, painter)
		if err == nil && next <= cursor {
			err = errors.NewMalformedHeaderError(cursor, "frame does not advance the stream")
		}
		if err != nil {
			_ = sink.EndSynchronizedFrame()
			return d.fail(stats, start, err)
		}
		metrics.RecordFrame(painter.cells, time.Since(decodeStart))

		cycle := pacer.EndCycle()
		if err := sink.EndSynchronizedFrame(); err != nil {
			return d.fail(stats, start, errors.WrapTerminalError(err, "failed to present frame"))
		}
		metrics.RecordCycle(cycle.Waited, cycle.Overrun)

		stats.Frames++
		stats.Cells += painter.cells
		stats.Bytes = next
		if cycle.Work > stats.MaxWork {
			stats.MaxWork = cycle.Work
		}
		if cycle.Overrun {
			stats.Overruns++
			d.overrunLog.Warn(logger.Fields{
				"frame": stats.Frames,
				"work":  cycle.Work.String(),
			}, "Frame cycle overran its interval")
		}

		cursor = next
	}

	stats = d.finish(stats, start)
	d.log.WithFields(logger.Fields{
		"frames":   stats.Frames,
		"overruns": stats.Overruns,
		"elapsed":  stats.Elapsed.String(),
	}).Info("Playback finished")
	return stats, nil
}

func (d *Driver) finish(stats Stats, start time.Time) Stats {
	stats.Elapsed = time.Since(start)
	return stats
}

func (d *Driver) fail(stats Stats, start time.Time, err error) (Stats, error) {
	errType := string(errors.ErrorTypeInternal)
	if appErr, ok := errors.GetAppError(err); ok {
		errType = string(appErr.Type)
	}
	metrics.IncrementPlaybackError(errType)

	stats = d.finish(stats, start)
	d.log.WithError(err).WithFields(logger.Fields{
		"frames": stats.Frames,
		"offset": stats.Bytes,
	}).Error("Playback halted")
	return stats, err
}

// countingPainter counts the cells of the current frame on their way to the sink.
type countingPainter struct {
	next  frame.CellPainter
	cells int
}

func (c *countingPainter) PaintCell(column int, red, green, blue uint8) {
	c.cells++
	c.next.PaintCell(column, red, green, blue)
}
