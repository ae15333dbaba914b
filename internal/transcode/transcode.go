// Package transcode turns a media file into the two in-memory streams
// playback consumes: concatenated 24-bit BMP frames scaled to the terminal
// grid, and an MP3 soundtrack.
package transcode

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/zsiec/termreel/internal/errors"
	"github.com/zsiec/termreel/internal/logger"
	"github.com/zsiec/termreel/internal/metrics"
)

const (
	StreamFrames = "frames"
	StreamAudio  = "audio"
)

// Options configures a Transcoder.
type Options struct {
	FFmpegPath string
	FPS        int
	Columns    int
	Rows       int
	// ScaleFlags is passed to the scale filter, e.g. "bicubic". Empty uses
	// the ffmpeg default.
	ScaleFlags string
	Timeout    time.Duration
	// StderrLimit caps how much ffmpeg stderr is kept for error messages.
	StderrLimit int
	Audio       bool
}

// Result holds the transcoded streams. Audio is empty when the input has no
// audio track or audio was not requested.
type Result struct {
	Frames []byte
	Audio  []byte
}

// Transcoder runs ffmpeg.
type Transcoder struct {
	opts Options
	log  logger.Logger
}

// New validates opts and returns a Transcoder.
func New(opts Options, log logger.Logger) (*Transcoder, error) {
	if opts.FFmpegPath == "" {
		path, err := exec.LookPath("ffmpeg")
		if err != nil {
			return nil, errors.WrapTranscodeError(err, "ffmpeg not found in PATH")
		}
		opts.FFmpegPath = path
	}
	if opts.FPS <= 0 {
		return nil, errors.NewConfigError("fps must be positive")
	}
	if opts.Columns <= 0 || opts.Rows <= 0 {
		return nil, errors.NewConfigError(fmt.Sprintf("invalid output size %dx%d", opts.Columns, opts.Rows))
	}
	if opts.StderrLimit <= 0 {
		opts.StderrLimit = 4096
	}
	return &Transcoder{
		opts: opts,
		log:  logger.WithComponent(log, "transcode"),
	}, nil
}

// VideoArgs returns the ffmpeg arguments producing the frame stream.
func (t *Transcoder) VideoArgs(input string) []string {
	scale := fmt.Sprintf("scale=%d:%d", t.opts.Columns, t.opts.Rows)
	if t.opts.ScaleFlags != "" {
		scale += ":flags=" + t.opts.ScaleFlags
	}
	return []string{
		"-nostdin", "-hide_banner",
		"-i", input,
		"-an",
		"-r", strconv.Itoa(t.opts.FPS),
		"-vf", scale,
		"-pix_fmt", "bgr24",
		"-f", "image2pipe",
		"-c:v", "bmp",
		"-",
	}
}

// AudioArgs returns the ffmpeg arguments producing the soundtrack.
func (t *Transcoder) AudioArgs(input string) []string {
	return []string{
		"-nostdin", "-hide_banner",
		"-i", input,
		"-vn",
		"-f", "mp3",
		"pipe:1",
	}
}

// Transcode runs the frame and audio conversions concurrently and waits for
// both. A failed frame conversion fails the whole call; a failed audio
// conversion is logged and yields empty audio, since many inputs carry no
// audio track.
func (t *Transcoder) Transcode(ctx context.Context, input string) (*Result, error) {
	if t.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.opts.Timeout)
		defer cancel()
	}

	log := t.log.WithFields(logger.Fields{
		"input":   input,
		"columns": t.opts.Columns,
		"rows":    t.opts.Rows,
		"fps":     t.opts.FPS,
	})
	log.Info("Transcoding input")

	var res Result
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		out, err := t.run(gctx, StreamFrames, t.VideoArgs(input))
		if err != nil {
			return err
		}
		if len(out) == 0 {
			return errors.WrapTranscodeError(stderrors.New("empty output"), "ffmpeg produced no frames")
		}
		res.Frames = out
		return nil
	})

	if t.opts.Audio {
		g.Go(func() error {
			out, err := t.run(gctx, StreamAudio, t.AudioArgs(input))
			if err != nil {
				if gctx.Err() != nil {
					return err
				}
				log.WithError(err).Warn("Audio transcode failed, playing without sound")
				return nil
			}
			res.Audio = out
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	metrics.SetStreamBytes(StreamFrames, len(res.Frames))
	metrics.SetStreamBytes(StreamAudio, len(res.Audio))
	log.WithFields(logger.Fields{
		"frame_bytes": len(res.Frames),
		"audio_bytes": len(res.Audio),
	}).Info("Transcode finished")
	return &res, nil
}

func (t *Transcoder) run(ctx context.Context, stream string, args []string) ([]byte, error) {
	var stdout bytes.Buffer
	stderr := newTailBuffer(t.opts.StderrLimit)

	cmd := exec.CommandContext(ctx, t.opts.FFmpegPath, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = stderr
	cmd.WaitDelay = time.Second

	start := time.Now()
	err := cmd.Run()
	metrics.ObserveTranscode(stream, time.Since(start))

	if err != nil {
		if ctx.Err() != nil {
			err = ctx.Err()
		}
		msg := fmt.Sprintf("ffmpeg %s transcode failed", stream)
		if tail := strings.TrimSpace(stderr.String()); tail != "" {
			msg += ": " + lastLine(tail)
		}
		return nil, errors.WrapTranscodeError(err, msg).WithDetails(map[string]interface{}{
			"stream": stream,
			"args":   strings.Join(args, " "),
			"stderr": stderr.String(),
		})
	}
	return stdout.Bytes(), nil
}

func lastLine(s string) string {
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[i+1:])
	}
	return s
}
