package main

import (
	"context"
	stderrors "errors"
	"net/http"
	"os"
	"time"

	"github.com/zsiec/termreel/internal/audio"
	"github.com/zsiec/termreel/internal/cache"
	"github.com/zsiec/termreel/internal/config"
	"github.com/zsiec/termreel/internal/errors"
	"github.com/zsiec/termreel/internal/frame"
	"github.com/zsiec/termreel/internal/health"
	"github.com/zsiec/termreel/internal/logger"
	"github.com/zsiec/termreel/internal/metrics"
	"github.com/zsiec/termreel/internal/pacing"
	"github.com/zsiec/termreel/internal/playback"
	"github.com/zsiec/termreel/internal/render"
	"github.com/zsiec/termreel/internal/transcode"
)

// player runs one playback session from preflight to teardown.
type player struct {
	cfg    *config.Config
	log    logger.Logger
	input  string
	stdin  *os.File
	stdout *os.File

	ffplayPath string
}

func (p *player) play(ctx context.Context) (playback.Stats, error) {
	if _, err := os.Stat(p.input); err != nil {
		return playback.Stats{}, errors.NewConfigError("cannot open input: " + err.Error())
	}

	checks, err := p.preflight(ctx)
	if err != nil {
		return playback.Stats{}, err
	}

	if p.cfg.Metrics.Enabled {
		stop := p.startMetricsServer(checks)
		defer stop()
	}

	columns, rows := p.cfg.Playback.Columns, p.cfg.Playback.Rows
	if columns == 0 || rows == 0 {
		columns, rows, err = render.Size(p.stdout)
		if err != nil {
			return playback.Stats{}, err
		}
	}
	p.log.WithFields(logger.Fields{"columns": columns, "rows": rows}).Debug("Output geometry")

	streams, err := p.streams(ctx, columns, rows)
	if err != nil {
		return playback.Stats{}, err
	}

	profile, err := render.ParseProfile(p.cfg.Playback.ColorProfile)
	if err != nil {
		return playback.Stats{}, errors.NewConfigError(err.Error())
	}

	synchronizer, err := pacing.NewSynchronizer(p.cfg.Playback.FrameInterval())
	if err != nil {
		return playback.Stats{}, errors.NewConfigError(err.Error())
	}

	session, err := render.OpenSession(p.stdin, p.stdout, p.log)
	if err != nil {
		return playback.Stats{}, err
	}
	defer session.Close()

	playCtx, stop := context.WithCancel(ctx)
	defer stop()
	session.WatchKeys(stop)

	if p.cfg.Playback.Audio {
		sound, err := audio.Start(playCtx, p.ffplayPath, streams.Audio, p.log)
		if err != nil {
			p.log.WithError(err).Warn("Playing without sound")
		}
		defer sound.Stop()
	}

	sink := render.NewANSISink(p.stdout, render.SinkOptions{
		Profile:      profile,
		Synchronized: p.cfg.Playback.SynchronizedOutput,
	})
	stats, err := playback.NewDriver(p.log).Run(playCtx, frame.NewStream(streams.Frames), sink, synchronizer)

	if closeErr := session.Close(); closeErr != nil {
		p.log.WithError(closeErr).Warn("Failed to restore terminal")
	}
	return stats, err
}

// preflight verifies the external tools. A missing ffplay only disables audio.
func (p *player) preflight(ctx context.Context) (*health.Manager, error) {
	checks := health.NewManager(p.log, 5*time.Second)

	ffmpeg := health.NewFFmpegChecker(p.cfg.Transcode.FFmpegPath)
	checks.Register(ffmpeg)
	p.cfg.Transcode.FFmpegPath = ffmpeg.BinaryPath()

	if p.cfg.Playback.Audio {
		ffplay := health.NewFFplayChecker(p.cfg.Transcode.FFplayPath)
		checks.RegisterOptional(ffplay)
		p.ffplayPath = ffplay.BinaryPath()
	}

	checks.RunChecks(ctx)
	if err := checks.Err(); err != nil {
		return nil, err
	}
	if p.cfg.Playback.Audio && !checks.Healthy("ffplay") {
		p.log.Warn("ffplay unavailable, audio disabled")
		p.cfg.Playback.Audio = false
	}
	return checks, nil
}

// streams returns the transcoded frame and audio streams, from the cache
// when enabled.
func (p *player) streams(ctx context.Context, columns, rows int) (*transcode.Result, error) {
	fps := p.cfg.Playback.FPS

	var (
		store *cache.Store
		key   cache.Key
	)
	if p.cfg.Cache.Enabled {
		var err error
		store, err = cache.New(p.cfg.Cache.Dir, p.cfg.Cache.Level, p.log)
		if err != nil {
			return nil, err
		}
		key, err = cache.KeyFor(p.input, columns, rows, fps)
		if err != nil {
			return nil, err
		}
		entry, err := store.Load(key)
		if err != nil {
			p.log.WithError(err).Warn("Ignoring unreadable cache entry")
		}
		if entry != nil {
			return &transcode.Result{Frames: entry.Frames, Audio: entry.Audio}, nil
		}
	}

	tr, err := transcode.New(transcode.Options{
		FFmpegPath:  p.cfg.Transcode.FFmpegPath,
		FPS:         fps,
		Columns:     columns,
		Rows:        rows,
		ScaleFlags:  p.cfg.Transcode.ScaleFlags,
		Timeout:     p.cfg.Transcode.Timeout,
		StderrLimit: p.cfg.Transcode.StderrLimit,
		Audio:       p.cfg.Playback.Audio,
	}, p.log)
	if err != nil {
		return nil, err
	}
	res, err := tr.Transcode(ctx, p.input)
	if err != nil {
		return nil, err
	}

	if store != nil {
		if err := store.Save(key, &cache.Entry{Frames: res.Frames, Audio: res.Audio}); err != nil {
			p.log.WithError(err).Warn("Failed to cache transcoded streams")
		}
	}
	return res, nil
}

// startMetricsServer serves Prometheus metrics and the preflight results.
func (p *player) startMetricsServer(checks *health.Manager) func() {
	mux := metrics.Handler(p.cfg.Metrics.Path)
	health.NewHandler(checks).Register(mux)
	srv := metrics.NewServer(p.cfg.Metrics.Port, mux)

	log := p.log.WithField("addr", srv.Addr)
	log.Info("Starting metrics server")
	go func() {
		if err := srv.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("Metrics server error")
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
