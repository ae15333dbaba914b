package main

import (
	"context"
	stderrors "errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/zsiec/termreel/internal/config"
	"github.com/zsiec/termreel/internal/errors"
	"github.com/zsiec/termreel/internal/logger"
	"github.com/zsiec/termreel/internal/render"
	"github.com/zsiec/termreel/pkg/version"
)

type options struct {
	configPath  string
	showVersion bool
	fps         int
	columns     int
	rows        int
	profile     string
	noAudio     bool
	noSync      bool
	summary     bool
	cache       bool
	input       string
}

func parseFlags(args []string, output io.Writer) (*options, error) {
	var opts options
	fs := flag.NewFlagSet("termreel", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.Usage = func() {
		fmt.Fprintf(output, "Usage: termreel [flags] <media file>\n\nFlags:\n")
		fs.PrintDefaults()
	}

	fs.StringVar(&opts.configPath, "config", "", "Path to configuration file")
	fs.BoolVar(&opts.showVersion, "version", false, "Show version information")
	fs.IntVar(&opts.fps, "fps", 0, "Frames per second (overrides playback.fps)")
	fs.IntVar(&opts.columns, "cols", 0, "Output width in cells (default: terminal width)")
	fs.IntVar(&opts.rows, "rows", 0, "Output height in cells (default: terminal height)")
	fs.StringVar(&opts.profile, "color", "", "Color profile: truecolor, ansi256 or ansi")
	fs.BoolVar(&opts.noAudio, "no-audio", false, "Do not play the soundtrack")
	fs.BoolVar(&opts.noSync, "no-sync", false, "Disable synchronized terminal output")
	fs.BoolVar(&opts.summary, "summary", false, "Print a playback summary on exit")
	fs.BoolVar(&opts.cache, "cache", false, "Reuse and store transcoded streams")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if opts.showVersion {
		return &opts, nil
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return nil, fmt.Errorf("expected exactly one media file, got %d arguments", fs.NArg())
	}
	opts.input = fs.Arg(0)
	return &opts, nil
}

// apply layers command line overrides on top of the loaded configuration.
func (o *options) apply(cfg *config.Config) {
	if o.fps > 0 {
		cfg.Playback.FPS = o.fps
	}
	if o.columns > 0 {
		cfg.Playback.Columns = o.columns
	}
	if o.rows > 0 {
		cfg.Playback.Rows = o.rows
	}
	if o.profile != "" {
		cfg.Playback.ColorProfile = o.profile
	}
	if o.noAudio {
		cfg.Playback.Audio = false
	}
	if o.noSync {
		cfg.Playback.SynchronizedOutput = false
	}
	if o.summary {
		cfg.Playback.Summary = true
	}
	if o.cache {
		cfg.Cache.Enabled = true
	}
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) (code int) {
	opts, err := parseFlags(args, os.Stderr)
	if err != nil {
		if stderrors.Is(err, flag.ErrHelp) {
			return errors.ExitOK
		}
		fmt.Fprintf(os.Stderr, "termreel: %v\n", err)
		return errors.ExitBadInput
	}

	if opts.showVersion {
		fmt.Println(version.GetInfo().String())
		return errors.ExitOK
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "termreel: failed to load config: %v\n", err)
		return errors.ExitBadInput
	}
	opts.apply(cfg)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "termreel: invalid options: %v\n", err)
		return errors.ExitBadInput
	}

	log, err := logger.New(&cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "termreel: failed to initialize logger: %v\n", err)
		return errors.ExitFailure
	}
	handler := errors.NewErrorHandler(log, os.Stderr)
	defer func() {
		if r := recover(); r != nil {
			code = handler.HandlePanic(r)
		}
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	ctx, sessionLog := logger.NewSession(ctx, logger.Base(log))
	sessionLog.WithFields(logger.Fields{
		"input":       opts.input,
		"config_path": opts.configPath,
	}).Info("Starting termreel")

	p := &player{cfg: cfg, log: sessionLog, input: opts.input, stdin: os.Stdin, stdout: os.Stdout}
	stats, err := p.play(ctx)
	if err != nil && !stderrors.Is(err, context.Canceled) {
		return handler.HandleError(err)
	}

	if cfg.Playback.Summary {
		fmt.Fprintln(os.Stderr, render.Summary(opts.input, stats, cfg.Playback.FrameInterval()))
	}
	return errors.ExitOK
}
