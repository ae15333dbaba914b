package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validConfig() *Config {
	return &Config{
		Playback: PlaybackConfig{
			FPS:          25,
			ColorProfile: "truecolor",
		},
		Transcode: TranscodeConfig{
			Timeout:     time.Minute,
			StderrLimit: 1024,
		},
		Cache: CacheConfig{
			Enabled: true,
			Dir:     "/tmp/termreel",
			Level:   "default",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
			Port:    9090,
		},
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
		errMsg  string
	}{
		{
			name:   "valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "zero fps",
			mutate:  func(c *Config) { c.Playback.FPS = 0 },
			wantErr: true,
			errMsg:  "fps must be between",
		},
		{
			name:    "fps too high",
			mutate:  func(c *Config) { c.Playback.FPS = 500 },
			wantErr: true,
			errMsg:  "fps must be between",
		},
		{
			name:    "only columns set",
			mutate:  func(c *Config) { c.Playback.Columns = 80 },
			wantErr: true,
			errMsg:  "both be set",
		},
		{
			name:   "fixed grid",
			mutate: func(c *Config) { c.Playback.Columns, c.Playback.Rows = 80, 24 },
		},
		{
			name:    "negative rows",
			mutate:  func(c *Config) { c.Playback.Columns, c.Playback.Rows = 80, -1 },
			wantErr: true,
			errMsg:  "cannot be negative",
		},
		{
			name:    "unknown color profile",
			mutate:  func(c *Config) { c.Playback.ColorProfile = "sixel" },
			wantErr: true,
			errMsg:  "invalid color profile",
		},
		{
			name:    "zero transcode timeout",
			mutate:  func(c *Config) { c.Transcode.Timeout = 0 },
			wantErr: true,
			errMsg:  "timeout must be positive",
		},
		{
			name:    "cache without dir",
			mutate:  func(c *Config) { c.Cache.Dir = "" },
			wantErr: true,
			errMsg:  "cache dir",
		},
		{
			name:   "disabled cache skips checks",
			mutate: func(c *Config) { c.Cache = CacheConfig{} },
		},
		{
			name:    "bad cache level",
			mutate:  func(c *Config) { c.Cache.Level = "max" },
			wantErr: true,
			errMsg:  "compression level",
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Logging.Level = "verbose" },
			wantErr: true,
			errMsg:  "invalid log level",
		},
		{
			name:    "bad log format",
			mutate:  func(c *Config) { c.Logging.Format = "xml" },
			wantErr: true,
			errMsg:  "log format",
		},
		{
			name:    "file output without max size",
			mutate:  func(c *Config) { c.Logging.Output = "/var/log/termreel.log" },
			wantErr: true,
			errMsg:  "max_size",
		},
		{
			name:   "discard output",
			mutate: func(c *Config) { c.Logging.Output = "discard" },
		},
		{
			name:    "metrics port out of range",
			mutate:  func(c *Config) { c.Metrics.Port = 70000 },
			wantErr: true,
			errMsg:  "invalid metrics port",
		},
		{
			name:   "disabled metrics skips checks",
			mutate: func(c *Config) { c.Metrics = MetricsConfig{} },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				if err != nil {
					assert.Contains(t, err.Error(), tt.errMsg)
				}
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
