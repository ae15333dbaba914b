package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Playback  PlaybackConfig  `mapstructure:"playback"`
	Transcode TranscodeConfig `mapstructure:"transcode"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

type PlaybackConfig struct {
	FPS     int `mapstructure:"fps"`
	Columns int `mapstructure:"columns"` // 0 = terminal width
	Rows    int `mapstructure:"rows"`    // 0 = terminal height

	ColorProfile       string `mapstructure:"color_profile"` // truecolor, ansi256 or ansi
	SynchronizedOutput bool   `mapstructure:"synchronized_output"`
	Audio              bool   `mapstructure:"audio"`
	Summary            bool   `mapstructure:"summary"`
}

// FrameInterval is the wall-clock length of one display cycle.
func (p PlaybackConfig) FrameInterval() time.Duration {
	if p.FPS <= 0 {
		return 0
	}
	return time.Second / time.Duration(p.FPS)
}

type TranscodeConfig struct {
	FFmpegPath  string        `mapstructure:"ffmpeg_path"`
	FFplayPath  string        `mapstructure:"ffplay_path"`
	Timeout     time.Duration `mapstructure:"timeout"`
	ScaleFlags  string        `mapstructure:"scale_flags"`   // ffmpeg swscale flags, e.g. bicubic
	StderrLimit int           `mapstructure:"stderr_limit"` // bytes of ffmpeg stderr kept for errors
}

type CacheConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Dir     string `mapstructure:"dir"`
	Level   string `mapstructure:"level"` // fastest, default, better, best
}

type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`     // json or text
	Output     string `mapstructure:"output"`     // stdout, stderr, discard, or file path
	MaxSize    int    `mapstructure:"max_size"`   // MB
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"` // days
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
	Port    int    `mapstructure:"port"`
}

// Load reads configuration from configPath, layered over defaults and
// TERMREEL_* environment variables. An empty path skips the file.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	// Environment variable override
	v.SetEnvPrefix("TERMREEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// Playback defaults
	v.SetDefault("playback.fps", 25)
	v.SetDefault("playback.columns", 0)
	v.SetDefault("playback.rows", 0)
	v.SetDefault("playback.color_profile", "truecolor")
	v.SetDefault("playback.synchronized_output", true)
	v.SetDefault("playback.audio", true)
	v.SetDefault("playback.summary", false)

	// Transcode defaults
	v.SetDefault("transcode.ffmpeg_path", "")
	v.SetDefault("transcode.ffplay_path", "")
	v.SetDefault("transcode.timeout", "10m")
	v.SetDefault("transcode.scale_flags", "bicubic")
	v.SetDefault("transcode.stderr_limit", 4096)

	// Cache defaults
	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.dir", defaultCacheDir())
	v.SetDefault("cache.level", "default")

	// Logging defaults. Stdout is the render surface, so logs go to a file.
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.output", filepath.Join(os.TempDir(), "termreel", "termreel.log"))
	v.SetDefault("logging.max_size", 10)
	v.SetDefault("logging.max_backups", 3)
	v.SetDefault("logging.max_age", 7)

	// Metrics defaults
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.path", "/metrics")
	v.SetDefault("metrics.port", 9090)
}

func defaultCacheDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "termreel")
	}
	return filepath.Join(os.TempDir(), "termreel", "cache")
}
