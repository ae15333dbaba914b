package config

import (
	"fmt"
)

func (c *Config) Validate() error {
	if err := c.Playback.Validate(); err != nil {
		return fmt.Errorf("playback config: %w", err)
	}

	if err := c.Transcode.Validate(); err != nil {
		return fmt.Errorf("transcode config: %w", err)
	}

	if err := c.Cache.Validate(); err != nil {
		return fmt.Errorf("cache config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	if err := c.Metrics.Validate(); err != nil {
		return fmt.Errorf("metrics config: %w", err)
	}

	return nil
}

func (p *PlaybackConfig) Validate() error {
	if p.FPS < 1 || p.FPS > 120 {
		return fmt.Errorf("fps must be between 1 and 120, got %d", p.FPS)
	}

	if p.Columns < 0 || p.Rows < 0 {
		return fmt.Errorf("columns and rows cannot be negative")
	}

	// Either both are fixed or both come from the terminal.
	if (p.Columns == 0) != (p.Rows == 0) {
		return fmt.Errorf("columns and rows must both be set or both be 0")
	}

	switch p.ColorProfile {
	case "truecolor", "ansi256", "ansi":
	default:
		return fmt.Errorf("invalid color profile: %s", p.ColorProfile)
	}

	return nil
}

func (t *TranscodeConfig) Validate() error {
	if t.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}

	if t.StderrLimit < 0 {
		return fmt.Errorf("stderr_limit cannot be negative")
	}

	return nil
}

func (c *CacheConfig) Validate() error {
	if !c.Enabled {
		return nil
	}

	if c.Dir == "" {
		return fmt.Errorf("cache dir cannot be empty when cache is enabled")
	}

	switch c.Level {
	case "fastest", "default", "better", "best":
	default:
		return fmt.Errorf("invalid cache compression level: %s", c.Level)
	}

	return nil
}

func (l *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"panic": true,
		"fatal": true,
		"error": true,
		"warn":  true,
		"info":  true,
		"debug": true,
		"trace": true,
	}

	if !validLevels[l.Level] {
		return fmt.Errorf("invalid log level: %s", l.Level)
	}

	if l.Format != "json" && l.Format != "text" {
		return fmt.Errorf("log format must be 'json' or 'text'")
	}

	if l.Output == "" {
		return fmt.Errorf("log output cannot be empty")
	}

	if l.Output != "stdout" && l.Output != "stderr" && l.Output != "discard" {
		if l.MaxSize <= 0 {
			return fmt.Errorf("max_size must be positive for file output")
		}
		if l.MaxBackups < 0 {
			return fmt.Errorf("max_backups cannot be negative")
		}
		if l.MaxAge < 0 {
			return fmt.Errorf("max_age cannot be negative")
		}
	}

	return nil
}

func (m *MetricsConfig) Validate() error {
	if m.Enabled {
		if m.Port < 1 || m.Port > 65535 {
			return fmt.Errorf("invalid metrics port: %d", m.Port)
		}

		if m.Path == "" {
			return fmt.Errorf("metrics path cannot be empty")
		}
	}

	return nil
}
