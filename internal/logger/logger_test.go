package logger

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zsiec/termreel/internal/config"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		config  *config.LoggingConfig
		wantErr bool
		check   func(t *testing.T, logger *logrus.Logger)
	}{
		{
			name: "json format stderr",
			config: &config.LoggingConfig{
				Level:  "info",
				Format: "json",
				Output: "stderr",
			},
			check: func(t *testing.T, logger *logrus.Logger) {
				assert.Equal(t, logrus.InfoLevel, logger.Level)
				_, ok := logger.Formatter.(*logrus.JSONFormatter)
				assert.True(t, ok)
			},
		},
		{
			name: "text format discard",
			config: &config.LoggingConfig{
				Level:  "debug",
				Format: "text",
				Output: "discard",
			},
			check: func(t *testing.T, logger *logrus.Logger) {
				assert.Equal(t, logrus.DebugLevel, logger.Level)
				_, ok := logger.Formatter.(*logrus.TextFormatter)
				assert.True(t, ok)
				assert.Equal(t, io.Discard, logger.Out)
			},
		},
		{
			name: "file output",
			config: &config.LoggingConfig{
				Level:      "warn",
				Format:     "json",
				Output:     filepath.Join(t.TempDir(), "nested", "test.log"),
				MaxSize:    10,
				MaxBackups: 3,
				MaxAge:     7,
			},
			check: func(t *testing.T, logger *logrus.Logger) {
				assert.Equal(t, logrus.WarnLevel, logger.Level)
			},
		},
		{
			name: "invalid log level",
			config: &config.LoggingConfig{
				Level:  "invalid",
				Format: "json",
				Output: "stdout",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(tt.config)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, logger)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, logger)
			if tt.check != nil {
				tt.check(t, logger)
			}
		})
	}
}

func TestFileOutput(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "test.log")

	logger, err := New(&config.LoggingConfig{
		Level:      "info",
		Format:     "text",
		Output:     logFile,
		MaxSize:    1,
		MaxBackups: 1,
		MaxAge:     1,
	})
	require.NoError(t, err)

	logger.Info("Test log message")

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Test log message")
}

func TestBaseFields(t *testing.T) {
	var buf bytes.Buffer
	l := logrus.New()
	l.SetOutput(&buf)
	l.SetFormatter(&logrus.JSONFormatter{})

	WithComponent(Base(l), "playback").Info("started")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "termreel", entry["service"])
	assert.Equal(t, "playback", entry["component"])
	assert.Contains(t, entry, "version")
}

func TestAdapter(t *testing.T) {
	l, hook := test.NewNullLogger()
	l.SetLevel(logrus.DebugLevel)
	adapter := NewLogrusAdapter(logrus.NewEntry(l))

	adapter.WithField("frame", 3).Debugf("decoded %d cells", 80)
	require.Len(t, hook.Entries, 1)
	assert.Equal(t, logrus.DebugLevel, hook.LastEntry().Level)
	assert.Equal(t, 3, hook.LastEntry().Data["frame"])
	assert.Equal(t, "decoded 80 cells", hook.LastEntry().Message)

	adapter.WithError(assert.AnError).Error("failed")
	assert.Equal(t, assert.AnError, hook.LastEntry().Data[logrus.ErrorKey])

	adapter.WithFields(Fields{"a": 1, "b": 2}).Log(logrus.WarnLevel, "warned")
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
	assert.Equal(t, 2, hook.LastEntry().Data["b"])
}

func TestDiscard(t *testing.T) {
	l := Discard()
	assert.NotPanics(t, func() {
		l.WithField("k", "v").Error("dropped")
		l.Warnf("dropped %d", 1)
	})
}

func TestLogLevels(t *testing.T) {
	tests := []struct {
		level    string
		expected logrus.Level
	}{
		{"panic", logrus.PanicLevel},
		{"fatal", logrus.FatalLevel},
		{"error", logrus.ErrorLevel},
		{"warn", logrus.WarnLevel},
		{"info", logrus.InfoLevel},
		{"debug", logrus.DebugLevel},
		{"trace", logrus.TraceLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			logger, err := New(&config.LoggingConfig{
				Level:  tt.level,
				Format: "json",
				Output: "discard",
			})
			require.NoError(t, err)
			assert.Equal(t, tt.expected, logger.Level)
		})
	}
}
