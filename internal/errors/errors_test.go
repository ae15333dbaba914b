package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError(t *testing.T) {
	t.Run("New creates error correctly", func(t *testing.T) {
		err := New(ErrorTypeConfig, "Invalid fps")

		assert.Equal(t, ErrorTypeConfig, err.Type)
		assert.Equal(t, "Invalid fps", err.Message)
		assert.Equal(t, "CONFIG_ERROR: Invalid fps", err.Error())
	})

	t.Run("Wrap wraps error correctly", func(t *testing.T) {
		originalErr := errors.New("exit status 1")
		err := Wrap(originalErr, ErrorTypeTranscode, "ffmpeg failed")

		assert.Equal(t, ErrorTypeTranscode, err.Type)
		assert.Equal(t, originalErr, err.Unwrap())
		assert.Contains(t, err.Error(), "exit status 1")
	})

	t.Run("WithDetails adds details", func(t *testing.T) {
		err := New(ErrorTypeOutOfBounds, "row past end")
		details := map[string]interface{}{"start": 10, "end": 20}
		_ = err.WithDetails(details)

		assert.Equal(t, details, err.Details)
	})

	t.Run("WithCode adds code", func(t *testing.T) {
		err := New(ErrorTypeInternal, "boom").WithCode("ERR_001")
		assert.Equal(t, "ERR_001", err.Code)
	})
}

func TestDecodeErrorConstructors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
		wantType ErrorType
	}{
		{
			name:     "malformed header",
			err:      NewMalformedHeaderError(64, "header truncated"),
			sentinel: ErrMalformedHeader,
			wantType: ErrorTypeMalformedHeader,
		},
		{
			name:     "unsupported pixel format",
			err:      NewUnsupportedPixelFormatError(0, 32),
			sentinel: ErrUnsupportedPixelFormat,
			wantType: ErrorTypeUnsupportedPixelFormat,
		},
		{
			name:     "out of bounds",
			err:      NewOutOfBoundsError("row", 100, 112, 108),
			sentinel: ErrOutOfBounds,
			wantType: ErrorTypeOutOfBounds,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.err, tt.sentinel)
			assert.True(t, IsType(tt.err, tt.wantType))
			assert.True(t, IsDecodeError(tt.err))

			wrapped := fmt.Errorf("frame 3: %w", tt.err)
			assert.ErrorIs(t, wrapped, tt.sentinel)
			assert.True(t, IsDecodeError(wrapped))
		})
	}
}

func TestSentinelsAreDistinct(t *testing.T) {
	err := NewOutOfBoundsError("frame", 0, 10, 5)
	assert.NotErrorIs(t, err, ErrMalformedHeader)
	assert.NotErrorIs(t, err, ErrUnsupportedPixelFormat)
	assert.False(t, IsDecodeError(WrapAudioError(errors.New("x"), "ffplay")))
}

func TestOutOfBoundsMessage(t *testing.T) {
	err := NewOutOfBoundsError("row", 100, 112, 108)
	assert.Equal(t, "OUT_OF_BOUNDS: row [100, 112) exceeds stream length 108", err.Error())
	assert.Equal(t, 108, err.Details["length"])
}

func TestGetAppError(t *testing.T) {
	t.Run("extracts wrapped AppError", func(t *testing.T) {
		originalErr := NewConfigError("bad")
		appErr, ok := GetAppError(fmt.Errorf("load: %w", originalErr))

		assert.True(t, ok)
		assert.Equal(t, originalErr, appErr)
	})

	t.Run("returns false for non-AppError", func(t *testing.T) {
		appErr, ok := GetAppError(errors.New("standard error"))

		assert.False(t, ok)
		assert.Nil(t, appErr)
		assert.False(t, IsAppError(errors.New("standard error")))
	})
}
