package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType represents the type of error.
type ErrorType string

const (
	ErrorTypeMalformedHeader        ErrorType = "MALFORMED_HEADER"
	ErrorTypeUnsupportedPixelFormat ErrorType = "UNSUPPORTED_PIXEL_FORMAT"
	ErrorTypeOutOfBounds            ErrorType = "OUT_OF_BOUNDS"
	ErrorTypeConfig                 ErrorType = "CONFIG_ERROR"
	ErrorTypeTranscode              ErrorType = "TRANSCODE_ERROR"
	ErrorTypeAudio                  ErrorType = "AUDIO_ERROR"
	ErrorTypeTerminal               ErrorType = "TERMINAL_ERROR"
	ErrorTypeCache                  ErrorType = "CACHE_ERROR"
	ErrorTypeInternal               ErrorType = "INTERNAL_ERROR"
)

// Sentinels for errors.Is checks against the decode error kinds.
var (
	ErrMalformedHeader        = &AppError{Type: ErrorTypeMalformedHeader, Message: "malformed frame header"}
	ErrUnsupportedPixelFormat = &AppError{Type: ErrorTypeUnsupportedPixelFormat, Message: "unsupported pixel format"}
	ErrOutOfBounds            = &AppError{Type: ErrorTypeOutOfBounds, Message: "frame data out of bounds"}
)

// AppError represents an application error with additional context.
type AppError struct {
	Type    ErrorType              `json:"type"`
	Message string                 `json:"message"`
	Code    string                 `json:"code,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
	Err     error                  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the wrapped error.
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is reports whether target is an AppError of the same type.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Type == e.Type
}

// WithDetails adds details to the error.
func (e *AppError) WithDetails(details map[string]interface{}) *AppError {
	e.Details = details
	return e
}

// WithCode adds an error code.
func (e *AppError) WithCode(code string) *AppError {
	e.Code = code
	return e
}

// New creates a new AppError.
func New(errType ErrorType, message string) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
	}
}

// Wrap wraps an existing error.
func Wrap(err error, errType ErrorType, message string) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Err:     err,
	}
}

// Decode error constructors.

// NewMalformedHeaderError reports header fields that cannot be read or trusted
// at the given frame offset.
func NewMalformedHeaderError(offset int, reason string) *AppError {
	return New(ErrorTypeMalformedHeader, reason).WithDetails(map[string]interface{}{
		"offset": offset,
	})
}

// NewUnsupportedPixelFormatError reports a bits-per-pixel value other than 24.
func NewUnsupportedPixelFormatError(offset int, bitsPerPixel uint8) *AppError {
	return New(ErrorTypeUnsupportedPixelFormat,
		fmt.Sprintf("%d bits per pixel is not supported, only 24", bitsPerPixel)).
		WithDetails(map[string]interface{}{
			"offset":         offset,
			"bits_per_pixel": bitsPerPixel,
		})
}

// NewOutOfBoundsError reports an extent [start, end) that does not fit in a
// stream of the given length.
func NewOutOfBoundsError(what string, start, end, length int) *AppError {
	return New(ErrorTypeOutOfBounds,
		fmt.Sprintf("%s [%d, %d) exceeds stream length %d", what, start, end, length)).
		WithDetails(map[string]interface{}{
			"start":  start,
			"end":    end,
			"length": length,
		})
}

// Collaborator error constructors.

// NewConfigError creates a configuration error.
func NewConfigError(message string) *AppError {
	return New(ErrorTypeConfig, message)
}

// WrapTranscodeError wraps a transcoder failure.
func WrapTranscodeError(err error, message string) *AppError {
	return Wrap(err, ErrorTypeTranscode, message)
}

// WrapAudioError wraps an audio playback failure.
func WrapAudioError(err error, message string) *AppError {
	return Wrap(err, ErrorTypeAudio, message)
}

// WrapTerminalError wraps a terminal setup or teardown failure.
func WrapTerminalError(err error, message string) *AppError {
	return Wrap(err, ErrorTypeTerminal, message)
}

// WrapCacheError wraps a cache read or write failure.
func WrapCacheError(err error, message string) *AppError {
	return Wrap(err, ErrorTypeCache, message)
}

// NewInternalError creates an internal error.
func NewInternalError(message string) *AppError {
	return New(ErrorTypeInternal, message)
}

// WrapInternalError wraps an error as internal error.
func WrapInternalError(err error, message string) *AppError {
	return Wrap(err, ErrorTypeInternal, message)
}

// IsAppError checks if an error is, or wraps, an AppError.
func IsAppError(err error) bool {
	_, ok := GetAppError(err)
	return ok
}

// GetAppError extracts the outermost AppError from an error chain.
func GetAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsType reports whether err wraps an AppError of the given type.
func IsType(err error, errType ErrorType) bool {
	return stderrors.Is(err, &AppError{Type: errType})
}

// IsDecodeError reports whether err is one of the frame stream decode kinds.
func IsDecodeError(err error) bool {
	return stderrors.Is(err, ErrMalformedHeader) ||
		stderrors.Is(err, ErrUnsupportedPixelFormat) ||
		stderrors.Is(err, ErrOutOfBounds)
}
