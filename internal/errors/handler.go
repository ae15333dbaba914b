package errors

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
)

// Exit codes returned to the shell.
const (
	ExitOK       = 0
	ExitFailure  = 1
	ExitBadInput = 2
)

// ErrorHandler reports fatal errors once the terminal has been restored.
type ErrorHandler struct {
	logger *logrus.Logger
	out    io.Writer
}

// NewErrorHandler creates a new error handler writing user-facing messages to out.
func NewErrorHandler(logger *logrus.Logger, out io.Writer) *ErrorHandler {
	return &ErrorHandler{
		logger: logger,
		out:    out,
	}
}

// HandleError logs err, prints a one-line message and returns the exit code.
func (h *ErrorHandler) HandleError(err error) int {
	if err == nil {
		return ExitOK
	}

	appErr, ok := GetAppError(err)
	if !ok {
		appErr = WrapInternalError(err, "An unexpected error occurred")
	}

	logEntry := h.logger.WithFields(logrus.Fields{
		"error_type": appErr.Type,
		"error_code": appErr.Code,
	})
	for k, v := range appErr.Details {
		logEntry = logEntry.WithField(k, v)
	}

	code := ExitFailure
	switch appErr.Type {
	case ErrorTypeMalformedHeader, ErrorTypeUnsupportedPixelFormat, ErrorTypeOutOfBounds:
		logEntry.Error(err.Error())
	case ErrorTypeConfig:
		logEntry.Warn(err.Error())
		code = ExitBadInput
	default:
		logEntry.Error(err.Error())
	}

	fmt.Fprintf(h.out, "termreel: %v\n", err)
	return code
}

// HandlePanic converts a recovered panic into an internal error report.
func (h *ErrorHandler) HandlePanic(recovered interface{}) int {
	h.logger.WithField("panic", recovered).Error("Panic recovered during playback")
	return h.HandleError(NewInternalError(fmt.Sprintf("panic: %v", recovered)))
}
