package logger

import (
	"context"

	"github.com/google/uuid"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const (
	// LoggerKey is the context key for the logger
	LoggerKey contextKey = "logger"
	// SessionIDKey is the context key for the playback session ID
	SessionIDKey contextKey = "session_id"
)

// WithLogger adds a logger to the context.
func WithLogger(ctx context.Context, l Logger) context.Context {
	return context.WithValue(ctx, LoggerKey, l)
}

// FromContext retrieves the logger from context, or a discarding logger.
func FromContext(ctx context.Context) Logger {
	if l, ok := ctx.Value(LoggerKey).(Logger); ok {
		return l
	}
	return Discard()
}

// NewSession starts a playback session: it generates a session ID, stores
// it in the context and tags the returned logger with it.
func NewSession(ctx context.Context, l Logger) (context.Context, Logger) {
	id := uuid.New().String()
	l = l.WithField("session_id", id)
	ctx = context.WithValue(ctx, SessionIDKey, id)
	return WithLogger(ctx, l), l
}

// GetSessionID retrieves the session ID from context.
func GetSessionID(ctx context.Context) string {
	if id, ok := ctx.Value(SessionIDKey).(string); ok {
		return id
	}
	return ""
}
