package logger

import (
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// RateLimited forwards at most a bounded number of messages per interval
// and counts the rest. It is meant for per-frame warnings.
type RateLimited struct {
	base    Logger
	limiter *rate.Limiter
	dropped atomic.Int64
}

// NewRateLimited allows burst messages at once and then one per every.
func NewRateLimited(base Logger, every time.Duration, burst int) *RateLimited {
	return &RateLimited{
		base:    base,
		limiter: rate.NewLimiter(rate.Every(every), burst),
	}
}

// Logger returns base for this message if the limiter allows it. Messages
// let through after a suppressed run carry a "suppressed" count.
func (r *RateLimited) Logger() (Logger, bool) {
	if !r.limiter.Allow() {
		r.dropped.Add(1)
		return nil, false
	}
	if n := r.dropped.Swap(0); n > 0 {
		return r.base.WithField("suppressed", n), true
	}
	return r.base, true
}

// Warn logs at warn level if allowed.
func (r *RateLimited) Warn(fields Fields, msg string) {
	if l, ok := r.Logger(); ok {
		l.WithFields(fields).Warn(msg)
	}
}

// Dropped returns the number of messages suppressed since the last one
// that was let through.
func (r *RateLimited) Dropped() int64 {
	return r.dropped.Load()
}
