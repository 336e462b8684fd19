// Package ratelimit bounds how often the web form endpoints will start a
// diagnostic run. An exposed smtptool/ldaptool port must not be usable as a
// mail or bind amplifier, so POST handling goes through a token bucket.
package ratelimit

import (
	"context"

	"golang.org/x/time/rate"
)

// Limiter wraps a token bucket with a burst of one. A rate of 0 (or less)
// disables limiting entirely.
type Limiter struct {
	limiter *rate.Limiter
	rps     float64
}

// New creates a Limiter allowing rps runs per second.
func New(rps float64) *Limiter {
	if rps <= 0 {
		return &Limiter{}
	}
	return &Limiter{
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		rps:     rps,
	}
}

// Enabled reports whether limiting is active.
func (l *Limiter) Enabled() bool {
	return l.limiter != nil
}

// RPS returns the configured rate, 0 when disabled.
func (l *Limiter) RPS() float64 {
	return l.rps
}

// Wait blocks until a token is available or the context is done.
func (l *Limiter) Wait(ctx context.Context) error {
	if l.limiter == nil {
		return nil
	}
	return l.limiter.Wait(ctx)
}

// Allow reports whether a run may start right now, consuming a token if so.
func (l *Limiter) Allow() bool {
	if l.limiter == nil {
		return true
	}
	return l.limiter.Allow()
}
