package util

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Limiter is a token bucket. A non-positive rate never throttles.
type Limiter struct {
	inner *rate.Limiter
}

// NewLimiter creates a limiter refilling perSecond tokens with the given burst.
func NewLimiter(perSecond float64, burst int) *Limiter {
	limit := rate.Limit(perSecond)
	if perSecond <= 0 {
		limit = rate.Inf
	}
	if burst < 1 {
		burst = 1
	}
	return &Limiter{inner: rate.NewLimiter(limit, burst)}
}

// Allow reports whether one event may happen now and consumes its token.
func (l *Limiter) Allow() bool {
	return l.inner.AllowN(time.Now(), 1)
}

// Wait blocks until a token is available or ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	return l.inner.WaitN(ctx, 1)
}

// Delay returns how long a caller would have to wait for the next token
// without consuming it.
func (l *Limiter) Delay() time.Duration {
	r := l.inner.ReserveN(time.Now(), 1)
	defer r.Cancel()
	return r.Delay()
}
