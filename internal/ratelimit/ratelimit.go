package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/amishk599/jobscout/internal/model"
)

// SourceLimiter spaces out requests to the same job site. Each source gets
// its own token bucket, so a slow site never delays the others.
type SourceLimiter struct {
	mu       sync.Mutex
	limiters map[model.Source]*rate.Limiter
	every    time.Duration
	burst    int
}

// NewSourceLimiter creates a limiter allowing burst requests per source, then
// one every interval.
func NewSourceLimiter(every time.Duration, burst int) *SourceLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &SourceLimiter{
		limiters: make(map[model.Source]*rate.Limiter),
		every:    every,
		burst:    burst,
	}
}

// SetSourceLimit overrides the default policy for one source.
func (l *SourceLimiter) SetSourceLimit(source model.Source, every time.Duration, burst int) {
	if every <= 0 || burst <= 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.limiters[source] = rate.NewLimiter(rate.Every(every), burst)
}

func (l *SourceLimiter) limiterFor(source model.Source) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	lim, ok := l.limiters[source]
	if !ok {
		limit := rate.Inf
		if l.every > 0 {
			limit = rate.Every(l.every)
		}
		lim = rate.NewLimiter(limit, l.burst)
		l.limiters[source] = lim
	}
	return lim
}

// Wait blocks until a request to source is allowed.
// Returns an error if the context is cancelled while waiting.
func (l *SourceLimiter) Wait(ctx context.Context, source model.Source) error {
	if err := l.limiterFor(source).Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait for %s: %w", source, err)
	}
	return nil
}

var _ model.SourceAdapter = (*Adapter)(nil)

// Adapter is a decorator that enforces the per-source rate limit before
// delegating to the wrapped adapter.
type Adapter struct {
	inner   model.SourceAdapter
	limiter *SourceLimiter
}

// NewAdapter wraps a SourceAdapter with rate limiting. Adapters for the same
// source should share one limiter.
func NewAdapter(inner model.SourceAdapter, limiter *SourceLimiter) *Adapter {
	return &Adapter{inner: inner, limiter: limiter}
}

func (a *Adapter) Source() model.Source { return a.inner.Source() }

// Fetch waits for the limiter, then delegates to the wrapped adapter.
func (a *Adapter) Fetch(ctx context.Context, term string) ([]model.RawListing, error) {
	if err := a.limiter.Wait(ctx, a.inner.Source()); err != nil {
		return nil, err
	}
	return a.inner.Fetch(ctx, term)
}
