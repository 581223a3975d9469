package ratelimit

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// Limiter paces successive product-page fetches with a jittered delay so
// the scrape traffic doesn't form a recognizable cadence.
type Limiter struct {
	minDelay   time.Duration
	maxDelay   time.Duration
	lastAction time.Time
	mu         sync.Mutex
}

func New(minDelay, maxDelay time.Duration) *Limiter {
	return &Limiter{
		minDelay: minDelay,
		maxDelay: maxDelay,
	}
}

// Wait blocks until at least a jittered delay has passed since the previous
// action, or the context is cancelled.
func (r *Limiter) Wait(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	elapsed := time.Since(r.lastAction)
	delay := r.calculateDelay()

	if elapsed < delay {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay - elapsed):
		}
	}

	r.lastAction = time.Now()
	return nil
}

func (r *Limiter) calculateDelay() time.Duration {
	if r.maxDelay <= r.minDelay {
		return r.minDelay
	}

	jitter := time.Duration(rand.Int63n(int64(r.maxDelay - r.minDelay)))
	return r.minDelay + jitter
}
