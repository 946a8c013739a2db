package ratelimit

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// Limiter paces outgoing requests. Wait blocks until the next request may
// be sent, or until the context is cancelled.
type Limiter interface {
	Wait(ctx context.Context) error
}

// Jittered delays each request by a duration drawn uniformly from
// [minDelay, maxDelay], measured from the previous request. It is the
// politeness knob, not a guarantee against server-side throttling.
type Jittered struct {
	minDelay   time.Duration
	maxDelay   time.Duration
	lastAction time.Time
	mu         sync.Mutex
}

func NewJittered(minDelay, maxDelay time.Duration) *Jittered {
	return &Jittered{
		minDelay: minDelay,
		maxDelay: maxDelay,
	}
}

func (r *Jittered) Wait(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	elapsed := time.Since(r.lastAction)
	delay := r.delay()

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

func (r *Jittered) delay() time.Duration {
	if r.maxDelay <= r.minDelay {
		return r.minDelay
	}
	return r.minDelay + time.Duration(rand.Int63n(int64(r.maxDelay-r.minDelay)+1))
}

// None performs no pacing. Used by tests and by callers that pace
// externally.
type None struct{}

func (None) Wait(ctx context.Context) error {
	return ctx.Err()
}
