package transcribe

import (
	"context"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// DefaultPacing is the minimum gap between calls to the speech service.
const DefaultPacing = time.Second

// Pacer serializes external calls and spaces their starts by at least the
// configured interval. One Pacer is shared by everything that talks to the
// same service, including retries and concurrent file extractions.
type Pacer struct {
	sem     *semaphore.Weighted
	limiter *rate.Limiter
}

// NewPacer creates a pacer. A non-positive interval only serializes.
func NewPacer(interval time.Duration) *Pacer {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &Pacer{
		sem:     semaphore.NewWeighted(1),
		limiter: rate.NewLimiter(limit, 1),
	}
}

// Do waits for its turn, runs fn, and returns fn's error. It returns the
// context error without running fn if ctx ends while waiting.
func (p *Pacer) Do(ctx context.Context, fn func() error) error {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer p.sem.Release(1)

	if err := p.limiter.Wait(ctx); err != nil {
		return err
	}
	return fn()
}
