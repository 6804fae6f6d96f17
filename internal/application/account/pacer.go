package account

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

const defaultUploadDelay = 50 * time.Millisecond

// Pacer spaces out writes to the remote store. Wait blocks until the next
// write may start or ctx is done.
type Pacer interface {
	Wait(ctx context.Context) error
}

type FixedIntervalPacer struct {
	interval time.Duration
}

func NewFixedIntervalPacer(interval time.Duration) *FixedIntervalPacer {
	if interval < 0 {
		interval = defaultUploadDelay
	}
	return &FixedIntervalPacer{interval: interval}
}

func (p *FixedIntervalPacer) Wait(ctx context.Context) error {
	if p.interval == 0 {
		return ctx.Err()
	}
	if !sleepWithContext(ctx, p.interval) {
		return ctx.Err()
	}
	return nil
}

type TokenBucketPacer struct {
	limiter *rate.Limiter
}

// NewTokenBucketPacer charges one token up front for the write that precedes
// the first Wait, so at most burst writes go out back to back.
func NewTokenBucketPacer(perSecond float64, burst int) *TokenBucketPacer {
	if burst <= 0 {
		burst = 1
	}
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	limiter := rate.NewLimiter(limit, burst)
	limiter.Allow()
	return &TokenBucketPacer{limiter: limiter}
}

func (p *TokenBucketPacer) Wait(ctx context.Context) error {
	return p.limiter.Wait(ctx)
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
