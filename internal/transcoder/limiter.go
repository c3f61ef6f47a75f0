package transcoder

import (
	"context"
	"sync/atomic"

	"media-dashboard/internal/metrics"
)

// Limiter bounds the number of concurrently running encoder processes.
// Requests beyond the cap wait in FIFO-ish order until a slot frees or their
// context is canceled.
type Limiter struct {
	slots   chan struct{}
	waiting atomic.Int64
}

// NewLimiter creates a limiter with max concurrent slots. max must be >= 1.
func NewLimiter(max int) *Limiter {
	if max < 1 {
		max = 1
	}
	return &Limiter{slots: make(chan struct{}, max)}
}

// Acquire blocks until an encoder slot is available or ctx is canceled.
func (l *Limiter) Acquire(ctx context.Context) error {
	select {
	case l.slots <- struct{}{}:
		return nil
	default:
	}

	l.waiting.Add(1)
	metrics.TranscodeQueueDepth.Set(float64(l.waiting.Load()))
	defer func() {
		l.waiting.Add(-1)
		metrics.TranscodeQueueDepth.Set(float64(l.waiting.Load()))
	}()

	select {
	case l.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release frees a slot acquired with Acquire.
func (l *Limiter) Release() {
	<-l.slots
}

// Active returns the number of occupied slots.
func (l *Limiter) Active() int {
	return len(l.slots)
}

// Waiting returns the number of requests queued for a slot.
func (l *Limiter) Waiting() int {
	return int(l.waiting.Load())
}
