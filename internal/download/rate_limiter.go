package download

import (
	"context"
	"sync"
	"time"
)

// RateLimiter spaces outgoing requests evenly. Admission-board sites throttle
// hard during result season, so each caller reserves the next free slot and
// sleeps until it arrives.
type RateLimiter struct {
	mu       sync.Mutex
	nextSlot time.Time
	interval time.Duration
}

func NewRateLimiter(requestsPerSecond int) *RateLimiter {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 1
	}
	return &RateLimiter{interval: time.Second / time.Duration(requestsPerSecond)}
}

// WaitTurn blocks until this caller's reserved slot, or until ctx is
// cancelled. The slot stays consumed either way, keeping the spacing stable
// across aborted downloads.
func (r *RateLimiter) WaitTurn(ctx context.Context) error {
	r.mu.Lock()
	slot := time.Now()
	if r.nextSlot.After(slot) {
		slot = r.nextSlot
	}
	r.nextSlot = slot.Add(r.interval)
	r.mu.Unlock()

	wait := time.Until(slot)
	if wait <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
