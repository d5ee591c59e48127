package core

// limiter.go bounds how many file computations run at once.
//
// Each area or volume computation holds one slot while its files are read
// and parsed. When all slots are taken, callers wait up to maxWait and then
// fail with ErrBusy. WaitForDrain lets shutdown finish in-flight work.

import (
	"context"
	"errors"
	"sync/atomic"
	"time"
)

// ErrBusy is returned when no computation slot frees up within the wait
// timeout. Clients should retry after a short delay.
var ErrBusy = errors.New("too many concurrent computations, please try again later")

// DefaultMaxConcurrent is the default number of parallel computations.
const DefaultMaxConcurrent = 8

// DefaultMaxWait is how long to wait for a slot before rejecting.
const DefaultMaxWait = 10 * time.Second

// Limiter is a counting semaphore over computation slots.
type Limiter struct {
	slots   chan struct{}
	maxWait time.Duration
	active  atomic.Int64
}

// NewLimiter allows at most maxConcurrent simultaneous computations.
// Non-positive arguments fall back to the defaults.
func NewLimiter(maxConcurrent int, maxWait time.Duration) *Limiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrent
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWait
	}
	return &Limiter{
		slots:   make(chan struct{}, maxConcurrent),
		maxWait: maxWait,
	}
}

// Acquire takes a free slot at once, or waits at most maxWait for one. The
// caller must Release after a nil return.
func (l *Limiter) Acquire(ctx context.Context) error {
	if l.TryAcquire() {
		return nil
	}

	timer := time.NewTimer(l.maxWait)
	defer timer.Stop()

	select {
	case l.slots <- struct{}{}:
		l.active.Add(1)
		return nil
	case <-timer.C:
		return ErrBusy
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TryAcquire takes a slot without blocking.
func (l *Limiter) TryAcquire() bool {
	select {
	case l.slots <- struct{}{}:
		l.active.Add(1)
		return true
	default:
		return false
	}
}

// Release returns a slot taken by Acquire or TryAcquire.
func (l *Limiter) Release() {
	l.active.Add(-1)
	<-l.slots
}

// ActiveCount returns the number of computations holding a slot.
func (l *Limiter) ActiveCount() int {
	return int(l.active.Load())
}

// WaitForDrain blocks until no computation holds a slot or ctx is done.
func (l *Limiter) WaitForDrain(ctx context.Context) error {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		if l.ActiveCount() == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// LimiterStatus is a snapshot of the limiter for monitoring.
type LimiterStatus struct {
	Active        int `json:"active"`
	Available     int `json:"available"`
	MaxConcurrent int `json:"max_concurrent"`
}

// Status returns the current limiter state.
func (l *Limiter) Status() LimiterStatus {
	return LimiterStatus{
		Active:        l.ActiveCount(),
		Available:     cap(l.slots) - len(l.slots),
		MaxConcurrent: cap(l.slots),
	}
}
