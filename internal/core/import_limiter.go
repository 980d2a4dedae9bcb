package core

// import_limiter.go bounds how many CSV imports run at once. A semaphore
// channel holds the slots; a request that cannot get one within maxWait
// fails with ErrTooManyImports so the handler can answer 429. WaitForDrain
// lets shutdown wait for running imports.

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrTooManyImports is returned when every import slot stays busy for the
// whole wait. Clients should retry after a short delay.
var ErrTooManyImports = errors.New("too many concurrent imports, please try again later")

// DefaultMaxConcurrentImports is used when the configured limit is not positive.
const DefaultMaxConcurrentImports = 3

// DefaultImportWait is used when the configured wait is not positive.
const DefaultImportWait = 10 * time.Second

// ImportLimiter controls concurrent import processing.
type ImportLimiter struct {
	semaphore chan struct{}
	maxWait   time.Duration

	mu      sync.Mutex
	active  int
	drained chan struct{} // closed while active == 0
}

// NewImportLimiter creates a limiter allowing maxConcurrent simultaneous
// imports, each waiting at most maxWait for a slot.
func NewImportLimiter(maxConcurrent int, maxWait time.Duration) *ImportLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentImports
	}
	if maxWait <= 0 {
		maxWait = DefaultImportWait
	}

	drained := make(chan struct{})
	close(drained)
	return &ImportLimiter{
		semaphore: make(chan struct{}, maxConcurrent),
		maxWait:   maxWait,
		drained:   drained,
	}
}

func (l *ImportLimiter) enter() {
	l.mu.Lock()
	if l.active == 0 {
		l.drained = make(chan struct{})
	}
	l.active++
	l.mu.Unlock()
}

// Acquire waits for an import slot.
// The caller MUST call Release when the import completes.
func (l *ImportLimiter) Acquire(ctx context.Context) error {
	timer := time.NewTimer(l.maxWait)
	defer timer.Stop()

	select {
	case l.semaphore <- struct{}{}:
		l.enter()
		return nil
	case <-timer.C:
		return ErrTooManyImports
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TryAcquire takes a slot without blocking.
func (l *ImportLimiter) TryAcquire() bool {
	select {
	case l.semaphore <- struct{}{}:
		l.enter()
		return true
	default:
		return false
	}
}

// Release returns a slot taken by Acquire or TryAcquire.
func (l *ImportLimiter) Release() {
	l.mu.Lock()
	l.active--
	if l.active == 0 {
		close(l.drained)
	}
	l.mu.Unlock()

	<-l.semaphore
}

// Do runs fn while holding a slot.
func (l *ImportLimiter) Do(ctx context.Context, fn func(context.Context) error) error {
	if err := l.Acquire(ctx); err != nil {
		return err
	}
	defer l.Release()
	return fn(ctx)
}

// ActiveCount returns the number of running imports.
func (l *ImportLimiter) ActiveCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.active
}

// MaxConcurrent returns the slot count.
func (l *ImportLimiter) MaxConcurrent() int {
	return cap(l.semaphore)
}

// Available returns the number of free slots.
func (l *ImportLimiter) Available() int {
	return cap(l.semaphore) - len(l.semaphore)
}

// WaitForDrain blocks until no import is running or ctx ends.
func (l *ImportLimiter) WaitForDrain(ctx context.Context) error {
	l.mu.Lock()
	drained := l.drained
	l.mu.Unlock()

	select {
	case <-drained:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ImportLimiterStatus is a snapshot of the limiter for the stats endpoint.
type ImportLimiterStatus struct {
	Active        int `json:"active"`
	Available     int `json:"available"`
	MaxConcurrent int `json:"max_concurrent"`
}

// Status returns the current limiter state.
func (l *ImportLimiter) Status() ImportLimiterStatus {
	return ImportLimiterStatus{
		Active:        l.ActiveCount(),
		Available:     l.Available(),
		MaxConcurrent: l.MaxConcurrent(),
	}
}
