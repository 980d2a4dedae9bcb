package core

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestImportLimiter_AcquireRelease(t *testing.T) {
	limiter := NewImportLimiter(2, time.Second)
	ctx := context.Background()

	if got := limiter.Available(); got != 2 {
		t.Errorf("initial Available = %d, want 2", got)
	}

	if err := limiter.Acquire(ctx); err != nil {
		t.Fatalf("first Acquire failed: %v", err)
	}
	if err := limiter.Acquire(ctx); err != nil {
		t.Fatalf("second Acquire failed: %v", err)
	}
	if got := limiter.ActiveCount(); got != 2 {
		t.Errorf("ActiveCount = %d, want 2", got)
	}
	if got := limiter.Available(); got != 0 {
		t.Errorf("Available = %d, want 0", got)
	}

	limiter.Release()
	limiter.Release()

	if got := limiter.ActiveCount(); got != 0 {
		t.Errorf("final ActiveCount = %d, want 0", got)
	}
}

func TestImportLimiter_FullReturnsTooManyImports(t *testing.T) {
	limiter := NewImportLimiter(1, 50*time.Millisecond)
	ctx := context.Background()

	if err := limiter.Acquire(ctx); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	defer limiter.Release()

	start := time.Now()
	err := limiter.Acquire(ctx)
	if !errors.Is(err, ErrTooManyImports) {
		t.Fatalf("expected ErrTooManyImports, got %v", err)
	}
	if elapsed := time.Since(start); elapsed < 40*time.Millisecond {
		t.Errorf("gave up too fast: %v", elapsed)
	}
	if got := MapError(err).Code; got != "IMP002" {
		t.Errorf("MapError code = %s, want IMP002", got)
	}
}

func TestImportLimiter_NeverExceedsMax(t *testing.T) {
	const maxConcurrent = 3
	limiter := NewImportLimiter(maxConcurrent, time.Second)

	var wg sync.WaitGroup
	var mu sync.Mutex
	maxObserved := 0

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := limiter.Do(context.Background(), func(context.Context) error {
				mu.Lock()
				if n := limiter.ActiveCount(); n > maxObserved {
					maxObserved = n
				}
				mu.Unlock()
				time.Sleep(5 * time.Millisecond)
				return nil
			})
			if err != nil {
				t.Errorf("Do failed: %v", err)
			}
		}()
	}
	wg.Wait()

	if maxObserved > maxConcurrent {
		t.Errorf("observed %d concurrent imports, max %d", maxObserved, maxConcurrent)
	}
	if got := limiter.ActiveCount(); got != 0 {
		t.Errorf("final ActiveCount = %d, want 0", got)
	}
}

func TestImportLimiter_TryAcquire(t *testing.T) {
	limiter := NewImportLimiter(1, time.Second)

	if !limiter.TryAcquire() {
		t.Fatal("first TryAcquire should succeed")
	}
	if limiter.TryAcquire() {
		t.Error("second TryAcquire should fail")
		limiter.Release()
	}
	limiter.Release()

	if !limiter.TryAcquire() {
		t.Error("TryAcquire after Release should succeed")
	}
	limiter.Release()
}

func TestImportLimiter_ContextCancellation(t *testing.T) {
	limiter := NewImportLimiter(1, 5*time.Second)
	if err := limiter.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	defer limiter.Release()

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- limiter.Acquire(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Error("Acquire did not return after cancellation")
	}
}

func TestImportLimiter_WaitForDrain(t *testing.T) {
	limiter := NewImportLimiter(2, time.Second)

	if err := limiter.WaitForDrain(context.Background()); err != nil {
		t.Fatalf("idle WaitForDrain: %v", err)
	}

	limiter.TryAcquire()
	limiter.TryAcquire()

	done := make(chan error, 1)
	go func() { done <- limiter.WaitForDrain(context.Background()) }()

	limiter.Release()
	select {
	case <-done:
		t.Fatal("WaitForDrain returned with one import active")
	case <-time.After(30 * time.Millisecond):
	}

	limiter.Release()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("WaitForDrain: %v", err)
		}
	case <-time.After(time.Second):
		t.Error("WaitForDrain did not return after all released")
	}
}

func TestImportLimiter_WaitForDrainCancelled(t *testing.T) {
	limiter := NewImportLimiter(1, time.Second)
	limiter.TryAcquire()
	defer limiter.Release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := limiter.WaitForDrain(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected DeadlineExceeded, got %v", err)
	}
}

func TestImportLimiter_Defaults(t *testing.T) {
	limiter := NewImportLimiter(0, 0)

	if got := limiter.MaxConcurrent(); got != DefaultMaxConcurrentImports {
		t.Errorf("MaxConcurrent = %d, want %d", got, DefaultMaxConcurrentImports)
	}

	st := limiter.Status()
	if st.Active != 0 || st.Available != DefaultMaxConcurrentImports {
		t.Errorf("Status = %+v", st)
	}
}
