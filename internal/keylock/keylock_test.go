package keylock

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestAcquireRelease(t *testing.T) {
	m := New[string]()

	if err := m.Acquire(context.Background(), "a"); err != nil {
		t.Fatalf("unexpected acquire error: %v", err)
	}
	m.Release("a")

	// Re-acquire after release must succeed immediately.
	if err := m.Acquire(context.Background(), "a"); err != nil {
		t.Fatalf("unexpected re-acquire error: %v", err)
	}
	m.Release("a")
}

func TestIndependentKeys(t *testing.T) {
	m := New[string]()

	if err := m.Acquire(context.Background(), "a"); err != nil {
		t.Fatalf("unexpected acquire error: %v", err)
	}
	defer m.Release("a")

	// A different key must not block behind "a".
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := m.Acquire(ctx, "b"); err != nil {
		t.Fatalf("independent key blocked: %v", err)
	}
	m.Release("b")
}

func TestAcquireDeadline(t *testing.T) {
	m := New[string]()

	if err := m.Acquire(context.Background(), "a"); err != nil {
		t.Fatalf("unexpected acquire error: %v", err)
	}
	defer m.Release("a")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := m.Acquire(ctx, "a"); err != context.DeadlineExceeded {
		t.Fatalf("expected DeadlineExceeded, got %v", err)
	}
}

func TestMutualExclusion(t *testing.T) {
	m := New[int]()

	var counter, max int
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := m.Acquire(context.Background(), 7); err != nil {
				t.Errorf("acquire failed: %v", err)
				return
			}
			mu.Lock()
			counter++
			if counter > max {
				max = counter
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			counter--
			mu.Unlock()
			m.Release(7)
		}()
	}
	wg.Wait()

	if max != 1 {
		t.Errorf("expected at most 1 concurrent holder, observed %d", max)
	}
}

func TestEntryCleanup(t *testing.T) {
	m := New[string]()

	if err := m.Acquire(context.Background(), "a"); err != nil {
		t.Fatalf("unexpected acquire error: %v", err)
	}
	m.Release("a")

	m.mu.Lock()
	n := len(m.entries)
	m.mu.Unlock()
	if n != 0 {
		t.Errorf("expected entries map to be empty after release, got %d entries", n)
	}
}
