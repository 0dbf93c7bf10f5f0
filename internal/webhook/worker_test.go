package webhook

import (
	"sync/atomic"
	"testing"
)

func TestPoolRunsSubmittedTasks(t *testing.T) {
	pool := NewPool(2, 16)
	var count atomic.Int64
	for i := 0; i < 10; i++ {
		if !pool.Submit(func() { count.Add(1) }) {
			t.Fatalf("submit %d rejected", i)
		}
	}
	pool.Stop()
	if got := count.Load(); got != 10 {
		t.Fatalf("ran %d tasks, want 10", got)
	}
}

func TestPoolStopDrainsQueue(t *testing.T) {
	release := make(chan struct{})
	pool := NewPool(1, 8)
	var count atomic.Int64

	pool.Submit(func() { <-release })
	for i := 0; i < 5; i++ {
		pool.Submit(func() { count.Add(1) })
	}

	close(release)
	pool.Stop()
	if got := count.Load(); got != 5 {
		t.Fatalf("queued tasks not drained on stop: ran %d, want 5", got)
	}
}

func TestPoolDropsWhenFull(t *testing.T) {
	release := make(chan struct{})
	pool := NewPool(1, 1)

	// Occupy the single worker, then fill the single queue slot.
	pool.Submit(func() { <-release })
	pool.Submit(func() {})

	if pool.Submit(func() { t.Error("dropped task must not run") }) {
		t.Fatalf("submit to a full queue should be rejected")
	}

	close(release)
	pool.Stop()
}

func TestPoolRejectsAfterStop(t *testing.T) {
	pool := NewPool(1, 4)
	pool.Stop()
	if pool.Submit(func() {}) {
		t.Fatalf("submit after stop should be rejected")
	}
	// Second stop is a no-op.
	pool.Stop()
}
