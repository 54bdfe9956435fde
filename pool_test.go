package bookfilter

import (
	"runtime"
	"sync"
	"testing"
	"time"
)

func TestResolvePoolSize(t *testing.T) {
	t.Parallel()

	gomaxprocs := runtime.GOMAXPROCS(0)

	tests := []struct {
		name    string
		workers int
		want    int
	}{
		{"explicit takes priority", 4, 4},
		{"explicit one for sequential proofing", 1, 1},
		{"explicit can exceed the auto cap", 16, 16},
		{"zero derives from CPU count", 0, min(max(gomaxprocs/cpuDivisor, MinPoolSize), MaxPoolSize)},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := ResolvePoolSize(tt.workers)
			if got != tt.want {
				t.Errorf("ResolvePoolSize(%d) = %d, want %d", tt.workers, got, tt.want)
			}
		})
	}
}

func TestResolvePoolSizeAutoBounds(t *testing.T) {
	t.Parallel()

	got := ResolvePoolSize(0)
	if got < MinPoolSize || got > MaxPoolSize {
		t.Errorf("ResolvePoolSize(0) = %d, want between %d and %d", got, MinPoolSize, MaxPoolSize)
	}
}

func TestRendererPoolSize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		n    int
		want int
	}{
		{"size 1", 1, 1},
		{"size 4", 4, 4},
		{"size 0 becomes 1", 0, 1},
		{"negative becomes 1", -1, 1},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			pool := NewRendererPool(tt.n, 0)
			defer pool.Close()

			if got := pool.Size(); got != tt.want {
				t.Errorf("Size() = %d, want %d", got, tt.want)
			}
		})
	}
}

// Renderers are created lazily and do not launch a browser until the first
// page render, so acquire/release can be exercised without Chrome.
func TestRendererPoolAcquireRelease(t *testing.T) {
	t.Parallel()

	pool := NewRendererPool(2, time.Minute)
	defer pool.Close()

	r1 := pool.Acquire()
	if r1 == nil {
		t.Fatal("Acquire() returned nil")
	}
	r2 := pool.Acquire()
	if r2 == nil {
		t.Fatal("Acquire() returned nil")
	}
	if r1 == r2 {
		t.Error("expected distinct renderer instances")
	}

	pool.Release(r1)
	r3 := pool.Acquire()
	if r3 != r1 {
		t.Error("expected to get back the released renderer")
	}

	pool.Release(r2)
	pool.Release(r3)
}

func TestRendererPoolConcurrentAccess(t *testing.T) {
	t.Parallel()

	pool := NewRendererPool(4, time.Minute)
	defer pool.Close()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r := pool.Acquire()
			time.Sleep(2 * time.Millisecond)
			pool.Release(r)
		}()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("concurrent acquire/release timed out, possible deadlock")
	}
}

func TestRendererPoolReleaseAfterClose(t *testing.T) {
	t.Parallel()

	pool := NewRendererPool(2, 0)

	r := pool.Acquire()
	if err := pool.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	pool.Release(r) // no-op, must not panic
}

func TestRendererPoolDoubleClose(t *testing.T) {
	t.Parallel()

	pool := NewRendererPool(1, 0)

	if err := pool.Close(); err != nil {
		t.Errorf("first Close() error = %v", err)
	}
	if err := pool.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}
