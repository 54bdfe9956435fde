package bookfilter

import (
	"errors"
	"runtime"
	"sync"
	"time"
)

// Pool sizing constants.
const (
	// MinPoolSize ensures at least one renderer is available.
	MinPoolSize = 1

	// MaxPoolSize caps browser instances to limit memory (~200MB each).
	MaxPoolSize = 8

	// cpuDivisor leaves headroom for Chrome child processes.
	cpuDivisor = 2
)

// RendererPool manages proof renderers for proofing many chunked pages in
// parallel. Each renderer owns its own browser instance, so pool capacity
// bounds the number of concurrent browsers. Renderers are created lazily on
// first acquire.
type RendererPool struct {
	size    int
	timeout time.Duration

	renderers []*ProofRenderer
	sem       chan *ProofRenderer
	mu        sync.Mutex
	created   int
	closed    bool
}

// NewRendererPool creates a pool with capacity for n proof renderers, each
// with the given page-render timeout.
func NewRendererPool(n int, timeout time.Duration) *RendererPool {
	if n < 1 {
		n = 1
	}
	return &RendererPool{
		size:      n,
		timeout:   timeout,
		renderers: make([]*ProofRenderer, 0, n),
		sem:       make(chan *ProofRenderer, n),
	}
}

// Acquire gets a renderer from the pool, creating one if capacity allows.
// Blocks if every renderer is in use.
func (p *RendererPool) Acquire() *ProofRenderer {
	select {
	case r := <-p.sem:
		return r
	default:
	}

	p.mu.Lock()
	if p.created < p.size {
		p.created++
		p.mu.Unlock()

		r := NewProofRenderer(p.timeout)

		p.mu.Lock()
		p.renderers = append(p.renderers, r)
		p.mu.Unlock()

		return r
	}
	p.mu.Unlock()

	return <-p.sem
}

// Release returns a renderer to the pool.
func (p *RendererPool) Release(r *ProofRenderer) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()

	p.sem <- r
}

// Close shuts down every renderer's browser. Returns an aggregated error
// when several fail to close.
func (p *RendererPool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.sem)
	renderers := p.renderers
	p.mu.Unlock()

	var errs []error
	for _, r := range renderers {
		if err := r.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Size returns the pool capacity.
func (p *RendererPool) Size() int {
	return p.size
}

// ResolvePoolSize determines the pool size. An explicit worker count takes
// priority; otherwise the size derives from GOMAXPROCS (adjusted by
// automaxprocs in containers).
func ResolvePoolSize(workers int) int {
	if workers > 0 {
		return workers
	}

	available := runtime.GOMAXPROCS(0)
	n := available / cpuDivisor

	if n < MinPoolSize {
		return MinPoolSize
	}
	if n > MaxPoolSize {
		return MaxPoolSize
	}
	return n
}
