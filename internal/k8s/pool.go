package k8s

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/k8s-pilot/k8s-pilot/internal/kubecontext"
)

// PoolMetrics receives cache events from the pool. Implementations must be
// safe for concurrent use. A nil metrics callback disables reporting.
type PoolMetrics interface {
	OnHit(contextName string)
	OnMiss(contextName string)
	OnConstruction(contextName string, err error)
	OnSizeChange(size int)
}

// buildFunc constructs a client bundle for one descriptor. Swapped out in
// tests.
type buildFunc func(ctx context.Context, desc *kubecontext.Descriptor, cfg BuildConfig) (*ClientSet, error)

// Pool lazily constructs and memoizes one ClientSet per context name.
//
// Invariants:
//   - at most one live ClientSet per context name,
//   - concurrent misses for one context perform exactly one construction,
//   - failed constructions are not cached.
type Pool struct {
	cfg     BuildConfig
	build   buildFunc
	metrics PoolMetrics

	mu      sync.RWMutex
	clients map[string]*ClientSet

	group singleflight.Group
}

// PoolOption customizes a Pool.
type PoolOption func(*Pool)

// WithPoolMetrics attaches a metrics callback to the pool.
func WithPoolMetrics(m PoolMetrics) PoolOption {
	return func(p *Pool) { p.metrics = m }
}

// withBuildFunc overrides client construction; used by tests.
func withBuildFunc(fn buildFunc) PoolOption {
	return func(p *Pool) { p.build = fn }
}

// NewPool creates an empty pool. Clients are constructed on first use per
// context and retained for the life of the process.
func NewPool(cfg BuildConfig, opts ...PoolOption) *Pool {
	p := &Pool{
		cfg:     cfg.withDefaults(),
		build:   newClientSet,
		clients: make(map[string]*ClientSet),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Get returns the ClientSet for the given context descriptor, constructing it
// on first use. All concurrent callers for the same uncached context observe
// the same handle. Failures surface as *ConstructionError and leave no cache
// entry behind.
func (p *Pool) Get(ctx context.Context, desc *kubecontext.Descriptor) (*ClientSet, error) {
	p.mu.RLock()
	cs, ok := p.clients[desc.Name]
	p.mu.RUnlock()
	if ok {
		if p.metrics != nil {
			p.metrics.OnHit(desc.Name)
		}
		return cs, nil
	}

	if p.metrics != nil {
		p.metrics.OnMiss(desc.Name)
	}

	v, err, _ := p.group.Do(desc.Name, func() (interface{}, error) {
		// A racing caller may have finished construction between the
		// read miss and entering the flight.
		p.mu.RLock()
		cs, ok := p.clients[desc.Name]
		p.mu.RUnlock()
		if ok {
			return cs, nil
		}

		cs, err := p.build(ctx, desc, p.cfg)
		if p.metrics != nil {
			p.metrics.OnConstruction(desc.Name, err)
		}
		if err != nil {
			return nil, &ConstructionError{Context: desc.Name, Err: err}
		}

		p.mu.Lock()
		p.clients[desc.Name] = cs
		size := len(p.clients)
		p.mu.Unlock()

		if p.metrics != nil {
			p.metrics.OnSizeChange(size)
		}
		return cs, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*ClientSet), nil
}

// Cached reports whether a context currently has a live client, without
// constructing one.
func (p *Pool) Cached(contextName string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.clients[contextName]
	return ok
}

// Size returns the number of live clients.
func (p *Pool) Size() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.clients)
}
