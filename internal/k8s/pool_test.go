package k8s

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/k8s-pilot/k8s-pilot/internal/kubecontext"
)

func descriptor(name string) *kubecontext.Descriptor {
	return &kubecontext.Descriptor{Name: name, Cluster: name + "-cluster", User: "tester"}
}

func TestPoolConstructsOnceAndReuses(t *testing.T) {
	var constructions atomic.Int32
	pool := NewPool(BuildConfig{}, withBuildFunc(func(ctx context.Context, desc *kubecontext.Descriptor, cfg BuildConfig) (*ClientSet, error) {
		constructions.Add(1)
		return &ClientSet{}, nil
	}))

	first, err := pool.Get(context.Background(), descriptor("prod"))
	require.NoError(t, err)

	second, err := pool.Get(context.Background(), descriptor("prod"))
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, int32(1), constructions.Load())
	assert.Equal(t, 1, pool.Size())
}

func TestPoolConcurrentMissesCollapseIntoOneConstruction(t *testing.T) {
	var constructions atomic.Int32
	release := make(chan struct{})

	pool := NewPool(BuildConfig{}, withBuildFunc(func(ctx context.Context, desc *kubecontext.Descriptor, cfg BuildConfig) (*ClientSet, error) {
		constructions.Add(1)
		<-release
		return &ClientSet{}, nil
	}))

	const callers = 16
	handles := make([]*ClientSet, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			cs, err := pool.Get(context.Background(), descriptor("prod"))
			require.NoError(t, err)
			handles[i] = cs
		}(i)
	}

	// Give every goroutine a chance to reach the flight before releasing it.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), constructions.Load(), "concurrent misses must perform exactly one construction")
	for i := 1; i < callers; i++ {
		assert.Same(t, handles[0], handles[i], "all callers must observe the same handle")
	}
}

func TestPoolConstructionFailureIsNotCached(t *testing.T) {
	var attempts atomic.Int32
	boom := errors.New("endpoint unreachable")

	pool := NewPool(BuildConfig{}, withBuildFunc(func(ctx context.Context, desc *kubecontext.Descriptor, cfg BuildConfig) (*ClientSet, error) {
		if attempts.Add(1) == 1 {
			return nil, boom
		}
		return &ClientSet{}, nil
	}))

	_, err := pool.Get(context.Background(), descriptor("prod"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrClientConstruction)
	assert.ErrorIs(t, err, boom)

	var constructionErr *ConstructionError
	require.True(t, errors.As(err, &constructionErr))
	assert.Equal(t, "prod", constructionErr.Context)

	assert.False(t, pool.Cached("prod"), "failed construction must not populate the pool")

	// The next call retries instead of replaying the cached failure.
	cs, err := pool.Get(context.Background(), descriptor("prod"))
	require.NoError(t, err)
	assert.NotNil(t, cs)
	assert.Equal(t, int32(2), attempts.Load())
}

func TestPoolSlowContextDoesNotBlockOthers(t *testing.T) {
	releaseA := make(chan struct{})

	pool := NewPool(BuildConfig{}, withBuildFunc(func(ctx context.Context, desc *kubecontext.Descriptor, cfg BuildConfig) (*ClientSet, error) {
		if desc.Name == "a" {
			<-releaseA
		}
		return &ClientSet{}, nil
	}))

	aStarted := make(chan struct{})
	go func() {
		close(aStarted)
		_, _ = pool.Get(context.Background(), descriptor("a"))
	}()
	<-aStarted

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := pool.Get(context.Background(), descriptor("b"))
		assert.NoError(t, err)
	}()

	select {
	case <-done:
		// "b" completed while "a" was still constructing.
	case <-time.After(2 * time.Second):
		t.Fatal("construction of context \"a\" blocked an operation on context \"b\"")
	}

	close(releaseA)
}

type recordingMetrics struct {
	mu            sync.Mutex
	hits, misses  int
	constructions int
	failures      int
	size          int
}

func (m *recordingMetrics) OnHit(string) { m.mu.Lock(); m.hits++; m.mu.Unlock() }
func (m *recordingMetrics) OnMiss(string) {
	m.mu.Lock()
	m.misses++
	m.mu.Unlock()
}
func (m *recordingMetrics) OnConstruction(_ string, err error) {
	m.mu.Lock()
	m.constructions++
	if err != nil {
		m.failures++
	}
	m.mu.Unlock()
}
func (m *recordingMetrics) OnSizeChange(size int) { m.mu.Lock(); m.size = size; m.mu.Unlock() }

func TestPoolReportsMetrics(t *testing.T) {
	metrics := &recordingMetrics{}
	pool := NewPool(BuildConfig{},
		WithPoolMetrics(metrics),
		withBuildFunc(func(ctx context.Context, desc *kubecontext.Descriptor, cfg BuildConfig) (*ClientSet, error) {
			return &ClientSet{}, nil
		}),
	)

	_, err := pool.Get(context.Background(), descriptor("prod"))
	require.NoError(t, err)
	_, err = pool.Get(context.Background(), descriptor("prod"))
	require.NoError(t, err)

	metrics.mu.Lock()
	defer metrics.mu.Unlock()
	assert.Equal(t, 1, metrics.misses)
	assert.Equal(t, 1, metrics.hits)
	assert.Equal(t, 1, metrics.constructions)
	assert.Equal(t, 0, metrics.failures)
	assert.Equal(t, 1, metrics.size)
}

func TestBuildConfigDefaults(t *testing.T) {
	cfg := BuildConfig{}.withDefaults()
	assert.Equal(t, DefaultQPSLimit, cfg.QPSLimit)
	assert.Equal(t, DefaultBurstLimit, cfg.BurstLimit)
	assert.Equal(t, DefaultTimeout, cfg.Timeout)
}
