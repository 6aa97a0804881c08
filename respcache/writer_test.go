package respcache_test

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sagarc03/bucketgate"
	"github.com/sagarc03/bucketgate/respcache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingCache records stored keys. When release is set, Store blocks
// until it is closed or the write context ends.
type recordingCache struct {
	mu      sync.Mutex
	keys    []string
	err     error
	started chan struct{}
	release chan struct{}
}

func (c *recordingCache) Match(context.Context, string) (bucketgate.CachedResponse, bool, error) {
	return bucketgate.CachedResponse{}, false, nil
}

func (c *recordingCache) Store(ctx context.Context, key string, _ bucketgate.CachedResponse) error {
	if c.started != nil {
		c.started <- struct{}{}
	}
	if c.release != nil {
		select {
		case <-c.release:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if c.err != nil {
		return c.err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.keys = append(c.keys, key)
	return nil
}

func (c *recordingCache) stored() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.keys...)
}

func assertWrites(t *testing.T, reg *prometheus.Registry, stored, failed, dropped int) {
	t.Helper()

	expected := `
# HELP bucketgate_cache_writes_total Detached response cache writes by result.
# TYPE bucketgate_cache_writes_total counter
bucketgate_cache_writes_total{result="dropped"} ` + strconv.Itoa(dropped) + `
bucketgate_cache_writes_total{result="failed"} ` + strconv.Itoa(failed) + `
bucketgate_cache_writes_total{result="stored"} ` + strconv.Itoa(stored) + `
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "bucketgate_cache_writes_total"))
}

func TestWriter_StoresInBackground(t *testing.T) {
	t.Parallel()

	cache := &recordingCache{}
	reg := prometheus.NewRegistry()
	w := respcache.NewWriter(cache, respcache.WriterConfig{Writers: 4, Registerer: reg})

	assert.True(t, w.Enqueue(context.Background(), "a", sampleResponse("a")))
	assert.True(t, w.Enqueue(context.Background(), "b", sampleResponse("b")))
	w.Shutdown()

	assert.ElementsMatch(t, []string{"a", "b"}, cache.stored())
	assertWrites(t, reg, 2, 0, 0)
}

func TestWriter_DetachedFromRequestContext(t *testing.T) {
	t.Parallel()

	cache := &recordingCache{started: make(chan struct{}, 1), release: make(chan struct{})}
	w := respcache.NewWriter(cache, respcache.WriterConfig{Writers: 1})

	ctx, cancel := context.WithCancel(context.Background())
	require.True(t, w.Enqueue(ctx, "a", sampleResponse("a")))
	<-cache.started
	cancel()
	close(cache.release)
	w.Shutdown()

	assert.Equal(t, []string{"a"}, cache.stored())
}

func TestWriter_DropsWhenBusy(t *testing.T) {
	t.Parallel()

	cache := &recordingCache{started: make(chan struct{}, 1), release: make(chan struct{})}
	reg := prometheus.NewRegistry()
	w := respcache.NewWriter(cache, respcache.WriterConfig{Writers: 1, Registerer: reg})

	require.True(t, w.Enqueue(context.Background(), "a", sampleResponse("a")))
	<-cache.started
	assert.False(t, w.Enqueue(context.Background(), "b", sampleResponse("b")))

	close(cache.release)
	w.Shutdown()

	assert.Equal(t, []string{"a"}, cache.stored())
	assertWrites(t, reg, 1, 0, 1)
}

func TestWriter_FailuresAreCounted(t *testing.T) {
	t.Parallel()

	cache := &recordingCache{err: errors.New("backend down")}
	reg := prometheus.NewRegistry()
	w := respcache.NewWriter(cache, respcache.WriterConfig{Registerer: reg})

	assert.True(t, w.Enqueue(context.Background(), "a", sampleResponse("a")))
	w.Shutdown()

	assert.Empty(t, cache.stored())
	assertWrites(t, reg, 0, 1, 0)
}

func TestWriter_Timeout(t *testing.T) {
	t.Parallel()

	cache := &recordingCache{release: make(chan struct{})}
	reg := prometheus.NewRegistry()
	w := respcache.NewWriter(cache, respcache.WriterConfig{Timeout: 20 * time.Millisecond, Registerer: reg})

	assert.True(t, w.Enqueue(context.Background(), "a", sampleResponse("a")))
	w.Shutdown()

	assert.Empty(t, cache.stored())
	assertWrites(t, reg, 0, 1, 0)
}

func TestWriter_RejectsAfterShutdown(t *testing.T) {
	t.Parallel()

	cache := &recordingCache{}
	reg := prometheus.NewRegistry()
	w := respcache.NewWriter(cache, respcache.WriterConfig{Registerer: reg})

	w.Shutdown()
	assert.False(t, w.Enqueue(context.Background(), "a", sampleResponse("a")))
	w.Shutdown()

	assert.Empty(t, cache.stored())
	assertWrites(t, reg, 0, 0, 1)
}

func TestWriter_Wait(t *testing.T) {
	t.Parallel()

	cache := &recordingCache{started: make(chan struct{}, 1), release: make(chan struct{})}
	w := respcache.NewWriter(cache, respcache.WriterConfig{Writers: 2})

	require.NoError(t, w.Wait(context.Background()), "nothing in flight")

	require.True(t, w.Enqueue(context.Background(), "a", sampleResponse("a")))
	<-cache.started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, w.Wait(ctx), context.DeadlineExceeded)

	close(cache.release)
	require.NoError(t, w.Wait(context.Background()))
	assert.Equal(t, []string{"a"}, cache.stored())

	// Wait does not close the writer.
	cache.started = nil
	assert.True(t, w.Enqueue(context.Background(), "b", sampleResponse("b")))
	require.NoError(t, w.Wait(context.Background()))
	assert.Equal(t, []string{"a", "b"}, cache.stored())
	w.Shutdown()
}
