package respcache

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sagarc03/bucketgate"
	"golang.org/x/sync/errgroup"
)

const (
	resultStored  = "stored"
	resultFailed  = "failed"
	resultDropped = "dropped"
)

type WriterConfig struct {
	Writers    int           // concurrent writes; default 16
	Timeout    time.Duration // per write; default 10s
	Logger     *slog.Logger
	Registerer prometheus.Registerer // nil leaves metrics unregistered
}

// Writer populates a ResponseCache in the background. Writes are detached
// from the request context, so a client disconnect never aborts them, and
// failures are logged and counted instead of returned.
type Writer struct {
	cache   bucketgate.ResponseCache
	timeout time.Duration
	logger  *slog.Logger
	writes  *prometheus.CounterVec

	mu     sync.RWMutex
	closed bool
	group  errgroup.Group

	// pending counts in-flight writes; idle is closed when it drops to zero.
	pendingMu sync.Mutex
	pending   int
	idle      chan struct{}
}

func NewWriter(cache bucketgate.ResponseCache, cfg WriterConfig) *Writer {
	writers := cfg.Writers
	if writers <= 0 {
		writers = 16
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	writes := promauto.With(cfg.Registerer).NewCounterVec(prometheus.CounterOpts{
		Name: "bucketgate_cache_writes_total",
		Help: "Detached response cache writes by result.",
	}, []string{"result"})
	for _, result := range []string{resultStored, resultFailed, resultDropped} {
		writes.WithLabelValues(result)
	}

	w := &Writer{
		cache:   cache,
		timeout: timeout,
		logger:  logger,
		writes:  writes,
	}
	w.group.SetLimit(writers)
	return w
}

// Enqueue schedules resp to be stored under key and returns immediately. It
// reports false when the write was dropped because every writer is busy or
// the Writer has been shut down.
func (w *Writer) Enqueue(ctx context.Context, key string, resp bucketgate.CachedResponse) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.closed {
		w.drop(key, "writer closed")
		return false
	}

	detached := context.WithoutCancel(ctx)
	w.begin()
	ok := w.group.TryGo(func() error {
		defer w.done()
		w.store(detached, key, resp)
		return nil
	})
	if !ok {
		w.done()
		w.drop(key, "all writers busy")
	}
	return ok
}

func (w *Writer) begin() {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()
	if w.pending == 0 {
		w.idle = make(chan struct{})
	}
	w.pending++
}

func (w *Writer) done() {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()
	w.pending--
	if w.pending == 0 {
		close(w.idle)
	}
}

// Wait blocks until no write is in flight or ctx ends, and returns ctx's
// error in the latter case. Unlike Shutdown the Writer keeps accepting
// writes, so hosts that freeze between requests can settle after each one.
func (w *Writer) Wait(ctx context.Context) error {
	w.pendingMu.Lock()
	if w.pending == 0 {
		w.pendingMu.Unlock()
		return nil
	}
	idle := w.idle
	w.pendingMu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Writer) store(ctx context.Context, key string, resp bucketgate.CachedResponse) {
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	if err := w.cache.Store(ctx, key, resp); err != nil {
		w.writes.WithLabelValues(resultFailed).Inc()
		w.logger.Warn("cache write failed", "key", key, "error", err)
		return
	}
	w.writes.WithLabelValues(resultStored).Inc()
}

func (w *Writer) drop(key, reason string) {
	w.writes.WithLabelValues(resultDropped).Inc()
	w.logger.Warn("cache write dropped", "key", key, "reason", reason)
}

// Shutdown stops accepting writes and waits for in-flight ones to finish.
// It is safe to call more than once. Write failures are only logged, so the
// returned error is always nil.
func (w *Writer) Shutdown() error {
	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()

	return w.group.Wait()
}
