package respcache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/allegro/bigcache/v3"
	"github.com/sagarc03/bucketgate"
)

type BigCacheConfig struct {
	TTL           time.Duration
	Shards        int // power of two
	MaxEntrySize  int // bytes, used to size shards up front
	HardMaxSizeMB int // 0 means unbounded
	Logger        *slog.Logger
}

// BigCache keeps responses in process memory. Entries expire after TTL and
// the oldest entries are evicted once HardMaxSizeMB is reached.
type BigCache struct {
	bc *bigcache.BigCache
}

var _ bucketgate.ResponseCache = (*BigCache)(nil)

func NewBigCache(ctx context.Context, cfg BigCacheConfig) (*BigCache, error) {
	if cfg.TTL <= 0 {
		return nil, errors.New("new bigcache: ttl must be positive")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	config := bigcache.DefaultConfig(cfg.TTL)
	config.CleanWindow = min(cfg.TTL, time.Minute)
	config.HardMaxCacheSize = cfg.HardMaxSizeMB
	config.Logger = slog.NewLogLogger(logger.Handler(), slog.LevelWarn)
	if cfg.Shards > 0 {
		config.Shards = cfg.Shards
	}
	if cfg.MaxEntrySize > 0 {
		config.MaxEntrySize = cfg.MaxEntrySize
	}

	bc, err := bigcache.New(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("new bigcache: %w", err)
	}

	return &BigCache{bc: bc}, nil
}

func (c *BigCache) Match(ctx context.Context, key string) (bucketgate.CachedResponse, bool, error) {
	if err := ctx.Err(); err != nil {
		return bucketgate.CachedResponse{}, false, err
	}

	data, err := c.bc.Get(key)
	if err != nil {
		if errors.Is(err, bigcache.ErrEntryNotFound) {
			return bucketgate.CachedResponse{}, false, nil
		}
		return bucketgate.CachedResponse{}, false, fmt.Errorf("bigcache get: %w", err)
	}

	resp, err := decode(data)
	if err != nil {
		return bucketgate.CachedResponse{}, false, err
	}
	return resp, true, nil
}

func (c *BigCache) Store(ctx context.Context, key string, resp bucketgate.CachedResponse) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := encode(resp)
	if err != nil {
		return err
	}

	if err := c.bc.Set(key, data); err != nil {
		return fmt.Errorf("bigcache set: %w", err)
	}
	return nil
}

// Len returns the number of entries currently held.
func (c *BigCache) Len() int {
	return c.bc.Len()
}

func (c *BigCache) Close() error {
	return c.bc.Close()
}
