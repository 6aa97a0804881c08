package respcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/sagarc03/bucketgate"
)

const itemKeyPrefix = "bucketgate:"

// Memcached stores responses in one or more memcached servers so that every
// gateway instance shares the same entries.
type Memcached struct {
	client *memcache.Client
	ttl    int32
}

var _ bucketgate.ResponseCache = (*Memcached)(nil)

// NewMemcached creates a Memcached client for servers. ttl is rounded down
// to whole seconds; memcached treats values above 30 days as a unix time, so
// longer TTLs are rejected.
func NewMemcached(ttl time.Duration, servers ...string) (*Memcached, error) {
	if len(servers) == 0 {
		return nil, errors.New("new memcached: no servers")
	}
	if ttl < time.Second || ttl > 30*24*time.Hour {
		return nil, fmt.Errorf("new memcached: ttl %s out of range", ttl)
	}

	return &Memcached{
		client: memcache.New(servers...),
		ttl:    int32(ttl / time.Second),
	}, nil
}

// itemKey hashes key into a memcached-safe item key. Request identities may
// exceed 250 bytes and contain spaces, both of which memcached rejects.
func itemKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return itemKeyPrefix + hex.EncodeToString(sum[:])
}

func (m *Memcached) Match(ctx context.Context, key string) (bucketgate.CachedResponse, bool, error) {
	if err := ctx.Err(); err != nil {
		return bucketgate.CachedResponse{}, false, err
	}

	item, err := m.client.Get(itemKey(key))
	if err != nil {
		if errors.Is(err, memcache.ErrCacheMiss) {
			return bucketgate.CachedResponse{}, false, nil
		}
		return bucketgate.CachedResponse{}, false, fmt.Errorf("memcached get: %w", err)
	}

	resp, err := decode(item.Value)
	if err != nil {
		return bucketgate.CachedResponse{}, false, err
	}
	return resp, true, nil
}

func (m *Memcached) Store(ctx context.Context, key string, resp bucketgate.CachedResponse) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := encode(resp)
	if err != nil {
		return err
	}

	err = m.client.Set(&memcache.Item{
		Key:        itemKey(key),
		Value:      data,
		Expiration: m.ttl,
	})
	if err != nil {
		return fmt.Errorf("memcached set: %w", err)
	}
	return nil
}
