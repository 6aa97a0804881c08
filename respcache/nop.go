package respcache

import (
	"context"

	"github.com/sagarc03/bucketgate"
)

// Nop never stores anything; every Match is a miss.
type Nop struct{}

var _ bucketgate.ResponseCache = Nop{}

func (Nop) Match(context.Context, string) (bucketgate.CachedResponse, bool, error) {
	return bucketgate.CachedResponse{}, false, nil
}

func (Nop) Store(context.Context, string, bucketgate.CachedResponse) error {
	return nil
}
