package bucketgate

import "context"

// ResponseCache stores replayable GET responses keyed by request identity.
type ResponseCache interface {
	// Match returns the response stored under key. The bool is false on a
	// miss; an error is reserved for backend failures.
	Match(ctx context.Context, key string) (CachedResponse, bool, error)

	// Store saves resp under key, replacing any previous entry.
	Store(ctx context.Context, key string, resp CachedResponse) error
}
