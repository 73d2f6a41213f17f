package cache

import (
	"context"
	"time"

	"shortener/internal/domain"
)

// Cache defines the interface for the redirect cache.
// This abstraction allows swapping cache implementations (Redis, in-memory).
//
// The cache is self-healing via TTL only: there is no deletion or
// invalidation API, so stale data after a record's state change may be
// served for up to one TTL window. This is an accepted staleness bound.
type Cache interface {
	// Get retrieves the cached snapshot for a short code.
	// A miss is (nil, nil), not an error.
	Get(ctx context.Context, code string) (*domain.CachedEntry, error)

	// Set unconditionally overwrites the snapshot for a short code with
	// the given TTL. Used both on population and on re-population.
	Set(ctx context.Context, code string, entry *domain.CachedEntry, ttl time.Duration) error

	// Close closes the cache connection
	Close() error
}
