package repository

import (
	"context"
	"time"

	"shortener/internal/domain"
)

// URLRepository defines the contract for the durable store.
// This interface allows swapping implementations without changing
// business logic - following Dependency Inversion Principle.
type URLRepository interface {
	// Create stores a new URL record with its code already assigned
	// (custom alias path)
	Create(ctx context.Context, url *domain.URL) error

	// CreateWithDerivedCode stores a new URL record and assigns it the
	// code derived from its auto-increment id, both inside one
	// transaction so no half-created row is ever visible
	CreateWithDerivedCode(ctx context.Context, url *domain.URL, derive func(id int64) string) error

	// FindByCode retrieves a URL record by its short code. It may
	// return inactive or expired records: the resolver, not the
	// repository, enforces resolvability, keeping that check in one
	// place. Absent codes map to domain.ErrURLNotFound; timeouts and
	// connection failures map to domain.ErrStoreUnavailable.
	FindByCode(ctx context.Context, code string) (*domain.URL, error)

	// FindByOriginalURL checks if an original URL already has an active
	// short code (deduplication on the shorten path)
	FindByOriginalURL(ctx context.Context, originalURL string) (*domain.URL, error)

	// ExistsByCode checks if a short code exists without fetching data
	ExistsByCode(ctx context.Context, code string) (bool, error)

	// UpsertClicks merges a drained batch of click counts into the
	// aggregated stats table inside one transaction. Each id is an
	// atomic conflict-resolving insert: a missing row is created with
	// total_clicks = delta, an existing row gets total_clicks += delta
	// and last_flushed = now. Never a wholesale overwrite.
	UpsertClicks(ctx context.Context, counts map[int64]int64, now time.Time) error

	// GetStats retrieves the URL record joined with its aggregated stats
	GetStats(ctx context.Context, code string) (*domain.StatsView, error)

	// DeactivateExpired marks all URLs past their expiry as inactive
	// (periodic sweep job)
	DeactivateExpired(ctx context.Context) (int64, error)
}
