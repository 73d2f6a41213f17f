package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"shortener/internal/domain"
	"shortener/internal/repository"
)

// urlRepository implements the URLRepository interface for PostgreSQL
type urlRepository struct {
	db *gorm.DB
}

// NewURLRepository creates a new PostgreSQL URL repository
func NewURLRepository(db *gorm.DB) repository.URLRepository {
	return &urlRepository{db: db}
}

// Create inserts a new URL record whose code is already set
func (r *urlRepository) Create(ctx context.Context, url *domain.URL) error {
	result := r.db.WithContext(ctx).Create(url)
	if result.Error != nil {
		// Unique constraint violation means the alias is taken
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return domain.ErrCodeTaken
		}
		return domain.NewInternalError(result.Error)
	}
	return nil
}

// CreateWithDerivedCode inserts a new URL record and assigns it the code
// derived from the generated primary key. The insert carries url.Code as
// a provisional placeholder to satisfy the unique constraint until the
// id is known; both statements run in one transaction.
func (r *urlRepository) CreateWithDerivedCode(ctx context.Context, url *domain.URL, derive func(id int64) string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(url).Error; err != nil {
			return err
		}

		code := derive(url.ID)
		if err := tx.Model(url).Update("code", code).Error; err != nil {
			return err
		}

		url.Code = code
		return nil
	})

	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.ErrCodeTaken
		}
		return domain.NewInternalError(err)
	}
	return nil
}

// FindByCode retrieves a URL record by its short code.
// Inactive and expired rows are returned as-is; resolvability is the
// caller's check. Any failure that is not "no rows" is classified as a
// retryable store error so a timeout is never mistaken for a miss.
func (r *urlRepository) FindByCode(ctx context.Context, code string) (*domain.URL, error) {
	var url domain.URL

	result := r.db.WithContext(ctx).
		Where("code = ?", code).
		First(&url)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, domain.ErrURLNotFound
		}
		return nil, domain.NewStoreError(result.Error)
	}

	return &url, nil
}

// FindByOriginalURL checks if an original URL already has an active record
func (r *urlRepository) FindByOriginalURL(ctx context.Context, originalURL string) (*domain.URL, error) {
	var url domain.URL

	result := r.db.WithContext(ctx).
		Where("original_url = ? AND is_active = ?", originalURL, true).
		First(&url)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, domain.ErrURLNotFound
		}
		return nil, domain.NewInternalError(result.Error)
	}

	return &url, nil
}

// ExistsByCode checks if a short code exists without loading the full record
func (r *urlRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var count int64

	result := r.db.WithContext(ctx).
		Model(&domain.URL{}).
		Where("code = ?", code).
		Count(&count)

	if result.Error != nil {
		return false, domain.NewInternalError(result.Error)
	}

	return count > 0, nil
}

// upsertClicksSQL is a conflict-resolving insert: it stays additive even
// if two flush cycles ever overlap, because the merge happens inside the
// database rather than as a read-modify-write in the application.
const upsertClicksSQL = `
INSERT INTO url_stats (url_id, total_clicks, last_flushed)
VALUES (?, ?, ?)
ON CONFLICT (url_id)
DO UPDATE SET
    total_clicks = url_stats.total_clicks + EXCLUDED.total_clicks,
    last_flushed = EXCLUDED.last_flushed`

// UpsertClicks merges a drained batch into url_stats.
// The whole batch shares one transaction: either every id's delta lands
// or none does, so a failed cycle can be retried as a unit.
func (r *urlRepository) UpsertClicks(ctx context.Context, counts map[int64]int64, now time.Time) error {
	if len(counts) == 0 {
		return nil
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for id, delta := range counts {
			if err := tx.Exec(upsertClicksSQL, id, delta, now).Error; err != nil {
				return err
			}
		}
		return nil
	})

	if err != nil {
		return domain.NewStoreError(err)
	}
	return nil
}

// GetStats retrieves the URL record joined with its aggregated stats.
// A URL without a url_stats row simply has zero flushed clicks.
func (r *urlRepository) GetStats(ctx context.Context, code string) (*domain.StatsView, error) {
	var url domain.URL

	result := r.db.WithContext(ctx).
		Where("code = ?", code).
		First(&url)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, domain.ErrURLNotFound
		}
		return nil, domain.NewInternalError(result.Error)
	}

	view := &domain.StatsView{
		Code:        url.Code,
		OriginalURL: url.OriginalURL,
		CreatedAt:   url.CreatedAt,
		ExpiresAt:   url.ExpiresAt,
		IsActive:    url.IsActive,
	}

	var stats domain.URLStats
	result = r.db.WithContext(ctx).
		Where("url_id = ?", url.ID).
		First(&stats)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return view, nil // No flush has happened yet
		}
		return nil, domain.NewInternalError(result.Error)
	}

	view.TotalClicks = stats.TotalClicks
	view.LastFlushed = &stats.LastFlushed
	return view, nil
}

// DeactivateExpired marks all URLs past their expiry as inactive.
// Rows are never deleted; the flag keeps historical stats reachable.
func (r *urlRepository) DeactivateExpired(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&domain.URL{}).
		Where("expires_at IS NOT NULL AND expires_at < ? AND is_active = ?", time.Now(), true).
		Update("is_active", false)

	if result.Error != nil {
		return 0, domain.NewInternalError(result.Error)
	}

	return result.RowsAffected, nil
}
