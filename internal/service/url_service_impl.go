package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shortener/internal/cache"
	"shortener/internal/config"
	"shortener/internal/counter"
	"shortener/internal/domain"
	"shortener/internal/repository"
	"shortener/internal/shortener"
	"shortener/pkg/logger"
	"shortener/pkg/validator"
)

// urlService implements the URLService interface
type urlService struct {
	repo   repository.URLRepository
	cache  cache.Cache
	buffer counter.ClickBuffer
	cfg    *config.Config
	logger *logger.Logger
}

// NewURLService creates a new URL service with dependencies injected.
// The hosting process owns one cache and one buffer instance and shares
// them between this service and the flush scheduler.
func NewURLService(
	repo repository.URLRepository,
	cache cache.Cache,
	buffer counter.ClickBuffer,
	cfg *config.Config,
	logger *logger.Logger,
) URLService {
	return &urlService{
		repo:   repo,
		cache:  cache,
		buffer: buffer,
		cfg:    cfg,
		logger: logger,
	}
}

// ShortenURL creates a new shortened URL with validation and deduplication.
// Auto-generated codes are the base62 encoding of the record's id.
func (s *urlService) ShortenURL(ctx context.Context, req *domain.CreateURLRequest) (*domain.CreateURLResponse, error) {
	// Step 1: Validate the original URL
	if err := validator.ValidateURL(req.URL); err != nil {
		s.logger.Warn("Invalid URL provided", "url", req.URL, "error", err)
		return nil, domain.NewValidationError("Invalid URL format")
	}

	// Step 2: Normalize URL (add https:// if missing, remove trailing slash)
	normalizedURL := validator.NormalizeURL(req.URL)

	// Step 3: Deduplication - reuse an existing live mapping for the same URL
	if req.CustomAlias == "" {
		existing, err := s.repo.FindByOriginalURL(ctx, normalizedURL)
		if err == nil && existing != nil && !existing.IsExpired() {
			s.logger.Info("URL already shortened, returning existing", "code", existing.Code)
			return s.buildResponse(existing), nil
		}
	}

	// Step 4: Calculate expiration date if specified
	var expiresAt *time.Time
	if req.ExpiryDays > 0 {
		expiry := time.Now().AddDate(0, 0, req.ExpiryDays)
		expiresAt = &expiry
	} else if s.cfg.URLExpirationDays > 0 {
		// Use default expiration from config
		expiry := time.Now().AddDate(0, 0, s.cfg.URLExpirationDays)
		expiresAt = &expiry
	}

	url := &domain.URL{
		OriginalURL: normalizedURL,
		ExpiresAt:   expiresAt,
		IsActive:    true,
	}

	// Step 5: Persist with either the custom alias or an id-derived code
	if req.CustomAlias != "" {
		if !validator.ValidateShortCode(req.CustomAlias) {
			return nil, domain.NewValidationError("Custom alias contains invalid characters")
		}

		exists, err := s.repo.ExistsByCode(ctx, req.CustomAlias)
		if err != nil {
			s.logger.Error("Failed to check short code existence", "error", err)
			return nil, domain.NewInternalError(err)
		}
		if exists {
			return nil, domain.ErrCodeTaken
		}

		url.Code = req.CustomAlias
		if err := s.repo.Create(ctx, url); err != nil {
			s.logger.Error("Failed to create URL", "error", err, "code", url.Code)
			return nil, err
		}
	} else {
		// A provisional random code satisfies the unique constraint
		// until the transaction swaps in the id-derived one
		url.Code = shortener.RandomCode(12)
		if err := s.repo.CreateWithDerivedCode(ctx, url, shortener.Encode); err != nil {
			s.logger.Error("Failed to create URL", "error", err)
			return nil, err
		}
	}

	// Step 6: Warm the cache for fast first resolution
	if s.cache != nil {
		if err := s.cache.Set(ctx, url.Code, domain.SnapshotOf(url), s.cfg.CacheTTL); err != nil {
			// Log cache error but don't fail the request
			s.logger.Warn("Failed to cache URL", "error", err, "code", url.Code)
		}
	}

	s.logger.Info("URL shortened successfully",
		"code", url.Code,
		"original_url", normalizedURL,
		"custom", req.CustomAlias != "",
	)

	return s.buildResponse(url), nil
}

// Resolve maps a short code to its terminal outcome using cache-aside
// lookup. Cache failures degrade to a straight store read and never fail
// the request; store failures on the miss path surface as retryable
// errors rather than being swallowed into NOT_FOUND.
func (s *urlService) Resolve(ctx context.Context, code string) (*domain.Resolution, error) {
	// Step 1: Try the redirect cache (fast path)
	if entry := s.cacheLookup(ctx, code); entry != nil {
		if !entry.IsActive {
			return &domain.Resolution{Outcome: domain.OutcomeNotFound}, nil
		}
		if entry.IsExpired() {
			// Terminal on the hit path: no store re-check
			return &domain.Resolution{Outcome: domain.OutcomeExpired}, nil
		}

		s.recordClick(ctx, entry.ID)
		s.logger.Debug("Cache hit", "code", code)
		return &domain.Resolution{Outcome: domain.OutcomeRedirect, TargetURL: entry.TargetURL}, nil
	}

	// Step 2: Cache miss - query the durable store with a bounded deadline
	storeCtx, cancel := context.WithTimeout(ctx, s.cfg.StoreTimeout)
	defer cancel()

	url, err := s.repo.FindByCode(storeCtx, code)
	if err != nil {
		if errors.Is(err, domain.ErrURLNotFound) {
			return &domain.Resolution{Outcome: domain.OutcomeNotFound}, nil
		}
		s.logger.Error("Durable store lookup failed", "error", err, "code", code)
		return nil, err
	}

	// Step 3: Enforce resolvability here, not in the repository, so the
	// invariant check lives in exactly one place
	if !url.IsActive {
		return &domain.Resolution{Outcome: domain.OutcomeNotFound}, nil
	}
	if url.IsExpired() {
		// Expired records are not cached: caching dead entries buys
		// nothing and the row stays expired forever
		return &domain.Resolution{Outcome: domain.OutcomeExpired}, nil
	}

	// Step 4: Populate the cache and count the click before responding
	if s.cache != nil {
		if err := s.cache.Set(ctx, code, domain.SnapshotOf(url), s.cfg.CacheTTL); err != nil {
			s.logger.Warn("Failed to populate cache", "error", err, "code", code)
		}
	}
	s.recordClick(ctx, url.ID)

	s.logger.Debug("Cache miss resolved from store", "code", code)
	return &domain.Resolution{Outcome: domain.OutcomeRedirect, TargetURL: url.OriginalURL}, nil
}

// GetStats returns durable aggregated statistics for a short code.
// Clicks still sitting in the buffer are not included; the numbers are
// eventually consistent with a lag of at most one flush interval.
func (s *urlService) GetStats(ctx context.Context, code string) (*domain.StatsView, error) {
	return s.repo.GetStats(ctx, code)
}

// cacheLookup reads the redirect cache, treating any cache failure as a
// miss so an unreachable cache substrate degrades to always-miss
func (s *urlService) cacheLookup(ctx context.Context, code string) *domain.CachedEntry {
	if s.cache == nil {
		return nil
	}

	entry, err := s.cache.Get(ctx, code)
	if err != nil {
		s.logger.Warn("Cache lookup failed, falling through to store", "error", err, "code", code)
		return nil
	}
	return entry
}

// recordClick buffers one click for the id. Best-effort: a failed
// increment is logged and the redirect proceeds.
func (s *urlService) recordClick(ctx context.Context, id int64) {
	if err := s.buffer.Increment(ctx, id, 1); err != nil {
		s.logger.Error("Failed to buffer click", "error", err, "url_id", id)
	}
}

// buildResponse constructs the API response with full short URL
func (s *urlService) buildResponse(url *domain.URL) *domain.CreateURLResponse {
	return &domain.CreateURLResponse{
		Code:        url.Code,
		ShortURL:    fmt.Sprintf("%s/%s", s.cfg.BaseURL, url.Code),
		OriginalURL: url.OriginalURL,
		CreatedAt:   url.CreatedAt,
		ExpiresAt:   url.ExpiresAt,
	}
}
