package service

import (
	"context"

	"shortener/internal/domain"
)

// URLService defines the business logic interface for URL operations.
// This layer orchestrates between the repository, cache and click buffer.
type URLService interface {
	// ShortenURL creates a new shortened URL
	ShortenURL(ctx context.Context, req *domain.CreateURLRequest) (*domain.CreateURLResponse, error)

	// Resolve maps a short code to its terminal outcome: REDIRECT with
	// the target URL, EXPIRED, or NOT_FOUND. The returned error is
	// non-nil only for retryable failures (durable store timeout or
	// connection loss), never for the terminal outcomes themselves.
	Resolve(ctx context.Context, code string) (*domain.Resolution, error)

	// GetStats returns durable aggregated statistics for a short code
	GetStats(ctx context.Context, code string) (*domain.StatsView, error)
}
