package domain

import (
	"time"
)

// URL represents a shortened URL mapping.
// Rows are created once at shorten time and never mutated by the redirect
// path; expiry is enforced by invariant check, not by deleting rows.
type URL struct {
	ID          int64      `gorm:"primaryKey" json:"id"`
	Code        string     `gorm:"uniqueIndex;not null;size:32" json:"code"`
	OriginalURL string     `gorm:"not null;type:text" json:"original_url"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	ExpiresAt   *time.Time `gorm:"index" json:"expires_at,omitempty"` // Nullable for non-expiring URLs
	IsActive    bool       `gorm:"default:true;index" json:"is_active"`
}

// TableName specifies the table name for GORM
func (URL) TableName() string {
	return "urls"
}

// IsExpired checks if the URL is past its expiry timestamp
func (u *URL) IsExpired() bool {
	if u.ExpiresAt == nil {
		return false // Never expires
	}
	return time.Now().After(*u.ExpiresAt)
}

// URLStats holds durable aggregated click counts, one row per URL.
// Rows are created on the first flush for an id and merged additively
// by every subsequent flush, never overwritten wholesale.
type URLStats struct {
	URLID       int64     `gorm:"primaryKey;column:url_id" json:"url_id"`
	TotalClicks int64     `gorm:"not null;default:0" json:"total_clicks"`
	LastFlushed time.Time `gorm:"column:last_flushed" json:"last_flushed"`
}

// TableName specifies the table name for GORM
func (URLStats) TableName() string {
	return "url_stats"
}

// CachedEntry is the denormalized snapshot of a URL record stored in the
// redirect cache. Multiple writers may refresh the same code concurrently;
// last write wins, which is harmless since the content is idempotent per id.
type CachedEntry struct {
	ID        int64      `json:"id"`
	TargetURL string     `json:"target_url"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	IsActive  bool       `json:"is_active"`
}

// IsExpired checks the snapshot's expiry against the current time
func (e *CachedEntry) IsExpired() bool {
	if e.ExpiresAt == nil {
		return false
	}
	return time.Now().After(*e.ExpiresAt)
}

// SnapshotOf builds the cacheable snapshot of a URL record
func SnapshotOf(u *URL) *CachedEntry {
	return &CachedEntry{
		ID:        u.ID,
		TargetURL: u.OriginalURL,
		ExpiresAt: u.ExpiresAt,
		IsActive:  u.IsActive,
	}
}

// Outcome is the terminal result of resolving a short code
type Outcome int

const (
	// OutcomeRedirect means the code resolved to a live target URL
	OutcomeRedirect Outcome = iota

	// OutcomeExpired means the code exists but is past its expiry
	OutcomeExpired

	// OutcomeNotFound means the code is absent or inactive
	OutcomeNotFound
)

// String returns a human-readable outcome name for logging
func (o Outcome) String() string {
	switch o {
	case OutcomeRedirect:
		return "redirect"
	case OutcomeExpired:
		return "expired"
	case OutcomeNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// Resolution is the terminal result of a resolve request.
// TargetURL is only set when Outcome is OutcomeRedirect.
type Resolution struct {
	Outcome   Outcome
	TargetURL string
}

// StatsView is the API-facing join of a URL record and its aggregated stats
type StatsView struct {
	Code        string     `json:"code"`
	OriginalURL string     `json:"original_url"`
	TotalClicks int64      `json:"total_clicks"`
	CreatedAt   time.Time  `json:"created_at"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	IsActive    bool       `json:"is_active"`
	LastFlushed *time.Time `json:"last_flushed,omitempty"`
}

// CreateURLRequest represents the request payload for creating a short URL
type CreateURLRequest struct {
	URL         string `json:"url" binding:"required"` // Original URL to shorten
	CustomAlias string `json:"custom_alias,omitempty"` // Optional custom short code
	ExpiryDays  int    `json:"expiry_days,omitempty"`  // Optional expiration in days
}

// CreateURLResponse represents the response after creating a short URL
type CreateURLResponse struct {
	Code        string     `json:"code"`
	ShortURL    string     `json:"short_url"` // Full shortened URL
	OriginalURL string     `json:"original_url"`
	CreatedAt   time.Time  `json:"created_at"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code"`
}
