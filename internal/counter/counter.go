// Package counter implements the write-back click buffer: an
// in-memory-speed aggregator that defers durable persistence of click
// counts until a periodic flush drains it.
//
// The buffer is crash-volatile. If the hosting process dies between a
// DrainAll call and the caller persisting the result, the drained deltas
// are lost. The impact is bounded to at most one flush interval's worth
// of clicks; this is a deliberate tradeoff favoring hot-path latency
// over exact counts.
package counter

import (
	"context"
)

// ClickBuffer accumulates per-URL click deltas between flushes.
type ClickBuffer interface {
	// Increment adds delta to the accumulator for id, creating it if
	// absent, and marks id pending. Best-effort: callers on the hot path
	// log failures and carry on rather than failing the request.
	Increment(ctx context.Context, id int64, delta int64) error

	// DrainAll atomically reads and clears every pending accumulator.
	// An increment racing with a drain lands entirely before it
	// (included in the returned map) or entirely after it (starts a
	// fresh accumulation); no delta is counted twice or dropped.
	// Returns an empty map when nothing is pending.
	DrainAll(ctx context.Context) (map[int64]int64, error)

	// Close releases any underlying resources
	Close() error
}
