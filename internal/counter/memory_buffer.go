package counter

import (
	"context"
	"sync"
)

// memoryBuffer implements ClickBuffer with a mutex-guarded map.
// It backs unit tests and serves as the degraded mode when Redis is
// unreachable at startup: counts survive only as long as the process,
// which matches the buffer's crash-volatile contract.
type memoryBuffer struct {
	mu     sync.Mutex
	counts map[int64]int64
}

// NewMemoryBuffer creates an in-process click buffer
func NewMemoryBuffer() ClickBuffer {
	return &memoryBuffer{
		counts: make(map[int64]int64),
	}
}

// Increment adds delta to the accumulator for id
func (b *memoryBuffer) Increment(_ context.Context, id int64, delta int64) error {
	b.mu.Lock()
	b.counts[id] += delta
	b.mu.Unlock()
	return nil
}

// DrainAll swaps in a fresh map under the lock, so the snapshot and the
// clear are a single step: a racing increment lands in either the old
// generation or the new one, never both.
func (b *memoryBuffer) DrainAll(_ context.Context) (map[int64]int64, error) {
	b.mu.Lock()
	drained := b.counts
	b.counts = make(map[int64]int64)
	b.mu.Unlock()
	return drained, nil
}

// Close is a no-op for the in-process buffer
func (b *memoryBuffer) Close() error {
	return nil
}
