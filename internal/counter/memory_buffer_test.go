package counter

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryBuffer_IncrementAndDrain(t *testing.T) {
	buf := NewMemoryBuffer()
	ctx := context.Background()

	require.NoError(t, buf.Increment(ctx, 1, 1))
	require.NoError(t, buf.Increment(ctx, 1, 1))
	require.NoError(t, buf.Increment(ctx, 2, 5))

	drained, err := buf.DrainAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[int64]int64{1: 2, 2: 5}, drained)
}

func TestMemoryBuffer_DrainIsIdempotent(t *testing.T) {
	buf := NewMemoryBuffer()
	ctx := context.Background()

	require.NoError(t, buf.Increment(ctx, 7, 3))

	first, err := buf.DrainAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[int64]int64{7: 3}, first)

	// A second drain with no intervening increments is empty
	second, err := buf.DrainAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, second)
}

func TestMemoryBuffer_DrainEmpty(t *testing.T) {
	buf := NewMemoryBuffer()

	drained, err := buf.DrainAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, drained)
}

func TestMemoryBuffer_IncrementAfterDrainStartsFresh(t *testing.T) {
	buf := NewMemoryBuffer()
	ctx := context.Background()

	require.NoError(t, buf.Increment(ctx, 1, 2))
	_, err := buf.DrainAll(ctx)
	require.NoError(t, err)

	require.NoError(t, buf.Increment(ctx, 1, 1))

	drained, err := buf.DrainAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[int64]int64{1: 1}, drained, "post-drain increments belong to the new generation only")
}

func TestMemoryBuffer_ConcurrentIncrements(t *testing.T) {
	buf := NewMemoryBuffer()
	ctx := context.Background()

	const n = 500
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			_ = buf.Increment(ctx, 42, 1)
		}()
	}
	wg.Wait()

	drained, err := buf.DrainAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(n), drained[42], "no increment may be lost")
}

func TestMemoryBuffer_ConcurrentIncrementsAcrossDrains(t *testing.T) {
	buf := NewMemoryBuffer()
	ctx := context.Background()

	const n = 400
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			_ = buf.Increment(ctx, 9, 1)
		}()
	}

	// Drain concurrently with the increments; every delta must land in
	// exactly one generation
	var total int64
	for i := 0; i < 10; i++ {
		drained, err := buf.DrainAll(ctx)
		require.NoError(t, err)
		total += drained[9]
	}

	wg.Wait()

	drained, err := buf.DrainAll(ctx)
	require.NoError(t, err)
	total += drained[9]

	assert.Equal(t, int64(n), total, "drains across generations must account for every increment exactly once")
}
