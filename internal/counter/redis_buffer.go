package counter

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

const (
	// bufferKey is the hash of id -> accumulated delta
	bufferKey = "clicks:buffer"

	// pendingKey is the set of ids with a nonzero accumulator.
	// Invariant: an id is in the set iff it has a hash field.
	pendingKey = "clicks:pending"
)

// drainScript reads the whole buffer and deletes it in one server-side
// step. Doing both inside a single Lua script makes the read-and-clear
// indivisible from the increment path's perspective; the naive
// HGETALL-then-DEL pair can double-count or lose increments that land
// between the two commands.
var drainScript = redis.NewScript(`
local counts = redis.call('HGETALL', KEYS[1])
redis.call('DEL', KEYS[1], KEYS[2])
return counts
`)

// redisBuffer implements ClickBuffer on a Redis hash plus pending set
type redisBuffer struct {
	client *redis.Client
}

// NewRedisBuffer creates a click buffer backed by an existing Redis client
func NewRedisBuffer(client *redis.Client) ClickBuffer {
	return &redisBuffer{client: client}
}

// Increment adds delta to the accumulator for id and marks it pending.
// HINCRBY and SADD are pipelined; both are individually atomic, and a
// drain racing between them only delays the id to the next cycle's
// pending set without losing the delta.
func (b *redisBuffer) Increment(ctx context.Context, id int64, delta int64) error {
	field := strconv.FormatInt(id, 10)

	pipe := b.client.Pipeline()
	pipe.HIncrBy(ctx, bufferKey, field, delta)
	pipe.SAdd(ctx, pendingKey, field)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis increment failed: %w", err)
	}

	return nil
}

// DrainAll atomically snapshots and clears the buffer via the Lua script
func (b *redisBuffer) DrainAll(ctx context.Context) (map[int64]int64, error) {
	raw, err := drainScript.Run(ctx, b.client, []string{bufferKey, pendingKey}).Result()
	if err != nil {
		return nil, fmt.Errorf("redis drain failed: %w", err)
	}

	// HGETALL returns a flat array of alternating fields and values
	flat, ok := raw.([]interface{})
	if !ok {
		return nil, fmt.Errorf("unexpected drain reply type %T", raw)
	}

	counts := make(map[int64]int64, len(flat)/2)
	for i := 0; i+1 < len(flat); i += 2 {
		field, ok1 := flat[i].(string)
		value, ok2 := flat[i+1].(string)
		if !ok1 || !ok2 {
			return nil, fmt.Errorf("unexpected drain reply entry at %d", i)
		}

		id, err := strconv.ParseInt(field, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("non-numeric buffer field %q: %w", field, err)
		}
		count, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("non-numeric buffer value %q: %w", value, err)
		}

		counts[id] = count
	}

	return counts, nil
}

// Close closes the Redis connection
func (b *redisBuffer) Close() error {
	return b.client.Close()
}
