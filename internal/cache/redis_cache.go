package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"shortener/internal/domain"
)

// redisCache implements the Cache interface using Redis.
// Entries are stored as JSON snapshots under "code:<code>".
type redisCache struct {
	client *redis.Client
}

// NewRedisCache creates a redirect cache backed by an existing Redis client
func NewRedisCache(client *redis.Client) Cache {
	return &redisCache{client: client}
}

// NewRedisClient connects to Redis and verifies the connection.
// The returned client is shared between the redirect cache and the
// click buffer so the process holds a single connection pool.
func NewRedisClient(addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10, // Connection pool size
		MinIdleConns: 5,  // Minimum idle connections
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return client, nil
}

// Get retrieves a snapshot from Redis by short code.
// Returns (nil, nil) if the key doesn't exist (a miss, not an error).
func (c *redisCache) Get(ctx context.Context, code string) (*domain.CachedEntry, error) {
	raw, err := c.client.Get(ctx, codeKey(code)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var entry domain.CachedEntry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		// A corrupt value is indistinguishable from a miss for the caller;
		// the entry will be overwritten on the next store read.
		return nil, fmt.Errorf("corrupt cache entry for %q: %w", code, err)
	}

	return &entry, nil
}

// Set stores a snapshot in Redis with TTL.
// Uses SET with expiration for an atomic overwrite.
func (c *redisCache) Set(ctx context.Context, code string, entry *domain.CachedEntry, ttl time.Duration) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal cache entry: %w", err)
	}

	if err := c.client.Set(ctx, codeKey(code), raw, ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}

	return nil
}

// Close closes the Redis connection
func (c *redisCache) Close() error {
	return c.client.Close()
}

// codeKey namespaces cache keys to avoid collisions with the click buffer
func codeKey(code string) string {
	return "code:" + code
}
