package utils

import (
	"context"       // Context for Redis operations
	"encoding/json" // JSON encoding/decoding
	"errors"        // Error comparison
	"fmt"           // Envelope errors
	"time"          // Time durations

	"github.com/redis/go-redis/v9" // Redis client
)

// A nil *redis.Client disables caching: reads miss and writes are no-ops.

// GetCache retrieves a value from Redis and unmarshals it into dest
func GetCache(ctx context.Context, rdb *redis.Client, key string, dest any) (bool, error) {
	if rdb == nil {
		return false, nil // Caching disabled
	}
	val, err := rdb.Get(ctx, key).Result() // Get value from Redis
	if errors.Is(err, redis.Nil) {
		return false, nil // Key does not exist
	} else if err != nil {
		return false, err // Other Redis error
	}
	if err := json.Unmarshal([]byte(val), dest); err != nil {
		return false, err // Corrupt entry counts as a miss
	}
	return true, nil
}

// SetCache sets a value in Redis with a specified TTL
func SetCache(ctx context.Context, rdb *redis.Client, key string, value any, ttl time.Duration) error {
	if rdb == nil {
		return nil // Caching disabled
	}
	b, err := json.Marshal(value) // Marshal value to JSON
	if err != nil {
		return err // Return error if marshaling fails
	}
	return rdb.Set(ctx, key, b, ttl).Err() // Set value in Redis with TTL
}

// DeleteCache deletes keys from Redis
func DeleteCache(ctx context.Context, rdb *redis.Client, keys ...string) error {
	if rdb == nil || len(keys) == 0 {
		return nil // Nothing to do
	}
	return rdb.Del(ctx, keys...).Err() // Delete keys from Redis
}

// DeleteCachePrefix deletes every key starting with prefix
func DeleteCachePrefix(ctx context.Context, rdb *redis.Client, prefix string) error {
	if rdb == nil {
		return nil // Caching disabled
	}
	iter := rdb.Scan(ctx, 0, prefix+"*", 100).Iterator() // Walk matching keys in batches
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val()) // Collect key
	}
	if err := iter.Err(); err != nil {
		return err // Scan failed
	}
	return DeleteCache(ctx, rdb, keys...) // Delete collected keys
}

// setIfNewer stores ARGV[1] unless the key holds an envelope whose version is
// at least ARGV[2]. Unreadable entries are replaced.
var setIfNewer = redis.NewScript(`
local cur = redis.call("GET", KEYS[1])
if cur then
	local ok, entry = pcall(cjson.decode, cur)
	if ok and type(entry) == "table" and tonumber(entry.version) and tonumber(entry.version) >= tonumber(ARGV[2]) then
		return 0
	end
end
redis.call("SET", KEYS[1], ARGV[1], "PX", ARGV[3])
return 1
`)

// Versioned wraps a cached value with the revision it was read at
type Versioned[T any] struct {
	Version int `json:"version"` // Revision of Value
	Value   T   `json:"value"`   // Cached value
}

// SetCacheIfNewer stores value under key unless the cache already holds the
// same or a later version of it. It reports whether the value was written.
func SetCacheIfNewer[T any](ctx context.Context, rdb *redis.Client, key string, version int, value T, ttl time.Duration) (bool, error) {
	if rdb == nil {
		return false, nil // Caching disabled
	}
	b, err := json.Marshal(Versioned[T]{Version: version, Value: value}) // Marshal envelope to JSON
	if err != nil {
		return false, err
	}
	n, err := setIfNewer.Run(ctx, rdb, []string{key}, b, version, ttl.Milliseconds()).Int()
	if err != nil {
		return false, fmt.Errorf("set %s at version %d: %w", key, version, err)
	}
	return n == 1, nil
}
