package catalog

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	"github.com/co-codin/query-compiler/internal/platform/constants"
)

// RedisCache is the L2 catalog cache described in SPEC_FULL.md section 4.3:
// an optional tier in front of the HTTP fetcher so a fleet of worker
// processes shares resolved attribute metadata instead of each one
// cold-starting its own in-memory catalog.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache wraps an already-connected redis.Client.
func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

// GetMany implements L2Cache.
func (c *RedisCache) GetMany(ctx context.Context, names []string) (map[string]Entry, error) {
	if len(names) == 0 {
		return nil, nil
	}

	keys := make([]string, len(names))
	for i, name := range names {
		keys[i] = constants.RedisPrefixCatalogEntry + name
	}

	values, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	found := make(map[string]Entry)
	for i, raw := range values {
		str, ok := raw.(string)
		if !ok {
			continue
		}
		var entry Entry
		if err := json.Unmarshal([]byte(str), &entry); err != nil {
			continue
		}
		found[names[i]] = entry
	}
	return found, nil
}

// SetMany implements L2Cache.
func (c *RedisCache) SetMany(ctx context.Context, entries map[string]Entry) error {
	if len(entries) == 0 {
		return nil
	}

	pipe := c.client.Pipeline()
	for name, entry := range entries {
		payload, err := json.Marshal(entry)
		if err != nil {
			continue
		}
		pipe.Set(ctx, constants.RedisPrefixCatalogEntry+name, payload, constants.CatalogCacheTTL)
	}
	_, err := pipe.Exec(ctx)
	return err
}
