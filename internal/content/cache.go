package content

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Cache stores rendered storefront content sections in Redis so repeated
// page loads do not hit the content service. Entries are JSON documents
// keyed by section name.
type Cache struct {
	Client *redis.Client
	Prefix string
	TTL    time.Duration
	Logger zerolog.Logger
}

func (c *Cache) key(section string) string {
	prefix := c.Prefix
	if prefix == "" {
		prefix = "content:"
	}
	return prefix + section
}

func (c *Cache) ttl() time.Duration {
	if c.TTL <= 0 {
		return 10 * time.Minute
	}
	return c.TTL
}

// Get returns the cached document for a section. A cache miss returns
// (nil, false); infrastructure errors are logged and treated as misses.
func (c *Cache) Get(ctx context.Context, section string) (json.RawMessage, bool) {
	if c == nil || c.Client == nil {
		return nil, false
	}
	data, err := c.Client.Get(ctx, c.key(section)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.Logger.Warn().Err(err).Str("section", section).Msg("content_cache_get_failed")
		}
		return nil, false
	}
	return data, true
}

// Set stores the document with the cache TTL. Failures are logged, not
// surfaced; the caller already has the document.
func (c *Cache) Set(ctx context.Context, section string, doc json.RawMessage) {
	if c == nil || c.Client == nil {
		return
	}
	if err := c.Client.Set(ctx, c.key(section), []byte(doc), c.ttl()).Err(); err != nil {
		c.Logger.Warn().Err(err).Str("section", section).Msg("content_cache_set_failed")
	}
}

// Invalidate drops a single section from the cache.
func (c *Cache) Invalidate(ctx context.Context, section string) error {
	if c == nil || c.Client == nil {
		return nil
	}
	return c.Client.Del(ctx, c.key(section)).Err()
}

// InvalidateAll drops every cached section by scanning the key prefix.
func (c *Cache) InvalidateAll(ctx context.Context) error {
	if c == nil || c.Client == nil {
		return nil
	}
	var cursor uint64
	pattern := c.key("*")
	for {
		keys, next, err := c.Client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := c.Client.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}
