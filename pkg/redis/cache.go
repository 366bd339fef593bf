package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrCacheMiss is returned by TagCache.Get when nothing is stored.
var ErrCacheMiss = errors.New("cache miss")

// TagCache stores values under keys grouped by tags. Invalidating a tag
// drops every key that was stored with it. A nil *TagCache is a valid,
// always-missing cache.
type TagCache struct {
	client *Client
	scope  string
}

func NewTagCache(client *Client, scope string) *TagCache {
	if client == nil {
		return nil
	}
	return &TagCache{client: client, scope: scope}
}

func (c *TagCache) Get(ctx context.Context, key string) ([]byte, error) {
	if c == nil {
		return nil, ErrCacheMiss
	}
	val, err := c.client.Get(ctx, c.client.CacheKey(c.scope, key))
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, err
	}
	return []byte(val), nil
}

// Set writes value and registers the key under each tag. Tag sets outlive
// their members by one TTL so a late invalidation still finds them.
func (c *TagCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration, tags ...string) error {
	if c == nil {
		return nil
	}
	if c.client == nil || c.client.store == nil {
		return errNotInitialized
	}
	full := c.client.CacheKey(c.scope, key)
	pipe := c.client.store.TxPipeline()
	pipe.Set(ctx, full, value, ttl)
	for _, tag := range tags {
		tagKey := c.client.TagKey(tag)
		pipe.SAdd(ctx, tagKey, full)
		if ttl > 0 {
			pipe.Expire(ctx, tagKey, 2*ttl)
		}
	}
	_, err := pipe.Exec(ctx)
	return err
}

// Invalidate deletes every key stored under tag, then the tag itself.
func (c *TagCache) Invalidate(ctx context.Context, tag string) error {
	if c == nil {
		return nil
	}
	if c.client == nil || c.client.store == nil {
		return errNotInitialized
	}
	return invalidateScript.Run(ctx, c.client.store, []string{c.client.TagKey(tag)}).Err()
}

// invalidateScript reads the tag set and deletes its members and itself in
// one step, so a Set racing the invalidation either lands before it and is
// dropped or after it and re-creates the tag set. Members are deleted in
// chunks to stay under Lua's unpack limit.
var invalidateScript = redis.NewScript(`
local keys = redis.call('SMEMBERS', KEYS[1])
for i = 1, #keys, 500 do
  redis.call('DEL', unpack(keys, i, math.min(i + 499, #keys)))
end
redis.call('DEL', KEYS[1])
return #keys
`)
