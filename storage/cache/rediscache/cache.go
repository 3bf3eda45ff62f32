// Package rediscache is the records.Cache shared by every API instance.
package rediscache

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/trezcool/alama/core"
	"github.com/trezcool/alama/core/records"
)

const pingTimeout = 3 * time.Second

// Cache stores each entry under <prefix>:<kind>:<key> and tracks the keys of a kind in the
// set <prefix>:<kind>, so a kind is invalidated without scanning the keyspace.
type Cache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

var _ records.Cache = (*Cache)(nil) // interface compliance check

func New(client *redis.Client, prefix string, ttl time.Duration) *Cache {
	return &Cache{client: client, prefix: prefix, ttl: ttl}
}

// Open connects to the configured server and pings it.
func Open(ctx context.Context, conf core.CacheConfig) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     conf.Address,
		Password: conf.Password,
		DB:       conf.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "pinging redis")
	}
	return New(client, conf.Prefix, conf.TTL), nil
}

func (c *Cache) Close() error {
	return c.client.Close()
}

func (c *Cache) indexKey(kind records.Kind) string {
	return c.prefix + ":" + string(kind)
}

func (c *Cache) entryKey(kind records.Kind, key string) string {
	return c.indexKey(kind) + ":" + key
}

func (c *Cache) Get(ctx context.Context, kind records.Kind, key string) ([]byte, bool, error) {
	val, err := c.client.Get(ctx, c.entryKey(kind, key)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, "getting entry")
	}
	return val, true, nil
}

func (c *Cache) Set(ctx context.Context, kind records.Kind, key string, val []byte) error {
	entry := c.entryKey(kind, key)
	pipe := c.client.TxPipeline()
	pipe.Set(ctx, entry, val, c.ttl)
	pipe.SAdd(ctx, c.indexKey(kind), entry)
	if c.ttl > 0 {
		pipe.Expire(ctx, c.indexKey(kind), c.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.Wrap(err, "setting entry")
	}
	return nil
}

// invalidateScript deletes the entries listed in the index KEYS[1], then the index. Redis runs it
// atomically, so no Set can add an entry to an index that is being dropped.
var invalidateScript = redis.NewScript(`
local entries = redis.call('SMEMBERS', KEYS[1])
for i = 1, #entries, 500 do
	redis.call('DEL', unpack(entries, i, math.min(i + 499, #entries)))
end
redis.call('DEL', KEYS[1])
return #entries
`)

func (c *Cache) Invalidate(ctx context.Context, kinds ...records.Kind) error {
	for _, kind := range kinds {
		if err := invalidateScript.Run(ctx, c.client, []string{c.indexKey(kind)}).Err(); err != nil && err != redis.Nil {
			return errors.Wrapf(err, "invalidating %s entries", kind)
		}
	}
	return nil
}
