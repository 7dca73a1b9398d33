package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/turtacn/tokenforge/pkg/errors"
	"github.com/turtacn/tokenforge/pkg/logger"
)

// CacheManager is the generic TTL key-value contract the record store is
// built on: per-key get/set/delete/exists/expire plus best-effort pattern
// enumeration for index scans. It assumes nothing about the cache product
// beyond these primitives.
type CacheManager interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, key string) (bool, error)
	Keys(ctx context.Context, pattern string) ([]string, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
}

type cacheManagerImpl struct {
	client redis.UniversalClient
	log    logger.Logger
}

// NewCacheManager creates a CacheManager over the given client.
func NewCacheManager(client redis.UniversalClient, log logger.Logger) CacheManager {
	return &cacheManagerImpl{client: client, log: log.WithComponent("cache")}
}

// Get returns the value at key. A missing key yields a not-found error;
// every other failure is a store error.
func (c *cacheManagerImpl) Get(ctx context.Context, key string) (string, error) {
	val, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", errors.ErrRecordNotFound(key)
		}
		return "", errors.ErrStoreFailure("get", err)
	}
	return val, nil
}

// Set writes value at key with the given TTL. Primitive values are stored
// as-is; everything else is JSON-marshaled.
func (c *cacheManagerImpl) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	var data interface{}
	switch v := value.(type) {
	case string, []byte, int, int32, int64, float32, float64, bool:
		data = v
	default:
		b, err := json.Marshal(value)
		if err != nil {
			return errors.ErrStoreFailure("marshal", err)
		}
		data = b
	}

	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return errors.ErrStoreFailure("set", err)
	}
	return nil
}

func (c *cacheManagerImpl) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return errors.ErrStoreFailure("delete", err)
	}
	return nil
}

func (c *cacheManagerImpl) Exists(ctx context.Context, key string) (bool, error) {
	n, err := c.client.Exists(ctx, key).Result()
	if err != nil {
		return false, errors.ErrStoreFailure("exists", err)
	}
	return n > 0, nil
}

// Keys enumerates keys matching pattern with SCAN. The result is a
// point-in-time snapshot, not a consistent view.
func (c *cacheManagerImpl) Keys(ctx context.Context, pattern string) ([]string, error) {
	var keys []string
	iter := c.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, errors.ErrStoreFailure("scan", err)
	}
	return keys, nil
}

func (c *cacheManagerImpl) Expire(ctx context.Context, key string, ttl time.Duration) error {
	if err := c.client.Expire(ctx, key, ttl).Err(); err != nil {
		return errors.ErrStoreFailure("expire", err)
	}
	return nil
}
