package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const defaultKeyPrefix = "catalog:turnus:"

// RedisCache is a read-through cache in front of another Source, shared by all
// instances of the service. Redis failures degrade to the wrapped source.
type RedisCache struct {
	client    *redis.Client
	next      Source
	ttl       time.Duration
	keyPrefix string
	logger    *zap.Logger
}

func NewRedisCache(client *redis.Client, next Source, ttl time.Duration, logger *zap.Logger) *RedisCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisCache{
		client:    client,
		next:      next,
		ttl:       ttl,
		keyPrefix: defaultKeyPrefix,
		logger:    logger,
	}
}

func (r *RedisCache) Fetch(ctx context.Context, key TurnusKey) (*Catalog, error) {
	cacheKey := r.keyPrefix + key.String()

	raw, err := r.client.Get(ctx, cacheKey).Bytes()
	switch {
	case err == nil:
		var c Catalog
		if err := json.Unmarshal(raw, &c); err == nil {
			return &c, nil
		}
		r.logger.Warn("Discarding undecodable cached catalog", zap.String("key", cacheKey))
	case !errors.Is(err, redis.Nil):
		r.logger.Warn("Catalog cache read failed", zap.String("key", cacheKey), zap.Error(err))
	}

	c, err := r.next.Fetch(ctx, key)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(c); err == nil {
		if err := r.client.Set(ctx, cacheKey, data, r.ttl).Err(); err != nil {
			r.logger.Warn("Catalog cache write failed", zap.String("key", cacheKey), zap.Error(err))
		}
	}
	return c, nil
}
