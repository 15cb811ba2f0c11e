package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"

	imageDomain "github.com/davicafu/imagelab/internal/image/domain"
)

// RedisImageCache implementa el cache de lecturas de imágenes sobre Redis.
type RedisImageCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisImageCache(client *redis.Client, ttl time.Duration) *RedisImageCache {
	return &RedisImageCache{client: client, ttl: ttl}
}

// Verificación estática del port de dominio.
var _ imageDomain.ImageCache = (*RedisImageCache)(nil)

func (c *RedisImageCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return false, nil // cache miss
		}
		return false, err
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (c *RedisImageCache) Set(ctx context.Context, key string, val interface{}, ttlSecs int) error {
	data, err := json.Marshal(val)
	if err != nil {
		return err
	}
	ttl := c.ttl
	if ttlSecs > 0 {
		ttl = time.Duration(ttlSecs) * time.Second
	}
	return c.client.Set(ctx, key, data, ttl).Err()
}

func (c *RedisImageCache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}
