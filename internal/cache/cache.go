// Package cache provides Redis read-through caching for catalog records.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/heritago/backend/internal/config"
)

// Key prefixes for the cached collections.
const (
	HeritagePrefix   = "heritage"
	AnnotationPrefix = "annotation"
)

// Default TTL for cached items
const defaultTTL = 5 * time.Minute

// Cache defines the caching operations for one record type.
type Cache[T any] interface {
	// Get retrieves a record by ID. A miss returns nil, nil.
	Get(ctx context.Context, id string) (*T, error)

	// GetAll retrieves the cached collection; found is false on a miss.
	GetAll(ctx context.Context) ([]T, bool, error)

	// Set stores a record and invalidates the collection.
	Set(ctx context.Context, id string, value *T) error

	// SetAll stores the whole collection.
	SetAll(ctx context.Context, values []T) error

	// Delete removes a record and invalidates the collection.
	Delete(ctx context.Context, id string) error

	// InvalidateAll removes the cached collection.
	InvalidateAll(ctx context.Context) error
}

// NewRedisClient connects to the Redis server named by the configuration.
func NewRedisClient(cfg *config.Config, logger *zap.Logger) (*redis.Client, error) {
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Connected to Redis cache")
	return client, nil
}

// RedisCache implements Cache using Redis with JSON values.
type RedisCache[T any] struct {
	client *redis.Client
	logger *zap.Logger
	prefix string
	ttl    time.Duration
}

// NewRedisCache creates a cache storing records under prefix. A non-positive ttl selects the default.
func NewRedisCache[T any](client *redis.Client, logger *zap.Logger, prefix string, ttl time.Duration) *RedisCache[T] {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &RedisCache[T]{
		client: client,
		logger: logger.With(zap.String("cache", prefix)),
		prefix: prefix,
		ttl:    ttl,
	}
}

func (c *RedisCache[T]) key(id string) string {
	return c.prefix + ":" + id
}

func (c *RedisCache[T]) allKey() string {
	return c.prefix + ":all"
}

// Get retrieves a record from cache by ID.
func (c *RedisCache[T]) Get(ctx context.Context, id string) (*T, error) {
	key := c.key(id)

	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil // Cache miss
	}
	if err != nil {
		c.logger.Warn("Failed to get from cache", zap.String("key", key), zap.Error(err))
		return nil, nil // Treat errors as cache miss
	}

	var value T
	if err := json.Unmarshal(data, &value); err != nil {
		c.logger.Warn("Failed to unmarshal cached value", zap.String("key", key), zap.Error(err))
		return nil, nil
	}

	c.logger.Debug("Cache hit", zap.String("key", key))
	return &value, nil
}

// GetAll retrieves the cached collection.
func (c *RedisCache[T]) GetAll(ctx context.Context) ([]T, bool, error) {
	data, err := c.client.Get(ctx, c.allKey()).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil // Cache miss
	}
	if err != nil {
		c.logger.Warn("Failed to get all from cache", zap.Error(err))
		return nil, false, nil
	}

	var values []T
	if err := json.Unmarshal(data, &values); err != nil {
		c.logger.Warn("Failed to unmarshal cached collection", zap.Error(err))
		return nil, false, nil
	}

	c.logger.Debug("Cache hit for collection", zap.Int("count", len(values)))
	return values, true, nil
}

// Set stores a record in cache.
func (c *RedisCache[T]) Set(ctx context.Context, id string, value *T) error {
	key := c.key(id)

	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("Failed to marshal value for cache", zap.Error(err))
		return err
	}

	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("Failed to set cache", zap.String("key", key), zap.Error(err))
		return err
	}

	// Invalidate the collection since data changed
	_ = c.InvalidateAll(ctx)

	c.logger.Debug("Cached value", zap.String("key", key))
	return nil
}

// SetAll stores the collection in cache.
func (c *RedisCache[T]) SetAll(ctx context.Context, values []T) error {
	if values == nil {
		values = []T{}
	}

	data, err := json.Marshal(values)
	if err != nil {
		c.logger.Warn("Failed to marshal collection for cache", zap.Error(err))
		return err
	}

	if err := c.client.Set(ctx, c.allKey(), data, c.ttl).Err(); err != nil {
		c.logger.Warn("Failed to set collection cache", zap.Error(err))
		return err
	}

	c.logger.Debug("Cached collection", zap.Int("count", len(values)))
	return nil
}

// Delete removes a record from cache.
func (c *RedisCache[T]) Delete(ctx context.Context, id string) error {
	key := c.key(id)

	if err := c.client.Del(ctx, key).Err(); err != nil {
		c.logger.Warn("Failed to delete from cache", zap.String("key", key), zap.Error(err))
		return err
	}

	// Invalidate the collection since data changed
	_ = c.InvalidateAll(ctx)

	c.logger.Debug("Deleted from cache", zap.String("key", key))
	return nil
}

// InvalidateAll removes the cached collection.
func (c *RedisCache[T]) InvalidateAll(ctx context.Context) error {
	if err := c.client.Del(ctx, c.allKey()).Err(); err != nil {
		c.logger.Warn("Failed to invalidate collection cache", zap.Error(err))
		return err
	}
	return nil
}
