package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/heritago/backend/internal/models"
)

func setupTestCache(t *testing.T) (*RedisCache[models.Heritage], *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisCache[models.Heritage](client, zap.NewNop(), HeritagePrefix, time.Minute), mr
}

func TestGet_Miss(t *testing.T) {
	c, _ := setupTestCache(t)

	value, err := c.Get(context.Background(), "missing")

	assert.NoError(t, err)
	assert.Nil(t, value)
}

func TestSetThenGet(t *testing.T) {
	c, mr := setupTestCache(t)
	ctx := context.Background()

	heritage := &models.Heritage{ID: "h-1", Title: "Hagia Sophia", Tags: []string{"byzantine"}}
	require.NoError(t, c.Set(ctx, heritage.ID, heritage))

	cached, err := c.Get(ctx, "h-1")
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.Equal(t, "Hagia Sophia", cached.Title)
	assert.Equal(t, []string{"byzantine"}, cached.Tags)

	assert.True(t, mr.Exists("heritage:h-1"))
	assert.Equal(t, time.Minute, mr.TTL("heritage:h-1"))
}

func TestGetAll_MissThenHit(t *testing.T) {
	c, _ := setupTestCache(t)
	ctx := context.Background()

	_, found, err := c.GetAll(ctx)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, c.SetAll(ctx, []models.Heritage{{ID: "1"}, {ID: "2"}}))

	values, found, err := c.GetAll(ctx)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Len(t, values, 2)
}

func TestSetAll_NilStoresEmptyCollection(t *testing.T) {
	c, _ := setupTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.SetAll(ctx, nil))

	values, found, err := c.GetAll(ctx)
	require.NoError(t, err)
	assert.True(t, found)
	assert.NotNil(t, values)
	assert.Empty(t, values)
}

func TestWritesInvalidateCollection(t *testing.T) {
	c, mr := setupTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.SetAll(ctx, []models.Heritage{{ID: "1"}}))
	require.NoError(t, c.Set(ctx, "2", &models.Heritage{ID: "2"}))
	assert.False(t, mr.Exists("heritage:all"))

	require.NoError(t, c.SetAll(ctx, []models.Heritage{{ID: "1"}, {ID: "2"}}))
	require.NoError(t, c.Delete(ctx, "2"))
	assert.False(t, mr.Exists("heritage:all"))
	assert.False(t, mr.Exists("heritage:2"))
}

func TestGet_CorruptValueIsMiss(t *testing.T) {
	c, mr := setupTestCache(t)

	require.NoError(t, mr.Set("heritage:bad", "{not json"))

	value, err := c.Get(context.Background(), "bad")
	assert.NoError(t, err)
	assert.Nil(t, value)
}

func TestGet_ServerDownIsMiss(t *testing.T) {
	c, mr := setupTestCache(t)
	mr.Close()

	value, err := c.Get(context.Background(), "h-1")
	assert.NoError(t, err)
	assert.Nil(t, value)

	_, found, err := c.GetAll(context.Background())
	assert.NoError(t, err)
	assert.False(t, found)
}

func TestNewRedisCache_DefaultTTL(t *testing.T) {
	c := NewRedisCache[models.Annotation](redis.NewClient(&redis.Options{}), zap.NewNop(), AnnotationPrefix, 0)

	assert.Equal(t, defaultTTL, c.ttl)
	assert.Equal(t, "annotation:all", c.allKey())
}
