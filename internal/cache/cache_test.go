package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"businessconnect_backend/internal/models"
)

func newRedis(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	return New(mr.Addr(), "", 0), mr
}

func TestClient_Disabled(t *testing.T) {
	var c *Client
	ctx := context.Background()

	assert.False(t, c.Enabled())
	assert.Nil(t, New("", "", 0))
	assert.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	val, err := c.Get(ctx, "k")
	assert.NoError(t, err)
	assert.Nil(t, val)
	_, ok := c.Incr(ctx, "n", time.Minute)
	assert.False(t, ok)
	assert.Error(t, c.Ping(ctx))
}

func TestClient_GetSetDelete(t *testing.T) {
	c, mr := newRedis(t)
	ctx := context.Background()

	require.NoError(t, c.Ping(ctx))
	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	val, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), val)

	mr.FastForward(2 * time.Minute)
	val, _ = c.Get(ctx, "k")
	assert.Nil(t, val, "expired keys read as misses")

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	require.NoError(t, c.Delete(ctx, "k"))
	val, _ = c.Get(ctx, "k")
	assert.Nil(t, val)
}

func TestClient_IncrStartsWindowOnce(t *testing.T) {
	c, mr := newRedis(t)
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		count, ok := c.Incr(ctx, "counter", time.Hour)
		require.True(t, ok)
		assert.Equal(t, want, count)
	}
	assert.Equal(t, time.Hour, mr.TTL("counter"))

	mr.FastForward(time.Hour + time.Second)
	count, ok := c.Incr(ctx, "counter", time.Hour)
	require.True(t, ok)
	assert.Equal(t, int64(1), count, "a new window starts after expiry")
}

func TestClient_RedisDownIsAMiss(t *testing.T) {
	c, mr := newRedis(t)
	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))

	mr.Close()
	val, err := c.Get(ctx, "k")
	assert.NoError(t, err)
	assert.Nil(t, val)
	_, ok := c.Incr(ctx, "n", time.Minute)
	assert.False(t, ok)
}

func TestItemCache(t *testing.T) {
	c, mr := newRedis(t)
	ctx := context.Background()
	items := NewItemCache(c, time.Minute)

	_, ok := items.Get(ctx, "item-1")
	assert.False(t, ok)

	items.Set(ctx, &models.MarketplaceItem{BaseModel: models.BaseModel{ID: "item-1"}, Title: "Vélo"})
	assert.True(t, mr.Exists("marketplace:item:item-1"))
	got, ok := items.Get(ctx, "item-1")
	require.True(t, ok)
	assert.Equal(t, "Vélo", got.Title)

	items.Invalidate(ctx, "item-1")
	_, ok = items.Get(ctx, "item-1")
	assert.False(t, ok)

	require.NoError(t, mr.Set("marketplace:item:broken", "{not json"))
	_, ok = items.Get(ctx, "broken")
	assert.False(t, ok)
}
