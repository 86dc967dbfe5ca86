package cache

import (
	"context"
	"encoding/json"
	"time"

	"businessconnect_backend/internal/models"
)

const itemKeyPrefix = "marketplace:item:"

// ItemCache caches approved marketplace items by id.
type ItemCache struct {
	client *Client
	ttl    time.Duration
}

func NewItemCache(client *Client, ttl time.Duration) *ItemCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &ItemCache{client: client, ttl: ttl}
}

func (c *ItemCache) Get(ctx context.Context, id string) (*models.MarketplaceItem, bool) {
	data, _ := c.client.Get(ctx, itemKeyPrefix+id)
	if data == nil {
		return nil, false
	}
	var item models.MarketplaceItem
	if err := json.Unmarshal(data, &item); err != nil {
		return nil, false
	}
	return &item, true
}

func (c *ItemCache) Set(ctx context.Context, item *models.MarketplaceItem) {
	data, err := json.Marshal(item)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, itemKeyPrefix+item.ID, data, c.ttl)
}

func (c *ItemCache) Invalidate(ctx context.Context, id string) {
	_ = c.client.Delete(ctx, itemKeyPrefix+id)
}
