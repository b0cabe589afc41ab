package returns

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ViewCache is a versioned Redis cache for invoice and return views. One
// version counter per tenant; invalidation bumps it, which orphans every key
// built under the old version instead of deleting them one by one.
type ViewCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewViewCache instantiates the cache helper.
func NewViewCache(client *redis.Client, ttl time.Duration) *ViewCache {
	return &ViewCache{client: client, ttl: ttl}
}

func versionKey(tenantID int64) string {
	return fmt.Sprintf("views:tenant:%d:version", tenantID)
}

func (c *ViewCache) version(ctx context.Context, tenantID int64) (int64, error) {
	ver, err := c.client.Get(ctx, versionKey(tenantID)).Int64()
	if err == redis.Nil {
		if err := c.client.Set(ctx, versionKey(tenantID), 1, 0).Err(); err != nil {
			return 0, err
		}
		return 1, nil
	}
	if err != nil {
		return 0, err
	}
	return ver, nil
}

// FetchJSON loads a cached value or populates it using the loader. Cache
// failures degrade to calling the loader directly.
func (c *ViewCache) FetchJSON(ctx context.Context, tenantID int64, key string, dest any, loader func(context.Context) (any, error)) error {
	if loader == nil {
		return errors.New("returns: cache loader required")
	}
	if c == nil || c.client == nil {
		return loadInto(ctx, dest, loader)
	}
	ver, err := c.version(ctx, tenantID)
	if err != nil {
		return loadInto(ctx, dest, loader)
	}
	full := fmt.Sprintf("views:tenant:%d:%s:%d", tenantID, key, ver)
	raw, err := c.client.Get(ctx, full).Bytes()
	if err == nil {
		return json.Unmarshal(raw, dest)
	}
	if err != redis.Nil {
		return loadInto(ctx, dest, loader)
	}
	value, err := loader(ctx)
	if err != nil {
		return err
	}
	encoded, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, full, encoded, c.ttl).Err(); err != nil {
		return json.Unmarshal(encoded, dest)
	}
	return json.Unmarshal(encoded, dest)
}

// Invalidate bumps the tenant's view version after a processed return so the
// invoice, invoice list, and returns list views are rebuilt on next read.
func (c *ViewCache) Invalidate(ctx context.Context, tenantID int64) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Incr(ctx, versionKey(tenantID)).Err()
}

func loadInto(ctx context.Context, dest any, loader func(context.Context) (any, error)) error {
	value, err := loader(ctx)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}
