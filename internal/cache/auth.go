package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/buscacontatos/buscacontatos/internal/model"
)

const (
	authCachePrefix = "auth:ctx:"
	// authIndexPrefix maps a key id to the cache entry derived from its plaintext,
	// so deleting a key can evict an entry whose plaintext is no longer known.
	authIndexPrefix = "auth:key:"
	authCacheTTL    = 5 * time.Minute
)

type cachedAuthContext struct {
	KeyID     string `json:"key_id"`
	KeyPrefix string `json:"key_prefix"`
	UserID    string `json:"user_id"`
}

// GetAuthContext returns the cached caller for cacheKey, or nil on a miss.
func (c *Cache) GetAuthContext(ctx context.Context, cacheKey string) (*model.AuthContext, error) {
	data, err := c.client.Get(ctx, c.key(authCachePrefix, cacheKey)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("get auth context: %w", err)
	}

	var cached cachedAuthContext
	if err := json.Unmarshal(data, &cached); err != nil {
		// Corrupted entry, treat as miss
		return nil, nil //nolint:nilerr
	}

	return &model.AuthContext{
		KeyID:     cached.KeyID,
		KeyPrefix: cached.KeyPrefix,
		UserID:    cached.UserID,
	}, nil
}

// SetAuthContext caches a verified caller under cacheKey.
func (c *Cache) SetAuthContext(ctx context.Context, cacheKey string, ac *model.AuthContext) error {
	data, err := json.Marshal(cachedAuthContext{
		KeyID:     ac.KeyID,
		KeyPrefix: ac.KeyPrefix,
		UserID:    ac.UserID,
	})
	if err != nil {
		return fmt.Errorf("marshal auth context: %w", err)
	}

	pipe := c.client.TxPipeline()
	pipe.Set(ctx, c.key(authCachePrefix, cacheKey), data, authCacheTTL)
	pipe.Set(ctx, c.key(authIndexPrefix, ac.KeyID), cacheKey, authCacheTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("set auth context: %w", err)
	}
	return nil
}

// DeleteAuthContext evicts the cached caller of the API key with keyID.
func (c *Cache) DeleteAuthContext(ctx context.Context, keyID string) error {
	indexKey := c.key(authIndexPrefix, keyID)
	cacheKey, err := c.client.Get(ctx, indexKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("lookup auth context: %w", err)
	}
	return c.client.Del(ctx, c.key(authCachePrefix, cacheKey), indexKey).Err()
}
