// internal/storage/cache/config_cache.go
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"vehicle-dedup-workers/internal/common/logger"
	"vehicle-dedup-workers/internal/models"
)

// ConfigSource is the backing store the config cache reads through to.
type ConfigSource interface {
	GetActiveConfig(ctx context.Context, tenantID string) (*models.DeduplicationConfig, error)
}

// ConfigCache is a read-through Redis cache over the tenant config store.
// Not-found and ambiguity errors are never cached; only resolved configs
// are.
type ConfigCache struct {
	client *redis.Client
	store  ConfigSource
	ttl    time.Duration
	logger logger.Logger
}

func NewConfigCache(client *redis.Client, store ConfigSource, ttl time.Duration, log logger.Logger) *ConfigCache {
	return &ConfigCache{
		client: client,
		store:  store,
		ttl:    ttl,
		logger: log,
	}
}

func configKey(tenantID string) string {
	return fmt.Sprintf("dedup:config:%s", tenantID)
}

func (c *ConfigCache) GetActiveConfig(ctx context.Context, tenantID string) (*models.DeduplicationConfig, error) {
	key := configKey(tenantID)

	cached, err := c.client.Get(ctx, key).Result()
	if err == nil {
		var cfg models.DeduplicationConfig
		if decodeErr := json.Unmarshal([]byte(cached), &cfg); decodeErr == nil {
			return &cfg, nil
		}
		c.client.Del(ctx, key)
	} else if err != redis.Nil {
		c.logger.Warn("config cache read failed, falling back to store", map[string]interface{}{
			"key":   key,
			"error": err,
		})
	}

	cfg, err := c.store.GetActiveConfig(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	if encoded, err := json.Marshal(cfg); err == nil {
		if err := c.client.Set(ctx, key, encoded, c.ttl).Err(); err != nil {
			c.logger.Warn("config cache write failed", map[string]interface{}{
				"key":   key,
				"error": err,
			})
		}
	}
	return cfg, nil
}

// Invalidate drops the cached config for a tenant. Called after config
// writes so stale thresholds stop being served.
func (c *ConfigCache) Invalidate(ctx context.Context, tenantID string) error {
	return c.client.Del(ctx, configKey(tenantID)).Err()
}
