// internal/common/database/redis.go
package database

import (
	"context"
	"fmt"
	"time"

	"vehicle-dedup-workers/internal/common/config"

	"github.com/redis/go-redis/v9"
)

// OpenRedis connects to the cache backing the config and rule lookups and
// verifies the connection before handing the client out.
func OpenRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}
