// internal/common/database/postgres.go

// Package database opens and verifies the backing connections the dedup
// stores run on: Postgres for match state, Elasticsearch for listings,
// Redis for the config and rule caches.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"vehicle-dedup-workers/internal/common/config"

	_ "github.com/lib/pq"
)

const connMaxLifetime = 5 * time.Minute

// OpenPostgres connects to the match-state database and verifies the
// connection before handing it out.
func OpenPostgres(ctx context.Context, cfg config.PostgresConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxIdle)
	db.SetConnMaxLifetime(connMaxLifetime)
	db.SetConnMaxIdleTime(connMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}
