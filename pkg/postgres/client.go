// Package postgres opens the PostgreSQL pool behind the run report store.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Author-Gender-Stylometry/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Author-Gender-Stylometry/pkg/resilience"
	_ "github.com/lib/pq"
)

// Client owns the connection pool used by the run report store.
type Client struct {
	DB *sql.DB
}

// New opens the pool and pings it, retrying per retryCfg.
func New(ctx context.Context, cfg config.PostgresConfig, retryCfg config.RetryConfig) (*Client, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("opening postgres connection: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	err = resilience.Retry(ctx, "postgres-ping", resilience.FromConfig(retryCfg), func() error {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return db.PingContext(pingCtx)
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}
	return &Client{DB: db}, nil
}

func (c *Client) Close() error {
	return c.DB.Close()
}
