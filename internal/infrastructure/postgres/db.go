package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ConnectOptions bounds how long startup waits for the database.
type ConnectOptions struct {
	ConnectTimeout time.Duration
	RetryAttempts  int
	RetryDelay     time.Duration
}

var DefaultConnectOptions = ConnectOptions{
	ConnectTimeout: 10 * time.Second,
	RetryAttempts:  10,
	RetryDelay:     3 * time.Second,
}

// NewPool opens a pool and pings it, retrying while the database comes up.
func NewPool(ctx context.Context, databaseURL string, opts ConnectOptions, logger *slog.Logger) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse db config: %w", err)
	}

	cfg.MaxConns = 25
	cfg.MinConns = 2
	cfg.MaxConnLifetime = 1 * time.Hour
	cfg.MaxConnIdleTime = 30 * time.Minute
	cfg.HealthCheckPeriod = 30 * time.Second
	cfg.ConnConfig.ConnectTimeout = opts.ConnectTimeout

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	attempts := max(opts.RetryAttempts, 1)
	for attempt := 1; ; attempt++ {
		err = pool.Ping(ctx)
		if err == nil {
			return pool, nil
		}
		if attempt >= attempts {
			break
		}
		logger.Warn("database not reachable, retrying",
			"attempt", attempt,
			"max_attempts", attempts,
			"retry_in", opts.RetryDelay,
			"error", err,
		)
		select {
		case <-ctx.Done():
			pool.Close()
			return nil, fmt.Errorf("ping db: %w", ctx.Err())
		case <-time.After(opts.RetryDelay):
		}
	}

	pool.Close()
	return nil, fmt.Errorf("ping db after %d attempts: %w", attempts, err)
}
