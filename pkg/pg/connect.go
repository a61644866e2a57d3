package pg

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Connect establishes the connection pool shared by all tenants, retrying
// with a linear backoff while the database is unavailable.
func Connect(ctx context.Context, cfg Config) (*pgxpool.Pool, error) {
	connConfig, err := pgxpool.ParseConfig(cfg.ConnectionString)
	if err != nil {
		return nil, errors.Join(ErrFailedToParseDBConfig, err)
	}
	connConfig.MaxConns = cfg.MaxOpenConns
	connConfig.MinConns = cfg.MaxIdleConns
	connConfig.HealthCheckPeriod = cfg.HealthCheckPeriod
	connConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	connConfig.MaxConnLifetime = cfg.MaxConnLifetime

	if cfg.ResetOnRelease {
		connConfig.AfterRelease = resetOnRelease(cfg.ResetTimeout)
	}

	var lastErr error
	for attempt := 1; attempt <= max(cfg.RetryAttempts, 1); attempt++ {
		pool, err := pgxpool.NewWithConfig(ctx, connConfig)
		if err == nil {
			if err = pool.Ping(ctx); err == nil {
				return pool, nil
			}
			pool.Close()
		}
		lastErr = err

		// Linear backoff: the n-th retry waits n*RetryInterval.
		select {
		case <-ctx.Done():
			return nil, errors.Join(ErrFailedToOpenDBConnection, ctx.Err())
		case <-time.After(time.Duration(attempt) * cfg.RetryInterval):
		}
	}

	return nil, errors.Join(ErrFailedToOpenDBConnection, lastErr)
}

// resetOnRelease returns a pgxpool AfterRelease hook that puts the
// connection back on the default search_path. A connection that cannot be
// reset is destroyed instead of pooled.
func resetOnRelease(timeout time.Duration) func(*pgx.Conn) bool {
	if timeout <= 0 {
		timeout = DefaultResetTimeout
	}
	return func(conn *pgx.Conn) bool {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		_, err := conn.Exec(ctx, resetSearchPathSQL)
		return err == nil
	}
}
