package db

import (
	"context"
	"fmt"

	"github.com/exaring/otelpgx"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PoolOption func(config *pgxpool.Config)

func WithMaxConnections(maxConns int) PoolOption {
	return func(config *pgxpool.Config) {
		config.MaxConns = int32(maxConns)
	}
}

func WithMinIdle(minIdle int) PoolOption {
	return func(config *pgxpool.Config) {
		config.MinIdleConns = int32(minIdle)
	}
}

func NewPool(ctx context.Context, databaseURL string, options ...PoolOption) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	for _, option := range options {
		option(config)
	}

	config.ConnConfig.Tracer = otelpgx.NewTracer()

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := otelpgx.RecordStats(pool); err != nil {
		pool.Close()

		return nil, fmt.Errorf("failed to record stats: %w", err)
	}

	return pool, nil
}
