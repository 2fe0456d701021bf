package db

import (
	"context"
	"fmt"
	"io/fs"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pressly/goose/v3"
	"github.com/pressly/goose/v3/lock"
	"go.uber.org/zap"

	"github.com/sandbox-pool/infra/packages/shared/pkg/logger"
)

// Migrate applies every pending migration found in migrations. Concurrent
// callers are serialized through a postgres session lock.
func Migrate(ctx context.Context, pool *pgxpool.Pool, migrations fs.FS) error {
	db := Open(pool)
	defer func() {
		if err := db.Close(); err != nil {
			logger.L().Warn(ctx, "failed to close migration connection", zap.Error(err))
		}
	}()

	sessionLocker, err := lock.NewPostgresSessionLocker()
	if err != nil {
		return fmt.Errorf("failed to create session locker: %w", err)
	}

	provider, err := goose.NewProvider(goose.DialectPostgres, db, migrations, goose.WithSessionLocker(sessionLocker))
	if err != nil {
		return fmt.Errorf("failed to create goose provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	for _, res := range results {
		logger.L().Info(ctx, "applied migration", zap.String("path", res.Source.Path), zap.Duration("duration", res.Duration))
	}

	return nil
}
