// Package postgres stores records as raw JSON bytes in a single table keyed by
// namespace and composite key.
package postgres

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sandbox-pool/infra/packages/api/internal/store"
	"github.com/sandbox-pool/infra/packages/shared/pkg/db"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

type Backend struct {
	pool *pgxpool.Pool
}

var _ store.Backend = (*Backend)(nil)

func NewBackend(pool *pgxpool.Pool) *Backend {
	return &Backend{pool: pool}
}

// Migrate creates or upgrades the records table.
func (b *Backend) Migrate(ctx context.Context) error {
	migrations, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to open migrations: %w", err)
	}

	return db.Migrate(ctx, b.pool, migrations)
}

func (b *Backend) Get(ctx context.Context, namespace string, key store.Key) ([]byte, error) {
	var data []byte

	err := b.pool.QueryRow(ctx,
		`SELECT data FROM records WHERE namespace = $1 AND pk = $2 AND sk = $3`,
		namespace, key.PK, key.SK,
	).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &store.UnknownItemError{Namespace: namespace, Key: key}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get record: %w", err)
	}

	return data, nil
}

func (b *Backend) Create(ctx context.Context, namespace string, key store.Key, data []byte) error {
	tag, err := b.pool.Exec(ctx,
		`INSERT INTO records (namespace, pk, sk, data) VALUES ($1, $2, $3, $4) ON CONFLICT DO NOTHING`,
		namespace, key.PK, key.SK, data,
	)
	if err != nil {
		return fmt.Errorf("failed to create record: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return &store.ItemAlreadyExistsError{Namespace: namespace, Key: key}
	}

	return nil
}

func (b *Backend) Put(ctx context.Context, namespace string, key store.Key, data []byte) ([]byte, error) {
	var previous []byte

	err := pgx.BeginFunc(ctx, b.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`SELECT data FROM records WHERE namespace = $1 AND pk = $2 AND sk = $3 FOR UPDATE`,
			namespace, key.PK, key.SK,
		).Scan(&previous)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return err
		}

		_, err = tx.Exec(ctx,
			`INSERT INTO records (namespace, pk, sk, data) VALUES ($1, $2, $3, $4)
			 ON CONFLICT (namespace, pk, sk) DO UPDATE SET data = EXCLUDED.data`,
			namespace, key.PK, key.SK, data,
		)

		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to put record: %w", err)
	}

	return previous, nil
}

func (b *Backend) CompareAndSwap(ctx context.Context, namespace string, key store.Key, expected, data []byte) error {
	tag, err := b.pool.Exec(ctx,
		`UPDATE records SET data = $4 WHERE namespace = $1 AND pk = $2 AND sk = $3 AND data = $5`,
		namespace, key.PK, key.SK, data, expected,
	)
	if err != nil {
		return fmt.Errorf("failed to update record: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return &store.ConcurrentDataModificationError{Namespace: namespace, Key: key}
	}

	return nil
}

func (b *Backend) Delete(ctx context.Context, namespace string, key store.Key) error {
	tag, err := b.pool.Exec(ctx,
		`DELETE FROM records WHERE namespace = $1 AND pk = $2 AND sk = $3`,
		namespace, key.PK, key.SK,
	)
	if err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return &store.UnknownItemError{Namespace: namespace, Key: key}
	}

	return nil
}

func (b *Backend) CompareAndDelete(ctx context.Context, namespace string, key store.Key, expected []byte) error {
	tag, err := b.pool.Exec(ctx,
		`DELETE FROM records WHERE namespace = $1 AND pk = $2 AND sk = $3 AND data = $4`,
		namespace, key.PK, key.SK, expected,
	)
	if err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return &store.ConcurrentDataModificationError{Namespace: namespace, Key: key}
	}

	return nil
}

func (b *Backend) Scan(ctx context.Context, namespace string, after *store.Key, limit int) ([]store.RawItem, error) {
	var (
		rows pgx.Rows
		err  error
	)

	if after == nil {
		rows, err = b.pool.Query(ctx,
			`SELECT pk, sk, data FROM records WHERE namespace = $1 ORDER BY pk, sk LIMIT $2`,
			namespace, limit,
		)
	} else {
		rows, err = b.pool.Query(ctx,
			`SELECT pk, sk, data FROM records WHERE namespace = $1 AND (pk, sk) > ($2, $3) ORDER BY pk, sk LIMIT $4`,
			namespace, after.PK, after.SK, limit,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan records: %w", err)
	}

	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (store.RawItem, error) {
		var item store.RawItem

		err := row.Scan(&item.Key.PK, &item.Key.SK, &item.Data)
		item.Data = bytes.Clone(item.Data)

		return item, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read scanned records: %w", err)
	}

	return items, nil
}

func (b *Backend) Close(context.Context) error {
	b.pool.Close()

	return nil
}
