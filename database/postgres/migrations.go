package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sagarc03/bucketgate"
)

// Migrate creates every managed table. It is safe to run repeatedly.
func Migrate(ctx context.Context, pool *pgxpool.Pool, tables bucketgate.Tables) error {
	if err := createObjectsTable(ctx, pool, tables.Objects); err != nil {
		return fmt.Errorf("migrate up %s: %w", tables.Objects, err)
	}
	return nil
}

func createObjectsTable(ctx context.Context, pool *pgxpool.Pool, tableName string) error {
	quotedTable := pgx.Identifier{tableName}.Sanitize()
	indexPendingCleanup := pgx.Identifier{"idx_" + tableName + "_pending_cleanup"}.Sanitize()

	sql := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			object_key TEXT NOT NULL UNIQUE,
			content_type TEXT NOT NULL,
			filename TEXT NOT NULL,
			etag TEXT NOT NULL,
			file_size_bytes BIGINT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			deleted_at TIMESTAMPTZ,
			cleaned_up_at TIMESTAMPTZ
		);

		CREATE INDEX IF NOT EXISTS %s
		ON %s (deleted_at, object_key)
		WHERE (deleted_at IS NOT NULL AND cleaned_up_at IS NULL);
	`,
		quotedTable,
		indexPendingCleanup, quotedTable,
	)

	if _, err := pool.Exec(ctx, sql); err != nil {
		return fmt.Errorf("create objects table: %w", err)
	}
	return nil
}
