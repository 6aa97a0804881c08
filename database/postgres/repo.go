// Package postgres implements bucketgate.MetaDataRepo on PostgreSQL using pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sagarc03/bucketgate"
	"github.com/sagarc03/bucketgate/database/internal"
)

const selectColumns = `id, object_key, content_type, filename, etag, file_size_bytes, created_at, updated_at`

type repo struct {
	pool      *pgxpool.Pool
	tableName string // sanitized
}

func scanMetaData(row pgx.Row, extra ...any) (bucketgate.MetaData, error) {
	var m bucketgate.MetaData
	dest := append([]any{&m.ID, &m.Key, &m.ContentType, &m.Filename, &m.Etag, &m.FileSizeBytes, &m.CreatedAt, &m.UpdatedAt}, extra...)
	if err := row.Scan(dest...); err != nil {
		return bucketgate.MetaData{}, err
	}
	return m, nil
}

func (r *repo) Get(ctx context.Context, key string) (bucketgate.MetaData, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE object_key = $1 AND deleted_at IS NULL`, selectColumns, r.tableName)

	m, err := scanMetaData(r.pool.QueryRow(ctx, query, key))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return bucketgate.MetaData{}, bucketgate.ErrNotFound
		}
		return bucketgate.MetaData{}, fmt.Errorf("get: %w", err)
	}

	return m, nil
}

func (r *repo) Upsert(ctx context.Context, entry bucketgate.ObjectEntry) (bucketgate.MetaData, bool, error) {
	query := fmt.Sprintf(`
		INSERT INTO %s (object_key, content_type, filename, etag, file_size_bytes)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (object_key) DO UPDATE
		SET content_type = EXCLUDED.content_type,
			filename = EXCLUDED.filename,
			etag = EXCLUDED.etag,
			file_size_bytes = EXCLUDED.file_size_bytes,
			updated_at = NOW(),
			deleted_at = NULL,
			cleaned_up_at = NULL
		RETURNING %s, (xmax = 0) AS inserted
	`, r.tableName, selectColumns)

	var inserted bool
	m, err := scanMetaData(
		r.pool.QueryRow(ctx, query, entry.Key, entry.ContentType, entry.Filename, entry.ETag, entry.Size),
		&inserted,
	)
	if err != nil {
		return bucketgate.MetaData{}, false, fmt.Errorf("upsert: %w", err)
	}

	return m, inserted, nil
}

func (r *repo) Delete(ctx context.Context, key string) error {
	query := fmt.Sprintf(`UPDATE %s SET deleted_at = NOW() WHERE object_key = $1 AND deleted_at IS NULL`, r.tableName)

	result, err := r.pool.Exec(ctx, query, key)
	if err != nil {
		return fmt.Errorf("delete: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("delete: %w", bucketgate.ErrNotFound)
	}

	return nil
}

func (r *repo) ListPendingCleanup(ctx context.Context, q bucketgate.ListQuery) (bucketgate.ListResult, error) {
	cursor, err := internal.DecodeCursor(q.Cursor)
	if err != nil {
		return bucketgate.ListResult{}, fmt.Errorf("list pending cleanup: %w", err)
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 100
	}

	query := fmt.Sprintf(`
		SELECT %s, deleted_at FROM %s
		WHERE deleted_at IS NOT NULL AND cleaned_up_at IS NULL
			AND object_key LIKE $1 || '%%'`, selectColumns, r.tableName)
	args := []any{internal.EscapeLikePattern(q.KeyPrefix)}

	if q.Cursor != "" {
		query += ` AND (deleted_at, object_key) > ($2, $3) ORDER BY deleted_at, object_key LIMIT $4`
		args = append(args, cursor.DeletedAt, cursor.Key, limit+1)
	} else {
		query += ` ORDER BY deleted_at, object_key LIMIT $2`
		args = append(args, limit+1)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return bucketgate.ListResult{}, fmt.Errorf("list pending cleanup: %w", err)
	}
	defer rows.Close()

	items := make([]bucketgate.MetaData, 0, limit)
	deletedAts := make([]time.Time, 0, limit)
	for rows.Next() {
		var deletedAt time.Time
		m, scanErr := scanMetaData(rows, &deletedAt)
		if scanErr != nil {
			return bucketgate.ListResult{}, fmt.Errorf("list pending cleanup: scan: %w", scanErr)
		}
		items = append(items, m)
		deletedAts = append(deletedAts, deletedAt)
	}

	if err := rows.Err(); err != nil {
		return bucketgate.ListResult{}, fmt.Errorf("list pending cleanup: rows: %w", err)
	}

	var nextCursor string
	if len(items) > limit {
		nextCursor = internal.EncodeCursor(deletedAts[limit-1], items[limit-1].Key)
		items = items[:limit]
	}

	return bucketgate.ListResult{Items: items, NextCursor: nextCursor}, nil
}

func (r *repo) MarkCleanedUp(ctx context.Context, id uuid.UUID) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET cleaned_up_at = NOW()
		WHERE id = $1 AND deleted_at IS NOT NULL AND cleaned_up_at IS NULL
	`, r.tableName)

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("mark cleaned up: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("mark cleaned up: %w", bucketgate.ErrNotFound)
	}

	return nil
}
