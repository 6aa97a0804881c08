// Package sqlite implements bucketgate.MetaDataRepo on SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sagarc03/bucketgate"
	"github.com/sagarc03/bucketgate/database/internal"
)

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

const selectColumns = `id, object_key, content_type, filename, etag, file_size_bytes, created_at, updated_at`

type repo struct {
	db        *sql.DB
	tableName string // quoted
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMetaData(row scanner, extra ...any) (bucketgate.MetaData, error) {
	var (
		m                           bucketgate.MetaData
		idStr, createdAt, updatedAt string
	)

	dest := append([]any{&idStr, &m.Key, &m.ContentType, &m.Filename, &m.Etag, &m.FileSizeBytes, &createdAt, &updatedAt}, extra...)
	if err := row.Scan(dest...); err != nil {
		return bucketgate.MetaData{}, err
	}

	var err error
	if m.ID, err = uuid.Parse(idStr); err != nil {
		return bucketgate.MetaData{}, fmt.Errorf("parse id: %w", err)
	}
	if m.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return bucketgate.MetaData{}, fmt.Errorf("parse created_at: %w", err)
	}
	if m.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return bucketgate.MetaData{}, fmt.Errorf("parse updated_at: %w", err)
	}

	return m, nil
}

func (r *repo) Get(ctx context.Context, key string) (bucketgate.MetaData, error) {
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`SELECT %s FROM %s WHERE object_key = ? AND deleted_at IS NULL`, selectColumns, r.tableName)

	m, err := scanMetaData(r.db.QueryRowContext(ctx, query, key))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return bucketgate.MetaData{}, bucketgate.ErrNotFound
		}
		return bucketgate.MetaData{}, fmt.Errorf("get: %w", err)
	}

	return m, nil
}

// Upsert inserts a row or replaces the existing one in a single statement.
// A row is new when the returned id is the one generated here.
func (r *repo) Upsert(ctx context.Context, entry bucketgate.ObjectEntry) (bucketgate.MetaData, bool, error) {
	newID := uuid.New()
	now := formatTime(time.Now())

	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`INSERT INTO %s (id, object_key, content_type, filename, etag, file_size_bytes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (object_key) DO UPDATE SET
			content_type = excluded.content_type,
			filename = excluded.filename,
			etag = excluded.etag,
			file_size_bytes = excluded.file_size_bytes,
			updated_at = excluded.updated_at,
			deleted_at = NULL,
			cleaned_up_at = NULL
		RETURNING %s`, r.tableName, selectColumns)

	m, err := scanMetaData(r.db.QueryRowContext(ctx, query,
		newID.String(), entry.Key, entry.ContentType, entry.Filename, entry.ETag, entry.Size, now, now,
	))
	if err != nil {
		return bucketgate.MetaData{}, false, fmt.Errorf("upsert: %w", err)
	}

	return m, m.ID == newID, nil
}

func (r *repo) Delete(ctx context.Context, key string) error {
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`UPDATE %s SET deleted_at = ? WHERE object_key = ? AND deleted_at IS NULL`, r.tableName)

	result, err := r.db.ExecContext(ctx, query, formatTime(time.Now()), key)
	if err != nil {
		return fmt.Errorf("delete: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete: rows affected: %w", err)
	}

	if rowsAffected == 0 {
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

	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`SELECT %s, deleted_at FROM %s
		WHERE deleted_at IS NOT NULL AND cleaned_up_at IS NULL
			AND object_key LIKE ? || '%%' ESCAPE '\'`, selectColumns, r.tableName)
	args := []any{internal.EscapeLikePattern(q.KeyPrefix)}

	if q.Cursor != "" {
		query += ` AND (deleted_at, object_key) > (?, ?)`
		args = append(args, formatTime(cursor.DeletedAt), cursor.Key)
	}

	query += ` ORDER BY deleted_at, object_key LIMIT ?`
	args = append(args, limit+1)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return bucketgate.ListResult{}, fmt.Errorf("list pending cleanup: %w", err)
	}
	defer func() { _ = rows.Close() }()

	items := make([]bucketgate.MetaData, 0, limit)
	deletedAts := make([]string, 0, limit)
	for rows.Next() {
		var deletedAt string
		m, scanErr := scanMetaData(rows, &deletedAt)
		if scanErr != nil {
			return bucketgate.ListResult{}, fmt.Errorf("list pending cleanup: %w", scanErr)
		}
		items = append(items, m)
		deletedAts = append(deletedAts, deletedAt)
	}

	if err := rows.Err(); err != nil {
		return bucketgate.ListResult{}, fmt.Errorf("list pending cleanup: rows: %w", err)
	}

	var nextCursor string
	if len(items) > limit {
		last := items[limit-1]
		deletedAt, parseErr := time.Parse(time.RFC3339Nano, deletedAts[limit-1])
		if parseErr != nil {
			return bucketgate.ListResult{}, fmt.Errorf("list pending cleanup: parse deleted_at: %w", parseErr)
		}
		nextCursor = internal.EncodeCursor(deletedAt, last.Key)
		items = items[:limit]
	}

	return bucketgate.ListResult{Items: items, NextCursor: nextCursor}, nil
}

func (r *repo) MarkCleanedUp(ctx context.Context, id uuid.UUID) error {
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`UPDATE %s SET cleaned_up_at = ?
		WHERE id = ? AND deleted_at IS NOT NULL AND cleaned_up_at IS NULL`, r.tableName)

	result, err := r.db.ExecContext(ctx, query, formatTime(time.Now()), id.String())
	if err != nil {
		return fmt.Errorf("mark cleaned up: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark cleaned up: rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("mark cleaned up: %w", bucketgate.ErrNotFound)
	}

	return nil
}
