package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sagarc03/bucketgate"

	_ "modernc.org/sqlite" // SQLite driver
)

// DB is a SQLite metadata backend.
type DB struct {
	db     *sql.DB
	tables bucketgate.Tables
}

// Connect opens a SQLite database at dsn. Tables should be validated before
// calling Connect.
//
// SQLite serialises writers anyway, so the pool is capped at a single
// connection. This also keeps ":memory:" databases from splitting across
// connections.
func Connect(ctx context.Context, dsn string, tables bucketgate.Tables) (*DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, `PRAGMA busy_timeout = 5000`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect sqlite: %w", err)
	}

	return &DB{
		db:     db,
		tables: tables,
	}, nil
}

// Ping verifies the database connection is alive.
func (d *DB) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

// Migrate creates the objects table and its indexes if they do not exist.
func (d *DB) Migrate(ctx context.Context) error {
	if err := Migrate(ctx, d.db, d.tables); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Validate checks that the database schema matches expected structure.
func (d *DB) Validate(ctx context.Context) error {
	return ValidateSchema(ctx, d.db, d.tables)
}

func (d *DB) GetRepo() bucketgate.MetaDataRepo {
	return &repo{db: d.db, tableName: quoteIdentifier(d.tables.Objects)}
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}
