package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sagarc03/bucketgate"
)

// DB is a PostgreSQL metadata backend.
type DB struct {
	pool   *pgxpool.Pool
	tables bucketgate.Tables
}

// Connect creates a connection pool for dsn. Tables should be validated
// before calling Connect.
func Connect(ctx context.Context, dsn string, tables bucketgate.Tables) (*DB, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	return &DB{
		pool:   pool,
		tables: tables,
	}, nil
}

// Ping verifies the database connection is alive.
func (d *DB) Ping(ctx context.Context) error {
	return d.pool.Ping(ctx)
}

// Migrate creates the objects table and its indexes if they do not exist.
func (d *DB) Migrate(ctx context.Context) error {
	if err := Migrate(ctx, d.pool, d.tables); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Validate checks that the database schema matches expected structure.
func (d *DB) Validate(ctx context.Context) error {
	return ValidateSchema(ctx, d.pool, d.tables)
}

func (d *DB) GetRepo() bucketgate.MetaDataRepo {
	return &repo{pool: d.pool, tableName: pgx.Identifier{d.tables.Objects}.Sanitize()}
}

// Close closes the connection pool.
func (d *DB) Close() error {
	d.pool.Close()
	return nil
}
