package database

import (
	"context"
	"fmt"

	"github.com/sagarc03/bucketgate"
	"github.com/sagarc03/bucketgate/database/postgres"
	"github.com/sagarc03/bucketgate/database/sqlite"
)

// Config holds the configuration for connecting to a metadata backend.
type Config struct {
	// Type is "sqlite" or "postgres".
	Type string
	// DSN is the data source name (connection string).
	DSN string
	// Tables names the tables the backend manages.
	Tables bucketgate.Tables
}

// Database is a connected metadata backend.
type Database interface {
	Ping(ctx context.Context) error
	// Migrate creates missing tables and indexes.
	Migrate(ctx context.Context) error
	// Validate checks the live schema against the expected one.
	Validate(ctx context.Context) error
	GetRepo() bucketgate.MetaDataRepo
	Close() error
}

// Connect validates the table names and opens the configured backend. It
// neither migrates nor validates the schema; callers decide which to run.
func Connect(ctx context.Context, cfg Config) (Database, error) {
	if err := cfg.Tables.Validate(); err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	var (
		db  Database
		err error
	)

	switch cfg.Type {
	case "sqlite":
		db, err = sqlite.Connect(ctx, cfg.DSN, cfg.Tables)
	case "postgres":
		db, err = postgres.Connect(ctx, cfg.DSN, cfg.Tables)
	default:
		return nil, fmt.Errorf("connect: unsupported database type: %q", cfg.Type)
	}
	if err != nil {
		return nil, err
	}

	return db, nil
}

// Open connects, then either migrates or validates depending on autoMigrate,
// and pings the backend. The returned Database is ready for GetRepo.
func Open(ctx context.Context, cfg Config, autoMigrate bool) (Database, error) {
	db, err := Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open %s: %w", cfg.Type, err)
	}

	if autoMigrate {
		err = db.Migrate(ctx)
	} else {
		err = db.Validate(ctx)
	}
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open %s: %w", cfg.Type, err)
	}

	return db, nil
}
