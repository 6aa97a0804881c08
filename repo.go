package bucketgate

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/google/uuid"
)

// MetaDataRepo persists object metadata. Implementations must be safe for
// concurrent use.
//
// Deletes are soft: Delete marks a row as deleted and the row stays visible
// to ListPendingCleanup until MarkCleanedUp is called for it.
type MetaDataRepo interface {
	// Get returns the live metadata row for key, or ErrNotFound.
	Get(ctx context.Context, key string) (MetaData, error)

	// Upsert creates or replaces the metadata row for entry.Key. A previously
	// deleted row is revived. The bool reports whether a new row was created.
	Upsert(ctx context.Context, entry ObjectEntry) (MetaData, bool, error)

	// Delete soft-deletes the row for key. It returns ErrNotFound when no
	// live row exists.
	Delete(ctx context.Context, key string) error

	// ListPendingCleanup pages through soft-deleted rows whose files have not
	// been removed yet, oldest deletion first.
	ListPendingCleanup(ctx context.Context, q ListQuery) (ListResult, error)

	// MarkCleanedUp records that the file for a soft-deleted row is gone.
	MarkCleanedUp(ctx context.Context, id uuid.UUID) error
}

// Tables holds configurable table names for metadata storage.
// This allows several gateways to share one database.
type Tables struct {
	Objects string `mapstructure:"objects"`
}

var validTableNameRegex = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// IsValidTableName checks if a table name is valid (lowercase, alphanumeric with underscores, max 63 chars).
func IsValidTableName(name string) bool {
	return validTableNameRegex.MatchString(name) && len(name) <= 63
}

// Validate checks that all required table names are set and valid.
func (t Tables) Validate() error {
	if t.Objects == "" {
		return errors.New("validate tables: objects table name cannot be empty")
	}

	if !IsValidTableName(t.Objects) {
		return fmt.Errorf("validate tables: invalid objects table name: %s (must match ^[a-z_][a-z0-9_]*$ and be <= 63 chars)", t.Objects)
	}

	return nil
}
