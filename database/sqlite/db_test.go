package sqlite_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDB_Validate(t *testing.T) {
	t.Run("fails before migration", func(t *testing.T) {
		db, _ := setupTestDB(t)

		err := db.Validate(context.Background())
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "does not exist")
	})

	t.Run("passes after migration", func(t *testing.T) {
		db, _ := setupTestDB(t)
		ctx := context.Background()

		require.NoError(t, db.Migrate(ctx))
		assert.NoError(t, db.Validate(ctx))
	})

	t.Run("migration is idempotent", func(t *testing.T) {
		db, _ := setupTestDB(t)
		ctx := context.Background()

		require.NoError(t, db.Migrate(ctx))
		assert.NoError(t, db.Migrate(ctx))
	})
}
