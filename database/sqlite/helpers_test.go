package sqlite_test

import (
	"context"
	"crypto/rand"
	"fmt"
	"math"
	"math/big"
	"testing"

	"github.com/sagarc03/bucketgate"
	"github.com/sagarc03/bucketgate/database/sqlite"
	"github.com/stretchr/testify/require"
)

func getRandomString(t *testing.T) string {
	t.Helper()
	n, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
	require.NoError(t, err, "random string")
	return fmt.Sprintf("test%x", n.Int64())
}

// setupTestDB opens an in-memory database with a unique objects table name.
func setupTestDB(t *testing.T) (*sqlite.DB, bucketgate.Tables) {
	t.Helper()

	tables := bucketgate.Tables{Objects: "objects_" + getRandomString(t)}

	db, err := sqlite.Connect(context.Background(), ":memory:", tables)
	require.NoError(t, err, "failed to connect")
	t.Cleanup(func() { _ = db.Close() })

	return db, tables
}

// setupTestRepo returns a repo on a freshly migrated table.
func setupTestRepo(t *testing.T) bucketgate.MetaDataRepo {
	t.Helper()

	db, _ := setupTestDB(t)
	require.NoError(t, db.Migrate(context.Background()), "failed to migrate")

	return db.GetRepo()
}
