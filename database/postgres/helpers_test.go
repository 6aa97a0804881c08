package postgres_test

import (
	"context"
	"crypto/rand"
	"fmt"
	"math"
	"math/big"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sagarc03/bucketgate"
	"github.com/sagarc03/bucketgate/database/postgres"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	pgcontainer "github.com/testcontainers/testcontainers-go/modules/postgres"
)

var (
	sharedDSN     string
	sharedDSNErr  error
	sharedDSNOnce sync.Once
)

// getSharedDSN starts one PostgreSQL container for the whole package and
// returns its connection string. The container is reaped by testcontainers
// when the test binary exits.
func getSharedDSN(t *testing.T) string {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping postgres tests in short mode")
	}

	sharedDSNOnce.Do(func() {
		ctx := context.Background()

		pgContainer, err := pgcontainer.Run(ctx,
			"postgres:18-alpine",
			pgcontainer.WithDatabase("testdb"),
			pgcontainer.WithUsername("testuser"),
			pgcontainer.WithPassword("testpass"),
			pgcontainer.BasicWaitStrategies(),
		)
		if err != nil {
			sharedDSNErr = fmt.Errorf("start postgres container: %w", err)
			return
		}

		sharedDSN, sharedDSNErr = pgContainer.ConnectionString(ctx, "sslmode=disable")
		if sharedDSNErr != nil {
			_ = testcontainers.TerminateContainer(pgContainer)
		}
	})

	require.NoError(t, sharedDSNErr)
	return sharedDSN
}

func getRandomString(t *testing.T) string {
	t.Helper()
	n, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
	require.NoError(t, err, "random string")
	return fmt.Sprintf("test%x", n.Int64())
}

// setupTestDB connects with a unique objects table name and drops that table
// when the test ends.
func setupTestDB(t *testing.T) (*postgres.DB, *pgxpool.Pool, bucketgate.Tables) {
	t.Helper()
	ctx := context.Background()
	dsn := getSharedDSN(t)

	tables := bucketgate.Tables{Objects: "objects_" + getRandomString(t)}

	db, err := postgres.Connect(ctx, dsn, tables)
	require.NoError(t, err, "failed to connect")

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err, "failed to open admin pool")

	t.Cleanup(func() {
		_, _ = pool.Exec(context.Background(), "DROP TABLE IF EXISTS "+pgx.Identifier{tables.Objects}.Sanitize())
		pool.Close()
		_ = db.Close()
	})

	return db, pool, tables
}

func setupTestRepo(t *testing.T) bucketgate.MetaDataRepo {
	t.Helper()

	db, _, _ := setupTestDB(t)
	require.NoError(t, db.Migrate(context.Background()), "failed to migrate")

	return db.GetRepo()
}
