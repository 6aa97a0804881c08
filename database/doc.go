// Package database connects to the metadata backend that records which
// objects exist, their content type, original filename, size and etag.
//
// # Supported Backends
//
//   - PostgreSQL (database/postgres): pgx connection pool, for shared deployments
//   - SQLite (database/sqlite): modernc.org/sqlite, for single-node deployments
//
// # Usage
//
//	db, err := database.Open(ctx, database.Config{
//	    Type:   "sqlite",
//	    DSN:    "bucketgate.db",
//	    Tables: bucketgate.Tables{Objects: "bucketgate_objects"},
//	}, true)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	store := bucketgate.NewStore(db.GetRepo(), files, bucketgate.StoreConfig{})
//
// Rows are soft-deleted. A row stays listed by ListPendingCleanup until the
// file behind it is removed and MarkCleanedUp is called, which is what
// bucketgate.Store.Tombstone does.
package database
