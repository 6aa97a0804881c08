package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sagarc03/bucketgate"
)

// quoteIdentifier quotes a validated SQLite identifier.
func quoteIdentifier(name string) string {
	return `"` + name + `"`
}

type TableMigration struct {
	TableName string
	Up        func(ctx context.Context, db *sql.DB) error
	Down      func(ctx context.Context, db *sql.DB) error
}

func getTableMigrations(tables bucketgate.Tables) []TableMigration {
	return []TableMigration{
		{
			TableName: tables.Objects,
			Up:        createObjectsTable(tables.Objects),
			Down:      dropTable(tables.Objects),
		},
	}
}

func Migrate(ctx context.Context, db *sql.DB, tables bucketgate.Tables) error {
	for _, migration := range getTableMigrations(tables) {
		if err := migration.Up(ctx, db); err != nil {
			return fmt.Errorf("migrate up %s: %w", migration.TableName, err)
		}
	}

	return nil
}

func DropTables(ctx context.Context, db *sql.DB, tables bucketgate.Tables) error {
	migrations := getTableMigrations(tables)

	for i := len(migrations) - 1; i >= 0; i-- {
		migration := migrations[i]
		if err := migration.Down(ctx, db); err != nil {
			return fmt.Errorf("migrate down %s: %w", migration.TableName, err)
		}
	}

	return nil
}

func createObjectsTable(tableName string) func(context.Context, *sql.DB) error {
	return func(ctx context.Context, db *sql.DB) error {
		quotedTable := quoteIdentifier(tableName)

		statements := []struct {
			name string
			sql  string
		}{
			{
				name: "create table",
				sql: fmt.Sprintf(`
					CREATE TABLE IF NOT EXISTS %s (
						id TEXT NOT NULL PRIMARY KEY,
						object_key TEXT NOT NULL UNIQUE,
						content_type TEXT NOT NULL,
						filename TEXT NOT NULL,
						etag TEXT NOT NULL,
						file_size_bytes INTEGER NOT NULL,
						created_at TEXT NOT NULL,
						updated_at TEXT NOT NULL,
						deleted_at TEXT,
						cleaned_up_at TEXT
					)`, quotedTable),
			},
			{
				name: "create index pending_cleanup",
				sql: fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s (deleted_at, object_key) WHERE cleaned_up_at IS NULL`,
					quoteIdentifier("idx_"+tableName+"_pending_cleanup"), quotedTable),
			},
		}

		for _, stmt := range statements {
			if _, err := db.ExecContext(ctx, stmt.sql); err != nil {
				return fmt.Errorf("%s: %w", stmt.name, err)
			}
		}

		return nil
	}
}

func dropTable(tableName string) func(context.Context, *sql.DB) error {
	return func(ctx context.Context, db *sql.DB) error {
		_, err := db.ExecContext(ctx, "DROP TABLE IF EXISTS "+quoteIdentifier(tableName))
		return err
	}
}
