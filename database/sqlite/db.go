package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/sagarc03/bucketgate"
)

type columnInfo struct {
	dataType   string
	isNullable bool
}

var objectsTableSchema = map[string]columnInfo{
	"id":              {"text", false},
	"object_key":      {"text", false},
	"content_type":    {"text", false},
	"filename":        {"text", false},
	"etag":            {"text", false},
	"file_size_bytes": {"integer", false},
	"created_at":      {"text", false},
	"updated_at":      {"text", false},
	"deleted_at":      {"text", true},
	"cleaned_up_at":   {"text", true},
}

type tableValidation struct {
	tableName      string
	expectedSchema map[string]columnInfo
}

func getTableValidations(tables bucketgate.Tables) []tableValidation {
	return []tableValidation{
		{tableName: tables.Objects, expectedSchema: objectsTableSchema},
	}
}

// ValidateSchema checks every managed table against its expected columns.
func ValidateSchema(ctx context.Context, db *sql.DB, tables bucketgate.Tables) error {
	for _, validation := range getTableValidations(tables) {
		if err := validateTableSchema(ctx, db, validation.tableName, validation.expectedSchema); err != nil {
			return fmt.Errorf("validate schema %s: %w", validation.tableName, err)
		}
	}

	return nil
}

func validateTableSchema(ctx context.Context, db *sql.DB, tableName string, expected map[string]columnInfo) error {
	if !bucketgate.IsValidTableName(tableName) {
		return fmt.Errorf("invalid table name: %s", tableName)
	}

	actual, err := readColumns(ctx, db, tableName)
	if err != nil {
		return err
	}

	if len(actual) == 0 {
		return fmt.Errorf("table %s does not exist", tableName)
	}

	var problems []string
	for name, want := range expected {
		got, ok := actual[name]
		switch {
		case !ok:
			problems = append(problems, "missing column "+name)
		case got.dataType != want.dataType:
			problems = append(problems, fmt.Sprintf("%s: expected %s, got %s", name, want.dataType, got.dataType))
		case got.isNullable != want.isNullable:
			problems = append(problems, fmt.Sprintf("%s: expected nullable=%v, got nullable=%v", name, want.isNullable, got.isNullable))
		}
	}

	if len(problems) > 0 {
		sort.Strings(problems)
		return errors.New("table " + tableName + " schema mismatch: " + strings.Join(problems, "; "))
	}

	return nil
}

// readColumns returns the columns of tableName. A table that does not exist
// yields an empty map.
func readColumns(ctx context.Context, db *sql.DB, tableName string) (map[string]columnInfo, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf(`PRAGMA table_info(%s)`, quoteIdentifier(tableName)))
	if err != nil {
		return nil, fmt.Errorf("query columns: %w", err)
	}
	defer func() { _ = rows.Close() }()

	columns := make(map[string]columnInfo)
	for rows.Next() {
		var (
			cid, notNull, pk int
			name, dataType   string
			dfltValue        sql.NullString
		)

		if err := rows.Scan(&cid, &name, &dataType, &notNull, &dfltValue, &pk); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		columns[name] = columnInfo{
			dataType:   strings.ToLower(dataType),
			isNullable: notNull == 0,
		}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}

	return columns, nil
}
