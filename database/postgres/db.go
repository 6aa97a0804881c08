package postgres

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sagarc03/bucketgate"
)

type columnInfo struct {
	dataType   string
	isNullable bool
}

var objectsTableSchema = map[string]columnInfo{
	"id":              {"uuid", false},
	"object_key":      {"text", false},
	"content_type":    {"text", false},
	"filename":        {"text", false},
	"etag":            {"text", false},
	"file_size_bytes": {"bigint", false},
	"created_at":      {"timestamp with time zone", false},
	"updated_at":      {"timestamp with time zone", false},
	"deleted_at":      {"timestamp with time zone", true},
	"cleaned_up_at":   {"timestamp with time zone", true},
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
// It is meant for deployments that migrate the database themselves.
func ValidateSchema(ctx context.Context, pool *pgxpool.Pool, tables bucketgate.Tables) error {
	for _, validation := range getTableValidations(tables) {
		if err := validateTableSchema(ctx, pool, validation.tableName, validation.expectedSchema); err != nil {
			return fmt.Errorf("validate schema %s: %w", validation.tableName, err)
		}
	}

	return nil
}

func validateTableSchema(ctx context.Context, pool *pgxpool.Pool, tableName string, expected map[string]columnInfo) error {
	if !bucketgate.IsValidTableName(tableName) {
		return fmt.Errorf("invalid table name: %s", tableName)
	}

	actual, err := readColumns(ctx, pool, tableName)
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

// readColumns returns the columns of tableName in the current schema. A
// table that does not exist yields an empty map.
func readColumns(ctx context.Context, pool *pgxpool.Pool, tableName string) (map[string]columnInfo, error) {
	rows, err := pool.Query(ctx, `
		SELECT column_name, data_type, is_nullable
		FROM information_schema.columns
		WHERE table_schema = current_schema() AND table_name = $1
	`, tableName)
	if err != nil {
		return nil, fmt.Errorf("query columns: %w", err)
	}
	defer rows.Close()

	columns := make(map[string]columnInfo)
	for rows.Next() {
		var name, dataType, nullable string
		if err := rows.Scan(&name, &dataType, &nullable); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		columns[name] = columnInfo{
			dataType:   strings.ToLower(dataType),
			isNullable: nullable == "YES",
		}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}

	return columns, nil
}
