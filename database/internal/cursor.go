// Package internal holds helpers shared by the SQL metadata backends.
package internal

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"
)

// Cursor marks the last row of a page of tombstoned objects.
type Cursor struct {
	DeletedAt time.Time
	Key       string
}

// EncodeCursor encodes cursor data to an opaque string.
func EncodeCursor(deletedAt time.Time, key string) string {
	data := deletedAt.UTC().Format(time.RFC3339Nano) + "|" + key
	return base64.URLEncoding.EncodeToString([]byte(data))
}

// DecodeCursor reverses EncodeCursor. An empty string decodes to the zero Cursor.
func DecodeCursor(cursor string) (Cursor, error) {
	if cursor == "" {
		return Cursor{}, nil
	}

	decoded, err := base64.URLEncoding.DecodeString(cursor)
	if err != nil {
		return Cursor{}, fmt.Errorf("decode cursor: invalid encoding: %w", err)
	}

	stamp, key, ok := strings.Cut(string(decoded), "|")
	if !ok {
		return Cursor{}, fmt.Errorf("decode cursor: invalid format")
	}

	if key == "" {
		return Cursor{}, fmt.Errorf("decode cursor: empty key")
	}

	deletedAt, err := time.Parse(time.RFC3339Nano, stamp)
	if err != nil {
		return Cursor{}, fmt.Errorf("decode cursor: invalid timestamp: %w", err)
	}

	return Cursor{DeletedAt: deletedAt, Key: key}, nil
}

// EscapeLikePattern escapes the LIKE wildcards %, _ and \.
func EscapeLikePattern(pattern string) string {
	pattern = strings.ReplaceAll(pattern, `\`, `\\`)
	pattern = strings.ReplaceAll(pattern, `%`, `\%`)
	pattern = strings.ReplaceAll(pattern, `_`, `\_`)
	return pattern
}
