package keybackend_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/sagarc03/bucketgate/keybackend"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileSource(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		content  string
		expected string
	}{
		{name: "bare secret", content: "s3cret", expected: "s3cret"},
		{name: "trailing newline", content: "s3cret\n", expected: "s3cret"},
		{name: "surrounding whitespace", content: "  s3cret \r\n", expected: "s3cret"},
		{name: "json object", content: `{"secret": "s3cret"}`, expected: "s3cret"},
		{name: "json with extra fields", content: `{"secret": "s3cret", "rotated": "2024-01-01"}`, expected: "s3cret"},
		{name: "special characters", content: "secret/with+special=chars", expected: "secret/with+special=chars"},
		{name: "empty file", content: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			path := writeTestFile(t, tt.content)

			secret, err := keybackend.FileSource(path).Secret(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.expected, secret)
		})
	}
}

func TestFileSource_FileNotFound(t *testing.T) {
	t.Parallel()

	_, err := keybackend.FileSource("/nonexistent/path/secret").Secret(context.Background())

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "read secret file")
}

func TestFileSource_InvalidJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
	}{
		{name: "malformed json", content: `{"secret": "s3cret"`},
		{name: "wrong type", content: `{"secret": 42}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			path := writeTestFile(t, tt.content)

			_, err := keybackend.FileSource(path).Secret(context.Background())
			assert.Error(t, err)
			assert.Contains(t, err.Error(), "parse secret file")
		})
	}
}

// writeTestFile is a test helper that creates a temporary file with the given content
func writeTestFile(t *testing.T, content string) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "secret")

	err := os.WriteFile(path, []byte(content), 0o600)
	require.NoError(t, err)

	return path
}
