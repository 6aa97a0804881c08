package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "img"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("x"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "img", "logo.png"), []byte("y"), 0o600))

	t.Run("single file", func(t *testing.T) {
		entries, err := collectFiles(filepath.Join(dir, "index.html"), false, "/site")
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "site/index.html", entries[0].key)
	})

	t.Run("directory requires recursive", func(t *testing.T) {
		_, err := collectFiles(dir, false, "")
		assert.ErrorContains(t, err, "use -r")
	})

	t.Run("recursive keeps layout", func(t *testing.T) {
		entries, err := collectFiles(dir, true, "site/")
		require.NoError(t, err)

		keys := make([]string, 0, len(entries))
		for _, e := range entries {
			keys = append(keys, e.key)
		}
		assert.ElementsMatch(t, []string{"site/index.html", "site/img/logo.png"}, keys)
	})

	t.Run("missing path", func(t *testing.T) {
		_, err := collectFiles(filepath.Join(dir, "nope"), false, "")
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
		"bogus": slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, parseLevel(in), in)
	}
}
