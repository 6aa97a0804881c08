package filesystem_test

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/sagarc03/bucketgate"
	"github.com/sagarc03/bucketgate/filesystem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) (*filesystem.Store, string) {
	t.Helper()
	dir := t.TempDir()
	root, err := os.OpenRoot(dir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = root.Close() })
	return filesystem.NewFileStorage(root), dir
}

func writeFile(t *testing.T, dir, name string, content []byte) {
	t.Helper()
	full := filepath.Join(dir, filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, content, 0o644))
}

func TestStore_Get(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		store, dir := newStore(t)
		writeFile(t, dir, "test.txt", []byte("test content"))

		result, err := store.Get(context.Background(), "test.txt")
		require.NoError(t, err)

		data, err := io.ReadAll(result)
		assert.NoError(t, err)
		assert.Equal(t, []byte("test content"), data)
		assert.NoError(t, result.Close())
	})

	t.Run("context canceled", func(t *testing.T) {
		store, _ := newStore(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		result, err := store.Get(ctx, "test.txt")
		assert.Nil(t, result)
		assert.Equal(t, context.Canceled, err)
	})

	t.Run("not found", func(t *testing.T) {
		store, _ := newStore(t)

		result, err := store.Get(context.Background(), "nonexistent.txt")
		assert.Nil(t, result)
		assert.ErrorIs(t, err, bucketgate.ErrNotFound)
	})

	t.Run("directory is not found", func(t *testing.T) {
		store, dir := newStore(t)
		writeFile(t, dir, "images/a.png", []byte("png"))

		result, err := store.Get(context.Background(), "images")
		assert.Nil(t, result)
		assert.ErrorIs(t, err, bucketgate.ErrNotFound)
	})
}

func TestStore_Write(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		store, dir := newStore(t)

		result, err := store.Write(context.Background(), "test.txt", bytes.NewReader([]byte("test content")))
		require.NoError(t, err)
		assert.Equal(t, int64(12), result.BytesWritten)
		assert.Len(t, result.Etag, 64)

		data, err := os.ReadFile(filepath.Join(dir, "test.txt"))
		assert.NoError(t, err)
		assert.Equal(t, []byte("test content"), data)
	})

	t.Run("creates parent directories", func(t *testing.T) {
		store, dir := newStore(t)

		result, err := store.Write(context.Background(), "subdir/nested/test.txt", bytes.NewReader([]byte("nested content")))
		require.NoError(t, err)
		assert.Equal(t, int64(14), result.BytesWritten)

		data, err := os.ReadFile(filepath.Join(dir, "subdir", "nested", "test.txt"))
		assert.NoError(t, err)
		assert.Equal(t, []byte("nested content"), data)
	})

	t.Run("overwrites existing file", func(t *testing.T) {
		store, dir := newStore(t)
		ctx := context.Background()

		first, err := store.Write(ctx, "a.txt", bytes.NewReader([]byte("first")))
		require.NoError(t, err)
		second, err := store.Write(ctx, "a.txt", bytes.NewReader([]byte("second")))
		require.NoError(t, err)

		assert.NotEqual(t, first.Etag, second.Etag)
		data, err := os.ReadFile(filepath.Join(dir, "a.txt"))
		assert.NoError(t, err)
		assert.Equal(t, []byte("second"), data)
	})

	t.Run("same content same etag", func(t *testing.T) {
		store, _ := newStore(t)
		ctx := context.Background()
		content := []byte("test content for etag")

		r1, err := store.Write(ctx, "file1.txt", bytes.NewReader(content))
		require.NoError(t, err)
		r2, err := store.Write(ctx, "file2.txt", bytes.NewReader(content))
		require.NoError(t, err)

		assert.Equal(t, r1.Etag, r2.Etag)
	})

	t.Run("context canceled before", func(t *testing.T) {
		store, _ := newStore(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		result, err := store.Write(ctx, "test.txt", bytes.NewReader([]byte("test")))
		assert.Equal(t, context.Canceled, err)
		assert.Equal(t, bucketgate.SaveResult{}, result)
	})

	t.Run("context canceled during copy leaves nothing behind", func(t *testing.T) {
		store, dir := newStore(t)
		ctx, cancel := context.WithCancel(context.Background())

		result, err := store.Write(ctx, "test.txt", &cancellingReader{data: []byte("test content"), cancel: cancel})
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, bucketgate.SaveResult{}, result)

		_, statErr := os.Stat(filepath.Join(dir, "test.txt"))
		assert.True(t, os.IsNotExist(statErr))

		entries, err := store.List(context.Background())
		assert.NoError(t, err)
		assert.Empty(t, entries)
	})
}

type cancellingReader struct {
	data   []byte
	pos    int
	cancel context.CancelFunc
}

func (r *cancellingReader) Read(p []byte) (n int, err error) {
	if r.pos >= len(r.data) {
		return 0, io.EOF
	}
	r.cancel()
	n = copy(p, r.data[r.pos:])
	r.pos += n
	return n, nil
}

func TestStore_Delete(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		store, dir := newStore(t)
		writeFile(t, dir, "test.txt", []byte("content"))

		assert.NoError(t, store.Delete(context.Background(), "test.txt"))

		_, err := os.Stat(filepath.Join(dir, "test.txt"))
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("prunes empty parents", func(t *testing.T) {
		store, dir := newStore(t)
		writeFile(t, dir, "a/b/c.txt", []byte("c"))
		writeFile(t, dir, "a/keep.txt", []byte("k"))

		assert.NoError(t, store.Delete(context.Background(), "a/b/c.txt"))

		_, err := os.Stat(filepath.Join(dir, "a", "b"))
		assert.True(t, os.IsNotExist(err))
		_, err = os.Stat(filepath.Join(dir, "a", "keep.txt"))
		assert.NoError(t, err)
	})

	t.Run("context canceled", func(t *testing.T) {
		store, _ := newStore(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		assert.Equal(t, context.Canceled, store.Delete(ctx, "test.txt"))
	})

	t.Run("not found", func(t *testing.T) {
		store, _ := newStore(t)

		assert.ErrorIs(t, store.Delete(context.Background(), "nonexistent.txt"), bucketgate.ErrNotFound)
	})
}

func TestStore_List(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		store, dir := newStore(t)
		writeFile(t, dir, "file1.txt", []byte("content1"))
		writeFile(t, dir, "subdir/file2.json", []byte("content2"))

		entries, err := store.List(context.Background())
		require.NoError(t, err)
		require.Len(t, entries, 2)

		byKey := make(map[string]bucketgate.ObjectEntry)
		for _, entry := range entries {
			byKey[entry.Key] = entry
		}

		file1 := byKey["file1.txt"]
		assert.Equal(t, int64(8), file1.Size)
		assert.Len(t, file1.ETag, 64)
		assert.Equal(t, "text/plain; charset=utf-8", file1.ContentType)
		assert.Equal(t, "file1.txt", file1.Filename)

		file2 := byKey["subdir/file2.json"]
		assert.Equal(t, int64(8), file2.Size)
		assert.Equal(t, "application/json", file2.ContentType)
		assert.Equal(t, "file2.json", file2.Filename)
	})

	t.Run("empty directory", func(t *testing.T) {
		store, _ := newStore(t)

		entries, err := store.List(context.Background())
		assert.NoError(t, err)
		assert.NotNil(t, entries)
		assert.Empty(t, entries)
	})

	t.Run("context canceled", func(t *testing.T) {
		store, _ := newStore(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		entries, err := store.List(ctx)
		assert.Nil(t, entries)
		assert.Equal(t, context.Canceled, err)
	})

	t.Run("unknown extension", func(t *testing.T) {
		store, dir := newStore(t)
		writeFile(t, dir, "file.unknown", []byte("content"))

		entries, err := store.List(context.Background())
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "application/octet-stream", entries[0].ContentType)
	})

	t.Run("skips temp directory", func(t *testing.T) {
		store, dir := newStore(t)
		writeFile(t, dir, ".bucketgate-tmp/in-flight", []byte("partial"))
		writeFile(t, dir, "real.txt", []byte("real"))

		entries, err := store.List(context.Background())
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "real.txt", entries[0].Key)
	})
}

func TestStore_WriteReadDelete(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()
	content := []byte("integration test content")

	result, err := store.Write(ctx, "test.txt", bytes.NewReader(content))
	require.NoError(t, err)

	reader, err := store.Get(ctx, "test.txt")
	require.NoError(t, err)
	data, err := io.ReadAll(reader)
	assert.NoError(t, err)
	assert.Equal(t, content, data)
	assert.NoError(t, reader.Close())

	entries, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "test.txt", entries[0].Key)
	assert.Equal(t, result.Etag, entries[0].ETag)

	require.NoError(t, store.Delete(ctx, "test.txt"))

	_, err = store.Get(ctx, "test.txt")
	assert.ErrorIs(t, err, bucketgate.ErrNotFound)
}

func TestStore_ConcurrentWrites(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := range 10 {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := store.Write(ctx, fmt.Sprintf("file-%d.txt", n), bytes.NewReader(fmt.Appendf(nil, "content-%d", n)))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	entries, err := store.List(ctx)
	assert.NoError(t, err)
	assert.Len(t, entries, 10)
}

func TestDetectContentType(t *testing.T) {
	assert.Equal(t, "image/png", filesystem.DetectContentType("photo.png"))
	assert.Equal(t, "application/octet-stream", filesystem.DetectContentType("noext"))
}
