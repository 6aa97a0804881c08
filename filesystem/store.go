// Package filesystem stores object content as files under a sandboxed root
// directory. Writes are atomic (temp file then rename) and every file gets a
// SHA-256 etag.
package filesystem

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"mime"
	"os"
	"path"

	"github.com/google/uuid"
	"github.com/sagarc03/bucketgate"
)

// tmpDir holds in-flight uploads. It lives inside the root so the final
// rename never crosses a filesystem boundary.
const tmpDir = ".bucketgate-tmp"

// Store is a bucketgate.FileStorage backed by an os.Root.
type Store struct {
	root *os.Root
}

var _ bucketgate.FileStorage = (*Store)(nil)

// NewFileStorage creates a Store on root. The root confines every operation
// to its directory tree.
func NewFileStorage(root *os.Root) *Store {
	return &Store{root: root}
}

// Get opens the file for key. Returns bucketgate.ErrNotFound if it does not exist.
func (s *Store) Get(ctx context.Context, key string) (io.ReadSeekCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := s.root.Open(key)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, bucketgate.ErrNotFound
		}
		return nil, fmt.Errorf("open %s: %w", key, err)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("stat %s: %w", key, err)
	}
	if info.IsDir() {
		_ = f.Close()
		return nil, bucketgate.ErrNotFound
	}

	return f, nil
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (r *ctxReader) Read(p []byte) (n int, err error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	return r.r.Read(p)
}

// Write streams content into a temp file, syncs it, and renames it over key.
// Missing parent directories are created. Cancelling ctx aborts the copy and
// removes the temp file.
func (s *Store) Write(ctx context.Context, key string, content io.Reader) (bucketgate.SaveResult, error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return bucketgate.SaveResult{}, ctxErr
	}

	if err := s.root.MkdirAll(tmpDir, 0o755); err != nil {
		return bucketgate.SaveResult{}, fmt.Errorf("create temp dir: %w", err)
	}

	tmpFile := path.Join(tmpDir, uuid.New().String())
	t, createErr := s.root.Create(tmpFile)
	if createErr != nil {
		return bucketgate.SaveResult{}, fmt.Errorf("create temp file: %w", createErr)
	}

	renamed := false
	defer func() {
		if closeErr := t.Close(); closeErr != nil && !errors.Is(closeErr, os.ErrClosed) {
			slog.Warn("failed to close temp file", "key", key, "err", closeErr)
		}
		if !renamed {
			if rmErr := s.root.Remove(tmpFile); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
				slog.Warn("failed to remove temp file", "key", key, "err", rmErr)
			}
		}
	}()

	h := sha256.New()
	size, err := io.Copy(io.MultiWriter(h, t), &ctxReader{ctx: ctx, r: content})
	if err != nil {
		return bucketgate.SaveResult{}, fmt.Errorf("copy contents of %s: %w", key, err)
	}

	if err := t.Sync(); err != nil {
		return bucketgate.SaveResult{}, fmt.Errorf("sync %s: %w", key, err)
	}

	if dir := path.Dir(key); dir != "." {
		if err := s.root.MkdirAll(dir, 0o755); err != nil {
			return bucketgate.SaveResult{}, fmt.Errorf("create parent directories of %s: %w", key, err)
		}
	}

	if err := s.root.Rename(tmpFile, key); err != nil {
		return bucketgate.SaveResult{}, fmt.Errorf("rename into %s: %w", key, err)
	}
	renamed = true

	return bucketgate.SaveResult{BytesWritten: size, Etag: hex.EncodeToString(h.Sum(nil))}, nil
}

// Delete removes the file for key and any parent directories left empty.
// Returns bucketgate.ErrNotFound if the file does not exist.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := s.root.Remove(key); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return bucketgate.ErrNotFound
		}
		return fmt.Errorf("delete %s: %w", key, err)
	}

	s.pruneEmptyParents(key)
	return nil
}

// pruneEmptyParents removes now-empty directories between key and the root.
// Remove fails on a non-empty directory, which ends the walk.
func (s *Store) pruneEmptyParents(key string) {
	for dir := path.Dir(key); dir != "." && dir != "/"; dir = path.Dir(dir) {
		if err := s.root.Remove(dir); err != nil {
			return
		}
	}
}

// List walks the root and returns every stored file with its size, etag,
// base name, and a content type guessed from the extension. The temp
// directory is skipped.
func (s *Store) List(ctx context.Context) ([]bucketgate.ObjectEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries := []bucketgate.ObjectEntry{}

	err := fs.WalkDir(s.root.FS(), ".", func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		if d.IsDir() {
			if p == tmpDir {
				return fs.SkipDir
			}
			return nil
		}

		entry, err := s.describe(p)
		if err != nil {
			return err
		}
		entries = append(entries, entry)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}

	return entries, nil
}

func (s *Store) describe(key string) (bucketgate.ObjectEntry, error) {
	f, err := s.root.Open(key)
	if err != nil {
		return bucketgate.ObjectEntry{}, fmt.Errorf("open %s: %w", key, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			slog.Warn("failed to close file", "key", key, "err", closeErr)
		}
	}()

	h := sha256.New()
	size, err := io.Copy(h, f)
	if err != nil {
		return bucketgate.ObjectEntry{}, fmt.Errorf("hash %s: %w", key, err)
	}

	return bucketgate.ObjectEntry{
		Key:         key,
		Size:        size,
		ETag:        hex.EncodeToString(h.Sum(nil)),
		ContentType: DetectContentType(key),
		Filename:    path.Base(key),
	}, nil
}

// DetectContentType guesses a MIME type from the extension of name and falls
// back to application/octet-stream.
func DetectContentType(name string) string {
	if contentType := mime.TypeByExtension(path.Ext(name)); contentType != "" {
		return contentType
	}
	return "application/octet-stream"
}
