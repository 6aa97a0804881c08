package bucketgate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

// ObjectStore is the key-addressed blob store behind the gateway.
type ObjectStore interface {
	// Put writes content under key, replacing any existing object.
	Put(ctx context.Context, key string, content io.Reader, meta ObjectMeta) error

	// Get opens the object stored under key. It returns ErrNotFound when no
	// object exists. The caller must close the returned Body.
	Get(ctx context.Context, key string) (Object, error)

	// Delete removes the object stored under key. Deleting an absent key is
	// not an error.
	Delete(ctx context.Context, key string) error
}

// FileStorage defines the interface for physical file storage operations.
//
// All methods accept a context for cancellation and timeout control.
type FileStorage interface {
	// Get opens the file stored under key. It returns ErrNotFound if the file
	// doesn't exist. The caller is responsible for closing the reader.
	Get(ctx context.Context, key string) (io.ReadSeekCloser, error)

	// Write stores content under key, overwriting any existing file.
	//
	// Implementations should:
	//   - Write atomically when possible (e.g., write to temp file then rename)
	//   - Compute an ETag during write
	//   - Return the accurate byte count of data written
	//   - Clean up partial writes on failure or cancellation
	//   - Create parent directories if they don't exist
	Write(ctx context.Context, key string, content io.Reader) (SaveResult, error)

	// Delete removes the file stored under key. It returns ErrNotFound if the
	// file doesn't exist.
	//
	// Note: This only deletes the physical file, not its metadata.
	Delete(ctx context.Context, key string) error

	// List returns every file currently in storage. It is used to rebuild
	// metadata (see Store.Populate) and can be expensive on large volumes.
	List(ctx context.Context) ([]ObjectEntry, error)
}

// Store is an ObjectStore that keeps file content in a FileStorage and
// object metadata in a MetaDataRepo.
type Store struct {
	repo           MetaDataRepo
	storage        FileStorage
	cleanupTimeout time.Duration
}

// StoreConfig holds configuration options for Store.
type StoreConfig struct {
	CleanupTimeout time.Duration // Timeout for cleanup operations (default: 30s)
}

var _ ObjectStore = (*Store)(nil)

func NewStore(repo MetaDataRepo, storage FileStorage, cfg StoreConfig) *Store {
	cleanupTimeout := cfg.CleanupTimeout
	if cleanupTimeout <= 0 {
		cleanupTimeout = 30 * time.Second
	}
	return &Store{
		repo:           repo,
		storage:        storage,
		cleanupTimeout: cleanupTimeout,
	}
}

// Populate synchronizes metadata from physical storage files.
// It lists all files in storage and creates or updates their metadata rows,
// stopping at the first error.
//
// Note: This operation is not atomic. If it fails partway through, some files may have
// been processed while others remain unprocessed.
func (s *Store) Populate(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("populate: %w", err)
	}

	files, listErr := s.storage.List(ctx)
	if listErr != nil {
		return fmt.Errorf("populate: %w", listErr)
	}

	for _, file := range files {
		_, _, upsertErr := s.repo.Upsert(ctx, file)
		if upsertErr != nil {
			return fmt.Errorf("populate '%s': %w", file.Key, upsertErr)
		}
	}

	return nil
}

// Put writes content to storage and then records its metadata. If the
// metadata write fails the stored file is removed using a background context
// bounded by the cleanup timeout, so cleanup completes even when ctx is
// cancelled.
//
// Error types returned:
//   - ErrInvalidInput: the key cannot be stored (see IsValidKey)
//   - context.Canceled or context.DeadlineExceeded: ctx was done before writing
//   - Wrapped storage or metadata errors
func (s *Store) Put(ctx context.Context, key string, content io.Reader, meta ObjectMeta) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("put object: %w", err)
	}

	if !IsValidKey(key) {
		return fmt.Errorf("put object %q: %w", key, ErrInvalidInput)
	}

	saveResult, writeErr := s.storage.Write(ctx, key, content)
	if writeErr != nil {
		return fmt.Errorf("put object %s: write failed: %w", key, writeErr)
	}

	entry := ObjectEntry{
		Key:         key,
		Size:        saveResult.BytesWritten,
		ETag:        saveResult.Etag,
		ContentType: meta.ContentType,
		Filename:    meta.Filename,
	}

	_, _, upsertErr := s.repo.Upsert(ctx, entry)
	if upsertErr != nil {
		cleanupCtx, cancel := context.WithTimeout(context.Background(), s.cleanupTimeout)
		defer cancel()

		if delErr := s.storage.Delete(cleanupCtx, key); delErr != nil {
			return fmt.Errorf("put object %s: metadata upsert failed (%w) and cleanup failed: %w", key, upsertErr, delErr)
		}
		return fmt.Errorf("put object %s: metadata upsert failed: %w", key, upsertErr)
	}

	return nil
}

// Get returns the object stored under key. Keys that IsValidKey rejects can
// never have been stored and report ErrNotFound.
func (s *Store) Get(ctx context.Context, key string) (Object, error) {
	if err := ctx.Err(); err != nil {
		return Object{}, fmt.Errorf("get object: %w", err)
	}

	if !IsValidKey(key) {
		return Object{}, fmt.Errorf("get object: %w", ErrNotFound)
	}

	m, err := s.repo.Get(ctx, key)
	if err != nil {
		return Object{}, fmt.Errorf("get object: %w", err)
	}

	f, err := s.storage.Get(ctx, m.Key)
	if err != nil {
		return Object{}, fmt.Errorf("get object: %w", err)
	}

	return Object{MetaData: m, Body: f}, nil
}

// Delete soft-deletes the metadata row for key. The file itself is removed
// later by Tombstone. Absent keys are ignored.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("delete object: %w", err)
	}

	if !IsValidKey(key) {
		return nil
	}

	err := s.repo.Delete(ctx, key)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("delete object: %w", err)
	}

	return nil
}

// Tombstone permanently removes all soft-deleted files from storage and marks them as cleaned up.
// It pages through pending items until none remain.
//
// A file that is already gone from storage (ErrNotFound) is still marked as
// cleaned up; a previous run may have deleted it without recording that.
//
// It returns the number of items cleaned up.
func (s *Store) Tombstone(ctx context.Context, q ListQuery) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("tombstone: %w", err)
	}

	totalCleaned := 0
	cursor := q.Cursor

	for {
		if err := ctx.Err(); err != nil {
			return totalCleaned, fmt.Errorf("tombstone: %w", err)
		}

		query := ListQuery{
			KeyPrefix: q.KeyPrefix,
			Limit:     q.Limit,
			Cursor:    cursor,
		}

		result, listErr := s.repo.ListPendingCleanup(ctx, query)
		if listErr != nil {
			return totalCleaned, fmt.Errorf("tombstone: %w", listErr)
		}

		if len(result.Items) == 0 {
			break
		}

		for _, file := range result.Items {
			deleteErr := s.storage.Delete(ctx, file.Key)
			if deleteErr != nil && !errors.Is(deleteErr, ErrNotFound) {
				return totalCleaned, fmt.Errorf("tombstone '%s': %w", file.Key, deleteErr)
			}

			updateErr := s.repo.MarkCleanedUp(ctx, file.ID)
			if updateErr != nil {
				return totalCleaned, fmt.Errorf("tombstone '%s': %w", file.Key, updateErr)
			}

			totalCleaned++
		}

		if result.NextCursor == "" {
			break
		}
		cursor = result.NextCursor
	}

	return totalCleaned, nil
}
