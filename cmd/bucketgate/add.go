package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/samber/do"
	"github.com/spf13/cobra"

	"github.com/sagarc03/bucketgate"
	"github.com/sagarc03/bucketgate/filesystem"
)

var addCmd = &cobra.Command{
	Use:   "add [flags] <file1> [file2] ...",
	Short: "Import files into the object store",
	Long: `Import local files into the configured object store.

Each file is stored under a key built from the destination prefix and the
file name (or its path relative to the directory when adding recursively).
The content type is detected from the extension.

Examples:
  # Add a single file
  bucketgate add /path/to/file.txt

  # Add with a destination prefix
  bucketgate add --dest images/ /path/to/photo.jpg

  # Add a directory recursively
  bucketgate add -r /path/to/assets

  # Skip existing keys
  bucketgate add --no-clobber /path/to/file.txt`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAdd,
}

var (
	addDest      string
	addRecursive bool
	addNoClobber bool
	addQuiet     bool
)

func init() {
	addCmd.Flags().StringVarP(&addDest, "dest", "d", "", "destination key prefix")
	addCmd.Flags().BoolVarP(&addRecursive, "recursive", "r", false, "recursively add directories")
	addCmd.Flags().BoolVarP(&addNoClobber, "no-clobber", "n", false, "skip existing keys instead of overwriting")
	addCmd.Flags().BoolVarP(&addQuiet, "quiet", "q", false, "suppress per-file output")
	rootCmd.AddCommand(addCmd)
}

// fileEntry represents a file to be added with its source path and key.
type fileEntry struct {
	sourcePath string
	key        string
}

func runAdd(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	injector, err := injectorFromContext(ctx)
	if err != nil {
		return err
	}
	store, err := do.Invoke[bucketgate.ObjectStore](injector)
	if err != nil {
		return fmt.Errorf("create store: %w", err)
	}

	// Collect files from all arguments
	var files []fileEntry
	for _, arg := range args {
		entries, collectErr := collectFiles(arg, addRecursive, addDest)
		if collectErr != nil {
			return fmt.Errorf("collect files from %s: %w", arg, collectErr)
		}
		files = append(files, entries...)
	}

	if len(files) == 0 {
		slog.Info("no files to add")
		return nil
	}

	added := 0
	skipped := 0

	for _, entry := range files {
		if addNoClobber {
			exists, existsErr := objectExists(ctx, store, entry.key)
			if existsErr != nil {
				return fmt.Errorf("check %s: %w", entry.key, existsErr)
			}
			if exists {
				skipped++
				if !addQuiet {
					slog.Info("skipped (exists)", "key", entry.key)
				}
				continue
			}
		}

		if err := addFile(ctx, store, entry); err != nil {
			return err
		}

		added++
		if !addQuiet {
			slog.Info("added", "key", entry.key)
		}
	}

	slog.Info("add complete", "added", added, "skipped", skipped)
	return nil
}

func addFile(ctx context.Context, store bucketgate.ObjectStore, entry fileEntry) error {
	f, err := os.Open(entry.sourcePath)
	if err != nil {
		return fmt.Errorf("open %s: %w", entry.sourcePath, err)
	}
	defer func() { _ = f.Close() }()

	meta := bucketgate.ObjectMeta{
		ContentType: filesystem.DetectContentType(entry.sourcePath),
		Filename:    filepath.Base(entry.sourcePath),
	}
	if err := store.Put(ctx, entry.key, f, meta); err != nil {
		return fmt.Errorf("add %s: %w", entry.key, err)
	}
	return nil
}

func objectExists(ctx context.Context, store bucketgate.ObjectStore, key string) (bool, error) {
	obj, err := store.Get(ctx, key)
	if errors.Is(err, bucketgate.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	_ = obj.Body.Close()
	return true, nil
}

// collectFiles gathers files from a path, optionally recursively.
// Returns a list of file entries with source paths and keys.
func collectFiles(path string, recursive bool, destPrefix string) ([]fileEntry, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	// Normalize dest prefix - ensure it ends with / if non-empty
	destPrefix = strings.TrimPrefix(destPrefix, "/")
	if destPrefix != "" && !strings.HasSuffix(destPrefix, "/") {
		destPrefix += "/"
	}

	if !info.IsDir() {
		return []fileEntry{{sourcePath: path, key: destPrefix + filepath.Base(path)}}, nil
	}

	if !recursive {
		return nil, fmt.Errorf("%s is a directory (use -r to add recursively)", path)
	}

	var entries []fileEntry
	walkErr := filepath.WalkDir(path, func(walkPath string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		if d.IsDir() {
			return nil
		}

		relPath, relErr := filepath.Rel(path, walkPath)
		if relErr != nil {
			return relErr
		}

		entries = append(entries, fileEntry{
			sourcePath: walkPath,
			key:        destPrefix + filepath.ToSlash(relPath),
		})
		return nil
	})

	if walkErr != nil {
		return nil, walkErr
	}

	return entries, nil
}
