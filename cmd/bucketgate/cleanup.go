package main

import (
	"fmt"
	"log/slog"

	"github.com/samber/do"
	"github.com/spf13/cobra"

	"github.com/sagarc03/bucketgate"
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Clean up soft-deleted files",
	Long: `Permanently remove soft-deleted files from storage.

DELETE only marks metadata rows as deleted. This command processes every
such row that has not been physically removed yet. It:
  1. Deletes the physical file from storage
  2. Marks the metadata entry as cleaned up

Run this periodically to reclaim storage space from deleted files.`,
	RunE: runCleanup,
}

var (
	cleanupLimit  int
	cleanupPrefix string
)

func init() {
	cleanupCmd.Flags().IntVar(&cleanupLimit, "limit", 100, "number of rows fetched per batch")
	cleanupCmd.Flags().StringVar(&cleanupPrefix, "prefix", "", "only clean up keys with this prefix")
	rootCmd.AddCommand(cleanupCmd)
}

func runCleanup(cmd *cobra.Command, args []string) error {
	injector, err := injectorFromContext(cmd.Context())
	if err != nil {
		return err
	}

	store, err := do.Invoke[*bucketgate.Store](injector)
	if err != nil {
		return fmt.Errorf("create store: %w", err)
	}

	slog.Info("starting cleanup", "limit", cleanupLimit, "prefix", cleanupPrefix)

	cleaned, err := store.Tombstone(cmd.Context(), bucketgate.ListQuery{
		KeyPrefix: cleanupPrefix,
		Limit:     cleanupLimit,
	})
	if err != nil {
		return fmt.Errorf("tombstone: %w", err)
	}

	slog.Info("cleanup complete", "files_cleaned", cleaned)
	return nil
}
