package main

import (
	"fmt"
	"log/slog"

	"github.com/samber/do"
	"github.com/spf13/cobra"

	"github.com/sagarc03/bucketgate"
)

var removeCmd = &cobra.Command{
	Use:   "remove [flags] <key1> [key2] ...",
	Short: "Remove objects from the object store",
	Long: `Delete objects by key, exactly as DELETE /{key} does.

With the filesystem store this marks metadata rows as deleted; physical
removal happens later via 'bucketgate cleanup'. Removing an absent key is
not an error.

Cached GET responses are not invalidated and keep being served until the
cache entry expires.

Examples:
  # Remove a single object
  bucketgate remove myfile.txt

  # Remove several objects quietly
  bucketgate remove -q file1.txt file2.txt`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRemove,
}

var removeQuiet bool

func init() {
	removeCmd.Flags().BoolVarP(&removeQuiet, "quiet", "q", false, "suppress per-object output")
	rootCmd.AddCommand(removeCmd)
}

func runRemove(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	injector, err := injectorFromContext(ctx)
	if err != nil {
		return err
	}
	store, err := do.Invoke[bucketgate.ObjectStore](injector)
	if err != nil {
		return fmt.Errorf("create store: %w", err)
	}

	for _, key := range args {
		if err := store.Delete(ctx, key); err != nil {
			return fmt.Errorf("remove %s: %w", key, err)
		}
		if !removeQuiet {
			slog.Info("removed", "key", key)
		}
	}

	slog.Info("remove complete", "removed", len(args))
	return nil
}
