package main

import (
	"fmt"
	"log/slog"

	"github.com/samber/do"
	"github.com/spf13/cobra"

	"github.com/sagarc03/bucketgate"
	"github.com/sagarc03/bucketgate/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize metadata database from storage files",
	Long: `Scan the storage directory and populate the metadata database
with entries for all existing files. This is useful when:
  - Setting up bucketgate over a directory that already has files
  - Recovering metadata after database loss

Only the filesystem store keeps metadata; S3 needs no initialization.`,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}
	injector, err := injectorFromContext(cmd.Context())
	if err != nil {
		return err
	}

	store, err := do.Invoke[*bucketgate.Store](injector)
	if err != nil {
		return fmt.Errorf("create store: %w", err)
	}

	slog.Info("scanning storage directory", "path", cfg.Storage.Path)

	if err := store.Populate(cmd.Context()); err != nil {
		return fmt.Errorf("populate: %w", err)
	}

	slog.Info("initialization complete")
	return nil
}
