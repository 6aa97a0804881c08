package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/sagarc03/bucketgate/config"
	"github.com/sagarc03/bucketgate/inject"
)

var version = "dev"

var configFiles []string

var rootCmd = &cobra.Command{
	Version: version,
	Use:     "bucketgate",
	Short:   "HTTP gateway over a key-addressed object store",
	Long: `bucketgate serves objects by key over HTTP. Reads go through a
response cache; writes and deletes require a bearer token.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configFiles, cmd.Flags())
		if err != nil {
			return err
		}

		logger := setupLogging(cfg)

		ctx := config.WithContext(cmd.Context(), cfg)
		state := stateFromContext(ctx)
		if state == nil {
			state = &appState{}
			ctx = withState(ctx, state)
		}
		state.injector = inject.Setup(ctx, cfg, logger)
		cmd.SetContext(ctx)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringSliceVar(&configFiles, "config", nil, "config file paths, merged left to right (default: ./config.yaml)")
	rootCmd.PersistentFlags().String("db-type", "", "database type: sqlite, postgres (default: sqlite, env: BUCKETGATE_DATABASE_TYPE)")
	rootCmd.PersistentFlags().String("db-dsn", "", "database connection string (default: bucketgate.db, env: BUCKETGATE_DATABASE_DSN)")
	rootCmd.PersistentFlags().String("storage-type", "", "object store: filesystem, s3 (default: filesystem, env: BUCKETGATE_STORAGE_TYPE)")
	rootCmd.PersistentFlags().String("storage-path", "", "storage directory path (default: ./data, env: BUCKETGATE_STORAGE_PATH)")
	rootCmd.PersistentFlags().String("s3-bucket", "", "S3 bucket name (env: BUCKETGATE_STORAGE_S3_BUCKET)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error (default: info)")
}

func main() {
	state := &appState{}
	ctx := withState(context.Background(), state)

	err := rootCmd.ExecuteContext(ctx)
	state.shutdown()
	if err != nil {
		os.Exit(1)
	}
}
