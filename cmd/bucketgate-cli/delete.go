package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/sagarc03/bucketgate/clientcli"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <key> [key...]",
	Short: "Delete objects from the server",
	Long: `Delete one or more objects from the server.

Deleting a key that does not exist succeeds. The gateway does not invalidate
its response cache, so deleted objects may still be served until the cached
entry expires.

Examples:
  bucketgate-cli delete docs/file.txt
  bucketgate-cli delete old/a.txt old/b.txt old/c.txt
  bucketgate-cli delete -q temp/file.txt`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDelete,
}

func runDelete(cmd *cobra.Command, args []string) error {
	client, err := getClient(true)
	if err != nil {
		return err
	}

	results, err := client.Delete(cmd.Context(), clientcli.DeleteOptions{Keys: args})
	if err != nil {
		return handleError(os.Stderr, err)
	}

	if err := getFormatter().FormatDelete(os.Stdout, results); err != nil {
		return err
	}

	if clientcli.HasDeleteErrors(results) {
		return &exitError{code: 1}
	}
	return nil
}
