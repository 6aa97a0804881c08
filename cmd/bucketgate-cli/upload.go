package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/sagarc03/bucketgate/clientcli"
)

var (
	uploadRecursive   bool
	uploadContentType string
)

var uploadCmd = &cobra.Command{
	Use:   "upload <local-path> [key]",
	Short: "Upload files to the server",
	Long: `Upload files to the server.

The file is sent as the multipart field "file". When the key is omitted it is
derived from the local path. With -r the key is used as a prefix and the
directory layout is kept.

Examples:
  bucketgate-cli upload ./logo.png images/logo.png
  bucketgate-cli upload -r ./site/ static/
  bucketgate-cli upload --content-type application/json ./data config.json`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runUpload,
}

func init() {
	uploadCmd.Flags().BoolVarP(&uploadRecursive, "recursive", "r", false, "upload directory recursively")
	uploadCmd.Flags().StringVar(&uploadContentType, "content-type", "", "override content-type")
}

func runUpload(cmd *cobra.Command, args []string) error {
	client, err := getClient(true)
	if err != nil {
		return err
	}

	opts := clientcli.UploadOptions{
		LocalPath:   args[0],
		ContentType: uploadContentType,
		Recursive:   uploadRecursive,
	}
	if len(args) > 1 {
		opts.Key = args[1]
	}

	results, err := client.Upload(cmd.Context(), opts)
	if err != nil {
		return handleError(os.Stderr, err)
	}

	if err := getFormatter().FormatUpload(os.Stdout, results); err != nil {
		return err
	}

	if clientcli.HasUploadErrors(results) {
		return &exitError{code: 1}
	}
	return nil
}
