package keybackend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// FileSource reads the secret from a file. The file holds either the bare
// secret (surrounding whitespace is ignored) or a JSON object:
//
//	{"secret": "..."}
type FileSource string

func (f FileSource) Secret(context.Context) (string, error) {
	data, err := os.ReadFile(string(f)) //nolint:gosec // Path is from trusted config file
	if err != nil {
		return "", fmt.Errorf("read secret file: %w", err)
	}

	data = bytes.TrimSpace(data)
	if !bytes.HasPrefix(data, []byte("{")) {
		return string(data), nil
	}

	var doc struct {
		Secret string `json:"secret"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return "", fmt.Errorf("parse secret file: %w", err)
	}
	return strings.TrimSpace(doc.Secret), nil
}
