package clientcli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Formatter formats results for output.
type Formatter interface {
	FormatUpload(w io.Writer, results []UploadResult) error
	FormatDownload(w io.Writer, result *DownloadResult) error
	FormatDelete(w io.Writer, results []DeleteResult) error
	FormatError(w io.Writer, err error) error
	FormatProfileList(w io.Writer, profiles []Profile, defaultName string, showSecrets bool) error
	FormatProfileShow(w io.Writer, profile Profile, isDefault, showSecrets bool) error
}

// NewFormatter returns the appropriate formatter based on flags.
func NewFormatter(jsonOutput, quiet bool) Formatter {
	if jsonOutput {
		return &JSONFormatter{}
	}
	return &HumanFormatter{Quiet: quiet}
}

// HumanFormatter outputs human-readable text. Errors are always printed;
// Quiet suppresses everything else.
type HumanFormatter struct {
	Quiet bool
}

func (f *HumanFormatter) FormatUpload(w io.Writer, results []UploadResult) error {
	for _, r := range results {
		switch {
		case r.Err != nil:
			_, _ = fmt.Fprintf(w, "Error: %s - %v\n", r.LocalPath, r.Err)
		case !f.Quiet:
			_, _ = fmt.Fprintf(w, "Uploaded: %s -> %s (%s)\n", r.LocalPath, r.Key, formatSize(r.Size))
			if r.Message != "" {
				_, _ = fmt.Fprintf(w, "  %s\n", r.Message)
			}
		}
	}
	return nil
}

func (f *HumanFormatter) FormatDownload(w io.Writer, result *DownloadResult) error {
	if f.Quiet {
		return nil
	}

	target := result.Key
	if result.LocalPath != "-" {
		target += " -> " + result.LocalPath
	}
	_, _ = fmt.Fprintf(w, "Downloaded: %s (%s)\n", target, formatSize(result.Size))
	if result.ETag != "" {
		_, _ = fmt.Fprintf(w, "  ETag: %s\n", result.ETag)
	}
	return nil
}

func (f *HumanFormatter) FormatDelete(w io.Writer, results []DeleteResult) error {
	for _, r := range results {
		switch {
		case r.Err != nil:
			_, _ = fmt.Fprintf(w, "Error: %s - %v\n", r.Key, r.Err)
		case !f.Quiet:
			_, _ = fmt.Fprintf(w, "Deleted: %s\n", r.Key)
		}
	}
	return nil
}

func (f *HumanFormatter) FormatError(w io.Writer, err error) error {
	_, _ = fmt.Fprintf(w, "Error: %v\n", err)
	return nil
}

// FormatProfileList prints one row per profile with the default marked "*".
func (f *HumanFormatter) FormatProfileList(w io.Writer, profiles []Profile, defaultName string, showSecrets bool) error {
	nameWidth, endpointWidth := len("NAME"), len("ENDPOINT")
	for _, p := range profiles {
		nameWidth = max(nameWidth, len(p.Name))
		endpointWidth = max(endpointWidth, len(p.Endpoint))
	}
	nameWidth = min(nameWidth, 20)
	endpointWidth = min(endpointWidth, 50)

	_, _ = fmt.Fprintf(w, "  %-*s  %-*s  %s\n", nameWidth, "NAME", endpointWidth, "ENDPOINT", "TOKEN")
	for _, p := range profiles {
		marker := " "
		if p.Name == defaultName {
			marker = "*"
		}
		_, _ = fmt.Fprintf(w, "%s %-*s  %-*s  %s\n",
			marker,
			nameWidth, truncate(p.Name, nameWidth),
			endpointWidth, truncate(p.Endpoint, endpointWidth),
			maskSecret(p.Token, showSecrets),
		)
	}
	return nil
}

func (f *HumanFormatter) FormatProfileShow(w io.Writer, profile Profile, isDefault, showSecrets bool) error {
	name := profile.Name
	if isDefault {
		name += " (default)"
	}
	_, _ = fmt.Fprintf(w, "Name:     %s\n", name)
	_, _ = fmt.Fprintf(w, "Endpoint: %s\n", profile.Endpoint)
	_, _ = fmt.Fprintf(w, "Token:    %s\n", maskSecret(profile.Token, showSecrets))
	return nil
}

// JSONFormatter outputs indented JSON. Per-item errors become an "error"
// string field.
type JSONFormatter struct{}

type uploadJSON struct {
	UploadResult
	Error string `json:"error,omitempty"`
}

type deleteJSON struct {
	Key     string `json:"key"`
	Deleted bool   `json:"deleted"`
	Error   string `json:"error,omitempty"`
}

type profileJSON struct {
	Name     string `json:"name"`
	Endpoint string `json:"endpoint"`
	Token    string `json:"token"`
	Default  bool   `json:"default"`
}

func (f *JSONFormatter) FormatUpload(w io.Writer, results []UploadResult) error {
	out := make([]uploadJSON, len(results))
	for i, r := range results {
		out[i] = uploadJSON{UploadResult: r, Error: errString(r.Err)}
	}
	return writeJSON(w, out)
}

func (f *JSONFormatter) FormatDownload(w io.Writer, result *DownloadResult) error {
	return writeJSON(w, result)
}

func (f *JSONFormatter) FormatDelete(w io.Writer, results []DeleteResult) error {
	out := struct {
		Results []deleteJSON `json:"results"`
	}{Results: make([]deleteJSON, len(results))}

	for i, r := range results {
		out.Results[i] = deleteJSON{Key: r.Key, Deleted: r.Deleted, Error: errString(r.Err)}
	}
	return writeJSON(w, out)
}

func (f *JSONFormatter) FormatError(w io.Writer, err error) error {
	return writeJSON(w, map[string]string{"error": err.Error()})
}

func (f *JSONFormatter) FormatProfileList(w io.Writer, profiles []Profile, defaultName string, showSecrets bool) error {
	out := struct {
		Profiles []profileJSON `json:"profiles"`
	}{Profiles: make([]profileJSON, len(profiles))}

	for i, p := range profiles {
		out.Profiles[i] = toProfileJSON(p, p.Name == defaultName, showSecrets)
	}
	return writeJSON(w, out)
}

func (f *JSONFormatter) FormatProfileShow(w io.Writer, profile Profile, isDefault, showSecrets bool) error {
	return writeJSON(w, toProfileJSON(profile, isDefault, showSecrets))
}

func toProfileJSON(p Profile, isDefault, showSecrets bool) profileJSON {
	return profileJSON{
		Name:     p.Name,
		Endpoint: p.Endpoint,
		Token:    maskSecret(p.Token, showSecrets),
		Default:  isDefault,
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func truncate(s string, width int) string {
	if len(s) <= width {
		return s
	}
	return s[:width-3] + "..."
}

// formatSize formats bytes with binary units.
func formatSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}

	div, exp := int64(unit), 0
	for m := n / unit; m >= unit && exp < 3; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGT"[exp])
}

// maskSecret keeps the first and last four characters of a token. Short
// tokens are fully masked.
func maskSecret(secret string, showSecrets bool) string {
	switch {
	case showSecrets:
		return secret
	case secret == "":
		return "(not set)"
	case len(secret) <= 8:
		return strings.Repeat("*", 8)
	default:
		return secret[:4] + "..." + secret[len(secret)-4:]
	}
}
