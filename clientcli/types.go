package clientcli

// UploadOptions configures an upload operation.
type UploadOptions struct {
	LocalPath   string
	Key         string // remote key; directory uploads use it as a prefix
	ContentType string // optional, auto-detect if empty
	Recursive   bool
}

// UploadResult represents the result of uploading a single file.
type UploadResult struct {
	LocalPath   string `json:"local_path"`
	Key         string `json:"key"`
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size_bytes"`
	Message     string `json:"message"`
	Err         error  `json:"-"` // nil on success
}

// DownloadOptions configures a download operation.
type DownloadOptions struct {
	Key       string
	LocalPath string // empty = derive from key, "-" = stdout
}

// DownloadResult represents the result of downloading an object.
type DownloadResult struct {
	Key          string `json:"key"`
	LocalPath    string `json:"local_path"`
	ETag         string `json:"etag,omitempty"`
	ContentType  string `json:"content_type"`
	CacheControl string `json:"cache_control,omitempty"`
	Size         int64  `json:"size_bytes"`
}

// DeleteOptions configures a delete operation.
type DeleteOptions struct {
	Keys []string
}

// DeleteResult represents the result of deleting a single object.
type DeleteResult struct {
	Key     string `json:"key"`
	Deleted bool   `json:"deleted"`
	Err     error  `json:"-"` // nil on success
}
