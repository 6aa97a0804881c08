package bucketgate

import (
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// MetaData is the persisted record for a stored object.
type MetaData struct {
	ID            uuid.UUID `json:"id"`
	Key           string    `json:"key"`
	ContentType   string    `json:"content_type"`
	Filename      string    `json:"filename"`
	Etag          string    `json:"etag"`
	FileSizeBytes int64     `json:"file_size_bytes"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ObjectMeta is the metadata supplied by the uploader alongside the content.
type ObjectMeta struct {
	ContentType string
	Filename    string
}

// Object is a stored object opened for reading. The caller must close Body.
type Object struct {
	MetaData
	Body io.ReadCloser
}

type ObjectEntry struct {
	Key         string
	Size        int64
	ETag        string
	ContentType string
	Filename    string
}

type ListQuery struct {
	KeyPrefix string
	Limit     int
	Cursor    string
}

type ListResult struct {
	Items      []MetaData `json:"items"`
	NextCursor string     `json:"next_cursor,omitempty"`
}

type SaveResult struct {
	BytesWritten int64
	Etag         string
}

// CachedResponse is a replayable copy of a successful GET response.
type CachedResponse struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}
