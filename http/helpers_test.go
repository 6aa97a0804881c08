package http_test

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"sync"
	"testing"

	"github.com/sagarc03/bucketgate"
	bghttp "github.com/sagarc03/bucketgate/http"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testSecret = "s3cret"

// MockStore is a mock implementation of bucketgate.ObjectStore
type MockStore struct {
	mock.Mock
}

func (m *MockStore) Put(ctx context.Context, key string, content io.Reader, meta bucketgate.ObjectMeta) error {
	args := m.Called(ctx, key, content, meta)
	return args.Error(0)
}

func (m *MockStore) Get(ctx context.Context, key string) (bucketgate.Object, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(bucketgate.Object), args.Error(1)
}

func (m *MockStore) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

type memObject struct {
	content []byte
	meta    bucketgate.ObjectMeta
}

// memStore is an in-memory object store that counts Get calls.
type memStore struct {
	mu      sync.Mutex
	objects map[string]memObject
	gets    int
}

func newMemStore() *memStore {
	return &memStore{objects: map[string]memObject{}}
}

func (s *memStore) Put(_ context.Context, key string, content io.Reader, meta bucketgate.ObjectMeta) error {
	data, err := io.ReadAll(content)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = memObject{content: data, meta: meta}
	return nil
}

func (s *memStore) Get(_ context.Context, key string) (bucketgate.Object, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gets++

	obj, ok := s.objects[key]
	if !ok {
		return bucketgate.Object{}, bucketgate.ErrNotFound
	}

	sum := sha256.Sum256(obj.content)
	return bucketgate.Object{
		MetaData: bucketgate.MetaData{
			Key:           key,
			ContentType:   obj.meta.ContentType,
			Filename:      obj.meta.Filename,
			Etag:          hex.EncodeToString(sum[:]),
			FileSizeBytes: int64(len(obj.content)),
		},
		Body: io.NopCloser(bytes.NewReader(obj.content)),
	}, nil
}

func (s *memStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

func (s *memStore) getCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gets
}

// mapCache is a ResponseCache backed by a map.
type mapCache struct {
	mu      sync.Mutex
	entries map[string]bucketgate.CachedResponse
	err     error
}

func newMapCache() *mapCache {
	return &mapCache{entries: map[string]bucketgate.CachedResponse{}}
}

func (c *mapCache) Match(_ context.Context, key string) (bucketgate.CachedResponse, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return bucketgate.CachedResponse{}, false, c.err
	}
	resp, ok := c.entries[key]
	return resp, ok, nil
}

func (c *mapCache) Store(_ context.Context, key string, resp bucketgate.CachedResponse) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = resp
	return nil
}

func (c *mapCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// syncWriter stores enqueued responses before returning.
type syncWriter struct {
	cache bucketgate.ResponseCache
}

func (w syncWriter) Enqueue(ctx context.Context, key string, resp bucketgate.CachedResponse) bool {
	return w.cache.Store(ctx, key, resp) == nil
}

func newVerifier(t *testing.T) *bucketgate.TokenVerifier {
	t.Helper()

	v, err := bucketgate.NewTokenVerifier(testSecret)
	require.NoError(t, err)
	return v
}

// newRouter builds a router over store with a synchronous map cache.
func newRouter(t *testing.T, store bucketgate.ObjectStore) (http.Handler, *mapCache) {
	t.Helper()

	cache := newMapCache()
	h := bghttp.NewHandler(&bghttp.HandlerConfig{
		Verifier:          newVerifier(t),
		Cache:             cache,
		CacheWriter:       syncWriter{cache: cache},
		MaxCacheEntrySize: 1 << 20,
	}, store)
	return h.Router(), cache
}

// multipartBody encodes content as the single file part named field.
func multipartBody(t *testing.T, field, filename, contentType string, content []byte) (io.Reader, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+filename+`"`)
	header.Set("Content-Type", contentType)
	part, err := mw.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	return &buf, mw.FormDataContentType()
}

func putRequest(t *testing.T, path, auth, filename, contentType string, content []byte) *http.Request {
	t.Helper()

	body, formType := multipartBody(t, "file", filename, contentType, content)
	req := httptest.NewRequest(http.MethodPut, path, body)
	req.Header.Set("Content-Type", formType)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	return req
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}
