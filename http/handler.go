package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/sagarc03/bucketgate"
	"github.com/sagarc03/bucketgate/respcache"
)

const (
	// CacheControl is sent with every object served from the store. Keys are
	// treated as immutable, so clients and CDNs may keep them for a year.
	CacheControl = "public, max-age=31536000, immutable"

	defaultMultipartMemory = 32 << 20
	fileField              = "file"
)

// Verifier checks the Authorization header of mutating requests.
type Verifier interface {
	Verify(header string) error
}

// CacheWriter populates the response cache without blocking the request.
type CacheWriter interface {
	Enqueue(ctx context.Context, key string, resp bucketgate.CachedResponse) bool
}

type CORSConfig struct {
	Enabled          bool     `mapstructure:"enabled"`
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

type HandlerConfig struct {
	Verifier Verifier

	// Cache is consulted before the store on GET. CacheWriter receives
	// responses of at most MaxCacheEntrySize bytes; leave either nil to
	// disable that half.
	Cache             bucketgate.ResponseCache
	CacheWriter       CacheWriter
	MaxCacheEntrySize int64
	VaryHeaders       []string

	MaxUploadSize   int64 // 0 means unlimited
	MultipartMemory int64

	Metrics *Metrics
	Logger  *slog.Logger
	CORS    CORSConfig
}

// Handler serves PUT, GET and DELETE of objects keyed by URL path.
type Handler struct {
	config  HandlerConfig
	store   bucketgate.ObjectStore
	vary    []string
	metrics *Metrics
	logger  *slog.Logger
}

// NewHandler creates a new Handler with the given configuration and store.
func NewHandler(config *HandlerConfig, store bucketgate.ObjectStore) *Handler {
	cfg := *config
	if cfg.Cache == nil {
		cfg.Cache = respcache.Nop{}
	}
	if cfg.MultipartMemory <= 0 {
		cfg.MultipartMemory = defaultMultipartMemory
	}

	metrics := cfg.Metrics
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		config:  cfg,
		store:   store,
		vary:    respcache.NormalizeVary(cfg.VaryHeaders),
		metrics: metrics,
		logger:  logger,
	}
}

// Router returns the chi router. PUT and DELETE sit behind the bearer check;
// every method other than PUT, GET and DELETE gets 405.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(RequestLogger(h.logger))
	r.Use(h.metrics.Middleware)
	r.Use(Recoverer(h.logger))

	if h.config.CORS.Enabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   h.config.CORS.AllowedOrigins,
			AllowedMethods:   h.config.CORS.AllowedMethods,
			AllowedHeaders:   h.config.CORS.AllowedHeaders,
			ExposedHeaders:   h.config.CORS.ExposedHeaders,
			AllowCredentials: h.config.CORS.AllowCredentials,
			MaxAge:           h.config.CORS.MaxAge,
		}))
	}

	r.MethodNotAllowed(h.handleMethodNotAllowed)

	r.Get("/*", h.handleGet)

	r.Group(func(r chi.Router) {
		r.Use(RequireBearer(h.config.Verifier))
		r.Put("/*", h.handlePut)
		r.Delete("/*", h.handleDelete)
	})

	return r
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	cacheKey := respcache.Key(r, h.vary)

	cached, hit, err := h.config.Cache.Match(ctx, cacheKey)
	if err != nil {
		h.metrics.cacheLookup(lookupError)
		HandleError(w, fmt.Errorf("cache match: %w", err))
		return
	}
	if hit {
		h.metrics.cacheLookup(lookupHit)
		h.logger.Debug("cache hit", "key", cacheKey)
		writeCached(w, cached)
		return
	}
	h.metrics.cacheLookup(lookupMiss)

	key := bucketgate.KeyFromPath(r.URL.EscapedPath())
	obj, err := h.store.Get(ctx, key)
	if err != nil {
		HandleError(w, err)
		return
	}
	defer func() { _ = obj.Body.Close() }()

	header := w.Header()
	header.Set("Cache-Control", CacheControl)
	if obj.ContentType != "" {
		header.Set("Content-Type", obj.ContentType)
	}
	if obj.Etag != "" {
		header.Set("ETag", `"`+obj.Etag+`"`)
	}

	if h.cacheable(obj.FileSizeBytes) {
		h.serveBuffered(w, r, cacheKey, obj)
		return
	}

	if obj.FileSizeBytes >= 0 {
		header.Set("Content-Length", strconv.FormatInt(obj.FileSizeBytes, 10))
	}
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, obj.Body); err != nil {
		h.logger.Warn("stream object", "key", key, "error", err)
	}
}

func (h *Handler) cacheable(size int64) bool {
	return h.config.CacheWriter != nil && size >= 0 && size <= h.config.MaxCacheEntrySize
}

// serveBuffered reads the whole object, hands a copy of the response to the
// cache writer and only then writes to the client.
func (h *Handler) serveBuffered(w http.ResponseWriter, r *http.Request, cacheKey string, obj bucketgate.Object) {
	limit := h.config.MaxCacheEntrySize
	body, err := io.ReadAll(io.LimitReader(obj.Body, limit+1))
	if err != nil {
		HandleError(w, fmt.Errorf("read object: %w", err))
		return
	}

	header := w.Header()
	if int64(len(body)) > limit {
		// Metadata under-reported the size. Serve it, skip the cache.
		header.Del("Content-Length")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(body)
		_, _ = io.Copy(w, obj.Body)
		return
	}

	header.Set("Content-Length", strconv.Itoa(len(body)))
	h.config.CacheWriter.Enqueue(r.Context(), cacheKey, bucketgate.CachedResponse{
		StatusCode: http.StatusOK,
		Header:     cachedHeader(header),
		Body:       body,
	})

	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		h.logger.Warn("write object", "key", obj.Key, "error", err)
	}
}

// cachedHeader copies the object headers worth replaying. CORS headers
// depend on the requesting origin and are left to the live middleware.
func cachedHeader(h http.Header) http.Header {
	out := make(http.Header, len(h))
	for name, values := range h {
		if name == "Vary" || strings.HasPrefix(name, "Access-Control-") {
			continue
		}
		out[name] = append([]string(nil), values...)
	}
	return out
}

// writeCached replays resp. Headers already set for this request win over
// the cached copy.
func writeCached(w http.ResponseWriter, resp bucketgate.CachedResponse) {
	header := w.Header()
	for name, values := range cachedHeader(resp.Header) {
		if _, set := header[name]; set {
			continue
		}
		header[name] = values
	}
	w.WriteHeader(resp.StatusCode)
	_, _ = w.Write(resp.Body)
}

func (h *Handler) handlePut(w http.ResponseWriter, r *http.Request) {
	key := bucketgate.KeyFromPath(r.URL.EscapedPath())
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	if h.config.MaxUploadSize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.config.MaxUploadSize)
	}

	file, meta, err := h.formFile(r)
	if err != nil {
		HandleError(w, err)
		return
	}
	defer func() { _ = file.Close() }()

	if err := h.store.Put(r.Context(), key, file, meta); err != nil {
		HandleError(w, err)
		return
	}

	WriteText(w, http.StatusOK, fmt.Sprintf("Put %s successfully!", key))
}

// formFile returns the first part of the multipart field "file".
func (h *Handler) formFile(r *http.Request) (io.ReadCloser, bucketgate.ObjectMeta, error) {
	if err := r.ParseMultipartForm(h.config.MultipartMemory); err != nil {
		if errors.Is(err, http.ErrNotMultipart) || errors.Is(err, http.ErrMissingBoundary) {
			return nil, bucketgate.ObjectMeta{}, fmt.Errorf("%w: %w", bucketgate.ErrBadRequest, err)
		}
		return nil, bucketgate.ObjectMeta{}, fmt.Errorf("parse form: %w", err)
	}

	files := r.MultipartForm.File[fileField]
	if len(files) == 0 {
		return nil, bucketgate.ObjectMeta{}, fmt.Errorf("%w: no %q field", bucketgate.ErrBadRequest, fileField)
	}

	fh := files[0]
	f, err := fh.Open()
	if err != nil {
		return nil, bucketgate.ObjectMeta{}, fmt.Errorf("open form file: %w", err)
	}

	return f, bucketgate.ObjectMeta{
		ContentType: fh.Header.Get("Content-Type"),
		Filename:    fh.Filename,
	}, nil
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	key := bucketgate.KeyFromPath(r.URL.EscapedPath())

	if err := h.store.Delete(r.Context(), key); err != nil {
		HandleError(w, err)
		return
	}

	WriteText(w, http.StatusOK, "Deleted!")
}

func (h *Handler) handleMethodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	HandleError(w, bucketgate.ErrMethodNotAllowed)
}
