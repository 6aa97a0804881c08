// Package http serves the bucketgate object API.
//
// Three methods are routed, all keyed by the URL path with its leading slash
// removed:
//
//	PUT    /{key}  store the multipart field "file" (bearer token required)
//	GET    /{key}  read through the response cache, then the object store
//	DELETE /{key}  remove the object (bearer token required)
//
// Any other method gets 405. Responses other than object bodies are plain
// text; see HandleError for the error to status mapping.
//
// # Caching
//
// A GET consults HandlerConfig.Cache first and replays a hit verbatim. On a
// miss the object is read from the store and, when it fits
// MaxCacheEntrySize, the complete response is handed to the CacheWriter
// before the body is written. PUT and DELETE never touch the cache, so a
// replaced or deleted object can be served from cache until the entry
// expires.
//
// # Usage
//
//	verifier, _ := bucketgate.NewTokenVerifier(secret)
//	h := http.NewHandler(&http.HandlerConfig{
//	    Verifier:          verifier,
//	    Cache:             cache,
//	    CacheWriter:       respcache.NewWriter(cache, respcache.WriterConfig{}),
//	    MaxCacheEntrySize: 1 << 20,
//	}, store)
//	srv := &nethttp.Server{Addr: ":8787", Handler: h.Router()}
package http
