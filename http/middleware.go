package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/sagarc03/bucketgate"
)

// RequireBearer rejects requests whose Authorization header does not carry
// the expected bearer token. It runs before the body is read.
func RequireBearer(verifier Verifier) func(http.Handler) http.Handler {
	if verifier == nil {
		panic("http: RequireBearer called with nil verifier")
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := verifier.Verify(r.Header.Get("Authorization")); err != nil {
				HandleError(w, err)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequestLogger logs one line per request once the response is written.
func RequestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			logger.LogAttrs(r.Context(), slog.LevelInfo, "request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", statusOf(ww)),
				slog.Int("bytes", ww.BytesWritten()),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}

// Recoverer turns a panic into a 500 response. http.ErrAbortHandler is
// re-raised so net/http can abort the connection.
func Recoverer(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				logger.Error("panic recovered", "panic", rec, "stack", string(debug.Stack()))
				HandleError(w, fmt.Errorf("%w: panic: %v", bucketgate.ErrInternal, rec))
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// CacheWaiter reports when detached cache writes have settled.
type CacheWaiter interface {
	Wait(ctx context.Context) error
}

// AwaitCacheWrites keeps each request open after the handler returns until
// in-flight cache writes finish or bound elapses. Hosts that freeze the
// process between requests use it so writes are not left suspended.
func AwaitCacheWrites(waiter CacheWaiter, bound time.Duration, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r)

			ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), bound)
			defer cancel()
			if err := waiter.Wait(ctx); err != nil {
				logger.Warn("cache writes still pending", "path", r.URL.Path, "error", err)
			}
		})
	}
}

func statusOf(ww middleware.WrapResponseWriter) int {
	if ww.Status() == 0 {
		return http.StatusOK
	}
	return ww.Status()
}
