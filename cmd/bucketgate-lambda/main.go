package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-lambda-go/lambdaurl"
	"github.com/samber/do"
	"github.com/samber/lo"

	"github.com/sagarc03/bucketgate/config"
	bghttp "github.com/sagarc03/bucketgate/http"
	"github.com/sagarc03/bucketgate/inject"
	"github.com/sagarc03/bucketgate/respcache"
)

// newLogger writes JSON without timestamps; CloudWatch stamps every line.
func newLogger(w io.Writer, level string) *slog.Logger {
	var lvl slog.Level
	_ = lvl.UnmarshalText([]byte(level))

	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: lvl,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			return lo.Ternary(a.Key == slog.TimeKey, slog.Attr{}, a)
		},
	}))
}

// newRouter builds the gateway router. Lambda freezes the environment once
// a response completes, so when a cache is configured each request waits for
// its detached cache write, bounded by the per-write timeout.
func newRouter(cfg *config.Config, injector *do.Injector, logger *slog.Logger) http.Handler {
	router := do.MustInvoke[*bghttp.Handler](injector).Router()
	if cfg.Cache.Type == "none" {
		return router
	}

	writer := do.MustInvoke[*respcache.Writer](injector)
	return bghttp.AwaitCacheWrites(writer, cfg.Cache.WriteTimeoutDuration(), logger)(router)
}

func main() {
	// Configuration comes from BUCKETGATE_* environment variables.
	cfg, err := config.Load(nil, nil)
	if err != nil {
		newLogger(os.Stderr, "error").Error("load config", "err", err)
		os.Exit(1)
	}

	logger := newLogger(os.Stderr, cfg.Log.Level)
	slog.SetDefault(logger)

	ctx := config.WithContext(context.Background(), cfg)
	injector := inject.Setup(ctx, cfg, logger)

	// Requires a function URL with the RESPONSE_STREAM invoke mode.
	lambdaurl.Start(newRouter(cfg, injector, logger), lambda.WithContext(ctx), lambda.WithEnableSIGTERM(func() {
		_ = injector.Shutdown()
	}))
}
