package main

import (
	"io"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"

	"github.com/sagarc03/bucketgate/config"
)

// setupLogging installs the process-wide slog logger: colored tint output in
// development, JSON with an RFC3339Nano "ts" field in production. Output from
// the standard log package is routed through it at info.
func setupLogging(cfg *config.Config) *slog.Logger {
	logger := slog.New(newHandler(os.Stdout, cfg.IsProduction(), parseLevel(cfg.Log.Level)))
	slog.SetDefault(logger)

	log.SetFlags(0)
	log.SetOutput(slog.NewLogLogger(logger.Handler(), slog.LevelInfo).Writer())

	return logger
}

func newHandler(w io.Writer, production bool, level slog.Level) slog.Handler {
	if !production {
		return tint.NewHandler(w, &tint.Options{
			Level:      level,
			AddSource:  true,
			TimeFormat: time.TimeOnly + ".000",
		})
	}

	return slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key != slog.TimeKey {
				return a
			}
			return slog.String("ts", a.Value.Time().UTC().Format(time.RFC3339Nano))
		},
	})
}

// parseLevel accepts slog level names and falls back to info.
func parseLevel(s string) slog.Level {
	level := slog.LevelInfo
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}
