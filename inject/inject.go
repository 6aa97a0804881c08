// Package inject wires the gateway's services from a loaded configuration.
package inject

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/samber/do"

	"github.com/sagarc03/bucketgate"
	"github.com/sagarc03/bucketgate/config"
	"github.com/sagarc03/bucketgate/database"
	"github.com/sagarc03/bucketgate/filesystem"
	bghttp "github.com/sagarc03/bucketgate/http"
	"github.com/sagarc03/bucketgate/keybackend"
	"github.com/sagarc03/bucketgate/respcache"
	"github.com/sagarc03/bucketgate/s3store"
)

// ErrNotFilesystem is returned when a maintenance command needs the
// metadata-backed store but storage.type selects another backend.
var ErrNotFilesystem = errors.New("storage type is not filesystem")

// Setup registers lazy providers for every service. Nothing is connected
// until it is first invoked, so maintenance commands only open what they
// use. Shutdown on the returned injector drains the cache writer before the
// cache and the metadata database are closed.
func Setup(ctx context.Context, cfg *config.Config, logger *slog.Logger) *do.Injector {
	injector := do.NewWithOpts(&do.InjectorOpts{
		Logf: func(format string, args ...any) {
			logger.Debug(fmt.Sprintf(format, args...))
		},
	})

	do.ProvideValue(injector, cfg)
	do.ProvideValue(injector, logger)

	do.Provide(injector, func(i *do.Injector) (aws.Config, error) {
		return s3store.LoadAWSConfig(ctx, cfg.Storage.S3)
	})
	do.Provide(injector, func(i *do.Injector) (*ssm.Client, error) {
		return ssm.NewFromConfig(do.MustInvoke[aws.Config](i)), nil
	})

	do.Provide(injector, func(i *do.Injector) (*prometheus.Registry, error) {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		return reg, nil
	})

	do.Provide(injector, newVerifier(ctx, cfg))
	do.Provide(injector, newMetadataDB(ctx, cfg))
	do.Provide(injector, newStorageRoot(cfg))
	do.Provide(injector, newStore(cfg))
	do.Provide(injector, newObjectStore(cfg))
	do.Provide(injector, newResponseCache(ctx, cfg, logger))
	do.Provide(injector, newCacheWriter(cfg, logger))
	do.Provide(injector, func(i *do.Injector) (*bghttp.Metrics, error) {
		return bghttp.NewMetrics(do.MustInvoke[*prometheus.Registry](i)), nil
	})
	do.Provide(injector, newHandler(cfg, logger))

	return injector
}

func newVerifier(ctx context.Context, cfg *config.Config) do.Provider[*bucketgate.TokenVerifier] {
	return func(i *do.Injector) (*bucketgate.TokenVerifier, error) {
		var client keybackend.SSMAPI
		if cfg.Auth.SSMParameter != "" {
			c, err := do.Invoke[*ssm.Client](i)
			if err != nil {
				return nil, err
			}
			client = c
		}

		secret, err := keybackend.LoadSecret(ctx, cfg.Auth, client)
		if err != nil {
			return nil, err
		}
		return bucketgate.NewTokenVerifier(secret)
	}
}

// metadataDB closes the database when the injector shuts down.
type metadataDB struct {
	database.Database
}

func (m metadataDB) Shutdown() error {
	return m.Close()
}

func newMetadataDB(ctx context.Context, cfg *config.Config) do.Provider[metadataDB] {
	return func(i *do.Injector) (metadataDB, error) {
		db, err := database.Open(ctx, cfg.Database.Connection(), cfg.Database.AutoMigrate)
		if err != nil {
			return metadataDB{}, fmt.Errorf("open database: %w", err)
		}
		return metadataDB{db}, nil
	}
}

// storageRoot closes the storage directory when the injector shuts down.
type storageRoot struct {
	*os.Root
}

func (r storageRoot) Shutdown() error {
	return r.Close()
}

func newStorageRoot(cfg *config.Config) do.Provider[storageRoot] {
	return func(i *do.Injector) (storageRoot, error) {
		if err := os.MkdirAll(cfg.Storage.Path, 0o750); err != nil {
			return storageRoot{}, fmt.Errorf("create storage directory: %w", err)
		}
		root, err := os.OpenRoot(cfg.Storage.Path)
		if err != nil {
			return storageRoot{}, fmt.Errorf("open storage root: %w", err)
		}
		return storageRoot{root}, nil
	}
}

func newStore(cfg *config.Config) do.Provider[*bucketgate.Store] {
	return func(i *do.Injector) (*bucketgate.Store, error) {
		if cfg.Storage.Type != "filesystem" {
			return nil, fmt.Errorf("%w: %s", ErrNotFilesystem, cfg.Storage.Type)
		}

		db, err := do.Invoke[metadataDB](i)
		if err != nil {
			return nil, err
		}
		root, err := do.Invoke[storageRoot](i)
		if err != nil {
			return nil, err
		}

		storage := filesystem.NewFileStorage(root.Root)
		return bucketgate.NewStore(db.GetRepo(), storage, cfg.Service.StoreConfig()), nil
	}
}

func newObjectStore(cfg *config.Config) do.Provider[bucketgate.ObjectStore] {
	return func(i *do.Injector) (bucketgate.ObjectStore, error) {
		if cfg.Storage.Type == "s3" {
			awsCfg, err := do.Invoke[aws.Config](i)
			if err != nil {
				return nil, err
			}
			store, err := s3store.NewFromConfig(awsCfg, cfg.Storage.S3)
			if err != nil {
				return nil, err
			}
			return store, nil
		}

		store, err := do.Invoke[*bucketgate.Store](i)
		if err != nil {
			return nil, err
		}
		return store, nil
	}
}

// closingCache closes an in-memory cache when the injector shuts down.
type closingCache struct {
	*respcache.BigCache
}

func (c closingCache) Shutdown() error {
	return c.Close()
}

func newResponseCache(ctx context.Context, cfg *config.Config, logger *slog.Logger) do.Provider[bucketgate.ResponseCache] {
	return func(i *do.Injector) (bucketgate.ResponseCache, error) {
		switch cfg.Cache.Type {
		case "memory":
			bc, err := respcache.NewBigCache(ctx, respcache.BigCacheConfig{
				TTL:           cfg.Cache.TTLDuration(),
				Shards:        cfg.Cache.Memory.Shards,
				HardMaxSizeMB: cfg.Cache.Memory.HardMaxSizeMB,
				Logger:        logger,
			})
			if err != nil {
				return nil, err
			}
			return closingCache{bc}, nil
		case "memcached":
			mc, err := respcache.NewMemcached(cfg.Cache.TTLDuration(), cfg.Cache.Memcached.Servers...)
			if err != nil {
				return nil, err
			}
			return mc, nil
		default:
			return respcache.Nop{}, nil
		}
	}
}

func newCacheWriter(cfg *config.Config, logger *slog.Logger) do.Provider[*respcache.Writer] {
	return func(i *do.Injector) (*respcache.Writer, error) {
		cache, err := do.Invoke[bucketgate.ResponseCache](i)
		if err != nil {
			return nil, err
		}
		return respcache.NewWriter(cache, respcache.WriterConfig{
			Writers:    cfg.Cache.Writers,
			Timeout:    cfg.Cache.WriteTimeoutDuration(),
			Logger:     logger,
			Registerer: do.MustInvoke[*prometheus.Registry](i),
		}), nil
	}
}

func newHandler(cfg *config.Config, logger *slog.Logger) do.Provider[*bghttp.Handler] {
	return func(i *do.Injector) (*bghttp.Handler, error) {
		verifier, err := do.Invoke[*bucketgate.TokenVerifier](i)
		if err != nil {
			return nil, err
		}
		store, err := do.Invoke[bucketgate.ObjectStore](i)
		if err != nil {
			return nil, err
		}
		cache, err := do.Invoke[bucketgate.ResponseCache](i)
		if err != nil {
			return nil, err
		}

		var writer bghttp.CacheWriter
		if cfg.Cache.Type != "none" {
			w, err := do.Invoke[*respcache.Writer](i)
			if err != nil {
				return nil, err
			}
			writer = w
		}

		handlerConfig := bghttp.HandlerConfig{
			Verifier:          verifier,
			Cache:             cache,
			CacheWriter:       writer,
			MaxCacheEntrySize: cfg.Cache.MaxEntrySize,
			VaryHeaders:       cfg.Cache.VaryHeaders,
			MaxUploadSize:     cfg.Server.MaxUploadSize,
			MultipartMemory:   cfg.Server.MultipartMemory,
			Metrics:           do.MustInvoke[*bghttp.Metrics](i),
			Logger:            logger,
			CORS:              cfg.CORS,
		}
		return bghttp.NewHandler(&handlerConfig, store), nil
	}
}
