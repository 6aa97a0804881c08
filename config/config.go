package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/sagarc03/bucketgate"
	"github.com/sagarc03/bucketgate/database"
	bghttp "github.com/sagarc03/bucketgate/http"
	"github.com/sagarc03/bucketgate/keybackend"
	"github.com/sagarc03/bucketgate/s3store"
)

// configKey is the context key for storing the loaded configuration.
type configKey struct{}

// WithContext returns a new context with the config stored.
func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// FromContext retrieves the config from context.
// Returns an error if config is not found.
func FromContext(ctx context.Context) (*Config, error) {
	cfg, ok := ctx.Value(configKey{}).(*Config)
	if !ok || cfg == nil {
		return nil, errors.New("config not found in context")
	}
	return cfg, nil
}

// Config is the root configuration struct for bucketgate.
type Config struct {
	Env      string                  `mapstructure:"env"`
	Server   ServerConfig            `mapstructure:"server"`
	Auth     keybackend.SecretConfig `mapstructure:"auth"`
	Storage  StorageConfig           `mapstructure:"storage"`
	Database DatabaseConfig          `mapstructure:"database"`
	Service  ServiceConfig           `mapstructure:"service"`
	Cache    CacheConfig             `mapstructure:"cache"`
	CORS     bghttp.CORSConfig       `mapstructure:"cors"`
	Log      LogConfig               `mapstructure:"log"`
}

// IsProduction reports whether env selects production logging.
func (c *Config) IsProduction() bool {
	return c.Env == "prod" || c.Env == "production"
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            int   `mapstructure:"port" validate:"required,min=1,max=65535"`
	MetricsPort     int   `mapstructure:"metrics_port" validate:"min=0,max=65535"` // 0 disables /metrics
	MaxUploadSize   int64 `mapstructure:"max_upload_size" validate:"min=0"`
	MultipartMemory int64 `mapstructure:"multipart_memory" validate:"min=0"`
}

// StorageConfig selects and configures the object store.
type StorageConfig struct {
	Type string         `mapstructure:"type" validate:"required,oneof=filesystem s3"`
	Path string         `mapstructure:"path"`
	S3   s3store.Config `mapstructure:"s3"`
}

// DatabaseConfig holds metadata database configuration for the filesystem store.
type DatabaseConfig struct {
	Type        string            `mapstructure:"type" validate:"required,oneof=sqlite postgres"`
	DSN         string            `mapstructure:"dsn" validate:"required"`
	AutoMigrate bool              `mapstructure:"auto_migrate"`
	Tables      bucketgate.Tables `mapstructure:"tables"`
}

// Connection returns the settings database.Open expects.
func (c DatabaseConfig) Connection() database.Config {
	return database.Config{Type: c.Type, DSN: c.DSN, Tables: c.Tables}
}

// ServiceConfig holds service-level configuration.
type ServiceConfig struct {
	CleanupTimeout int `mapstructure:"cleanup_timeout" validate:"min=1"` // seconds
}

// StoreConfig converts the service settings for bucketgate.NewStore.
func (c ServiceConfig) StoreConfig() bucketgate.StoreConfig {
	return bucketgate.StoreConfig{CleanupTimeout: time.Duration(c.CleanupTimeout) * time.Second}
}

// CacheConfig configures the GET response cache and its background writer.
type CacheConfig struct {
	Type         string          `mapstructure:"type" validate:"required,oneof=memory memcached none"`
	TTL          int             `mapstructure:"ttl" validate:"min=1"` // seconds
	MaxEntrySize int64           `mapstructure:"max_entry_size" validate:"min=0"`
	Writers      int             `mapstructure:"writers" validate:"min=1"`
	WriteTimeout int             `mapstructure:"write_timeout" validate:"min=1"` // seconds
	VaryHeaders  []string        `mapstructure:"vary_headers"`
	Memory       MemoryConfig    `mapstructure:"memory"`
	Memcached    MemcachedConfig `mapstructure:"memcached"`
}

// TTLDuration returns TTL as a time.Duration.
func (c CacheConfig) TTLDuration() time.Duration {
	return time.Duration(c.TTL) * time.Second
}

// WriteTimeoutDuration returns WriteTimeout as a time.Duration.
func (c CacheConfig) WriteTimeoutDuration() time.Duration {
	return time.Duration(c.WriteTimeout) * time.Second
}

type MemoryConfig struct {
	Shards        int `mapstructure:"shards" validate:"min=1"`
	HardMaxSizeMB int `mapstructure:"hard_max_size_mb" validate:"min=0"`
}

type MemcachedConfig struct {
	Servers []string `mapstructure:"servers"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
}

// flagToViperKey maps CLI flag names to viper configuration keys.
var flagToViperKey = map[string]string{
	"db-type":      "database.type",
	"db-dsn":       "database.dsn",
	"storage-type": "storage.type",
	"storage-path": "storage.path",
	"s3-bucket":    "storage.s3.bucket",
	"cache-type":   "cache.type",
	"port":         "server.port",
	"metrics-port": "server.metrics_port",
	"log-level":    "log.level",
}

// bindFlags binds CLI flags to viper keys with custom name mapping.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) {
	flags.VisitAll(func(f *pflag.Flag) {
		// Use custom mapping if it exists, otherwise use flag name as-is
		viperKey := f.Name
		if mapped, ok := flagToViperKey[viperKey]; ok {
			viperKey = mapped
		}

		// Only bind if the flag was explicitly set
		if f.Changed {
			_ = v.BindPFlag(viperKey, f)
		}
	})
}

// setDefaults configures default values on the viper instance. Every key
// that may come from the environment needs a default, or AutomaticEnv will
// not surface it during Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "dev")

	v.SetDefault("server.port", 8787)
	v.SetDefault("server.metrics_port", 9787)
	v.SetDefault("server.max_upload_size", 0) // 0 means no limit
	v.SetDefault("server.multipart_memory", 32<<20)

	v.SetDefault("auth.secret", "")
	v.SetDefault("auth.secret_file", "")
	v.SetDefault("auth.ssm_parameter", "")

	v.SetDefault("storage.type", "filesystem")
	v.SetDefault("storage.path", "./data")
	v.SetDefault("storage.s3.endpoint", "")
	v.SetDefault("storage.s3.region", "us-east-1")
	v.SetDefault("storage.s3.bucket", "")
	v.SetDefault("storage.s3.prefix", "")
	v.SetDefault("storage.s3.access_key", "")
	v.SetDefault("storage.s3.secret_key", "")
	v.SetDefault("storage.s3.use_path_style", false)

	v.SetDefault("database.type", "sqlite")
	v.SetDefault("database.dsn", "bucketgate.db")
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("database.tables.objects", "bucketgate_objects")

	v.SetDefault("service.cleanup_timeout", 30) // seconds

	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.ttl", 3600)
	v.SetDefault("cache.max_entry_size", 1<<20)
	v.SetDefault("cache.writers", 16)
	v.SetDefault("cache.write_timeout", 10)
	v.SetDefault("cache.vary_headers", []string{})
	v.SetDefault("cache.memory.shards", 64)
	v.SetDefault("cache.memory.hard_max_size_mb", 256)
	v.SetDefault("cache.memcached.servers", []string{"localhost:11211"})

	v.SetDefault("cors.enabled", false)

	v.SetDefault("log.level", "info")
}

// validateStorage requires a bucket when the S3 backend is selected.
func validateStorage(sl validator.StructLevel) {
	s := sl.Current().Interface().(StorageConfig)
	switch s.Type {
	case "filesystem":
		if s.Path == "" {
			sl.ReportError(s.Path, "Path", "Path", "required_with_filesystem", "")
		}
	case "s3":
		if s.S3.Bucket == "" {
			sl.ReportError(s.S3.Bucket, "S3.Bucket", "Bucket", "required_with_s3", "")
		}
		if s.S3.Region == "" {
			sl.ReportError(s.S3.Region, "S3.Region", "Region", "required_with_s3", "")
		}
	}
}

// validateCache requires at least one server for the memcached backend.
func validateCache(sl validator.StructLevel) {
	c := sl.Current().Interface().(CacheConfig)
	if c.Type == "memcached" && len(c.Memcached.Servers) == 0 {
		sl.ReportError(c.Memcached.Servers, "Memcached.Servers", "Servers", "required_with_memcached", "")
	}
}

// Load reads configuration and returns a validated Config struct.
// Order of precedence (highest to lowest): flags > env > config files > defaults
//
// Parameters:
//   - configFiles: list of config file paths (later files override earlier ones)
//   - flags: cobra flag set for flag binding (can be nil)
func Load(configFiles []string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	// 1. Set defaults
	setDefaults(v)

	// 2. Read config files
	if len(configFiles) > 0 {
		v.SetConfigFile(configFiles[0])
		if err := v.ReadInConfig(); err != nil {
			slog.Warn("error reading config file", "file", configFiles[0], "err", err)
		}

		for _, cf := range configFiles[1:] {
			v.SetConfigFile(cf)
			if err := v.MergeInConfig(); err != nil {
				slog.Warn("error merging config file", "file", cf, "err", err)
			}
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")

		if err := v.ReadInConfig(); err != nil {
			var configNotFound viper.ConfigFileNotFoundError
			if !errors.As(err, &configNotFound) {
				slog.Warn("error reading config file", "err", err)
			}
		}
	}

	// 3. Bind environment variables
	v.SetEnvPrefix("BUCKETGATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 4. Bind flags (if provided)
	if flags != nil {
		bindFlags(v, flags)
	}

	// 5. Unmarshal into Config struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// 6. Validate using go-playground/validator
	validate := validator.New()
	validate.RegisterStructValidation(validateStorage, StorageConfig{})
	validate.RegisterStructValidation(validateCache, CacheConfig{})
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	if err := cfg.Database.Tables.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}
