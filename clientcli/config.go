package clientcli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/samber/lo"
	"gopkg.in/yaml.v3"
)

// DefaultEndpoint is used when neither a profile, the environment nor a flag
// names a gateway.
const DefaultEndpoint = "http://localhost:8787"

// Environment variables read by the client.
const (
	EnvEndpoint   = "BUCKETGATE_ENDPOINT"
	EnvToken      = "BUCKETGATE_TOKEN"
	EnvProfile    = "BUCKETGATE_PROFILE"
	EnvConfigPath = "BUCKETGATE_CLI_CONFIG"
)

// Profile is one named gateway. Token may be empty for a download-only
// profile.
type Profile struct {
	Name     string `yaml:"name"`
	Endpoint string `yaml:"endpoint"`
	Token    string `yaml:"token,omitempty"`
	Default  bool   `yaml:"default,omitempty"`
}

// ConfigFile is the on-disk profile set.
type ConfigFile struct {
	Profiles []Profile `yaml:"profiles"`
}

func (c *ConfigFile) index(name string) int {
	_, i, ok := lo.FindIndexOf(c.Profiles, func(p Profile) bool { return p.Name == name })
	if !ok {
		return -1
	}
	return i
}

func notFound(name string) error {
	return fmt.Errorf("%w: %s", ErrProfileNotFound, name)
}

// GetProfile looks a profile up by name. An empty name selects the default.
func (c *ConfigFile) GetProfile(name string) (*Profile, error) {
	if name == "" {
		return c.GetDefaultProfile()
	}
	if len(c.Profiles) == 0 {
		return nil, ErrNoProfiles
	}

	i := c.index(name)
	if i < 0 {
		return nil, notFound(name)
	}
	return &c.Profiles[i], nil
}

// GetDefaultProfile returns the profile flagged as default, falling back to
// the first one.
func (c *ConfigFile) GetDefaultProfile() (*Profile, error) {
	if len(c.Profiles) == 0 {
		return nil, ErrNoProfiles
	}

	_, i, _ := lo.FindIndexOf(c.Profiles, func(p Profile) bool { return p.Default })
	return &c.Profiles[max(i, 0)], nil
}

func (c *ConfigFile) AddProfile(p Profile) error {
	if c.index(p.Name) >= 0 {
		return fmt.Errorf("%w: %s", ErrProfileExists, p.Name)
	}
	c.Profiles = append(c.Profiles, p)
	return nil
}

func (c *ConfigFile) UpdateProfile(p Profile) error {
	i := c.index(p.Name)
	if i < 0 {
		return notFound(p.Name)
	}
	c.Profiles[i] = p
	return nil
}

func (c *ConfigFile) RemoveProfile(name string) error {
	if c.index(name) < 0 {
		return notFound(name)
	}
	c.Profiles = lo.Reject(c.Profiles, func(p Profile, _ int) bool { return p.Name == name })
	return nil
}

// SetDefault flags name as the default and clears the flag everywhere else.
func (c *ConfigFile) SetDefault(name string) error {
	if c.index(name) < 0 {
		return notFound(name)
	}
	for i := range c.Profiles {
		c.Profiles[i].Default = c.Profiles[i].Name == name
	}
	return nil
}

func (c *ConfigFile) ProfileNames() []string {
	return lo.Map(c.Profiles, func(p Profile, _ int) string { return p.Name })
}

// Save writes the profile set as YAML. The file holds tokens, so it is
// created 0600 inside a 0700 directory.
func (c *ConfigFile) Save(path string) error {
	path = filepath.Clean(path)

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("save profiles: marshal: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("save profiles: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("save profiles: %w", err)
	}
	return nil
}

// LoadConfigFile reads a profile set. A missing file is reported with an
// error matching os.ErrNotExist.
func LoadConfigFile(path string) (*ConfigFile, error) {
	data, err := os.ReadFile(filepath.Clean(path)) //#nosec G304 -- user-chosen profile file
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &ConfigFile{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return cfg, nil
}

// DefaultConfigPath is ~/.bucketgate/config.yaml, or "" when the home
// directory is unknown.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".bucketgate", "config.yaml")
}

// Config is what a Client needs once profiles, the environment and flags
// have been merged.
type Config struct {
	Endpoint string
	Token    string
}

func (c *Config) WithDefaults() *Config {
	out := *c
	out.Endpoint = lo.Ternary(out.Endpoint == "", DefaultEndpoint, out.Endpoint)
	return &out
}

// ValidateWithAuth fails with ErrTokenRequired when no token is set. GET is
// public, so only upload and delete call it.
func (c *Config) ValidateWithAuth() error {
	if c.Token == "" {
		return ErrTokenRequired
	}
	return nil
}

func ConfigFromProfile(p *Profile) *Config {
	if p == nil {
		return &Config{}
	}
	return &Config{Endpoint: p.Endpoint, Token: p.Token}
}

func ConfigFromEnv() *Config {
	return &Config{
		Endpoint: os.Getenv(EnvEndpoint),
		Token:    os.Getenv(EnvToken),
	}
}

func ProfileFromEnv() string    { return os.Getenv(EnvProfile) }
func ConfigPathFromEnv() string { return os.Getenv(EnvConfigPath) }

// MergeConfig layers configs left to right. Empty fields never override.
func MergeConfig(configs ...*Config) *Config {
	out := &Config{}
	for _, cfg := range configs {
		if cfg == nil {
			continue
		}
		out.Endpoint = lo.Ternary(cfg.Endpoint != "", cfg.Endpoint, out.Endpoint)
		out.Token = lo.Ternary(cfg.Token != "", cfg.Token, out.Token)
	}
	return out
}
