package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Default values for the catalog configuration.
const (
	DefaultHTTPPort = 3000
	DefaultDatabase = "catalog.db"
	DefaultHeader   = "X-Api-Key"
)

// Config holds the catalog configuration parsed from the `catalog:` section.
type Config struct {
	Catalog CatalogConfig `yaml:"catalog"`
}

// CatalogConfig holds all catalog service settings.
type CatalogConfig struct {
	// HTTPPort is the port the REST API listens on (default 3000).
	HTTPPort int `yaml:"http_port"`

	// Database is the SQLite file path. ":memory:" keeps everything in RAM.
	Database string `yaml:"database"`

	// SeedFile is an optional YAML or JSON list of cars inserted at startup
	// when the table is empty.
	SeedFile string `yaml:"seed_file"`

	// Auth guards write endpoints.
	Auth AuthConfig `yaml:"auth"`
}

// AuthConfig controls client authentication.
type AuthConfig struct {
	// Mode is one of: apikey | none.
	Mode string `yaml:"mode"`

	// Header is the HTTP header to read the key from. Defaults to X-Api-Key.
	Header string `yaml:"header"`

	// KeyEnv is the name of the environment variable that holds the expected key.
	KeyEnv string `yaml:"key_env"`
}

// Key returns the expected API key resolved from the environment.
func (a AuthConfig) Key() string {
	if a.KeyEnv == "" {
		return ""
	}
	return os.Getenv(a.KeyEnv)
}

// EffectiveHeader returns the configured header name, or DefaultHeader.
func (a AuthConfig) EffectiveHeader() string {
	if a.Header != "" {
		return a.Header
	}
	return DefaultHeader
}

// Load reads and parses the config file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog config: read %q: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("catalog config: parse yaml: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("catalog config: %w", err)
	}
	return cfg, nil
}

// LoadOrDefault is Load, except that a missing file yields Default().
func LoadOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Default(), nil
	}
	return Load(path)
}

// Default returns a Config populated with default values.
func Default() *Config {
	return &Config{
		Catalog: CatalogConfig{
			HTTPPort: DefaultHTTPPort,
			Database: DefaultDatabase,
		},
	}
}

func validate(cfg *Config) error {
	c := cfg.Catalog
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		return fmt.Errorf("catalog.http_port %d is out of range [1, 65535]", c.HTTPPort)
	}
	if c.Database == "" {
		return fmt.Errorf("catalog.database is required")
	}
	switch c.Auth.Mode {
	case "apikey", "none", "":
	default:
		return fmt.Errorf("catalog.auth.mode %q unknown: want apikey|none", c.Auth.Mode)
	}
	if c.Auth.Mode == "apikey" && c.Auth.KeyEnv == "" {
		return fmt.Errorf("catalog.auth.key_env is required when mode is apikey")
	}
	return nil
}
