package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values applied when fields are absent from the config file.
const (
	DefaultEndpoint = "http://localhost:3000/api/v1/cars.json"
	DefaultHTTPPort = 8080
	DefaultTitle    = "Car Collection 2024:"
	DefaultCurrency = "$"
)

// Config is the top-level configuration. Only the `viewer:` section is read;
// other sections in the same file (e.g. `catalog:`) are ignored.
type Config struct {
	Viewer ViewerConfig `yaml:"viewer"`
}

// ViewerConfig holds all viewer-side settings.
type ViewerConfig struct {
	// Source describes the collection endpoint.
	Source Source `yaml:",inline"`

	// HTTPPort is the port `viewer serve` listens on.
	HTTPPort int `yaml:"http_port"`

	// View controls how records are projected into rows.
	View ViewConfig `yaml:"view"`
}

// Source describes the remote collection endpoint.
type Source struct {
	// Endpoint is the fully-qualified URL that returns the JSON array.
	// It is requested verbatim; no path is appended.
	Endpoint string `yaml:"endpoint"`

	// Timeout bounds one request. Zero means no timeout.
	Timeout time.Duration `yaml:"timeout"`

	// Auth configures how the viewer authenticates to the endpoint.
	Auth AuthConfig `yaml:"auth"`

	// TLS holds optional TLS dial options.
	TLS TLSConfig `yaml:"tls"`
}

// AuthConfig specifies the authentication mode for the endpoint.
type AuthConfig struct {
	// Mode is one of: apikey | bearer | basic | none.
	Mode string `yaml:"mode"`

	// Header is the HTTP header carrying the key when Mode == "apikey".
	Header string `yaml:"header"`
	// KeyEnv is the name of the environment variable that holds the key value.
	KeyEnv string `yaml:"key_env"`

	// TokenEnv names the variable holding the bearer token.
	TokenEnv string `yaml:"token_env"`

	// Username is the literal basic-auth username.
	Username string `yaml:"username"`
	// PasswordEnv names the variable holding the basic-auth password.
	PasswordEnv string `yaml:"password_env"`
}

// Key returns the API key value resolved from the environment.
func (a AuthConfig) Key() string { return lookupEnv(a.KeyEnv) }

// Token returns the bearer token value resolved from the environment.
func (a AuthConfig) Token() string { return lookupEnv(a.TokenEnv) }

// Password returns the basic-auth password resolved from the environment.
func (a AuthConfig) Password() string { return lookupEnv(a.PasswordEnv) }

func lookupEnv(name string) string {
	if name == "" {
		return ""
	}
	return os.Getenv(name)
}

// TLSConfig holds TLS dial options.
type TLSConfig struct {
	// InsecureSkipVerify disables certificate verification. Development only.
	InsecureSkipVerify bool `yaml:"insecure_skip_verify"`
}

// ViewConfig controls the list projection.
type ViewConfig struct {
	Title    string      `yaml:"title"`
	Currency string      `yaml:"currency"`
	Fields   FieldConfig `yaml:"fields"`
}

// FieldConfig maps row columns to gjson paths inside each record.
type FieldConfig struct {
	Key      string `yaml:"key"`
	Name     string `yaml:"name"`
	Category string `yaml:"category"`
	Value    string `yaml:"value"`
}

// Load reads and parses the YAML config file at path.
// Missing optional fields are filled with defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read file: %w", err)
	}
	return Parse(data)
}

// LoadOrDefault behaves like Load but returns the defaults when path does not exist.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Parse decodes YAML data on top of the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}
	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// Default returns a Config pre-populated with default values.
func Default() *Config {
	return &Config{
		Viewer: ViewerConfig{
			Source:   Source{Endpoint: DefaultEndpoint},
			HTTPPort: DefaultHTTPPort,
			View: ViewConfig{
				Title:    DefaultTitle,
				Currency: DefaultCurrency,
				Fields: FieldConfig{
					Key:      "id",
					Name:     "model",
					Category: "make",
					Value:    "price",
				},
			},
		},
	}
}

// validate checks required fields and structural constraints.
func validate(cfg *Config) error {
	v := cfg.Viewer
	if v.Source.Endpoint == "" {
		return fmt.Errorf("viewer.endpoint is required")
	}
	u, err := url.Parse(v.Source.Endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("viewer.endpoint %q must be an absolute http(s) URL", v.Source.Endpoint)
	}
	if v.Source.Timeout < 0 {
		return fmt.Errorf("viewer.timeout must not be negative")
	}
	if v.HTTPPort <= 0 || v.HTTPPort > 65535 {
		return fmt.Errorf("viewer.http_port %d out of range", v.HTTPPort)
	}
	switch v.Source.Auth.Mode {
	case "apikey":
		if v.Source.Auth.Header == "" {
			return fmt.Errorf("viewer.auth.header is required for apikey mode")
		}
	case "bearer", "basic", "none", "":
	default:
		return fmt.Errorf("viewer.auth: unknown mode %q", v.Source.Auth.Mode)
	}
	if v.View.Fields.Key == "" {
		return fmt.Errorf("viewer.view.fields.key is required")
	}
	return nil
}
