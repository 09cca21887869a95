package internal

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/notedex/internal/search"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App    ApplicationConfig `yaml:"app" toml:"app"`
	Search SearchConfig      `yaml:"search" toml:"search"`
	Ledger LedgerConfig      `yaml:"ledger" toml:"ledger"`
	Ingest IngestConfig      `yaml:"ingest" toml:"ingest"`
	Notes  NotesConfig       `yaml:"notes" toml:"notes"`
	Auth   AuthConfig        `yaml:"auth" toml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Search.Validate(); err != nil {
		return err
	}
	if err := c.Ingest.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level" toml:"log_level"`
	HTTP     HTTPConfig `yaml:"http" toml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port" toml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// SearchConfig selects and addresses the search service.
type SearchConfig struct {
	Backend string        `yaml:"backend" toml:"backend"`
	URL     string        `yaml:"url" toml:"url"`
	Index   string        `yaml:"index" toml:"index"`
	APIKey  string        `yaml:"api_key" toml:"api_key"`
	Timeout time.Duration `yaml:"timeout" toml:"timeout"`
}

// Validate validates the search configuration.
func (c *SearchConfig) Validate() error {
	c.Backend = strings.ToLower(c.Backend)
	return validation.ValidateStruct(c,
		validation.Field(&c.Backend, validation.In(search.BackendMeili, "meili", search.BackendElastic, "elastic")),
		validation.Field(&c.Timeout, validation.Min(time.Duration(0))),
	)
}

// Client returns the search client settings.
func (c *SearchConfig) Client() search.Config {
	return search.Config{
		Backend: c.Backend,
		URL:     c.URL,
		Index:   c.Index,
		APIKey:  c.APIKey,
		Timeout: c.Timeout,
	}
}

// LedgerConfig holds the submission ledger location. An empty path
// disables the ledger.
type LedgerConfig struct {
	Path string `yaml:"path" toml:"path"`
}

// IngestConfig controls note discovery and submission.
type IngestConfig struct {
	Workers     int      `yaml:"workers" toml:"workers"`
	Include     []string `yaml:"include" toml:"include"`
	Exclude     []string `yaml:"exclude" toml:"exclude"`
	Patterns    []string `yaml:"patterns" toml:"patterns"`
	Watch       bool     `yaml:"watch" toml:"watch"`
	Legacy      bool     `yaml:"legacy" toml:"legacy"`
	ChangedOnly bool     `yaml:"changed_only" toml:"changed_only"`
}

// Validate validates the ingest configuration.
func (c *IngestConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Workers, validation.Min(0)),
		validation.Field(&c.Patterns, validation.When(c.Watch, validation.Required.Error("required when watch is enabled"))),
	)
}

// NotesConfig holds the directory converted notes are written to. An
// empty path disables saving.
type NotesConfig struct {
	Path string `yaml:"path" toml:"path"`
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local use.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode" toml:"mode"`
	Token string `yaml:"token" toml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Search: SearchConfig{
			Backend: search.BackendMeili,
			Index:   search.DefaultIndex,
			Timeout: search.DefaultTimeout,
		},
		Ledger: LedgerConfig{
			Path: "./notedex.db",
		},
		Ingest: IngestConfig{
			Workers:     4,
			ChangedOnly: true,
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
