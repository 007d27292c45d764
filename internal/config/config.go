// =============================================================================
// Bulk Order Composer - Configuration Module
// =============================================================================
//
// This module is responsible for loading the application configuration from a
// single YAML file (bulkorder.yaml by default).
//
// CONFIGURATION SECTIONS:
//   1. api:     Backend endpoints, timeout and authentication header
//   2. network: The carrier whose price list the session composes against
//   3. catalog: Where the price list comes from (remote or static)
//   4. session: Where the auth token and user id are read from
//   5. input:   Tabular file parsing settings
//   6. export:  Where exported files are written and how they are named
//   7. logging: Log level and destination
//
// Every section has defaults, so an empty file is a valid configuration.
//
// =============================================================================

package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/unlimiteddatagh/bulkorder/internal/types"
)

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

const (
	// EnvAPIURL overrides api.base_url.
	EnvAPIURL = "BULKORDER_API_URL"

	// EnvNetwork overrides network.
	EnvNetwork = "BULKORDER_NETWORK"
)

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// Config holds the application configuration.
type Config struct {
	// API contains the backend connection settings.
	API APIConfig `yaml:"api"`

	// Network is the carrier code for this session (MTN, TELECEL, AIRTELTIGO).
	// Default: "MTN"
	Network string `yaml:"network"`

	// Catalog selects the price list source.
	Catalog CatalogConfig `yaml:"catalog"`

	// Session locates the credentials written by the login flow.
	Session SessionConfig `yaml:"session"`

	// Input contains settings for tabular input files.
	Input InputConfig `yaml:"input"`

	// Export contains settings for exported files.
	Export ExportConfig `yaml:"export"`

	// Logging controls log verbosity and destination.
	Logging LoggingConfig `yaml:"logging"`
}

// APIConfig contains the backend connection settings.
type APIConfig struct {
	// BaseURL is the root URL of the backend API.
	// Default: "https://api.unlimiteddatagh.com"
	BaseURL string `yaml:"base_url"`

	// CatalogPath is the price list endpoint.
	// Default: "/api/v1/data/prices"
	CatalogPath string `yaml:"catalog_path"`

	// BulkOrderPath is the bulk purchase endpoint.
	// Default: "/api/v1/data/bulk-purchase"
	BulkOrderPath string `yaml:"bulk_order_path"`

	// OrderHistoryPath is the order history endpoint.
	// Default: "/api/v1/data/orders"
	OrderHistoryPath string `yaml:"order_history_path"`

	// Timeout bounds every HTTP call.
	// Default: 30s
	Timeout time.Duration `yaml:"timeout"`

	// AuthHeader is the header carrying the session token.
	// Use "Authorization" together with AuthScheme "Bearer", or a bare
	// header such as "x-auth-token" with an empty scheme.
	// Default: "Authorization"
	AuthHeader string `yaml:"auth_header"`

	// AuthScheme prefixes the token in AuthHeader.
	// Default: "Bearer" when AuthHeader is "Authorization"
	AuthScheme string `yaml:"auth_scheme"`
}

// CatalogConfig selects the price list source.
type CatalogConfig struct {
	// Source is "remote" (fetch from the API) or "static" (use Entries).
	// Default: "remote"
	Source string `yaml:"source"`

	// Entries is the static price list, used when Source is "static".
	Entries []CatalogEntryConfig `yaml:"entries"`
}

// CatalogEntryConfig is one static price list row.
type CatalogEntryConfig struct {
	// CapacityGB is the bundle size.
	CapacityGB int `yaml:"capacity_gb"`

	// Network defaults to the session network when empty.
	Network string `yaml:"network,omitempty"`

	// UnitPrice is a decimal string such as "9.20".
	UnitPrice string `yaml:"unit_price"`
}

// SessionConfig locates the credentials written by the login flow.
type SessionConfig struct {
	// File is a YAML file with "token" and "user_id" keys.
	// When empty, credentials are read from the environment.
	File string `yaml:"file"`

	// TokenEnv is the environment variable holding the token.
	// Default: "BULKORDER_TOKEN"
	TokenEnv string `yaml:"token_env"`

	// UserIDEnv is the environment variable holding the user id.
	// Default: "BULKORDER_USER_ID"
	UserIDEnv string `yaml:"user_id_env"`
}

// InputConfig contains settings for tabular input files.
type InputConfig struct {
	// Delimiter separates CSV fields. Accepts ",", ";", "|", "tab".
	// Default: ","
	Delimiter string `yaml:"delimiter"`

	// Sheet is the XLSX sheet to read. Empty means the first sheet.
	Sheet string `yaml:"sheet"`
}

// ExportConfig contains settings for exported files.
type ExportConfig struct {
	// OutputDir receives exports, error logs and summaries.
	// Default: "./exports"
	OutputDir string `yaml:"output_dir"`

	// FileNameFormat names generated files.
	// Placeholders: {kind}, {timestamp}, {date}, {uuid}, {network}
	// Default: "{kind}_{timestamp}"
	FileNameFormat string `yaml:"file_name_format"`
}

// LoggingConfig controls log verbosity and destination.
type LoggingConfig struct {
	// Level is one of "debug", "info", "warn", "error".
	// Default: "info"
	Level string `yaml:"level"`

	// File is an optional log file. Logs always go to stderr as well.
	File string `yaml:"file"`
}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// Load reads the configuration from a YAML file.
//
// PARAMETERS:
//   - configPath: The path to the configuration file. A missing file is not an
//     error; defaults are used instead.
//
// RETURNS:
//   - A pointer to the Config struct.
//   - An error if the file cannot be parsed or the result is invalid.
func Load(configPath string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	case os.IsNotExist(err):
		// Fall through to defaults.
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	applyEnvOverrides(&cfg)
	applyDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Parse builds a configuration from YAML bytes without touching the filesystem
// or the environment.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	applyDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// applyEnvOverrides replaces file values with environment values where set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv(EnvAPIURL); v != "" {
		cfg.API.BaseURL = v
	}
	if v := os.Getenv(EnvNetwork); v != "" {
		cfg.Network = v
	}
}

// applyDefaults sets default values for any unset configuration options.
func applyDefaults(cfg *Config) {
	if cfg.API.BaseURL == "" {
		cfg.API.BaseURL = "https://api.unlimiteddatagh.com"
	}
	if cfg.API.CatalogPath == "" {
		cfg.API.CatalogPath = "/api/v1/data/prices"
	}
	if cfg.API.BulkOrderPath == "" {
		cfg.API.BulkOrderPath = "/api/v1/data/bulk-purchase"
	}
	if cfg.API.OrderHistoryPath == "" {
		cfg.API.OrderHistoryPath = "/api/v1/data/orders"
	}
	if cfg.API.Timeout == 0 {
		cfg.API.Timeout = 30 * time.Second
	}
	if cfg.API.AuthHeader == "" {
		cfg.API.AuthHeader = "Authorization"
	}
	if cfg.API.AuthScheme == "" && strings.EqualFold(cfg.API.AuthHeader, "Authorization") {
		cfg.API.AuthScheme = "Bearer"
	}

	if cfg.Network == "" {
		cfg.Network = string(types.NetworkMTN)
	}

	if cfg.Catalog.Source == "" {
		cfg.Catalog.Source = "remote"
	}

	if cfg.Session.TokenEnv == "" {
		cfg.Session.TokenEnv = "BULKORDER_TOKEN"
	}
	if cfg.Session.UserIDEnv == "" {
		cfg.Session.UserIDEnv = "BULKORDER_USER_ID"
	}

	if cfg.Input.Delimiter == "" {
		cfg.Input.Delimiter = ","
	}

	if cfg.Export.OutputDir == "" {
		cfg.Export.OutputDir = "./exports"
	}
	if cfg.Export.FileNameFormat == "" {
		cfg.Export.FileNameFormat = "{kind}_{timestamp}"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}

// validate checks the configuration after defaults have been applied.
func validate(cfg *Config) error {
	u, err := url.Parse(cfg.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("api.base_url %q is not an absolute URL", cfg.API.BaseURL)
	}

	if cfg.API.Timeout < 0 {
		return fmt.Errorf("api.timeout must not be negative")
	}

	network, err := types.ParseNetwork(cfg.Network)
	if err != nil {
		return fmt.Errorf("network: %w", err)
	}
	cfg.Network = string(network)

	switch cfg.Catalog.Source {
	case "remote":
	case "static":
		if len(cfg.Catalog.Entries) == 0 {
			return fmt.Errorf("catalog.source is static but catalog.entries is empty")
		}
		for i, entry := range cfg.Catalog.Entries {
			if entry.CapacityGB <= 0 {
				return fmt.Errorf("catalog.entries[%d]: capacity_gb must be positive", i)
			}
			if _, err := decimal.NewFromString(entry.UnitPrice); err != nil {
				return fmt.Errorf("catalog.entries[%d]: unit_price %q is not a decimal", i, entry.UnitPrice)
			}
		}
	default:
		return fmt.Errorf("catalog.source must be \"remote\" or \"static\", got %q", cfg.Catalog.Source)
	}

	switch strings.ToLower(cfg.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q is not one of debug, info, warn, error", cfg.Logging.Level)
	}

	return nil
}

// SessionNetwork returns the parsed session network.
func (c *Config) SessionNetwork() types.Network {
	return types.Network(c.Network)
}
