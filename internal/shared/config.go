package shared

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

const (
	EnvStorage      = "SHELF_STORAGE"
	EnvStoragePath  = "SHELF_STORAGE_PATH"
	EnvStorageURL   = "SHELF_STORAGE_URL"
	EnvDatabase     = "SHELF_DATABASE"
	EnvCatalogKey   = "SHELF_CATALOG_API_KEY"
	EnvLogLevel     = "SHELF_LOG_LEVEL"
	MaxCatalogPage  = 40
	DefaultPageSize = 20
)

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Storage         StorageConfig         `toml:"storage"`
	Catalog         CatalogConfig         `toml:"catalog"`
	Recommendations RecommendationsConfig `toml:"recommendations"`
	Feeds           FeedsConfig           `toml:"feeds"`
	Server          ServerConfig          `toml:"server"`
	Log             LogConfig             `toml:"log"`
}

// StorageConfig selects and configures the persistence backend.
type StorageConfig struct {
	Backend  string `toml:"backend"`
	Path     string `toml:"path"`
	URL      string `toml:"url"`
	Database string `toml:"database"`
}

// CatalogConfig contains book catalog client settings.
type CatalogConfig struct {
	BaseURL        string  `toml:"base_url"`
	APIKey         string  `toml:"api_key"`
	MaxResults     int     `toml:"max_results"`
	RateLimit      float64 `toml:"rate_limit"`
	MaxRetries     int     `toml:"max_retries"`
	TimeoutSeconds int     `toml:"timeout_seconds"`
}

// RecommendationsConfig contains aggregator defaults.
type RecommendationsConfig struct {
	Days     int `toml:"days"`
	PageSize int `toml:"page_size"`
	Workers  int `toml:"workers"`
}

// FeedsConfig contains author feed settings.
type FeedsConfig struct {
	RelayURL       string `toml:"relay_url"`
	ItemsPerAuthor int    `toml:"items_per_author"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host      string `toml:"host"`
	Port      int    `toml:"port"`
	MaxBodyMB int    `toml:"max_body_mb"`
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level string `toml:"level"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Values missing from the file keep the embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %w", ErrInvalidConfig, err)
	}

	config.normalize()
	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ApplyEnv loads the given .env files (missing files are ignored) and
// overrides config values from SHELF_* environment variables.
func (c *Config) ApplyEnv(files ...string) {
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			_ = godotenv.Load(f)
		}
	}

	override := func(dst *string, key string) {
		if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}

	override(&c.Storage.Backend, EnvStorage)
	override(&c.Storage.Path, EnvStoragePath)
	override(&c.Storage.URL, EnvStorageURL)
	override(&c.Storage.Database, EnvDatabase)
	override(&c.Catalog.APIKey, EnvCatalogKey)
	override(&c.Log.Level, EnvLogLevel)
	c.normalize()
}

// Addr returns the host:port pair the server listens on.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func (c *Config) normalize() {
	c.Storage.Backend = strings.ToLower(strings.TrimSpace(c.Storage.Backend))
	if c.Catalog.MaxResults <= 0 {
		c.Catalog.MaxResults = DefaultPageSize
	}
	if c.Catalog.MaxResults > MaxCatalogPage {
		c.Catalog.MaxResults = MaxCatalogPage
	}
	if c.Recommendations.Days <= 0 {
		c.Recommendations.Days = 365
	}
	if c.Recommendations.PageSize <= 0 {
		c.Recommendations.PageSize = 5
	}
	if c.Recommendations.Workers <= 0 {
		c.Recommendations.Workers = 4
	}
	if c.Feeds.ItemsPerAuthor <= 0 {
		c.Feeds.ItemsPerAuthor = 3
	}
	if c.Server.MaxBodyMB <= 0 {
		c.Server.MaxBodyMB = 50
	}
}
