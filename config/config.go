package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/lshcatalog/viewer/internal/domain"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server     ServerConfig
	Catalog    CatalogConfig
	Session    SessionConfig
	Pagination PaginationConfig
	Similarity SimilarityConfig
	Log        LogConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// CatalogConfig holds configuration of the remote catalog and similarity service
type CatalogConfig struct {
	BaseURL           string        `mapstructure:"base_url"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	Burst             int           `mapstructure:"burst"`
}

// SessionConfig holds viewer session configuration
type SessionConfig struct {
	TTL             time.Duration `mapstructure:"ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
	CookieName      string        `mapstructure:"cookie_name"`
}

// PaginationConfig holds gallery paging configuration
type PaginationConfig struct {
	PerPage    int `mapstructure:"per_page"`
	MaxPerPage int `mapstructure:"max_per_page"`
}

// SimilarityConfig holds defaults of the similarity controls
type SimilarityConfig struct {
	DefaultMethod string `mapstructure:"default_method"`
	DefaultK      int    `mapstructure:"default_k"`
	MaxK          int    `mapstructure:"max_k"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"` // empty logs to console only
}

// IsProduction reports whether the server runs in production mode
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/lshcatalog/")

	// Environment variable settings
	v.SetEnvPrefix("LSHCATALOG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:5173", "http://localhost:3000"})

	// Catalog service defaults
	v.SetDefault("catalog.base_url", "http://127.0.0.1:5000")
	v.SetDefault("catalog.timeout", "30s")
	v.SetDefault("catalog.requests_per_second", 5)
	v.SetDefault("catalog.burst", 10)

	// Session defaults
	v.SetDefault("session.ttl", "1h")
	v.SetDefault("session.cleanup_interval", "10m")
	v.SetDefault("session.cookie_name", "catalog_session")

	// Pagination defaults
	v.SetDefault("pagination.per_page", 50)
	v.SetDefault("pagination.max_per_page", 200)

	// Similarity defaults
	v.SetDefault("similarity.default_method", "pst")
	v.SetDefault("similarity.default_k", 5)
	v.SetDefault("similarity.max_k", 50)

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Catalog.BaseURL == "" {
		return fmt.Errorf("catalog base URL is required (set LSHCATALOG_CATALOG_BASE_URL)")
	}

	if config.Pagination.PerPage < 1 {
		return fmt.Errorf("pagination per_page must be positive, got: %d", config.Pagination.PerPage)
	}

	if config.Pagination.MaxPerPage < config.Pagination.PerPage {
		return fmt.Errorf("pagination max_per_page (%d) must be at least per_page (%d)",
			config.Pagination.MaxPerPage, config.Pagination.PerPage)
	}

	if _, err := domain.ParseMethod(config.Similarity.DefaultMethod); err != nil {
		return fmt.Errorf("similarity default_method: %w", err)
	}

	if config.Similarity.MaxK < 1 {
		return fmt.Errorf("similarity max_k must be positive, got: %d", config.Similarity.MaxK)
	}

	if config.Similarity.DefaultK < 1 || config.Similarity.DefaultK > config.Similarity.MaxK {
		return fmt.Errorf("similarity default_k must be between 1 and %d, got: %d",
			config.Similarity.MaxK, config.Similarity.DefaultK)
	}

	if config.Session.TTL <= 0 {
		return fmt.Errorf("session ttl must be positive, got: %s", config.Session.TTL)
	}

	if config.Session.CookieName == "" {
		return fmt.Errorf("session cookie_name is required")
	}

	return nil
}
