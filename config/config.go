package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/roomscout/backend/internal/domain"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Search    SearchConfig
	Vision    VisionConfig
	Pipeline  PipelineConfig
	Cache     CacheConfig
	RateLimit RateLimitConfig
	Storage   StorageConfig
	Log       LogConfig
	Stores    []domain.StoreEntry // replaces the built-in store table when set
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	UploadsDir     string   `mapstructure:"uploads_dir"`
	MaxUploadMB    int      `mapstructure:"max_upload_mb"`
}

// SearchConfig holds BrightData configuration
type SearchConfig struct {
	APIKey              string        `mapstructure:"api_key"`
	Zone                string        `mapstructure:"zone"`
	BaseURL             string        `mapstructure:"base_url"`
	Country             string        `mapstructure:"country"`
	Language            string        `mapstructure:"language"`
	Timeout             time.Duration `mapstructure:"timeout"`
	FetchTimeout        time.Duration `mapstructure:"fetch_timeout"`
	DirectFetchFallback bool          `mapstructure:"direct_fetch_fallback"`
}

// VisionConfig holds configuration for the image analysis model
type VisionConfig struct {
	APIKey    string `mapstructure:"api_key"`
	BaseURL   string `mapstructure:"base_url"`
	Model     string `mapstructure:"model"`
	MaxTokens int    `mapstructure:"max_tokens"`
}

// PipelineConfig holds candidate pipeline and worker pool settings
type PipelineConfig struct {
	PrimaryCap         int           `mapstructure:"primary_cap"`
	RegionalCap        int           `mapstructure:"regional_cap"`
	PrimaryKeywords    int           `mapstructure:"primary_keywords"`
	RegionalKeywords   int           `mapstructure:"regional_keywords"`
	PrimaryQualifiers  []string      `mapstructure:"primary_qualifiers"`
	RegionalQualifiers []string      `mapstructure:"regional_qualifiers"`
	MinWordOverlap     int           `mapstructure:"min_word_overlap"`
	QueryInterval      time.Duration `mapstructure:"query_interval"`
	MaxRetries         int           `mapstructure:"max_retries"`
	RetryBackoff       time.Duration `mapstructure:"retry_backoff"`
	Workers            int           `mapstructure:"workers"`
	BatchTimeout       time.Duration `mapstructure:"batch_timeout"`
	EnrichInterval     time.Duration `mapstructure:"enrich_interval"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	Type     string        `mapstructure:"type"` // "memory" or "redis"
	RedisURL string        `mapstructure:"redis_url"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP float64 `mapstructure:"per_ip"` // requests per second per client
}

// StorageConfig holds session storage configuration
type StorageConfig struct {
	SQLitePath string `mapstructure:"sqlite_path"`
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/roomscout/")

	// ROOMSCOUT_SEARCH_API_KEY -> search.api_key
	v.SetEnvPrefix("ROOMSCOUT")
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

// loadEnvFile loads .env from the working directory when present. Variables
// already set in the environment win.
func loadEnvFile() error {
	err := godotenv.Load()
	if err != nil && errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// setDefaults sets default configuration values. Every key needs a default
// so AutomaticEnv can override it during Unmarshal.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"chrome-extension://*", "http://localhost:*"})
	v.SetDefault("server.uploads_dir", "uploads")
	v.SetDefault("server.max_upload_mb", 10)

	// Search defaults
	v.SetDefault("search.api_key", "")
	v.SetDefault("search.zone", "serp_api1")
	v.SetDefault("search.base_url", "https://api.brightdata.com/request")
	v.SetDefault("search.country", "kw")
	v.SetDefault("search.language", "en")
	v.SetDefault("search.timeout", "45s")
	v.SetDefault("search.fetch_timeout", "20s")
	v.SetDefault("search.direct_fetch_fallback", true)

	// Vision defaults
	v.SetDefault("vision.api_key", "")
	v.SetDefault("vision.base_url", "https://api.openai.com/v1")
	v.SetDefault("vision.model", "gpt-4o")
	v.SetDefault("vision.max_tokens", 1500)

	// Pipeline defaults
	v.SetDefault("pipeline.primary_cap", 3)
	v.SetDefault("pipeline.regional_cap", 5)
	v.SetDefault("pipeline.primary_keywords", 3)
	v.SetDefault("pipeline.regional_keywords", 1)
	v.SetDefault("pipeline.primary_qualifiers", []string{"Kuwait"})
	v.SetDefault("pipeline.regional_qualifiers", []string{"UAE", "Amazon UAE"})
	v.SetDefault("pipeline.min_word_overlap", 1)
	v.SetDefault("pipeline.query_interval", "1s")
	v.SetDefault("pipeline.max_retries", 2)
	v.SetDefault("pipeline.retry_backoff", "500ms")
	v.SetDefault("pipeline.workers", 2)
	v.SetDefault("pipeline.batch_timeout", "5m")
	v.SetDefault("pipeline.enrich_interval", "1500ms")

	// Cache defaults
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.ttl", "168h") // 7 days

	// Rate limit defaults
	v.SetDefault("ratelimit.per_ip", 2)

	v.SetDefault("storage.sqlite_path", "data/roomscout.db")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}

	if config.Server.MaxUploadMB <= 0 {
		return fmt.Errorf("max upload size must be positive, got: %d", config.Server.MaxUploadMB)
	}

	if config.Cache.Type != "memory" && config.Cache.Type != "redis" {
		return fmt.Errorf("cache type must be 'memory' or 'redis', got: %s", config.Cache.Type)
	}

	if config.Cache.Type == "redis" && config.Cache.RedisURL == "" {
		return fmt.Errorf("Redis URL is required when cache type is 'redis'")
	}

	if config.Pipeline.Workers <= 0 {
		return fmt.Errorf("pipeline workers must be positive, got: %d", config.Pipeline.Workers)
	}

	if config.Pipeline.MaxRetries < 0 {
		return fmt.Errorf("pipeline max retries cannot be negative, got: %d", config.Pipeline.MaxRetries)
	}

	if config.Storage.SQLitePath == "" {
		return fmt.Errorf("sqlite path is required (set ROOMSCOUT_STORAGE_SQLITE_PATH)")
	}

	for i, store := range config.Stores {
		if store.DisplayName == "" || store.DomainSubstring == "" {
			return fmt.Errorf("store %d needs display_name and domain", i)
		}
		if _, ok := domain.ParseRegionTier(string(store.Tier)); !ok {
			return fmt.Errorf("store %q has unknown tier %q", store.DisplayName, store.Tier)
		}
	}

	return nil
}

// SearchConfigured reports whether search credentials are present
func (c *Config) SearchConfigured() bool {
	return c.Search.APIKey != "" && c.Search.Zone != ""
}

// VisionConfigured reports whether the vision model has credentials
func (c *Config) VisionConfigured() bool {
	return c.Vision.APIKey != ""
}

// IsProduction reports whether the server runs in production mode
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}
