package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"chest-rewards-api/internal/models"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig      `json:"server" toml:"server" yaml:"server"`
	Store     StoreConfig       `json:"store" toml:"store" yaml:"store"`
	Security  SecurityConfig    `json:"security" toml:"security" yaml:"security"`
	RateLimit RateLimitConfig   `json:"rate_limit" toml:"rate_limit" yaml:"rate_limit"`
	Cache     CacheConfig       `json:"cache" toml:"cache" yaml:"cache"`
	Tracing   TracingConfig     `json:"tracing" toml:"tracing" yaml:"tracing"`
	Log       LogConfig         `json:"log" toml:"log" yaml:"log"`
	Metrics   MetricsConfig     `json:"metrics" toml:"metrics" yaml:"metrics"`
	Chest     ChestConfig       `json:"chest" toml:"chest" yaml:"chest"`
	Features  FeaturesConfig    `json:"features" toml:"features" yaml:"features"`
	SeedUsers []models.SeedUser `json:"seed_users" toml:"seed_users" yaml:"seed_users"`
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Port            string `json:"port" toml:"port" yaml:"port"`
	Host            string `json:"host" toml:"host" yaml:"host"`
	EnableTLS       bool   `json:"enable_tls" toml:"enable_tls" yaml:"enable_tls"`
	CertFile        string `json:"cert_file" toml:"cert_file" yaml:"cert_file"`
	KeyFile         string `json:"key_file" toml:"key_file" yaml:"key_file"`
	ShutdownTimeout int    `json:"shutdown_timeout" toml:"shutdown_timeout" yaml:"shutdown_timeout"` // in seconds
}

// StoreConfig selects where the economy document is persisted.
type StoreConfig struct {
	Driver string `json:"driver" toml:"driver" yaml:"driver"` // file or sqlite
	Path   string `json:"path" toml:"path" yaml:"path"`
}

// SecurityConfig holds security-related configuration.
type SecurityConfig struct {
	// Max request body size in bytes (default: 1MB)
	MaxRequestBodySize int64 `json:"max_request_body_size" toml:"max_request_body_size" yaml:"max_request_body_size"`
	// Allowed CORS origins (comma-separated)
	AllowedOrigins string `json:"allowed_origins" toml:"allowed_origins" yaml:"allowed_origins"`
	// Number of resolved API tokens kept in memory
	SessionCacheSize int `json:"session_cache_size" toml:"session_cache_size" yaml:"session_cache_size"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	Enabled bool `json:"enabled" toml:"enabled" yaml:"enabled"`
	Rate    int  `json:"rate" toml:"rate" yaml:"rate"`
	Window  int  `json:"window" toml:"window" yaml:"window"` // in seconds
}

// CacheConfig configures the feed cache.
type CacheConfig struct {
	Driver        string `json:"driver" toml:"driver" yaml:"driver"` // memory or redis
	RedisAddr     string `json:"redis_addr" toml:"redis_addr" yaml:"redis_addr"`
	RedisPassword string `json:"redis_password" toml:"redis_password" yaml:"redis_password"`
	RedisDB       int    `json:"redis_db" toml:"redis_db" yaml:"redis_db"`
	FeedTTL       int    `json:"feed_ttl" toml:"feed_ttl" yaml:"feed_ttl"` // in seconds
}

// TracingConfig configures the Jaeger exporter.
type TracingConfig struct {
	Enabled     bool   `json:"enabled" toml:"enabled" yaml:"enabled"`
	Endpoint    string `json:"endpoint" toml:"endpoint" yaml:"endpoint"`
	ServiceName string `json:"service_name" toml:"service_name" yaml:"service_name"`
	Environment string `json:"environment" toml:"environment" yaml:"environment"`
}

type LogConfig struct {
	Level  string `json:"level" toml:"level" yaml:"level"`
	Format string `json:"format" toml:"format" yaml:"format"` // text or json
}

type MetricsConfig struct {
	Enabled bool   `json:"enabled" toml:"enabled" yaml:"enabled"`
	Path    string `json:"path" toml:"path" yaml:"path"`
}

// ChestConfig holds the economy defaults used for a fresh document and for
// reset-rewards.
type ChestConfig struct {
	CostTokens     int64  `json:"cost_tokens" toml:"cost_tokens" yaml:"cost_tokens"`
	JackpotMaxGems int64  `json:"jackpot_max_gems" toml:"jackpot_max_gems" yaml:"jackpot_max_gems"`
	HugeToGems     int64  `json:"huge_to_gems" toml:"huge_to_gems" yaml:"huge_to_gems"`
	TitanicToGems  int64  `json:"titanic_to_gems" toml:"titanic_to_gems" yaml:"titanic_to_gems"`
	CatalogFile    string `json:"catalog_file" toml:"catalog_file" yaml:"catalog_file"`
}

type FeaturesConfig struct {
	MultiOpen     bool `json:"multi_open" toml:"multi_open" yaml:"multi_open"`
	PetConversion bool `json:"pet_conversion" toml:"pet_conversion" yaml:"pet_conversion"`
	FeedCache     bool `json:"feed_cache" toml:"feed_cache" yaml:"feed_cache"`
	EventHooks    bool `json:"event_hooks" toml:"event_hooks" yaml:"event_hooks"`
}

// LoadConfig loads configuration from environment variables and/or config file.
// Environment variables take precedence over config file values.
func LoadConfig(configFile string) (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("SERVER_PORT", "8080"),
			Host:            getEnv("SERVER_HOST", ""),
			EnableTLS:       getEnvBool("SERVER_ENABLE_TLS", false),
			CertFile:        getEnv("SERVER_CERT_FILE", ""),
			KeyFile:         getEnv("SERVER_KEY_FILE", ""),
			ShutdownTimeout: getEnvInt("SERVER_SHUTDOWN_TIMEOUT", 15),
		},
		Store: StoreConfig{
			Driver: getEnv("STORE_DRIVER", "sqlite"),
			Path:   getEnv("STORE_PATH", "./chest_rewards.db"),
		},
		Security: SecurityConfig{
			MaxRequestBodySize: getEnvInt64("MAX_REQUEST_BODY_SIZE", 1<<20),
			AllowedOrigins:     getEnv("ALLOWED_ORIGINS", "*"),
			SessionCacheSize:   getEnvInt("SESSION_CACHE_SIZE", 1024),
		},
		RateLimit: RateLimitConfig{
			Enabled: getEnvBool("RATE_LIMIT_ENABLED", true),
			Rate:    getEnvInt("RATE_LIMIT_RATE", 100),
			Window:  getEnvInt("RATE_LIMIT_WINDOW", 60),
		},
		Cache: CacheConfig{
			Driver:        getEnv("CACHE_DRIVER", "memory"),
			RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
			RedisPassword: getEnv("REDIS_PASSWORD", ""),
			RedisDB:       getEnvInt("REDIS_DB", 0),
			FeedTTL:       getEnvInt("CACHE_FEED_TTL", 2),
		},
		Tracing: TracingConfig{
			Enabled:     getEnvBool("TRACING_ENABLED", false),
			Endpoint:    getEnv("TRACING_ENDPOINT", "http://localhost:14268/api/traces"),
			ServiceName: getEnv("TRACING_SERVICE_NAME", "chest-rewards-api"),
			Environment: getEnv("TRACING_ENVIRONMENT", "development"),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
		},
		Metrics: MetricsConfig{
			Enabled: getEnvBool("METRICS_ENABLED", true),
			Path:    getEnv("METRICS_PATH", "/metrics"),
		},
		Chest: ChestConfig{
			CostTokens:     getEnvInt64("CHEST_COST_TOKENS", 500),
			JackpotMaxGems: getEnvInt64("CHEST_JACKPOT_MAX_GEMS", 25_000_000),
			HugeToGems:     getEnvInt64("CHEST_HUGE_TO_GEMS", 8_000_000),
			TitanicToGems:  getEnvInt64("CHEST_TITANIC_TO_GEMS", 250_000_000),
			CatalogFile:    getEnv("CHEST_CATALOG_FILE", ""),
		},
		Features: FeaturesConfig{
			MultiOpen:     getEnvBool("FEATURE_MULTI_OPEN", true),
			PetConversion: getEnvBool("FEATURE_PET_CONVERSION", true),
			FeedCache:     getEnvBool("FEATURE_FEED_CACHE", true),
			EventHooks:    getEnvBool("FEATURE_EVENT_HOOKS", true),
		},
	}

	// Load from config file if provided
	if configFile != "" {
		if err := loadFromFile(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	// Override with environment variables (they take precedence)
	overrideFromEnv(cfg)

	return cfg, nil
}

// loadFromFile decodes path into cfg; the format follows the file extension.
func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return toml.Unmarshal(data, cfg)
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, cfg)
	case ".json", "":
		return json.Unmarshal(data, cfg)
	default:
		return fmt.Errorf("unsupported config format %q", filepath.Ext(path))
	}
}

// overrideFromEnv overrides configuration with environment variables.
func overrideFromEnv(cfg *Config) {
	setString("SERVER_PORT", &cfg.Server.Port)
	setString("SERVER_HOST", &cfg.Server.Host)
	setBool("SERVER_ENABLE_TLS", &cfg.Server.EnableTLS)
	setString("SERVER_CERT_FILE", &cfg.Server.CertFile)
	setString("SERVER_KEY_FILE", &cfg.Server.KeyFile)
	setInt("SERVER_SHUTDOWN_TIMEOUT", &cfg.Server.ShutdownTimeout)

	setString("STORE_DRIVER", &cfg.Store.Driver)
	setString("STORE_PATH", &cfg.Store.Path)

	setInt64("MAX_REQUEST_BODY_SIZE", &cfg.Security.MaxRequestBodySize)
	setString("ALLOWED_ORIGINS", &cfg.Security.AllowedOrigins)
	setInt("SESSION_CACHE_SIZE", &cfg.Security.SessionCacheSize)

	setBool("RATE_LIMIT_ENABLED", &cfg.RateLimit.Enabled)
	setInt("RATE_LIMIT_RATE", &cfg.RateLimit.Rate)
	setInt("RATE_LIMIT_WINDOW", &cfg.RateLimit.Window)

	setString("CACHE_DRIVER", &cfg.Cache.Driver)
	setString("REDIS_ADDR", &cfg.Cache.RedisAddr)
	setString("REDIS_PASSWORD", &cfg.Cache.RedisPassword)
	setInt("REDIS_DB", &cfg.Cache.RedisDB)
	setInt("CACHE_FEED_TTL", &cfg.Cache.FeedTTL)

	setBool("TRACING_ENABLED", &cfg.Tracing.Enabled)
	setString("TRACING_ENDPOINT", &cfg.Tracing.Endpoint)
	setString("TRACING_SERVICE_NAME", &cfg.Tracing.ServiceName)
	setString("TRACING_ENVIRONMENT", &cfg.Tracing.Environment)

	setString("LOG_LEVEL", &cfg.Log.Level)
	setString("LOG_FORMAT", &cfg.Log.Format)

	setBool("METRICS_ENABLED", &cfg.Metrics.Enabled)
	setString("METRICS_PATH", &cfg.Metrics.Path)

	setInt64("CHEST_COST_TOKENS", &cfg.Chest.CostTokens)
	setInt64("CHEST_JACKPOT_MAX_GEMS", &cfg.Chest.JackpotMaxGems)
	setInt64("CHEST_HUGE_TO_GEMS", &cfg.Chest.HugeToGems)
	setInt64("CHEST_TITANIC_TO_GEMS", &cfg.Chest.TitanicToGems)
	setString("CHEST_CATALOG_FILE", &cfg.Chest.CatalogFile)

	setBool("FEATURE_MULTI_OPEN", &cfg.Features.MultiOpen)
	setBool("FEATURE_PET_CONVERSION", &cfg.Features.PetConversion)
	setBool("FEATURE_FEED_CACHE", &cfg.Features.FeedCache)
	setBool("FEATURE_EVENT_HOOKS", &cfg.Features.EventHooks)

	// A single admin can be bootstrapped from the environment.
	if name := os.Getenv("SEED_ADMIN_USERNAME"); name != "" {
		cfg.SeedUsers = append(cfg.SeedUsers, models.SeedUser{
			Username:   name,
			Token:      os.Getenv("SEED_ADMIN_TOKEN"),
			AdminLevel: models.AdminSuper,
			Tokens:     getEnvInt64("SEED_ADMIN_TOKENS", 0),
		})
	}
}

// getEnv gets an environment variable or returns the default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable or returns the default value.
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt gets an integer environment variable or returns the default value.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

// getEnvInt64 gets an int64 environment variable or returns the default value.
func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			return i
		}
	}
	return defaultValue
}

func setString(key string, dst *string) { *dst = getEnv(key, *dst) }

func setBool(key string, dst *bool) { *dst = getEnvBool(key, *dst) }

func setInt(key string, dst *int) { *dst = getEnvInt(key, *dst) }

func setInt64(key string, dst *int64) { *dst = getEnvInt64(key, *dst) }

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Server.EnableTLS && (c.Server.CertFile == "" || c.Server.KeyFile == "") {
		return fmt.Errorf("tls requires cert_file and key_file")
	}
	switch c.Store.Driver {
	case "file", "sqlite":
	default:
		return fmt.Errorf("store driver must be file or sqlite, got %q", c.Store.Driver)
	}
	if c.Store.Path == "" {
		return fmt.Errorf("store path is required")
	}
	if c.RateLimit.Enabled {
		if c.RateLimit.Rate <= 0 {
			return fmt.Errorf("rate limit rate must be positive")
		}
		if c.RateLimit.Window <= 0 {
			return fmt.Errorf("rate limit window must be positive")
		}
	}
	switch c.Cache.Driver {
	case "memory", "redis":
	default:
		return fmt.Errorf("cache driver must be memory or redis, got %q", c.Cache.Driver)
	}
	if c.Cache.Driver == "redis" && c.Cache.RedisAddr == "" {
		return fmt.Errorf("redis address is required")
	}
	if c.Tracing.Enabled && c.Tracing.Endpoint == "" {
		return fmt.Errorf("tracing endpoint is required when tracing is enabled")
	}
	if c.Chest.CostTokens <= 0 {
		return fmt.Errorf("chest cost must be positive")
	}
	if c.Chest.JackpotMaxGems <= 0 {
		return fmt.Errorf("chest jackpot ceiling must be positive")
	}
	if c.Chest.HugeToGems < 0 || c.Chest.TitanicToGems < 0 {
		return fmt.Errorf("pet values must not be negative")
	}
	seen := make(map[string]bool)
	for i, u := range c.SeedUsers {
		if u.Username == "" {
			return fmt.Errorf("seed_users[%d]: username is required", i)
		}
		if seen[u.Username] {
			return fmt.Errorf("seed_users[%d]: duplicate username %q", i, u.Username)
		}
		seen[u.Username] = true
		switch u.AdminLevel {
		case "", models.AdminNone, models.AdminTeam, models.AdminSuper:
		default:
			return fmt.Errorf("seed_users[%d]: unknown admin level %q", i, u.AdminLevel)
		}
	}
	return nil
}

// AllowedOrigins splits the comma-separated CORS origins.
func (c *Config) AllowedOrigins() []string {
	var out []string
	for _, o := range strings.Split(c.Security.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
