package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Catalog source kinds.
const (
	SourceCSV      = "csv"
	SourceRedis    = "redis"
	SourceSQLite   = "sqlite"
	SourceSnapshot = "snapshot"
)

// Config holds the animedex API configuration.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	CORS       CORSConfig       `yaml:"cors"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit"`
	Auth       AuthConfig       `yaml:"auth"`
	Catalog    CatalogConfig    `yaml:"catalog"`
	Vectorizer VectorizerConfig `yaml:"vectorizer"`
	Discover   DiscoverConfig   `yaml:"discover"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds admin API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"` // empty disables /admin routes
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// CORSConfig lists browser origins allowed to call the API.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// RateLimitConfig limits /discover requests per client IP.
type RateLimitConfig struct {
	Requests  int `yaml:"requests"` // 0 disables the limiter
	WindowSec int `yaml:"window_sec"`
}

// CatalogConfig selects where the corpus is loaded from.
type CatalogConfig struct {
	Source   string         `yaml:"source"` // csv, redis, sqlite, snapshot
	CSV      CSVConfig      `yaml:"csv"`
	Redis    RedisConfig    `yaml:"redis"`
	SQLite   SQLiteConfig   `yaml:"sqlite"`
	Snapshot SnapshotConfig `yaml:"snapshot"`
}

// CSVConfig points at catalog CSV files.
type CSVConfig struct {
	Path string `yaml:"path"` // file path or doublestar glob
}

// RedisConfig holds Redis/Valkey connection settings.
type RedisConfig struct {
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	KeyPrefix        string   `yaml:"key_prefix"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// SQLiteConfig holds the SQLite catalog location.
type SQLiteConfig struct {
	DSN   string `yaml:"dsn"`
	Table string `yaml:"table"`
}

// SnapshotConfig holds the trained model file path.
type SnapshotConfig struct {
	Path string `yaml:"path"`
	// Save writes every freshly ingested corpus back to Path.
	Save bool `yaml:"save"`
}

// VectorizerConfig holds TF-IDF settings.
type VectorizerConfig struct {
	MinDocFreq  int  `yaml:"min_doc_freq"`
	MaxFeatures int  `yaml:"max_features"` // 0 = unlimited
	Bigrams     bool `yaml:"bigrams"`
}

// DiscoverConfig holds discovery engine settings.
type DiscoverConfig struct {
	QueryCacheSize int `yaml:"query_cache_size"` // 0 disables the cache
	Workers        int `yaml:"workers"`          // 0 = GOMAXPROCS
	ChunkSize      int `yaml:"chunk_size"`
}

// Load reads configuration from a YAML file by environment name (local, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse decodes YAML, expands ${VAR} references, applies defaults and validates.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 8000
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if len(c.CORS.AllowedOrigins) == 0 {
		c.CORS.AllowedOrigins = []string{"http://localhost:5173", "http://localhost:3000"}
	}
	if c.RateLimit.WindowSec <= 0 {
		c.RateLimit.WindowSec = 60
	}
	if c.Catalog.Source == "" {
		c.Catalog.Source = SourceCSV
	}
	if c.Catalog.CSV.Path == "" {
		c.Catalog.CSV.Path = "data/anime.csv"
	}
	if c.Catalog.Redis.KeyPrefix == "" {
		c.Catalog.Redis.KeyPrefix = "anime:"
	}
	if c.Catalog.Redis.ReadinessTimeout <= 0 {
		c.Catalog.Redis.ReadinessTimeout = 10
	}
	if c.Catalog.SQLite.Table == "" {
		c.Catalog.SQLite.Table = "anime"
	}
	if c.Vectorizer.MinDocFreq <= 0 {
		c.Vectorizer.MinDocFreq = 1
	}
	if c.Discover.ChunkSize <= 0 {
		c.Discover.ChunkSize = 2048
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.RateLimit.Requests < 0 {
		return fmt.Errorf("rate_limit.requests must not be negative, got %d", c.RateLimit.Requests)
	}
	if c.Vectorizer.MaxFeatures < 0 {
		return fmt.Errorf("vectorizer.max_features must not be negative, got %d", c.Vectorizer.MaxFeatures)
	}
	if c.Discover.QueryCacheSize < 0 {
		return fmt.Errorf("discover.query_cache_size must not be negative, got %d", c.Discover.QueryCacheSize)
	}

	switch c.Catalog.Source {
	case SourceCSV:
		// path has a default
	case SourceRedis:
		if len(c.Catalog.Redis.Addrs) == 0 {
			return fmt.Errorf("catalog.redis.addrs is required for source %q", SourceRedis)
		}
	case SourceSQLite:
		if c.Catalog.SQLite.DSN == "" {
			return fmt.Errorf("catalog.sqlite.dsn is required for source %q", SourceSQLite)
		}
	case SourceSnapshot:
		if c.Catalog.Snapshot.Path == "" {
			return fmt.Errorf("catalog.snapshot.path is required for source %q", SourceSnapshot)
		}
	default:
		return fmt.Errorf("catalog.source must be one of csv, redis, sqlite, snapshot, got %q", c.Catalog.Source)
	}

	if c.Catalog.Snapshot.Save && c.Catalog.Snapshot.Path == "" {
		return fmt.Errorf("catalog.snapshot.path is required when catalog.snapshot.save is set")
	}
	if c.Catalog.Snapshot.Save && c.Catalog.Source == SourceSnapshot {
		return fmt.Errorf("catalog.snapshot.save cannot be combined with source %q", SourceSnapshot)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
