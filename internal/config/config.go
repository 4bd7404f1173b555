package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kuaixun/fusearch/internal/milvus"
	"github.com/kuaixun/fusearch/internal/redis"
)

// Config holds the fusearch configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Milvus    milvus.Config   `yaml:"milvus"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Concept   ConceptConfig   `yaml:"concept"`
	Job       JobConfig       `yaml:"job"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// EmbeddingConfig holds the embedding service and cache settings.
type EmbeddingConfig struct {
	Endpoint   string      `yaml:"endpoint"`
	Dimensions int         `yaml:"dimensions"`
	TimeoutSec int         `yaml:"timeout_sec"`
	Cache      CacheConfig `yaml:"cache"`
}

// CacheConfig holds the optional embedding cache settings.
type CacheConfig struct {
	Enabled bool         `yaml:"enabled"`
	Redis   redis.Config `yaml:",inline"`
}

// ConceptConfig holds the concept retrieval and refresh settings.
type ConceptConfig struct {
	Database    string     `yaml:"database"`
	Collection  string     `yaml:"collection"`
	TopK        int        `yaml:"top_k"`
	RefreshHour int        `yaml:"refresh_hour"`
	BatchSize   int        `yaml:"batch_size"`
	Feed        FeedConfig `yaml:"feed"`
}

// FeedConfig holds the upstream concept feed settings.
type FeedConfig struct {
	Endpoint   string `yaml:"endpoint"`
	Token      string `yaml:"token"`
	TimeoutSec int    `yaml:"timeout_sec"`
}

// JobConfig holds the job retrieval settings.
type JobConfig struct {
	Database   string `yaml:"database"`
	Collection string `yaml:"collection"`
	BatchSize  int    `yaml:"batch_size"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
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

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
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
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Embedding.Dimensions <= 0 {
		c.Embedding.Dimensions = 1024
	}
	if c.Embedding.TimeoutSec <= 0 {
		c.Embedding.TimeoutSec = 30
	}
	if c.Concept.Database == "" {
		c.Concept.Database = "flashnews"
	}
	if c.Concept.Collection == "" {
		c.Concept.Collection = "stock_concepts"
	}
	if c.Concept.TopK <= 0 {
		c.Concept.TopK = 5
	}
	if c.Concept.RefreshHour < 0 || c.Concept.RefreshHour > 23 {
		c.Concept.RefreshHour = 18
	}
	if c.Concept.BatchSize <= 0 {
		c.Concept.BatchSize = 50
	}
	if c.Concept.Feed.TimeoutSec <= 0 {
		c.Concept.Feed.TimeoutSec = 10
	}
	if c.Job.Database == "" {
		c.Job.Database = c.Concept.Database
	}
	if c.Job.Collection == "" {
		c.Job.Collection = "job_requirements"
	}
	if c.Job.BatchSize <= 0 {
		c.Job.BatchSize = 50
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.Milvus.Address == "" {
		return fmt.Errorf("milvus.address is required")
	}
	if c.Embedding.Endpoint == "" {
		return fmt.Errorf("embedding.endpoint is required")
	}
	if c.Embedding.Cache.Enabled && len(c.Embedding.Cache.Redis.Addrs) == 0 {
		return fmt.Errorf("embedding.cache.addrs is required when the cache is enabled")
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
