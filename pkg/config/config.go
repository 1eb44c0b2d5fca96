// Package config loads the matcher configuration from an optional YAML file,
// an optional .env file and MATCHER_* environment overrides. Every field has
// a default, so a run with no configuration at all behaves as a plain
// products × listings → result.jsonl pass.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath is where the CLI looks for a config file. A missing file is
// not an error.
const DefaultPath = "configs/matcher.yaml"

// Config is the top-level application configuration.
type Config struct {
	Output     OutputConfig     `yaml:"output"`
	Matching   MatchingConfig   `yaml:"matching"`
	Logging    LoggingConfig    `yaml:"logging"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Sinks      SinksConfig      `yaml:"sinks"`
	Resilience ResilienceConfig `yaml:"resilience"`
}

// OutputConfig controls the line-delimited JSON result file.
type OutputConfig struct {
	Path     string `yaml:"path"`
	Truncate bool   `yaml:"truncate"`
}

// MatchingConfig controls the matching pass. Workers above 1 evaluates
// product queries concurrently; results are still committed in input order.
type MatchingConfig struct {
	Workers           int `yaml:"workers"`
	MaxHitsPerProduct int `yaml:"maxHitsPerProduct"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls the Prometheus metrics server.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// SinksConfig lists the optional match sinks besides the result file.
type SinksConfig struct {
	SQL   SQLConfig   `yaml:"sql"`
	Kafka KafkaConfig `yaml:"kafka"`
	Redis RedisConfig `yaml:"redis"`
}

// SQLConfig holds the relational sink settings. Driver is one of postgres,
// mysql or sqlite3.
type SQLConfig struct {
	Enabled         bool          `yaml:"enabled"`
	Driver          string        `yaml:"driver"`
	DSN             string        `yaml:"dsn"`
	Table           string        `yaml:"table"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
}

// KafkaConfig holds Kafka broker and topic settings.
type KafkaConfig struct {
	Enabled bool     `yaml:"enabled"`
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// RedisConfig holds Redis connection and key expiry settings.
type RedisConfig struct {
	Enabled   bool          `yaml:"enabled"`
	Addr      string        `yaml:"addr"`
	Password  string        `yaml:"password"`
	DB        int           `yaml:"db"`
	PoolSize  int           `yaml:"poolSize"`
	KeyPrefix string        `yaml:"keyPrefix"`
	TTL       time.Duration `yaml:"ttl"`
}

// ResilienceConfig controls retries, circuit breaking and per-write
// timeouts on the remote sinks.
type ResilienceConfig struct {
	MaxAttempts      int           `yaml:"maxAttempts"`
	InitialDelay     time.Duration `yaml:"initialDelay"`
	WriteTimeout     time.Duration `yaml:"writeTimeout"`
	FailureThreshold int           `yaml:"failureThreshold"`
	ResetTimeout     time.Duration `yaml:"resetTimeout"`
}

// Load reads a YAML config file (if path is non-empty and the file exists),
// then .env, then MATCHER_* environment overrides. It never fails: a stage
// that cannot be read is skipped and its error returned as a warning, and a
// result that does not validate is replaced by the defaults.
func Load(path string) (*Config, []error) {
	var warnings []error
	cfg, err := readFile(path)
	if err != nil {
		warnings = append(warnings, err)
		cfg = defaultConfig()
	}
	if err := loadDotEnv(); err != nil {
		warnings = append(warnings, err)
	}
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		warnings = append(warnings, fmt.Errorf("%w; using defaults", err))
		cfg = defaultConfig()
	}
	return cfg, warnings
}

func readFile(path string) (*Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return cfg, nil
	case err != nil:
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return cfg, nil
}

func loadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}
	return nil
}

func defaultConfig() *Config {
	return &Config{
		Output: OutputConfig{
			Path:     "result.jsonl",
			Truncate: true,
		},
		Matching: MatchingConfig{
			Workers:           1,
			MaxHitsPerProduct: 1000000,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Port:    9090,
		},
		Sinks: SinksConfig{
			SQL: SQLConfig{
				Driver:          "postgres",
				DSN:             "host=localhost port=5432 user=matcher password=localdev dbname=matcher sslmode=disable",
				Table:           "product_matches",
				MaxOpenConns:    5,
				MaxIdleConns:    2,
				ConnMaxLifetime: 5 * time.Minute,
			},
			Kafka: KafkaConfig{
				Brokers: []string{"localhost:9092"},
				Topic:   "product-matches",
			},
			Redis: RedisConfig{
				Addr:      "localhost:6379",
				PoolSize:  10,
				KeyPrefix: "match:",
				TTL:       24 * time.Hour,
			},
		},
		Resilience: ResilienceConfig{
			MaxAttempts:      3,
			InitialDelay:     100 * time.Millisecond,
			WriteTimeout:     5 * time.Second,
			FailureThreshold: 5,
			ResetTimeout:     30 * time.Second,
		},
	}
}

// Validate rejects settings the matcher cannot run with.
func (c *Config) Validate() error {
	if c.Output.Path == "" {
		return fmt.Errorf("output.path must not be empty")
	}
	if c.Matching.Workers < 1 {
		return fmt.Errorf("matching.workers must be at least 1, got %d", c.Matching.Workers)
	}
	if c.Matching.MaxHitsPerProduct < 0 {
		return fmt.Errorf("matching.maxHitsPerProduct must not be negative, got %d", c.Matching.MaxHitsPerProduct)
	}
	if c.Sinks.SQL.Enabled {
		switch c.Sinks.SQL.Driver {
		case "postgres", "mysql", "sqlite3":
		default:
			return fmt.Errorf("sinks.sql.driver %q is not supported", c.Sinks.SQL.Driver)
		}
	}
	return nil
}

// applyEnvOverrides reads MATCHER_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("MATCHER_OUTPUT_PATH"); v != "" {
		cfg.Output.Path = v
	}
	if v := os.Getenv("MATCHER_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Matching.Workers = n
		}
	}
	if v := os.Getenv("MATCHER_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("MATCHER_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("MATCHER_METRICS_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Metrics.Enabled = b
		}
	}
	if v := os.Getenv("MATCHER_METRICS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Metrics.Port = port
		}
	}
	if v := os.Getenv("MATCHER_SQL_DRIVER"); v != "" {
		cfg.Sinks.SQL.Driver = v
		cfg.Sinks.SQL.Enabled = true
	}
	if v := os.Getenv("MATCHER_SQL_DSN"); v != "" {
		cfg.Sinks.SQL.DSN = v
	}
	if v := os.Getenv("MATCHER_KAFKA_BROKERS"); v != "" {
		cfg.Sinks.Kafka.Brokers = strings.Split(v, ",")
		cfg.Sinks.Kafka.Enabled = true
	}
	if v := os.Getenv("MATCHER_REDIS_ADDR"); v != "" {
		cfg.Sinks.Redis.Addr = v
		cfg.Sinks.Redis.Enabled = true
	}
	if v := os.Getenv("MATCHER_REDIS_PASSWORD"); v != "" {
		cfg.Sinks.Redis.Password = v
	}
}
