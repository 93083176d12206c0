// Package config loads and validates pipeline configuration from YAML files
// with environment-variable overrides. It provides typed structs for every
// subsystem (inputs, outputs, label cache, Redis, Kafka, Postgres, etc.).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Inputs   InputsConfig   `yaml:"inputs"`
	Outputs  OutputsConfig  `yaml:"outputs"`
	Features FeaturesConfig `yaml:"features"`
	Cache    CacheConfig    `yaml:"cache"`
	Redis    RedisConfig    `yaml:"redis"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Postgres PostgresConfig `yaml:"postgres"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Retry    RetryConfig    `yaml:"retry"`
}

// InputsConfig names the three compressed JSON-lines sources.
type InputsConfig struct {
	Genders     string `yaml:"genders"`
	TestAuthors string `yaml:"testAuthors"`
	Posts       string `yaml:"posts"`
}

// OutputsConfig names the feature files and the companion reformatter paths.
type OutputsConfig struct {
	Train       string `yaml:"train"`
	Test        string `yaml:"test"`
	Predictions string `yaml:"predictions"`
	Submission  string `yaml:"submission"`
}

// FeaturesConfig controls dataset routing thresholds.
type FeaturesConfig struct {
	MinTokens int `yaml:"minTokens"`
}

// CacheConfig selects the label cache backend and where it keeps its data.
type CacheConfig struct {
	Backend         string `yaml:"backend"`
	Dir             string `yaml:"dir"`
	GendersName     string `yaml:"gendersName"`
	TestAuthorsName string `yaml:"testAuthorsName"`
	KeyPrefix       string `yaml:"keyPrefix"`
}

// RedisConfig holds Redis connection parameters for the redis cache backend.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"poolSize"`
}

// KafkaConfig controls the optional record mirror.
type KafkaConfig struct {
	Enabled   bool        `yaml:"enabled"`
	Brokers   []string    `yaml:"brokers"`
	BatchSize int         `yaml:"batchSize"`
	Topics    KafkaTopics `yaml:"topics"`
}

// KafkaTopics maps dataset splits to their Kafka topic strings.
type KafkaTopics struct {
	Train string `yaml:"train"`
	Test  string `yaml:"test"`
}

// PostgresConfig holds PostgreSQL connection parameters for the run report
// store.
type PostgresConfig struct {
	Enabled         bool          `yaml:"enabled"`
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Database        string        `yaml:"database"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	SSLMode         string        `yaml:"sslMode"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
}

// DSN returns a lib/pq-compatible data source name.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
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

// RetryConfig controls backoff for network operations.
type RetryConfig struct {
	MaxAttempts  int           `yaml:"maxAttempts"`
	InitialDelay time.Duration `yaml:"initialDelay"`
	MaxDelay     time.Duration `yaml:"maxDelay"`
}

// Load reads a YAML config file (if provided) and applies environment-variable
// overrides. Missing values keep their defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns a Config matching the file layout the pipeline expects in
// its working directory.
func Default() *Config {
	return &Config{
		Inputs: InputsConfig{
			Genders:     "public.jsonlines.gz",
			TestAuthors: "private.jsonlines.gz",
			Posts:       "messages.jsonlines.gz",
		},
		Outputs: OutputsConfig{
			Train:       "train.vw",
			Test:        "test.vw",
			Predictions: "pred.vw",
			Submission:  "private-res.jsonlines.gz",
		},
		Features: FeaturesConfig{
			MinTokens: 5,
		},
		Cache: CacheConfig{
			Backend:         "file",
			Dir:             "dumps",
			GendersName:     "author-genders",
			TestAuthorsName: "author-tests",
			KeyPrefix:       "labels:",
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			PoolSize: 4,
		},
		Kafka: KafkaConfig{
			Brokers:   []string{"localhost:9092"},
			BatchSize: 500,
			Topics: KafkaTopics{
				Train: "features.train",
				Test:  "features.test",
			},
		},
		Postgres: PostgresConfig{
			Host:            "localhost",
			Port:            5432,
			Database:        "stylometry",
			User:            "stylometry",
			Password:        "localdev",
			SSLMode:         "disable",
			MaxOpenConns:    2,
			MaxIdleConns:    1,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Port:    9090,
		},
		Retry: RetryConfig{
			MaxAttempts:  3,
			InitialDelay: 100 * time.Millisecond,
			MaxDelay:     5 * time.Second,
		},
	}
}

// Validate rejects settings the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.Features.MinTokens < 0 {
		return fmt.Errorf("features.minTokens must be >= 0, got %d", c.Features.MinTokens)
	}
	switch c.Cache.Backend {
	case "file", "redis":
	default:
		return fmt.Errorf("cache.backend must be \"file\" or \"redis\", got %q", c.Cache.Backend)
	}
	if c.Cache.GendersName == "" || c.Cache.TestAuthorsName == "" {
		return fmt.Errorf("cache entry names must not be empty")
	}
	if c.Cache.GendersName == c.Cache.TestAuthorsName {
		return fmt.Errorf("cache entry names must differ, both are %q", c.Cache.GendersName)
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers must not be empty when kafka is enabled")
	}
	return nil
}

// applyEnvOverrides reads AGS_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("AGS_INPUTS_GENDERS"); v != "" {
		cfg.Inputs.Genders = v
	}
	if v := os.Getenv("AGS_INPUTS_TEST_AUTHORS"); v != "" {
		cfg.Inputs.TestAuthors = v
	}
	if v := os.Getenv("AGS_INPUTS_POSTS"); v != "" {
		cfg.Inputs.Posts = v
	}
	if v := os.Getenv("AGS_OUTPUTS_TRAIN"); v != "" {
		cfg.Outputs.Train = v
	}
	if v := os.Getenv("AGS_OUTPUTS_TEST"); v != "" {
		cfg.Outputs.Test = v
	}
	if v := os.Getenv("AGS_FEATURES_MIN_TOKENS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Features.MinTokens = n
		}
	}
	if v := os.Getenv("AGS_CACHE_BACKEND"); v != "" {
		cfg.Cache.Backend = v
	}
	if v := os.Getenv("AGS_CACHE_DIR"); v != "" {
		cfg.Cache.Dir = v
	}
	if v := os.Getenv("AGS_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("AGS_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("AGS_KAFKA_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Kafka.Enabled = b
		}
	}
	if v := os.Getenv("AGS_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("AGS_POSTGRES_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Postgres.Enabled = b
		}
	}
	if v := os.Getenv("AGS_POSTGRES_HOST"); v != "" {
		cfg.Postgres.Host = v
	}
	if v := os.Getenv("AGS_POSTGRES_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Postgres.Port = port
		}
	}
	if v := os.Getenv("AGS_POSTGRES_PASSWORD"); v != "" {
		cfg.Postgres.Password = v
	}
	if v := os.Getenv("AGS_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("AGS_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("AGS_METRICS_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Metrics.Enabled = b
		}
	}
	if v := os.Getenv("AGS_METRICS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Metrics.Port = port
		}
	}
}
