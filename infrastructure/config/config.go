// Package config loads the service configuration from defaults, an optional
// YAML file, and environment variables, in increasing priority.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment represents the deployment environment
type Environment string

const (
	Development Environment = "development"
	Staging     Environment = "staging"
	Production  Environment = "production"
)

// Config is the root configuration for the lineage service
type Config struct {
	Environment Environment `yaml:"environment"`
	Server      Server      `yaml:"server"`
	Database    Database    `yaml:"database"`
	Cascade     Cascade     `yaml:"cascade"`
	Breaker     Breaker     `yaml:"breaker"`
	Metrics     Metrics     `yaml:"metrics"`
	Logging     Logging     `yaml:"logging"`
}

// Server holds HTTP server settings
type Server struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Database selects and configures the storage provider
type Database struct {
	Provider  string `yaml:"provider"` // "dynamodb" or "memory"
	TableName string `yaml:"table_name"`
	GSI1Name  string `yaml:"gsi1_name"`
	GSI2Name  string `yaml:"gsi2_name"`
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"` // local DynamoDB override
}

// Cascade controls the deletion engine
type Cascade struct {
	MaxAttempts   int           `yaml:"max_attempts"`
	BaseDelay     time.Duration `yaml:"base_delay"`
	MaxDelay      time.Duration `yaml:"max_delay"`
	BackoffFactor float64       `yaml:"backoff_factor"`
	JitterFactor  float64       `yaml:"jitter_factor"`
	Pacing        time.Duration `yaml:"pacing"`
}

// Breaker controls the storage circuit breaker
type Breaker struct {
	MaxRequests      uint32        `yaml:"max_requests"`
	Interval         time.Duration `yaml:"interval"`
	Timeout          time.Duration `yaml:"timeout"`
	FailureThreshold float64       `yaml:"failure_threshold"`
	MinRequests      uint32        `yaml:"min_requests"`
}

// Metrics holds Prometheus settings
type Metrics struct {
	Enabled   bool   `yaml:"enabled"`
	Namespace string `yaml:"namespace"`
}

// Logging holds logger settings
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns a configuration with sensible defaults so the service can
// run without any configuration file.
func Default() Config {
	return Config{
		Environment: Development,
		Server: Server{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Database: Database{
			Provider:  "memory",
			TableName: "lineage",
			GSI1Name:  "GSI1",
			GSI2Name:  "GSI2",
			Region:    "us-east-1",
		},
		Cascade: Cascade{
			MaxAttempts:   5,
			BaseDelay:     100 * time.Millisecond,
			MaxDelay:      30 * time.Second,
			BackoffFactor: 2.0,
			JitterFactor:  0.1,
			Pacing:        200 * time.Millisecond,
		},
		Breaker: Breaker{
			MaxRequests:      5,
			Interval:         30 * time.Second,
			Timeout:          60 * time.Second,
			FailureThreshold: 0.8,
			MinRequests:      5,
		},
		Metrics: Metrics{
			Enabled:   true,
			Namespace: "lineage",
		},
		Logging: Logging{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load builds the configuration: defaults, then the YAML file named by
// CONFIG_FILE (if set), then environment variables.
func Load() (Config, error) {
	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	loadEnvironmentVariables(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// loadFile overlays a YAML file onto the configuration
func loadFile(path string, cfg *Config) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return yaml.NewDecoder(file).Decode(cfg)
}

// loadEnvironmentVariables overlays environment variables, the highest
// priority source.
func loadEnvironmentVariables(cfg *Config) {
	if val := os.Getenv("ENVIRONMENT"); val != "" {
		cfg.Environment = Environment(strings.ToLower(val))
	}
	if val := os.Getenv("SERVER_HOST"); val != "" {
		cfg.Server.Host = val
	}
	if val := os.Getenv("SERVER_PORT"); val != "" {
		if port := parseInt(val); port > 0 {
			cfg.Server.Port = port
		}
	}
	if val := os.Getenv("DB_PROVIDER"); val != "" {
		cfg.Database.Provider = val
	}
	if val := os.Getenv("TABLE_NAME"); val != "" {
		cfg.Database.TableName = val
	}
	if val := os.Getenv("AWS_REGION"); val != "" {
		cfg.Database.Region = val
	}
	if val := os.Getenv("DYNAMODB_ENDPOINT"); val != "" {
		cfg.Database.Endpoint = val
	}
	if val := os.Getenv("CASCADE_PACING"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Cascade.Pacing = d
		}
	}
	if val := os.Getenv("ENABLE_METRICS"); val != "" {
		cfg.Metrics.Enabled = parseBool(val)
	}
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		cfg.Logging.Level = val
	}
}

// Validate checks the configuration for inconsistencies
func (c Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	switch c.Database.Provider {
	case "dynamodb", "memory":
	default:
		return fmt.Errorf("unknown database provider: %s", c.Database.Provider)
	}
	if c.Database.Provider == "dynamodb" && c.Database.TableName == "" {
		return fmt.Errorf("table name is required for the dynamodb provider")
	}
	if c.Cascade.MaxAttempts <= 0 {
		return fmt.Errorf("cascade max attempts must be positive")
	}
	if c.Cascade.Pacing < 0 {
		return fmt.Errorf("cascade pacing must not be negative")
	}
	if c.Breaker.FailureThreshold <= 0 || c.Breaker.FailureThreshold > 1 {
		return fmt.Errorf("breaker failure threshold must be in (0, 1]")
	}
	return nil
}

func parseInt(s string) int {
	val, _ := strconv.Atoi(s)
	return val
}

func parseBool(s string) bool {
	val, _ := strconv.ParseBool(s)
	return val
}
