// Package config provides centralized configuration management.
//
// Configuration can be loaded from:
//  1. YAML file (config.yaml)
//  2. Environment variables (fallback, after reading a .env file if present)
//
// Example usage:
//
//	cfg := config.LoadOrEnv()
//	dbPath := cfg.Storage.DatabasePath
//	matcherCfg := cfg.ToMatcherConfig()
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/eshaffer321/order-reconciler/internal/domain/matcher"
)

// Config represents the entire application configuration
type Config struct {
	Reconciliation ReconciliationConfig `yaml:"reconciliation"`
	Storage        StorageConfig        `yaml:"storage"`
	API            APIConfig            `yaml:"api"`
	Observability  ObservabilityConfig  `yaml:"observability"`
}

// ReconciliationConfig holds the matching engine settings
type ReconciliationConfig struct {
	MatchThreshold         float64 `yaml:"match_threshold" validate:"gte=0,lte=100"`
	DateToleranceDays      int     `yaml:"date_tolerance_days" validate:"gte=0"`
	BatchDateToleranceDays int     `yaml:"batch_date_tolerance_days" validate:"gte=0"`
	AmountToleranceCents   int     `yaml:"amount_tolerance_cents" validate:"gte=0"`
	MaxBatchSize           int     `yaml:"max_batch_size" validate:"gte=1"`
}

// StorageConfig holds database configuration
type StorageConfig struct {
	DatabasePath string `yaml:"database_path" validate:"required"`
}

// APIConfig holds HTTP server settings
type APIConfig struct {
	Port int `yaml:"port" validate:"gte=1,lte=65535"`
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	Format string `yaml:"format" validate:"omitempty,oneof=maven json text"`
}

// Default returns a configuration populated with defaults
func Default() *Config {
	m := matcher.DefaultConfig()
	return &Config{
		Reconciliation: ReconciliationConfig{
			MatchThreshold:         m.MatchThreshold,
			DateToleranceDays:      int(m.DateToleranceDays),
			BatchDateToleranceDays: int(m.BatchDateToleranceDays),
			AmountToleranceCents:   int(m.AmountToleranceCents),
			MaxBatchSize:           int(m.MaxBatchSize),
		},
		Storage: StorageConfig{
			DatabasePath: "reconciler.db",
		},
		API: APIConfig{
			Port: 8085,
		},
		Observability: ObservabilityConfig{
			Logging: LoggingConfig{
				Level:  "info",
				Format: "maven",
			},
		},
	}
}

var validate = validator.New()

// Validate checks every field against its constraints
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// Load reads and parses the config file. Missing keys keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables (e.g., ${RECONCILE_DB_PATH})
	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables only.
// A .env file in the working directory is read first; variables already set
// in the environment win.
func LoadFromEnv() *Config {
	_ = godotenv.Load()

	d := Default()
	return &Config{
		Reconciliation: ReconciliationConfig{
			MatchThreshold:         getEnvFloat("RECONCILE_MATCH_THRESHOLD", d.Reconciliation.MatchThreshold),
			DateToleranceDays:      getEnvInt("RECONCILE_DATE_TOLERANCE_DAYS", d.Reconciliation.DateToleranceDays),
			BatchDateToleranceDays: getEnvInt("RECONCILE_BATCH_DATE_TOLERANCE_DAYS", d.Reconciliation.BatchDateToleranceDays),
			AmountToleranceCents:   getEnvInt("RECONCILE_AMOUNT_TOLERANCE_CENTS", d.Reconciliation.AmountToleranceCents),
			MaxBatchSize:           getEnvInt("RECONCILE_MAX_BATCH_SIZE", d.Reconciliation.MaxBatchSize),
		},
		Storage: StorageConfig{
			DatabasePath: getEnv("RECONCILE_DB_PATH", d.Storage.DatabasePath),
		},
		API: APIConfig{
			Port: getEnvInt("RECONCILE_API_PORT", d.API.Port),
		},
		Observability: ObservabilityConfig{
			Logging: LoggingConfig{
				Level:  getEnv("LOG_LEVEL", d.Observability.Logging.Level),
				Format: getEnv("LOG_FORMAT", d.Observability.Logging.Format),
			},
		},
	}
}

// LoadOrEnv tries to load from config.yaml, falls back to environment variables
func LoadOrEnv() *Config {
	return LoadOrEnv_WithPath("config.yaml")
}

// LoadOrEnv_WithPath tries to load from specified path, falls back to environment variables
func LoadOrEnv_WithPath(path string) *Config {
	if cfg, err := Load(path); err == nil {
		return cfg
	}
	return LoadFromEnv()
}

// ToMatcherConfig converts the reconciliation section for the matching engine.
// Negative values are clamped to zero; Validate rejects them earlier.
func (c *Config) ToMatcherConfig() matcher.Config {
	r := c.Reconciliation
	return matcher.Config{
		MatchThreshold:         r.MatchThreshold,
		DateToleranceDays:      toUint(r.DateToleranceDays),
		BatchDateToleranceDays: toUint(r.BatchDateToleranceDays),
		AmountToleranceCents:   toUint(r.AmountToleranceCents),
		MaxBatchSize:           toUint(r.MaxBatchSize),
	}
}

func toUint(v int) uint {
	if v < 0 {
		return 0
	}
	return uint(v)
}

// getEnv retrieves an environment variable with a fallback default
func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

// getEnvInt retrieves an integer environment variable with a fallback default
func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if result, err := strconv.Atoi(val); err == nil {
			return result
		}
	}
	return fallback
}

// getEnvFloat retrieves a float environment variable with a fallback default
func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		if result, err := strconv.ParseFloat(val, 64); err == nil {
			return result
		}
	}
	return fallback
}
