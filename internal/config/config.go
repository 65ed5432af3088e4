// Package config loads service configuration from an optional YAML file
// with environment-variable overrides. Secrets stay inside the Config
// value handed to collaborators; nothing reads the environment elsewhere.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTPAddr    string `yaml:"http_addr"`
	DatabaseDSN string `yaml:"database_dsn"`
	RedisAddr   string `yaml:"redis_addr"`

	Databricks DatabricksConfig `yaml:"databricks"`
	Submitter  SubmitterConfig  `yaml:"submitter"`
}

type DatabricksConfig struct {
	Host           string `yaml:"host"`
	Token          string `yaml:"token"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

type SubmitterConfig struct {
	Concurrency int `yaml:"concurrency"`
	MaxAttempts int `yaml:"max_attempts"`
}

func defaults() *Config {
	return &Config{
		HTTPAddr:  ":8080",
		RedisAddr: "localhost:6379",
		Databricks: DatabricksConfig{
			TimeoutSeconds: 30,
		},
		Submitter: SubmitterConfig{
			Concurrency: 2,
			MaxAttempts: 3,
		},
	}
}

// Load builds the configuration: defaults, then the YAML file (if path is
// non-empty), then environment overrides.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	overrideString(&cfg.HTTPAddr, "HTTP_ADDR")
	overrideString(&cfg.DatabaseDSN, "DATABASE_DSN")
	overrideString(&cfg.RedisAddr, "REDIS_ADDR")
	overrideString(&cfg.Databricks.Host, "DATABRICKS_HOST")
	overrideString(&cfg.Databricks.Token, "DATABRICKS_TOKEN")
	overrideInt(&cfg.Submitter.Concurrency, "SUBMITTER_CONCURRENCY")
	overrideInt(&cfg.Submitter.MaxAttempts, "SUBMITTER_MAX_ATTEMPTS")

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.DatabaseDSN == "" {
		return fmt.Errorf("database DSN is required (DATABASE_DSN)")
	}
	if c.Databricks.Host == "" {
		return fmt.Errorf("jobs API host is required (DATABRICKS_HOST)")
	}
	if c.Databricks.Token == "" {
		return fmt.Errorf("jobs API token is required (DATABRICKS_TOKEN)")
	}
	if c.Submitter.Concurrency < 1 {
		return fmt.Errorf("submitter concurrency must be >= 1")
	}
	return nil
}

func overrideString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = v
	}
}

func overrideInt(dst *int, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}
