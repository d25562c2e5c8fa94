// Package config loads navigator settings by layering defaults, an optional
// YAML file, and SAFEPATH_-prefixed environment variables.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/robfig/cron/v3"
)

const (
	envPrefix  = "SAFEPATH_"
	fileEnvVar = "SAFEPATH_CONFIG"

	defaultKafkaBroker = "localhost:9092"
)

// Config holds all service settings.
type Config struct {
	HTTPAddr        string        `koanf:"http_addr"`
	LogLevel        string        `koanf:"log_level"`
	LogFormat       string        `koanf:"log_format"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// Crime report backend.
	CrimeAPIURL     string        `koanf:"crime_api_url"`
	CrimeAPITimeout time.Duration `koanf:"crime_api_timeout"`
	QueryLimit      int           `koanf:"query_limit"`

	// Route risk backend.
	RiskAPIURL     string        `koanf:"risk_api_url"`
	RiskAPITimeout time.Duration `koanf:"risk_api_timeout"`
	RiskCacheSize  int           `koanf:"risk_cache_size"`

	// Directions provider. Route planning is disabled without a key.
	MapsAPIKey     string        `koanf:"maps_api_key"`
	MapsAPIBaseURL string        `koanf:"maps_api_base_url"`
	MapsAPITimeout time.Duration `koanf:"maps_api_timeout"`

	// CatalogRefreshSchedule is a cron spec for re-reading the crime-type catalog.
	CatalogRefreshSchedule string `koanf:"catalog_refresh_schedule"`

	// Route plan publication.
	KafkaEnabled bool     `koanf:"kafka_enabled"`
	KafkaBrokers []string `koanf:"kafka_brokers"`
	KafkaTopic   string   `koanf:"kafka_topic"`
}

// Defaults returns a Config populated with the built-in defaults.
func Defaults() *Config {
	return &Config{
		HTTPAddr:               ":8090",
		LogLevel:               "info",
		LogFormat:              "json",
		ShutdownTimeout:        10 * time.Second,
		CrimeAPIURL:            "http://localhost:8080/safepath-jdbc",
		CrimeAPITimeout:        5 * time.Second,
		QueryLimit:             200,
		RiskAPIURL:             "http://localhost:8081",
		RiskAPITimeout:         10 * time.Second,
		RiskCacheSize:          256,
		MapsAPITimeout:         10 * time.Second,
		CatalogRefreshSchedule: "@every 15m",
		KafkaTopic:             "route-risk-plans",
	}
}

// Load builds a Config. Precedence, low to high:
//  1. Defaults()
//  2. YAML file named by SAFEPATH_CONFIG, if set
//  3. environment variables with the SAFEPATH_ prefix
func Load() (*Config, error) {
	k := koanf.New(".")

	if path := os.Getenv(fileEnvVar); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: read %s: %w", ErrLoadConfig, path, err)
		}
	}

	// SAFEPATH_CRIME_API_URL -> crime_api_url
	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		return strings.TrimPrefix(strings.ToLower(s), strings.ToLower(envPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: environment: %w", ErrLoadConfig, err)
	}

	cfg := *Defaults()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if len(cfg.KafkaBrokers) == 0 {
		cfg.KafkaBrokers = []string{defaultKafkaBroker}
	}
	cfg.KafkaBrokers = splitBrokers(cfg.KafkaBrokers)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports the first setting that cannot be used, naming its key.
func (c *Config) Validate() error {
	switch {
	case c.HTTPAddr == "":
		return invalid("http_addr", "must not be empty")
	case c.ShutdownTimeout <= 0:
		return invalid("shutdown_timeout", "must be positive")
	case c.CrimeAPIURL == "":
		return invalid("crime_api_url", "must not be empty")
	case c.CrimeAPITimeout <= 0:
		return invalid("crime_api_timeout", "must be positive")
	case c.QueryLimit <= 0:
		return invalid("query_limit", "must be positive")
	case c.RiskAPIURL == "":
		return invalid("risk_api_url", "must not be empty")
	case c.RiskAPITimeout <= 0:
		return invalid("risk_api_timeout", "must be positive")
	case c.MapsAPITimeout <= 0:
		return invalid("maps_api_timeout", "must be positive")
	case c.RiskCacheSize < 0:
		return invalid("risk_cache_size", "must not be negative")
	case c.LogFormat != "json" && c.LogFormat != "text":
		return invalid("log_format", "must be json or text")
	}
	if c.CatalogRefreshSchedule != "" {
		if _, err := cron.ParseStandard(c.CatalogRefreshSchedule); err != nil {
			return invalid("catalog_refresh_schedule", err.Error())
		}
	}
	if c.KafkaEnabled {
		if len(c.KafkaBrokers) == 0 {
			return invalid("kafka_brokers", "required when kafka_enabled is true")
		}
		if c.KafkaTopic == "" {
			return invalid("kafka_topic", "required when kafka_enabled is true")
		}
	}
	return nil
}

// DirectionsEnabled reports whether a maps key was configured.
func (c *Config) DirectionsEnabled() bool {
	return c.MapsAPIKey != ""
}

func invalid(key, reason string) error {
	return fmt.Errorf("%w: %s %s", ErrInvalidConfig, key, reason)
}

// splitBrokers accepts both a YAML list and a comma-separated env value.
func splitBrokers(in []string) []string {
	var out []string
	for _, item := range in {
		for _, b := range strings.Split(item, ",") {
			if b = strings.TrimSpace(b); b != "" {
				out = append(out, b)
			}
		}
	}
	return out
}
