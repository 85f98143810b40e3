package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/orgforge/pkg/observability"
	"github.com/platinummonkey/orgforge/pkg/orgs"
	"github.com/platinummonkey/orgforge/pkg/settings"
	"github.com/platinummonkey/orgforge/pkg/storage/postgres"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	Postgres postgres.Config

	// Provisioning configuration
	Provisioning ProvisioningConfig

	// Observability configuration
	Observability ObservabilityConfig
}

// ProvisioningConfig holds what new organizations are created with
type ProvisioningConfig struct {
	// DefaultPublicVisibility seeds organizations.default_public_visibility when the
	// database does not hold it. Empty leaves the setting unset.
	DefaultPublicVisibility string

	// BuiltInProfilesFile is the YAML file listing the built-in quality profiles
	BuiltInProfilesFile string

	SettingsCacheSize int
	SettingsCacheTTL  time.Duration
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	LogLevel logrus.Level

	MetricsEnabled bool
	// MetricsTextfile, when set, receives the metrics of each run in the Prometheus text format
	MetricsTextfile string

	OTelEnabled        bool
	OTelEndpoint       string
	OTelServiceName    string
	OTelServiceVersion string
	OTelInsecure       bool
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Postgres:      loadPostgresConfig(),
		Provisioning:  loadProvisioningConfig(),
		Observability: loadObservabilityConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func loadPostgresConfig() postgres.Config {
	cfg := postgres.DefaultConfig()
	cfg.URL = getEnv("ORGFORGE_POSTGRES_URL", "")

	if maxConns := getEnvInt("ORGFORGE_POSTGRES_MAX_CONNS", 0); maxConns > 0 {
		cfg.MaxConns = maxConns
	}
	if minConns := getEnvInt("ORGFORGE_POSTGRES_MIN_CONNS", 0); minConns > 0 {
		cfg.MinConns = minConns
	}
	if timeout := getEnvDuration("ORGFORGE_POSTGRES_TIMEOUT", 0); timeout > 0 {
		cfg.Timeout = timeout
	}

	return cfg
}

func loadProvisioningConfig() ProvisioningConfig {
	defaults := settings.DefaultConfig()
	return ProvisioningConfig{
		DefaultPublicVisibility: getEnv("ORGFORGE_DEFAULT_PUBLIC_VISIBILITY", ""),
		BuiltInProfilesFile:     getEnv("ORGFORGE_BUILTIN_PROFILES", ""),
		SettingsCacheSize:       getEnvInt("ORGFORGE_SETTINGS_CACHE_SIZE", defaults.CacheSize),
		SettingsCacheTTL:        getEnvDuration("ORGFORGE_SETTINGS_CACHE_TTL", defaults.CacheTTL),
	}
}

func loadObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		LogLevel:           parseLogLevel(getEnv("ORGFORGE_LOG_LEVEL", "info")),
		MetricsEnabled:     getEnvBool("ORGFORGE_METRICS_ENABLED", true),
		MetricsTextfile:    getEnv("ORGFORGE_METRICS_TEXTFILE", ""),
		OTelEnabled:        getEnvBool("ORGFORGE_OTEL_ENABLED", false),
		OTelEndpoint:       getEnv("ORGFORGE_OTEL_ENDPOINT", "localhost:4317"),
		OTelServiceName:    getEnv("ORGFORGE_OTEL_SERVICE_NAME", "orgforge"),
		OTelServiceVersion: getEnv("ORGFORGE_OTEL_SERVICE_VERSION", "1.0.0"),
		OTelInsecure:       getEnvBool("ORGFORGE_OTEL_INSECURE", true),
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Postgres.URL == "" {
		return fmt.Errorf("postgres URL is required (ORGFORGE_POSTGRES_URL)")
	}
	if c.Postgres.MinConns > c.Postgres.MaxConns {
		return fmt.Errorf("postgres min connections (%d) exceeds max connections (%d)",
			c.Postgres.MinConns, c.Postgres.MaxConns)
	}

	if v := c.Provisioning.DefaultPublicVisibility; v != "" {
		if _, err := strconv.ParseBool(v); err != nil {
			return fmt.Errorf("invalid default public visibility: %q (must be true or false)", v)
		}
	}
	if c.Provisioning.SettingsCacheSize <= 0 {
		return fmt.Errorf("settings cache size must be positive")
	}

	if c.Observability.OTelEnabled {
		if c.Observability.OTelEndpoint == "" {
			return fmt.Errorf("OpenTelemetry endpoint is required when OTel is enabled")
		}
		if c.Observability.OTelServiceName == "" {
			return fmt.Errorf("OpenTelemetry service name is required when OTel is enabled")
		}
	}

	return nil
}

// SettingsConfig returns the settings provider configuration, seeded with the
// configured default visibility
func (c *Config) SettingsConfig() settings.Config {
	cfg := settings.Config{
		CacheSize: c.Provisioning.SettingsCacheSize,
		CacheTTL:  c.Provisioning.SettingsCacheTTL,
		Defaults:  map[string]string{},
	}
	if v := c.Provisioning.DefaultPublicVisibility; v != "" {
		cfg.Defaults[orgs.DefaultPublicVisibilityKey] = v
	}
	return cfg
}

// OTelConfig returns the tracing configuration
func (c *Config) OTelConfig() observability.OTelConfig {
	return observability.OTelConfig{
		Enabled:        c.Observability.OTelEnabled,
		Endpoint:       c.Observability.OTelEndpoint,
		ServiceName:    c.Observability.OTelServiceName,
		ServiceVersion: c.Observability.OTelServiceVersion,
		Insecure:       c.Observability.OTelInsecure,
	}
}

func parseLogLevel(level string) logrus.Level {
	switch strings.ToLower(level) {
	case "debug":
		return logrus.DebugLevel
	case "info":
		return logrus.InfoLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
