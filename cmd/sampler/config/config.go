// Package config provides configuration parsing and management for the sampler.
//
// It handles both command-line flags and environment variables, with flags taking
// precedence over environment variables. The Config struct contains all runtime
// configuration for the sampler including:
//   - Series identification (series name, metric name)
//   - Reservoir parameters (size, alpha)
//   - Source settings (kind plus a generic SOURCE_* configuration map)
//   - Timing configuration (interval, window)
//   - Storage backend (memory or redis)
//   - Quantile levels published per summary
//   - Logging configuration (level, format)
//   - TLS configuration (cert, key, CA files)
//
// Supported configuration sources (in order of precedence):
//  1. Command-line flags
//  2. Environment variables
//  3. Default values
package config

import (
	"flag"
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/HatiCode/decaysample/pkg/quantile"
	"github.com/HatiCode/decaysample/pkg/reservoir"
	"github.com/HatiCode/decaysample/pkg/tls"
)

// Config holds all sampler configuration.
type Config struct {
	Listen        string
	LogFormat     string
	LogLevel      string
	Storage       string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisTTL      time.Duration
	TLS           tls.Config

	Series        string
	Metric        string
	Source        string
	SourceConfig  map[string]string
	Interval      time.Duration
	Window        time.Duration
	ReservoirSize int
	Alpha         float64
	Quantiles     string
}

// ParseFlags parses command-line flags and environment variables into a Config.
// Environment variables are used as fallbacks when flags are not provided.
// Each sampler instance tracks a single series.
func ParseFlags() *Config {
	cfg := &Config{}

	flag.StringVar(&cfg.Listen, "listen", getEnv("LISTEN", ":8082"), "HTTP listen address")

	flag.StringVar(&cfg.LogFormat, "log-format", getEnv("LOG_FORMAT", "text"), "Log format: text or json")
	flag.StringVar(&cfg.LogLevel, "log-level", getEnv("LOG_LEVEL", "info"), "Log level: debug, info, warn, error")

	flag.StringVar(&cfg.Storage, "storage", getEnv("STORAGE", "memory"), "Storage backend: memory or redis")
	flag.StringVar(&cfg.RedisAddr, "redis-addr", getEnv("REDIS_ADDR", "localhost:6379"), "Redis server address")
	flag.StringVar(&cfg.RedisPassword, "redis-password", getEnv("REDIS_PASSWORD", ""), "Redis password")
	flag.IntVar(&cfg.RedisDB, "redis-db", getEnvInt("REDIS_DB", 0), "Redis database number")
	flag.DurationVar(&cfg.RedisTTL, "redis-ttl", getEnvDuration("REDIS_TTL", 30*time.Minute), "Redis summary TTL")

	flag.BoolVar(&cfg.TLS.Enabled, "tls-enabled", getEnvBool("TLS_ENABLED", false), "Enable TLS for HTTP server")
	flag.StringVar(&cfg.TLS.CertFile, "tls-cert-file", getEnv("TLS_CERT_FILE", ""), "TLS certificate file")
	flag.StringVar(&cfg.TLS.KeyFile, "tls-key-file", getEnv("TLS_KEY_FILE", ""), "TLS private key file")
	flag.StringVar(&cfg.TLS.CAFile, "tls-ca-file", getEnv("TLS_CA_FILE", ""), "TLS CA certificate file for client verification")

	flag.StringVar(&cfg.Series, "series", getEnv("SERIES", ""), "Series name (required)")
	flag.StringVar(&cfg.Metric, "metric", getEnv("METRIC", ""), "Metric name (required)")
	flag.StringVar(&cfg.Source, "source", getEnv("SOURCE", ""), "Source type: prometheus, http, or static")
	flag.DurationVar(&cfg.Interval, "interval", getEnvDuration("INTERVAL", 30*time.Second), "Collection interval")
	flag.DurationVar(&cfg.Window, "window", getEnvDuration("WINDOW", 30*time.Second), "Collection window per tick")
	flag.IntVar(&cfg.ReservoirSize, "reservoir-size", getEnvInt("RESERVOIR_SIZE", reservoir.DefaultSize), "Maximum sample count retained in the reservoir")
	flag.Float64Var(&cfg.Alpha, "alpha", getEnvFloat("ALPHA", reservoir.DefaultAlpha), "Exponential decay factor (per second)")
	flag.StringVar(&cfg.Quantiles, "quantiles", getEnv("QUANTILES", "p50,p75,p95,p99"), "Comma-separated quantile levels published per summary")

	flag.Parse()

	cfg.SourceConfig = parseSourceConfig()

	if cfg.Series == "" {
		fmt.Fprintln(os.Stderr, "Error: --series is required")
		os.Exit(1)
	}
	if cfg.Metric == "" {
		fmt.Fprintln(os.Stderr, "Error: --metric is required")
		os.Exit(1)
	}
	if cfg.Source == "" {
		fmt.Fprintln(os.Stderr, "Error: --source is required")
		os.Exit(1)
	}

	return cfg
}

// parseSourceConfig parses SOURCE_* environment variables into a generic
// configuration map. Source-specific configuration is provided via environment
// variables with the SOURCE_ prefix, for example SOURCE_QUERY, SOURCE_URL,
// SOURCE_VALUE_PATH. Variable names are converted to camelCase map keys
// (SOURCE_VALUE_PATH -> valuePath).
func parseSourceConfig() map[string]string {
	config := make(map[string]string)

	for _, env := range os.Environ() {
		if len(env) > 7 && env[:7] == "SOURCE_" {
			parts := splitEnv(env)
			if len(parts) == 2 {
				key := toLowerCamelCase(parts[0][7:])
				config[key] = parts[1]
			}
		}
	}

	return config
}

func splitEnv(env string) []string {
	for i := 0; i < len(env); i++ {
		if env[i] == '=' {
			return []string{env[:i], env[i+1:]}
		}
	}
	return []string{env}
}

func toLowerCamelCase(s string) string {
	if s == "" {
		return s
	}
	parts := []rune(s)
	result := make([]rune, 0, len(parts))
	nextUpper := false
	for i, r := range parts {
		if r == '_' {
			nextUpper = true
			continue
		}
		if i == 0 {
			result = append(result, toLower(r))
		} else if nextUpper {
			result = append(result, r)
			nextUpper = false
		} else {
			result = append(result, toLower(r))
		}
	}
	return string(result)
}

func toLower(r rune) rune {
	if r >= 'A' && r <= 'Z' {
		return r + 32
	}
	return r
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var i int
		if _, err := fmt.Sscanf(value, "%d", &i); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		var f float64
		if _, err := fmt.Sscanf(value, "%f", &f); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1"
	}
	return defaultValue
}

var seriesNameRegex = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9_-]{0,251}[a-zA-Z0-9])?$`)

// Validate checks the configuration beyond the required-flag checks done in
// ParseFlags. Returns an error describing the first invalid field.
func Validate(cfg *Config) error {
	if !seriesNameRegex.MatchString(cfg.Series) {
		return fmt.Errorf("invalid series name %q (must be alphanumeric with dash/underscore, 1-253 chars)", cfg.Series)
	}

	if cfg.ReservoirSize <= 0 {
		return fmt.Errorf("reservoir size must be > 0, got %d", cfg.ReservoirSize)
	}

	if cfg.Alpha <= 0 {
		return fmt.Errorf("alpha must be > 0, got %v", cfg.Alpha)
	}

	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}

	if cfg.Window <= 0 {
		cfg.Window = cfg.Interval
	}

	if cfg.Storage != "memory" && cfg.Storage != "redis" {
		return fmt.Errorf("invalid storage backend %q (must be memory or redis)", cfg.Storage)
	}

	if _, err := quantile.ParseLevels(cfg.Quantiles); err != nil {
		return fmt.Errorf("invalid quantile levels: %w", err)
	}

	if err := cfg.TLS.Validate(); err != nil {
		return fmt.Errorf("invalid TLS config: %w", err)
	}

	return nil
}
