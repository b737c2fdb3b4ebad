package config

import (
	"flag"
	"os"
	"testing"
	"time"
)

func TestGetEnv(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue string
		envValue     string
		want         string
	}{
		{
			name:         "environment variable set",
			key:          "TEST_VAR",
			defaultValue: "default",
			envValue:     "from-env",
			want:         "from-env",
		},
		{
			name:         "environment variable not set",
			key:          "NONEXISTENT_VAR",
			defaultValue: "default",
			envValue:     "",
			want:         "default",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				os.Setenv(tt.key, tt.envValue)
				defer os.Unsetenv(tt.key)
			}

			got := getEnv(tt.key, tt.defaultValue)
			if got != tt.want {
				t.Errorf("getEnv() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGetEnvInt(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue int
		envValue     string
		want         int
	}{
		{
			name:         "valid integer",
			key:          "TEST_INT",
			defaultValue: 10,
			envValue:     "42",
			want:         42,
		},
		{
			name:         "invalid integer",
			key:          "TEST_INT",
			defaultValue: 10,
			envValue:     "not-a-number",
			want:         10,
		},
		{
			name:         "not set",
			key:          "NONEXISTENT_INT",
			defaultValue: 99,
			envValue:     "",
			want:         99,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				os.Setenv(tt.key, tt.envValue)
				defer os.Unsetenv(tt.key)
			}

			got := getEnvInt(tt.key, tt.defaultValue)
			if got != tt.want {
				t.Errorf("getEnvInt() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestGetEnvDuration(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue time.Duration
		envValue     string
		want         time.Duration
	}{
		{
			name:         "valid duration",
			key:          "TEST_DURATION",
			defaultValue: 1 * time.Minute,
			envValue:     "5m",
			want:         5 * time.Minute,
		},
		{
			name:         "invalid duration",
			key:          "TEST_DURATION",
			defaultValue: 30 * time.Second,
			envValue:     "not-a-duration",
			want:         30 * time.Second,
		},
		{
			name:         "not set",
			key:          "NONEXISTENT_DURATION",
			defaultValue: 10 * time.Second,
			envValue:     "",
			want:         10 * time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				os.Setenv(tt.key, tt.envValue)
				defer os.Unsetenv(tt.key)
			}

			got := getEnvDuration(tt.key, tt.defaultValue)
			if got != tt.want {
				t.Errorf("getEnvDuration() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConfig_Defaults(t *testing.T) {
	flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.ContinueOnError)

	os.Setenv("SOURCE_QUERY", "sum(rate(http_requests_total[1m]))")
	defer os.Unsetenv("SOURCE_QUERY")

	os.Args = []string{
		"cmd",
		"-series=test-api",
		"-metric=request_latency_us",
		"-source=prometheus",
	}

	cfg := ParseFlags()

	if cfg.Listen != ":8082" {
		t.Errorf("Listen = %q, want %q", cfg.Listen, ":8082")
	}
	if cfg.Interval != 30*time.Second {
		t.Errorf("Interval = %v, want 30s", cfg.Interval)
	}
	if cfg.Window != 30*time.Second {
		t.Errorf("Window = %v, want 30s", cfg.Window)
	}
	if cfg.ReservoirSize != 1028 {
		t.Errorf("ReservoirSize = %d, want 1028", cfg.ReservoirSize)
	}
	if cfg.Alpha != 0.015 {
		t.Errorf("Alpha = %v, want 0.015", cfg.Alpha)
	}
	if cfg.Quantiles != "p50,p75,p95,p99" {
		t.Errorf("Quantiles = %q, want %q", cfg.Quantiles, "p50,p75,p95,p99")
	}
	if cfg.LogFormat != "text" {
		t.Errorf("LogFormat = %q, want %q", cfg.LogFormat, "text")
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "info")
	}
	if cfg.SourceConfig["query"] != "sum(rate(http_requests_total[1m]))" {
		t.Errorf("SourceConfig[query] = %q, want the exported query", cfg.SourceConfig["query"])
	}
}

func TestConfig_CustomValues(t *testing.T) {
	flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.ContinueOnError)

	os.Args = []string{
		"cmd",
		"-series=my-api",
		"-metric=queue_depth",
		"-source=static",
		"-listen=:9090",
		"-interval=1m",
		"-window=2m",
		"-reservoir-size=256",
		"-alpha=0.05",
		"-quantiles=p90,p99.9",
		"-log-format=json",
		"-log-level=debug",
	}

	cfg := ParseFlags()

	if cfg.Listen != ":9090" {
		t.Errorf("Listen = %q, want %q", cfg.Listen, ":9090")
	}
	if cfg.Series != "my-api" {
		t.Errorf("Series = %q, want %q", cfg.Series, "my-api")
	}
	if cfg.Metric != "queue_depth" {
		t.Errorf("Metric = %q, want %q", cfg.Metric, "queue_depth")
	}
	if cfg.Interval != 1*time.Minute {
		t.Errorf("Interval = %v, want 1m", cfg.Interval)
	}
	if cfg.Window != 2*time.Minute {
		t.Errorf("Window = %v, want 2m", cfg.Window)
	}
	if cfg.ReservoirSize != 256 {
		t.Errorf("ReservoirSize = %d, want 256", cfg.ReservoirSize)
	}
	if cfg.Alpha != 0.05 {
		t.Errorf("Alpha = %v, want 0.05", cfg.Alpha)
	}
	if cfg.LogFormat != "json" {
		t.Errorf("LogFormat = %q, want %q", cfg.LogFormat, "json")
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "debug")
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Series:        "api",
			Metric:        "latency",
			Source:        "static",
			Storage:       "memory",
			Interval:      30 * time.Second,
			Window:        30 * time.Second,
			ReservoirSize: 1028,
			Alpha:         0.015,
			Quantiles:     "p50,p99",
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "invalid series name",
			mutate:  func(c *Config) { c.Series = "-bad-" },
			wantErr: true,
		},
		{
			name:    "zero reservoir size",
			mutate:  func(c *Config) { c.ReservoirSize = 0 },
			wantErr: true,
		},
		{
			name:    "negative alpha",
			mutate:  func(c *Config) { c.Alpha = -0.1 },
			wantErr: true,
		},
		{
			name:    "unknown storage",
			mutate:  func(c *Config) { c.Storage = "dynamo" },
			wantErr: true,
		},
		{
			name:    "bad quantile levels",
			mutate:  func(c *Config) { c.Quantiles = "p50,nope" },
			wantErr: true,
		},
		{
			name:    "zero window defaults to interval",
			mutate:  func(c *Config) { c.Window = 0 },
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := Validate(cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
