// Package config loads service configuration from FINANCE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"

	"finance-dashboard/internal/domain"
	"finance-dashboard/internal/metrics"
	"finance-dashboard/internal/simulation"
)

// EnvPrefix is the prefix of every configuration variable.
const EnvPrefix = "FINANCE_"

// Storage modes
const (
	StorageMemory = "memory"
	StorageDB     = "db"
)

// Config holds the service configuration.
// FINANCE_<SECTION>_<KEY> maps to section.key, e.g. FINANCE_FORECAST_HORIZON_DAYS.
type Config struct {
	HTTP       HTTPConfig       `koanf:"http"`
	Storage    StorageConfig    `koanf:"storage"`
	Postgres   PostgresConfig   `koanf:"postgres"`
	ClickHouse ClickHouseConfig `koanf:"clickhouse"`
	Forecast   ForecastConfig   `koanf:"forecast"`
	Thresholds ThresholdsConfig `koanf:"thresholds"`
	Log        LogConfig        `koanf:"log"`
	OTel       OTelConfig       `koanf:"otel"`
	SMTP       SMTPConfig       `koanf:"smtp"`
	Rates      RatesConfig      `koanf:"rates"`
}

type HTTPConfig struct {
	Addr  string  `koanf:"addr"`
	Rate  float64 `koanf:"rate"`  // requests per second per process
	Burst int     `koanf:"burst"` // token bucket size
}

type StorageConfig struct {
	Mode string `koanf:"mode"` // "memory" | "db"
}

type PostgresConfig struct {
	DSN             string        `koanf:"dsn"`
	ConnectAttempts uint          `koanf:"connect_attempts"`
	ConnectDelay    time.Duration `koanf:"connect_delay"`
}

type ClickHouseConfig struct {
	DSN string `koanf:"dsn"`
}

type ForecastConfig struct {
	HorizonDays int    `koanf:"horizon_days"`
	Cron        string `koanf:"cron"`      // robfig/cron spec
	Scenarios   string `koanf:"scenarios"` // comma-separated scenario IDs
}

type ThresholdsConfig struct {
	HighRiskFloor   float64 `koanf:"high_risk_floor"`
	MediumRiskFloor float64 `koanf:"medium_risk_floor"`
	VolatilityRatio float64 `koanf:"volatility_ratio"`
	TrendRatio      float64 `koanf:"trend_ratio"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"` // "json" | "text"
}

type OTelConfig struct {
	Endpoint    string `koanf:"endpoint"` // OTLP/HTTP host:port, empty disables export
	ServiceName string `koanf:"service_name"`
	Insecure    bool   `koanf:"insecure"`
}

type SMTPConfig struct {
	Host     string `koanf:"host"` // empty disables email alerts
	Port     int    `koanf:"port"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`
	From     string `koanf:"from"`
	To       string `koanf:"to"` // comma-separated recipients
}

type RatesConfig struct {
	Source string `koanf:"source"` // "static" | "cbr"
	Base   string `koanf:"base"`   // base currency of all projections
	CBRURL string `koanf:"cbr_url"`
}

// Default returns the configuration used when no variables are set.
func Default() Config {
	th := metrics.DefaultThresholds()
	return Config{
		HTTP:     HTTPConfig{Addr: ":8080", Rate: 20, Burst: 40},
		Storage:  StorageConfig{Mode: StorageMemory},
		Postgres: PostgresConfig{ConnectAttempts: 5, ConnectDelay: 2 * time.Second},
		Forecast: ForecastConfig{
			HorizonDays: 90,
			Cron:        "0 5 * * *",
			Scenarios:   strings.Join([]string{domain.ScenarioBaseline, domain.ScenarioConservative, domain.ScenarioStressed}, ","),
		},
		Thresholds: ThresholdsConfig{
			HighRiskFloor:   th.HighRiskFloor,
			MediumRiskFloor: th.MediumRiskFloor,
			VolatilityRatio: th.VolatilityRatio,
			TrendRatio:      th.TrendRatio,
		},
		Log:   LogConfig{Level: "info", Format: "json"},
		OTel:  OTelConfig{ServiceName: "finance-dashboard"},
		SMTP:  SMTPConfig{Port: 587},
		Rates: RatesConfig{Source: "static", Base: "USD"},
	}
}

// Load reads .env (if present) and FINANCE_* variables over Default().
func Load() (*Config, error) {
	LoadEnvFile(".env")
	return LoadFromEnv()
}

// LoadFromEnv reads FINANCE_* variables over Default() without touching .env.
func LoadFromEnv() (*Config, error) {
	k := koanf.New(".")
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := Default()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// envKey maps FINANCE_FORECAST_HORIZON_DAYS to forecast.horizon_days.
// Only the first underscore after the prefix separates the section.
func envKey(s string) string {
	return strings.Replace(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "_", ".", 1)
}

// Validate checks the configuration for inconsistencies.
func (c *Config) Validate() error {
	var errs []error

	switch c.Storage.Mode {
	case StorageMemory:
	case StorageDB:
		if c.Postgres.DSN == "" {
			errs = append(errs, errors.New("postgres.dsn is required in db mode"))
		}
		if c.ClickHouse.DSN == "" {
			errs = append(errs, errors.New("clickhouse.dsn is required in db mode"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.mode must be %q or %q, got %q", StorageMemory, StorageDB, c.Storage.Mode))
	}

	if c.Forecast.HorizonDays <= 0 || c.Forecast.HorizonDays > simulation.MaxHorizonDays {
		errs = append(errs, fmt.Errorf("forecast.horizon_days must be in 1..%d, got %d",
			simulation.MaxHorizonDays, c.Forecast.HorizonDays))
	}
	if _, err := c.ScenarioConfigs(); err != nil {
		errs = append(errs, err)
	}
	if c.HTTP.Rate <= 0 || c.HTTP.Burst <= 0 {
		errs = append(errs, errors.New("http.rate and http.burst must be positive"))
	}
	switch c.Rates.Source {
	case "static", "cbr":
	default:
		errs = append(errs, fmt.Errorf("rates.source must be static or cbr, got %q", c.Rates.Source))
	}

	return errors.Join(errs...)
}

// ScenarioConfigs resolves Forecast.Scenarios to predefined scenario configs.
func (c *Config) ScenarioConfigs() ([]domain.ScenarioConfig, error) {
	var result []domain.ScenarioConfig
	for _, id := range strings.Split(c.Forecast.Scenarios, ",") {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		sc, ok := domain.ScenarioByID(id)
		if !ok {
			return nil, fmt.Errorf("forecast.scenarios: unknown scenario %q", id)
		}
		result = append(result, sc)
	}
	if len(result) == 0 {
		return nil, errors.New("forecast.scenarios: at least one scenario is required")
	}
	return result, nil
}

// MetricsThresholds converts the thresholds section for the metrics engine.
func (c *Config) MetricsThresholds() metrics.Thresholds {
	return metrics.Thresholds{
		HighRiskFloor:   c.Thresholds.HighRiskFloor,
		MediumRiskFloor: c.Thresholds.MediumRiskFloor,
		VolatilityRatio: c.Thresholds.VolatilityRatio,
		TrendRatio:      c.Thresholds.TrendRatio,
	}
}

// Recipients splits SMTP.To into addresses.
func (c *Config) Recipients() []string {
	var out []string
	for _, r := range strings.Split(c.SMTP.To, ",") {
		if r = strings.TrimSpace(r); r != "" {
			out = append(out, r)
		}
	}
	return out
}

// LoadEnvFile sets variables from a KEY=VALUE file.
// Existing environment variables win. A missing file is ignored.
func LoadEnvFile(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"`)

		if _, set := os.LookupEnv(key); !set {
			os.Setenv(key, value)
		}
	}
}
