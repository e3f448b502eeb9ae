package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finance-dashboard/internal/domain"
	"finance-dashboard/internal/metrics"
)

func TestLoadFromEnv_Defaults(t *testing.T) {
	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, StorageMemory, cfg.Storage.Mode)
	assert.Equal(t, 90, cfg.Forecast.HorizonDays)
	assert.Equal(t, metrics.DefaultThresholds(), cfg.MetricsThresholds())

	scenarios, err := cfg.ScenarioConfigs()
	require.NoError(t, err)
	assert.Len(t, scenarios, 3)
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	t.Setenv("FINANCE_HTTP_ADDR", ":9999")
	t.Setenv("FINANCE_FORECAST_HORIZON_DAYS", "30")
	t.Setenv("FINANCE_FORECAST_SCENARIOS", "baseline, stressed")
	t.Setenv("FINANCE_THRESHOLDS_MEDIUM_RISK_FLOOR", "750.5")
	t.Setenv("FINANCE_POSTGRES_CONNECT_DELAY", "500ms")
	t.Setenv("FINANCE_LOG_LEVEL", "debug")
	t.Setenv("FINANCE_SMTP_TO", "me@example.com, partner@example.com")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":9999", cfg.HTTP.Addr)
	assert.Equal(t, 30, cfg.Forecast.HorizonDays)
	assert.Equal(t, 750.5, cfg.Thresholds.MediumRiskFloor)
	assert.Equal(t, -1000.0, cfg.Thresholds.HighRiskFloor, "unset keys keep defaults")
	assert.Equal(t, 500*time.Millisecond, cfg.Postgres.ConnectDelay)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, []string{"me@example.com", "partner@example.com"}, cfg.Recipients())

	scenarios, err := cfg.ScenarioConfigs()
	require.NoError(t, err)
	require.Len(t, scenarios, 2)
	assert.Equal(t, domain.ScenarioBaseline, scenarios[0].ScenarioID)
	assert.Equal(t, domain.ScenarioStressed, scenarios[1].ScenarioID)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown mode", func(c *Config) { c.Storage.Mode = "redis" }},
		{"db mode without dsn", func(c *Config) { c.Storage.Mode = StorageDB }},
		{"zero horizon", func(c *Config) { c.Forecast.HorizonDays = 0 }},
		{"horizon past max", func(c *Config) { c.Forecast.HorizonDays = 367 }},
		{"unknown scenario", func(c *Config) { c.Forecast.Scenarios = "baseline,optimistic" }},
		{"empty scenarios", func(c *Config) { c.Forecast.Scenarios = " , " }},
		{"bad rate source", func(c *Config) { c.Rates.Source = "ecb" }},
		{"zero burst", func(c *Config) { c.HTTP.Burst = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	cfg := Default()
	cfg.Forecast.HorizonDays = 366
	assert.NoError(t, cfg.Validate(), "max horizon is allowed")

	cfg = Default()
	cfg.Storage.Mode = StorageDB
	cfg.Postgres.DSN = "postgres://localhost/finance"
	cfg.ClickHouse.DSN = "clickhouse://localhost:9000/finance"
	assert.NoError(t, cfg.Validate())
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "forecast.horizon_days", envKey("FINANCE_FORECAST_HORIZON_DAYS"))
	assert.Equal(t, "http.addr", envKey("FINANCE_HTTP_ADDR"))
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := "# comment\nFINANCE_TEST_A=from-file\nFINANCE_TEST_B=\"quoted\"\nBROKEN_LINE\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("FINANCE_TEST_A", "from-env")
	// Registers cleanup for a variable the file will set
	t.Setenv("FINANCE_TEST_B", "")
	os.Unsetenv("FINANCE_TEST_B")

	LoadEnvFile(path)

	assert.Equal(t, "from-env", os.Getenv("FINANCE_TEST_A"))
	assert.Equal(t, "quoted", os.Getenv("FINANCE_TEST_B"))

	// Missing file is a no-op
	LoadEnvFile(filepath.Join(t.TempDir(), "missing.env"))
}
