package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadAndValidate(t *testing.T) {
	path := writeConfig(t, `
telegram:
  bot_token: "test_token"
  max_retries: 5

odds_api:
  api_key: "test_key"
  base_url: "https://odds.example.com/v4"
  timeout: 8s

flow:
  idle_timeout: 90s
  max_choices: 10

logging:
  level: "debug"
  format: "text"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "test_token", cfg.Telegram.BotToken)
	assert.Equal(t, 5, cfg.Telegram.MaxRetries)
	assert.Equal(t, "test_key", cfg.OddsAPI.APIKey)
	assert.Equal(t, "https://odds.example.com/v4", cfg.OddsAPI.BaseURL)
	assert.Equal(t, 8*time.Second, cfg.OddsAPI.Timeout)
	assert.Equal(t, 90*time.Second, cfg.Flow.IdleTimeout)
	assert.Equal(t, 10, cfg.Flow.MaxChoices)
	assert.Equal(t, "debug", cfg.Logging.Level)

	require.NoError(t, cfg.Validate())
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "env_token")
	t.Setenv("ODDS_API_KEY", "env_key")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "env_token", cfg.Telegram.BotToken)
	assert.Equal(t, "env_key", cfg.OddsAPI.APIKey)
	assert.Equal(t, "https://api.the-odds-api.com/v4", cfg.OddsAPI.BaseURL)
	assert.Equal(t, 12*time.Second, cfg.OddsAPI.Timeout)
	assert.Equal(t, "us", cfg.OddsAPI.Regions)
	assert.Equal(t, []string{"h2h", "spreads", "totals"}, cfg.OddsAPI.MarketList())
	assert.Equal(t, "decimal", cfg.OddsAPI.OddsFormat)
	assert.Equal(t, 120*time.Second, cfg.Flow.IdleTimeout)
	assert.Equal(t, 25, cfg.Flow.MaxChoices)
	assert.Equal(t, 60, cfg.Telegram.UpdateTimeout)
	assert.False(t, cfg.Metrics.Enabled)

	require.NoError(t, cfg.Validate())
}

func TestLoadPrefixedEnvOverride(t *testing.T) {
	t.Setenv("ODDSBOT_TELEGRAM_BOT_TOKEN", "prefixed_token")
	t.Setenv("TELEGRAM_BOT_TOKEN", "plain_token")
	t.Setenv("ODDS_API_KEY", "env_key")
	t.Setenv("ODDSBOT_FLOW_MAX_CHOICES", "5")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "prefixed_token", cfg.Telegram.BotToken)
	assert.Equal(t, 5, cfg.Flow.MaxChoices)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func validConfig() *Config {
	return &Config{
		Telegram: TelegramConfig{
			BotToken:       "token",
			UpdateTimeout:  60,
			MaxRetries:     3,
			RetryDelayBase: time.Second,
			HandlerTimeout: 30 * time.Second,
		},
		OddsAPI: OddsAPIConfig{
			APIKey:     "key",
			BaseURL:    "https://api.the-odds-api.com/v4",
			Timeout:    12 * time.Second,
			Regions:    "us",
			Markets:    "h2h,spreads,totals",
			OddsFormat: "decimal",
		},
		Flow: FlowConfig{
			IdleTimeout:   120 * time.Second,
			MaxChoices:    25,
			MaxSessions:   100,
			SweepInterval: 30 * time.Second,
		},
		Logging: LoggingConfig{Level: "info", Format: "json"},
	}
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *Config) {}, wantErr: false},
		{name: "missing bot token", mutate: func(c *Config) { c.Telegram.BotToken = "" }, wantErr: true},
		{name: "missing api key", mutate: func(c *Config) { c.OddsAPI.APIKey = "" }, wantErr: true},
		{name: "zero fetch timeout", mutate: func(c *Config) { c.OddsAPI.Timeout = 0 }, wantErr: true},
		{name: "american odds format", mutate: func(c *Config) { c.OddsAPI.OddsFormat = "american" }, wantErr: true},
		{name: "too many choices", mutate: func(c *Config) { c.Flow.MaxChoices = 26 }, wantErr: true},
		{name: "no choices", mutate: func(c *Config) { c.Flow.MaxChoices = 0 }, wantErr: true},
		{name: "short idle timeout", mutate: func(c *Config) { c.Flow.IdleTimeout = time.Millisecond }, wantErr: true},
		{name: "metrics without addr", mutate: func(c *Config) { c.Metrics = MetricsConfig{Enabled: true} }, wantErr: true},
		{name: "bad log level", mutate: func(c *Config) { c.Logging.Level = "trace" }, wantErr: true},
		{name: "bad log format", mutate: func(c *Config) { c.Logging.Format = "xml" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestShippedConfigIsValid(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "env_token")
	t.Setenv("ODDS_API_KEY", "env_key")

	cfg, err := Load(filepath.Join("..", "..", "configs", "config.yaml"))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "env_token", cfg.Telegram.BotToken)
	assert.Equal(t, []string{"h2h", "spreads", "totals"}, cfg.OddsAPI.MarketList())
	assert.Equal(t, 120*time.Second, cfg.Flow.IdleTimeout)
}
