package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete application configuration
type Config struct {
	Telegram TelegramConfig `mapstructure:"telegram"`
	OddsAPI  OddsAPIConfig  `mapstructure:"odds_api"`
	Flow     FlowConfig     `mapstructure:"flow"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// TelegramConfig holds Telegram bot configuration
type TelegramConfig struct {
	BotToken       string        `mapstructure:"bot_token"`
	UpdateTimeout  int           `mapstructure:"update_timeout"` // long-poll seconds
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
	HandlerTimeout time.Duration `mapstructure:"handler_timeout"`
}

// OddsAPIConfig holds upstream odds feed configuration
type OddsAPIConfig struct {
	APIKey     string        `mapstructure:"api_key"`
	BaseURL    string        `mapstructure:"base_url"`
	Timeout    time.Duration `mapstructure:"timeout"`
	Regions    string        `mapstructure:"regions"`
	Markets    string        `mapstructure:"markets"`
	OddsFormat string        `mapstructure:"odds_format"`
}

// FlowConfig holds selection flow behavior configuration
type FlowConfig struct {
	IdleTimeout   time.Duration `mapstructure:"idle_timeout"`
	MaxChoices    int           `mapstructure:"max_choices"`
	MaxSessions   int           `mapstructure:"max_sessions"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

// MetricsConfig holds the Prometheus endpoint configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from an optional file and environment variables.
// An empty path skips the file and relies on defaults and the environment.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Enable environment variable override, e.g. ODDSBOT_FLOW_IDLE_TIMEOUT
	v.SetEnvPrefix("ODDSBOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// The two secrets also answer to their conventional unprefixed names
	if err := v.BindEnv("telegram.bot_token", "ODDSBOT_TELEGRAM_BOT_TOKEN", "TELEGRAM_BOT_TOKEN"); err != nil {
		return nil, fmt.Errorf("failed to bind bot token env: %w", err)
	}
	if err := v.BindEnv("odds_api.api_key", "ODDSBOT_ODDS_API_KEY", "ODDS_API_KEY"); err != nil {
		return nil, fmt.Errorf("failed to bind odds api key env: %w", err)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Unmarshal into Config struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults configures default values for all configuration options
func setDefaults(v *viper.Viper) {
	// Telegram defaults
	v.SetDefault("telegram.bot_token", "")
	v.SetDefault("telegram.update_timeout", 60)
	v.SetDefault("telegram.max_retries", 3)
	v.SetDefault("telegram.retry_delay_base", "1s")
	v.SetDefault("telegram.handler_timeout", "30s")

	// Odds API defaults
	v.SetDefault("odds_api.api_key", "")
	v.SetDefault("odds_api.base_url", "https://api.the-odds-api.com/v4")
	v.SetDefault("odds_api.timeout", "12s")
	v.SetDefault("odds_api.regions", "us")
	v.SetDefault("odds_api.markets", "h2h,spreads,totals")
	v.SetDefault("odds_api.odds_format", "decimal")

	// Flow defaults
	v.SetDefault("flow.idle_timeout", "120s")
	v.SetDefault("flow.max_choices", 25)
	v.SetDefault("flow.max_sessions", 1000)
	v.SetDefault("flow.sweep_interval", "30s")

	// Metrics defaults
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.addr", ":9090")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	// Validate Telegram config
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("telegram.bot_token is required (set TELEGRAM_BOT_TOKEN)")
	}
	if c.Telegram.UpdateTimeout < 0 {
		return fmt.Errorf("telegram.update_timeout must not be negative")
	}
	if c.Telegram.MaxRetries < 1 {
		return fmt.Errorf("telegram.max_retries must be at least 1")
	}
	if c.Telegram.HandlerTimeout <= 0 {
		return fmt.Errorf("telegram.handler_timeout must be positive")
	}

	// Validate Odds API config
	if c.OddsAPI.APIKey == "" {
		return fmt.Errorf("odds_api.api_key is required (set ODDS_API_KEY)")
	}
	if c.OddsAPI.BaseURL == "" {
		return fmt.Errorf("odds_api.base_url is required")
	}
	if c.OddsAPI.Timeout <= 0 {
		return fmt.Errorf("odds_api.timeout must be positive")
	}
	if c.OddsAPI.OddsFormat != "decimal" {
		return fmt.Errorf("odds_api.odds_format must be decimal")
	}

	// Validate Flow config
	if c.Flow.IdleTimeout < 1*time.Second {
		return fmt.Errorf("flow.idle_timeout must be at least 1 second")
	}
	if c.Flow.MaxChoices < 1 || c.Flow.MaxChoices > 25 {
		return fmt.Errorf("flow.max_choices must be between 1 and 25")
	}
	if c.Flow.MaxSessions < 1 {
		return fmt.Errorf("flow.max_sessions must be at least 1")
	}
	if c.Flow.SweepInterval <= 0 {
		return fmt.Errorf("flow.sweep_interval must be positive")
	}

	// Validate Metrics config
	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		return fmt.Errorf("metrics.addr is required when metrics are enabled")
	}

	// Validate Logging config
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	return nil
}

// MarketList splits the configured markets into keys.
func (c OddsAPIConfig) MarketList() []string {
	var keys []string
	for _, k := range strings.Split(c.Markets, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}
