package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Data providers.
const (
	ProviderFinnhub = "finnhub"
	ProviderYahoo   = "yahoo"
	ProviderMock    = "mock"
)

// Config holds all application configuration.
type Config struct {
	DataSource struct {
		Provider     string `yaml:"provider"`
		BaseURL      string `yaml:"base_url"`
		APIKey       string `yaml:"api_key"`
		Resolution   string `yaml:"resolution"`
		Lookback     string `yaml:"lookback"`
		From         int64  `yaml:"from"`
		To           int64  `yaml:"to"`
		Interval     string `yaml:"interval"`
		Range        string `yaml:"range"`
		FetchTimeout string `yaml:"fetch_timeout"`
		Workers      int    `yaml:"workers"`
		Retries      int    `yaml:"retries"`
	} `yaml:"data_source"`
	Strategy struct {
		ShortWindow int `yaml:"short_window"`
		LongWindow  int `yaml:"long_window"`
	} `yaml:"strategy"`
	Portfolio struct {
		StartingCash float64 `yaml:"starting_cash"`
	} `yaml:"portfolio"`
	Schedule struct {
		PollInterval string `yaml:"poll_interval"`
		PollCron     string `yaml:"poll_cron"`
		MarketHours  bool   `yaml:"market_hours"`
	} `yaml:"schedule"`
	TradeLog struct {
		File        string `yaml:"file"`
		SQLitePath  string `yaml:"sqlite_path"`
		PostgresDSN string `yaml:"postgres_dsn"`
	} `yaml:"trade_log"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
		Commands bool   `yaml:"commands"`
	} `yaml:"telegram"`
	Symbols       []string `yaml:"symbols"`
	CommandBuffer int      `yaml:"command_buffer"`
	Proxy         string   `yaml:"proxy"`
}

// Load reads .env and the YAML file at path (both optional), then applies
// environment variable overrides and defaults.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if len(data) > 0 {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("API_KEY"); v != "" {
		c.DataSource.APIKey = v
	}
	if v := os.Getenv("FINNHUB_API_KEY"); v != "" {
		c.DataSource.APIKey = v
	}
	if v := os.Getenv("DATA_BASE_URL"); v != "" {
		c.DataSource.BaseURL = v
	}
	if v := os.Getenv("DATA_PROVIDER"); v != "" {
		c.DataSource.Provider = strings.ToLower(v)
	}
	if v := os.Getenv("STARTING_CASH"); v != "" {
		cash, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("parse STARTING_CASH: %w", err)
		}
		c.Portfolio.StartingCash = cash
	}
	if v := os.Getenv("POLL_INTERVAL"); v != "" {
		c.Schedule.PollInterval = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		c.Telegram.ChatID = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		c.Proxy = v
	}
	if v := os.Getenv("TRADE_LOG_FILE"); v != "" {
		c.TradeLog.File = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		c.TradeLog.SQLitePath = v
	}
	if v := os.Getenv("POSTGRES_DSN"); v != "" {
		c.TradeLog.PostgresDSN = v
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.DataSource.Provider == "" {
		c.DataSource.Provider = ProviderFinnhub
	}
	if c.DataSource.BaseURL == "" && c.DataSource.Provider == ProviderFinnhub {
		c.DataSource.BaseURL = "https://finnhub.io/api/v1"
	}
	if c.DataSource.APIKey == "" {
		c.DataSource.APIKey = "demo"
	}
	if c.DataSource.FetchTimeout == "" {
		c.DataSource.FetchTimeout = "10s"
	}
	if c.DataSource.Workers == 0 {
		c.DataSource.Workers = 4
	}
	if c.Strategy.ShortWindow == 0 {
		c.Strategy.ShortWindow = 10
	}
	if c.Strategy.LongWindow == 0 {
		c.Strategy.LongWindow = 50
	}
	if c.Portfolio.StartingCash == 0 {
		c.Portfolio.StartingCash = 10000
	}
	if c.Schedule.PollInterval == "" {
		c.Schedule.PollInterval = "5s"
	}
	if c.TradeLog.File == "" {
		c.TradeLog.File = "trades.log"
	}
	if c.CommandBuffer == 0 {
		c.CommandBuffer = 16
	}
}

// Validate checks that all fields are usable.
func (c *Config) Validate() error {
	switch c.DataSource.Provider {
	case ProviderFinnhub, ProviderYahoo, ProviderMock:
	default:
		return fmt.Errorf("data_source.provider must be one of finnhub, yahoo, mock, got %q", c.DataSource.Provider)
	}
	if c.DataSource.Workers < 1 {
		return fmt.Errorf("data_source.workers must be positive")
	}
	if c.DataSource.From != 0 && c.DataSource.To != 0 && c.DataSource.From >= c.DataSource.To {
		return fmt.Errorf("data_source.from must be before data_source.to")
	}
	if c.Strategy.ShortWindow < 1 || c.Strategy.LongWindow < 1 {
		return fmt.Errorf("strategy windows must be positive")
	}
	if c.Strategy.ShortWindow >= c.Strategy.LongWindow {
		return fmt.Errorf("strategy.short_window must be smaller than strategy.long_window")
	}
	if c.Portfolio.StartingCash <= 0 {
		return fmt.Errorf("portfolio.starting_cash must be positive")
	}
	if c.CommandBuffer < 1 {
		return fmt.Errorf("command_buffer must be positive")
	}
	if c.Telegram.BotToken != "" && c.Telegram.ChatID == "" {
		return fmt.Errorf("telegram.chat_id is required with telegram.bot_token")
	}
	if _, err := c.PollInterval(); err != nil {
		return err
	}
	if _, err := c.FetchTimeout(); err != nil {
		return err
	}
	if _, err := c.Lookback(); err != nil {
		return err
	}
	return nil
}

// PollInterval parses schedule.poll_interval.
func (c *Config) PollInterval() (time.Duration, error) {
	return positiveDuration("schedule.poll_interval", c.Schedule.PollInterval)
}

// FetchTimeout parses data_source.fetch_timeout.
func (c *Config) FetchTimeout() (time.Duration, error) {
	return positiveDuration("data_source.fetch_timeout", c.DataSource.FetchTimeout)
}

// Lookback parses data_source.lookback. Zero means the source default.
func (c *Config) Lookback() (time.Duration, error) {
	if c.DataSource.Lookback == "" {
		return 0, nil
	}
	return positiveDuration("data_source.lookback", c.DataSource.Lookback)
}

// Window returns the fixed candle window, zero when unset.
func (c *Config) Window() (from, to time.Time) {
	if c.DataSource.From == 0 || c.DataSource.To == 0 {
		return time.Time{}, time.Time{}
	}
	return time.Unix(c.DataSource.From, 0).UTC(), time.Unix(c.DataSource.To, 0).UTC()
}

// Redacted returns a copy safe to print.
func (c *Config) Redacted() Config {
	out := *c
	out.Symbols = append([]string(nil), c.Symbols...)
	out.DataSource.APIKey = redact(out.DataSource.APIKey)
	out.Telegram.BotToken = redact(out.Telegram.BotToken)
	out.TradeLog.PostgresDSN = redact(out.TradeLog.PostgresDSN)
	return out
}

// YAML renders the redacted config.
func (c *Config) YAML() (string, error) {
	data, err := yaml.Marshal(c.Redacted())
	if err != nil {
		return "", fmt.Errorf("marshal config: %w", err)
	}
	return string(data), nil
}

func redact(s string) string {
	if s == "" || s == "demo" {
		return s
	}
	return "***"
}

func positiveDuration(name, v string) (time.Duration, error) {
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", name, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive", name)
	}
	return d, nil
}
