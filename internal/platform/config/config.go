package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

type Config struct {
	AppEnv      string `env:"APP_ENV" default:"development"`
	Port        string `env:"PORT" default:"8080"`
	DatabaseURL string `env:"DATABASE_URL"`
	RedisURL    string `env:"REDIS_URL"`
	APIToken    string `env:"API_TOKEN"`
	LogLevel    string `env:"LOG_LEVEL" default:"info"`
	LogFormat   string `env:"LOG_FORMAT" default:"text"`

	// InstanceID identifies this process on the Redis channels; generated when empty.
	InstanceID string `env:"INSTANCE_ID"`

	TelegramBotToken     string  `env:"TELEGRAM_BOT_TOKEN"`
	TelegramAlertChatIDs []int64 `env:"TELEGRAM_ALERT_CHAT_IDS"`

	AnomalyScanInterval     time.Duration `env:"ANOMALY_SCAN_INTERVAL" default:"1h"`
	SettingsRefreshInterval time.Duration `env:"SETTINGS_REFRESH_INTERVAL" default:"1m"`
	CacheEvictionInterval   time.Duration `env:"CACHE_EVICTION_INTERVAL" default:"1m"`

	APIRateLimit float64 `env:"API_RATE_LIMIT" default:"20"`
	APIRateBurst int     `env:"API_RATE_BURST" default:"40"`
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// AlertsEnabled reports whether anomaly findings go to Telegram rather than the log.
func (c *Config) AlertsEnabled() bool {
	return c.TelegramBotToken != "" && len(c.TelegramAlertChatIDs) > 0
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, &env.Options{SliceSep: ","}); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func validate(cfg *Config) error {
	required := []struct{ name, value string }{
		{"DATABASE_URL", cfg.DatabaseURL},
		{"REDIS_URL", cfg.RedisURL},
		{"API_TOKEN", cfg.APIToken},
	}
	for _, r := range required {
		if r.value == "" {
			return fmt.Errorf("%s is required", r.name)
		}
	}

	if len(cfg.APIToken) < 16 {
		return errors.New("API_TOKEN must be at least 16 characters")
	}

	if cfg.TelegramBotToken != "" && len(cfg.TelegramAlertChatIDs) == 0 {
		return errors.New("TELEGRAM_ALERT_CHAT_IDS is required when TELEGRAM_BOT_TOKEN is set")
	}

	intervals := []struct {
		name  string
		value time.Duration
	}{
		{"ANOMALY_SCAN_INTERVAL", cfg.AnomalyScanInterval},
		{"SETTINGS_REFRESH_INTERVAL", cfg.SettingsRefreshInterval},
		{"CACHE_EVICTION_INTERVAL", cfg.CacheEvictionInterval},
	}
	for _, iv := range intervals {
		if iv.value <= 0 {
			return fmt.Errorf("%s must be positive", iv.name)
		}
	}

	if cfg.APIRateLimit <= 0 || cfg.APIRateBurst <= 0 {
		return errors.New("API_RATE_LIMIT and API_RATE_BURST must be positive")
	}

	if cfg.IsProduction() {
		mode, err := sslMode(cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("DATABASE_URL is invalid: %w", err)
		}
		if mode == "disable" || mode == "allow" {
			return fmt.Errorf("DATABASE_URL uses sslmode=%s which is not allowed in production", mode)
		}
	}

	return nil
}

func sslMode(databaseURL string) (string, error) {
	u, err := url.Parse(databaseURL)
	if err != nil {
		return "", err
	}
	return strings.ToLower(u.Query().Get("sslmode")), nil
}
