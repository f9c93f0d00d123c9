package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/kjannette/stocks-backend/internal/models"
)

type Config struct {
	AppName         string
	WebhookURL      string
	APIPort         int
	APIKey          string
	CORSAllowOrigin string
	LogLevel        string

	// Upstream
	YahooBaseURL      string
	YahooLandingURL   string
	UserAgent         string
	AcceptLanguage    string
	RequestsPerSecond float64

	// Polling
	PollIntervalSeconds int
	Symbols             []string
	PortfolioFile       string
	DetailSymbol        string
	DetailRange         string

	// Database
	DBEnabled  bool
	DBHost     string
	DBPort     int
	DBName     string
	DBUser     string
	DBPassword string

	// Kafka
	KafkaBrokerURL string
	KafkaTopic     string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		AppName:         envStr("APP_NAME", "StocksBackend"),
		WebhookURL:      envStr("WEBHOOK_URL", ""),
		APIPort:         envInt("API_PORT", 3001),
		APIKey:          envStr("API_KEY", ""),
		CORSAllowOrigin: envStr("CORS_ALLOW_ORIGIN", "*"),
		LogLevel:        envStr("LOG_LEVEL", "info"),

		YahooBaseURL:      envStr("YAHOO_BASE_URL", "https://query1.finance.yahoo.com"),
		YahooLandingURL:   envStr("YAHOO_LANDING_URL", "https://finance.yahoo.com/"),
		UserAgent:         envStr("USER_AGENT", "Mozilla/5.0"),
		AcceptLanguage:    envStr("ACCEPT_LANGUAGE", "en-US"),
		RequestsPerSecond: envFloat("REQUESTS_PER_SECOND", 4),

		PollIntervalSeconds: envInt("POLL_INTERVAL_SECONDS", 15),
		Symbols:             envList("SYMBOLS"),
		PortfolioFile:       envStr("PORTFOLIO_FILE", ""),
		DetailSymbol:        strings.ToUpper(envStr("DETAIL_SYMBOL", "")),
		DetailRange:         envStr("DETAIL_RANGE", "1d"),

		DBEnabled:  envBool("DB_ENABLED", false),
		DBHost:     envStr("DB_HOST", "localhost"),
		DBPort:     envInt("DB_PORT", 5432),
		DBName:     envStr("DB_NAME", "stocks"),
		DBUser:     envStr("DB_USER", ""),
		DBPassword: envStr("DB_PASSWORD", ""),

		KafkaBrokerURL: envStr("KAFKA_BROKER_URL", ""),
		KafkaTopic:     envStr("KAFKA_TOPIC", "quotes"),
	}

	return cfg, nil
}

func (c *Config) Validate(log zerolog.Logger) error {
	var errs []string

	if c.APIPort <= 0 || c.APIPort > 65535 {
		errs = append(errs, fmt.Sprintf("API_PORT %d is out of range", c.APIPort))
	}
	if c.PollIntervalSeconds <= 0 {
		errs = append(errs, "POLL_INTERVAL_SECONDS must be positive")
	}
	if c.RequestsPerSecond < 0 {
		errs = append(errs, "REQUESTS_PER_SECOND must not be negative")
	}
	if _, err := models.ParseTimeRange(c.DetailRange); err != nil {
		errs = append(errs, fmt.Sprintf("DETAIL_RANGE: %v", err))
	}
	if c.DBEnabled && c.DBUser == "" {
		errs = append(errs, "DB_USER is required when DB_ENABLED is set")
	}
	if c.APIKey == "" {
		log.Warn().Msg("API_KEY not set, REST API has no authentication")
	}
	if len(c.Symbols) == 0 && c.PortfolioFile == "" {
		log.Warn().Msg("neither SYMBOLS nor PORTFOLIO_FILE set, portfolio starts empty")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  %s", strings.Join(errs, "\n  "))
	}
	return nil
}

func (c *Config) Print(log zerolog.Logger) {
	log.Info().
		Str("app", c.AppName).
		Int("api_port", c.APIPort).
		Str("upstream", c.YahooBaseURL).
		Float64("requests_per_second", c.RequestsPerSecond).
		Dur("poll_interval", c.PollInterval()).
		Strs("symbols", c.Symbols).
		Str("portfolio_file", c.PortfolioFile).
		Str("detail", c.DetailSymbol+" "+c.DetailRange).
		Bool("database", c.DBEnabled).
		Str("kafka", boolLabel(c.KafkaBrokerURL != "", c.KafkaTopic, "disabled")).
		Str("webhook", boolLabel(c.WebhookURL != "", "configured", "not set")).
		Msg("configuration")
}

func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSeconds) * time.Second
}

func (c *Config) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName)
}

// ParseLevel maps LOG_LEVEL onto zerolog; unknown values mean info.
func ParseLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	}
	return zerolog.InfoLevel
}

// --- helpers ---

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		v = strings.ToLower(v)
		return v == "true" || v == "1" || v == "yes"
	}
	return fallback
}

func envList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func boolLabel(cond bool, ifTrue, ifFalse string) string {
	if cond {
		return ifTrue
	}
	return ifFalse
}
