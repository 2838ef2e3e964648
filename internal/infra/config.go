package infra

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv           string
	Port             string
	DatabaseURL      string
	JWTSecret        string
	PublicBaseURL    string
	GeoIPDBPath      string
	DefaultLanguage  string
	OpenAIAPIKey     string
	OpenAIModel      string
	OpenAIBaseURL    string
	OpenAIOrg        string
	SunoAPIKey       string
	SunoAPIBase      string
	SunoModel        string
	TelegramBotToken string
	TelegramAPIBase  string
	PollInterval     time.Duration
	PollTimeout      time.Duration
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	RateLimitPerMin  int
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:           getEnv("APP_ENV", "development"),
		Port:             getEnv("PORT", "8080"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		JWTSecret:        os.Getenv("JWT_SECRET"),
		PublicBaseURL:    getEnv("PUBLIC_BASE_URL", "http://localhost:8080"),
		GeoIPDBPath:      os.Getenv("GEOIP_DB_PATH"),
		DefaultLanguage:  getEnv("DEFAULT_LANGUAGE", "en"),
		OpenAIAPIKey:     os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:      getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBaseURL:    getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIOrg:        os.Getenv("OPENAI_ORG"),
		SunoAPIKey:       os.Getenv("SUNO_API_KEY"),
		SunoAPIBase:      getEnv("SUNO_API_BASE", "https://api.sunoapi.org"),
		SunoModel:        getEnv("SUNO_MODEL", "V4_5"),
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramAPIBase:  getEnv("TELEGRAM_API_BASE", "https://api.telegram.org"),
		PollInterval:     time.Second * time.Duration(getEnvInt("AUDIO_POLL_INTERVAL_SECONDS", 5)),
		PollTimeout:      time.Second * time.Duration(getEnvInt("AUDIO_POLL_TIMEOUT_SECONDS", 420)),
		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:  getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	return cfg, nil
}

// CallbackURL is the public endpoint the audio provider pushes completion to.
func (c *Config) CallbackURL() string {
	return c.PublicBaseURL + "/v1/audio/callback"
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
