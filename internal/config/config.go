package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

const (
	defaultHTTPAddr       = ":8080"
	defaultDatabaseURL    = "uav_rental.db"
	defaultSessionTTL     = "24h"
	defaultAPITokenTTL    = "720h"
	defaultCookieSecure   = "false"
	defaultCookieSameSite = "Lax"
	defaultLogLevel       = "info"
	defaultJWTSecret      = "change-me-jwt-secret"
	defaultTokenPepper    = "change-me-token-pepper"
)

type Config struct {
	AppEnv         string
	HTTPAddr       string
	DatabaseURL    string
	JWTSecret      string
	SessionTTL     time.Duration
	APITokenTTL    time.Duration // 0 means API tokens never expire
	APITokenPepper string
	CookieSecure   bool
	CookieSameSite string
	LogLevel       string
	RabbitMQURL    string
	CORSOrigins    []string
}

func Load() (*Config, error) {
	cfg := &Config{}
	appEnv := strings.TrimSpace(os.Getenv("APP_ENV"))
	if appEnv == "" {
		appEnv = strings.TrimSpace(os.Getenv("ENV"))
	}
	if appEnv == "" {
		appEnv = "dev"
	}
	cfg.AppEnv = strings.ToLower(appEnv)

	cfg.HTTPAddr = strings.TrimSpace(getEnv("HTTP_ADDR", defaultHTTPAddr))
	cfg.DatabaseURL = strings.TrimSpace(getEnv("DATABASE_URL", defaultDatabaseURL))
	cfg.JWTSecret = strings.TrimSpace(getEnv("JWT_SECRET", defaultJWTSecret))
	cfg.APITokenPepper = strings.TrimSpace(getEnv("API_TOKEN_PEPPER", defaultTokenPepper))
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(getEnv("LOG_LEVEL", defaultLogLevel)))
	cfg.RabbitMQURL = strings.TrimSpace(os.Getenv("RABBITMQ_URL"))

	var err error
	cfg.SessionTTL, err = parseDurationEnv("SESSION_TTL", defaultSessionTTL)
	if err != nil {
		return nil, err
	}

	cfg.APITokenTTL, err = parseDurationEnv("API_TOKEN_TTL", defaultAPITokenTTL)
	if err != nil {
		return nil, err
	}

	cfg.CookieSecure = parseBoolEnv("COOKIE_SECURE", defaultCookieSecure)
	cfg.CookieSameSite = strings.TrimSpace(getEnv("COOKIE_SAMESITE", defaultCookieSameSite))

	if extra := os.Getenv("CORS_ALLOWED_ORIGINS"); extra != "" {
		for _, o := range strings.Split(extra, ",") {
			o = strings.TrimSpace(o)
			if o != "" {
				cfg.CORSOrigins = append(cfg.CORSOrigins, o)
			}
		}
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// IsProduction reports whether the app runs in a prod-like environment.
func (c *Config) IsProduction() bool {
	return isProdLike(c.AppEnv)
}

func validateConfig(cfg *Config) error {
	if cfg.HTTPAddr == "" {
		return fmt.Errorf("HTTP_ADDR must not be empty")
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL must not be empty")
	}
	if cfg.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be > 0")
	}
	if cfg.APITokenTTL < 0 {
		return fmt.Errorf("API_TOKEN_TTL must be >= 0")
	}
	if cfg.CookieSameSite == "" {
		return fmt.Errorf("COOKIE_SAMESITE must not be empty")
	}
	sameSite := strings.ToLower(cfg.CookieSameSite)
	if sameSite != "lax" && sameSite != "none" && sameSite != "strict" {
		return fmt.Errorf("COOKIE_SAMESITE must be one of: Lax, None, Strict")
	}
	if sameSite == "none" && !cfg.CookieSecure {
		return fmt.Errorf("COOKIE_SECURE must be true when COOKIE_SAMESITE=None")
	}
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of: debug, info, warn, error")
	}

	if isProdLike(cfg.AppEnv) {
		if isEmptyOrDefault(cfg.JWTSecret, defaultJWTSecret) {
			return fmt.Errorf("in prod/release JWT_SECRET must be set and not default")
		}
		if isEmptyOrDefault(cfg.APITokenPepper, defaultTokenPepper) {
			return fmt.Errorf("in prod/release API_TOKEN_PEPPER must be set and not default")
		}
		if !cfg.CookieSecure {
			return fmt.Errorf("in prod/release COOKIE_SECURE must be true")
		}
	}

	return nil
}

func isProdLike(env string) bool {
	env = strings.ToLower(strings.TrimSpace(env))
	return env == "prod" || env == "production" || env == "release"
}

func isEmptyOrDefault(v, def string) bool {
	trimmed := strings.TrimSpace(v)
	return trimmed == "" || trimmed == def
}

func parseDurationEnv(name, fallback string) (time.Duration, error) {
	value := strings.TrimSpace(getEnv(name, fallback))
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return d, nil
}

func parseBoolEnv(name, fallback string) bool {
	value := strings.ToLower(strings.TrimSpace(getEnv(name, fallback)))
	return value == "1" || value == "true" || value == "yes" || value == "on"
}

func getEnv(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}
