package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type SMTP struct {
	Host      string
	Port      int
	Username  string
	Password  string
	FromName  string
	FromEmail string
}

type Config struct {
	Env       string
	Addr      string
	PublicURL *url.URL
	DBDSN     string
	LogLevel  string

	AccessTokenSecret string
	AccessTokenTTL    time.Duration
	RefreshTokenTTL   time.Duration

	// RotateRefreshTokens replaces the refresh credential on every
	// successful refresh. RevokeSiblingsOnReuse treats presentation of a
	// revoked token as theft and kills every live token of that user.
	RotateRefreshTokens   bool
	RevokeSiblingsOnReuse bool

	CleanupInterval time.Duration
	RevokedTokenTTL time.Duration

	ResetTokenTTL time.Duration
	SMTP          SMTP

	FCMProjectID       string
	FCMCredentialsPath string

	CalendarCredentialsPath string
	CalendarID              string

	SuperadminBootstrapEmail    string
	SuperadminBootstrapPassword string
}

func Load() (Config, error) {
	return LoadFromEnv(os.Getenv)
}

func LoadFromEnv(getenv func(string) string) (Config, error) {
	cfg := Config{
		Env:               getenv("APP_ENV"),
		Addr:              getenv("APP_ADDR"),
		DBDSN:             getenv("APP_DB_DSN"),
		LogLevel:          getenv("APP_LOG_LEVEL"),
		AccessTokenSecret: getenv("APP_ACCESS_TOKEN_SECRET"),

		FCMProjectID:       getenv("APP_FCM_PROJECT_ID"),
		FCMCredentialsPath: getenv("APP_FCM_CREDENTIALS"),

		CalendarCredentialsPath: getenv("APP_CALENDAR_CREDENTIALS"),
		CalendarID:              getenv("APP_CALENDAR_ID"),

		SuperadminBootstrapEmail:    strings.TrimSpace(strings.ToLower(getenv("APP_SUPERADMIN_EMAIL"))),
		SuperadminBootstrapPassword: getenv("APP_SUPERADMIN_PASSWORD"),
	}

	if cfg.Env == "" {
		cfg.Env = "dev"
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8080"
	}
	switch cfg.Env {
	case "dev", "prod", "test":
	default:
		return Config{}, errors.New("APP_ENV: must be one of dev, test, prod")
	}

	publicURLRaw := getenv("APP_PUBLIC_URL")
	if publicURLRaw != "" {
		parsed, err := url.Parse(publicURLRaw)
		if err != nil {
			return Config{}, fmt.Errorf("APP_PUBLIC_URL: %w", err)
		}
		if !parsed.IsAbs() || parsed.Host == "" {
			return Config{}, errors.New("APP_PUBLIC_URL: must be an absolute URL")
		}
		cfg.PublicURL = parsed
	}

	var err error
	if cfg.AccessTokenTTL, err = durationEnv(getenv, "APP_ACCESS_TOKEN_TTL", 15*time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.RefreshTokenTTL, err = durationEnv(getenv, "APP_REFRESH_TOKEN_TTL", 30*24*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.CleanupInterval, err = durationEnv(getenv, "APP_CLEANUP_INTERVAL", time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.RevokedTokenTTL, err = durationEnv(getenv, "APP_REVOKED_TOKEN_TTL", 30*24*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.ResetTokenTTL, err = durationEnv(getenv, "APP_RESET_TOKEN_TTL", 2*time.Hour); err != nil {
		return Config{}, err
	}

	if cfg.RotateRefreshTokens, err = boolEnv(getenv, "APP_ROTATE_REFRESH_TOKENS", true); err != nil {
		return Config{}, err
	}
	if cfg.RevokeSiblingsOnReuse, err = boolEnv(getenv, "APP_REVOKE_SIBLINGS_ON_REUSE", true); err != nil {
		return Config{}, err
	}

	cfg.SMTP = SMTP{
		Host:      getenv("APP_SMTP_HOST"),
		Username:  getenv("APP_SMTP_USERNAME"),
		Password:  getenv("APP_SMTP_PASSWORD"),
		FromName:  getenv("APP_SMTP_FROM_NAME"),
		FromEmail: getenv("APP_SMTP_FROM_EMAIL"),
	}
	if portRaw := getenv("APP_SMTP_PORT"); portRaw != "" {
		port, err := strconv.Atoi(portRaw)
		if err != nil || port <= 0 {
			return Config{}, errors.New("APP_SMTP_PORT: must be a positive integer")
		}
		cfg.SMTP.Port = port
	} else {
		cfg.SMTP.Port = 587
	}

	if cfg.SuperadminBootstrapPassword != "" {
		if cfg.SuperadminBootstrapEmail == "" {
			return Config{}, errors.New("APP_SUPERADMIN_EMAIL: required when APP_SUPERADMIN_PASSWORD is set")
		}
		if len(cfg.SuperadminBootstrapPassword) < 12 {
			return Config{}, errors.New("APP_SUPERADMIN_PASSWORD: must be at least 12 characters")
		}
	}

	if cfg.IsProd() {
		if cfg.DBDSN == "" {
			return Config{}, errors.New("APP_DB_DSN: required in prod")
		}
		if len(cfg.AccessTokenSecret) < 32 {
			return Config{}, errors.New("APP_ACCESS_TOKEN_SECRET: must be at least 32 bytes in prod")
		}
	}

	return cfg, nil
}

func (c Config) IsProd() bool { return c.Env == "prod" }

func durationEnv(getenv func(string) string, key string, def time.Duration) (time.Duration, error) {
	raw := getenv(key)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s: must be > 0", key)
	}
	return d, nil
}

func boolEnv(getenv func(string) string, key string, def bool) (bool, error) {
	raw := strings.TrimSpace(strings.ToLower(getenv(key)))
	if raw == "" {
		return def, nil
	}
	switch raw {
	case "1", "true", "yes", "on":
		return true, nil
	case "0", "false", "no", "off":
		return false, nil
	}
	return false, fmt.Errorf("%s: must be a boolean", key)
}
