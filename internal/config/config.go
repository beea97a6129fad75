package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

type Config struct {
	Env  string
	Port string

	Store string // postgres | memory
	DSN   string

	RedisURL     string
	RedisChannel string

	JWTSecret  string
	SessionTTL time.Duration
	AdminUser  string
	AdminPass  string

	RelaySecret   string
	EventTimezone *time.Location
}

func (c Config) Production() bool { return c.Env == "production" || c.Env == "prod" }

func env(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

// FromEnv reads the process environment; callers load .env first.
func FromEnv() (Config, error) {
	c := Config{
		Env:          strings.ToLower(env("APP_ENV", "development")),
		Port:         env("PORT", "8080"),
		Store:        strings.ToLower(env("STORE", "postgres")),
		DSN:          dsn(),
		RedisURL:     env("REDIS_URL", ""),
		RedisChannel: env("REDIS_CHANNEL", "rodada:changes"),
		JWTSecret:    env("JWT_SECRET", ""),
		AdminUser:    env("ADMIN_USER", "admin"),
		AdminPass:    env("ADMIN_PASS", "admin123"),
		RelaySecret:  env("RELAY_SECRET", ""),
	}
	if c.Store != "postgres" && c.Store != "memory" {
		return c, fmt.Errorf("invalid STORE: %q", c.Store)
	}

	ttl, err := time.ParseDuration(env("SESSION_TTL", "12h"))
	if err != nil || ttl <= 0 {
		return c, fmt.Errorf("invalid SESSION_TTL: %q", os.Getenv("SESSION_TTL"))
	}
	c.SessionTTL = ttl

	loc, err := time.LoadLocation(env("EVENT_TIMEZONE", "America/Sao_Paulo"))
	if err != nil {
		return c, fmt.Errorf("EVENT_TIMEZONE: %w", err)
	}
	c.EventTimezone = loc

	if c.JWTSecret == "" {
		if c.Production() {
			return c, errors.New("JWT_SECRET is required in production")
		}
		c.JWTSecret = "dev"
	}
	return c, nil
}

func dsn() string {
	if v := env("DB_DSN", ""); v != "" {
		return v
	}
	return "host=" + env("DB_HOST", "localhost") +
		" user=" + env("DB_USER", env("POSTGRES_USER", "postgres")) +
		" password=" + env("DB_PASSWORD", env("POSTGRES_PASSWORD", "postgres")) +
		" dbname=" + env("DB_NAME", env("POSTGRES_DB", "rodada")) +
		" port=" + env("DB_PORT", "5432") +
		" sslmode=" + env("DB_SSLMODE", "disable")
}
