package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"strconv"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
)

type Config struct {
	Env      string `env:"ENV" envDefault:"local" validate:"required,oneof=local test staging production"`
	Port     string `env:"PORT" envDefault:"8080" validate:"required"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error"`

	MetricsPort string `env:"METRICS_PORT" envDefault:"9090"`

	DBHost     string `env:"DB_HOST,required"     validate:"required"`
	DBPort     int    `env:"DB_PORT"              envDefault:"5432" validate:"min=1,max=65535"`
	DBUsername string `env:"DB_USERNAME,required" validate:"required"`
	DBPassword string `env:"DB_PASSWORD,required" validate:"required"`
	DBDatabase string `env:"DB_DATABASE,required" validate:"required"`
	DBSSLMode  string `env:"DB_SSLMODE"           envDefault:"prefer" validate:"oneof=disable allow prefer require verify-ca verify-full"`

	// AutoMigrate applies pending migrations at startup. Unset means "on
	// everywhere except production".
	AutoMigrate *bool `env:"AUTO_MIGRATE"`

	JWTSecret string `env:"JWT_SECRET,required" validate:"required,min=32"`
}

func Load() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// IsProduction reports whether the process runs in production mode. It gates
// error detail exposure and the migration convenience toggle.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func (c *Config) ShouldAutoMigrate() bool {
	if c.AutoMigrate != nil {
		return *c.AutoMigrate
	}
	return !c.IsProduction()
}

// DatabaseURL assembles a postgres connection URL from the DB_* fields.
func (c *Config) DatabaseURL() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.DBUsername, c.DBPassword),
		Host:   c.DBHost + ":" + strconv.Itoa(c.DBPort),
		Path:   "/" + c.DBDatabase,
	}
	q := u.Query()
	q.Set("sslmode", c.DBSSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
