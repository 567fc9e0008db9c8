// Package config загружает конфигурацию сервиса из окружения и файла .env.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Prefix: префикс переменных окружения сервиса.
const Prefix = "roster"

// Config: настройки сервиса состава команд.
type Config struct {
	HTTPAddr    string        `envconfig:"HTTP_ADDR" default:":8080"`
	DBDSN       string        `envconfig:"DB_DSN" required:"true"`
	RedisURL    string        `envconfig:"REDIS_URL"`
	CacheTTL    time.Duration `envconfig:"CACHE_TTL" default:"5m"`
	JWTSecret   string        `envconfig:"JWT_SECRET" required:"true"`
	CORSOrigins []string      `envconfig:"CORS_ORIGINS" default:"*"`
	Migrate     bool          `envconfig:"MIGRATE" default:"true"`
	LogLevel    string        `envconfig:"LOG_LEVEL" default:"info"`
}

// Load читает .env (если есть) и переменные ROSTER_*.
func Load(envFiles ...string) (Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load env file: %w", err)
	}

	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("process env: %w", err)
	}
	return cfg, nil
}

// SlogLevel переводит LogLevel в уровень slog; неизвестные значения дают Info.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
