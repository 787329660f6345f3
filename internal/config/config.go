package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	HTTPAddr string     `env:"HTTP_ADDR" envDefault:":8080"`
	DBPath   string     `env:"DB_PATH" envDefault:"data/forkreel.db"`
	LogLevel slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`

	// RedisURL enables the pattern response cache when set. Empty disables
	// Redis entirely; the service runs fine without it.
	RedisURL        string        `env:"REDIS_URL"`
	PatternCacheTTL time.Duration `env:"PATTERN_CACHE_TTL" envDefault:"5m"`

	// SeedDemo loads a demo pattern with a full DirectorPack on first boot.
	SeedDemo bool `env:"SEED_DEMO" envDefault:"true"`

	// Bootstrap admin credentials, applied once when the admins table is
	// empty. Leave both empty to skip.
	AdminEmail    string `env:"ADMIN_EMAIL"`
	AdminPassword string `env:"ADMIN_PASSWORD"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	return &cfg, nil
}
