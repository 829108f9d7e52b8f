package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"anoa.com/softdesk/pkg/database"
	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	AppEnv         string   `env:"APP_ENV, default=development"`
	Port           string   `env:"PORT, default=8080"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS, default=http://localhost:3000"`
	LogLevel       string   `env:"LOG_LEVEL, default=info"`

	Database DatabaseConfig

	// RedisURL is optional. Without it refresh-token revocation is kept in
	// memory and rate limiting is off.
	RedisURL string `env:"REDIS_URL"`

	// MeiliSearchHost is optional. Without it issue search is unavailable.
	MeiliSearchHost string `env:"MEILISEARCH_HOST"`
	MeiliMasterKey  string `env:"MEILI_MASTER_KEY"`

	JWT JWTConfig

	RateLimitGlobal time.Duration `env:"RATE_LIMIT_GLOBAL, default=5s"`
	RateLimitIssue  time.Duration `env:"RATE_LIMIT_ISSUE, default=1m"`
}

type DatabaseConfig struct {
	Host     string `env:"DB_HOST, default=localhost"`
	User     string `env:"DB_USER, default=postgres"`
	Password string `env:"DB_PASSWORD"`
	Name     string `env:"DB_NAME, default=softdesk"`
	Port     string `env:"DB_PORT, default=5432"`
	SSLMode  string `env:"DB_SSLMODE, default=disable"`
	Debug    bool   `env:"DB_DEBUG, default=false"`
}

type JWTConfig struct {
	Secret     string        `env:"JWT_SECRET, required"`
	AccessTTL  time.Duration `env:"JWT_ACCESS_TTL, default=15m"`
	RefreshTTL time.Duration `env:"JWT_REFRESH_TTL, default=168h"`
}

// Load reads .env when present, then the process environment.
func Load(ctx context.Context) (*Config, error) {
	// Don't fail if .env doesn't exist (might be prod env vars)
	_ = godotenv.Load()

	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if cfg.JWT.AccessTTL <= 0 || cfg.JWT.RefreshTTL <= cfg.JWT.AccessTTL {
		return nil, errors.New("JWT_REFRESH_TTL must be longer than a positive JWT_ACCESS_TTL")
	}

	return &cfg, nil
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func (c *Config) DatabaseOptions() database.Options {
	return database.Options{
		Host:     c.Database.Host,
		User:     c.Database.User,
		Password: c.Database.Password,
		Name:     c.Database.Name,
		Port:     c.Database.Port,
		SSLMode:  c.Database.SSLMode,
		Debug:    c.Database.Debug,
	}
}
