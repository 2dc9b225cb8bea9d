package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Identity IdentityConfig
	Upstream UpstreamConfig
	Branding BrandingConfig
}

type ServerConfig struct {
	Host string
	Port int
	// RateLimitRPS and RateLimitBurst bound the per-client token bucket
	// applied in front of every route.
	RateLimitRPS   int
	RateLimitBurst int
}

type DatabaseConfig struct {
	URL            string
	MaxConns       int
	MinConns       int
	MigrationsPath string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type IdentityConfig struct {
	BaseURL   string
	JWTSecret string
}

type UpstreamConfig struct {
	// BaseURL of the tenant configuration service; tenant-scoped routes
	// and /auth/me are resolved against it.
	BaseURL      string
	TenantHeader string
}

type BrandingConfig struct {
	// RegistrationTenants is the fixed list of tenants selectable on the
	// registration form. Injected at deploy time, not runtime-mutable.
	RegistrationTenants []string
	BackgroundImageURL  string
	AccentColor         string
	// PrivilegedRoles may open the feature flag editor.
	PrivilegedRoles []string
}

func Load() (*Config, error) {
	port, err := getEnvInt("SERVER_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}

	maxConns, err := getEnvInt("DB_MAX_CONNS", 20)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_CONNS: %w", err)
	}

	minConns, err := getEnvInt("DB_MIN_CONNS", 5)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MIN_CONNS: %w", err)
	}

	redisDB, err := getEnvInt("REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	rps, err := getEnvInt("RATE_LIMIT_RPS", 100)
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_RPS: %w", err)
	}

	burst, err := getEnvInt("RATE_LIMIT_BURST", 200)
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_BURST: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			Port:           port,
			RateLimitRPS:   rps,
			RateLimitBurst: burst,
		},
		Database: DatabaseConfig{
			URL:            getEnv("DATABASE_URL", ""),
			MaxConns:       maxConns,
			MinConns:       minConns,
			MigrationsPath: getEnv("MIGRATIONS_PATH", "migrations"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Identity: IdentityConfig{
			BaseURL:   getEnv("IDENTITY_BASE_URL", ""),
			JWTSecret: getEnv("IDENTITY_JWT_SECRET", ""),
		},
		Upstream: UpstreamConfig{
			BaseURL:      getEnv("CONFIG_SERVICE_URL", ""),
			TenantHeader: getEnv("TENANT_HEADER", "x-tenant-id"),
		},
		Branding: BrandingConfig{
			RegistrationTenants: getEnvList("REGISTRATION_TENANTS", nil),
			BackgroundImageURL:  getEnv("AUTH_BG_IMAGE", ""),
			AccentColor:         getEnv("BRAND_COLOR", "#3d93a3"),
			PrivilegedRoles:     getEnvList("PRIVILEGED_ROLES", []string{"Admin", "HR"}),
		},
	}

	return cfg, nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func (c *Config) Validate() error {
	var missing []string
	if c.Database.URL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if c.Identity.BaseURL == "" {
		missing = append(missing, "IDENTITY_BASE_URL")
	}
	if c.Identity.JWTSecret == "" {
		missing = append(missing, "IDENTITY_JWT_SECRET")
	}
	if c.Upstream.BaseURL == "" {
		missing = append(missing, "CONFIG_SERVICE_URL")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required env vars: %s", strings.Join(missing, ", "))
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.Atoi(v)
}

func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
