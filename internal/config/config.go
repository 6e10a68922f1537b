package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Server    ServerConfig    `json:"server"`
	Redis     RedisConfig     `json:"redis"`
	Database  DatabaseConfig  `json:"database"`
	Auth      AuthConfig      `json:"auth"`
	RateLimit RateLimitConfig `json:"rate_limit"`
	Memories  MemoriesConfig  `json:"memories"`
}

type ServerConfig struct {
	Port        string `json:"port"`
	Environment string `json:"environment"`
	LogLevel    string `json:"log_level"`
}

type RedisConfig struct {
	Host         string `json:"host"`
	Port         int    `json:"port"`
	Password     string `json:"password"`
	DB           int    `json:"db"`
	DialTimeout  int    `json:"dial_timeout_ms"`
	ReadTimeout  int    `json:"read_timeout_ms"`
	WriteTimeout int    `json:"write_timeout_ms"`
}

type DatabaseConfig struct {
	URL string `json:"url"`
}

type AuthConfig struct {
	JWTSecret      string   `json:"jwt_secret"`
	JWTExpiryHours int      `json:"jwt_expiry_hours"`
	AdminEmails    []string `json:"admin_emails"`
}

// Quota limits are keyed by category name; missing categories keep their defaults.
type RateLimitConfig struct {
	Enabled         *bool              `json:"enabled"`
	Backend         string             `json:"backend"` // "redis" or "memory"
	Hourly          map[string]int     `json:"hourly"`
	Burst           map[string]int     `json:"burst"`
	TierMultipliers map[string]float64 `json:"tier_multipliers"`
}

type MemoriesConfig struct {
	MaxUploadBytes int64 `json:"max_upload_bytes"`
}

const (
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

var knownCategories = []string{"default", "health", "search", "upload", "memories", "auth"}

// Reads the JSON config at path (a missing file is not an error), then applies
// environment overrides and defaults.
func Load(path string) (*Config, error) {
	var config Config

	file, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := json.Unmarshal(file, &config); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := config.applyEnv(); err != nil {
		return nil, err
	}
	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) applyEnv() error {
	setString(&c.Server.Port, "PORT")
	setString(&c.Server.Environment, "ENVIRONMENT")
	setString(&c.Server.LogLevel, "LOG_LEVEL")
	setString(&c.Redis.Host, "REDIS_HOST")
	setString(&c.Redis.Password, "REDIS_PASSWORD")
	setString(&c.Database.URL, "DATABASE_URL")
	setString(&c.Auth.JWTSecret, "JWT_SECRET")
	setString(&c.RateLimit.Backend, "RATE_LIMIT_BACKEND")

	if err := setInt(&c.Redis.Port, "REDIS_PORT"); err != nil {
		return err
	}
	if err := setInt(&c.Redis.DB, "REDIS_DB"); err != nil {
		return err
	}
	if err := setInt(&c.Auth.JWTExpiryHours, "JWT_EXPIRY_HOURS"); err != nil {
		return err
	}

	if v, ok := os.LookupEnv("RATE_LIMIT_ENABLED"); ok {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid RATE_LIMIT_ENABLED %q: %w", v, err)
		}
		c.RateLimit.Enabled = &enabled
	}

	if v, ok := os.LookupEnv("ADMIN_EMAILS"); ok && v != "" {
		c.Auth.AdminEmails = strings.Split(v, ",")
	}

	return nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.Server.Environment == "" {
		c.Server.Environment = "development"
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = "info"
	}
	if c.Redis.Host == "" {
		c.Redis.Host = "localhost"
	}
	if c.Redis.Port == 0 {
		c.Redis.Port = 6379
	}
	if c.Redis.DialTimeout == 0 {
		c.Redis.DialTimeout = 2000
	}
	if c.Redis.ReadTimeout == 0 {
		c.Redis.ReadTimeout = 500
	}
	if c.Redis.WriteTimeout == 0 {
		c.Redis.WriteTimeout = 500
	}
	if c.Auth.JWTExpiryHours == 0 {
		c.Auth.JWTExpiryHours = 24
	}
	if c.RateLimit.Enabled == nil {
		enabled := true
		c.RateLimit.Enabled = &enabled
	}
	if c.RateLimit.Backend == "" {
		c.RateLimit.Backend = BackendRedis
	}
	if c.Memories.MaxUploadBytes == 0 {
		c.Memories.MaxUploadBytes = 1 << 20
	}
}

func (c *Config) Validate() error {
	if c.RateLimit.Backend != BackendRedis && c.RateLimit.Backend != BackendMemory {
		return fmt.Errorf("unknown rate limit backend %q", c.RateLimit.Backend)
	}

	for name, table := range map[string]map[string]int{"hourly": c.RateLimit.Hourly, "burst": c.RateLimit.Burst} {
		for category, requests := range table {
			if !isKnownCategory(category) {
				return fmt.Errorf("rate_limit.%s: unknown category %q", name, category)
			}
			if requests <= 0 {
				return fmt.Errorf("rate_limit.%s.%s: requests must be positive, got %d", name, category, requests)
			}
		}
	}

	for tier, multiplier := range c.RateLimit.TierMultipliers {
		if multiplier <= 0 {
			return fmt.Errorf("rate_limit.tier_multipliers.%s: must be positive, got %v", tier, multiplier)
		}
	}

	if c.Auth.JWTExpiryHours < 0 {
		return fmt.Errorf("auth.jwt_expiry_hours must not be negative")
	}

	return nil
}

func (c *Config) RateLimitEnabled() bool {
	return c.RateLimit.Enabled == nil || *c.RateLimit.Enabled
}

func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

func (r RedisConfig) GetRedisAddr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

func isKnownCategory(name string) bool {
	for _, known := range knownCategories {
		if known == name {
			return true
		}
	}
	return false
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	*dst = n
	return nil
}
