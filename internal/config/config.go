package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"mathdrill/internal/validation"
)

// Config holds application configuration
type Config struct {
	ServerPort   string         `yaml:"port"`
	DatabaseType string         `yaml:"database_type"`
	DatabaseURL  string         `yaml:"database_url"`
	DatabasePath string         `yaml:"database_path"`
	LogMode      string         `yaml:"log_mode"`
	SeedContent  bool           `yaml:"seed_content"`
	Practice     PracticeConfig `yaml:"practice"`
	Auth         AuthConfig     `yaml:"auth"`
	Redis        RedisConfig    `yaml:"redis"`
	Email        EmailConfig    `yaml:"email"`
}

// PracticeConfig tunes the session controller
type PracticeConfig struct {
	FeedbackDelay   time.Duration `yaml:"feedback_delay"`
	DefaultTimezone string        `yaml:"default_timezone"`
	MinTarget       int           `yaml:"min_target"`
	MaxTarget       int           `yaml:"max_target"`
}

// AuthConfig enables bearer-token auth when PasscodeHash is set
type AuthConfig struct {
	PasscodeHash string        `yaml:"passcode_hash"`
	JWTSecret    string        `yaml:"jwt_secret"`
	TokenTTL     time.Duration `yaml:"token_ttl"`
}

// RedisConfig enables the event forwarder when Addr is set
type RedisConfig struct {
	Addr    string `yaml:"addr"`
	Channel string `yaml:"channel"`
}

// EmailConfig enables achievement emails when FromEmail and NotifyEmail are set
type EmailConfig struct {
	AWSRegion   string `yaml:"aws_region"`
	FromEmail   string `yaml:"from_email"`
	FromName    string `yaml:"from_name"`
	NotifyEmail string `yaml:"notify_email"`
	Debug       bool   `yaml:"debug"`
}

// Default returns the configuration used when nothing is overridden
func Default() *Config {
	return &Config{
		ServerPort:   "8080",
		DatabaseType: "sqlite",
		DatabasePath: "./mathdrill.db",
		LogMode:      "development",
		SeedContent:  true,
		Practice: PracticeConfig{
			FeedbackDelay:   2 * time.Second,
			DefaultTimezone: "Local",
			MinTarget:       5,
			MaxTarget:       50,
		},
		Auth: AuthConfig{
			TokenTTL: 12 * time.Hour,
		},
		Redis: RedisConfig{
			Channel: "mathdrill.events",
		},
		Email: EmailConfig{
			AWSRegion: "us-east-1",
			FromName:  "MathDrill",
		},
	}
}

// Load reads configuration from an optional YAML file (CONFIG_FILE) and then
// environment variables, which take precedence
func Load() (*Config, error) {
	cfg := Default()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile overlays values from a YAML file
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.ServerPort = getEnv("PORT", c.ServerPort)
	c.DatabaseType = getEnv("DATABASE_TYPE", c.DatabaseType)
	c.DatabaseURL = getEnv("DATABASE_URL", c.DatabaseURL)
	c.DatabasePath = getEnv("DB_PATH", c.DatabasePath)
	c.LogMode = getEnv("LOG_MODE", c.LogMode)
	c.SeedContent = getEnvBool("SEED_CONTENT", c.SeedContent)

	delayMs := getEnvInt("FEEDBACK_DELAY_MS", int(c.Practice.FeedbackDelay/time.Millisecond))
	c.Practice.FeedbackDelay = time.Duration(delayMs) * time.Millisecond
	c.Practice.DefaultTimezone = getEnv("DEFAULT_TIMEZONE", c.Practice.DefaultTimezone)

	c.Auth.PasscodeHash = getEnv("AUTH_PASSCODE_HASH", c.Auth.PasscodeHash)
	c.Auth.JWTSecret = getEnv("JWT_SECRET", c.Auth.JWTSecret)
	if ttl, err := time.ParseDuration(os.Getenv("TOKEN_TTL")); err == nil {
		c.Auth.TokenTTL = ttl
	}

	c.Redis.Addr = getEnv("REDIS_ADDR", c.Redis.Addr)
	c.Redis.Channel = getEnv("REDIS_CHANNEL", c.Redis.Channel)

	c.Email.AWSRegion = getEnv("AWS_REGION", c.Email.AWSRegion)
	c.Email.FromEmail = getEnv("SES_FROM_EMAIL", c.Email.FromEmail)
	c.Email.FromName = getEnv("SES_FROM_NAME", c.Email.FromName)
	c.Email.NotifyEmail = getEnv("NOTIFY_EMAIL", c.Email.NotifyEmail)
	c.Email.Debug = getEnvBool("EMAIL_DEBUG", c.Email.Debug)
}

// Validate checks values that would otherwise fail late at runtime
func (c *Config) Validate() error {
	switch strings.ToLower(c.DatabaseType) {
	case "", "sqlite", "sqlite3", "postgres", "postgresql", "mysql":
	default:
		return fmt.Errorf("unsupported database type: %s", c.DatabaseType)
	}
	if c.Practice.FeedbackDelay < 0 {
		return fmt.Errorf("feedback delay must not be negative")
	}
	if _, err := time.LoadLocation(c.Practice.DefaultTimezone); err != nil {
		return fmt.Errorf("invalid default timezone %q: %w", c.Practice.DefaultTimezone, err)
	}
	if c.Practice.MinTarget < 1 || c.Practice.MaxTarget < c.Practice.MinTarget {
		return fmt.Errorf("invalid session target bounds %d-%d", c.Practice.MinTarget, c.Practice.MaxTarget)
	}
	if c.Auth.PasscodeHash != "" && c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required when AUTH_PASSCODE_HASH is set")
	}
	for name, addr := range map[string]string{"SES_FROM_EMAIL": c.Email.FromEmail, "NOTIFY_EMAIL": c.Email.NotifyEmail} {
		if addr == "" {
			continue
		}
		if err := validation.ValidateEmail(addr); err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
	}
	return nil
}

// AuthEnabled reports whether API requests need a bearer token
func (c *Config) AuthEnabled() bool {
	return c.Auth.PasscodeHash != ""
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultValue
	}
	return i
}

func getEnvBool(key string, defaultValue bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultValue
	}
	return b
}
