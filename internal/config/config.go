package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

type Config struct {
	Port           string        `mapstructure:"PORT"`
	Env            string        `mapstructure:"ENV"`
	LogLevel       string        `mapstructure:"LOG_LEVEL"`
	DBConfigFile   string        `mapstructure:"DB_CONFIG_FILE"`
	DBMaxConns     int32         `mapstructure:"DB_MAX_CONNS"`
	DBRetries      int           `mapstructure:"DB_RETRY_ATTEMPTS"`
	DBRetryBackoff time.Duration `mapstructure:"DB_RETRY_BACKOFF"`
	RequestTimeout time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	CORSOrigins    []string      `mapstructure:"CORS_ORIGINS"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DB_CONFIG_FILE", DefaultSettingsFile)
	v.SetDefault("DB_MAX_CONNS", 1)
	v.SetDefault("DB_RETRY_ATTEMPTS", 2)
	v.SetDefault("DB_RETRY_BACKOFF", "200ms")
	v.SetDefault("REQUEST_TIMEOUT", "30s")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")

	for _, key := range []string{
		"PORT", "ENV", "LOG_LEVEL", "DB_CONFIG_FILE", "DB_MAX_CONNS",
		"DB_RETRY_ATTEMPTS", "DB_RETRY_BACKOFF", "REQUEST_TIMEOUT", "CORS_ORIGINS",
	} {
		_ = v.BindEnv(key)
	}

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// Level returns the zerolog level named by LOG_LEVEL.
func (c *Config) Level() zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel))
	if err != nil {
		return zerolog.InfoLevel
	}
	return lvl
}

func (c *Config) Validate() error {
	if c.DBMaxConns < 1 {
		return fmt.Errorf("DB_MAX_CONNS must be at least 1, got %d", c.DBMaxConns)
	}
	if c.DBRetries < 0 {
		return fmt.Errorf("DB_RETRY_ATTEMPTS must not be negative, got %d", c.DBRetries)
	}
	if c.DBRetryBackoff < 0 {
		return fmt.Errorf("DB_RETRY_BACKOFF must not be negative, got %s", c.DBRetryBackoff)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive, got %s", c.RequestTimeout)
	}
	if _, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel)); err != nil {
		return fmt.Errorf("LOG_LEVEL %q is not a valid level", c.LogLevel)
	}
	if c.DBConfigFile == "" {
		return fmt.Errorf("DB_CONFIG_FILE is required")
	}
	return nil
}
