// Package config provides application configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration values loaded from file or environment variables.
type Config struct {
	Port             string        `mapstructure:"PORT"`
	AccessAPIURL     string        `mapstructure:"ACCESS_API_URL"`
	AccessAPITimeout time.Duration `mapstructure:"ACCESS_API_TIMEOUT"`
	AdminSessionFile string        `mapstructure:"ADMIN_SESSION_FILE"`
	RedisURL         string        `mapstructure:"REDIS_URL"`
	AllowedOrigins   string        `mapstructure:"ALLOWED_ORIGINS"`
	FeatureFlags     string        `mapstructure:"FEATURE_FLAGS"`
	Env              string        `mapstructure:"APP_ENV"`
	SubmitRateLimit  int           `mapstructure:"SUBMIT_RATE_LIMIT"`
	TracingEnabled   bool          `mapstructure:"TRACING_ENABLED"`
	TracingExporter  string        `mapstructure:"TRACING_EXPORTER"`
	OTLPEndpoint     string        `mapstructure:"OTLP_ENDPOINT"`
	SamplerRatio     float64       `mapstructure:"TRACING_SAMPLER_RATIO"`
}

// LoadConfig loads application configuration from file and environment variables.
func LoadConfig() (*Config, error) {
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.AddConfigPath("../..")
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AutomaticEnv()

	// Initial read to get APP_ENV if set in base config
	// We intentionally ignore this error as the config file may not exist yet
	_ = viper.ReadInConfig()

	env := viper.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}

	if env != "development" && env != "" {
		viper.SetConfigName("config." + env)
		if err := viper.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("required profile-specific config 'config.%s.yml' not found: %w", env, err)
		}
		log.Printf("Loaded profile-specific configuration: config.%s.yml", env)
	}

	// Set default values for development
	viper.SetDefault("PORT", "8376")
	viper.SetDefault("ACCESS_API_URL", "http://localhost:8080")
	viper.SetDefault("ACCESS_API_TIMEOUT", 15*time.Second)
	viper.SetDefault("ADMIN_SESSION_FILE", "data/admin_session.json")
	viper.SetDefault("REDIS_URL", "localhost:6379")
	viper.SetDefault("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173")
	viper.SetDefault("FEATURE_FLAGS", "")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("SUBMIT_RATE_LIMIT", 10)
	viper.SetDefault("TRACING_ENABLED", false)
	viper.SetDefault("TRACING_EXPORTER", "stdout")
	viper.SetDefault("OTLP_ENDPOINT", "localhost:4318")
	viper.SetDefault("TRACING_SAMPLER_RATIO", 1.0)

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Validate ensures that required configuration values are present and meet security standards.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT is required")
	}
	if c.AccessAPIURL == "" {
		return errors.New("ACCESS_API_URL is required")
	}
	if !strings.HasPrefix(c.AccessAPIURL, "http://") && !strings.HasPrefix(c.AccessAPIURL, "https://") {
		return errors.New("ACCESS_API_URL must be an http(s) URL")
	}
	if c.AdminSessionFile == "" {
		return errors.New("ADMIN_SESSION_FILE is required")
	}
	if c.SubmitRateLimit <= 0 {
		return errors.New("SUBMIT_RATE_LIMIT must be positive")
	}

	isProduction := c.Env == "production" || c.Env == "prod"

	// Strict checks for production
	if isProduction {
		if strings.HasPrefix(c.AccessAPIURL, "http://") && !strings.Contains(c.AccessAPIURL, "localhost") && !strings.Contains(c.AccessAPIURL, "127.0.0.1") {
			log.Println("WARNING: ACCESS_API_URL uses plain http to a non-local host in production. The admin token travels in a header; use https.")
		}
		if c.AllowedOrigins == "*" {
			log.Println("WARNING: ALLOWED_ORIGINS is set to '*' in production. This is insecure.")
		}
	}

	return nil
}
