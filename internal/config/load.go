package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Load reads configuration from environment variables and, optionally, a
// config file. Environment variables take precedence over values from
// config files. Returns a populated Config struct or an error if loading
// or validation fails.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	// Optional YAML file; absence is fine, parse errors are not.
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Environment variables use the LEXVAULT_ prefix with underscores for
	// nesting, e.g. LEXVAULT_DATABASE_URL, LEXVAULT_AUTH_JWT_SECRET.
	v.SetEnvPrefix("LEXVAULT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// setDefaults registers every config key with viper. Keys without a real
// default get an empty value so AutomaticEnv can still populate them.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("database.url", "")
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("mirror.path", "")
	v.SetDefault("sync.server_url", "")
	v.SetDefault("sync.token", "")
	v.SetDefault("sync.interval", time.Minute)
	v.SetDefault("sync.max_backoff", 5*time.Minute)
	v.SetDefault("sync.push_batch", 100)
	v.SetDefault("sync.http_timeout", 30*time.Second)
}
