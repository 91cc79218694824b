package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Auth     AuthConfig     `mapstructure:"auth" validate:"required"`
	Mirror   MirrorConfig   `mapstructure:"mirror"`
	Sync     SyncConfig     `mapstructure:"sync"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
// Only the server needs a URL; the offline client runs without one and
// the server rejects an empty URL at startup.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"omitempty,url"`
}

// AuthConfig contains all authentication and authorization settings.
// The server verifies bearer tokens only; issuing them belongs to a
// separate identity service.
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret" validate:"omitempty,min=32"`
}

// MirrorConfig contains settings for the client's local sqlite mirror.
type MirrorConfig struct {
	Path string `mapstructure:"path"`
}

// SyncConfig contains settings for the client-side sync reconciler.
type SyncConfig struct {
	ServerURL   string        `mapstructure:"server_url" validate:"omitempty,url"`
	Token       string        `mapstructure:"token"`
	Interval    time.Duration `mapstructure:"interval"`
	MaxBackoff  time.Duration `mapstructure:"max_backoff"`
	PushBatch   int           `mapstructure:"push_batch" validate:"omitempty,gt=0"`
	HTTPTimeout time.Duration `mapstructure:"http_timeout"`
}
