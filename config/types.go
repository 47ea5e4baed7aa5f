// Package config loads client configuration from defaults, an optional
// YAML file, and environment variables, and validates the result.
package config

import "time"

// Auth retry mode names accepted in configuration.
const (
	AuthRetryRespectBudget = "respect-budget"
	AuthRetryExtraAttempt  = "extra-attempt"
)

// Rate limiter mode names accepted in configuration.
const (
	RateModeHeaders = "headers"
	RateModeBucket  = "bucket"
	RateModeNone    = "none"
)

// Config is the root configuration.
type Config struct {
	Client ClientConfig `koanf:"client" mapstructure:"client"`
	Rate   RateConfig   `koanf:"rate" mapstructure:"rate"`
	Log    LogConfig    `koanf:"log" mapstructure:"log"`
}

// ClientConfig configures the request pipeline.
type ClientConfig struct {
	BaseURL   string        `koanf:"base_url" mapstructure:"base_url" validate:"required,url"`
	UserAgent string        `koanf:"user_agent" mapstructure:"user_agent" validate:"required"`
	Timeout   time.Duration `koanf:"timeout" mapstructure:"timeout" validate:"gt=0"`
	Retries   int           `koanf:"retries" mapstructure:"retries" validate:"gte=1"`
	AuthRetry string        `koanf:"auth_retry" mapstructure:"auth_retry" validate:"oneof=respect-budget extra-attempt"`
}

// RateConfig selects and tunes the rate limiter.
type RateConfig struct {
	Mode  string  `koanf:"mode" mapstructure:"mode" validate:"oneof=headers bucket none"`
	RPS   float64 `koanf:"rps" mapstructure:"rps" validate:"gte=0"`
	Burst int     `koanf:"burst" mapstructure:"burst" validate:"gte=0"`
}

// LogConfig configures the logger.
type LogConfig struct {
	Level  string `koanf:"level" mapstructure:"level" validate:"required"`
	Pretty bool   `koanf:"pretty" mapstructure:"pretty"`
}
