package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	minPresignExpiration = 30 * time.Minute
	maxPresignExpiration = 12 * time.Hour
)

// Config is the process-wide configuration. It is read once at start-up and
// never mutated afterwards; every component receives it (or the values it
// needs) through its constructor.
type Config struct {
	EnvVars
	OAuth
	AWS
}

// Load reads the configuration from the process environment.
func Load() (Config, error) {
	return parse(env.Options{})
}

// LoadFrom reads the configuration from the given key/value set instead of
// the process environment.
func LoadFrom(environment map[string]string) (Config, error) {
	return parse(env.Options{Environment: environment})
}

func parse(opts env.Options) (Config, error) {
	var c Config
	if err := env.ParseWithOptions(&c, opts); err != nil {
		return Config{}, fmt.Errorf("[config Load] parse env: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks the values that env tags cannot express.
func (c Config) Validate() error {
	if c.PresignExpiration < minPresignExpiration || c.PresignExpiration > maxPresignExpiration {
		return fmt.Errorf("[config Validate] PRESIGN_EXPIRATION must be between %s and %s, got %s",
			minPresignExpiration, maxPresignExpiration, c.PresignExpiration)
	}
	if c.HandlerTimeout <= 0 || c.CallTimeout <= 0 || c.HTTPTimeout <= 0 {
		return fmt.Errorf("[config Validate] timeouts must be positive")
	}
	switch c.LogFormat {
	case "json", "console":
	default:
		return fmt.Errorf("[config Validate] LOG_FORMAT must be json or console, got %q", c.LogFormat)
	}
	return nil
}
