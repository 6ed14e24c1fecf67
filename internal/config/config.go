// Package config loads environment driven configuration for the reservation
// service. Variables are prefixed with RESERVAS_ and named after the struct
// fields, e.g. RESERVAS_HTTPADDR or RESERVAS_SESSIONSECRET.
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config captures the runtime settings of the server process.
type Config struct {
	HTTPAddr  string `envDefault:":8080"`
	SQLiteDSN string `envDefault:"file:reservas.db"`

	// SessionSecret signs session tokens and has no usable default.
	SessionSecret string
	SessionTTL    time.Duration `envDefault:"24h"`

	LoginRatePerMinute int `envDefault:"10"`
	LoginRateBurst     int `envDefault:"5"`
}

// Load parses the process environment and validates required values.
func Load() (Config, error) {
	cfg, err := env.ParseAsWithOptions[Config](env.Options{
		Prefix:                "RESERVAS_",
		UseFieldNameByDefault: true,
	})
	if err != nil {
		return Config{}, err
	}

	if strings.TrimSpace(cfg.SessionSecret) == "" {
		return Config{}, errors.New("config: RESERVAS_SESSIONSECRET must be set")
	}
	if cfg.SessionTTL <= 0 {
		return Config{}, errors.New("config: RESERVAS_SESSIONTTL must be positive")
	}

	return cfg, nil
}
