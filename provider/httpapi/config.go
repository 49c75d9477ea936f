package httpapi

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// Config controls the HTTP identity-provider client
type Config struct {
	// BaseURL is the root of the provider's auth API, e.g.
	// https://project.example.com/auth/v1
	BaseURL string `env:"AUTHVIEW_API_URL"`

	// APIKey is sent as the provider's publishable key header, when set
	APIKey string `env:"AUTHVIEW_API_KEY"`

	// Timeout bounds each request
	Timeout time.Duration `env:"AUTHVIEW_API_TIMEOUT" envDefault:"10s"`
}

// LoadConfigFromEnv returns client configuration with defaults
func LoadConfigFromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return cfg, nil
}
