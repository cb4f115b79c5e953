// Package config loads configuration from environment variables.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Env holds the configuration values for the application.
type Env struct {
	Port string `env:"PORT" envDefault:"5000"`

	// DatabaseURL selects and locates the claims repository:
	// mongodb://..., mongodb+srv://..., dynamodb://<table> or memory://.
	DatabaseURL string `env:"DATABASE_URL,required,notEmpty"`

	MongoDatabase   string `env:"MONGO_DATABASE" envDefault:"claims"`
	MongoCollection string `env:"MONGO_COLLECTION" envDefault:"claims"`

	Region      string `env:"AWS_REGION" envDefault:"us-east-1"`
	AWSEndpoint string `env:"AWS_ENDPOINT_URL"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
}

// Load reads the environment into an Env.
func Load() (Env, error) {
	var e Env
	if err := env.Parse(&e); err != nil {
		return Env{}, fmt.Errorf("parse env: %w", err)
	}
	return e, nil
}

// MustLoad is Load for process start-up; it panics on missing or malformed variables.
func MustLoad() Env {
	e, err := Load()
	if err != nil {
		panic(err)
	}
	return e
}

// Addr returns the listen address for Port.
func (e Env) Addr() string { return ":" + e.Port }

