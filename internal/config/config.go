package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds all mindline configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Params   ParamsConfig
}

type ServerConfig struct {
	Bind string `env:"MINDLINE_BIND" envDefault:"127.0.0.1"`
	Port int    `env:"MINDLINE_PORT" envDefault:"7433"`
}

type DatabaseConfig struct {
	// Path of the SQLite file. Empty resolves to store.DefaultDBPath
	// at open time.
	Path string `env:"MINDLINE_DB"`
}

type ParamsConfig struct {
	// Path of a YAML parameter pack overriding the embedded defaults.
	Path string `env:"MINDLINE_PARAMS"`
	// Boundary names the event-window policy: half_open or inclusive.
	Boundary string `env:"MINDLINE_BOUNDARY" envDefault:"half_open"`
}

// Default returns the built-in configuration, ignoring the environment.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Bind: "127.0.0.1",
			Port: 7433,
		},
		Params: ParamsConfig{
			Boundary: "half_open",
		},
	}
}

// Load resolves configuration from a .env file if one is present, then
// MINDLINE_* environment variables over the defaults.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}

// ListenAddr returns the bind:port address string.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Bind, c.Server.Port)
}

// BaseURL returns the http URL of a daemon on this configuration.
func (c *Config) BaseURL() string {
	return fmt.Sprintf("http://%s:%d", c.Server.Bind, c.Server.Port)
}
