package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config aggregates every tunable of the relay process.
type Config struct {
	Port      string `envconfig:"PORT" default:"3000"`
	StaticDir string `envconfig:"STATIC_DIR" default:"public"`

	ReadBufferSize  int           `envconfig:"WS_READ_BUFFER_SIZE" default:"1024"`
	WriteBufferSize int           `envconfig:"WS_WRITE_BUFFER_SIZE" default:"1024"`
	SendQueueSize   int           `envconfig:"WS_SEND_QUEUE_SIZE" default:"64"`
	PingInterval    time.Duration `envconfig:"WS_PING_INTERVAL" default:"54s"`
	ReadTimeout     time.Duration `envconfig:"WS_READ_TIMEOUT" default:"60s"`
	WriteTimeout    time.Duration `envconfig:"WS_WRITE_TIMEOUT" default:"10s"`

	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if strings.Contains(cfg.Port, " ") {
		return nil, fmt.Errorf("invalid PORT value: %q", cfg.Port)
	}
	return &cfg, nil
}

// Addr normalizes PORT into a listen address: "3000" becomes ":3000", while
// ":3000" and "127.0.0.1:3000" pass through unchanged.
func (c *Config) Addr() string {
	if strings.Contains(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}
