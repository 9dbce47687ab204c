// Package config defines the relay configuration and how it is loaded.
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/okian/oscrouter/internal/domain/model"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level" validate:"oneof=debug info warn warning error"`

	// Addr configures the admin HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr" validate:"required"`

	// OSCHost is the interface the OSC listener binds to; empty binds all.
	OSCHost string `koanf:"osc_host" validate:"omitempty,ip"`

	// OSCPort is the inbound OSC port.
	OSCPort int `koanf:"osc_port" validate:"min=0,max=65535"`

	// DefaultDestPort is used for station addresses without a port.
	DefaultDestPort int `koanf:"default_dest_port" validate:"min=1,max=65535"`

	// EventLogSize is how many router events are kept for inspection.
	EventLogSize int `koanf:"event_log_size" validate:"min=1"`

	// QueueSize bounds the inbound datagram queue.
	QueueSize int `koanf:"queue_size" validate:"min=1"`

	// WorkerCount sets the number of datagram handlers. One keeps arrival order.
	WorkerCount int `koanf:"worker_count" validate:"min=1"`

	RestartDelayMS int `koanf:"restart_delay_ms" validate:"min=0"`

	// CorrelatedStations send their score as separate numeric and string parts.
	CorrelatedStations []string `koanf:"correlated_stations"`

	// Routes maps station id to "host" or "host:port".
	Routes map[string]string `koanf:"routes"`

	// Autostart starts the OSC listener with the process.
	Autostart bool `koanf:"autostart"`

	// RateLimitPerSec caps datagrams per second per source host; 0 disables it.
	RateLimitPerSec float64 `koanf:"rate_limit_per_sec" validate:"min=0"`
	RateLimitBurst  int     `koanf:"rate_limit_burst" validate:"min=1"`
}

var validate = validator.New()

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:           "info",
		Addr:               ":9080",
		OSCPort:            57121,
		DefaultDestPort:    model.DefaultStationPort,
		EventLogSize:       100,
		QueueSize:          1024,
		WorkerCount:        1,
		RestartDelayMS:     1000,
		CorrelatedStations: []string{"mastermind"},
		Routes: map[string]string{
			"plinko":      "192.168.1.222:58008",
			"spinningtop": "192.168.1.215:58008",
			"haphazard":   "192.168.1.159:58008",
			"roundhouse":  "192.168.1.143:58008",
			"hillhop":     "192.168.1.138:58008",
			"skijump":     "192.168.1.184:58008",
			"mastermind":  "192.168.1.211:58008",
			"hole8":       "192.168.1.196:58008",
			"octogon":     "192.168.1.221:58008",
			"loopdeloop":  "192.168.1.194:58008",
			"upandover":   "192.168.1.249:58008",
			"banana":      "192.168.1.142:58008",
		},
		Autostart:       true,
		RateLimitPerSec: 200,
		RateLimitBurst:  50,
	}
}

// Validate checks field ranges and that every route parses.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if _, err := c.Endpoints(); err != nil {
		return err
	}
	return nil
}

// Endpoints parses Routes, keyed by normalized station id.
func (c *Config) Endpoints() (map[string]model.Endpoint, error) {
	out := make(map[string]model.Endpoint, len(c.Routes))
	for station, addr := range c.Routes {
		key := model.NormalizeStation(station)
		if key == "" {
			return nil, fmt.Errorf("%w: route with empty station", ErrInvalidConfig)
		}
		if _, dup := out[key]; dup {
			return nil, fmt.Errorf("%w: station %q configured more than once", ErrInvalidConfig, key)
		}
		ep, err := model.ParseEndpoint(addr, c.DefaultDestPort)
		if err != nil {
			return nil, fmt.Errorf("%w: route %q: %w", ErrInvalidConfig, station, err)
		}
		out[key] = ep
	}
	return out, nil
}

// RestartDelay returns RestartDelayMS as a duration.
func (c *Config) RestartDelay() time.Duration {
	return time.Duration(c.RestartDelayMS) * time.Millisecond
}
