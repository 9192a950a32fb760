// Package config loads the collector configuration from YAML files or SQLite databases.
package config

import (
	"errors"
	"fmt"
	"net"
	"time"
)

// ConfigProvider defines the interface for configuration data sources
type ConfigProvider interface {
	// Load complete configuration
	LoadConfig() (*ConfigData, error)

	// Get specific configuration sections
	GetStationConfig() (*StationData, error)
	GetStorageConfig() (*StorageData, error)
	GetRESTConfig() (*RESTData, error)

	IsReadOnly() bool
	Close() error
}

// Storage backends
const (
	BackendNone     = "none"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
)

// Defaults applied by Validate
const (
	DefaultWatchdogTimeout = "5m"
	DefaultReconnectDelay  = "10s"
	DefaultRainWindow      = "15m"
	DefaultStationName     = "wmr"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// ConfigData represents the complete configuration structure
type ConfigData struct {
	Station StationData `json:"station"`
	Storage StorageData `json:"storage"`
	REST    RESTData    `json:"rest,omitempty"`
	Debug   DebugData   `json:"debug,omitempty"`
}

// StationData holds the connection settings for the weather station bridge
type StationData struct {
	Name            string `json:"name"`
	Target          string `json:"target"`
	WatchdogTimeout string `json:"watchdog_timeout,omitempty"`
	ReconnectDelay  string `json:"reconnect_delay,omitempty"`
	RainWindow      string `json:"rain_window,omitempty"`
}

// StorageData selects and configures the storage backend
type StorageData struct {
	Backend  string        `json:"backend"`
	Postgres *PostgresData `json:"postgres,omitempty"`
	SQLite   *SQLiteData   `json:"sqlite,omitempty"`
}

type PostgresData struct {
	ConnectionString string `json:"connection_string"`
}

type SQLiteData struct {
	Path string `json:"path"`
}

// RESTData configures the status server. A zero port disables it.
type RESTData struct {
	ListenAddr string `json:"listen_addr,omitempty"`
	Port       int    `json:"port,omitempty"`
}

// DebugData switches on the individual debug log channels
type DebugData struct {
	IO      bool `json:"io,omitempty"`
	Message bool `json:"message,omitempty"`
	Data    bool `json:"data,omitempty"`
}

// Timing holds the parsed durations of a StationData
type Timing struct {
	WatchdogTimeout time.Duration
	ReconnectDelay  time.Duration
	RainWindow      time.Duration
}

// Timing parses the duration settings
func (s StationData) Timing() (Timing, error) {
	var t Timing
	var err error

	fields := []struct {
		name  string
		value string
		dst   *time.Duration
	}{
		{"watchdog_timeout", s.WatchdogTimeout, &t.WatchdogTimeout},
		{"reconnect_delay", s.ReconnectDelay, &t.ReconnectDelay},
		{"rain_window", s.RainWindow, &t.RainWindow},
	}
	for _, f := range fields {
		*f.dst, err = time.ParseDuration(f.value)
		if err != nil {
			return Timing{}, fmt.Errorf("%w: station %s %q: %v", ErrInvalidConfig, f.name, f.value, err)
		}
		if *f.dst <= 0 {
			return Timing{}, fmt.Errorf("%w: station %s must be positive", ErrInvalidConfig, f.name)
		}
	}
	return t, nil
}

// Validate fills in defaults and checks the configuration for consistency
func (c *ConfigData) Validate() error {
	if c.Station.Name == "" {
		c.Station.Name = DefaultStationName
	}
	if c.Station.WatchdogTimeout == "" {
		c.Station.WatchdogTimeout = DefaultWatchdogTimeout
	}
	if c.Station.ReconnectDelay == "" {
		c.Station.ReconnectDelay = DefaultReconnectDelay
	}
	if c.Station.RainWindow == "" {
		c.Station.RainWindow = DefaultRainWindow
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = BackendNone
	}

	if c.Station.Target == "" {
		return fmt.Errorf("%w: station target must be set", ErrInvalidConfig)
	}
	if _, _, err := net.SplitHostPort(c.Station.Target); err != nil {
		return fmt.Errorf("%w: station target %q: %v", ErrInvalidConfig, c.Station.Target, err)
	}
	if _, err := c.Station.Timing(); err != nil {
		return err
	}

	switch c.Storage.Backend {
	case BackendNone:
	case BackendPostgres:
		if c.Storage.Postgres == nil || c.Storage.Postgres.ConnectionString == "" {
			return fmt.Errorf("%w: postgres backend needs a connection_string", ErrInvalidConfig)
		}
	case BackendSQLite:
		if c.Storage.SQLite == nil || c.Storage.SQLite.Path == "" {
			return fmt.Errorf("%w: sqlite backend needs a path", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown storage backend %q", ErrInvalidConfig, c.Storage.Backend)
	}

	if c.REST.Port < 0 || c.REST.Port > 65535 {
		return fmt.Errorf("%w: rest port %d out of range", ErrInvalidConfig, c.REST.Port)
	}

	return nil
}
