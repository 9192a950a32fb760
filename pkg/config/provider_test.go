package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() ConfigData {
	return ConfigData{
		Station: StationData{Target: "10.0.0.5:4001"},
	}
}

func TestValidateAppliesDefaults(t *testing.T) {
	c := validConfig()
	require.NoError(t, c.Validate())

	assert.Equal(t, DefaultStationName, c.Station.Name)
	assert.Equal(t, DefaultWatchdogTimeout, c.Station.WatchdogTimeout)
	assert.Equal(t, DefaultReconnectDelay, c.Station.ReconnectDelay)
	assert.Equal(t, DefaultRainWindow, c.Station.RainWindow)
	assert.Equal(t, BackendNone, c.Storage.Backend)

	timing, err := c.Station.Timing()
	require.NoError(t, err)
	assert.Equal(t, 5*time.Minute, timing.WatchdogTimeout)
	assert.Equal(t, 10*time.Second, timing.ReconnectDelay)
	assert.Equal(t, 15*time.Minute, timing.RainWindow)
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*ConfigData)
	}{
		{"missing target", func(c *ConfigData) { c.Station.Target = "" }},
		{"target without port", func(c *ConfigData) { c.Station.Target = "bridge.local" }},
		{"bad duration", func(c *ConfigData) { c.Station.WatchdogTimeout = "soon" }},
		{"zero duration", func(c *ConfigData) { c.Station.ReconnectDelay = "0s" }},
		{"unknown backend", func(c *ConfigData) { c.Storage.Backend = "influxdb" }},
		{"postgres without dsn", func(c *ConfigData) { c.Storage.Backend = BackendPostgres }},
		{"sqlite without path", func(c *ConfigData) {
			c.Storage.Backend = BackendSQLite
			c.Storage.SQLite = &SQLiteData{}
		}},
		{"rest port out of range", func(c *ConfigData) { c.REST.Port = 70000 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.modify(&c)
			err := c.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidConfig), "got %v", err)
		})
	}
}

func TestYAMLProvider(t *testing.T) {
	p := NewYAMLProvider(filepath.Join("testdata", "wmrcollector.yaml"))
	defer p.Close()

	c, err := p.LoadConfig()
	require.NoError(t, err)
	require.NoError(t, c.Validate())

	assert.Equal(t, "backyard", c.Station.Name)
	assert.Equal(t, "bridge.local:4001", c.Station.Target)
	assert.Equal(t, "2m", c.Station.WatchdogTimeout)
	assert.Equal(t, DefaultReconnectDelay, c.Station.ReconnectDelay)
	assert.Equal(t, BackendSQLite, c.Storage.Backend)
	require.NotNil(t, c.Storage.SQLite)
	assert.Equal(t, "/var/lib/wmrcollector/weather.db", c.Storage.SQLite.Path)
	assert.Nil(t, c.Storage.Postgres)
	assert.Equal(t, RESTData{ListenAddr: "127.0.0.1", Port: 8150}, c.REST)
	assert.Equal(t, DebugData{Message: true}, c.Debug)
	assert.True(t, p.IsReadOnly())

	rest, err := p.GetRESTConfig()
	require.NoError(t, err)
	assert.Equal(t, 8150, rest.Port)
}

func TestYAMLProviderRejectsUnknownKeys(t *testing.T) {
	_, err := ParseYAML([]byte("station:\n  target: a:1\n  baud: 9600\n"))
	assert.Error(t, err)
}

func TestYAMLProviderMissingFile(t *testing.T) {
	_, err := NewYAMLProvider(filepath.Join(t.TempDir(), "nope.yaml")).LoadConfig()
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestMarshalYAMLRoundTrip(t *testing.T) {
	in := &ConfigData{
		Station: StationData{Name: "roof", Target: "h:1", RainWindow: "30m"},
		Storage: StorageData{Backend: BackendPostgres, Postgres: &PostgresData{ConnectionString: "postgres://wx@db/wx"}},
		Debug:   DebugData{IO: true},
	}

	data, err := MarshalYAML(in)
	require.NoError(t, err)

	out, err := ParseYAML(data)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestSQLiteProvider(t *testing.T) {
	p, err := NewSQLiteProvider(filepath.Join(t.TempDir(), "config.db"), nil)
	require.NoError(t, err)
	defer p.Close()

	assert.False(t, p.IsReadOnly())

	_, err = p.LoadConfig()
	assert.True(t, errors.Is(err, ErrNoConfig))

	in := &ConfigData{
		Station: StationData{Name: "roof", Target: "bridge:4001", WatchdogTimeout: "1m"},
		Storage: StorageData{Backend: BackendSQLite, SQLite: &SQLiteData{Path: "/tmp/wx.db"}},
		REST:    RESTData{Port: 9000},
		Debug:   DebugData{IO: true, Data: true},
	}
	require.NoError(t, p.SaveConfig(in))

	out, err := p.LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, in, out)

	// saving again replaces the rows rather than adding new ones
	in.Storage = StorageData{Backend: BackendNone}
	require.NoError(t, p.SaveConfig(in))
	storage, err := p.GetStorageConfig()
	require.NoError(t, err)
	assert.Equal(t, &StorageData{Backend: BackendNone}, storage)
}

func TestSQLiteProviderReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.db")

	p, err := NewSQLiteProvider(path, nil)
	require.NoError(t, err)
	require.NoError(t, p.SaveConfig(&ConfigData{Station: StationData{Target: "bridge:4001"}}))
	require.NoError(t, p.Close())

	p, err = NewSQLiteProvider(path, nil)
	require.NoError(t, err)
	defer p.Close()

	station, err := p.GetStationConfig()
	require.NoError(t, err)
	assert.Equal(t, "bridge:4001", station.Target)
}
