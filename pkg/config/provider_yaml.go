package config

import (
	"os"

	"gopkg.in/yaml.v2"
)

// YAMLProvider implements ConfigProvider for YAML configuration files
type YAMLProvider struct {
	filename string
	config   *ConfigData
}

// NewYAMLProvider creates a new YAML configuration provider
func NewYAMLProvider(filename string) *YAMLProvider {
	return &YAMLProvider{
		filename: filename,
	}
}

// LoadConfig loads the complete configuration from YAML file
func (y *YAMLProvider) LoadConfig() (*ConfigData, error) {
	cfgFile, err := os.ReadFile(y.filename)
	if err != nil {
		return nil, err
	}

	config, err := ParseYAML(cfgFile)
	if err != nil {
		return nil, err
	}

	y.config = config
	return config, nil
}

// ParseYAML converts a YAML document into a ConfigData
func ParseYAML(data []byte) (*ConfigData, error) {
	// Load into temporary struct with YAML tags
	var yamlConfig struct {
		Station StationYAML `yaml:"station"`
		Storage StorageYAML `yaml:"storage"`
		REST    RESTYAML    `yaml:"rest,omitempty"`
		Debug   DebugYAML   `yaml:"debug,omitempty"`
	}

	if err := yaml.UnmarshalStrict(data, &yamlConfig); err != nil {
		return nil, err
	}

	// Convert to our internal format
	config := &ConfigData{
		Station: StationData{
			Name:            yamlConfig.Station.Name,
			Target:          yamlConfig.Station.Target,
			WatchdogTimeout: yamlConfig.Station.WatchdogTimeout,
			ReconnectDelay:  yamlConfig.Station.ReconnectDelay,
			RainWindow:      yamlConfig.Station.RainWindow,
		},
		Storage: StorageData{
			Backend: yamlConfig.Storage.Backend,
		},
		REST: RESTData{
			ListenAddr: yamlConfig.REST.ListenAddr,
			Port:       yamlConfig.REST.Port,
		},
		Debug: DebugData{
			IO:      yamlConfig.Debug.IO,
			Message: yamlConfig.Debug.Message,
			Data:    yamlConfig.Debug.Data,
		},
	}

	if yamlConfig.Storage.Postgres != nil {
		config.Storage.Postgres = &PostgresData{
			ConnectionString: yamlConfig.Storage.Postgres.ConnectionString,
		}
	}
	if yamlConfig.Storage.SQLite != nil {
		config.Storage.SQLite = &SQLiteData{
			Path: yamlConfig.Storage.SQLite.Path,
		}
	}

	return config, nil
}

// MarshalYAML renders a ConfigData in the format ParseYAML reads
func MarshalYAML(c *ConfigData) ([]byte, error) {
	out := struct {
		Station StationYAML `yaml:"station"`
		Storage StorageYAML `yaml:"storage"`
		REST    RESTYAML    `yaml:"rest,omitempty"`
		Debug   DebugYAML   `yaml:"debug,omitempty"`
	}{
		Station: StationYAML(c.Station),
		Storage: StorageYAML{Backend: c.Storage.Backend},
		REST:    RESTYAML(c.REST),
		Debug:   DebugYAML(c.Debug),
	}
	if c.Storage.Postgres != nil {
		out.Storage.Postgres = &PostgresYAML{ConnectionString: c.Storage.Postgres.ConnectionString}
	}
	if c.Storage.SQLite != nil {
		out.Storage.SQLite = &SQLiteYAML{Path: c.Storage.SQLite.Path}
	}
	return yaml.Marshal(out)
}

func (y *YAMLProvider) cached() (*ConfigData, error) {
	if y.config == nil {
		if _, err := y.LoadConfig(); err != nil {
			return nil, err
		}
	}
	return y.config, nil
}

// GetStationConfig returns the station configuration
func (y *YAMLProvider) GetStationConfig() (*StationData, error) {
	c, err := y.cached()
	if err != nil {
		return nil, err
	}
	return &c.Station, nil
}

// GetStorageConfig returns the storage configuration
func (y *YAMLProvider) GetStorageConfig() (*StorageData, error) {
	c, err := y.cached()
	if err != nil {
		return nil, err
	}
	return &c.Storage, nil
}

// GetRESTConfig returns the status server configuration
func (y *YAMLProvider) GetRESTConfig() (*RESTData, error) {
	c, err := y.cached()
	if err != nil {
		return nil, err
	}
	return &c.REST, nil
}

// IsReadOnly returns true since YAML files are read-only in this implementation
func (y *YAMLProvider) IsReadOnly() bool {
	return true
}

// Close is a no-op for YAML provider
func (y *YAMLProvider) Close() error {
	return nil
}

// YAML-specific structs with YAML tags

type StationYAML struct {
	Name            string `yaml:"name,omitempty"`
	Target          string `yaml:"target"`
	WatchdogTimeout string `yaml:"watchdog_timeout,omitempty"`
	ReconnectDelay  string `yaml:"reconnect_delay,omitempty"`
	RainWindow      string `yaml:"rain_window,omitempty"`
}

type StorageYAML struct {
	Backend  string        `yaml:"backend"`
	Postgres *PostgresYAML `yaml:"postgres,omitempty"`
	SQLite   *SQLiteYAML   `yaml:"sqlite,omitempty"`
}

type PostgresYAML struct {
	ConnectionString string `yaml:"connection_string"`
}

type SQLiteYAML struct {
	Path string `yaml:"path"`
}

type RESTYAML struct {
	ListenAddr string `yaml:"listen_addr,omitempty"`
	Port       int    `yaml:"port,omitempty"`
}

type DebugYAML struct {
	IO      bool `yaml:"io,omitempty"`
	Message bool `yaml:"message,omitempty"`
	Data    bool `yaml:"data,omitempty"`
}
