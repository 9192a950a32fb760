package config

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/chrissnell/wmrcollector/pkg/migrate"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// MigrationTable tracks the schema version of a configuration database
const MigrationTable = "config_migrations"

// NewMigrator returns a migrator for the configuration schema of db
func NewMigrator(db *sql.DB, logger *zap.SugaredLogger) (*migrate.Migrator, error) {
	sub, err := fs.Sub(migrationFiles, "migrations")
	if err != nil {
		return nil, err
	}
	return migrate.NewMigrator(db, migrate.NewFSProvider(sub, MigrationTable), logger), nil
}

// ErrNoConfig is returned when the database holds no station configuration yet
var ErrNoConfig = errors.New("no configuration stored")

// SQLiteProvider implements ConfigProvider for SQLite database configuration.
// Every section lives in its own single-row table.
type SQLiteProvider struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteProvider opens the database at dbPath and brings its schema up to date
func NewSQLiteProvider(dbPath string, logger *zap.SugaredLogger) (*SQLiteProvider, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	// an in-memory database only lives as long as its one connection
	db.SetMaxOpenConns(1)

	migrator, err := NewMigrator(db, logger)
	if err != nil {
		db.Close()
		return nil, err
	}
	if err := migrator.MigrateUp(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate config database: %w", err)
	}

	return &SQLiteProvider{
		db:     db,
		dbPath: dbPath,
	}, nil
}

// LoadConfig loads the complete configuration from SQLite database
func (s *SQLiteProvider) LoadConfig() (*ConfigData, error) {
	config := &ConfigData{}

	station, err := s.GetStationConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load station config: %w", err)
	}
	config.Station = *station

	storage, err := s.GetStorageConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load storage config: %w", err)
	}
	config.Storage = *storage

	rest, err := s.GetRESTConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load rest config: %w", err)
	}
	config.REST = *rest

	debug, err := s.GetDebugConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load debug config: %w", err)
	}
	config.Debug = *debug

	return config, nil
}

// GetStationConfig returns the station configuration
func (s *SQLiteProvider) GetStationConfig() (*StationData, error) {
	var name, target string
	var watchdog, reconnect, rainWindow sql.NullString

	err := s.db.QueryRow(`
		SELECT name, target, watchdog_timeout, reconnect_delay, rain_window
		FROM station WHERE id = 1
	`).Scan(&name, &target, &watchdog, &reconnect, &rainWindow)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoConfig
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query station: %w", err)
	}

	return &StationData{
		Name:            name,
		Target:          target,
		WatchdogTimeout: watchdog.String,
		ReconnectDelay:  reconnect.String,
		RainWindow:      rainWindow.String,
	}, nil
}

// GetStorageConfig returns the storage configuration. A missing row means no storage.
func (s *SQLiteProvider) GetStorageConfig() (*StorageData, error) {
	var backend string
	var connString, path sql.NullString

	err := s.db.QueryRow(`
		SELECT backend, postgres_connection_string, sqlite_path
		FROM storage WHERE id = 1
	`).Scan(&backend, &connString, &path)
	if errors.Is(err, sql.ErrNoRows) {
		return &StorageData{Backend: BackendNone}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query storage: %w", err)
	}

	storage := &StorageData{Backend: backend}
	if connString.Valid {
		storage.Postgres = &PostgresData{ConnectionString: connString.String}
	}
	if path.Valid {
		storage.SQLite = &SQLiteData{Path: path.String}
	}
	return storage, nil
}

// GetRESTConfig returns the status server configuration
func (s *SQLiteProvider) GetRESTConfig() (*RESTData, error) {
	var listenAddr sql.NullString
	var port int

	err := s.db.QueryRow(`SELECT listen_addr, port FROM rest WHERE id = 1`).Scan(&listenAddr, &port)
	if errors.Is(err, sql.ErrNoRows) {
		return &RESTData{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query rest: %w", err)
	}

	return &RESTData{ListenAddr: listenAddr.String, Port: port}, nil
}

// GetDebugConfig returns the debug channel switches
func (s *SQLiteProvider) GetDebugConfig() (*DebugData, error) {
	debug := &DebugData{}

	err := s.db.QueryRow(`SELECT io, message, data FROM debug WHERE id = 1`).
		Scan(&debug.IO, &debug.Message, &debug.Data)
	if errors.Is(err, sql.ErrNoRows) {
		return debug, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query debug: %w", err)
	}
	return debug, nil
}

// IsReadOnly returns false since the database can be written by SaveConfig
func (s *SQLiteProvider) IsReadOnly() bool {
	return false
}

// Close closes the database connection
func (s *SQLiteProvider) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveConfig replaces the stored configuration with configData
func (s *SQLiteProvider) SaveConfig(configData *ConfigData) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	st := configData.Station
	if _, err := tx.Exec(`
		INSERT OR REPLACE INTO station (id, name, target, watchdog_timeout, reconnect_delay, rain_window)
		VALUES (1, ?, ?, ?, ?, ?)
	`, st.Name, st.Target, nullString(st.WatchdogTimeout), nullString(st.ReconnectDelay), nullString(st.RainWindow)); err != nil {
		return fmt.Errorf("failed to save station: %w", err)
	}

	var connString, path sql.NullString
	if configData.Storage.Postgres != nil {
		connString = nullString(configData.Storage.Postgres.ConnectionString)
	}
	if configData.Storage.SQLite != nil {
		path = nullString(configData.Storage.SQLite.Path)
	}
	backend := configData.Storage.Backend
	if backend == "" {
		backend = BackendNone
	}
	if _, err := tx.Exec(`
		INSERT OR REPLACE INTO storage (id, backend, postgres_connection_string, sqlite_path)
		VALUES (1, ?, ?, ?)
	`, backend, connString, path); err != nil {
		return fmt.Errorf("failed to save storage: %w", err)
	}

	if _, err := tx.Exec(`
		INSERT OR REPLACE INTO rest (id, listen_addr, port) VALUES (1, ?, ?)
	`, nullString(configData.REST.ListenAddr), configData.REST.Port); err != nil {
		return fmt.Errorf("failed to save rest: %w", err)
	}

	d := configData.Debug
	if _, err := tx.Exec(`
		INSERT OR REPLACE INTO debug (id, io, message, data) VALUES (1, ?, ?, ?)
	`, d.IO, d.Message, d.Data); err != nil {
		return fmt.Errorf("failed to save debug: %w", err)
	}

	return tx.Commit()
}

// Helper functions for handling nullable fields
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: s, Valid: true}
}
