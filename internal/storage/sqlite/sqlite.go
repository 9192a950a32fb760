// Package sqlite stores sensor intervals in a local SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/chrissnell/wmrcollector/internal/database"
	"github.com/chrissnell/wmrcollector/internal/storage"
	"github.com/chrissnell/wmrcollector/internal/types"
	"go.uber.org/zap"
)

// timestamps are stored as sortable UTC text
const timeLayout = "2006-01-02T15:04:05.000Z"

const createSensorsSQL = `
CREATE TABLE IF NOT EXISTS sensors (
	type INTEGER PRIMARY KEY,
	value_type INTEGER NOT NULL,
	name TEXT NOT NULL,
	unit TEXT,
	"precision" INTEGER
)`

const createIntervalTableSQL = `
CREATE TABLE IF NOT EXISTS %[1]s (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	sensor INTEGER NOT NULL,
	value %[2]s NOT NULL,
	starttime TEXT NOT NULL,
	endtime TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS %[1]s_sensor_starttime ON %[1]s (sensor, starttime);
CREATE INDEX IF NOT EXISTS %[1]s_sensor_endtime ON %[1]s (sensor, endtime)`

const upsertSensorSQL = `
INSERT INTO sensors (type, value_type, name, unit, "precision") VALUES (?, ?, ?, ?, ?)
ON CONFLICT(type) DO UPDATE SET
	value_type = excluded.value_type,
	name = excluded.name,
	unit = excluded.unit,
	"precision" = excluded."precision"`

// Writer implements storage.IntervalWriter on a SQLite file
type Writer struct {
	db     *sql.DB
	path   string
	logger *zap.SugaredLogger
}

// New opens (or creates) the database at path and prepares the schema
func New(ctx context.Context, path string, logger *zap.SugaredLogger) (*Writer, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	// one connection keeps an in-memory database alive and serializes writes
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	w := &Writer{db: db, path: path, logger: logger}
	if err := w.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return w, nil
}

func (w *Writer) migrate(ctx context.Context) error {
	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA busy_timeout=5000"} {
		if _, err := w.db.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("setting %q: %w", pragma, err)
		}
	}

	if _, err := w.db.ExecContext(ctx, createSensorsSQL); err != nil {
		return fmt.Errorf("creating sensors table: %w", err)
	}

	columnTypes := map[types.Domain]string{
		types.Numeric: "REAL",
		types.Boolean: "INTEGER",
		types.State:   "TEXT",
	}
	for _, d := range []types.Domain{types.Numeric, types.Boolean, types.State} {
		table, _ := database.IntervalTable(d)
		if _, err := w.db.ExecContext(ctx, fmt.Sprintf(createIntervalTableSQL, table, columnTypes[d])); err != nil {
			return fmt.Errorf("creating %s table: %w", table, err)
		}
	}

	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	rows := database.SensorRows()
	for _, s := range rows {
		if _, err := tx.ExecContext(ctx, upsertSensorSQL, s.Type, s.ValueType, s.Name, s.Unit, s.Precision); err != nil {
			return fmt.Errorf("seeding sensor %d: %w", s.Type, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit sensors: %w", err)
	}

	w.logger.Infof("SQLite interval database ready at %s (%d sensors)", w.path, len(rows))
	return nil
}

func formatTime(ts time.Time) string {
	return ts.UTC().Format(timeLayout)
}

// OpenInterval implements storage.IntervalWriter
func (w *Writer) OpenInterval(ctx context.Context, sensor types.SensorID, v types.Value, ts time.Time) (storage.IntervalID, error) {
	table, err := database.IntervalTable(v.Kind)
	if err != nil {
		return 0, err
	}

	stamp := formatTime(ts)
	res, err := w.db.ExecContext(ctx,
		"INSERT INTO "+table+" (sensor, value, starttime, endtime) VALUES (?, ?, ?, ?)",
		uint16(sensor), v.Interface(), stamp, stamp)
	if err != nil {
		return 0, fmt.Errorf("could not store interval: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("could not read interval id: %w", err)
	}
	return storage.IntervalID(id), nil
}

// ExtendInterval implements storage.IntervalWriter
func (w *Writer) ExtendInterval(ctx context.Context, sensor types.SensorID, id storage.IntervalID, ts time.Time) error {
	table, err := database.IntervalTable(sensor.Domain())
	if err != nil {
		return err
	}

	res, err := w.db.ExecContext(ctx, "UPDATE "+table+" SET endtime = ? WHERE id = ?", formatTime(ts), int64(id))
	if err != nil {
		return fmt.Errorf("could not update interval end time: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s id %d", storage.ErrIntervalNotFound, table, id)
	}
	return nil
}

// CheckHealth pings the database
func (w *Writer) CheckHealth(ctx context.Context) *storage.Health {
	if err := w.db.PingContext(ctx); err != nil {
		return storage.NewHealth(storage.StatusUnhealthy, "SQLite ping failed", err)
	}
	return storage.NewHealth(storage.StatusHealthy, "SQLite operational", nil)
}

// Close closes the database
func (w *Writer) Close() error {
	return w.db.Close()
}
