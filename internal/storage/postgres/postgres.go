// Package postgres stores sensor intervals in PostgreSQL through gorm.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/chrissnell/wmrcollector/internal/database"
	"github.com/chrissnell/wmrcollector/internal/storage"
	"github.com/chrissnell/wmrcollector/internal/types"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Writer implements storage.IntervalWriter on top of a gorm connection
type Writer struct {
	db     *gorm.DB
	logger *zap.SugaredLogger
}

// New connects to PostgreSQL, creates the tables if needed and seeds the sensors table
func New(ctx context.Context, connectionString string, logger *zap.SugaredLogger) (*Writer, error) {
	db, err := database.CreateConnection(connectionString)
	if err != nil {
		return nil, fmt.Errorf("connecting to PostgreSQL: %w", err)
	}

	w, err := NewWithDB(ctx, db, logger)
	if err != nil {
		if sqlDB, dbErr := db.DB(); dbErr == nil {
			sqlDB.Close()
		}
		return nil, err
	}
	return w, nil
}

// NewWithDB sets up the schema on an existing gorm connection
func NewWithDB(ctx context.Context, db *gorm.DB, logger *zap.SugaredLogger) (*Writer, error) {
	w := &Writer{db: db, logger: logger}

	logger.Info("creating interval tables...")
	err := db.WithContext(ctx).AutoMigrate(
		&database.Sensor{},
		&database.NumericInterval{},
		&database.BooleanInterval{},
		&database.StateInterval{},
	)
	if err != nil {
		return nil, fmt.Errorf("migrating schema: %w", err)
	}

	if err := w.seedSensors(ctx); err != nil {
		return nil, err
	}

	return w, nil
}

// seedSensors inserts the sensor metadata, refreshing rows that already exist
func (w *Writer) seedSensors(ctx context.Context) error {
	rows := database.SensorRows()
	err := w.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "type"}},
		DoUpdates: clause.AssignmentColumns([]string{"value_type", "name", "unit", "precision"}),
	}).Create(&rows).Error
	if err != nil {
		return fmt.Errorf("seeding sensors table: %w", err)
	}
	w.logger.Debugf("seeded %d sensor rows", len(rows))
	return nil
}

// OpenInterval implements storage.IntervalWriter
func (w *Writer) OpenInterval(ctx context.Context, sensor types.SensorID, v types.Value, ts time.Time) (storage.IntervalID, error) {
	row, err := database.NewIntervalRow(sensor, v, ts)
	if err != nil {
		return 0, err
	}

	if err := w.db.WithContext(ctx).Create(row).Error; err != nil {
		return 0, fmt.Errorf("could not store interval: %w", err)
	}

	switch r := row.(type) {
	case *database.NumericInterval:
		return storage.IntervalID(r.ID), nil
	case *database.BooleanInterval:
		return storage.IntervalID(r.ID), nil
	case *database.StateInterval:
		return storage.IntervalID(r.ID), nil
	}
	return 0, fmt.Errorf("unexpected row type %T", row)
}

// ExtendInterval implements storage.IntervalWriter
func (w *Writer) ExtendInterval(ctx context.Context, sensor types.SensorID, id storage.IntervalID, ts time.Time) error {
	table, err := database.IntervalTable(sensor.Domain())
	if err != nil {
		return err
	}

	res := w.db.WithContext(ctx).Table(table).Where("id = ?", int64(id)).Update("endtime", ts.UTC())
	if res.Error != nil {
		return fmt.Errorf("could not update interval end time: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s id %d", storage.ErrIntervalNotFound, table, id)
	}
	return nil
}

// Close closes the database connection
func (w *Writer) Close() error {
	sqlDB, err := w.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
