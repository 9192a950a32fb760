package postgres

import (
	"context"
	"errors"

	"github.com/chrissnell/wmrcollector/internal/storage"
)

// CheckHealth pings the database and runs a trivial query
func (w *Writer) CheckHealth(ctx context.Context) *storage.Health {
	if w.db == nil {
		return storage.NewHealth(storage.StatusUnhealthy, "No database connection", errors.New("PostgreSQL connection is nil"))
	}

	sqlDB, err := w.db.DB()
	if err != nil {
		return storage.NewHealth(storage.StatusUnhealthy, "Failed to get underlying database connection", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return storage.NewHealth(storage.StatusUnhealthy, "Database ping failed", err)
	}

	var result int
	if err := w.db.WithContext(ctx).Raw("SELECT 1").Scan(&result).Error; err != nil {
		return storage.NewHealth(storage.StatusUnhealthy, "Database query test failed", err)
	}

	return storage.NewHealth(storage.StatusHealthy, "PostgreSQL operational - ping: OK, query test: OK", nil)
}
