package managers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/chrissnell/wmrcollector/internal/metrics"
	"github.com/chrissnell/wmrcollector/internal/storage"
	"github.com/chrissnell/wmrcollector/internal/storage/postgres"
	"github.com/chrissnell/wmrcollector/internal/storage/sqlite"
	"github.com/chrissnell/wmrcollector/pkg/config"
)

const healthCheckInterval = 60 * time.Second

// StorageManager holds the configured storage backend
type StorageManager struct {
	Backend string
	Sink    storage.Sink
	Latest  storage.Snapshotter
	Health  *storage.HealthManager

	store *storage.IntervalStore
}

// writer is what a storage backend has to provide
type writer interface {
	storage.IntervalWriter
	storage.HealthChecker
}

// NewStorageManager opens the configured backend. With no backend configured readings
// are decoded and logged but not stored.
func NewStorageManager(ctx context.Context, wg *sync.WaitGroup, c config.StorageData, m *metrics.Metrics, logger, dataLogger *zap.SugaredLogger) (*StorageManager, error) {
	s := &StorageManager{
		Backend: c.Backend,
		Health:  storage.NewHealthManager(),
	}

	var w writer
	var err error

	switch c.Backend {
	case config.BackendNone, "":
		logger.Warn("no storage backend configured; readings will not be stored")
		s.Backend = config.BackendNone
		s.Sink = storage.NullStore{}
		return s, nil
	case config.BackendPostgres:
		if c.Postgres == nil {
			return nil, fmt.Errorf("postgres storage backend is missing its configuration")
		}
		w, err = postgres.New(ctx, c.Postgres.ConnectionString, logger)
	case config.BackendSQLite:
		if c.SQLite == nil {
			return nil, fmt.Errorf("sqlite storage backend is missing its configuration")
		}
		w, err = sqlite.New(ctx, c.SQLite.Path, logger)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", c.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("could not open %v storage backend: %w", c.Backend, err)
	}

	s.store = storage.NewIntervalStore(w, m, dataLogger)
	s.Sink = s.store
	s.Latest = s.store

	storage.StartHealthMonitor(ctx, wg, s.Backend, w, healthCheckInterval, s.Health, logger)

	return s, nil
}

// Close releases the backend. Intervals must have been closed beforehand.
func (s *StorageManager) Close() error {
	if s.store == nil {
		return nil
	}
	return s.store.Close()
}
