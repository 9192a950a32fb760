package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/chrissnell/wmrcollector/internal/database"
	"github.com/chrissnell/wmrcollector/internal/storage"
	"github.com/chrissnell/wmrcollector/internal/types"
)

// These tests need a scratch database, e.g.
// WMR_TEST_POSTGRES="host=localhost user=postgres dbname=wmr_test sslmode=disable"
func newTestWriter(t *testing.T) *Writer {
	t.Helper()

	dsn := os.Getenv("WMR_TEST_POSTGRES")
	if dsn == "" {
		t.Skip("WMR_TEST_POSTGRES not set")
	}

	w, err := New(context.Background(), dsn, zap.NewNop().Sugar())
	require.NoError(t, err)
	t.Cleanup(func() {
		for _, table := range database.IntervalTables() {
			w.db.Exec("DELETE FROM " + table)
		}
		w.Close()
	})
	return w
}

func TestWriterOpenAndExtend(t *testing.T) {
	w := newTestWriter(t)
	ctx := context.Background()
	start := time.Date(2024, time.February, 1, 10, 0, 0, 0, time.UTC)

	id, err := w.OpenInterval(ctx, types.AirPressure, types.NumericValue(1013), start)
	require.NoError(t, err)
	require.NoError(t, w.ExtendInterval(ctx, types.AirPressure, id, start.Add(time.Minute)))

	var row database.NumericInterval
	require.NoError(t, w.db.First(&row, int64(id)).Error)
	assert.Equal(t, 1013.0, row.Value)
	assert.True(t, row.StartTime.Equal(start))
	assert.True(t, row.EndTime.Equal(start.Add(time.Minute)))

	err = w.ExtendInterval(ctx, types.Forecast, id+1000, start)
	assert.ErrorIs(t, err, storage.ErrIntervalNotFound)
}

func TestWriterSeedsSensors(t *testing.T) {
	w := newTestWriter(t)

	var count int64
	require.NoError(t, w.db.Model(&database.Sensor{}).Count(&count).Error)
	assert.Equal(t, int64(len(types.AllSensors())), count)

	// a second migration must not fail on the existing rows
	_, err := NewWithDB(context.Background(), w.db, zap.NewNop().Sugar())
	require.NoError(t, err)

	h := w.CheckHealth(context.Background())
	assert.Equal(t, storage.StatusHealthy, h.Status)
}
