package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/chrissnell/wmrcollector/internal/storage"
	"github.com/chrissnell/wmrcollector/internal/types"
)

func newMemoryWriter(t *testing.T) *Writer {
	t.Helper()
	w, err := New(context.Background(), ":memory:", zap.NewNop().Sugar())
	require.NoError(t, err)
	t.Cleanup(func() { w.Close() })
	return w
}

var start = time.Date(2024, time.August, 20, 14, 0, 0, 0, time.UTC)

func TestWriterSeedsSensors(t *testing.T) {
	w := newMemoryWriter(t)

	var count int
	require.NoError(t, w.db.QueryRow("SELECT COUNT(*) FROM sensors").Scan(&count))
	assert.Equal(t, len(types.AllSensors()), count)

	var name, unit string
	var valueType int
	require.NoError(t, w.db.QueryRow("SELECT name, unit, value_type FROM sensors WHERE type = ?", int(types.AirPressure)).
		Scan(&name, &unit, &valueType))
	assert.Equal(t, "Air pressure", name)
	assert.Equal(t, "hPa", unit)
	assert.Equal(t, int(types.Numeric), valueType)

	// migrating again refreshes instead of failing on existing rows
	require.NoError(t, w.migrate(context.Background()))
}

func TestWriterIntervalsPerDomain(t *testing.T) {
	tests := []struct {
		name   string
		sensor types.SensorID
		value  types.Value
		table  string
		want   any
	}{
		{"numeric", types.TempInside, types.NumericValue(21.5), "numeric_data", 21.5},
		{"boolean", types.BatteryLowWind, types.BoolValue(true), "boolean_data", int64(1)},
		{"state", types.Forecast, types.StateValue("cloudy"), "state_data", "cloudy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := newMemoryWriter(t)
			ctx := context.Background()

			id, err := w.OpenInterval(ctx, tt.sensor, tt.value, start)
			require.NoError(t, err)
			require.NoError(t, w.ExtendInterval(ctx, tt.sensor, id, start.Add(90*time.Second)))

			var sensor int
			var value any
			var from, to string
			require.NoError(t, w.db.QueryRow(
				"SELECT sensor, value, starttime, endtime FROM "+tt.table+" WHERE id = ?", int64(id)).
				Scan(&sensor, &value, &from, &to))

			assert.Equal(t, int(tt.sensor), sensor)
			assert.Equal(t, tt.want, value)
			assert.Equal(t, "2024-08-20T14:00:00.000Z", from)
			assert.Equal(t, "2024-08-20T14:01:30.000Z", to)
		})
	}
}

func TestWriterExtendUnknownInterval(t *testing.T) {
	w := newMemoryWriter(t)
	err := w.ExtendInterval(context.Background(), types.UVIndex, storage.IntervalID(42), start)
	assert.ErrorIs(t, err, storage.ErrIntervalNotFound)
}

// The interval store and the SQLite writer together produce the run-length
// encoded rows for a sequence of readings.
func TestIntervalStoreOnSQLite(t *testing.T) {
	w := newMemoryWriter(t)
	s := storage.NewIntervalStore(w, nil, nil)
	ctx := context.Background()

	values := []float64{1013, 1013, 1013, 1014, 1014}
	for i, v := range values {
		require.NoError(t, s.RecordReading(ctx, types.Reading{
			Sensor:         types.AirPressure,
			Value:          types.NumericValue(v),
			Timestamp:      start.Add(time.Duration(i) * time.Minute),
			NormalInterval: time.Minute,
		}))
	}
	s.CloseAll(ctx, start.Add(5*time.Minute))

	rows, err := w.db.Query("SELECT value, starttime, endtime FROM numeric_data ORDER BY id")
	require.NoError(t, err)
	defer rows.Close()

	type row struct {
		value    float64
		from, to string
	}
	var got []row
	for rows.Next() {
		var r row
		require.NoError(t, rows.Scan(&r.value, &r.from, &r.to))
		got = append(got, r)
	}
	require.NoError(t, rows.Err())

	assert.Equal(t, []row{
		{1013, "2024-08-20T14:00:00.000Z", "2024-08-20T14:03:00.000Z"},
		{1014, "2024-08-20T14:03:00.000Z", "2024-08-20T14:05:00.000Z"},
	}, got)

	assert.Equal(t, storage.StatusHealthy, w.CheckHealth(ctx).Status)
}
