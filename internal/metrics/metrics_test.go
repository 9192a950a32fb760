package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetricsWithRegistersEverything(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetricsWith(reg)

	m.Connected.Set(1)
	m.Disconnects.WithLabelValues("watchdog").Inc()
	m.FramesDecoded.WithLabelValues("wind").Add(2)
	m.FramesRejected.WithLabelValues("checksum").Inc()
	m.IntervalsOpened.WithLabelValues("numeric").Inc()
	m.StorageDuration.Observe(0.002)

	families, err := reg.Gather()
	require.NoError(t, err)

	types := make(map[string]dto.MetricType)
	for _, f := range families {
		types[f.GetName()] = f.GetType()
	}

	assert.Equal(t, dto.MetricType_GAUGE, types["wmrcollector_station_connected"])
	assert.Equal(t, dto.MetricType_COUNTER, types["wmrcollector_station_disconnects_total"])
	assert.Equal(t, dto.MetricType_COUNTER, types["wmrcollector_frames_decoded_total"])
	assert.Equal(t, dto.MetricType_HISTOGRAM, types["wmrcollector_storage_write_duration_seconds"])

	assert.Equal(t, 2.0, testutil.ToFloat64(m.FramesDecoded.WithLabelValues("wind")))
}

func TestNewMetricsWithTwiceOnOneRegistryPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewMetricsWith(reg)
	assert.Panics(t, func() { NewMetricsWith(reg) })
}

func TestNewMetricsForTestingIsUnregistered(t *testing.T) {
	a := NewMetricsForTesting()
	b := NewMetricsForTesting()

	a.BytesRead.Add(10)
	assert.Equal(t, 10.0, testutil.ToFloat64(a.BytesRead))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.BytesRead))
}
