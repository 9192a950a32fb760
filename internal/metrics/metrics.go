// Package metrics exposes Prometheus instrumentation for the collector.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "wmrcollector"

// Metrics holds the counters, histograms and gauges for the ingest path.
type Metrics struct {
	// Connection metrics.
	Connected   prometheus.Gauge
	Connections prometheus.Counter
	Disconnects *prometheus.CounterVec // labels: reason={error,watchdog,shutdown}
	BytesRead   prometheus.Counter

	// Frame metrics.
	FramesDecoded  *prometheus.CounterVec // labels: type
	FramesRejected *prometheus.CounterVec // labels: reason={checksum,type,length,short}

	// Store metrics.
	ReadingsRecorded  prometheus.Counter
	ReadingsDiscarded prometheus.Counter
	IntervalsOpened   *prometheus.CounterVec // labels: domain
	StaleReadings     prometheus.Counter
	StorageErrors     prometheus.Counter
	StorageDuration   prometheus.Histogram
}

// NewMetrics creates and registers all collector metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	return NewMetricsWith(prometheus.DefaultRegisterer)
}

// NewMetricsWith creates all collector metrics and registers them with reg.
func NewMetricsWith(reg prometheus.Registerer) *Metrics {
	m := newMetrics(true)
	reg.MustRegister(
		m.Connected,
		m.Connections,
		m.Disconnects,
		m.BytesRead,
		m.FramesDecoded,
		m.FramesRejected,
		m.ReadingsRecorded,
		m.ReadingsDiscarded,
		m.IntervalsOpened,
		m.StaleReadings,
		m.StorageErrors,
		m.StorageDuration,
	)
	return m
}

// NewMetricsForTesting creates Metrics that are not registered anywhere, so tests
// can build as many as they like.
func NewMetricsForTesting() *Metrics {
	return newMetrics(false)
}

func newMetrics(withHelp bool) *Metrics {
	help := func(s string) string {
		if withHelp {
			return s
		}
		return ""
	}

	return &Metrics{
		Connected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "station_connected",
			Help:      help("1 while the bridge connection is up, 0 otherwise."),
		}),
		Connections: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "station_connections_total",
			Help:      help("Successful connections to the bridge."),
		}),
		Disconnects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "station_disconnects_total",
			Help:      help("Connection losses by reason."),
		}, []string{"reason"}),
		BytesRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "station_bytes_read_total",
			Help:      help("Raw bytes read from the bridge."),
		}),
		FramesDecoded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_decoded_total",
			Help:      help("Valid frames decoded, by message type."),
		}, []string{"type"}),
		FramesRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_rejected_total",
			Help:      help("Frames dropped during validation, by reason."),
		}, []string{"reason"}),
		ReadingsRecorded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "readings_recorded_total",
			Help:      help("Readings accepted by the sensor store."),
		}),
		ReadingsDiscarded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "readings_discarded_total",
			Help:      help("Readings dropped because the station reported no data."),
		}),
		IntervalsOpened: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "intervals_opened_total",
			Help:      help("New value intervals written, by sensor domain."),
		}, []string{"domain"}),
		StaleReadings: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stale_cache_entries_total",
			Help:      help("Cached sensor values expired because the sensor went quiet."),
		}),
		StorageErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "storage_errors_total",
			Help:      help("Failed interval writes."),
		}),
		StorageDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "storage_write_duration_seconds",
			Help:      help("Duration of a single interval write."),
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}),
	}
}
