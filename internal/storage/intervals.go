package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/chrissnell/wmrcollector/internal/metrics"
	"github.com/chrissnell/wmrcollector/internal/types"
	"go.uber.org/zap"
)

// staleFactor is how many normal intervals a sensor may stay silent before its
// cached value is no longer trusted
const staleFactor = 2

type cacheEntry struct {
	value    types.Value
	since    time.Time
	lastSeen time.Time
	interval IntervalID
}

// IntervalStore run-length encodes readings into intervals: as long as a sensor
// keeps reporting the same value, the end time of its open interval is moved
// forward instead of writing a new row.
//
// Every cached sensor has exactly one open interval. A failed write leaves the
// cache untouched, so the next reading retries the same transition.
type IntervalStore struct {
	writer  IntervalWriter
	metrics *metrics.Metrics
	logger  *zap.SugaredLogger

	// writeMu serializes store mutations; mu guards the cache for Snapshot readers
	writeMu sync.Mutex
	mu      sync.RWMutex
	cache   map[types.SensorID]cacheEntry
}

// NewIntervalStore returns an IntervalStore writing through w
func NewIntervalStore(w IntervalWriter, m *metrics.Metrics, logger *zap.SugaredLogger) *IntervalStore {
	if m == nil {
		m = metrics.NewMetricsForTesting()
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &IntervalStore{
		writer:  w,
		metrics: m,
		logger:  logger,
		cache:   make(map[types.SensorID]cacheEntry),
	}
}

func (s *IntervalStore) lookup(sensor types.SensorID) (cacheEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.cache[sensor]
	return e, ok
}

func (s *IntervalStore) set(sensor types.SensorID, e cacheEntry) {
	s.mu.Lock()
	s.cache[sensor] = e
	s.mu.Unlock()
}

func (s *IntervalStore) forget(sensor types.SensorID) {
	s.mu.Lock()
	delete(s.cache, sensor)
	s.mu.Unlock()
}

func (s *IntervalStore) timed(f func() error) error {
	start := time.Now()
	err := f()
	s.metrics.StorageDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		s.metrics.StorageErrors.Inc()
	}
	return err
}

func (s *IntervalStore) extend(ctx context.Context, sensor types.SensorID, id IntervalID, ts time.Time) error {
	return s.timed(func() error { return s.writer.ExtendInterval(ctx, sensor, id, ts) })
}

func (s *IntervalStore) open(ctx context.Context, sensor types.SensorID, v types.Value, ts time.Time) (IntervalID, error) {
	var id IntervalID
	err := s.timed(func() error {
		var err error
		id, err = s.writer.OpenInterval(ctx, sensor, v, ts)
		return err
	})
	return id, err
}

// RecordReading implements Sink
func (s *IntervalStore) RecordReading(ctx context.Context, r types.Reading) error {
	domain := r.Sensor.Domain()
	if domain == 0 {
		return fmt.Errorf("%w: %d", ErrUnknownSensor, r.Sensor)
	}
	if r.Value.Kind != domain {
		return fmt.Errorf("%w: %v expects %v, got %v", ErrDomainMismatch, r.Sensor, domain, r.Value.Kind)
	}

	if r.Value.IsNaN() {
		s.metrics.ReadingsDiscarded.Inc()
		s.logger.Debugf("discarding NaN reading for %v", r.Sensor)
		return nil
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	entry, cached := s.lookup(r.Sensor)

	if cached && r.NormalInterval > 0 && r.Timestamp.Sub(entry.lastSeen) > staleFactor*r.NormalInterval {
		// the open interval keeps the end time it had when the value was last confirmed
		s.logger.Debugf("%v has been silent since %v, starting a new interval", r.Sensor, entry.lastSeen)
		s.metrics.StaleReadings.Inc()
		s.forget(r.Sensor)
		cached = false
	}

	if cached && entry.value.Equal(r.Value) {
		if err := s.extend(ctx, r.Sensor, entry.interval, r.Timestamp); err != nil {
			return fmt.Errorf("extending interval %d of %v: %w", entry.interval, r.Sensor, err)
		}
		entry.lastSeen = r.Timestamp
		s.set(r.Sensor, entry)
		s.metrics.ReadingsRecorded.Inc()
		return nil
	}

	if cached {
		if err := s.extend(ctx, r.Sensor, entry.interval, r.Timestamp); err != nil {
			return fmt.Errorf("closing interval %d of %v: %w", entry.interval, r.Sensor, err)
		}
	}

	id, err := s.open(ctx, r.Sensor, r.Value, r.Timestamp)
	if err != nil {
		return fmt.Errorf("opening interval for %v: %w", r.Sensor, err)
	}
	s.logger.Debugw("new interval", "sensor", r.Sensor.String(), "value", r.Value.String(), "id", id)

	s.set(r.Sensor, cacheEntry{value: r.Value, since: r.Timestamp, lastSeen: r.Timestamp, interval: id})
	s.metrics.IntervalsOpened.WithLabelValues(domain.String()).Inc()
	s.metrics.ReadingsRecorded.Inc()
	return nil
}

// CloseOpenInterval implements Sink
func (s *IntervalStore) CloseOpenInterval(ctx context.Context, sensor types.SensorID, ts time.Time) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.closeLocked(ctx, sensor, ts)
}

func (s *IntervalStore) closeLocked(ctx context.Context, sensor types.SensorID, ts time.Time) error {
	entry, ok := s.lookup(sensor)
	if !ok {
		return nil
	}
	if err := s.extend(ctx, sensor, entry.interval, ts); err != nil {
		return fmt.Errorf("closing interval %d of %v: %w", entry.interval, sensor, err)
	}
	s.forget(sensor)
	return nil
}

// CloseAll implements Sink
func (s *IntervalStore) CloseAll(ctx context.Context, ts time.Time) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.RLock()
	sensors := make([]types.SensorID, 0, len(s.cache))
	for sensor := range s.cache {
		sensors = append(sensors, sensor)
	}
	s.mu.RUnlock()

	for _, sensor := range sensors {
		if err := s.closeLocked(ctx, sensor, ts); err != nil {
			s.logger.Errorf("could not close interval: %v", err)
			s.forget(sensor)
		}
	}
}

// Snapshot returns the cached value of every sensor, ordered by sensor ID
func (s *IntervalStore) Snapshot() []CachedValue {
	s.mu.RLock()
	out := make([]CachedValue, 0, len(s.cache))
	for sensor, e := range s.cache {
		info, _ := sensor.Info()
		out = append(out, CachedValue{
			Sensor:   sensor,
			Name:     info.Name,
			Unit:     info.Unit,
			Value:    e.value.Interface(),
			Since:    e.since,
			LastSeen: e.lastSeen,
		})
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Sensor < out[j].Sensor })
	return out
}

// Close closes the underlying writer
func (s *IntervalStore) Close() error {
	return s.writer.Close()
}
