// Package storage turns the stream of sensor readings into value intervals and
// hands them to a database backend.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/chrissnell/wmrcollector/internal/types"
)

// IntervalID identifies an interval row inside a writer's backend
type IntervalID int64

var (
	ErrUnknownSensor  = errors.New("unknown sensor")
	ErrDomainMismatch = errors.New("value does not match sensor domain")

	// ErrIntervalNotFound is returned by writers asked to extend an interval they do not have
	ErrIntervalNotFound = errors.New("interval not found")
)

// Sink is what the station pipeline records readings into
type Sink interface {
	// RecordReading stores one reading, extending the sensor's current interval when
	// the value is unchanged and starting a new one otherwise.
	RecordReading(ctx context.Context, r types.Reading) error

	// CloseOpenInterval finalizes the open interval of one sensor at ts
	CloseOpenInterval(ctx context.Context, sensor types.SensorID, ts time.Time) error

	// CloseAll finalizes every open interval at ts and forgets all cached values.
	// Errors are logged; the cache is emptied regardless.
	CloseAll(ctx context.Context, ts time.Time)
}

// IntervalWriter persists intervals. Each interval is a (sensor, value, start, end)
// row; an interval is opened with start == end and its end time is moved forward
// while the value stays the same.
type IntervalWriter interface {
	OpenInterval(ctx context.Context, sensor types.SensorID, v types.Value, ts time.Time) (IntervalID, error)
	ExtendInterval(ctx context.Context, sensor types.SensorID, id IntervalID, ts time.Time) error
	Close() error
}

// CachedValue is the latest known value of a sensor
type CachedValue struct {
	Sensor   types.SensorID `json:"sensor" msgpack:"sensor"`
	Name     string         `json:"name" msgpack:"name"`
	Unit     string         `json:"unit,omitempty" msgpack:"unit,omitempty"`
	Value    any            `json:"value" msgpack:"value"`
	Since    time.Time      `json:"since" msgpack:"since"`
	LastSeen time.Time      `json:"last_seen" msgpack:"last_seen"`
}

// Snapshotter is implemented by sinks that can report their latest values
type Snapshotter interface {
	Snapshot() []CachedValue
}
