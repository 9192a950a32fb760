package storage

import (
	"context"
	"time"

	"github.com/chrissnell/wmrcollector/internal/types"
)

// NullStore accepts every reading and keeps nothing. It backs the "none" storage backend.
type NullStore struct{}

func (NullStore) RecordReading(context.Context, types.Reading) error { return nil }

func (NullStore) CloseOpenInterval(context.Context, types.SensorID, time.Time) error { return nil }

func (NullStore) CloseAll(context.Context, time.Time) {}

func (NullStore) Snapshot() []CachedValue { return nil }
