package restserver

import (
	"time"

	"github.com/chrissnell/wmrcollector/internal/storage"
	"github.com/chrissnell/wmrcollector/internal/types"
	"github.com/chrissnell/wmrcollector/internal/weatherstations"
)

// LatestResponse carries the most recent value of every sensor heard this session
type LatestResponse struct {
	Station   string                `json:"station"`
	Timestamp time.Time             `json:"ts"`
	Readings  []storage.CachedValue `json:"readings"`
}

// SensorResponse describes one sensor
type SensorResponse struct {
	ID        types.SensorID `json:"id"`
	Domain    string         `json:"domain"`
	Name      string         `json:"name"`
	Unit      string         `json:"unit,omitempty"`
	Precision int            `json:"precision"`
}

// StatusResponse reports the station connection and the storage backend
type StatusResponse struct {
	Version string                 `json:"version"`
	Station weatherstations.Status `json:"station"`
	Storage StorageStatus          `json:"storage"`
}

type StorageStatus struct {
	Backend string                    `json:"backend"`
	Healthy bool                      `json:"healthy"`
	Health  map[string]storage.Health `json:"health,omitempty"`
}
