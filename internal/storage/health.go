package storage

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

// Health is the outcome of one backend health check
type Health struct {
	LastCheck time.Time `json:"last_check" msgpack:"last_check"`
	Status    string    `json:"status" msgpack:"status"`
	Message   string    `json:"message" msgpack:"message"`
	Error     string    `json:"error,omitempty" msgpack:"error,omitempty"`
}

// HealthChecker is implemented by writers that can probe their backend
type HealthChecker interface {
	CheckHealth(ctx context.Context) *Health
}

// NewHealth creates a basic health data structure
func NewHealth(status, message string, err error) *Health {
	h := &Health{
		LastCheck: time.Now(),
		Status:    status,
		Message:   message,
	}
	if err != nil {
		h.Error = err.Error()
	}
	return h
}

// HealthManager keeps the most recent health status of each backend in memory
type HealthManager struct {
	mu     sync.RWMutex
	health map[string]Health
}

// NewHealthManager creates a new health manager
func NewHealthManager() *HealthManager {
	return &HealthManager{
		health: make(map[string]Health),
	}
}

// UpdateHealth records the health status of a backend
func (hm *HealthManager) UpdateHealth(backend string, h *Health) {
	hm.mu.Lock()
	defer hm.mu.Unlock()
	hm.health[backend] = *h
}

// GetHealth retrieves the health status for a specific backend
func (hm *HealthManager) GetHealth(backend string) (Health, bool) {
	hm.mu.RLock()
	defer hm.mu.RUnlock()
	h, ok := hm.health[backend]
	return h, ok
}

// GetAllHealth retrieves the health status of every backend
func (hm *HealthManager) GetAllHealth() map[string]Health {
	hm.mu.RLock()
	defer hm.mu.RUnlock()

	result := make(map[string]Health, len(hm.health))
	for k, v := range hm.health {
		result[k] = v
	}
	return result
}

// IsHealthy checks if a backend is healthy and its status is no older than maxAge
func (hm *HealthManager) IsHealthy(backend string, maxAge time.Duration) bool {
	h, ok := hm.GetHealth(backend)
	if !ok {
		return false
	}
	if time.Since(h.LastCheck) > maxAge {
		return false
	}
	return h.Status == StatusHealthy
}

// StartHealthMonitor runs checker immediately and then every interval until ctx is
// cancelled, recording each result in hm.
func StartHealthMonitor(ctx context.Context, wg *sync.WaitGroup, backend string, checker HealthChecker, interval time.Duration, hm *HealthManager, logger *zap.SugaredLogger) {
	wg.Add(1)
	go func() {
		defer wg.Done()

		update := func() {
			h := checker.CheckHealth(ctx)
			hm.UpdateHealth(backend, h)
			if h.Status != StatusHealthy {
				logger.Warnf("%s health check failed: %s %s", backend, h.Message, h.Error)
			} else {
				logger.Debugf("updated %s health status: %s", backend, h.Status)
			}
		}

		update()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				update()
			case <-ctx.Done():
				logger.Infof("stopping %s health monitor", backend)
				return
			}
		}
	}()
}
