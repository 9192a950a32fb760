package restserver

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/chrissnell/wmrcollector/internal/constants"
	"github.com/chrissnell/wmrcollector/internal/storage"
	"github.com/chrissnell/wmrcollector/internal/types"
	"github.com/chrissnell/wmrcollector/pkg/responseformat"
)

var noCache = map[string]string{"Cache-Control": "no-cache"}

// Handlers contains all HTTP handlers for the REST server
type Handlers struct {
	controller *Controller
	formatter  *responseformat.Formatter
}

// NewHandlers creates a new handlers instance
func NewHandlers(ctrl *Controller) *Handlers {
	return &Handlers{
		controller: ctrl,
		formatter:  responseformat.NewFormatter(),
	}
}

func (h *Handlers) snapshot() []storage.CachedValue {
	if h.controller.deps.Latest == nil {
		return nil
	}
	return h.controller.deps.Latest.Snapshot()
}

// GetLatest handles requests for the latest value of every sensor
func (h *Handlers) GetLatest(w http.ResponseWriter, req *http.Request) {
	readings := h.snapshot()
	if readings == nil {
		readings = []storage.CachedValue{}
	}

	resp := LatestResponse{
		Station:   h.controller.deps.Station.StationName(),
		Timestamp: time.Now().UTC(),
		Readings:  readings,
	}
	if err := h.formatter.WriteResponse(w, req, resp, noCache); err != nil {
		h.controller.logger.Errorf("error writing /latest response: %v", err)
	}
}

// GetLatestSensor handles requests for the latest value of a single sensor
func (h *Handlers) GetLatestSensor(w http.ResponseWriter, req *http.Request) {
	id, err := strconv.ParseUint(mux.Vars(req)["sensor"], 10, 16)
	if err != nil || !types.SensorID(id).Valid() {
		h.formatter.WriteError(w, req, http.StatusNotFound, "unknown sensor")
		return
	}

	for _, v := range h.snapshot() {
		if v.Sensor == types.SensorID(id) {
			if err := h.formatter.WriteResponse(w, req, v, noCache); err != nil {
				h.controller.logger.Errorf("error writing /latest response: %v", err)
			}
			return
		}
	}

	h.formatter.WriteError(w, req, http.StatusNotFound, "no current value for this sensor")
}

// GetSensors lists every sensor the collector knows about
func (h *Handlers) GetSensors(w http.ResponseWriter, req *http.Request) {
	all := types.AllSensors()
	resp := make([]SensorResponse, 0, len(all))
	for _, s := range all {
		resp = append(resp, SensorResponse{
			ID:        s.ID,
			Domain:    s.Domain.String(),
			Name:      s.Name,
			Unit:      s.Unit,
			Precision: s.Precision,
		})
	}
	h.formatter.WriteResponse(w, req, resp, map[string]string{"Cache-Control": "max-age=3600"})
}

func (h *Handlers) storageStatus() StorageStatus {
	st := StorageStatus{Backend: h.controller.deps.Backend, Healthy: true}
	if hm := h.controller.deps.Health; hm != nil {
		st.Health = hm.GetAllHealth()
		for backend := range st.Health {
			if !hm.IsHealthy(backend, healthMaxAge) {
				st.Healthy = false
			}
		}
	}
	return st
}

// GetStatus reports the station connection and storage health
func (h *Handlers) GetStatus(w http.ResponseWriter, req *http.Request) {
	resp := StatusResponse{
		Version: constants.Version,
		Station: h.controller.deps.Station.Status(),
		Storage: h.storageStatus(),
	}
	if err := h.formatter.WriteResponse(w, req, resp, noCache); err != nil {
		h.controller.logger.Errorf("error writing /status response: %v", err)
	}
}

// GetHealthz answers 200 while the bridge is connected and storage is healthy, 503 otherwise
func (h *Handlers) GetHealthz(w http.ResponseWriter, req *http.Request) {
	station := h.controller.deps.Station.Status()
	switch {
	case !station.Connected:
		h.formatter.WriteError(w, req, http.StatusServiceUnavailable, "station not connected")
	case !h.storageStatus().Healthy:
		h.formatter.WriteError(w, req, http.StatusServiceUnavailable, "storage unhealthy")
	default:
		h.formatter.WriteResponse(w, req, map[string]string{"status": "ok"}, noCache)
	}
}
