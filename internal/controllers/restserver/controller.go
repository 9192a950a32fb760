// Package restserver exposes the collector's live state over HTTP.
package restserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/chrissnell/wmrcollector/internal/storage"
	"github.com/chrissnell/wmrcollector/internal/weatherstations"
	"github.com/chrissnell/wmrcollector/pkg/config"
)

const (
	DefaultListenAddr = "0.0.0.0"

	// health reports older than this count as unhealthy
	healthMaxAge = 2 * time.Minute

	shutdownTimeout = 5 * time.Second
)

// Dependencies are the parts of the collector the REST server reports on
type Dependencies struct {
	Station weatherstations.WeatherStation
	Latest  storage.Snapshotter
	Health  *storage.HealthManager
	Backend string

	// Gatherer serves /metrics. Defaults to the global Prometheus registry.
	Gatherer prometheus.Gatherer
}

// Controller represents the REST server controller
type Controller struct {
	ctx        context.Context
	wg         *sync.WaitGroup
	restConfig config.RESTData
	deps       Dependencies
	Server     http.Server
	logger     *zap.SugaredLogger
	handlers   *Handlers
}

// NewController creates a new REST server controller
func NewController(ctx context.Context, wg *sync.WaitGroup, rc config.RESTData, deps Dependencies, logger *zap.SugaredLogger) (*Controller, error) {
	if deps.Station == nil {
		return nil, errors.New("REST server needs a station")
	}
	if deps.Gatherer == nil {
		deps.Gatherer = prometheus.DefaultGatherer
	}

	// If a ListenAddr was not provided, listen on all interfaces
	if rc.ListenAddr == "" {
		logger.Infof("rest.listen_addr not provided; defaulting to %v (all interfaces)", DefaultListenAddr)
		rc.ListenAddr = DefaultListenAddr
	}
	if rc.Port <= 0 || rc.Port > 65535 {
		return nil, fmt.Errorf("invalid REST port %d", rc.Port)
	}

	ctrl := &Controller{
		ctx:        ctx,
		wg:         wg,
		restConfig: rc,
		deps:       deps,
		logger:     logger,
	}
	ctrl.handlers = NewHandlers(ctrl)

	ctrl.Server.Addr = net.JoinHostPort(rc.ListenAddr, strconv.Itoa(rc.Port))
	ctrl.Server.Handler = ctrl.setupRouter()
	ctrl.Server.ReadHeaderTimeout = 10 * time.Second

	return ctrl, nil
}

// StartController starts the REST server
func (c *Controller) StartController() error {
	ln, err := net.Listen("tcp", c.Server.Addr)
	if err != nil {
		return fmt.Errorf("REST server could not listen on %v: %w", c.Server.Addr, err)
	}

	c.logger.Infof("Starting REST server on %v...", ln.Addr())
	c.wg.Add(1)

	go func() {
		defer c.wg.Done()
		if err := c.Server.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			c.logger.Errorf("REST server error: %v", err)
		}
	}()

	go func() {
		<-c.ctx.Done()
		c.logger.Info("Shutting down the REST server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		c.Server.Shutdown(shutdownCtx)
	}()

	return nil
}

// setupRouter configures the HTTP router with all endpoints
func (c *Controller) setupRouter() *mux.Router {
	router := mux.NewRouter()
	router.Use(c.loggingMiddleware)

	router.HandleFunc("/latest", c.handlers.GetLatest).Methods(http.MethodGet)
	router.HandleFunc("/latest/{sensor:[0-9]+}", c.handlers.GetLatestSensor).Methods(http.MethodGet)
	router.HandleFunc("/sensors", c.handlers.GetSensors).Methods(http.MethodGet)
	router.HandleFunc("/status", c.handlers.GetStatus).Methods(http.MethodGet)
	router.HandleFunc("/healthz", c.handlers.GetHealthz).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.HandlerFor(c.deps.Gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	return router
}

// loggingMiddleware logs all requests except for scrapes and probes
func (c *Controller) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)

		if r.URL.Path != "/metrics" && r.URL.Path != "/healthz" {
			c.logger.Debugf("%s %s %s %v", r.Method, r.RequestURI, r.RemoteAddr, time.Since(start))
		}
	})
}
