// Package app wires the station, storage and REST server together.
package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/chrissnell/wmrcollector/internal/controllers/restserver"
	"github.com/chrissnell/wmrcollector/internal/log"
	"github.com/chrissnell/wmrcollector/internal/managers"
	"github.com/chrissnell/wmrcollector/internal/metrics"
	"github.com/chrissnell/wmrcollector/internal/weatherstations/wmr"
	"github.com/chrissnell/wmrcollector/pkg/config"
)

// App represents the main application
type App struct {
	config   *config.ConfigData
	logger   *zap.SugaredLogger
	registry *prometheus.Registry
	options  []wmr.Option
}

// New creates a new application instance. Extra options are passed on to the station.
func New(cfg *config.ConfigData, logger *zap.SugaredLogger, opts ...wmr.Option) *App {
	return &App{
		config:   cfg,
		logger:   logger,
		registry: prometheus.NewRegistry(),
		options:  opts,
	}
}

// Run starts the application and blocks until a shutdown signal arrives or ctx is
// cancelled. Open intervals are closed before it returns.
func (a *App) Run(ctx context.Context) error {
	var wg sync.WaitGroup

	if err := a.config.Validate(); err != nil {
		return err
	}

	// A target that cannot be resolved is a configuration error, not a transient one
	if err := wmr.ValidateTarget(ctx, a.config.Station.Target); err != nil {
		return fmt.Errorf("station target: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewMetricsWith(a.registry)

	// Initialize the storage manager
	sm, err := managers.NewStorageManager(ctx, &wg, a.config.Storage, m, a.logger,
		log.Component(log.ChannelData, a.config.Debug.Data))
	if err != nil {
		return err
	}
	defer func() {
		if err := sm.Close(); err != nil {
			a.logger.Errorf("error closing storage: %v", err)
		}
	}()

	station, err := managers.NewWeatherStation(a.config, sm.Sink, m, a.logger, a.options...)
	if err != nil {
		return err
	}

	// Initialize the controller manager
	cm, err := managers.NewControllerManager(ctx, &wg, a.config.REST, restserver.Dependencies{
		Station:  station,
		Latest:   sm.Latest,
		Health:   sm.Health,
		Backend:  sm.Backend,
		Gatherer: a.registry,
	}, a.logger)
	if err != nil {
		return err
	}
	if err := cm.StartControllers(); err != nil {
		return err
	}

	if err := station.StartWeatherStation(); err != nil {
		return err
	}

	a.logger.Info("Application started successfully")

	// Set up signal handling
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)

	// Wait for shutdown signal
	select {
	case <-sigs:
		a.logger.Info("shutdown signal received, initiating graceful shutdown...")
	case <-ctx.Done():
		a.logger.Info("context cancelled, shutting down...")
	}

	// stop the station first; it closes open intervals while storage is still up
	if err := station.StopWeatherStation(); err != nil {
		a.logger.Errorf("error stopping station: %v", err)
	}

	// Cancel context to signal all goroutines to stop
	cancel()

	// Wait for all workers to terminate
	a.logger.Info("waiting for all workers to terminate...")
	wg.Wait()
	a.logger.Info("shutdown complete")

	return nil
}
