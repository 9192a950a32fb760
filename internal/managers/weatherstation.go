package managers

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/chrissnell/wmrcollector/internal/log"
	"github.com/chrissnell/wmrcollector/internal/metrics"
	"github.com/chrissnell/wmrcollector/internal/rain"
	"github.com/chrissnell/wmrcollector/internal/storage"
	"github.com/chrissnell/wmrcollector/internal/weatherstations/wmr"
	"github.com/chrissnell/wmrcollector/pkg/config"
)

// NewWeatherStation builds the WMR station described by cfg, recording into sink
func NewWeatherStation(cfg *config.ConfigData, sink storage.Sink, m *metrics.Metrics, logger *zap.SugaredLogger, opts ...wmr.Option) (*wmr.Station, error) {
	timing, err := cfg.Station.Timing()
	if err != nil {
		return nil, fmt.Errorf("error creating weather station [%s]: %w", cfg.Station.Name, err)
	}

	opts = append([]wmr.Option{
		wmr.WithDebugLoggers(
			log.Component(log.ChannelIO, cfg.Debug.IO),
			log.Component(log.ChannelMessage, cfg.Debug.Message),
		),
	}, opts...)

	station := wmr.NewStation(wmr.Config{
		Name:            cfg.Station.Name,
		Target:          cfg.Station.Target,
		WatchdogTimeout: timing.WatchdogTimeout,
		ReconnectDelay:  timing.ReconnectDelay,
	}, sink, rain.New(timing.RainWindow), m, logger.With("station", cfg.Station.Name), opts...)

	return station, nil
}
