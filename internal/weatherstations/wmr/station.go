package wmr

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/chrissnell/wmrcollector/internal/metrics"
	"github.com/chrissnell/wmrcollector/internal/rain"
	"github.com/chrissnell/wmrcollector/internal/storage"
	"github.com/chrissnell/wmrcollector/internal/types"
	"github.com/chrissnell/wmrcollector/internal/weatherstations"
)

const (
	DefaultWatchdogTimeout = 5 * time.Minute
	DefaultReconnectDelay  = 10 * time.Second
	DefaultDialTimeout     = 10 * time.Second

	readBufferSize = 512

	// upper bound for finalizing intervals once the connection is gone
	closeTimeout = 10 * time.Second
)

var (
	ErrWatchdog         = errors.New("no data received before watchdog expired")
	ErrAlreadyStarted   = errors.New("station already started")
	ErrNotStarted       = errors.New("station not started")
	ErrConnectionClosed = errors.New("connection closed by bridge")
)

// Config holds the connection settings of one station
type Config struct {
	Name            string
	Target          string
	WatchdogTimeout time.Duration
	ReconnectDelay  time.Duration
	DialTimeout     time.Duration
}

// DialFunc opens the connection to the bridge
type DialFunc func(ctx context.Context, network, address string) (net.Conn, error)

// Option customizes a Station
type Option func(*Station)

// WithClock sets the clock used for reading timestamps and reconnect delays
func WithClock(c clockwork.Clock) Option {
	return func(s *Station) { s.clock = c }
}

// WithDialer replaces the TCP dialer
func WithDialer(d DialFunc) Option {
	return func(s *Station) { s.dial = d }
}

// WithDebugLoggers sets the loggers for raw I/O and decoded message details
func WithDebugLoggers(ioLog, msgLog *zap.SugaredLogger) Option {
	return func(s *Station) {
		if ioLog != nil {
			s.ioLog = ioLog
		}
		if msgLog != nil {
			s.msgLog = msgLog
		}
	}
}

var _ weatherstations.WeatherStation = (*Station)(nil)

// Station supervises the connection to a WMR console behind a TCP serial bridge.
// A single goroutine reads the socket, reassembles and decodes frames and records
// the readings, so everything downstream sees frames strictly in arrival order.
type Station struct {
	config  Config
	sink    storage.Sink
	rain    *rain.Accumulator
	metrics *metrics.Metrics
	logger  *zap.SugaredLogger
	ioLog   *zap.SugaredLogger
	msgLog  *zap.SugaredLogger
	clock   clockwork.Clock
	dial    DialFunc

	framer  *Framer
	decoder *Decoder

	statusMu sync.RWMutex
	status   weatherstations.Status

	runMu  sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewStation creates a Station. Zero durations in cfg fall back to the defaults.
func NewStation(cfg Config, sink storage.Sink, acc *rain.Accumulator, m *metrics.Metrics, logger *zap.SugaredLogger, opts ...Option) *Station {
	if cfg.WatchdogTimeout <= 0 {
		cfg.WatchdogTimeout = DefaultWatchdogTimeout
	}
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = DefaultReconnectDelay
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = DefaultDialTimeout
	}
	if acc == nil {
		acc = rain.New(rain.DefaultWindow)
	}
	if m == nil {
		m = metrics.NewMetricsForTesting()
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	s := &Station{
		config:  cfg,
		sink:    sink,
		rain:    acc,
		metrics: m,
		logger:  logger,
		ioLog:   logger,
		msgLog:  logger,
		clock:   clockwork.NewRealClock(),
		framer:  NewFramer(),
		status:  weatherstations.Status{Name: cfg.Name, Target: cfg.Target},
	}
	s.dial = (&net.Dialer{Timeout: cfg.DialTimeout}).DialContext

	for _, opt := range opts {
		opt(s)
	}
	s.decoder = NewDecoder(s.msgLog)

	return s
}

// StationName returns the configured station name
func (s *Station) StationName() string {
	return s.config.Name
}

// StartWeatherStation launches the connection loop in the background
func (s *Station) StartWeatherStation() error {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	if s.cancel != nil {
		return ErrAlreadyStarted
	}

	s.logger.Infof("Starting WMR weather station [%v]...", s.config.Name)

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})

	go func(done chan struct{}) {
		defer close(done)
		if err := s.Run(ctx); err != nil {
			s.logger.Errorf("station [%s] stopped: %v", s.config.Name, err)
		}
	}(s.done)

	return nil
}

// StopWeatherStation cancels the connection loop and waits until all open
// intervals have been closed
func (s *Station) StopWeatherStation() error {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	if s.cancel == nil {
		return ErrNotStarted
	}

	s.logger.Infof("Stopping WMR weather station [%v]...", s.config.Name)
	s.cancel()
	<-s.done
	s.cancel = nil
	return nil
}

// Connected reports whether the bridge connection is currently up
func (s *Station) Connected() bool {
	s.statusMu.RLock()
	defer s.statusMu.RUnlock()
	return s.status.Connected
}

// Status returns a copy of the current connection status
func (s *Station) Status() weatherstations.Status {
	s.statusMu.RLock()
	defer s.statusMu.RUnlock()
	return s.status
}

func (s *Station) updateStatus(f func(*weatherstations.Status)) {
	s.statusMu.Lock()
	f(&s.status)
	s.statusMu.Unlock()
}

// Run connects to the bridge and processes its data until ctx is cancelled,
// reconnecting after every connection loss. It only returns once ctx is done.
func (s *Station) Run(ctx context.Context) error {
	for {
		err := s.session(ctx)
		if ctx.Err() != nil {
			s.logger.Info("cancellation request received. Stopping WMR station")
			return nil
		}

		if err != nil {
			s.logger.Errorf("station [%s]: %v", s.config.Name, err)
			s.updateStatus(func(st *weatherstations.Status) { st.LastError = err.Error() })
		}

		s.logger.Infof("reconnecting to %s in %v", s.config.Target, s.config.ReconnectDelay)
		select {
		case <-ctx.Done():
			s.logger.Info("cancellation request received during reconnect wait")
			return nil
		case <-s.clock.After(s.config.ReconnectDelay):
		}
	}
}

// session runs one connection from dial to disconnect
func (s *Station) session(ctx context.Context) error {
	s.logger.Infof("connecting to %s ...", s.config.Target)

	conn, err := s.dial(ctx, "tcp", s.config.Target)
	if err != nil {
		return fmt.Errorf("could not connect to %s: %w", s.config.Target, err)
	}

	sessionID := uuid.NewString()
	logger := s.logger.With("session", sessionID)
	logger.Infof("connected to %s", conn.RemoteAddr())

	s.metrics.Connections.Inc()
	s.metrics.Connected.Set(1)
	s.updateStatus(func(st *weatherstations.Status) {
		st.Connected = true
		st.SessionID = sessionID
		st.ConnectedSince = s.clock.Now()
		st.LastError = ""
	})

	// closing the socket is what unblocks a pending read on shutdown
	stop := context.AfterFunc(ctx, func() { conn.Close() })

	err = s.readLoop(ctx, conn, logger)

	stop()
	conn.Close()
	s.disconnected(ctx, err)

	if ctx.Err() != nil {
		return nil
	}
	return err
}

func (s *Station) disconnected(ctx context.Context, cause error) {
	reason := "error"
	switch {
	case ctx.Err() != nil:
		reason = "shutdown"
	case errors.Is(cause, ErrWatchdog):
		reason = "watchdog"
	}
	s.metrics.Disconnects.WithLabelValues(reason).Inc()
	s.metrics.Connected.Set(0)

	closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), closeTimeout)
	defer cancel()
	s.sink.CloseAll(closeCtx, s.clock.Now())

	s.updateStatus(func(st *weatherstations.Status) {
		st.Connected = false
		st.SessionID = ""
	})
}

func (s *Station) readLoop(ctx context.Context, conn net.Conn, logger *zap.SugaredLogger) error {
	s.framer.Reset()
	buf := make([]byte, readBufferSize)

	for {
		// the deadline is wall-clock time on the socket, independent of s.clock
		if err := conn.SetReadDeadline(time.Now().Add(s.config.WatchdogTimeout)); err != nil {
			return fmt.Errorf("could not arm watchdog: %w", err)
		}

		n, err := conn.Read(buf)
		if n > 0 {
			s.metrics.BytesRead.Add(float64(n))
			if s.ioLog.Desugar().Core().Enabled(zap.DebugLevel) {
				s.ioLog.Debugf("read %d bytes: %s", n, hex.EncodeToString(buf[:n]))
			}
			s.handleChunk(ctx, buf[:n], logger)
		}

		if err != nil {
			switch {
			case ctx.Err() != nil:
				return nil
			case errors.Is(err, os.ErrDeadlineExceeded):
				return fmt.Errorf("%w after %v", ErrWatchdog, s.config.WatchdogTimeout)
			case errors.Is(err, io.EOF):
				return ErrConnectionClosed
			}
			return fmt.Errorf("read error: %w", err)
		}
	}
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, ErrChecksumMismatch):
		return "checksum"
	case errors.Is(err, ErrUnknownType):
		return "type"
	case errors.Is(err, ErrLengthMismatch):
		return "length"
	case errors.Is(err, ErrFrameTooShort):
		return "short"
	}
	return "other"
}

func (s *Station) handleChunk(ctx context.Context, chunk []byte, logger *zap.SugaredLogger) {
	for _, raw := range s.framer.Feed(chunk) {
		f, err := ParseFrame(raw)
		if err != nil {
			s.metrics.FramesRejected.WithLabelValues(rejectReason(err)).Inc()
			s.updateStatus(func(st *weatherstations.Status) { st.FramesRejected++ })
			if s.msgLog.Desugar().Core().Enabled(zap.DebugLevel) {
				s.msgLog.Debugf("dropping frame %s: %v", hex.EncodeToString(raw), err)
			}
			continue
		}

		now := s.clock.Now()
		msg := s.decoder.Decode(f, now)
		s.metrics.FramesDecoded.WithLabelValues(f.Type.String()).Inc()
		s.updateStatus(func(st *weatherstations.Status) {
			st.FramesDecoded++
			st.LastFrame = now
			if msg.Clock != nil {
				st.StationClock = msg.Clock.String()
			}
		})

		for _, r := range msg.Readings {
			if r.Sensor == types.RainAmount {
				r.Value = types.NumericValue(s.rain.Convert(r.Value.Number, r.Timestamp))
			}
			if err := s.sink.RecordReading(ctx, r); err != nil {
				if ctx.Err() != nil {
					return
				}
				logger.Errorf("could not record %v: %v", r.Sensor, err)
			}
		}
	}
}

// ValidateTarget checks that target is a host:port pair whose host resolves
func ValidateTarget(ctx context.Context, target string) error {
	host, port, err := net.SplitHostPort(target)
	if err != nil {
		return fmt.Errorf("invalid target %q: %w", target, err)
	}
	if host == "" {
		return fmt.Errorf("invalid target %q: missing host", target)
	}

	p, err := strconv.Atoi(port)
	if err != nil || p < 1 || p > 65535 {
		return fmt.Errorf("invalid target %q: bad port %q", target, port)
	}

	if _, err := net.DefaultResolver.LookupHost(ctx, host); err != nil {
		return fmt.Errorf("could not resolve %q: %w", host, err)
	}
	return nil
}
