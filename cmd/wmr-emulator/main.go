// wmr-emulator pretends to be a WMR console behind a TCP serial bridge. It streams
// simulated frames to every client and can inject the kind of garbage a real
// serial line produces.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/chrissnell/wmrcollector/internal/log"
)

// FlakyLineConfig holds configuration for simulating a bad serial line
type FlakyLineConfig struct {
	Enabled        bool    // Enable flaky line simulation
	JunkRate       float64 // Probability of sending random bytes between frames (0.0-1.0)
	CorruptRate    float64 // Probability of corrupting a byte inside a frame (0.0-1.0)
	SplitRate      float64 // Probability of writing a frame in two pieces (0.0-1.0)
	DisconnectRate float64 // Probability of dropping the connection after a frame (0.0-1.0)
	SilenceRate    float64 // Probability of going quiet for a while (0.0-1.0)
	SilenceMax     time.Duration
}

// Emulator streams frames to connected collectors
type Emulator struct {
	speedup   float64
	utcOffset int
	flaky     FlakyLineConfig
	logger    *zap.SugaredLogger
}

func (e *Emulator) period(d time.Duration) time.Duration {
	return time.Duration(float64(d) / e.speedup)
}

// sender writes frames to one connection and applies the flaky line simulation
type sender struct {
	conn   net.Conn
	rng    *rand.Rand
	flaky  FlakyLineConfig
	logger *zap.SugaredLogger
}

func (s *sender) send(frame []byte) error {
	if s.flaky.Enabled && s.rng.Float64() < s.flaky.JunkRate {
		junk := make([]byte, 1+s.rng.Intn(6))
		s.rng.Read(junk)
		s.logger.Debugf("FLAKY: sending %d junk bytes", len(junk))
		if _, err := s.conn.Write(junk); err != nil {
			return err
		}
	}

	if s.flaky.Enabled && s.rng.Float64() < s.flaky.CorruptRate {
		frame = append([]byte(nil), frame...)
		// leave the marker alone so the collector still finds the frame
		pos := 2 + s.rng.Intn(len(frame)-2)
		frame[pos] ^= byte(1 + s.rng.Intn(255))
		s.logger.Debugf("FLAKY: corrupted byte at position %d", pos)
	}

	if s.flaky.Enabled && s.rng.Float64() < s.flaky.SplitRate {
		cut := 1 + s.rng.Intn(len(frame)-1)
		if _, err := s.conn.Write(frame[:cut]); err != nil {
			return err
		}
		time.Sleep(time.Duration(s.rng.Intn(50)) * time.Millisecond)
		frame = frame[cut:]
	}

	_, err := s.conn.Write(frame)
	return err
}

func (e *Emulator) handleConnection(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	logger := e.logger.With("client", conn.RemoteAddr().String())
	logger.Info("collector connected")

	s := &sender{
		conn:   conn,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
		flaky:  e.flaky,
		logger: logger,
	}
	weather := NewWeather(time.Now())

	tickers := map[string]*time.Ticker{
		"inside":   time.NewTicker(e.period(15 * time.Second)),
		"outside":  time.NewTicker(e.period(60 * time.Second)),
		"pressure": time.NewTicker(e.period(60 * time.Second)),
		"wind":     time.NewTicker(e.period(48 * time.Second)),
		"rain":     time.NewTicker(e.period(70 * time.Second)),
		"uv":       time.NewTicker(e.period(60 * time.Second)),
		"clock":    time.NewTicker(e.period(60 * time.Second)),
	}
	for _, t := range tickers {
		defer t.Stop()
	}

	// the console starts with a burst of everything it knows
	initial := [][]byte{
		weather.TempHumidityFrame(0), weather.TempHumidityFrame(1), weather.PressureFrame(),
		weather.WindFrame(), weather.RainFrame(), weather.UVFrame(), DateTimeFrame(time.Now(), e.utcOffset),
	}
	for _, f := range initial {
		if err := s.send(f); err != nil {
			logger.Infof("connection closed: %v", err)
			return
		}
	}

	for {
		var frames [][]byte
		select {
		case <-ctx.Done():
			return
		case <-tickers["inside"].C:
			weather.Step(s.rng)
			frames = append(frames, weather.TempHumidityFrame(0))
		case <-tickers["outside"].C:
			for ch := 1; ch <= 3; ch++ {
				frames = append(frames, weather.TempHumidityFrame(ch))
			}
		case <-tickers["pressure"].C:
			frames = append(frames, weather.PressureFrame())
		case <-tickers["wind"].C:
			frames = append(frames, weather.WindFrame())
		case <-tickers["rain"].C:
			frames = append(frames, weather.RainFrame())
		case <-tickers["uv"].C:
			frames = append(frames, weather.UVFrame())
		case <-tickers["clock"].C:
			frames = append(frames, DateTimeFrame(time.Now(), e.utcOffset))
		}

		for _, f := range frames {
			if err := s.send(f); err != nil {
				logger.Infof("connection closed: %v", err)
				return
			}
		}

		if e.flaky.Enabled && s.rng.Float64() < e.flaky.DisconnectRate {
			logger.Info("FLAKY: dropping connection")
			return
		}
		if e.flaky.Enabled && e.flaky.SilenceMax > 0 && s.rng.Float64() < e.flaky.SilenceRate {
			d := time.Duration(s.rng.Int63n(int64(e.flaky.SilenceMax)))
			logger.Infof("FLAKY: going silent for %v", d)
			select {
			case <-ctx.Done():
				return
			case <-time.After(d):
			}
		}
	}
}

func main() {
	var (
		port      = flag.Int("port", 4001, "Port to listen on")
		speedup   = flag.Float64("speedup", 1, "Send frames this many times faster than a real console")
		utcOffset = flag.Int("utc-offset", 0, "Timezone offset (hours) reported in date/time frames")
		debug     = flag.Bool("debug", false, "Turn on debugging output")

		// Flaky line simulation flags
		flaky          = flag.Bool("flaky", false, "Enable flaky serial line simulation")
		junkRate       = flag.Float64("junk-rate", 0.05, "Probability of junk bytes between frames (0.0-1.0)")
		corruptRate    = flag.Float64("corrupt-rate", 0.05, "Probability of corrupting a frame (0.0-1.0)")
		splitRate      = flag.Float64("split-rate", 0.1, "Probability of splitting a frame across writes (0.0-1.0)")
		disconnectRate = flag.Float64("disconnect-rate", 0.01, "Probability of disconnecting after a batch (0.0-1.0)")
		silenceRate    = flag.Float64("silence-rate", 0.01, "Probability of going silent (0.0-1.0)")
		silenceMax     = flag.Duration("silence-max", 10*time.Minute, "Longest silence")
	)
	flag.Parse()

	if err := log.Init(*debug); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if *speedup <= 0 {
		log.Fatalf("-speedup must be positive")
	}

	emulator := &Emulator{
		speedup:   *speedup,
		utcOffset: *utcOffset,
		logger:    log.Component("emulator", *debug),
		flaky: FlakyLineConfig{
			Enabled:        *flaky,
			JunkRate:       *junkRate,
			CorruptRate:    *corruptRate,
			SplitRate:      *splitRate,
			DisconnectRate: *disconnectRate,
			SilenceRate:    *silenceRate,
			SilenceMax:     *silenceMax,
		},
	}

	if *flaky {
		log.Infof("FLAKY LINE MODE ENABLED: junk %.1f%%, corrupt %.1f%%, split %.1f%%, disconnect %.1f%%, silence %.1f%% (max %v)",
			*junkRate*100, *corruptRate*100, *splitRate*100, *disconnectRate*100, *silenceRate*100, *silenceMax)
	}

	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", *port))
	if err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}

	// Handle graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		log.Info("Shutdown signal received, stopping server...")
		listener.Close()
	}()

	log.Infof("WMR emulator listening on port %d", *port)
	log.Infof("Point wmrcollector at station.target: localhost:%d", *port)

	var wg sync.WaitGroup
	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			log.Errorf("Failed to accept connection: %v", err)
			continue
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			emulator.handleConnection(ctx, conn)
		}()
	}

	wg.Wait()
	log.Info("Server stopped")
}
