package wmr

import (
	"fmt"
	"time"

	"github.com/chrissnell/wmrcollector/internal/types"
	"go.uber.org/zap"
)

const (
	// hundredths of an inch to millimeters
	rainScale = 0.01 * 25.4

	// wind chill byte value meaning the console has no wind chill figure
	windChillUnavailable = 0x20
)

// Refresh cadence of each sensor group, used downstream to detect stale values
const (
	insideInterval   = 15 * time.Second
	outsideInterval  = 60 * time.Second
	pressureInterval = 60 * time.Second
	uvInterval       = 60 * time.Second
	windInterval     = 48 * time.Second
	rainInterval     = 70 * time.Second
)

var forecasts = map[byte]string{
	0: "partly cloudy",
	1: "rainy",
	2: "cloudy",
	3: "sunny",
	4: "clear night",
	5: "snowy",
	6: "partly cloudy night",
}

// StationClock is the console's own idea of date and time
type StationClock struct {
	Year, Month, Day int
	Hour, Minute     int
	// UTCOffset is the configured timezone offset in hours
	UTCOffset int
}

func (c StationClock) String() string {
	return fmt.Sprintf("%04d-%02d-%02d %02d:%02d (UTC%+d)", c.Year, c.Month, c.Day, c.Hour, c.Minute, c.UTCOffset)
}

// Message is the result of decoding one frame
type Message struct {
	Type     MessageType
	Readings []types.Reading
	// Clock is only set for date/time frames
	Clock *StationClock
}

// Decoder turns validated frames into readings. It keeps no state between frames.
type Decoder struct {
	logger *zap.SugaredLogger
}

// NewDecoder returns a Decoder that reports per-message details on logger at debug level
func NewDecoder(logger *zap.SugaredLogger) *Decoder {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Decoder{logger: logger}
}

// Decode converts f into readings stamped with at
func (d *Decoder) Decode(f Frame, at time.Time) Message {
	m := Message{Type: f.Type}
	p := f.Payload

	switch f.Type {
	case TypeTempHumidity:
		m.Readings = d.decodeTempHumidity(f, p, at)
	case TypeRain:
		m.Readings = d.decodeRain(f, p, at)
	case TypeAirPressure:
		m.Readings = d.decodeAirPressure(p, at)
	case TypeWind:
		m.Readings = d.decodeWind(f, p, at)
	case TypeUV:
		m.Readings = d.decodeUV(f, p, at)
	case TypeDateTime:
		clock := decodeDateTime(p)
		m.Clock = &clock
		d.logger.Debugw("station clock", "clock", clock.String(),
			"external_power", f.Flags&0x80 == 0, "dcf_synchronized", f.Flags&0x20 != 0)
	default:
		d.logger.Debugf("unhandled message type %v", f.Type)
	}

	return m
}

// signedMagnitude decodes a 12 bit little-endian magnitude whose high byte carries
// a sign nibble: any non-zero high nibble makes the value negative.
func signedMagnitude(low, high byte, scale float64) float64 {
	raw := float64(uint16(high&0x0F)<<8 | uint16(low))
	if high>>4 != 0 {
		return -scale * raw
	}
	return scale * raw
}

// unsignedMagnitude12 decodes a 12 bit value whose upper nibble is used for something else
func unsignedMagnitude12(low, high byte) uint16 {
	return uint16(high&0x0F)<<8 | uint16(low)
}

func le16(low, high byte) uint16 {
	return uint16(high)<<8 | uint16(low)
}

func reading(sensor types.SensorID, v types.Value, at time.Time, interval time.Duration) types.Reading {
	return types.Reading{Sensor: sensor, Value: v, Timestamp: at, NormalInterval: interval}
}

func (d *Decoder) decodeTempHumidity(f Frame, p []byte, at time.Time) []types.Reading {
	channel := int(p[0] & 0x0F)
	temperature := signedMagnitude(p[1], p[2], 0.1)
	humidity := float64(p[3])
	dewPoint := signedMagnitude(p[4], p[5], 0.1)

	d.logger.Debugw("temperature/humidity",
		"channel", channel, "temperature", temperature, "dew_point", dewPoint, "humidity", humidity,
		"trend", (p[0]>>4)&0x03, "comfort", p[0]>>6)

	sensors, ok := types.ThermoHygroChannel(channel)
	if !ok {
		d.logger.Debugf("ignoring temperature frame for unknown channel %d", channel)
		return nil
	}

	interval := outsideInterval
	if channel == 0 {
		interval = insideInterval
	}

	readings := []types.Reading{
		reading(sensors.Temperature, types.NumericValue(temperature), at, interval),
		reading(sensors.DewPoint, types.NumericValue(dewPoint), at, interval),
		reading(sensors.Humidity, types.NumericValue(humidity), at, interval),
	}
	if sensors.BatteryLow != 0 {
		readings = append(readings, reading(sensors.BatteryLow, types.BoolValue(f.BatteryLow()), at, interval))
	}
	return readings
}

func (d *Decoder) decodeRain(f Frame, p []byte, at time.Time) []types.Reading {
	rate := rainScale * float64(le16(p[0], p[1]))
	thisHour := rainScale * float64(le16(p[2], p[3]))
	thisDay := rainScale * float64(le16(p[4], p[5]))
	total := rainScale * float64(le16(p[6], p[7]))

	d.logger.Debugw("rain",
		"rate", rate, "this_hour", thisHour, "this_day", thisDay, "total", total,
		"since", fmt.Sprintf("%04d-%02d-%02d %02d:%02d", 2000+int(p[12]), p[11], p[10], p[9], p[8]))

	return []types.Reading{
		reading(types.RainRate, types.NumericValue(rate), at, rainInterval),
		reading(types.RainAmount, types.NumericValue(total), at, rainInterval),
		reading(types.RainTotalSum, types.NumericValue(total), at, rainInterval),
		reading(types.BatteryLowRain, types.BoolValue(f.BatteryLow()), at, rainInterval),
	}
}

func (d *Decoder) decodeAirPressure(p []byte, at time.Time) []types.Reading {
	absolute := unsignedMagnitude12(p[0], p[1])
	forecast := p[1] >> 4
	relative := unsignedMagnitude12(p[2], p[3])
	relativeForecast := p[3] >> 4

	d.logger.Debugw("air pressure",
		"absolute", absolute, "relative", relative, "forecast", forecast, "relative_forecast", relativeForecast)

	readings := []types.Reading{
		reading(types.AirPressure, types.NumericValue(float64(relative)), at, pressureInterval),
	}
	if text, ok := forecasts[forecast]; ok {
		readings = append(readings, reading(types.Forecast, types.StateValue(text), at, pressureInterval))
	}
	return readings
}

func (d *Decoder) decodeWind(f Frame, p []byte, at time.Time) []types.Reading {
	direction := p[0] & 0x0F
	degrees := 360.0 * float64(direction) / 16.0
	gust := 0.1 * float64(unsignedMagnitude12(p[2], p[3]))
	average := 0.1 * float64(uint16(p[4])<<4|uint16(p[3]>>4))

	if p[5] != windChillUnavailable {
		d.logger.Debugw("wind", "direction", degrees, "average", average, "gust", gust, "wind_chill", p[5])
	} else {
		d.logger.Debugw("wind", "direction", degrees, "average", average, "gust", gust)
	}

	readings := []types.Reading{
		reading(types.WindSpeedAvg, types.NumericValue(average), at, windInterval),
		reading(types.WindDirection, types.NumericValue(degrees), at, windInterval),
	}
	// identical gust rows would only duplicate the average
	if gust != average {
		readings = append(readings, reading(types.WindSpeedGust, types.NumericValue(gust), at, windInterval))
	}
	return append(readings, reading(types.BatteryLowWind, types.BoolValue(f.BatteryLow()), at, windInterval))
}

func (d *Decoder) decodeUV(f Frame, p []byte, at time.Time) []types.Reading {
	level := p[1]
	d.logger.Debugf("UV level: %d", level)

	return []types.Reading{
		reading(types.UVIndex, types.NumericValue(float64(level)), at, uvInterval),
		reading(types.BatteryLowUV, types.BoolValue(f.BatteryLow()), at, uvInterval),
	}
}

func decodeDateTime(p []byte) StationClock {
	offset := int(p[7])
	if offset >= 128 {
		offset = 128 - offset
	}
	return StationClock{
		Minute:    int(p[2]),
		Hour:      int(p[3]),
		Day:       int(p[4]),
		Month:     int(p[5]),
		Year:      2000 + int(p[6]),
		UTCOffset: offset,
	}
}
