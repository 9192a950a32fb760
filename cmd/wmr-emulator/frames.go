package main

import (
	"math"
	"math/rand"
	"time"

	"github.com/chrissnell/wmrcollector/internal/weatherstations/wmr"
)

const batteryLowFlag = 0x40

// encodeSigned is the inverse of the console's sign-nibble magnitude encoding
func encodeSigned(v, scale float64) (low, high byte) {
	raw := uint16(math.Round(math.Abs(v)/scale)) & 0x0FFF
	low, high = byte(raw), byte(raw>>8)
	if v < 0 {
		high |= 0x80
	}
	return low, high
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// Weather is the simulated state of the station's sensors
type Weather struct {
	InsideTemp     float64
	InsideHumidity float64
	OutsideTemp    [3]float64
	OutsideHum     [3]float64
	Pressure       float64
	Forecast       byte
	WindDir        byte
	WindAvg        float64
	WindGust       float64
	RainRate       float64 // hundredths of an inch per hour
	RainTotal      float64 // hundredths of an inch since the counter was reset
	UV             byte
	BatteryLow     bool
	RainSince      time.Time
}

// NewWeather returns a plausible starting state
func NewWeather(now time.Time) *Weather {
	return &Weather{
		InsideTemp:     21.0,
		InsideHumidity: 45,
		OutsideTemp:    [3]float64{12.0, 8.5, -2.0},
		OutsideHum:     [3]float64{70, 80, 90},
		Pressure:       1013,
		Forecast:       0,
		WindAvg:        3.0,
		WindGust:       5.0,
		RainSince:      now,
	}
}

// Step advances every sensor by a small random walk
func (w *Weather) Step(r *rand.Rand) {
	w.InsideTemp = clamp(w.InsideTemp+(r.Float64()-0.5)*0.2, 15, 30)
	w.InsideHumidity = clamp(math.Round(w.InsideHumidity+(r.Float64()-0.5)*2), 20, 80)
	for i := range w.OutsideTemp {
		w.OutsideTemp[i] = clamp(w.OutsideTemp[i]+(r.Float64()-0.5)*0.4, -40, 50)
		w.OutsideHum[i] = clamp(math.Round(w.OutsideHum[i]+(r.Float64()-0.5)*3), 5, 99)
	}
	w.Pressure = clamp(math.Round(w.Pressure+(r.Float64()-0.5)*2), 950, 1050)
	switch {
	case w.Pressure > 1020:
		w.Forecast = 3
	case w.Pressure < 1000:
		w.Forecast = 1
	default:
		w.Forecast = 0
	}
	w.WindDir = byte(r.Intn(16))
	w.WindAvg = clamp(w.WindAvg+(r.Float64()-0.5), 0, 30)
	w.WindGust = w.WindAvg + r.Float64()*3
	if r.Float64() < 0.1 {
		w.RainRate = math.Round(r.Float64() * 50)
	} else if r.Float64() < 0.3 {
		w.RainRate = 0
	}
	w.RainTotal += math.Round(w.RainRate / 60)
	w.UV = byte(r.Intn(12))
}

// dewPoint uses the Magnus approximation
func dewPoint(temp, humidity float64) float64 {
	const a, b = 17.27, 237.7
	alpha := a*temp/(b+temp) + math.Log(humidity/100)
	return b * alpha / (a - alpha)
}

func (w *Weather) flags() byte {
	if w.BatteryLow {
		return batteryLowFlag
	}
	return 0
}

// TempHumidityFrame encodes channel 0 (inside) or one of the outside channels 1-3
func (w *Weather) TempHumidityFrame(channel int) []byte {
	temp, hum := w.InsideTemp, w.InsideHumidity
	if channel > 0 {
		temp, hum = w.OutsideTemp[channel-1], w.OutsideHum[channel-1]
	}

	p := make([]byte, 8)
	p[0] = byte(channel)
	p[1], p[2] = encodeSigned(temp, 0.1)
	p[3] = byte(hum)
	p[4], p[5] = encodeSigned(dewPoint(temp, hum), 0.1)
	return wmr.EncodeFrame(w.flags(), wmr.TypeTempHumidity, p)
}

func (w *Weather) PressureFrame() []byte {
	abs := uint16(w.Pressure) - 2
	rel := uint16(w.Pressure)
	return wmr.EncodeFrame(0, wmr.TypeAirPressure, []byte{
		byte(abs), w.Forecast<<4 | byte(abs>>8)&0x0F,
		byte(rel), w.Forecast<<4 | byte(rel>>8)&0x0F,
	})
}

func (w *Weather) WindFrame() []byte {
	gust := uint16(math.Round(w.WindGust*10)) & 0x0FFF
	avg := uint16(math.Round(w.WindAvg*10)) & 0x0FFF

	p := make([]byte, 7)
	p[0] = w.WindDir & 0x0F
	p[2] = byte(gust)
	p[3] = byte(gust>>8)&0x0F | byte(avg&0x0F)<<4
	p[4] = byte(avg >> 4)
	p[5] = 0x20 // no wind chill
	return wmr.EncodeFrame(w.flags(), wmr.TypeWind, p)
}

func (w *Weather) RainFrame() []byte {
	rate := uint16(w.RainRate)
	total := uint16(w.RainTotal)
	s := w.RainSince

	p := make([]byte, 13)
	p[0], p[1] = byte(rate), byte(rate>>8)
	p[6], p[7] = byte(total), byte(total>>8)
	p[8], p[9], p[10], p[11], p[12] = byte(s.Minute()), byte(s.Hour()), byte(s.Day()), byte(s.Month()), byte(s.Year()-2000)
	return wmr.EncodeFrame(w.flags(), wmr.TypeRain, p)
}

func (w *Weather) UVFrame() []byte {
	return wmr.EncodeFrame(w.flags(), wmr.TypeUV, []byte{0x00, w.UV})
}

// DateTimeFrame encodes now with the console's timezone offset in hours
func DateTimeFrame(now time.Time, utcOffset int) []byte {
	offset := byte(utcOffset)
	if utcOffset < 0 {
		offset = byte(128 - utcOffset)
	}
	return wmr.EncodeFrame(0x80, wmr.TypeDateTime, []byte{
		0, 0, byte(now.Minute()), byte(now.Hour()), byte(now.Day()), byte(now.Month()), byte(now.Year() - 2000), offset,
	})
}
