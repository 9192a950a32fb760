package wmr

import (
	"math"
	"testing"
	"time"

	"github.com/chrissnell/wmrcollector/internal/types"
)

func TestSignedMagnitude(t *testing.T) {
	tests := []struct {
		name      string
		low, high byte
		scale     float64
		want      float64
	}{
		{"positive", 0x90, 0x01, 0.1, 40.0},
		{"negative", 0x90, 0x11, 0.1, -40.0},
		{"any sign nibble is negative", 0x05, 0x80, 0.1, -0.5},
		{"zero", 0x00, 0x00, 0.1, 0},
		{"unit scale", 0xFF, 0x0F, 1, 4095},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := signedMagnitude(tt.low, tt.high, tt.scale)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("signedMagnitude(%#x, %#x, %v) = %v, want %v", tt.low, tt.high, tt.scale, got, tt.want)
			}
		})
	}
}

type wantReading struct {
	sensor types.SensorID
	value  types.Value
}

func decodeWire(t *testing.T, wire []byte, at time.Time) Message {
	t.Helper()

	frames := NewFramer().Feed(wire)
	if len(frames) != 1 {
		t.Fatalf("framer produced %d frames, want 1", len(frames))
	}
	f, err := ParseFrame(frames[0])
	if err != nil {
		t.Fatalf("ParseFrame: %v", err)
	}
	return NewDecoder(nil).Decode(f, at)
}

func TestDecode(t *testing.T) {
	at := time.Date(2024, time.June, 1, 8, 30, 0, 0, time.UTC)

	tests := []struct {
		name         string
		flags        byte
		msgType      MessageType
		payload      []byte
		want         []wantReading
		wantInterval time.Duration
	}{
		{
			name:    "outside channel 1 with low battery",
			flags:   0x40,
			msgType: TypeTempHumidity,
			payload: []byte{0x01, 0x90, 0x01, 0x37, 0x64, 0x00, 0x00, 0x20},
			want: []wantReading{
				{types.TempOutsideCh1, types.NumericValue(40.0)},
				{types.DewPointOutsideCh1, types.NumericValue(10.0)},
				{types.HumidityOutsideCh1, types.NumericValue(55)},
				{types.BatteryLowOutsideCh1, types.BoolValue(true)},
			},
			wantInterval: outsideInterval,
		},
		{
			name:    "inside below freezing",
			msgType: TypeTempHumidity,
			payload: []byte{0x00, 0x19, 0x80, 0x28, 0x32, 0x80, 0x00, 0x20},
			want: []wantReading{
				{types.TempInside, types.NumericValue(-2.5)},
				{types.DewPointInside, types.NumericValue(-5.0)},
				{types.HumidityInside, types.NumericValue(40)},
			},
			wantInterval: insideInterval,
		},
		{
			name:    "air pressure with forecast",
			msgType: TypeAirPressure,
			payload: []byte{0xF5, 0x33, 0xF9, 0x03},
			want: []wantReading{
				{types.AirPressure, types.NumericValue(1017)},
				{types.Forecast, types.StateValue("sunny")},
			},
			wantInterval: pressureInterval,
		},
		{
			name:    "air pressure with unknown forecast code",
			msgType: TypeAirPressure,
			payload: []byte{0xF5, 0xF3, 0xF9, 0x03},
			want: []wantReading{
				{types.AirPressure, types.NumericValue(1017)},
			},
			wantInterval: pressureInterval,
		},
		{
			name:    "wind with gust",
			msgType: TypeWind,
			payload: []byte{0x04, 0x00, 0x20, 0x31, 0x02, 0x20, 0x00},
			want: []wantReading{
				{types.WindSpeedAvg, types.NumericValue(0.1 * 35)},
				{types.WindDirection, types.NumericValue(90)},
				{types.WindSpeedGust, types.NumericValue(0.1 * 288)},
				{types.BatteryLowWind, types.BoolValue(false)},
			},
			wantInterval: windInterval,
		},
		{
			name:    "wind gust equal to average is omitted",
			flags:   0x40,
			msgType: TypeWind,
			payload: []byte{0x00, 0x00, 0x10, 0x00, 0x01, 0x20, 0x00},
			want: []wantReading{
				{types.WindSpeedAvg, types.NumericValue(0.1 * 16)},
				{types.WindDirection, types.NumericValue(0)},
				{types.BatteryLowWind, types.BoolValue(true)},
			},
			wantInterval: windInterval,
		},
		{
			name:    "uv",
			msgType: TypeUV,
			payload: []byte{0x00, 0x07},
			want: []wantReading{
				{types.UVIndex, types.NumericValue(7)},
				{types.BatteryLowUV, types.BoolValue(false)},
			},
			wantInterval: uvInterval,
		},
		{
			name:    "rain",
			msgType: TypeRain,
			payload: []byte{0x64, 0x00, 0x0A, 0x00, 0x14, 0x00, 0xE8, 0x03, 0x00, 0x00, 0x01, 0x01, 0x18},
			want: []wantReading{
				{types.RainRate, types.NumericValue(rainScale * 100)},
				{types.RainAmount, types.NumericValue(rainScale * 1000)},
				{types.RainTotalSum, types.NumericValue(rainScale * 1000)},
				{types.BatteryLowRain, types.BoolValue(false)},
			},
			wantInterval: rainInterval,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := decodeWire(t, EncodeFrame(tt.flags, tt.msgType, tt.payload), at)

			if m.Type != tt.msgType {
				t.Errorf("Type = %v, want %v", m.Type, tt.msgType)
			}
			if len(m.Readings) != len(tt.want) {
				t.Fatalf("got %d readings, want %d: %+v", len(m.Readings), len(tt.want), m.Readings)
			}
			for i, w := range tt.want {
				r := m.Readings[i]
				if r.Sensor != w.sensor {
					t.Errorf("reading %d sensor = %v, want %v", i, r.Sensor, w.sensor)
				}
				if r.Value.Kind != w.value.Kind || math.Abs(r.Value.Number-w.value.Number) > 1e-9 ||
					r.Value.Flag != w.value.Flag || r.Value.Text != w.value.Text {
					t.Errorf("reading %d (%v) value = %v, want %v", i, r.Sensor, r.Value, w.value)
				}
				if !r.Timestamp.Equal(at) {
					t.Errorf("reading %d timestamp = %v, want %v", i, r.Timestamp, at)
				}
				if r.NormalInterval != tt.wantInterval {
					t.Errorf("reading %d interval = %v, want %v", i, r.NormalInterval, tt.wantInterval)
				}
			}
		})
	}
}

func TestDecodeUnknownChannelIsIgnored(t *testing.T) {
	m := decodeWire(t, EncodeFrame(0x00, TypeTempHumidity, []byte{0x05, 0x90, 0x01, 0x37, 0x64, 0x00, 0x00, 0x20}), time.Now())
	if len(m.Readings) != 0 {
		t.Errorf("got %d readings for channel 5, want none", len(m.Readings))
	}
}

func TestDecodeDateTime(t *testing.T) {
	tests := []struct {
		name       string
		payload    []byte
		wantClock  StationClock
		wantString string
	}{
		{
			name:       "positive offset",
			payload:    []byte{0x00, 0x00, 0x1E, 0x0E, 0x0F, 0x07, 0x18, 0x02},
			wantClock:  StationClock{Year: 2024, Month: 7, Day: 15, Hour: 14, Minute: 30, UTCOffset: 2},
			wantString: "2024-07-15 14:30 (UTC+2)",
		},
		{
			name:       "negative offset",
			payload:    []byte{0x00, 0x00, 0x05, 0x17, 0x01, 0x01, 0x19, 0x85},
			wantClock:  StationClock{Year: 2025, Month: 1, Day: 1, Hour: 23, Minute: 5, UTCOffset: -5},
			wantString: "2025-01-01 23:05 (UTC-5)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := decodeWire(t, EncodeFrame(0x80, TypeDateTime, tt.payload), time.Now())
			if m.Clock == nil {
				t.Fatal("Clock is nil")
			}
			if *m.Clock != tt.wantClock {
				t.Errorf("Clock = %+v, want %+v", *m.Clock, tt.wantClock)
			}
			if got := m.Clock.String(); got != tt.wantString {
				t.Errorf("String() = %q, want %q", got, tt.wantString)
			}
			if len(m.Readings) != 0 {
				t.Errorf("date/time frame produced %d readings", len(m.Readings))
			}
		})
	}
}
