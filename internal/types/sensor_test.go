package types

import (
	"math"
	"testing"
)

func TestAllSensorsOrderedAndComplete(t *testing.T) {
	all := AllSensors()
	if len(all) != len(sensorInfo) {
		t.Fatalf("AllSensors() returned %d sensors, want %d", len(all), len(sensorInfo))
	}
	for i := 1; i < len(all); i++ {
		if all[i-1].ID >= all[i].ID {
			t.Errorf("sensors out of order at %d: %d then %d", i, all[i-1].ID, all[i].ID)
		}
	}
}

func TestSensorDomains(t *testing.T) {
	tests := []struct {
		sensor SensorID
		want   Domain
	}{
		{TempInside, Numeric},
		{UVIndex, Numeric},
		{RainTotalSum, Numeric},
		{BatteryLowOutsideCh2, Boolean},
		{BatteryLowUV, Boolean},
		{Forecast, State},
		{SensorID(99), 0},
	}

	for _, tt := range tests {
		t.Run(tt.sensor.String(), func(t *testing.T) {
			if got := tt.sensor.Domain(); got != tt.want {
				t.Errorf("Domain() = %v, want %v", got, tt.want)
			}
			if tt.sensor.Valid() != (tt.want != 0) {
				t.Errorf("Valid() = %v", tt.sensor.Valid())
			}
		})
	}
}

func TestThermoHygroChannel(t *testing.T) {
	tests := []struct {
		channel int
		want    OutsideChannel
		ok      bool
	}{
		{0, OutsideChannel{TempInside, HumidityInside, DewPointInside, 0}, true},
		{2, OutsideChannel{TempOutsideCh2, HumidityOutsideCh2, DewPointOutsideCh2, BatteryLowOutsideCh2}, true},
		{4, OutsideChannel{}, false},
	}

	for _, tt := range tests {
		got, ok := ThermoHygroChannel(tt.channel)
		if ok != tt.ok || got != tt.want {
			t.Errorf("ThermoHygroChannel(%d) = %+v, %v; want %+v, %v", tt.channel, got, ok, tt.want, tt.ok)
		}
	}
}

func TestValueEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b Value
		want bool
	}{
		{"same number", NumericValue(1.5), NumericValue(1.5), true},
		{"different number", NumericValue(1.5), NumericValue(1.6), false},
		{"NaN never equal", NumericValue(math.NaN()), NumericValue(math.NaN()), false},
		{"same flag", BoolValue(true), BoolValue(true), true},
		{"different flag", BoolValue(true), BoolValue(false), false},
		{"same state", StateValue("sunny"), StateValue("sunny"), true},
		{"different domain", NumericValue(0), BoolValue(false), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Equal(tt.b); got != tt.want {
				t.Errorf("%v.Equal(%v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestValueString(t *testing.T) {
	if got := NumericValue(21.5).String(); got != "21.5" {
		t.Errorf("NumericValue(21.5).String() = %q", got)
	}
	if got := BoolValue(true).String(); got != "true" {
		t.Errorf("BoolValue(true).String() = %q", got)
	}
	if !NumericValue(math.NaN()).IsNaN() || BoolValue(false).IsNaN() {
		t.Error("IsNaN misreports")
	}
}
