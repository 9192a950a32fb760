// Package types holds the sensor identities, values and readings shared by the
// decoder, the rain accumulator and the storage layer.
package types

import "fmt"

// Domain is the value domain a sensor reports in
type Domain uint8

const (
	Numeric Domain = iota + 1
	Boolean
	State
)

func (d Domain) String() string {
	switch d {
	case Numeric:
		return "numeric"
	case Boolean:
		return "boolean"
	case State:
		return "state"
	default:
		return "unknown"
	}
}

// SensorID identifies one physical quantity reported by the station. The numeric
// values are persisted in the sensor column of the interval tables, so existing
// values must never be renumbered.
type SensorID uint16

// Numeric sensors
const (
	TempInside SensorID = iota + 1
	HumidityInside
	DewPointInside
	TempOutsideCh1
	HumidityOutsideCh1
	DewPointOutsideCh1
	TempOutsideCh2
	HumidityOutsideCh2
	DewPointOutsideCh2
	TempOutsideCh3
	HumidityOutsideCh3
	DewPointOutsideCh3
	AirPressure
	WindSpeedAvg
	WindSpeedGust
	WindDirection
	RainRate
	RainAmount
	RainTotalSum
	UVIndex
)

// Boolean sensors
const (
	BatteryLowOutsideCh1 SensorID = iota + 100
	BatteryLowOutsideCh2
	BatteryLowOutsideCh3
	BatteryLowWind
	BatteryLowRain
	BatteryLowUV
)

// State sensors
const (
	Forecast SensorID = iota + 200
)

// SensorInfo describes a sensor for display and for the sensors metadata table
type SensorInfo struct {
	ID        SensorID
	Domain    Domain
	Name      string
	Unit      string
	Precision int
}

var sensorInfo = map[SensorID]SensorInfo{
	TempInside:           {TempInside, Numeric, "Temperature inside", "°C", 1},
	HumidityInside:       {HumidityInside, Numeric, "Humidity inside", "%", 0},
	DewPointInside:       {DewPointInside, Numeric, "Dew point inside", "°C", 1},
	TempOutsideCh1:       {TempOutsideCh1, Numeric, "Temperature outside ch1", "°C", 1},
	HumidityOutsideCh1:   {HumidityOutsideCh1, Numeric, "Humidity outside ch1", "%", 0},
	DewPointOutsideCh1:   {DewPointOutsideCh1, Numeric, "Dew point outside ch1", "°C", 1},
	TempOutsideCh2:       {TempOutsideCh2, Numeric, "Temperature outside ch2", "°C", 1},
	HumidityOutsideCh2:   {HumidityOutsideCh2, Numeric, "Humidity outside ch2", "%", 0},
	DewPointOutsideCh2:   {DewPointOutsideCh2, Numeric, "Dew point outside ch2", "°C", 1},
	TempOutsideCh3:       {TempOutsideCh3, Numeric, "Temperature outside ch3", "°C", 1},
	HumidityOutsideCh3:   {HumidityOutsideCh3, Numeric, "Humidity outside ch3", "%", 0},
	DewPointOutsideCh3:   {DewPointOutsideCh3, Numeric, "Dew point outside ch3", "°C", 1},
	AirPressure:          {AirPressure, Numeric, "Air pressure", "hPa", 0},
	WindSpeedAvg:         {WindSpeedAvg, Numeric, "Wind speed", "m/s", 1},
	WindSpeedGust:        {WindSpeedGust, Numeric, "Wind gust", "m/s", 1},
	WindDirection:        {WindDirection, Numeric, "Wind direction", "°", 1},
	RainRate:             {RainRate, Numeric, "Rain rate", "mm/h", 1},
	RainAmount:           {RainAmount, Numeric, "Rain amount", "mm", 1},
	RainTotalSum:         {RainTotalSum, Numeric, "Rain total", "mm", 1},
	UVIndex:              {UVIndex, Numeric, "UV index", "", 0},
	BatteryLowOutsideCh1: {BatteryLowOutsideCh1, Boolean, "Battery low outside ch1", "", 0},
	BatteryLowOutsideCh2: {BatteryLowOutsideCh2, Boolean, "Battery low outside ch2", "", 0},
	BatteryLowOutsideCh3: {BatteryLowOutsideCh3, Boolean, "Battery low outside ch3", "", 0},
	BatteryLowWind:       {BatteryLowWind, Boolean, "Battery low wind sensor", "", 0},
	BatteryLowRain:       {BatteryLowRain, Boolean, "Battery low rain sensor", "", 0},
	BatteryLowUV:         {BatteryLowUV, Boolean, "Battery low UV sensor", "", 0},
	Forecast:             {Forecast, State, "Forecast", "", 0},
}

// Valid reports whether s is one of the known sensors
func (s SensorID) Valid() bool {
	_, ok := sensorInfo[s]
	return ok
}

// Info returns the metadata for s. The second return value is false for unknown sensors.
func (s SensorID) Info() (SensorInfo, bool) {
	info, ok := sensorInfo[s]
	return info, ok
}

// Domain returns the value domain of s, or zero for unknown sensors
func (s SensorID) Domain() Domain {
	return sensorInfo[s].Domain
}

func (s SensorID) String() string {
	if info, ok := sensorInfo[s]; ok {
		return info.Name
	}
	return fmt.Sprintf("sensor(%d)", uint16(s))
}

// AllSensors returns every known sensor ordered by ID
func AllSensors() []SensorInfo {
	all := make([]SensorInfo, 0, len(sensorInfo))
	for _, group := range [][2]SensorID{{TempInside, UVIndex}, {BatteryLowOutsideCh1, BatteryLowUV}, {Forecast, Forecast}} {
		for id := group[0]; id <= group[1]; id++ {
			all = append(all, sensorInfo[id])
		}
	}
	return all
}

// OutsideChannel groups the sensors fed by one remote thermo-hygro channel
type OutsideChannel struct {
	Temperature SensorID
	Humidity    SensorID
	DewPoint    SensorID
	BatteryLow  SensorID
}

// ThermoHygroChannel resolves the sensors for a temperature/humidity probe channel.
// Channel 0 is the console itself and has no battery sensor.
func ThermoHygroChannel(channel int) (OutsideChannel, bool) {
	switch channel {
	case 0:
		return OutsideChannel{TempInside, HumidityInside, DewPointInside, 0}, true
	case 1:
		return OutsideChannel{TempOutsideCh1, HumidityOutsideCh1, DewPointOutsideCh1, BatteryLowOutsideCh1}, true
	case 2:
		return OutsideChannel{TempOutsideCh2, HumidityOutsideCh2, DewPointOutsideCh2, BatteryLowOutsideCh2}, true
	case 3:
		return OutsideChannel{TempOutsideCh3, HumidityOutsideCh3, DewPointOutsideCh3, BatteryLowOutsideCh3}, true
	}
	return OutsideChannel{}, false
}
