// Package weatherstations defines what the rest of the collector needs from a station driver.
package weatherstations

import "time"

// WeatherStation is an interface that provides standard methods for
// weather station backends
type WeatherStation interface {
	StartWeatherStation() error
	StopWeatherStation() error
	StationName() string
	Status() Status
}

// Status is a point-in-time view of a station connection
type Status struct {
	Name           string    `json:"name" msgpack:"name"`
	Target         string    `json:"target" msgpack:"target"`
	Connected      bool      `json:"connected" msgpack:"connected"`
	SessionID      string    `json:"session_id,omitempty" msgpack:"session_id,omitempty"`
	ConnectedSince time.Time `json:"connected_since,omitempty" msgpack:"connected_since,omitempty"`
	LastFrame      time.Time `json:"last_frame,omitempty" msgpack:"last_frame,omitempty"`
	FramesDecoded  uint64    `json:"frames_decoded" msgpack:"frames_decoded"`
	FramesRejected uint64    `json:"frames_rejected" msgpack:"frames_rejected"`
	StationClock   string    `json:"station_clock,omitempty" msgpack:"station_clock,omitempty"`
	LastError      string    `json:"last_error,omitempty" msgpack:"last_error,omitempty"`
}
