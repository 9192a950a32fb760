package types

import (
	"math"
	"strconv"
	"time"
)

// Value is a sensor value in one of the three sensor domains
type Value struct {
	Kind   Domain  `json:"kind"`
	Number float64 `json:"number,omitempty"`
	Flag   bool    `json:"flag,omitempty"`
	Text   string  `json:"text,omitempty"`
}

// NumericValue wraps a float reading
func NumericValue(f float64) Value {
	return Value{Kind: Numeric, Number: f}
}

// BoolValue wraps an on/off reading
func BoolValue(b bool) Value {
	return Value{Kind: Boolean, Flag: b}
}

// StateValue wraps a textual state reading
func StateValue(s string) Value {
	return Value{Kind: State, Text: s}
}

// IsNaN is true for numeric values the station reported as "no data"
func (v Value) IsNaN() bool {
	return v.Kind == Numeric && math.IsNaN(v.Number)
}

// Equal compares two values of the same domain. NaN is never equal to anything.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case Numeric:
		return v.Number == o.Number
	case Boolean:
		return v.Flag == o.Flag
	case State:
		return v.Text == o.Text
	}
	return false
}

// Interface returns the underlying Go value, for encoders that want a plain scalar
func (v Value) Interface() any {
	switch v.Kind {
	case Numeric:
		return v.Number
	case Boolean:
		return v.Flag
	case State:
		return v.Text
	}
	return nil
}

func (v Value) String() string {
	switch v.Kind {
	case Numeric:
		return strconv.FormatFloat(v.Number, 'f', -1, 64)
	case Boolean:
		return strconv.FormatBool(v.Flag)
	case State:
		return v.Text
	}
	return "<invalid>"
}

// Reading is a single decoded sensor value together with the time it was received
// and the cadence at which the station normally refreshes it.
type Reading struct {
	Sensor    SensorID
	Value     Value
	Timestamp time.Time
	// NormalInterval is the expected refresh period. Zero disables staleness checks.
	NormalInterval time.Duration
}
