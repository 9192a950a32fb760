package database

import (
	"fmt"
	"time"

	"github.com/chrissnell/wmrcollector/internal/types"
)

// IntervalTable returns the interval table name for a sensor domain
func IntervalTable(d types.Domain) (string, error) {
	switch d {
	case types.Numeric:
		return NumericInterval{}.TableName(), nil
	case types.Boolean:
		return BooleanInterval{}.TableName(), nil
	case types.State:
		return StateInterval{}.TableName(), nil
	}
	return "", fmt.Errorf("no interval table for domain %v", d)
}

// IntervalTables lists every interval table
func IntervalTables() []string {
	return []string{NumericInterval{}.TableName(), BooleanInterval{}.TableName(), StateInterval{}.TableName()}
}

// NewIntervalRow builds the model row for a freshly opened interval
func NewIntervalRow(sensor types.SensorID, v types.Value, ts time.Time) (any, error) {
	ts = ts.UTC()
	switch v.Kind {
	case types.Numeric:
		return &NumericInterval{Sensor: uint16(sensor), Value: v.Number, StartTime: ts, EndTime: ts}, nil
	case types.Boolean:
		return &BooleanInterval{Sensor: uint16(sensor), Value: v.Flag, StartTime: ts, EndTime: ts}, nil
	case types.State:
		return &StateInterval{Sensor: uint16(sensor), Value: v.Text, StartTime: ts, EndTime: ts}, nil
	}
	return nil, fmt.Errorf("no interval row for domain %v", v.Kind)
}

// SensorRows returns the metadata rows for every known sensor
func SensorRows() []Sensor {
	all := types.AllSensors()
	rows := make([]Sensor, 0, len(all))
	for _, info := range all {
		rows = append(rows, Sensor{
			Type:      uint16(info.ID),
			ValueType: uint8(info.Domain),
			Name:      info.Name,
			Unit:      info.Unit,
			Precision: uint8(info.Precision),
		})
	}
	return rows
}
