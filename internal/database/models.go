package database

import (
	"time"
)

// Sensor describes one sensor in the sensors metadata table
type Sensor struct {
	Type      uint16 `gorm:"primaryKey;autoIncrement:false;column:type"`
	ValueType uint8  `gorm:"column:value_type;not null"`
	Name      string `gorm:"column:name;size:100;not null"`
	Unit      string `gorm:"column:unit;size:10"`
	Precision uint8  `gorm:"column:precision"`
}

// TableName specifies the table name for Sensor
func (Sensor) TableName() string {
	return "sensors"
}

// NumericInterval is a period during which a numeric sensor kept one value
type NumericInterval struct {
	ID        int64     `gorm:"primaryKey;autoIncrement;column:id"`
	Sensor    uint16    `gorm:"column:sensor;not null;index:numeric_sensor_starttime,priority:1;index:numeric_sensor_endtime,priority:1"`
	Value     float64   `gorm:"column:value;not null"`
	StartTime time.Time `gorm:"column:starttime;not null;index:numeric_sensor_starttime,priority:2"`
	EndTime   time.Time `gorm:"column:endtime;not null;index:numeric_sensor_endtime,priority:2"`
}

// TableName specifies the table name for NumericInterval
func (NumericInterval) TableName() string {
	return "numeric_data"
}

// BooleanInterval is a period during which an on/off sensor kept one state
type BooleanInterval struct {
	ID        int64     `gorm:"primaryKey;autoIncrement;column:id"`
	Sensor    uint16    `gorm:"column:sensor;not null;index:boolean_sensor_starttime,priority:1;index:boolean_sensor_endtime,priority:1"`
	Value     bool      `gorm:"column:value;not null"`
	StartTime time.Time `gorm:"column:starttime;not null;index:boolean_sensor_starttime,priority:2"`
	EndTime   time.Time `gorm:"column:endtime;not null;index:boolean_sensor_endtime,priority:2"`
}

// TableName specifies the table name for BooleanInterval
func (BooleanInterval) TableName() string {
	return "boolean_data"
}

// StateInterval is a period during which a textual sensor kept one state
type StateInterval struct {
	ID        int64     `gorm:"primaryKey;autoIncrement;column:id"`
	Sensor    uint16    `gorm:"column:sensor;not null;index:state_sensor_starttime,priority:1;index:state_sensor_endtime,priority:1"`
	Value     string    `gorm:"column:value;size:100;not null"`
	StartTime time.Time `gorm:"column:starttime;not null;index:state_sensor_starttime,priority:2"`
	EndTime   time.Time `gorm:"column:endtime;not null;index:state_sensor_endtime,priority:2"`
}

// TableName specifies the table name for StateInterval
func (StateInterval) TableName() string {
	return "state_data"
}
