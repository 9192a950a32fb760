package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/chrissnell/wmrcollector/internal/database"
)

// IntervalRecord is one exported interval, joined with its sensor metadata
type IntervalRecord struct {
	Table     string    `db:"tbl" json:"table"`
	ID        int64     `db:"id" json:"id"`
	Sensor    int32     `db:"sensor" json:"sensor"`
	Name      string    `db:"name" json:"name"`
	Unit      string    `db:"unit" json:"unit,omitempty"`
	Value     string    `db:"value" json:"value"`
	StartTime time.Time `db:"starttime" json:"starttime"`
	EndTime   time.Time `db:"endtime" json:"endtime"`
}

// Filter narrows down the exported intervals
type Filter struct {
	Since   time.Time
	Until   time.Time
	Sensors []int
}

// buildQuery returns a query over every interval table plus its positional arguments.
// An interval matches the time filter when it overlaps [Since, Until].
func buildQuery(f Filter) (string, []any) {
	var where []string
	var args []any

	if !f.Since.IsZero() {
		args = append(args, f.Since.UTC())
		where = append(where, fmt.Sprintf("d.endtime >= $%d", len(args)))
	}
	if !f.Until.IsZero() {
		args = append(args, f.Until.UTC())
		where = append(where, fmt.Sprintf("d.starttime <= $%d", len(args)))
	}
	if len(f.Sensors) > 0 {
		args = append(args, f.Sensors)
		where = append(where, fmt.Sprintf("d.sensor = ANY($%d)", len(args)))
	}

	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var parts []string
	for _, table := range database.IntervalTables() {
		parts = append(parts, fmt.Sprintf(
			"SELECT '%[1]s' AS tbl, d.id, d.sensor::int4 AS sensor, s.name, COALESCE(s.unit, '') AS unit, "+
				"d.value::text AS value, d.starttime, d.endtime "+
				"FROM %[1]s d JOIN sensors s ON s.type = d.sensor%[2]s",
			table, clause))
	}

	return strings.Join(parts, " UNION ALL ") + " ORDER BY starttime, sensor", args
}
