package main

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildQuery(t *testing.T) {
	since := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		filter   Filter
		contains []string
		args     int
	}{
		{"no filter", Filter{}, []string{"FROM numeric_data d", "FROM boolean_data d", "FROM state_data d"}, 0},
		{"since", Filter{Since: since}, []string{"d.endtime >= $1"}, 1},
		{"since until sensors", Filter{Since: since, Until: since.Add(time.Hour), Sensors: []int{1, 13}},
			[]string{"d.endtime >= $1", "d.starttime <= $2", "d.sensor = ANY($3)"}, 3},
		{"sensors only", Filter{Sensors: []int{200}}, []string{"d.sensor = ANY($1)"}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query, args := buildQuery(tt.filter)
			for _, c := range tt.contains {
				assert.Contains(t, query, c)
			}
			assert.Len(t, args, tt.args)
			assert.Equal(t, 2, strings.Count(query, "UNION ALL"))
			assert.True(t, strings.HasSuffix(query, "ORDER BY starttime, sensor"))
		})
	}
}

func TestParseFilter(t *testing.T) {
	f, err := parseFilter("2026-03-01T00:00:00Z", "2026-03-02T00:00:00Z", "1, 13,200")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 13, 200}, f.Sensors)
	assert.Equal(t, 24*time.Hour, f.Until.Sub(f.Since))

	_, err = parseFilter("yesterday", "", "")
	assert.Error(t, err)
	_, err = parseFilter("2026-03-02T00:00:00Z", "2026-03-01T00:00:00Z", "")
	assert.Error(t, err)
	_, err = parseFilter("", "", "1,x")
	assert.Error(t, err)
	_, err = parseFilter("", "", "70000")
	assert.Error(t, err)
}

var records = []IntervalRecord{
	{Table: "numeric_data", ID: 1, Sensor: 13, Name: "Air pressure", Unit: "hPa", Value: "1017",
		StartTime: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC), EndTime: time.Date(2026, 3, 1, 12, 5, 0, 0, time.UTC)},
	{Table: "state_data", ID: 2, Sensor: 200, Name: "Forecast", Value: "sunny, windy",
		StartTime: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC), EndTime: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)},
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeCSV(&buf, records))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "table", rows[0][0])
	assert.Equal(t, []string{"numeric_data", "1", "13", "Air pressure", "hPa", "1017", "2026-03-01T12:00:00Z", "2026-03-01T12:05:00Z"}, rows[1])
	assert.Equal(t, "sunny, windy", rows[2][5])
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeJSON(&buf, records))

	var out []IntervalRecord
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, records, out)

	buf.Reset()
	require.NoError(t, writeJSON(&buf, nil))
	assert.Equal(t, "[]\n", buf.String())
}
