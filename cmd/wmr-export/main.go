// wmr-export dumps the interval tables of a PostgreSQL collector database to CSV or JSON.
package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/chrissnell/wmrcollector/internal/log"
)

type ExportFormat string

const (
	FormatCSV  ExportFormat = "csv"
	FormatJSON ExportFormat = "json"
)

func main() {
	var (
		dsn       = flag.String("dsn", "postgres://postgres@localhost:5432/weather?sslmode=disable", "PostgreSQL connection string")
		formatStr = flag.String("format", "csv", "Export format: csv or json")
		output    = flag.String("output", "-", "Output file, - for stdout")
		since     = flag.String("since", "", "Only intervals ending at or after this RFC3339 time")
		until     = flag.String("until", "", "Only intervals starting at or before this RFC3339 time")
		sensors   = flag.String("sensors", "", "Comma separated list of sensor IDs")
		debug     = flag.Bool("debug", false, "Turn on debugging output")
	)
	flag.Parse()

	if err := log.Init(*debug); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	format := ExportFormat(*formatStr)
	if format != FormatCSV && format != FormatJSON {
		log.Fatalf("Invalid format: %s. Must be csv or json", *formatStr)
	}

	filter, err := parseFilter(*since, *until, *sensors)
	if err != nil {
		log.Fatalf("%v", err)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, *dsn)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}

	query, args := buildQuery(filter)
	log.Debugf("export query: %s %v", query, args)

	rows, err := pool.Query(ctx, query, args...)
	if err != nil {
		log.Fatalf("Failed to execute query: %v", err)
	}
	records, err := pgx.CollectRows(rows, pgx.RowToStructByName[IntervalRecord])
	if err != nil {
		log.Fatalf("Failed to read intervals: %v", err)
	}

	var out io.Writer = os.Stdout
	if *output != "-" {
		f, err := os.Create(*output)
		if err != nil {
			log.Fatalf("Failed to create file: %v", err)
		}
		defer f.Close()
		out = f
	}

	switch format {
	case FormatCSV:
		err = writeCSV(out, records)
	case FormatJSON:
		err = writeJSON(out, records)
	}
	if err != nil {
		log.Fatalf("Export failed: %v", err)
	}

	log.Infof("Exported %d intervals", len(records))
}

func parseFilter(since, until, sensors string) (Filter, error) {
	var f Filter
	var err error

	if since != "" {
		if f.Since, err = time.Parse(time.RFC3339, since); err != nil {
			return f, fmt.Errorf("invalid -since: %w", err)
		}
	}
	if until != "" {
		if f.Until, err = time.Parse(time.RFC3339, until); err != nil {
			return f, fmt.Errorf("invalid -until: %w", err)
		}
	}
	if !f.Since.IsZero() && !f.Until.IsZero() && f.Until.Before(f.Since) {
		return f, fmt.Errorf("-until is before -since")
	}

	if sensors != "" {
		for _, s := range strings.Split(sensors, ",") {
			id, err := strconv.Atoi(strings.TrimSpace(s))
			if err != nil || id < 0 || id > 65535 {
				return f, fmt.Errorf("invalid sensor ID %q", s)
			}
			f.Sensors = append(f.Sensors, id)
		}
	}

	return f, nil
}

func writeCSV(w io.Writer, records []IntervalRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"table", "id", "sensor", "name", "unit", "value", "starttime", "endtime"}); err != nil {
		return err
	}

	for _, r := range records {
		row := []string{
			r.Table,
			strconv.FormatInt(r.ID, 10),
			strconv.Itoa(int(r.Sensor)),
			r.Name,
			r.Unit,
			r.Value,
			r.StartTime.UTC().Format(time.RFC3339),
			r.EndTime.UTC().Format(time.RFC3339),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func writeJSON(w io.Writer, records []IntervalRecord) error {
	if records == nil {
		records = []IntervalRecord{}
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(records)
}
