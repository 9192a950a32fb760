// config-test loads a configuration the way the collector does and reports problems,
// optionally comparing a YAML file with its SQLite conversion.
package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"reflect"
	"time"

	"github.com/chrissnell/wmrcollector/internal/weatherstations/wmr"
	"github.com/chrissnell/wmrcollector/pkg/config"
)

func main() {
	var (
		yamlFile   = flag.String("yaml", "", "Path to YAML configuration file")
		sqliteFile = flag.String("sqlite", "", "Path to SQLite configuration file")
		dial       = flag.Bool("dial", false, "Try to connect to the station target")
	)
	flag.Parse()

	if *yamlFile == "" && *sqliteFile == "" {
		fmt.Fprintf(os.Stderr, "Usage: %s [-yaml <config.yaml>] [-sqlite <config.db>] [-dial]\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(1)
	}

	var configs []*config.ConfigData
	ok := true

	if *yamlFile != "" {
		fmt.Printf("Loading YAML configuration: %s\n", *yamlFile)
		c, err := config.NewYAMLProvider(*yamlFile).LoadConfig()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading YAML config: %v\n", err)
			os.Exit(1)
		}
		configs = append(configs, c)
	}

	if *sqliteFile != "" {
		if _, err := os.Stat(*sqliteFile); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Loading SQLite configuration: %s\n", *sqliteFile)
		provider, err := config.NewSQLiteProvider(*sqliteFile, nil)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating SQLite provider: %v\n", err)
			os.Exit(1)
		}
		c, err := provider.LoadConfig()
		provider.Close()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading SQLite config: %v\n", err)
			os.Exit(1)
		}
		configs = append(configs, c)
	}

	if len(configs) == 2 {
		fmt.Println("\nComparison Results:")
		fmt.Println("==================")
		ok = compare("Station", configs[0].Station, configs[1].Station) && ok
		ok = compare("Storage", configs[0].Storage, configs[1].Storage) && ok
		ok = compare("REST", configs[0].REST, configs[1].REST) && ok
		ok = compare("Debug", configs[0].Debug, configs[1].Debug) && ok
	}

	c := configs[0]
	fmt.Println("\nValidation:")
	if err := c.Validate(); err != nil {
		fmt.Printf("✗ %v\n", err)
		os.Exit(1)
	}
	fmt.Println("✓ Configuration is valid")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := wmr.ValidateTarget(ctx, c.Station.Target); err != nil {
		fmt.Printf("✗ %v\n", err)
		ok = false
	} else {
		fmt.Printf("✓ Station target %s resolves\n", c.Station.Target)
	}

	if *dial {
		var d net.Dialer
		conn, err := d.DialContext(ctx, "tcp", c.Station.Target)
		if err != nil {
			fmt.Printf("✗ Could not connect to %s: %v\n", c.Station.Target, err)
			ok = false
		} else {
			conn.Close()
			fmt.Printf("✓ Connected to %s\n", c.Station.Target)
		}
	}

	if !ok {
		os.Exit(1)
	}
}

func compare(section string, yaml, sqlite any) bool {
	if reflect.DeepEqual(yaml, sqlite) {
		fmt.Printf("✓ %s matches\n", section)
		return true
	}
	fmt.Printf("✗ %s differs\n  YAML:   %+v\n  SQLite: %+v\n", section, yaml, sqlite)
	return false
}
