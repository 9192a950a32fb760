package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/chrissnell/wmrcollector/pkg/config"
)

func main() {
	var (
		yamlFile   = flag.String("yaml", "", "Path to YAML configuration file (required)")
		sqliteFile = flag.String("sqlite", "", "Path to SQLite database file (required)")
		force      = flag.Bool("force", false, "Overwrite existing SQLite database")
		dryRun     = flag.Bool("dry-run", false, "Show what would be done without executing")
		export     = flag.Bool("export", false, "Write the SQLite configuration out as YAML instead")
	)
	flag.Parse()

	if *yamlFile == "" || *sqliteFile == "" {
		fmt.Fprintf(os.Stderr, "Usage: %s -yaml <config.yaml> -sqlite <config.db> [-export]\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(1)
	}

	if *export {
		if err := exportYAML(*sqliteFile, *yamlFile, *force); err != nil {
			fmt.Fprintf(os.Stderr, "Error exporting configuration: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Configuration written to %s\n", *yamlFile)
		return
	}

	// Check if YAML file exists
	if _, err := os.Stat(*yamlFile); os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Error: YAML file does not exist: %s\n", *yamlFile)
		os.Exit(1)
	}

	// Check if SQLite file already exists
	if _, err := os.Stat(*sqliteFile); err == nil && !*force {
		fmt.Fprintf(os.Stderr, "Error: SQLite file already exists: %s\n", *sqliteFile)
		fmt.Fprintf(os.Stderr, "Use -force to overwrite or choose a different filename\n")
		os.Exit(1)
	}

	fmt.Printf("Converting YAML configuration to SQLite...\n")
	fmt.Printf("  Source: %s\n", *yamlFile)
	fmt.Printf("  Target: %s\n", *sqliteFile)

	if *dryRun {
		fmt.Println("DRY RUN - No changes will be made")
	}

	// Load YAML configuration
	yamlProvider := config.NewYAMLProvider(*yamlFile)
	configData, err := yamlProvider.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading YAML configuration: %v\n", err)
		os.Exit(1)
	}

	// catch mistakes now rather than when the collector starts
	if err := configData.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *dryRun {
		printConfigSummary(configData)
		fmt.Println("DRY RUN complete - no database created")
		return
	}

	// Remove existing SQLite file if force is specified
	if *force {
		if err := os.Remove(*sqliteFile); err != nil && !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Error removing existing SQLite file: %v\n", err)
			os.Exit(1)
		}
	}

	if err := os.MkdirAll(filepath.Dir(*sqliteFile), 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating directory: %v\n", err)
		os.Exit(1)
	}

	// NewSQLiteProvider applies the schema migrations
	sqliteProvider, err := config.NewSQLiteProvider(*sqliteFile, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating SQLite database: %v\n", err)
		os.Exit(1)
	}
	defer sqliteProvider.Close()

	if err := sqliteProvider.SaveConfig(configData); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration into SQLite: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Conversion completed successfully!\n")
	fmt.Printf("You can now use the SQLite backend with: -config-backend sqlite -config %s\n", *sqliteFile)
}

func exportYAML(sqliteFile, yamlFile string, force bool) error {
	if _, err := os.Stat(yamlFile); err == nil && !force {
		return fmt.Errorf("YAML file already exists: %s (use -force to overwrite)", yamlFile)
	}
	if _, err := os.Stat(sqliteFile); err != nil {
		return err
	}

	provider, err := config.NewSQLiteProvider(sqliteFile, nil)
	if err != nil {
		return err
	}
	defer provider.Close()

	configData, err := provider.LoadConfig()
	if err != nil {
		return err
	}

	data, err := config.MarshalYAML(configData)
	if err != nil {
		return err
	}
	return os.WriteFile(yamlFile, data, 0644)
}

func printConfigSummary(configData *config.ConfigData) {
	fmt.Println("\nConfiguration Summary:")
	fmt.Printf("Station %s:\n", configData.Station.Name)
	fmt.Printf("  - target: %s\n", configData.Station.Target)
	fmt.Printf("  - watchdog: %s, reconnect delay: %s, rain window: %s\n",
		configData.Station.WatchdogTimeout, configData.Station.ReconnectDelay, configData.Station.RainWindow)

	fmt.Printf("\nStorage Backend: %s\n", configData.Storage.Backend)
	if configData.Storage.Postgres != nil {
		fmt.Printf("  - PostgreSQL: %s\n", configData.Storage.Postgres.ConnectionString)
	}
	if configData.Storage.SQLite != nil {
		fmt.Printf("  - SQLite: %s\n", configData.Storage.SQLite.Path)
	}

	if configData.REST.Port != 0 {
		fmt.Printf("\nREST server: %s:%d\n", configData.REST.ListenAddr, configData.REST.Port)
	}
}
