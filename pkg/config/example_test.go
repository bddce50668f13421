package config_test

import (
	"fmt"

	"github.com/ftsfr/wrds-crsp-compustat/pkg/config"
)

// Example demonstrates how to use the config package
func Example() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		return
	}

	// Access configuration values
	fmt.Printf("Data dir: %s (%s)\n", cfg.Data.Dir, cfg.Data.Format)
	fmt.Printf("Environment: %s\n", cfg.Env)
	fmt.Printf("Postgres store enabled: %v\n", cfg.Database.Enabled())
	fmt.Printf("Reference start: %s\n", cfg.Reference.Start.Format("2006-01-02"))
}
