package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/orgoj/logfanout/internal/config"
)

func main() {
	flag.Parse()

	if len(flag.Args()) < 1 {
		fmt.Println("Error: Config file path is required")
		fmt.Println("Usage: config-validator <config-file>")
		os.Exit(1)
	}
	configPath := flag.Args()[0]

	// LoadConfig already runs structural and per-type validation.
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	enabled := 0
	for _, ep := range cfg.Endpoints {
		if ep.Enabled {
			enabled++
		}
	}
	if enabled == 0 {
		fmt.Println("Validation error: at least one endpoint must be enabled")
		os.Exit(1)
	}

	fmt.Printf("Configuration is valid! (%d endpoints, %d enabled)\n", len(cfg.Endpoints), enabled)
}
