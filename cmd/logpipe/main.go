// logpipe reads lines from stdin and fans each one out to the endpoints
// configured in a logfanout YAML config. Useful for wiring shell
// pipelines into the same destinations an application logs to.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/orgoj/logfanout/internal/config"
	"github.com/orgoj/logfanout/internal/logger"
	"github.com/orgoj/logfanout/internal/version"
)

func main() {
	// --- Configuration --- //
	configPath := flag.String("config", "config/config.yaml", "Path to the configuration file")
	levelName := flag.String("level", "info", "Priority level to log each input line at")
	testConfig := flag.Bool("t", false, "Test configuration and exit")
	showVersion := flag.Bool("version", false, "Show version information and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.VersionInfo())
		os.Exit(0)
	}

	level, err := logger.ParseLevel(*levelName)
	if err != nil {
		fmt.Printf("[CRITICAL] %v\n", err)
		os.Exit(1)
	}
	if level == logger.LevelAll || level == logger.LevelNone {
		fmt.Printf("[CRITICAL] records cannot carry threshold level '%s'\n", *levelName)
		os.Exit(1)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Printf("[CRITICAL] Failed to load configuration from '%s': %v\n", *configPath, err)
		os.Exit(1)
	}

	if *testConfig {
		fmt.Printf("Configuration '%s' is valid.\n", *configPath)
		os.Exit(0)
	}

	dispatcher, err := logger.NewDispatcherFromConfig(cfg)
	if err != nil {
		fmt.Printf("[CRITICAL] Failed to initialize endpoints: %v. Exiting.\n", err)
		os.Exit(1)
	}
	defer dispatcher.Close()

	// Stop reading on SIGINT/SIGTERM; whatever was already submitted
	// still drains through the deferred Close.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case line, ok := <-lines:
			if !ok {
				dispatcher.Barrier()
				return
			}
			dispatcher.Log(level, line)
		case <-quit:
			dispatcher.Barrier()
			return
		}
	}
}
