package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/mitchellh/go-homedir"

	"mediakit/internal"
	"mediakit/pkg/logger"
)

var log = logger.Get("Main")

// main is the entry point to the program. The users mediakit
// configuration is loaded from their home directory (or the path
// provided via the -config flag), and the core service is run until
// an interrupt is received.
func main() {
	configPath := flag.String("config", defaultConfigPath(), "path to the YAML configuration file")
	verbosity := flag.Int("verbosity", logger.INFO.Level(), "minimum logging level (0: verbose ... 5: fatal)")
	flag.Parse()

	logger.SetMinLoggingLevel(*verbosity)

	config := internal.MediakitConfig{}
	if err := config.LoadFromFile(*configPath); err != nil {
		log.Fatalf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	kit, err := internal.New(config)
	if err != nil {
		log.Fatalf("Failed to initialise mediakit: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := kit.Run(ctx); err != nil {
		log.Fatalf("mediakit closed due to error: %v\n", err)
		os.Exit(1)
	}
}

func defaultConfigPath() string {
	home, err := homedir.Dir()
	if err != nil {
		return "config.yaml"
	}

	return filepath.Join(home, ".config", "mediakit", "config.yaml")
}
