package main

import (
	"os"

	"github.com/nmrtools/ridat/internal/cli"
	"github.com/nmrtools/ridat/internal/config"
)

func main() {
	// Logging until the config is loaded: RIDAT_LOG_LEVEL, else warnings only.
	level := os.Getenv("RIDAT_LOG_LEVEL")
	if level == "" {
		level = "warn"
	}
	if err := config.ApplyLogLevel(level, os.Stderr); err != nil {
		_ = config.ApplyLogLevel("warn", os.Stderr)
	}

	os.Exit(cli.NewCLI().Run(os.Args, os.Stdin, os.Stdout, os.Stderr))
}
