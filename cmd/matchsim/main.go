package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/matchday/internal/simulator"
)

// Default configuration constants.
const (
	defaultActions    = 20
	defaultTimeout    = 10 * time.Second
	defaultRunTimeout = 30 * time.Minute
)

func main() {
	var (
		baseURL  = flag.String("url", "http://localhost:8080", "Base URL of the service")
		password = flag.String("password", "admin", "Admin password")
		home     = flag.String("home", "Vikings", "Home team")
		away     = flag.String("away", "Dragons", "Away team")
		actions  = flag.Int("actions", defaultActions, "Ledger actions per half")
		step     = flag.Duration("step", simulator.DefaultStep, "Pause between actions")
		timeout  = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		logFile  = flag.String("log", "", "Log file for simulator output (default: matchsim_TIMESTAMP.log)")
		verbose  = flag.Bool("verbose", false, "Log every action")
		help     = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		simulator.ShowHelp()
		return
	}

	config := &simulator.Config{
		BaseURL:  *baseURL,
		Password: *password,
		TeamA:    *home,
		TeamB:    *away,
		Actions:  *actions,
		Step:     *step,
		Timeout:  *timeout,
		LogFile:  *logFile,
		Verbose:  *verbose,
	}

	if err := run(config); err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
}

func run(config *simulator.Config) error {
	closer, err := simulator.SetupLogging(config.LogFile)
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	defer closer.Close()

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if _, err := simulator.Run(ctx, config); err != nil {
		return fmt.Errorf("simulation failed: %w", err)
	}
	return nil
}
