package simulator

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/okian/matchday/pkg/logger"
)

const logFilePermission = 0600

// SetupLogging sends simulator logs to both the console and a file.
// If logFile is empty, a timestamped filename is generated.
func SetupLogging(logFile string) (io.Closer, error) {
	if logFile == "" {
		logFile = "matchsim_" + time.Now().Format("20060102_150405") + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}
	if err := logger.Init(logger.WithOutput(io.MultiWriter(os.Stdout, file))); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	return file, nil
}

// ShowHelp prints usage information for the match simulator.
func ShowHelp() {
	os.Stdout.WriteString(`Matchday Simulator
==================

Plays a scripted match against a running scoreboard through its HTTP API,
then checks that the board shows what was posted.

The current match is reset first. Do not point this at a live game.

Usage:
  go run ./cmd/matchsim [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:8080")
  -password string
        Admin password (default "admin")
  -home string
        Home team (default "Vikings")
  -away string
        Away team (default "Dragons")
  -actions int
        Ledger actions per half (default 20)
  -step duration
        Pause between actions (default 200ms)
  -timeout duration
        HTTP request timeout (default 10s)
  -log string
        Log file for simulator output (default: matchsim_TIMESTAMP.log)
  -verbose
        Log every action
  -help
        Show this help message

Examples:
  # Watch a quick match on the public board
  go run ./cmd/matchsim -step 1s

  # Hammer a local server with no delay
  go run ./cmd/matchsim -actions 500 -step 0 -url http://localhost:9090
`)
}
