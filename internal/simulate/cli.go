package simulate

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/mockmate/rehearse/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0600
)

// SetupLogging configures logging to both console and file.
// If logFile is empty, a timestamped filename is generated.
func SetupLogging(logFile string) error {
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if logFile == "" {
		timestamp := time.Now().Format("20060102_150405")
		logFile = "sim_log_" + timestamp + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}

	multiWriter := io.MultiWriter(os.Stdout, file)
	log.SetOutput(multiWriter)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	return nil
}

// ShowHelp prints usage information for the simulation tool.
func ShowHelp() {
	os.Stdout.WriteString(`Rehearse Session Simulator
==========================

Drives scripted interview sessions against a running rehearsed instance.

Usage:
  go run cmd/rehearse-sim/main.go [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -sessions int
        Number of sessions to drive (default 10)
  -max-questions int
        Safety cap on questions per session (default 50)
  -workers int
        Number of concurrent workers (default 4)
  -timeout duration
        HTTP request timeout (default 30s)
  -answer string
        Answer text typed into every question
  -log string
        Log file for simulation output (default: sim_log_TIMESTAMP.log)
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  # Smoke-test a local instance
  go run cmd/rehearse-sim/main.go -sessions 1 -verbose

  # Load a staging instance
  go run cmd/rehearse-sim/main.go -sessions 200 -workers 16 -url http://staging:9080
`)
}
