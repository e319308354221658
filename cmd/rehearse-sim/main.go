// Command rehearse-sim drives scripted interview sessions against a
// running rehearsed instance.
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/mockmate/rehearse/internal/simulate"
)

// Default configuration constants.
const (
	defaultSessions     = 10
	defaultMaxQuestions = 50
	defaultWorkers      = 4
	defaultTimeout      = 30 * time.Second
	defaultRunTimeout   = 10 * time.Minute
)

func main() {
	var (
		baseURL      = flag.String("url", "http://localhost:9080", "Base URL of the service")
		sessions     = flag.Int("sessions", defaultSessions, "Number of sessions to drive")
		maxQuestions = flag.Int("max-questions", defaultMaxQuestions, "Safety cap on questions per session")
		workers      = flag.Int("workers", defaultWorkers, "Number of concurrent workers")
		timeout      = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		answer       = flag.String("answer", "Scripted answer from the session simulator.", "Answer text typed into every question")
		logFile      = flag.String("log", "", "Log file for simulation output (default: sim_log_TIMESTAMP.log)")
		verbose      = flag.Bool("verbose", false, "Enable verbose logging")
		help         = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		simulate.ShowHelp()
		return
	}

	if err := simulate.SetupLogging(*logFile); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	config := &simulate.Config{
		BaseURL:      *baseURL,
		Sessions:     *sessions,
		MaxQuestions: *maxQuestions,
		Workers:      *workers,
		Timeout:      *timeout,
		Answer:       *answer,
		LogFile:      *logFile,
		Verbose:      *verbose,
	}

	if err := simulate.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Simulation failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}
