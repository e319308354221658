package simulate

import "time"

// Config holds configuration for the session simulation run
type Config struct {
	BaseURL      string        // Base URL of the service
	Sessions     int           // Number of sessions to drive
	MaxQuestions int           // Safety cap on questions per session
	Workers      int           // Number of concurrent workers
	Timeout      time.Duration // HTTP request timeout
	Answer       string        // Answer text typed into every question
	LogFile      string        // Log file for simulation output
	Verbose      bool          // Enable verbose logging
}

// Stats holds simulation statistics
type Stats struct {
	SessionsStarted    int
	SessionsCompleted  int
	SessionsTerminated int
	SessionsFailed     int
	QuestionsAnswered  int
	StartTime          time.Time
	EndTime            time.Time
	Duration           time.Duration
}
