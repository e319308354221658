// Package config defines process configuration and its loading layers.
package config

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// EvalBaseURL is the base URL of the evaluation service, including
	// any mount prefix, e.g. "http://localhost:8000/api".
	EvalBaseURL string `koanf:"eval_base_url"`

	// EvalTimeoutMS bounds each evaluation service call.
	EvalTimeoutMS int `koanf:"eval_timeout_ms"`

	// DraftDir is the directory for persisted answer drafts.
	DraftDir string `koanf:"draft_dir"`

	// EventQueueSize bounds each session's in-memory event queue.
	EventQueueSize int `koanf:"queue_size"`

	// TickIntervalMS sets the countdown granularity.
	TickIntervalMS int `koanf:"tick_interval_ms"`

	// TranscriptionEnabled turns on the speech-to-text ingest surface.
	TranscriptionEnabled bool `koanf:"transcription_enabled"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:             "info",
		Addr:                 ":9080",
		EvalBaseURL:          "http://localhost:8000/api",
		EvalTimeoutMS:        30_000,
		DraftDir:             "drafts",
		EventQueueSize:       1024,
		TickIntervalMS:       1000,
		TranscriptionEnabled: true,
	}
}
