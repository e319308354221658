// Package service provides the core business service that wires the
// session controllers to their dependencies and implements what the
// HTTP API requires.
package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mockmate/rehearse/internal/adapters/draftstore"
	"github.com/mockmate/rehearse/internal/adapters/evaluation"
	"github.com/mockmate/rehearse/internal/adapters/transcribe"
	"github.com/mockmate/rehearse/internal/session"
	"github.com/mockmate/rehearse/pkg/logger"
	"github.com/mockmate/rehearse/pkg/metrics"
)

// Defaults applied when options are not provided.
const (
	defaultQueueSize    = 1024
	defaultTickInterval = time.Second
	defaultDraftDir     = "drafts"
)

// Session bundles a controller with its transcription ingest. The
// ingest is nil when the platform has no transcription capability.
type Session struct {
	Controller *session.Controller
	Ingest     *transcribe.ChannelSource
}

// Service owns the process-wide draft store and the registry of live
// session controllers.
type Service struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	eval         evaluation.Client
	drafts       draftstore.Store
	draftDir     string
	queueSize    int
	tickInterval time.Duration
	transcribe   bool

	started bool
	ctx     context.Context
	cancel  context.CancelFunc

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithEvaluationClient sets the evaluation service boundary.
func WithEvaluationClient(c evaluation.Client) Option {
	return func(s *Service) {
		if c != nil {
			s.eval = c
		}
	}
}

// WithDraftStore sets a prebuilt draft store, overriding WithDraftDir.
func WithDraftStore(store draftstore.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.drafts = store
		}
	}
}

// WithDraftDir sets the directory backing the draft store.
func WithDraftDir(dir string) Option {
	return func(s *Service) {
		if dir != "" {
			s.draftDir = dir
		}
	}
}

// WithQueueSize bounds each session's event queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithTickInterval overrides the countdown interval.
func WithTickInterval(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.tickInterval = d
		}
	}
}

// WithTranscription enables or disables the transcription capability
// for new sessions.
func WithTranscription(enabled bool) Option {
	return func(s *Service) {
		s.transcribe = enabled
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(log logger.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.logger = log
		}
	}
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		sessions:     make(map[string]*Session),
		draftDir:     defaultDraftDir,
		queueSize:    defaultQueueSize,
		tickInterval: defaultTickInterval,
		transcribe:   true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start opens the draft store and readies the registry.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	if s.eval == nil {
		return ErrNoEvaluationClient
	}
	if s.drafts == nil {
		store, err := draftstore.NewFileStore(s.draftDir)
		if err != nil {
			return err
		}
		s.drafts = store
	}

	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.started = true
	s.logger.Info(ctx, "session service started",
		logger.String("draft_dir", s.draftDir),
		logger.Int("queue_size", s.queueSize),
		logger.Bool("transcription", s.transcribe),
	)
	return nil
}

// Stop closes every live session and the draft store.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	for id, sess := range s.sessions {
		sess.Controller.Close()
		delete(s.sessions, id)
	}
	metrics.UpdateActiveSessions(0)

	if s.drafts != nil {
		_ = s.drafts.Close()
	}
	s.cancel()
	s.started = false
	s.logger.Info(context.Background(), "session service stopped")
}

// CreateSession registers a new session controller and returns its id.
func (s *Service) CreateSession(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return "", ErrNotStarted
	}

	id := uuid.NewString()
	opts := []session.Option{
		session.WithQueueSize(s.queueSize),
		session.WithTickInterval(s.tickInterval),
		session.WithLogger(s.logger.Named("session")),
	}

	var ingest *transcribe.ChannelSource
	if s.transcribe {
		ingest = transcribe.NewChannelSource()
		opts = append(opts, session.WithTranscriptionSource(ingest))
	}

	ctrl := session.New(s.ctx, id, s.eval, s.drafts, opts...)
	s.sessions[id] = &Session{Controller: ctrl, Ingest: ingest}
	metrics.UpdateActiveSessions(len(s.sessions))

	s.logger.Info(ctx, "session created", logger.String("session", id))
	return id, nil
}

// Session returns the live session for id.
func (s *Service) Session(id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// RemoveSession cancels and unregisters a session.
func (s *Service) RemoveSession(ctx context.Context, id string) error {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	if ok {
		delete(s.sessions, id)
	}
	count := len(s.sessions)
	s.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}

	// Cancel first so the clock and transcription stop immediately; a
	// submission already sent is allowed to complete inside the
	// controller before the cancel event is applied.
	_ = sess.Controller.Cancel(ctx)
	sess.Controller.Close()
	metrics.UpdateActiveSessions(count)
	s.logger.Info(ctx, "session removed", logger.String("session", id))
	return nil
}

// Stats returns service statistics for monitoring.
func (s *Service) Stats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return map[string]interface{}{
		"started":       s.started,
		"sessions":      len(s.sessions),
		"queueSize":     s.queueSize,
		"transcription": s.transcribe,
	}
}
