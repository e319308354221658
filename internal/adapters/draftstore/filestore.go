package draftstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/mockmate/rehearse/internal/domain/model"
	"github.com/mockmate/rehearse/pkg/logger"
	"github.com/mockmate/rehearse/pkg/metrics"
)

const (
	draftFilePrefix = "draft_"
	draftFileSuffix = ".json"
	dirPerm         = 0o755
	filePerm        = 0o644
)

// FileStore implements Store on a directory of one JSON file per
// question id. Question ids are globally unique, so keying by question
// id alone cannot leak one session's draft into another's namespace.
type FileStore struct {
	dir string
	log logger.Logger

	mu   sync.Mutex
	keys map[string]*keyState
	wg   sync.WaitGroup
}

// keyState orders writes for one question id. issued is bumped
// synchronously inside Save/Clear; settled tracks the newest sequence
// that has reached disk, so an older write arriving late is skipped.
type keyState struct {
	mu      sync.Mutex
	issued  uint64
	settled uint64
}

// Option applies a configuration option to the FileStore.
type Option func(*FileStore)

// WithLogger sets a custom logger for the store.
func WithLogger(log logger.Logger) Option {
	return func(s *FileStore) {
		if log != nil {
			s.log = log
		}
	}
}

// NewFileStore opens (creating if needed) a draft directory.
func NewFileStore(dir string, opts ...Option) (*FileStore, error) {
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return nil, fmt.Errorf("create draft dir %s: %w", dir, err)
	}

	s := &FileStore{
		dir:  dir,
		keys: make(map[string]*keyState),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logger.Get().Named("draftstore")
	}
	return s, nil
}

func (s *FileStore) key(questionID string) *keyState {
	s.mu.Lock()
	defer s.mu.Unlock()
	k, ok := s.keys[questionID]
	if !ok {
		k = &keyState{}
		s.keys[questionID] = k
	}
	return k
}

func (s *FileStore) path(questionID string) string {
	return filepath.Join(s.dir, draftFilePrefix+questionID+draftFileSuffix)
}

// Save persists text for questionID in the background. The sequence
// number is assigned before returning, which is what makes the
// last-write-wins guarantee hold by issue order even when the disk
// writes complete out of order.
func (s *FileStore) Save(ctx context.Context, questionID, text string) {
	k := s.key(questionID)

	s.mu.Lock()
	k.issued++
	seq := k.issued
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.write(ctx, k, questionID, text, seq)
	}()
}

func (s *FileStore) write(ctx context.Context, k *keyState, questionID, text string, seq uint64) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if seq <= k.settled {
		// A newer save or clear already settled; this write is stale.
		return
	}

	d := model.Draft{
		QuestionID: questionID,
		Text:       text,
		Seq:        seq,
		UpdatedAt:  time.Now().UTC(),
	}
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		metrics.RecordDraftSaveFailure()
		s.log.Warn(ctx, "draft encode failed", logger.String("question", questionID), logger.Error(err))
		return
	}
	if err := os.WriteFile(s.path(questionID), data, filePerm); err != nil {
		metrics.RecordDraftSaveFailure()
		s.log.Warn(ctx, "draft write failed", logger.String("question", questionID), logger.Error(err))
		return
	}
	k.settled = seq
}

// Load returns the most recently saved draft text for questionID.
func (s *FileStore) Load(ctx context.Context, questionID string) (string, bool, error) {
	data, err := os.ReadFile(s.path(questionID))
	if os.IsNotExist(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read draft %s: %w", questionID, err)
	}

	var d model.Draft
	if err := json.Unmarshal(data, &d); err != nil {
		return "", false, fmt.Errorf("decode draft %s: %w", questionID, err)
	}
	return d.Text, true, nil
}

// Clear removes the draft for questionID. Pending saves issued before
// the clear can no longer settle.
func (s *FileStore) Clear(ctx context.Context, questionID string) {
	k := s.key(questionID)

	s.mu.Lock()
	k.issued++
	seq := k.issued
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		k.mu.Lock()
		defer k.mu.Unlock()
		if seq <= k.settled {
			return
		}
		if err := os.Remove(s.path(questionID)); err != nil && !os.IsNotExist(err) {
			s.log.Warn(ctx, "draft clear failed", logger.String("question", questionID), logger.Error(err))
			return
		}
		k.settled = seq
	}()
}

// Flush blocks until all background writes issued so far settle.
func (s *FileStore) Flush() {
	s.wg.Wait()
}

// Close flushes outstanding writes.
func (s *FileStore) Close() error {
	s.Flush()
	return nil
}
