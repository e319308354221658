package draftstore

import (
	"context"
	"fmt"
	"testing"

	"github.com/mockmate/rehearse/pkg/logger"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	return s
}

func TestFileStore_SaveLoadClear(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if _, ok, err := s.Load(ctx, "q1"); err != nil || ok {
		t.Fatalf("Load on empty store = ok=%v err=%v, want absent", ok, err)
	}

	s.Save(ctx, "q1", "partial answer")
	s.Flush()

	text, ok, err := s.Load(ctx, "q1")
	if err != nil || !ok || text != "partial answer" {
		t.Fatalf("Load = %q ok=%v err=%v, want %q", text, ok, err, "partial answer")
	}

	s.Clear(ctx, "q1")
	s.Flush()

	if _, ok, _ := s.Load(ctx, "q1"); ok {
		t.Fatal("draft survived Clear")
	}
}

func TestFileStore_LastWriteWinsByIssueOrder(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	// Issue two saves in order, then complete their disk writes out
	// of order: the write issued last must win.
	k := s.key("q1")
	s.mu.Lock()
	k.issued = 2
	s.mu.Unlock()

	s.write(ctx, k, "q1", "newer", 2)
	s.write(ctx, k, "q1", "older", 1)

	text, ok, err := s.Load(ctx, "q1")
	if err != nil || !ok {
		t.Fatalf("Load failed: ok=%v err=%v", ok, err)
	}
	if text != "newer" {
		t.Errorf("Load = %q, want %q (issue order must win over completion order)", text, "newer")
	}
}

func TestFileStore_ClearBeatsEarlierSave(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	// A clear issued after a save must not be undone by that save's
	// write landing late.
	k := s.key("q1")
	s.mu.Lock()
	k.issued = 2
	s.mu.Unlock()

	// Clear settles as seq 2, then the older save write arrives.
	k.mu.Lock()
	k.settled = 2
	k.mu.Unlock()
	s.write(ctx, k, "q1", "resurrected", 1)

	if _, ok, _ := s.Load(ctx, "q1"); ok {
		t.Error("stale save resurrected a cleared draft")
	}
}

func TestFileStore_ConcurrentSavesConverge(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	var last string
	for i := 0; i < 50; i++ {
		last = fmt.Sprintf("revision %d", i)
		s.Save(ctx, "q1", last)
	}
	s.Flush()

	text, ok, err := s.Load(ctx, "q1")
	if err != nil || !ok {
		t.Fatalf("Load failed: ok=%v err=%v", ok, err)
	}
	if text != last {
		t.Errorf("Load = %q, want last issued revision %q", text, last)
	}
}

func TestFileStore_SurvivesRestart(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s1, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	s1.Save(ctx, "q1", "partial answer")
	if err := s1.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// Reopen the same directory, as a restarted controller would.
	s2, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	text, ok, err := s2.Load(ctx, "q1")
	if err != nil || !ok || text != "partial answer" {
		t.Fatalf("Load after restart = %q ok=%v err=%v, want %q", text, ok, err, "partial answer")
	}
}

func TestFileStore_KeysAreIndependent(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	s.Save(ctx, "q1", "answer one")
	s.Save(ctx, "q2", "answer two")
	s.Flush()

	if text, _, _ := s.Load(ctx, "q1"); text != "answer one" {
		t.Errorf("q1 draft = %q", text)
	}
	if text, _, _ := s.Load(ctx, "q2"); text != "answer two" {
		t.Errorf("q2 draft = %q", text)
	}

	s.Clear(ctx, "q1")
	s.Flush()
	if _, ok, _ := s.Load(ctx, "q2"); !ok {
		t.Error("clearing q1 removed q2's draft")
	}
}
