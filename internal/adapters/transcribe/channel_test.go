package transcribe

import (
	"context"
	"errors"
	"testing"
)

func TestChannelSource_Lifecycle(t *testing.T) {
	src := NewChannelSource()
	ctx := context.Background()

	ch, err := src.Start(ctx)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	if _, err := src.Start(ctx); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("second Start = %v, want ErrAlreadyRunning", err)
	}

	if !src.Push("uses caching") {
		t.Error("Push while running should deliver")
	}
	if got := <-ch; got != "uses caching" {
		t.Errorf("fragment = %q", got)
	}

	if err := src.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if _, ok := <-ch; ok {
		t.Error("stream should be closed after Stop")
	}
	if err := src.Stop(); !errors.Is(err, ErrNotRunning) {
		t.Errorf("second Stop = %v, want ErrNotRunning", err)
	}
}

func TestChannelSource_PushWhileStoppedIsDropped(t *testing.T) {
	src := NewChannelSource()
	if src.Push("lost words") {
		t.Error("Push while stopped should be dropped")
	}
}

func TestChannelSource_Restart(t *testing.T) {
	src := NewChannelSource()
	ctx := context.Background()

	ch1, err := src.Start(ctx)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	_ = src.Stop()

	ch2, err := src.Start(ctx)
	if err != nil {
		t.Fatalf("restart: %v", err)
	}
	if ch1 == ch2 {
		t.Error("restart should produce a fresh stream")
	}
	src.Push("after restart")
	if got := <-ch2; got != "after restart" {
		t.Errorf("fragment = %q", got)
	}
}

func TestUnavailable(t *testing.T) {
	src := NewUnavailable()
	if _, err := src.Start(context.Background()); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Start = %v, want ErrUnavailable", err)
	}
	if err := src.Stop(); !errors.Is(err, ErrNotRunning) {
		t.Errorf("Stop = %v, want ErrNotRunning", err)
	}
}
