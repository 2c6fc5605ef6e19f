package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestIntervalSchedulerRunsImmediately(t *testing.T) {
	s := NewIntervalScheduler(time.Hour)
	defer s.Stop(context.Background())

	fired := make(chan time.Time, 1)
	if err := s.Start(context.Background(), func(t time.Time) { fired <- t }); err != nil {
		t.Fatalf("start: %v", err)
	}

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("expected an immediate first run")
	}
}

func TestIntervalSchedulerTicks(t *testing.T) {
	s := NewIntervalScheduler(20 * time.Millisecond)
	defer s.Stop(context.Background())

	var runs atomic.Int32
	if err := s.Start(context.Background(), func(time.Time) { runs.Add(1) }); err != nil {
		t.Fatalf("start: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for runs.Load() < 3 {
		if time.Now().After(deadline) {
			t.Fatalf("expected at least 3 runs, got %d", runs.Load())
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestIntervalSchedulerStopHaltsTicks(t *testing.T) {
	s := NewIntervalScheduler(10 * time.Millisecond)

	var runs atomic.Int32
	if err := s.Start(context.Background(), func(time.Time) { runs.Add(1) }); err != nil {
		t.Fatalf("start: %v", err)
	}
	time.Sleep(30 * time.Millisecond)
	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("stop: %v", err)
	}

	settled := runs.Load()
	time.Sleep(50 * time.Millisecond)
	if got := runs.Load(); got != settled {
		t.Fatalf("job kept running after stop: %d -> %d", settled, got)
	}
}

func TestIntervalSchedulerRestartCycles(t *testing.T) {
	// Repeated start/stop while the ticker fires; the race detector flags
	// any goroutine still reading scheduler state after Stop.
	var runs atomic.Int32
	for i := 0; i < 5; i++ {
		s := NewIntervalScheduler(time.Millisecond)
		if err := s.Start(context.Background(), func(time.Time) { runs.Add(1) }); err != nil {
			t.Fatalf("start %d: %v", i, err)
		}
		time.Sleep(5 * time.Millisecond)
		if err := s.Stop(context.Background()); err != nil {
			t.Fatalf("stop %d: %v", i, err)
		}
	}
	if runs.Load() < 5 {
		t.Fatalf("expected at least one run per cycle, got %d", runs.Load())
	}
}

func TestIntervalSchedulerNilJob(t *testing.T) {
	s := NewIntervalScheduler(time.Hour)
	if err := s.Start(context.Background(), nil); err != nil {
		t.Fatalf("start with nil job: %v", err)
	}
	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("stop without start: %v", err)
	}
}
