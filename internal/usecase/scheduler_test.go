package usecase

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"carnewsbot/internal/config"
	"carnewsbot/internal/domain"
	"carnewsbot/internal/scanner"
)

type blockingScanner struct {
	started chan struct{}
	release chan struct{}
	scans   atomic.Int32
}

func (s *blockingScanner) Kind() string { return "slow" }

func (s *blockingScanner) Scan(ctx context.Context, _ scanner.Source) ([]domain.Candidate, error) {
	s.scans.Add(1)
	close(s.started)
	select {
	case <-s.release:
	case <-ctx.Done():
	}
	return nil, nil
}

func TestSchedulerSkipsOverlappingTick(t *testing.T) {
	slow := &blockingScanner{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	registry := scanner.NewRegistry()
	registry.Register(slow)

	pipeline := newTestPipeline(t, PipelineDeps{
		Registry:   registry,
		Repository: newFakeRepo(),
		Sources:    []scanner.Source{{Name: "Slow", Kind: "slow", URL: "https://example.com"}},
		Workers:    1,
		Mode:       config.EnrichmentOff,
	})

	sched := NewScheduler(nil, pipeline, nil)

	done := make(chan struct{})
	go func() {
		sched.runOnce(context.Background(), time.Now())
		close(done)
	}()

	select {
	case <-slow.started:
	case <-time.After(2 * time.Second):
		t.Fatal("first run never started")
	}

	// Second tick while the first run holds the lock must return at once.
	sched.runOnce(context.Background(), time.Now())
	if got := slow.scans.Load(); got != 1 {
		t.Fatalf("overlapping tick ran the pipeline, scans=%d", got)
	}

	close(slow.release)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("first run never finished")
	}
}

func TestSchedulerRunNow(t *testing.T) {
	repo := newFakeRepo()
	registry := scanner.NewRegistry()
	registry.Register(&fakeScanner{kind: "test", candidates: map[string][]domain.Candidate{
		"Example News": {{Title: "Diesel ban timeline update", Link: "https://example.com/a"}},
	}})

	pipeline := newTestPipeline(t, PipelineDeps{
		Registry:   registry,
		Repository: repo,
		Content:    &fakeContent{text: "body"},
		Sources:    testSources("Example News"),
		Workers:    1,
		Mode:       config.EnrichmentOff,
	})

	sched := NewScheduler(nil, pipeline, nil)
	if err := sched.RunNow(context.Background()); err != nil {
		t.Fatalf("run now: %v", err)
	}
	if got := repo.count(); got != 1 {
		t.Fatalf("expected 1 article, got %d", got)
	}
}
