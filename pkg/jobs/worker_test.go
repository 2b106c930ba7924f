package jobs

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
)

// fakeRenderer records regeneration calls and returns a scripted result.
type fakeRenderer struct {
	mu      sync.Mutex
	calls   []string
	failFor map[string]error
}

func (f *fakeRenderer) Regenerate(_ context.Context, systemID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, systemID)
	if err, ok := f.failFor[systemID]; ok {
		return 0, err
	}
	return 1, nil
}

func TestWorkerPool_ProcessOneCompletesJob(t *testing.T) {
	store := newJobTestDB(t)
	renderer := &fakeRenderer{}
	wp := NewWorkerPool(store, renderer, DefaultJobConfig(), slog.Default())

	job, err := store.Enqueue(&RegenJob{AISystemID: "sys-1", RequestedBy: "alice"})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	wp.processOne(context.Background(), 0)

	got, err := store.Get(job.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.State != JobStateSucceeded {
		t.Errorf("state = %s, want %s", got.State, JobStateSucceeded)
	}
	if got.DocsSuperseded != 1 {
		t.Errorf("docsSuperseded = %d, want 1", got.DocsSuperseded)
	}
	if len(renderer.calls) != 1 || renderer.calls[0] != "sys-1" {
		t.Errorf("renderer calls = %v, want [sys-1]", renderer.calls)
	}
}

func TestWorkerPool_ProcessOneRequeuesOnFailure(t *testing.T) {
	store := newJobTestDB(t)
	renderer := &fakeRenderer{failFor: map[string]error{"sys-1": errors.New("boom")}}
	cfg := DefaultJobConfig()
	cfg.MaxRetries = 3
	wp := NewWorkerPool(store, renderer, cfg, slog.Default())

	job, err := store.Enqueue(&RegenJob{AISystemID: "sys-1", RequestedBy: "alice"})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	wp.processOne(context.Background(), 0)

	got, _ := store.Get(job.ID)
	if got.State != JobStateQueued {
		t.Errorf("state = %s, want requeued for retry", got.State)
	}
	if got.LastError != "boom" {
		t.Errorf("lastError = %q, want boom", got.LastError)
	}
}

func TestWorkerPool_ProcessOneNoJobsIsQuiet(t *testing.T) {
	store := newJobTestDB(t)
	renderer := &fakeRenderer{}
	wp := NewWorkerPool(store, renderer, DefaultJobConfig(), slog.Default())

	wp.processOne(context.Background(), 0)

	if len(renderer.calls) != 0 {
		t.Errorf("renderer called with empty queue: %v", renderer.calls)
	}
}
