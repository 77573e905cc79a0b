package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shawty-app/shawty/internal/repository"
)

type fakeReconcileStore struct {
	mu       sync.Mutex
	drifts   []repository.ClickDrift
	listErr  error
	setErr   map[string]error
	counters map[string]int64
}

func newFakeReconcileStore() *fakeReconcileStore {
	return &fakeReconcileStore{
		setErr:   make(map[string]error),
		counters: make(map[string]int64),
	}
}

func (f *fakeReconcileStore) ListClickDrift(_ context.Context) ([]repository.ClickDrift, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.drifts, f.listErr
}

func (f *fakeReconcileStore) SetLinkClicks(_ context.Context, shortCode string, clicks int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.setErr[shortCode]; err != nil {
		return err
	}
	f.counters[shortCode] = clicks
	return nil
}

func TestReconcileFixesDrift(t *testing.T) {
	store := newFakeReconcileStore()
	store.drifts = []repository.ClickDrift{
		{LinkID: "l1", ShortCode: "abc123", Counter: 5, EventCount: 8},
		{LinkID: "l2", ShortCode: "def456", Counter: 10, EventCount: 9},
	}

	r := NewClickReconciler(store, time.Hour)
	r.ReconcileNow()

	store.mu.Lock()
	defer store.mu.Unlock()
	if got := store.counters["abc123"]; got != 8 {
		t.Errorf("abc123 counter = %d, want the event count 8", got)
	}
	if got := store.counters["def456"]; got != 9 {
		t.Errorf("def456 counter = %d, want the event count 9", got)
	}
}

func TestReconcileContinuesPastFailures(t *testing.T) {
	store := newFakeReconcileStore()
	store.drifts = []repository.ClickDrift{
		{LinkID: "l1", ShortCode: "broken", Counter: 1, EventCount: 2},
		{LinkID: "l2", ShortCode: "fine", Counter: 3, EventCount: 4},
	}
	store.setErr["broken"] = errors.New("connection refused")

	r := NewClickReconciler(store, time.Hour)
	r.ReconcileNow()

	store.mu.Lock()
	defer store.mu.Unlock()
	if got := store.counters["fine"]; got != 4 {
		t.Errorf("fine counter = %d, want 4 despite the earlier failure", got)
	}
}

func TestReconcileListFailure(t *testing.T) {
	store := newFakeReconcileStore()
	store.listErr = errors.New("connection refused")

	r := NewClickReconciler(store, time.Hour)
	// Must not panic when the drift query fails.
	r.ReconcileNow()
}

func TestStartStop(t *testing.T) {
	store := newFakeReconcileStore()
	r := NewClickReconciler(store, time.Hour)

	r.Start()

	done := make(chan struct{})
	go func() {
		r.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop did not return")
	}
}
