package scheduler

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/shawty-app/shawty/internal/repository"
)

// ReconcileStore is what one reconciliation pass needs from the repository
type ReconcileStore interface {
	ListClickDrift(ctx context.Context) ([]repository.ClickDrift, error)
	SetLinkClicks(ctx context.Context, shortCode string, clicks int64) error
}

// ClickReconciler periodically realigns link counters with their click event
// rows. Click tracking is best effort and either write can fail alone, so the
// counter drifts; the event rows are the more trustworthy side and win here.
type ClickReconciler struct {
	store    ReconcileStore
	interval time.Duration
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

func NewClickReconciler(store ReconcileStore, interval time.Duration) *ClickReconciler {
	return &ClickReconciler{
		store:    store,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the periodic reconcile process
func (r *ClickReconciler) Start() {
	r.wg.Add(1)
	go r.run()
	log.Printf("click reconciler started (interval: %v)", r.interval)
}

// Stop gracefully stops the reconciler
func (r *ClickReconciler) Stop() {
	close(r.stopCh)
	r.wg.Wait()
	log.Println("click reconciler stopped")
}

func (r *ClickReconciler) run() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.reconcile()
		case <-r.stopCh:
			return
		}
	}
}

func (r *ClickReconciler) reconcile() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	drifts, err := r.store.ListClickDrift(ctx)
	if err != nil {
		log.Printf("click drift query failed: err=%v", err)
		return
	}

	if len(drifts) == 0 {
		return
	}

	var fixed, failed int
	for _, d := range drifts {
		if err := r.store.SetLinkClicks(ctx, d.ShortCode, d.EventCount); err != nil {
			log.Printf("click drift fix failed: code=%s err=%v", d.ShortCode, err)
			failed++
			continue
		}
		fixed++
	}

	log.Printf("click reconcile completed: fixed=%d failed=%d", fixed, failed)
}

// ReconcileNow triggers an immediate pass
func (r *ClickReconciler) ReconcileNow() {
	r.reconcile()
}
