package evolution

import (
	"context"
	"log"
	"sync"
	"time"
)

// Worker owns the analyzer's cadence: one run per schedule interval,
// analyzing the previous day. Only one run may be active at a time; a
// trigger that fires while a run is still executing is skipped.
type Worker struct {
	analyzer      *Analyzer
	scheduleHours int

	mu       sync.Mutex
	running  bool
	stopChan chan struct{}
	stopOnce sync.Once
	cancel   context.CancelFunc
}

func NewWorker(analyzer *Analyzer, scheduleHours int) *Worker {
	if scheduleHours <= 0 {
		scheduleHours = 24
	}
	return &Worker{
		analyzer:      analyzer,
		scheduleHours: scheduleHours,
		stopChan:      make(chan struct{}),
	}
}

// Start begins the scheduled analysis loop. Runs immediately on start, then
// on every tick. Blocks until Stop is called; run it in a goroutine.
func (w *Worker) Start() {
	log.Printf("[AnalyzerWorker] Starting (runs every %d hours)", w.scheduleHours)

	ctx, cancel := context.WithCancel(context.Background())
	w.mu.Lock()
	w.cancel = cancel
	w.mu.Unlock()

	ticker := time.NewTicker(time.Duration(w.scheduleHours) * time.Hour)
	defer ticker.Stop()

	w.runCycle(ctx)

	for {
		select {
		case <-ticker.C:
			w.runCycle(ctx)
		case <-w.stopChan:
			log.Printf("[AnalyzerWorker] Stopping")
			return
		}
	}
}

// Stop cancels any in-flight run and stops the loop.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() {
		w.mu.Lock()
		if w.cancel != nil {
			w.cancel()
		}
		w.mu.Unlock()
		close(w.stopChan)
	})
}

// TriggerNow runs one analysis for the given date outside the schedule
// (manual re-run). started is false when a run is already active; err is
// the run's failure, if any, so callers can report it instead of claiming
// success.
func (w *Worker) TriggerNow(ctx context.Context, forDate time.Time) (started bool, err error) {
	if !w.tryAcquire() {
		return false, nil
	}
	defer w.release()
	if _, _, err := w.analyzer.RunOnce(ctx, forDate); err != nil {
		log.Printf("[AnalyzerWorker] ERROR: manual run failed: %v", err)
		return true, err
	}
	return true, nil
}

// runCycle analyzes yesterday. A failed run is logged and retried on the
// next tick, never within the same cycle.
func (w *Worker) runCycle(ctx context.Context) {
	if !w.tryAcquire() {
		log.Printf("[AnalyzerWorker] Skipping trigger: previous run still active")
		return
	}
	defer w.release()

	yesterday := time.Now().UTC().AddDate(0, 0, -1)
	start := time.Now()
	if _, _, err := w.analyzer.RunOnce(ctx, yesterday); err != nil {
		log.Printf("[AnalyzerWorker] ERROR: run failed: %v", err)
		return
	}
	log.Printf("[AnalyzerWorker] Run complete (took %s)", time.Since(start).Round(time.Millisecond))
}

func (w *Worker) tryAcquire() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return false
	}
	w.running = true
	return true
}

func (w *Worker) release() {
	w.mu.Lock()
	w.running = false
	w.mu.Unlock()
}
