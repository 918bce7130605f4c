package evolution

import (
	"context"
	"errors"
	"testing"
	"time"

	"go-compass/internal/config"
	"go-compass/internal/telemetry"
)

type fakeHistory struct {
	entries []telemetry.TimelineEntry
	err     error
}

func (f *fakeHistory) Query(start, end time.Time) ([]telemetry.TimelineEntry, error) {
	return f.entries, f.err
}

type countingNotifier struct {
	calls   int
	lastSum DailySummary
	lastRec []Recommendation
}

func (n *countingNotifier) NotifyRunComplete(ctx context.Context, summary DailySummary, recs []Recommendation) {
	n.calls++
	n.lastSum = summary
	n.lastRec = recs
}

func analyzerConfig() config.AnalyzerConfig {
	return config.AnalyzerConfig{
		MinSuccessRate:  0.90,
		GoodSuccessRate: 0.95,
		MaxAvgLatencyMs: 2000,
		ScheduleHours:   24,
	}
}

// outcomes builds n entries, the first "succeeded" of which succeeded, all
// with the given execution latency.
func outcomes(n, succeeded int, latencyMs float64) []telemetry.TimelineEntry {
	entries := make([]telemetry.TimelineEntry, n)
	for i := range entries {
		entries[i] = telemetry.TimelineEntry{
			Decision: telemetry.DecisionRecord{Fingerprint: "fp", Engine: "local-general", Mode: "chat"},
			Outcome: &telemetry.OutcomeRecord{
				Fingerprint:        "fp",
				Succeeded:          i < succeeded,
				ExecutionLatencyMs: latencyMs,
			},
		}
	}
	return entries
}

func TestAnalyzer_SlowAndInaccurateDay(t *testing.T) {
	store := testStore(t)
	notifier := &countingNotifier{}
	history := &fakeHistory{entries: outcomes(100, 80, 2500)}
	analyzer := NewAnalyzer(history, store, notifier, nil, analyzerConfig())

	day := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)
	summary, recs, err := analyzer.RunOnce(context.Background(), day)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if summary.SuccessRate != 0.80 || summary.AvgLatencyMs != 2500 {
		t.Errorf("unexpected summary: %+v", summary)
	}
	if len(recs) != 2 {
		t.Fatalf("expected routing + performance recommendations, got %d", len(recs))
	}
	byType := map[string]Recommendation{}
	for _, r := range recs {
		byType[r.Type] = r
	}
	if r, ok := byType[TypeImproveRouting]; !ok || r.Priority != LevelHigh {
		t.Errorf("expected high-priority improve-routing, got %+v", byType)
	}
	if r, ok := byType[TypeOptimizePerformance]; !ok || r.Priority != LevelMedium {
		t.Errorf("expected medium-priority optimize-performance, got %+v", byType)
	}
	if notifier.calls != 1 {
		t.Errorf("expected exactly one notification, got %d", notifier.calls)
	}
}

func TestAnalyzer_HealthyDay(t *testing.T) {
	store := testStore(t)
	history := &fakeHistory{entries: outcomes(100, 97, 800)}
	analyzer := NewAnalyzer(history, store, &countingNotifier{}, nil, analyzerConfig())

	_, recs, err := analyzer.RunOnce(context.Background(), time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(recs) != 1 || recs[0].Type != TypeStrengthenCurrent {
		t.Fatalf("expected a single strengthen-current recommendation, got %+v", recs)
	}
	if recs[0].Priority != LevelLow {
		t.Errorf("strengthen-current should be low priority, got %s", recs[0].Priority)
	}
}

func TestAnalyzer_EmptyDay(t *testing.T) {
	store := testStore(t)
	notifier := &countingNotifier{}
	analyzer := NewAnalyzer(&fakeHistory{}, store, notifier, nil, analyzerConfig())

	summary, recs, err := analyzer.RunOnce(context.Background(), time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("an empty day must not error: %v", err)
	}
	if summary.TotalRequests != 0 || summary.SuccessRate != 0 || summary.AvgLatencyMs != 0 {
		t.Errorf("empty day summary should be all zeros, got %+v", summary)
	}
	if len(recs) != 0 {
		t.Errorf("no outcome data must produce no recommendations, got %+v", recs)
	}
	// The run itself still completes and reports.
	if notifier.calls != 1 {
		t.Errorf("expected the completion notification, got %d", notifier.calls)
	}
}

func TestAnalyzer_UnknownOutcomesExcluded(t *testing.T) {
	store := testStore(t)
	entries := outcomes(4, 4, 500)
	// Two more decisions whose outcome was never reported.
	entries = append(entries,
		telemetry.TimelineEntry{Decision: telemetry.DecisionRecord{Fingerprint: "a"}},
		telemetry.TimelineEntry{Decision: telemetry.DecisionRecord{Fingerprint: "b"}},
	)
	analyzer := NewAnalyzer(&fakeHistory{entries: entries}, store, nil, nil, analyzerConfig())

	summary, _, err := analyzer.RunOnce(context.Background(), time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.TotalRequests != 6 || summary.KnownOutcomes != 4 {
		t.Errorf("expected 6 requests with 4 known outcomes, got %+v", summary)
	}
	if summary.SuccessRate != 1.0 {
		t.Errorf("unknown outcomes must not drag the success rate down, got %.2f", summary.SuccessRate)
	}
}

func TestAnalyzer_RerunIsIdempotent(t *testing.T) {
	store := testStore(t)
	history := &fakeHistory{entries: outcomes(50, 30, 2500)}
	analyzer := NewAnalyzer(history, store, nil, nil, analyzerConfig())
	day := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)

	if _, _, err := analyzer.RunOnce(context.Background(), day); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if _, recs, err := analyzer.RunOnce(context.Background(), day); err != nil {
		t.Fatalf("second run: %v", err)
	} else if len(recs) != 0 {
		t.Errorf("rerun must not duplicate pending recommendations, got %d", len(recs))
	}

	pending, err := store.List(StatePending)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(pending) != 2 {
		t.Errorf("expected 2 pending after rerun, got %d", len(pending))
	}
	var count int64
	store.db.Model(&DailySummary{}).Count(&count)
	if count != 1 {
		t.Errorf("rerun must replace the summary, not duplicate it: %d rows", count)
	}
}

func TestAnalyzer_RerunAfterDecisionFiresAgain(t *testing.T) {
	store := testStore(t)
	history := &fakeHistory{entries: outcomes(50, 30, 500)}
	analyzer := NewAnalyzer(history, store, nil, nil, analyzerConfig())
	day := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)

	_, recs, err := analyzer.RunOnce(context.Background(), day)
	if err != nil || len(recs) != 1 {
		t.Fatalf("first run: %v, %d recs", err, len(recs))
	}
	if _, err := store.Reject(recs[0].ID); err != nil {
		t.Fatalf("reject: %v", err)
	}

	// Dedup only guards pending items; once decided, the rule may fire again.
	_, recs, err = analyzer.RunOnce(context.Background(), day)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if len(recs) != 1 || recs[0].Type != TypeImproveRouting {
		t.Errorf("expected the rule to fire again after the item was decided, got %+v", recs)
	}
}

func TestAnalyzer_HistoryFailureAbortsWithoutWrites(t *testing.T) {
	store := testStore(t)
	notifier := &countingNotifier{}
	analyzer := NewAnalyzer(&fakeHistory{err: errors.New("db offline")}, store, notifier, nil, analyzerConfig())

	_, _, err := analyzer.RunOnce(context.Background(), time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC))
	if err == nil {
		t.Fatalf("expected the run to fail")
	}
	if notifier.calls != 0 {
		t.Errorf("a failed run must not notify")
	}
	if sum, _ := store.SummaryFor("2026-08-20"); sum != nil {
		t.Errorf("a failed run must not write a summary, got %+v", sum)
	}
	recs, _ := store.List("")
	if len(recs) != 0 {
		t.Errorf("a failed run must not write recommendations, got %d", len(recs))
	}
}

func TestAnalyzer_CancelledContextAborts(t *testing.T) {
	store := testStore(t)
	notifier := &countingNotifier{}
	analyzer := NewAnalyzer(&fakeHistory{entries: outcomes(10, 5, 100)}, store, notifier, nil, analyzerConfig())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := analyzer.RunOnce(ctx, time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC))
	if err == nil {
		t.Fatalf("expected cancellation error")
	}
	if sum, _ := store.SummaryFor("2026-08-20"); sum != nil {
		t.Errorf("cancelled run must not write, got %+v", sum)
	}
	if notifier.calls != 0 {
		t.Errorf("cancelled run must not notify")
	}
}

func TestWorker_SingleFlight(t *testing.T) {
	store := testStore(t)
	analyzer := NewAnalyzer(&fakeHistory{}, store, nil, nil, analyzerConfig())
	worker := NewWorker(analyzer, 24)

	if !worker.tryAcquire() {
		t.Fatalf("first acquire should succeed")
	}
	// A trigger while a run is active is refused, not queued.
	if started, _ := worker.TriggerNow(context.Background(), time.Now()); started {
		t.Errorf("trigger during an active run must be refused")
	}
	worker.release()
	if started, err := worker.TriggerNow(context.Background(), time.Now()); !started || err != nil {
		t.Errorf("trigger after release should run cleanly: started=%v err=%v", started, err)
	}
}

func TestWorker_TriggerNowSurfacesRunFailure(t *testing.T) {
	store := testStore(t)
	analyzer := NewAnalyzer(&fakeHistory{err: errors.New("db offline")}, store, nil, nil, analyzerConfig())
	worker := NewWorker(analyzer, 24)

	started, err := worker.TriggerNow(context.Background(), time.Now())
	if !started {
		t.Fatalf("run should have started")
	}
	if err == nil {
		t.Errorf("a failed run must be reported, not swallowed")
	}
	// The slot is released; the next trigger runs.
	if started, _ := worker.TriggerNow(context.Background(), time.Now()); !started {
		t.Errorf("worker stayed busy after a failed run")
	}
}
