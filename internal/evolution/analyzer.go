package evolution

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"go-compass/internal/config"
	"go-compass/internal/telemetry"
)

// HistorySource is the read surface the analyzer consumes; satisfied by the
// telemetry recorder.
type HistorySource interface {
	Query(start, end time.Time) ([]telemetry.TimelineEntry, error)
}

// Analyzer mines a day of routing history into a performance summary and
// improvement recommendations. Schedule-agnostic: cadence belongs to the
// worker, and RunOnce is idempotent per date.
type Analyzer struct {
	history  HistorySource
	store    *Store
	notifier Notifier
	metrics  *telemetry.Metrics
	cfg      config.AnalyzerConfig
}

func NewAnalyzer(history HistorySource, store *Store, notifier Notifier, metrics *telemetry.Metrics, cfg config.AnalyzerConfig) *Analyzer {
	return &Analyzer{
		history:  history,
		store:    store,
		notifier: notifier,
		metrics:  metrics,
		cfg:      cfg,
	}
}

// RunOnce analyzes [forDate 00:00, forDate+1 00:00) UTC. A history query
// failure aborts the run with no partial writes; the scheduler owns retries.
func (a *Analyzer) RunOnce(ctx context.Context, forDate time.Time) (*DailySummary, []Recommendation, error) {
	day := forDate.UTC().Truncate(24 * time.Hour)
	dateStr := day.Format("2006-01-02")
	log.Printf("[Analyzer] Analyzing %s", dateStr)

	entries, err := a.history.Query(day, day.Add(24*time.Hour))
	if err != nil {
		return nil, nil, fmt.Errorf("history query failed, aborting run: %w", err)
	}

	summary := a.summarize(dateStr, entries)
	recs, err := a.deriveRecommendations(summary)
	if err != nil {
		return nil, nil, err
	}

	// All writes happen after the cancellation check so a cancelled run
	// leaves no half-written summary behind.
	if err := ctx.Err(); err != nil {
		return nil, nil, fmt.Errorf("run cancelled: %w", err)
	}
	a.updateAccuracyDelta(day, summary)
	if err := a.store.SaveSummary(summary); err != nil {
		return nil, nil, err
	}
	if err := a.store.CreateRecommendations(recs); err != nil {
		return nil, nil, err
	}

	// Exactly one notification per run, even with nothing to review.
	if a.notifier != nil {
		a.notifier.NotifyRunComplete(ctx, *summary, recs)
	}

	log.Printf("[Analyzer] %s: %d requests, %d outcomes, success %.2f, avg latency %.0fms, %d recommendations",
		dateStr, summary.TotalRequests, summary.KnownOutcomes, summary.SuccessRate, summary.AvgLatencyMs, len(recs))
	return summary, recs, nil
}

// summarize computes the day's aggregates. Entries without an outcome are
// "unknown" and stay out of the success-rate denominator.
func (a *Analyzer) summarize(dateStr string, entries []telemetry.TimelineEntry) *DailySummary {
	summary := &DailySummary{Date: dateStr, TotalRequests: len(entries)}

	succeeded := 0
	var latencySum float64
	for _, e := range entries {
		if e.Outcome == nil {
			continue
		}
		summary.KnownOutcomes++
		latencySum += e.Outcome.ExecutionLatencyMs
		if e.Outcome.Succeeded {
			succeeded++
		}
	}
	if summary.KnownOutcomes > 0 {
		summary.SuccessRate = float64(succeeded) / float64(summary.KnownOutcomes)
		summary.AvgLatencyMs = latencySum / float64(summary.KnownOutcomes)
	}
	return summary
}

// deriveRecommendations applies the configured thresholds. The rules are
// independent, so one run may produce several recommendations. A rule whose
// type already has a pending recommendation is skipped to keep reruns from
// duplicating work. With no outcome data, no rule fires.
func (a *Analyzer) deriveRecommendations(summary *DailySummary) ([]Recommendation, error) {
	if summary.KnownOutcomes == 0 {
		return nil, nil
	}

	var recs []Recommendation
	add := func(recType, priority, impact, reason, action string) error {
		pending, err := a.store.HasPending(recType)
		if err != nil {
			return err
		}
		if pending {
			log.Printf("[Analyzer] Skipping %s: pending recommendation already exists", recType)
			return nil
		}
		recs = append(recs, Recommendation{
			ID:       uuid.New().String(),
			Type:     recType,
			Priority: priority,
			Impact:   impact,
			Reason:   reason,
			Action:   action,
			State:    StatePending,
		})
		return nil
	}

	if summary.SuccessRate < a.cfg.MinSuccessRate {
		err := add(TypeImproveRouting, LevelHigh, LevelHigh,
			fmt.Sprintf("success rate %.2f is below the %.2f target", summary.SuccessRate, a.cfg.MinSuccessRate),
			"review and adjust classification predicates")
		if err != nil {
			return nil, err
		}
	}
	if summary.AvgLatencyMs > a.cfg.MaxAvgLatencyMs {
		err := add(TypeOptimizePerformance, LevelMedium, LevelMedium,
			fmt.Sprintf("average latency %.0fms exceeds the %.0fms target", summary.AvgLatencyMs, a.cfg.MaxAvgLatencyMs),
			"prioritize faster engines for common request shapes")
		if err != nil {
			return nil, err
		}
	}
	if summary.SuccessRate >= a.cfg.GoodSuccessRate && summary.AvgLatencyMs <= a.cfg.MaxAvgLatencyMs {
		err := add(TypeStrengthenCurrent, LevelLow, LevelLow,
			fmt.Sprintf("success rate %.2f and latency %.0fms are within target", summary.SuccessRate, summary.AvgLatencyMs),
			"no change; current policy performing within target")
		if err != nil {
			return nil, err
		}
	}
	return recs, nil
}

// updateAccuracyDelta publishes the success-rate change versus the previous
// analyzed day. No prior day means no delta.
func (a *Analyzer) updateAccuracyDelta(day time.Time, summary *DailySummary) {
	if a.metrics == nil {
		return
	}
	prev, err := a.store.SummaryFor(day.AddDate(0, 0, -1).Format("2006-01-02"))
	if err != nil {
		log.Printf("[Analyzer] WARNING: could not load previous summary: %v", err)
		return
	}
	if prev == nil {
		a.metrics.RecommendationAccuracyDelta.Set(0)
		return
	}
	a.metrics.RecommendationAccuracyDelta.Set(summary.SuccessRate - prev.SuccessRate)
}
