package notify

import (
	"context"
	"log"

	"go-compass/internal/evolution"
)

// LogNotifier is the fallback dispatcher when Redis is not configured.
type LogNotifier struct{}

func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (n *LogNotifier) NotifyRunComplete(_ context.Context, summary evolution.DailySummary, recs []evolution.Recommendation) {
	log.Printf("[Notifier] Analysis for %s complete: %d recommendations pending review", summary.Date, len(recs))
}
