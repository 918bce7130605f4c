package telemetry

import (
	"fmt"
	"log"
	"sync"
	"time"

	"go-compass/internal/policy"
)

// Recorder wraps every routing decision and outcome report. Persistence runs
// on a single writer goroutine behind a bounded buffer so a slow or failing
// store degrades observability, never the request path. Decision counters are
// updated synchronously; outcome counters follow persistence so they track
// what the store actually kept.
type Recorder struct {
	store   *HistoryStore
	metrics *Metrics
	feed    *Feed

	ops  chan writeOp
	done chan struct{}

	// mu fences enqueue against Close: no send may overlap closing ops.
	mu        sync.RWMutex
	closed    bool
	closeOnce sync.Once
}

type writeOp struct {
	decision *DecisionRecord
	outcome  *OutcomeRecord
	model    string
	taskType string
}

// NewRecorder starts the writer goroutine. bufferSize bounds how many
// pending writes may queue before new ones are dropped.
func NewRecorder(store *HistoryStore, metrics *Metrics, feed *Feed, bufferSize int) *Recorder {
	if bufferSize <= 0 {
		bufferSize = 1024
	}
	r := &Recorder{
		store:   store,
		metrics: metrics,
		feed:    feed,
		ops:     make(chan writeOp, bufferSize),
		done:    make(chan struct{}),
	}
	go r.writeLoop()
	return r
}

// Record registers one routing decision and returns its fingerprint. Never
// returns an error: telemetry failure must not abort request handling.
func (r *Recorder) Record(req policy.Request, pol policy.RoutePolicy, decisionLatencyMs float64) string {
	fingerprint := Fingerprint(req)

	r.metrics.DecisionsTotal.WithLabelValues(string(pol.Engine), string(pol.Mode)).Inc()
	r.metrics.RoutingLatencyMs.Observe(decisionLatencyMs)

	now := time.Now().UTC()
	if r.feed != nil {
		r.feed.Publish(DecisionEvent{
			Fingerprint:       fingerprint,
			Engine:            string(pol.Engine),
			Mode:              string(pol.Mode),
			DecisionLatencyMs: decisionLatencyMs,
			Timestamp:         now,
		})
	}

	raw, err := MarshalPolicy(pol)
	if err != nil {
		log.Printf("[Recorder] ERROR: %v", err)
		r.metrics.DroppedTotal.Inc()
		return fingerprint
	}
	r.enqueue(writeOp{decision: &DecisionRecord{
		Fingerprint:       fingerprint,
		Engine:            string(pol.Engine),
		Mode:              string(pol.Mode),
		Policy:            raw,
		DecisionLatencyMs: decisionLatencyMs,
		CreatedAt:         now,
	}})
	return fingerprint
}

// OutcomeReport is what the executor sends back after running a policy.
// Model and TaskType are optional inference-timing metadata.
type OutcomeReport struct {
	Fingerprint        string
	Succeeded          bool
	ExecutionLatencyMs float64
	Model              string
	TaskType           string
}

// RecordOutcome registers the result of executing a routed request. The
// success/error counters are incremented by the writer only for the first
// report per fingerprint, so a duplicate report cannot drift the counters
// away from the persisted history.
func (r *Recorder) RecordOutcome(rep OutcomeReport) {
	r.enqueue(writeOp{
		outcome: &OutcomeRecord{
			Fingerprint:        rep.Fingerprint,
			Succeeded:          rep.Succeeded,
			ExecutionLatencyMs: rep.ExecutionLatencyMs,
			CreatedAt:          time.Now().UTC(),
		},
		model:    rep.Model,
		taskType: rep.TaskType,
	})
}

// RecordRetrieval registers one document-retrieval call against the rag
// metrics.
func (r *Recorder) RecordRetrieval(success bool, documentsReturned int) {
	r.metrics.RagRetrievalsTotal.WithLabelValues(fmt.Sprintf("%t", success)).Inc()
	if success {
		r.metrics.RagDocumentsReturned.Observe(float64(documentsReturned))
	}
}

// Query exposes the history read surface used by the analyzer.
func (r *Recorder) Query(start, end time.Time) ([]TimelineEntry, error) {
	return r.store.QueryWindow(start, end)
}

// Metrics exposes the instrument set for components that report through the
// recorder (the analyzer's accuracy-delta gauge).
func (r *Recorder) Metrics() *Metrics {
	return r.metrics
}

// Close drains pending writes and stops the writer goroutine.
func (r *Recorder) Close() {
	r.closeOnce.Do(func() {
		r.mu.Lock()
		r.closed = true
		close(r.ops)
		r.mu.Unlock()
		<-r.done
	})
}

func (r *Recorder) enqueue(op writeOp) {
	// The read lock spans the send so Close cannot close ops underneath a
	// concurrent Record; a late caller drops instead of panicking.
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		r.metrics.DroppedTotal.Inc()
		return
	}
	select {
	case r.ops <- op:
	default:
		// Buffer full: drop rather than block the request path.
		r.metrics.DroppedTotal.Inc()
	}
}

func (r *Recorder) writeLoop() {
	defer close(r.done)
	for op := range r.ops {
		switch {
		case op.decision != nil:
			if err := r.store.AppendDecision(op.decision); err != nil {
				log.Printf("[Recorder] ERROR: telemetry write failed: %v", err)
				r.metrics.DroppedTotal.Inc()
			}
		case op.outcome != nil:
			inserted, err := r.store.AppendOutcome(op.outcome)
			if err != nil {
				log.Printf("[Recorder] ERROR: telemetry write failed: %v", err)
				r.metrics.DroppedTotal.Inc()
				continue
			}
			if inserted {
				r.countOutcome(op)
			}
		}
	}
}

func (r *Recorder) countOutcome(op writeOp) {
	if op.outcome.Succeeded {
		r.metrics.SuccessTotal.Inc()
	} else {
		r.metrics.ErrorsTotal.WithLabelValues("execution").Inc()
	}
	if op.model != "" {
		taskType := op.taskType
		if taskType == "" {
			taskType = "unknown"
		}
		r.metrics.ModelInferenceMs.WithLabelValues(op.model, taskType).Observe(op.outcome.ExecutionLatencyMs)
	}
}
