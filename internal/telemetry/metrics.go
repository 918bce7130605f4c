package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds every exported instrument. The registry is injected so tests
// can run against an isolated registry instead of a process-wide default.
type Metrics struct {
	DecisionsTotal              *prometheus.CounterVec
	SuccessTotal                prometheus.Counter
	ErrorsTotal                 *prometheus.CounterVec
	RoutingLatencyMs            prometheus.Histogram
	RecommendationAccuracyDelta prometheus.Gauge
	ModelInferenceMs            *prometheus.HistogramVec
	RagRetrievalsTotal          *prometheus.CounterVec
	RagDocumentsReturned        prometheus.Histogram
	DroppedTotal                prometheus.Counter
}

func NewMetrics(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		DecisionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "routing_decisions_total",
				Help: "Routing decisions made, by engine and mode",
			},
			[]string{"engine", "mode"},
		),
		SuccessTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "routing_success_total",
				Help: "Routed requests reported as succeeded",
			},
		),
		ErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "routing_errors_total",
				Help: "Routed requests reported as failed, by error type",
			},
			[]string{"error_type"},
		),
		RoutingLatencyMs: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "routing_latency_ms",
				Help:    "Latency of the routing decision itself in milliseconds",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25},
			},
		),
		RecommendationAccuracyDelta: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "recommendation_accuracy_delta",
				Help: "Success-rate change versus the previous analyzed day",
			},
		),
		ModelInferenceMs: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "model_inference_ms",
				Help:    "Reported model inference time in milliseconds",
				Buckets: []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000},
			},
			[]string{"model", "task_type"},
		),
		RagRetrievalsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rag_retrievals_total",
				Help: "Document retrieval calls, by success",
			},
			[]string{"success"},
		),
		RagDocumentsReturned: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "rag_documents_returned",
				Help:    "Documents returned per retrieval call",
				Buckets: []float64{0, 1, 2, 5, 10, 20, 50},
			},
		),
		DroppedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "telemetry_dropped_total",
				Help: "Telemetry writes dropped due to backpressure or store failure",
			},
		),
	}

	reg.MustRegister(
		m.DecisionsTotal,
		m.SuccessTotal,
		m.ErrorsTotal,
		m.RoutingLatencyMs,
		m.RecommendationAccuracyDelta,
		m.ModelInferenceMs,
		m.RagRetrievalsTotal,
		m.RagDocumentsReturned,
		m.DroppedTotal,
	)
	return m
}
