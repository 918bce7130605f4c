package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"go-compass/internal/policy"
	"go-compass/internal/telemetry"
)

// FingerprintHeader carries the request fingerprint back to the caller so
// the response body stays exactly the policy.
const FingerprintHeader = "X-Request-Fingerprint"

// POST /route
// Routing is never a hard dependency for admission: a body that fails to
// bind still gets the default policy for an empty prompt.
func RouteHandler(decider policy.Decider, recorder *telemetry.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req policy.Request
		_ = c.ShouldBindJSON(&req)

		start := time.Now()
		pol := decider.Decide(req)
		decisionMs := float64(time.Since(start).Microseconds()) / 1000.0

		fingerprint := recorder.Record(req, pol, decisionMs)
		c.Header(FingerprintHeader, fingerprint)
		c.JSON(http.StatusOK, pol)
	}
}

type outcomeRequest struct {
	Fingerprint        string  `json:"fingerprint"`
	Succeeded          bool    `json:"succeeded"`
	ExecutionLatencyMs float64 `json:"executionLatencyMs"`
	Model              string  `json:"model"`
	TaskType           string  `json:"taskType"`
}

// POST /route/outcome
func RouteOutcomeHandler(recorder *telemetry.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req outcomeRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.Fingerprint == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "fingerprint is required"})
			return
		}
		recorder.RecordOutcome(telemetry.OutcomeReport{
			Fingerprint:        req.Fingerprint,
			Succeeded:          req.Succeeded,
			ExecutionLatencyMs: req.ExecutionLatencyMs,
			Model:              req.Model,
			TaskType:           req.TaskType,
		})
		c.JSON(http.StatusAccepted, gin.H{"status": "recorded"})
	}
}
