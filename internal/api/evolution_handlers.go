package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"go-compass/internal/evolution"
)

// GET /evolution/recommendations?state=pending
func ListRecommendationsHandler(store *evolution.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		state := evolution.State(c.Query("state"))
		switch state {
		case "", evolution.StatePending, evolution.StateApproved, evolution.StateRejected:
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown state filter"})
			return
		}
		recs, err := store.List(state)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"recommendations": recs})
	}
}

type decisionRequest struct {
	RecommendationID string `json:"recommendationId"`
}

// POST /evolution/approve
func ApproveHandler(store *evolution.Store) gin.HandlerFunc {
	return decisionHandler(store.Approve)
}

// POST /evolution/reject
func RejectHandler(store *evolution.Store) gin.HandlerFunc {
	return decisionHandler(store.Reject)
}

// decisionHandler maps the three store outcomes to distinguishable HTTP
// responses: applied and already-decided are both 200s with an explicit
// result field, not-found is a 404.
func decisionHandler(decide func(string) (evolution.DecisionResult, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req decisionRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.RecommendationID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "recommendationId is required"})
			return
		}
		result, err := decide(req.RecommendationID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if result == evolution.ResultNotFound {
			c.JSON(http.StatusNotFound, gin.H{"result": result})
			return
		}
		c.JSON(http.StatusOK, gin.H{"result": result})
	}
}

// POST /evolution/approve-all
func ApproveAllHandler(store *evolution.Store) gin.HandlerFunc {
	return batchHandler(store.ApproveAll)
}

// POST /evolution/reject-all
func RejectAllHandler(store *evolution.Store) gin.HandlerFunc {
	return batchHandler(store.RejectAll)
}

func batchHandler(decideAll func() (int64, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		affected, err := decideAll()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"affected": affected})
	}
}

type analyzeRequest struct {
	Date string `json:"date"`
}

// POST /evolution/analyze triggers a manual re-run, defaulting to yesterday.
func AnalyzeHandler(worker *evolution.Worker) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req analyzeRequest
		_ = c.ShouldBindJSON(&req)

		forDate := time.Now().UTC().AddDate(0, 0, -1)
		if req.Date != "" {
			parsed, err := time.Parse("2006-01-02", req.Date)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
				return
			}
			forDate = parsed
		}
		started, err := worker.TriggerNow(c.Request.Context(), forDate)
		if !started {
			c.JSON(http.StatusConflict, gin.H{"error": "analysis already running"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "completed", "date": forDate.Format("2006-01-02")})
	}
}
