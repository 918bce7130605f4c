package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"go-compass/internal/retrieval"
	"go-compass/internal/telemetry"
)

type ragSearchRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"topK"`
}

// POST /rag/search is thin glue for executors acting on a policy with rag
// enabled. Every call is counted against the rag metrics.
func RagSearchHandler(retriever retrieval.Retriever, recorder *telemetry.Recorder, defaultTopK int) gin.HandlerFunc {
	return func(c *gin.Context) {
		if retriever == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no vector store configured"})
			return
		}
		var req ragSearchRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.Query == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "query is required"})
			return
		}
		if req.TopK <= 0 {
			req.TopK = defaultTopK
		}

		docs, err := retriever.Search(c.Request.Context(), req.Query, req.TopK)
		if err != nil {
			recorder.RecordRetrieval(false, 0)
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
		recorder.RecordRetrieval(true, len(docs))
		c.JSON(http.StatusOK, gin.H{"documents": docs})
	}
}
