package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"go-compass/internal/config"
	"go-compass/internal/policy"
)

// GET /health
func healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// GET /route/status
func RouteStatusHandler(cfg *config.Config, decider policy.Decider) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"variant": decider.Variant(),
			"engines": policy.AllEngines(),
			"modes":   policy.AllModes(),
			"engine_config": gin.H{
				"default_context_tokens": cfg.Engine.DefaultContextTokens,
				"code_context_tokens":    cfg.Engine.CodeContextTokens,
				"default_latency_ms":     cfg.Engine.DefaultLatencyMs,
				"tight_latency_ms":       cfg.Engine.TightLatencyMs,
				"relaxed_latency_ms":     cfg.Engine.RelaxedLatencyMs,
				"rag_top_k":              cfg.Engine.RagTopK,
			},
		})
	}
}
