package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"go-compass/internal/config"
	"go-compass/internal/evolution"
	"go-compass/internal/policy"
	"go-compass/internal/retrieval"
	"go-compass/internal/telemetry"
)

// Deps bundles everything the HTTP surface needs. Retriever may be nil when
// no vector store is configured; the rag endpoint then reports unavailable.
type Deps struct {
	Config    *config.Config
	Decider   policy.Decider
	Recorder  *telemetry.Recorder
	Feed      *telemetry.Feed
	Evolution *evolution.Store
	Worker    *evolution.Worker
	Retriever retrieval.Retriever
	Registry  *prometheus.Registry
}

func SetupRouter(deps Deps) *gin.Engine {
	r := gin.Default()
	subpath := deps.Config.Server.Subpath

	group := r.Group(subpath)
	{
		group.GET("/health", healthHandler)

		// Routing
		group.POST("/route", RouteHandler(deps.Decider, deps.Recorder))
		group.POST("/route/outcome", RouteOutcomeHandler(deps.Recorder))
		group.GET("/route/status", RouteStatusHandler(deps.Config, deps.Decider))

		// Metrics scrape
		group.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{})))

		// Self-tuning loop
		group.GET("/evolution/recommendations", ListRecommendationsHandler(deps.Evolution))
		group.POST("/evolution/approve", ApproveHandler(deps.Evolution))
		group.POST("/evolution/reject", RejectHandler(deps.Evolution))
		group.POST("/evolution/approve-all", ApproveAllHandler(deps.Evolution))
		group.POST("/evolution/reject-all", RejectAllHandler(deps.Evolution))
		group.POST("/evolution/analyze", AnalyzeHandler(deps.Worker))

		// Retrieval glue for executors acting on rag-enabled policies
		group.POST("/rag/search", RagSearchHandler(deps.Retriever, deps.Recorder, deps.Config.Engine.RagTopK))

		// Live decision feed
		group.GET("/ws/decisions", WSDecisionsHandler(deps.Feed))
	}
	return r
}
