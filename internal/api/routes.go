package api

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/vitalia-health/vitalia-ai-go/internal/api/handlers"
	"github.com/vitalia-health/vitalia-ai-go/internal/telemetry"
)

// SetupRoutes registers the analysis and health endpoints.
func SetupRoutes(router *gin.Engine, analysis *handlers.AnalysisHandler, mood *handlers.MoodHandler, health *handlers.HealthHandler) {
	router.Use(otelgin.Middleware(telemetry.ServiceName))

	router.GET("/health", health.Check)

	v1 := router.Group("/api/v1")
	{
		group := v1.Group("/analysis")
		{
			group.POST("/biological-age", analysis.CalculateBiologicalAge)
			group.POST("/microbiome", analysis.AnalyzeMicrobiome)
			group.POST("/microbiome/scfa", analysis.ClassifySCFAProducers)
			group.GET("/gut-brain/:userId", analysis.AnalyzeGutBrain)
		}
		v1.POST("/mood", mood.LogMood)
	}
}
