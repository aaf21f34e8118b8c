package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vitalia-health/vitalia-ai-go/internal/database"
	"github.com/vitalia-health/vitalia-ai-go/internal/services"
	"github.com/vitalia-health/vitalia-ai-go/internal/telemetry"
)

var startTime = time.Now()

// HealthHandler reports dependency health and a resource usage snapshot.
type HealthHandler struct {
	db      *database.PostgresDB
	redis   *database.RedisClient
	monitor *services.PerformanceMonitor
}

type healthResponse struct {
	Status    string                  `json:"status"`
	Timestamp time.Time               `json:"timestamp"`
	Services  map[string]string       `json:"services"`
	Version   string                  `json:"version"`
	Uptime    string                  `json:"uptime"`
	System    services.SystemSnapshot `json:"system"`
}

// NewHealthHandler creates a health handler.
func NewHealthHandler(db *database.PostgresDB, redis *database.RedisClient, monitor *services.PerformanceMonitor) *HealthHandler {
	return &HealthHandler{
		db:      db,
		redis:   redis,
		monitor: monitor,
	}
}

// Check reports overall service health. Returns 503 when any dependency is
// unreachable.
func (h *HealthHandler) Check(c *gin.Context) {
	ctx := c.Request.Context()
	statuses := make(map[string]string)

	if h.db != nil {
		if err := h.db.HealthCheck(ctx); err != nil {
			statuses["database"] = "unhealthy: " + err.Error()
		} else {
			statuses["database"] = "healthy"
		}
	} else {
		statuses["database"] = "unhealthy: not configured"
	}

	if h.redis != nil {
		if err := h.redis.HealthCheck(ctx); err != nil {
			statuses["redis"] = "unhealthy: " + err.Error()
		} else {
			statuses["redis"] = "healthy"
		}
	} else {
		statuses["redis"] = "unhealthy: not configured"
	}

	overall := "healthy"
	for _, status := range statuses {
		if status != "healthy" {
			overall = "unhealthy"
			break
		}
	}

	resp := healthResponse{
		Status:    overall,
		Timestamp: time.Now().UTC(),
		Services:  statuses,
		Version:   telemetry.ServiceVersion,
		Uptime:    time.Since(startTime).String(),
	}
	if h.monitor != nil {
		resp.System = h.monitor.Snapshot()
	}

	code := http.StatusOK
	if overall != "healthy" {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, resp)
}
