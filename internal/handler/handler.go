package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shawty-app/shawty/internal/service"
)

// HealthChecker is anything whose connectivity the detailed health probe
// reports on
type HealthChecker interface {
	Health(ctx context.Context) error
}

type Handler struct {
	links     *service.LinkService
	resolver  *service.RedirectResolver
	analytics *service.AnalyticsService

	postgres HealthChecker
	redis    HealthChecker

	// secureCookies marks cookies Secure in production, matching the
	// session cookie handling.
	secureCookies bool
}

func NewHandler(
	links *service.LinkService,
	resolver *service.RedirectResolver,
	analytics *service.AnalyticsService,
	postgres, redis HealthChecker,
	secureCookies bool,
) *Handler {
	return &Handler{
		links:         links,
		resolver:      resolver,
		analytics:     analytics,
		postgres:      postgres,
		redis:         redis,
		secureCookies: secureCookies,
	}
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
	})
}

func (h *Handler) HealthDetailed(c *gin.Context) {
	ctx := c.Request.Context()

	status := http.StatusOK
	postgres := "connected"
	if err := h.postgres.Health(ctx); err != nil {
		postgres = "unavailable"
		status = http.StatusServiceUnavailable
	}

	redisStatus := "connected"
	if err := h.redis.Health(ctx); err != nil {
		redisStatus = "unavailable"
		status = http.StatusServiceUnavailable
	}

	overall := "healthy"
	if status != http.StatusOK {
		overall = "degraded"
	}

	c.JSON(status, gin.H{
		"status":   overall,
		"postgres": postgres,
		"redis":    redisStatus,
	})
}
