package handler

import (
	"context"
	"net/http"
	"time"

	"bukinn/internal/microservices/http-api/response"

	"github.com/gin-gonic/gin"
)

// ReadinessCheck reports whether one dependency can serve requests.
type ReadinessCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

type HealthHandler struct {
	checks []ReadinessCheck
	now    func() time.Time
}

func NewHealthHandler(checks ...ReadinessCheck) *HealthHandler {
	return &HealthHandler{checks: checks, now: time.Now}
}

func (h *HealthHandler) RegisterRoutes(r gin.IRoutes) {
	r.GET("/health", h.Health)
	r.GET("/ready", h.Ready)
}

func (h *HealthHandler) Health(c *gin.Context) {
	response.OK(c, http.StatusOK, "", gin.H{
		"status":    "ok",
		"timestamp": h.now().UTC().Format(time.RFC3339),
	})
}

// Ready runs every check; one failure makes the whole service unready.
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	status := make(map[string]string, len(h.checks))
	ready := true
	for _, check := range h.checks {
		if err := check.Check(ctx); err != nil {
			status[check.Name] = "unavailable"
			ready = false
			continue
		}
		status[check.Name] = "ok"
	}

	if !ready {
		c.JSON(http.StatusServiceUnavailable, response.Envelope{
			Success: false,
			Message: "Service not ready",
			Data:    gin.H{"checks": status},
		})
		return
	}
	response.OK(c, http.StatusOK, "", gin.H{"status": "ready", "checks": status})
}
