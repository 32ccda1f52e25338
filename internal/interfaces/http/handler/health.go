package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthCheck pings one dependency
type HealthCheck func(ctx context.Context) error

// HealthDetail reports runtime statistics for one component. A failing
// detail is reported but does not change the health status.
type HealthDetail func() (any, error)

// HealthHandler reports service liveness and dependency status
type HealthHandler struct {
	checks  map[string]HealthCheck
	details map[string]HealthDetail
	timeout time.Duration
}

// NewHealthHandler creates a handler running checks with a per-request timeout
func NewHealthHandler(checks map[string]HealthCheck) *HealthHandler {
	return &HealthHandler{checks: checks, details: map[string]HealthDetail{}, timeout: 2 * time.Second}
}

// WithDetail adds a statistics section to the health response
func (h *HealthHandler) WithDetail(name string, detail HealthDetail) *HealthHandler {
	h.details[name] = detail
	return h
}

// Health godoc
// @ID           healthCheck
// @Summary      Service health
// @Description  Answers 200 when every dependency check passes, otherwise 503. Runtime details never change the status
// @Tags         health
// @Produce      json
// @Success      200 {object} map[string]interface{}
// @Failure      503 {object} map[string]interface{}
// @Router       /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	status := http.StatusOK
	results := make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			results[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		results[name] = "ok"
	}

	overall := "healthy"
	if status != http.StatusOK {
		overall = "unhealthy"
	}
	body := gin.H{
		"status": overall,
		"checks": results,
		"time":   time.Now().UTC().Format(time.RFC3339),
	}
	if len(h.details) > 0 {
		details := make(map[string]any, len(h.details))
		for name, detail := range h.details {
			v, err := detail()
			if err != nil {
				details[name] = gin.H{"error": err.Error()}
				continue
			}
			details[name] = v
		}
		body["details"] = details
	}
	c.JSON(status, body)
}
