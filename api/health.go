package api

import (
	"net/http"
	"time"
)

type HealthHandler struct {
	startedAt time.Time
	checks    map[string]func() bool
}

func CreateHealthHandler(checks map[string]func() bool) *HealthHandler {
	return &HealthHandler{
		startedAt: time.Now(),
		checks:    checks,
	}
}

func (h *HealthHandler) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	components := make(map[string]string, len(h.checks))
	status := "healthy"
	for name, check := range h.checks {
		if check() {
			components[name] = "up"
		} else {
			components[name] = "degraded"
			status = "degraded"
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":     status,
		"uptime":     time.Since(h.startedAt).String(),
		"components": components,
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
	})
}
