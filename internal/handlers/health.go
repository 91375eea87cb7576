package handlers

import (
	"net/http"
	"time"
)

type healthResponse struct {
	Status       string            `json:"status"`
	Timestamp    string            `json:"timestamp"`
	Dependencies map[string]string `json:"dependencies,omitempty"`
}

// HealthCheck reports liveness and the state of optional dependencies.
// The service is considered healthy as long as it can serve requests;
// degraded dependencies are reported but do not fail the check, since the
// submit path can operate without the audit log or rate limiter.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	deps := make(map[string]string)

	if h.store != nil {
		if err := h.store.Ping(); err != nil {
			deps["database"] = "unavailable"
		} else {
			deps["database"] = "ok"
		}
	}

	if h.redis != nil {
		if err := h.redis.Health(); err != nil {
			deps["redis"] = "unavailable"
		} else {
			deps["redis"] = "ok"
		}
	}

	h.writeJSON(w, http.StatusOK, healthResponse{
		Status:       "ok",
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
		Dependencies: deps,
	})
}
