// Package handlers wires the HTTP surface: the public lead submission
// endpoint, the health check, and the stats endpoint over the audit log.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"lead-relay/internal/common/errors"
	"lead-relay/internal/common/logging"
	"lead-relay/internal/config"
	"lead-relay/internal/database"
	"lead-relay/internal/zoho"
)

// LeadCreator submits mapped lead records to the CRM.
type LeadCreator interface {
	CreateLead(ctx context.Context, lead zoho.LeadRecord) (string, error)
}

// HealthChecker reports whether an optional dependency is reachable.
type HealthChecker interface {
	Health() error
}

type Handlers struct {
	config *config.Config
	leads  LeadCreator
	store  *database.DB
	redis  HealthChecker
	logger logging.Logger
}

// New creates the handler set. store may be nil when the audit log is
// disabled; redis may be nil when rate limiting is off.
func New(cfg *config.Config, leads LeadCreator, store *database.DB, redisClient HealthChecker) *Handlers {
	return &Handlers{
		config: cfg,
		leads:  leads,
		store:  store,
		redis:  redisClient,
		logger: logging.GetGlobalLogger(),
	}
}

// apiResponse is the envelope every endpoint answer uses. Timestamp is an
// ISO-8601 instant generated at write time.
type apiResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message,omitempty"`
	LeadID    string `json:"leadId,omitempty"`
	Error     string `json:"error,omitempty"`
	Timestamp string `json:"timestamp"`
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("Failed to encode response", err)
	}
}

// writeError maps an error to its HTTP status and emits the failure
// envelope. The public text stays terse; the rich diagnostic context
// inside AppError is for operator logs only.
func (h *Handlers) writeError(w http.ResponseWriter, err error) {
	status := errors.HTTPStatus(err)

	message := "Internal server error"
	if appErr, ok := err.(*errors.AppError); ok {
		switch appErr.Type {
		case errors.ErrTypeValidation, errors.ErrTypeMethodNotAllowed:
			message = appErr.Message
		case errors.ErrTypeAuth, errors.ErrTypeUpstream:
			message = "Failed to create lead"
		}
	}

	h.writeJSON(w, status, apiResponse{
		Success:   false,
		Error:     message,
		Timestamp: timestamp(),
	})
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}
