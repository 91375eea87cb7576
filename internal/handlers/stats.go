package handlers

import (
	"net/http"
	"strconv"

	"lead-relay/internal/common/errors"
)

// GetStats returns aggregate submission counters from the audit log.
func (h *Handlers) GetStats(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		h.writeError(w, errors.InternalError("audit log is not configured", nil))
		return
	}

	stats, err := h.store.GetStats()
	if err != nil {
		h.logger.Error("Failed to load stats", err)
		h.writeError(w, errors.InternalError("failed to load stats", err))
		return
	}

	h.writeJSON(w, http.StatusOK, stats)
}

// GetRecentSubmissions returns the newest audit-log rows. The optional
// "limit" query parameter caps the row count (default 50, max 500).
func (h *Handlers) GetRecentSubmissions(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		h.writeError(w, errors.InternalError("audit log is not configured", nil))
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if limit > 500 {
		limit = 500
	}

	subs, err := h.store.RecentSubmissions(limit)
	if err != nil {
		h.logger.Error("Failed to load submissions", err)
		h.writeError(w, errors.InternalError("failed to load submissions", err))
		return
	}

	h.writeJSON(w, http.StatusOK, subs)
}
