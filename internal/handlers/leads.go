package handlers

import (
	"io"
	"net/http"

	"lead-relay/internal/common/errors"
	"lead-relay/internal/common/logging"
	"lead-relay/internal/database"
	"lead-relay/internal/form"
)

// maxBodySize bounds inbound form payloads.
const maxBodySize = 1 << 20

// HandleLead processes the public form submission endpoint.
//
// OPTIONS answers the CORS preflight with an empty 200. POST parses,
// validates, maps, and forwards the submission, answering with the
// standard envelope. Any other verb gets the 405 envelope. The CORS
// headers themselves are applied by middleware on every response.
func (h *Handlers) HandleLead(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusOK)
		return
	case http.MethodPost:
		h.submitLead(w, r)
		return
	default:
		h.writeError(w, errors.MethodNotAllowedError())
	}
}

func (h *Handlers) submitLead(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		h.logger.Error("Failed to read request body", err)
		h.writeError(w, errors.InternalError("failed to read request body", err))
		return
	}

	submission, err := form.Parse(body, r.Header.Get("Content-Type"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	if err := submission.Validate(); err != nil {
		h.writeError(w, err)
		return
	}

	lead := form.MapLead(submission)

	leadID, err := h.leads.CreateLead(r.Context(), lead)
	h.recordSubmission(submission, leadID, err)

	if err != nil {
		h.logger.Error("Lead submission failed", err,
			logging.String("email", submission.Email),
			logging.String("form_type", submission.FormType),
		)
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, apiResponse{
		Success:   true,
		Message:   "Lead created successfully",
		LeadID:    leadID,
		Timestamp: timestamp(),
	})
}

// recordSubmission appends the outcome to the audit log. Failures here are
// logged and swallowed; the audit trail never blocks the caller's response.
func (h *Handlers) recordSubmission(submission form.Submission, leadID string, submitErr error) {
	if h.store == nil {
		return
	}

	record := &database.Submission{
		Email:    submission.Email,
		FormType: submission.FormType,
		LeadID:   leadID,
		Status:   database.StatusForwarded,
	}
	if submitErr != nil {
		record.Status = database.StatusFailed
		record.Error = submitErr.Error()
	}

	if err := h.store.RecordSubmission(record); err != nil {
		h.logger.Warn("Failed to record submission",
			logging.Field{Key: "error", Value: err},
		)
	}
}
