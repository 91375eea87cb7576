package zoho

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"lead-relay/internal/common/errors"
	"lead-relay/internal/common/logging"
)

// authScheme is the CRM's bearer scheme for the Authorization header.
const authScheme = "Zoho-oauthtoken"

// LeadRecord is the normalized lead shape sent to the CRM. Field names
// follow the CRM's lead module schema.
type LeadRecord struct {
	FirstName   string `json:"First_Name,omitempty"`
	LastName    string `json:"Last_Name"`
	Email       string `json:"Email"`
	Phone       string `json:"Phone,omitempty"`
	Company     string `json:"Company,omitempty"`
	LeadSource  string `json:"Lead_Source"`
	LeadStatus  string `json:"Lead_Status"`
	Description string `json:"Description,omitempty"`
}

// leadEnvelope wraps records in the single-element list the CRM requires.
type leadEnvelope struct {
	Data []LeadRecord `json:"data"`
}

// createResponse maps the CRM's lead-creation acknowledgment. Each row is
// a tagged result: Status discriminates success from error rows.
type createResponse struct {
	Data []struct {
		Code    string `json:"code"`
		Status  string `json:"status"`
		Message string `json:"message"`
		Details struct {
			ID string `json:"id"`
		} `json:"details"`
	} `json:"data"`
}

// errorResponse maps the CRM's top-level error body on non-2xx statuses.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Client submits lead records to the CRM's lead-creation resource.
type Client struct {
	apiDomain  string
	tokens     TokenSource
	httpClient *http.Client
	logger     logging.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithClientHTTPClient sets the HTTP client used for CRM calls.
func WithClientHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = client
	}
}

// NewClient creates a CRM client that authenticates via the given token
// source. apiDomain is the CRM API base URL, e.g. https://www.zohoapis.com.
func NewClient(apiDomain string, tokens TokenSource, opts ...ClientOption) *Client {
	c := &Client{
		apiDomain:  apiDomain,
		tokens:     tokens,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     logging.GetGlobalLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// CreateLead sends a single lead record to the CRM and returns the
// identifier the CRM assigned. A single attempt is made; any failure
// propagates to the caller without retry.
//
// An HTTP 2xx alone is not trusted: the response must contain exactly one
// acknowledgment row with status "success" and a record identifier,
// otherwise the submission is treated as failed. A 401 additionally
// evicts the cached token so the next request starts a fresh exchange.
func (c *Client) CreateLead(ctx context.Context, lead LeadRecord) (string, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return "", err
	}

	payload, err := json.Marshal(leadEnvelope{Data: []LeadRecord{lead}})
	if err != nil {
		return "", errors.InternalError("failed to encode lead payload", err)
	}

	url := c.apiDomain + "/crm/v2/Leads"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", errors.InternalError("failed to create lead request", err)
	}
	req.Header.Set("Authorization", authScheme+" "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", errors.UpstreamError("lead creation request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.UpstreamError("failed to read lead creation response", err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		// The token was rejected server-side before its locally computed
		// expiry; evict it so the next request performs a fresh exchange.
		c.tokens.Invalidate()
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		serverMsg := extractServerMessage(body)
		c.logger.Error("CRM rejected lead creation", nil,
			logging.Int("status", resp.StatusCode),
			logging.String("server_message", serverMsg),
		)
		return "", errors.UpstreamError("lead creation rejected by CRM", nil).
			WithContext("status", resp.StatusCode).
			WithContext("server_message", serverMsg)
	}

	var created createResponse
	if err := json.Unmarshal(body, &created); err != nil {
		return "", errors.UpstreamError("failed to decode lead creation response", err)
	}

	if len(created.Data) != 1 {
		c.logger.Error("CRM acknowledgment had unexpected shape", nil,
			logging.Int("rows", len(created.Data)),
		)
		return "", errors.UpstreamError("CRM did not acknowledge the lead", nil)
	}

	result := created.Data[0]
	if result.Status != "success" || result.Details.ID == "" {
		c.logger.Error("CRM reported lead creation failure", nil,
			logging.String("status", result.Status),
			logging.String("code", result.Code),
			logging.String("message", result.Message),
		)
		return "", errors.UpstreamError("CRM did not acknowledge the lead", nil).
			WithContext("crm_status", result.Status).
			WithContext("crm_code", result.Code)
	}

	c.logger.Info("Lead created",
		logging.String("lead_id", result.Details.ID),
	)

	return result.Details.ID, nil
}

// extractServerMessage pulls the human-readable message from a CRM error
// body, tolerating both the row-level and top-level error shapes.
func extractServerMessage(body []byte) string {
	var rows createResponse
	if err := json.Unmarshal(body, &rows); err == nil && len(rows.Data) > 0 && rows.Data[0].Message != "" {
		return rows.Data[0].Message
	}

	var top errorResponse
	if err := json.Unmarshal(body, &top); err == nil && top.Message != "" {
		return top.Message
	}

	return ""
}
