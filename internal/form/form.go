// Package form handles inbound website form submissions: parsing the raw
// request body, validating required fields, and mapping the result into
// the CRM's lead schema.
package form

import (
	"encoding/json"
	"net/url"
	"regexp"
	"strings"

	"lead-relay/internal/common/errors"
)

// Submission is the raw inbound field set for a single request.
// FormType controls which lead-source and lead-status tags the mapper
// applies; absent values fall back to the general website defaults.
type Submission struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Company  string `json:"company"`
	Message  string `json:"message"`
	FormType string `json:"form_type"`
}

// emailPattern matches the standard local@domain.tld shape.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Parse decodes a raw request body into a Submission. JSON bodies are
// recognized by the content type hint; everything else is treated as
// URL-encoded form data.
func Parse(rawBody []byte, contentType string) (Submission, error) {
	if strings.Contains(contentType, "application/json") {
		return parseJSON(rawBody)
	}
	return parseURLEncoded(rawBody)
}

func parseJSON(rawBody []byte) (Submission, error) {
	var sub Submission
	if err := json.Unmarshal(rawBody, &sub); err != nil {
		return Submission{}, errors.ValidationError("Invalid request body")
	}
	return sub, nil
}

func parseURLEncoded(rawBody []byte) (Submission, error) {
	values, err := url.ParseQuery(string(rawBody))
	if err != nil {
		return Submission{}, errors.ValidationError("Invalid request body")
	}

	return Submission{
		Name:     values.Get("name"),
		Email:    values.Get("email"),
		Phone:    values.Get("phone"),
		Company:  values.Get("company"),
		Message:  values.Get("message"),
		FormType: values.Get("form_type"),
	}, nil
}

// Validate checks the required fields and returns a validation error
// listing every failed check, or nil when the submission is acceptable.
func (s Submission) Validate() error {
	var problems []string

	if strings.TrimSpace(s.Name) == "" {
		problems = append(problems, "Name is required")
	}

	email := strings.TrimSpace(s.Email)
	if email == "" {
		problems = append(problems, "Email is required")
	} else if !emailPattern.MatchString(email) {
		problems = append(problems, "Invalid email format")
	}

	if len(problems) > 0 {
		return errors.ValidationError("Validation failed: " + strings.Join(problems, ", "))
	}

	return nil
}
