package form

import (
	"strings"

	"lead-relay/internal/zoho"
)

// Per-form-type lead tags. Unknown or absent form types take the general
// website defaults.
const (
	sourceContact    = "Website - Contact Form"
	sourceNewsletter = "Website - Newsletter"
	sourceDefault    = "Website"

	statusNotContacted = "Not Contacted"
	statusQualified    = "Qualified"
)

// MapLead transforms a submission into the CRM's lead schema. Mapping is
// pure: the same submission always yields the same record.
func MapLead(sub Submission) zoho.LeadRecord {
	firstName, lastName := splitName(sub.Name)
	leadSource, leadStatus := leadTags(sub.FormType)

	return zoho.LeadRecord{
		FirstName:   firstName,
		LastName:    lastName,
		Email:       strings.TrimSpace(sub.Email),
		Phone:       strings.TrimSpace(sub.Phone),
		Company:     strings.TrimSpace(sub.Company),
		LeadSource:  leadSource,
		LeadStatus:  leadStatus,
		Description: strings.TrimSpace(sub.Message),
	}
}

// leadTags returns the lead-source and lead-status pair for a form type.
func leadTags(formType string) (string, string) {
	switch formType {
	case "contact":
		return sourceContact, statusNotContacted
	case "newsletter":
		return sourceNewsletter, statusQualified
	default:
		return sourceDefault, statusNotContacted
	}
}

// splitName divides a full name on whitespace: the first token becomes the
// first name and the remainder the last name, with "User" filling in when
// no remainder exists. An absent name maps to "Unknown User".
func splitName(name string) (string, string) {
	tokens := strings.Fields(name)
	if len(tokens) == 0 {
		return "Unknown", "User"
	}

	firstName := tokens[0]
	lastName := strings.Join(tokens[1:], " ")
	if lastName == "" {
		lastName = "User"
	}

	return firstName, lastName
}
