package domain

import "strings"

// ConsentKey is the fixed storage key for the analytics consent flag.
const ConsentKey = "ga-consent"

// ConsentDecision is the visitor's analytics consent choice.
type ConsentDecision string

// Consent values. Only accepted and declined are ever stored.
const (
	ConsentUnset    ConsentDecision = "unset"
	ConsentAccepted ConsentDecision = "accepted"
	ConsentDeclined ConsentDecision = "declined"
)

// ParseConsent maps a stored flag to a decision. Unknown values are unset.
func ParseConsent(raw string) ConsentDecision {
	switch ConsentDecision(strings.ToLower(strings.TrimSpace(raw))) {
	case ConsentAccepted:
		return ConsentAccepted
	case ConsentDeclined:
		return ConsentDeclined
	default:
		return ConsentUnset
	}
}

// ParseConsentDecision parses a decision submitted by a visitor.
// Only accepted and declined are valid submissions.
func ParseConsentDecision(raw string) (ConsentDecision, error) {
	d := ParseConsent(raw)
	if d == ConsentUnset {
		return ConsentUnset, NewValidationErrorWithValue("decision", "must be accepted or declined", raw)
	}

	return d, nil
}

// AllowsAnalytics reports whether the analytics tag may be loaded.
func (d ConsentDecision) AllowsAnalytics() bool {
	return d == ConsentAccepted
}

// Pending reports whether the visitor has not decided yet.
func (d ConsentDecision) Pending() bool {
	return d == ConsentUnset
}
