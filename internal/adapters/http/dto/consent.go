package dto

import "github.com/jsamuelsen/dice-roller/internal/domain"

// ConsentRequest is the body of PUT /api/v1/consent and the form of POST /consent.
type ConsentRequest struct {
	Decision string `json:"decision" form:"decision" validate:"required,consent"`
}

// ConsentResponse reports the visitor's current decision.
type ConsentResponse struct {
	Decision         domain.ConsentDecision `json:"decision"`
	AnalyticsAllowed bool                   `json:"analyticsAllowed"`
}

// NewConsentResponse converts a decision for the wire.
func NewConsentResponse(d domain.ConsentDecision) ConsentResponse {
	return ConsentResponse{
		Decision:         d,
		AnalyticsAllowed: d.AllowsAnalytics(),
	}
}
