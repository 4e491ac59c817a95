package acl

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jsamuelsen/dice-roller/internal/domain"
	"github.com/jsamuelsen/dice-roller/internal/ports"
)

// Measurement Protocol limits.
const (
	maxEventNameLength = 40
	maxParams          = 25
	maxParamNameLength = 40
)

// mpRequest is the Measurement Protocol request body.
type mpRequest struct {
	ClientID string    `json:"client_id"`
	Events   []mpEvent `json:"events"`
}

type mpEvent struct {
	Name   string         `json:"name"`
	Params map[string]any `json:"params,omitempty"`
}

// mpValidationResponse is returned by the debug endpoint.
type mpValidationResponse struct {
	ValidationMessages []mpValidationMessage `json:"validationMessages"`
}

type mpValidationMessage struct {
	FieldPath      string `json:"fieldPath"`
	Description    string `json:"description"`
	ValidationCode string `json:"validationCode"`
}

// translateEvent converts a domain event into a Measurement Protocol body,
// rejecting names and parameters the protocol would silently drop.
func translateEvent(ev ports.Event) (*mpRequest, error) {
	if strings.TrimSpace(ev.ClientID()) == "" {
		return nil, domain.NewValidationError("client_id", "is required")
	}

	if err := validateName("name", ev.EventType(), maxEventNameLength); err != nil {
		return nil, err
	}

	payload := ev.Payload()
	if len(payload) > maxParams {
		return nil, domain.NewValidationError("params", fmt.Sprintf("at most %d parameters are allowed", maxParams))
	}

	for k := range payload {
		if err := validateName("params."+k, k, maxParamNameLength); err != nil {
			return nil, err
		}
	}

	return &mpRequest{
		ClientID: ev.ClientID(),
		Events:   []mpEvent{{Name: ev.EventType(), Params: payload}},
	}, nil
}

// validateName enforces the protocol's identifier rule: a letter followed
// by letters, digits, or underscores.
func validateName(field, name string, maxLen int) error {
	if name == "" {
		return domain.NewValidationError(field, "is required")
	}

	if len(name) > maxLen {
		return domain.NewValidationError(field, fmt.Sprintf("must be at most %d characters", maxLen))
	}

	for i, r := range name {
		letter := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		if i == 0 && !letter {
			return domain.NewValidationError(field, "must start with a letter")
		}

		if !letter && r != '_' && (r < '0' || r > '9') {
			return domain.NewValidationErrorWithValue(field, "must contain only letters, digits, and underscores", name)
		}
	}

	return nil
}

// translateValidation converts debug endpoint findings into domain errors.
func translateValidation(resp *mpValidationResponse) error {
	if resp == nil || len(resp.ValidationMessages) == 0 {
		return nil
	}

	errs := make([]error, 0, len(resp.ValidationMessages))
	for _, m := range resp.ValidationMessages {
		msg := m.Description
		if m.ValidationCode != "" {
			msg = fmt.Sprintf("%s (%s)", msg, m.ValidationCode)
		}

		errs = append(errs, domain.NewValidationError(m.FieldPath, msg))
	}

	return errors.Join(errs...)
}
