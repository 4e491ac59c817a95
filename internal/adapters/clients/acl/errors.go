package acl

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jsamuelsen/dice-roller/internal/adapters/clients"
	"github.com/jsamuelsen/dice-roller/internal/domain"
)

// MapHTTPError translates a client failure or a non-2xx response into a
// domain error. It returns nil for 2xx responses.
func MapHTTPError(resp *http.Response, clientErr error, service, operation string) error {
	if clientErr != nil {
		return mapClientError(clientErr, service, operation)
	}

	if resp == nil {
		return domain.NewUnavailableError(service, "no response received")
	}

	if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices {
		return nil
	}

	return mapStatusCode(resp.StatusCode, service, operation)
}

func mapClientError(err error, service, operation string) error {
	switch {
	case errors.Is(err, clients.ErrCircuitOpen):
		return domain.NewUnavailableError(service, "circuit breaker open during "+operation)
	case errors.Is(err, clients.ErrMaxRetriesExceeded):
		return domain.NewUnavailableError(service, "max retries exceeded during "+operation)
	default:
		return domain.NewUnavailableError(service, fmt.Sprintf("%s failed: %v", operation, err))
	}
}

func mapStatusCode(status int, service, operation string) error {
	switch {
	case status == http.StatusTooManyRequests:
		return domain.NewUnavailableError(service, "rate limit exceeded")
	case status >= http.StatusInternalServerError:
		return domain.NewUnavailableError(service, fmt.Sprintf("%s failed with status %d", operation, status))
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return domain.NewUnavailableError(service, "credentials rejected")
	default:
		return domain.NewValidationError("", fmt.Sprintf("%s rejected with status %d", operation, status))
	}
}
