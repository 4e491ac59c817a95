// Package ports defines the interfaces the application layer depends on.
// Adapters implement them; tests replace them with mocks from internal/mocks.
package ports

import (
	"context"

	"github.com/jsamuelsen/dice-roller/internal/domain"
)

// DiceEvaluator turns an expression into an outcome. It never fails;
// problems with the expression are reported on the outcome.
type DiceEvaluator interface {
	EvaluateContext(ctx context.Context, input string) domain.RollOutcome
}

// RollRecorder records roll statistics, e.g. as Prometheus metrics.
type RollRecorder interface {
	RecordRoll(outcome domain.RollOutcome)
}

// EventPublisher publishes analytics events.
type EventPublisher interface {
	// Publish sends an event. Returns domain.ErrUnavailable if the
	// destination is unreachable.
	Publish(ctx context.Context, event Event) error
}

// Event is an analytics event.
type Event interface {
	// EventType returns the event name, e.g. "dice_roll".
	EventType() string

	// ClientID identifies the anonymous visitor the event belongs to.
	ClientID() string

	// Payload returns the event parameters.
	Payload() map[string]any
}
