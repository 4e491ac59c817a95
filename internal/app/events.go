package app

import (
	"github.com/jsamuelsen/dice-roller/internal/domain"
)

// EventTypeRoll is the analytics event name for a dice roll.
const EventTypeRoll = "dice_roll"

// RollEvent describes a roll for analytics. It never carries the
// expression text or the individual results.
type RollEvent struct {
	clientID string
	Groups   int
	Dice     int
	Success  bool
	// ErrorKind is set for failed rolls; see domain.RollOutcome.ErrorKind.
	ErrorKind string
}

// NewRollEvent summarizes an outcome as an analytics event.
func NewRollEvent(clientID string, out domain.RollOutcome) *RollEvent {
	return &RollEvent{
		clientID:  clientID,
		Groups:    len(out.Groups),
		Dice:      out.DiceCount(),
		Success:   out.OK(),
		ErrorKind: out.ErrorKind(),
	}
}

// EventType implements ports.Event.
func (e *RollEvent) EventType() string { return EventTypeRoll }

// ClientID implements ports.Event.
func (e *RollEvent) ClientID() string { return e.clientID }

// Payload implements ports.Event.
func (e *RollEvent) Payload() map[string]any {
	p := map[string]any{
		"groups":  e.Groups,
		"dice":    e.Dice,
		"success": e.Success,
	}

	if e.ErrorKind != "" {
		p["error_kind"] = e.ErrorKind
	}

	return p
}
