// Package acl is the anti-corruption layer between the service and the
// Google Analytics 4 Measurement Protocol.
//
// Domain events ([ports.Event]) are translated into Measurement Protocol
// payloads here, and every transport or HTTP failure is translated back into
// a domain error before it leaves the package:
//
//   - 400/422 and debug validation messages → [domain.ErrValidation]
//   - 429, 5xx, network errors              → [domain.ErrUnavailable]
//   - [clients.ErrCircuitOpen] and [clients.ErrMaxRetriesExceeded] → [domain.ErrUnavailable]
//
// Measurement Protocol wire types never leave this package.
package acl
