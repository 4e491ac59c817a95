// Package domain contains dice-rolling types and errors.
// Domain errors represent business-level failures, NOT HTTP errors.
// They are infrastructure-agnostic and can be mapped to HTTP/CLI output by adapters.
package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for use with errors.Is().
var (
	// ErrValidation indicates business rule validation failed.
	ErrValidation = errors.New("validation failed")

	// ErrUnavailable indicates a required dependency is unavailable.
	ErrUnavailable = errors.New("unavailable")

	// ErrParse indicates an expression contains no recognizable dice group.
	ErrParse = errors.New("parse error")

	// ErrRange indicates a dice group's count or sides is out of bounds.
	ErrRange = errors.New("range error")
)

// Messages reported on RollOutcome.Error.
const (
	MsgInvalidNotation = "Invalid dice notation. Use format like '1d6', '2d8+3', or '1d20+2d6'"
	MsgCountRange      = "Dice count must be between 1 and 100"
	MsgSidesRange      = "Dice sides must be between 1 and 1000"
	MsgModifierRange   = "Modifier is too large"
	MsgEmptyExpression = "Please enter dice notation"
)

// ValidationError provides context for validation errors.
type ValidationError struct {
	Field   string
	Message string
	Value   any
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
	}

	return "validation failed: " + e.Message
}

// Unwrap returns the sentinel error for errors.Is() support.
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// NewValidationError creates a validation error with context.
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// NewValidationErrorWithValue creates a validation error including the invalid value.
func NewValidationErrorWithValue(field, message string, value any) error {
	return &ValidationError{Field: field, Message: message, Value: value}
}

// ParseError is returned when an expression holds no dice group.
type ParseError struct {
	Input string
}

// Error implements the error interface. The message is user-facing.
func (e *ParseError) Error() string {
	return MsgInvalidNotation
}

// Unwrap lets errors.Is match both ErrParse and ErrValidation.
func (e *ParseError) Unwrap() []error {
	return []error{ErrParse, ErrValidation}
}

// NewParseError creates a parse error for the given input.
func NewParseError(input string) error {
	return &ParseError{Input: input}
}

// RangeError is returned for the first dice group or modifier that is out of bounds.
type RangeError struct {
	// Term is the offending source text, e.g. "0d6".
	Term    string
	Message string
}

// Error implements the error interface. The message is user-facing.
func (e *RangeError) Error() string {
	return e.Message
}

// Unwrap lets errors.Is match both ErrRange and ErrValidation.
func (e *RangeError) Unwrap() []error {
	return []error{ErrRange, ErrValidation}
}

// NewRangeError creates a range error for a term.
func NewRangeError(term, message string) error {
	return &RangeError{Term: term, Message: message}
}

// UnavailableError provides context for unavailable errors.
type UnavailableError struct {
	Service string
	Reason  string
}

// Error implements the error interface.
func (e *UnavailableError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("service %q unavailable: %s", e.Service, e.Reason)
	}

	return fmt.Sprintf("service %q unavailable", e.Service)
}

// Unwrap returns the sentinel error for errors.Is() support.
func (e *UnavailableError) Unwrap() error {
	return ErrUnavailable
}

// NewUnavailableError creates an unavailable error with context.
func NewUnavailableError(service, reason string) error {
	return &UnavailableError{Service: service, Reason: reason}
}

// IsValidation checks if an error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsUnavailable checks if an error is an unavailable error.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}

// IsParse checks if an error is a parse error.
func IsParse(err error) bool {
	return errors.Is(err, ErrParse)
}

// IsRange checks if an error is a range error.
func IsRange(err error) bool {
	return errors.Is(err, ErrRange)
}
