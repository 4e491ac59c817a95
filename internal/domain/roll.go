package domain

import "fmt"

// Bounds for a single dice group.
const (
	MinDiceCount = 1
	MaxDiceCount = 100
	MinDiceSides = 1
	MaxDiceSides = 1000
)

// Span is a half-open byte range [Start, End) within an expression.
type Span struct {
	Start int
	End   int
}

// Overlaps reports whether s and o share at least one byte.
func (s Span) Overlaps(o Span) bool {
	return s.Start < o.End && o.Start < s.End
}

// DiceGroup is one NdS term: roll Count dice with Sides faces and sum them.
type DiceGroup struct {
	Count int
	Sides int
	Span  Span
}

// String renders the group in NdS notation.
func (g DiceGroup) String() string {
	return fmt.Sprintf("%dd%d", g.Count, g.Sides)
}

// Validate checks the group against the count and sides bounds.
// Count is checked before sides.
func (g DiceGroup) Validate() error {
	if g.Count < MinDiceCount || g.Count > MaxDiceCount {
		return NewRangeError(g.String(), MsgCountRange)
	}

	if g.Sides < MinDiceSides || g.Sides > MaxDiceSides {
		return NewRangeError(g.String(), MsgSidesRange)
	}

	return nil
}

// Modifier is a flat signed value added to the total.
type Modifier struct {
	Value int
	Span  Span
}

// String renders the modifier as it appears in a breakdown.
func (m Modifier) String() string {
	if m.Value > 0 {
		return fmt.Sprintf("(+%d)", m.Value)
	}

	return fmt.Sprintf("(%d)", m.Value)
}

// Expression is a scanned dice expression.
type Expression struct {
	Input     string
	Groups    []DiceGroup
	Modifiers []Modifier
}

// GroupRoll holds the individual draws for one group.
type GroupRoll struct {
	Group    DiceGroup
	Rolls    []int
	Subtotal int
}

// RollOutcome is the result of evaluating one expression.
// Error is empty on success.
type RollOutcome struct {
	Input     string   `json:"input"`
	Total     int      `json:"total"`
	Breakdown []string `json:"breakdown"`
	Error     string   `json:"error,omitempty"`

	// Err is the typed cause behind Error.
	Err error `json:"-"`

	// Groups and Modifiers are retained for metrics and analytics.
	Groups    []GroupRoll `json:"-"`
	Modifiers []Modifier  `json:"-"`
}

// OK reports whether the evaluation succeeded.
func (o RollOutcome) OK() bool {
	return o.Error == ""
}

// DiceCount returns the number of dice drawn.
func (o RollOutcome) DiceCount() int {
	n := 0
	for _, g := range o.Groups {
		n += len(g.Rolls)
	}

	return n
}

// ErrorKind classifies a failed outcome by its cause: "parse", "range",
// "invalid" for other validation errors, or "internal". It is empty on
// success.
func (o RollOutcome) ErrorKind() string {
	switch {
	case o.OK():
		return ""
	case IsParse(o.Err):
		return "parse"
	case IsRange(o.Err):
		return "range"
	case IsValidation(o.Err):
		return "invalid"
	default:
		return "internal"
	}
}

// Failed builds an outcome carrying only an error.
func Failed(input string, err error) RollOutcome {
	return RollOutcome{
		Input:     input,
		Breakdown: []string{},
		Error:     err.Error(),
		Err:       err,
	}
}
