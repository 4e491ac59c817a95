package dto

import "github.com/jsamuelsen/dice-roller/internal/domain"

// RollRequest is the body of POST /api/v1/rolls and the form of POST /roll.
type RollRequest struct {
	Expression string `json:"expression" form:"dice"`
}

// RollResponse is a single evaluation result. Total is omitted when the
// expression failed; Breakdown is always present.
type RollResponse struct {
	Input     string   `json:"input"`
	Total     *int     `json:"total,omitempty"`
	Breakdown []string `json:"breakdown"`
	Error     string   `json:"error,omitempty"`
}

// NewRollResponse converts an outcome for the wire.
func NewRollResponse(out domain.RollOutcome) RollResponse {
	resp := RollResponse{
		Input:     out.Input,
		Breakdown: out.Breakdown,
		Error:     out.Error,
	}

	if resp.Breakdown == nil {
		resp.Breakdown = []string{}
	}

	if out.OK() {
		total := out.Total
		resp.Total = &total
	}

	return resp
}

// BatchRequest is the body of POST /api/v1/rolls/batch.
type BatchRequest struct {
	Expressions []string `json:"expressions" validate:"required,min=1"`
}

// BatchResponse holds results in request order.
type BatchResponse struct {
	Results []RollResponse `json:"results"`
}

// NewBatchResponse converts outcomes for the wire.
func NewBatchResponse(outs []domain.RollOutcome) BatchResponse {
	results := make([]RollResponse, len(outs))
	for i, out := range outs {
		results[i] = NewRollResponse(out)
	}

	return BatchResponse{Results: results}
}
