package dto

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/dice-roller/internal/domain"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newContext(method, body, contentType string) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, "/", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", contentType)

	return c, w
}

func TestHTTPStatusFromCode(t *testing.T) {
	tests := []struct {
		code string
		want int
	}{
		{ErrorCodeNotFound, http.StatusNotFound},
		{ErrorCodeMethodNotAllowed, http.StatusMethodNotAllowed},
		{ErrorCodeValidation, http.StatusBadRequest},
		{ErrorCodeBadRequest, http.StatusBadRequest},
		{ErrorCodeUnavailable, http.StatusServiceUnavailable},
		{ErrorCodeTimeout, http.StatusGatewayTimeout},
		{ErrorCodeRateLimited, http.StatusTooManyRequests},
		{ErrorCodeInternal, http.StatusInternalServerError},
		{"UNKNOWN", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatusFromCode(tt.code))
		})
	}
}

func TestErrorResponse_JSON(t *testing.T) {
	resp := NewErrorResponseWithDetails(ErrorCodeValidation, "bad", map[string]string{"expression": "too long"}).
		WithTraceID("abc")

	b, err := json.Marshal(resp)
	require.NoError(t, err)

	assert.JSONEq(t,
		`{"error":{"code":"VALIDATION_ERROR","message":"bad","details":{"expression":"too long"}},"traceId":"abc"}`,
		string(b))
}

func TestMapDomainError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{
			name:       "empty expression",
			err:        domain.NewValidationError("expression", domain.MsgEmptyExpression),
			wantStatus: http.StatusBadRequest,
			wantCode:   ErrorCodeValidation,
			wantMsg:    "Please enter dice notation",
		},
		{
			name:       "validation without field",
			err:        domain.NewValidationError("", "rejected"),
			wantStatus: http.StatusBadRequest,
			wantCode:   ErrorCodeValidation,
			wantMsg:    "validation failed: rejected",
		},
		{
			name:       "unavailable",
			err:        fmt.Errorf("publish: %w", domain.NewUnavailableError("analytics", "down")),
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   ErrorCodeUnavailable,
		},
		{
			name:       "deadline",
			err:        fmt.Errorf("roll: %w", context.DeadlineExceeded),
			wantStatus: http.StatusGatewayTimeout,
			wantCode:   ErrorCodeTimeout,
			wantMsg:    "request timed out",
		},
		{
			name:       "unknown",
			err:        errors.New("secret internals"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   ErrorCodeInternal,
			wantMsg:    "an internal error occurred",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, resp := MapDomainError(tt.err)

			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, resp.Error.Message)
			}
		})
	}

	status, resp := MapDomainError(nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Nil(t, resp)
}

func TestMapDomainError_FieldDetails(t *testing.T) {
	_, resp := MapDomainError(domain.NewValidationError("expressions", "at most 50 expressions are allowed"))

	assert.Equal(t, map[string]string{"expressions": "at most 50 expressions are allowed"}, resp.Error.Details)
}

func TestHandleError(t *testing.T) {
	c, w := newContext(http.MethodGet, "", "")

	HandleError(c, errors.New("boom"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "boom")
	assert.NotContains(t, w.Body.String(), "traceId")
}

func TestNewRollResponse(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		resp := NewRollResponse(domain.RollOutcome{Input: "1d6+1", Total: 5, Breakdown: []string{"1d6: [4] = 4", "(+1)"}})

		b, err := json.Marshal(resp)
		require.NoError(t, err)
		assert.JSONEq(t, `{"input":"1d6+1","total":5,"breakdown":["1d6: [4] = 4","(+1)"]}`, string(b))
	})

	t.Run("zero total is kept", func(t *testing.T) {
		resp := NewRollResponse(domain.RollOutcome{Input: "x", Total: 0, Breakdown: nil})

		require.NotNil(t, resp.Total)
		assert.Equal(t, 0, *resp.Total)
		assert.Equal(t, []string{}, resp.Breakdown)
	})

	t.Run("failure", func(t *testing.T) {
		resp := NewRollResponse(domain.Failed("abc", errors.New(domain.MsgInvalidNotation)))

		b, err := json.Marshal(resp)
		require.NoError(t, err)
		assert.JSONEq(t, `{"input":"abc","breakdown":[],"error":"`+domain.MsgInvalidNotation+`"}`, string(b))
	})
}

func TestNewBatchResponse(t *testing.T) {
	resp := NewBatchResponse([]domain.RollOutcome{
		{Input: "1d1", Total: 1, Breakdown: []string{"1d1: [1] = 1"}},
		domain.Failed("0d6", errors.New(domain.MsgCountRange)),
	})

	require.Len(t, resp.Results, 2)
	assert.Equal(t, "1d1", resp.Results[0].Input)
	assert.Equal(t, domain.MsgCountRange, resp.Results[1].Error)
	assert.Nil(t, resp.Results[1].Total)
}

func TestNewConsentResponse(t *testing.T) {
	assert.Equal(t, ConsentResponse{Decision: domain.ConsentAccepted, AnalyticsAllowed: true},
		NewConsentResponse(domain.ConsentAccepted))
	assert.Equal(t, ConsentResponse{Decision: domain.ConsentUnset},
		NewConsentResponse(domain.ConsentUnset))
}

func TestBindAndValidate(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		target      any
		wantErr     error
		wantDetails map[string]string
	}{
		// Blank expressions are rejected by the roll service with its own message.
		{name: "roll blank", body: `{"expression":"   "}`, target: &RollRequest{}},
		{name: "batch ok", body: `{"expressions":["1d6"]}`, target: &BatchRequest{}},
		{
			name:        "batch empty",
			body:        `{"expressions":[]}`,
			target:      &BatchRequest{},
			wantErr:     ErrValidation,
			wantDetails: map[string]string{"expressions": "must contain at least 1 items"},
		},
		{
			name:        "batch missing",
			body:        `{}`,
			target:      &BatchRequest{},
			wantErr:     ErrValidation,
			wantDetails: map[string]string{"expressions": "this field is required"},
		},
		{name: "consent ok", body: `{"decision":"accepted"}`, target: &ConsentRequest{}},
		{
			name:        "consent unknown",
			body:        `{"decision":"maybe"}`,
			target:      &ConsentRequest{},
			wantErr:     ErrValidation,
			wantDetails: map[string]string{"decision": "must be accepted or declined"},
		},
		{name: "malformed", body: `{"expressions":`, target: &BatchRequest{}, wantErr: ErrBinding},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newContext(http.MethodPost, tt.body, "application/json")

			err := BindAndValidate(c, tt.target)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}

			require.ErrorIs(t, err, tt.wantErr)
			if tt.wantDetails != nil {
				assert.Equal(t, tt.wantDetails, ValidationErrors(err))
			}
		})
	}
}

func TestBindFormAndValidate(t *testing.T) {
	c, _ := newContext(http.MethodPost, "dice=2d6%2B1", "application/x-www-form-urlencoded")

	var req RollRequest
	require.NoError(t, BindFormAndValidate(c, &req))
	assert.Equal(t, "2d6+1", req.Expression)

	c, _ = newContext(http.MethodPost, "decision=DECLINED", "application/x-www-form-urlencoded")

	var consent ConsentRequest
	require.NoError(t, BindFormAndValidate(c, &consent))
	assert.Equal(t, "DECLINED", consent.Decision)
}

func TestHandleBindError(t *testing.T) {
	t.Run("validation", func(t *testing.T) {
		c, w := newContext(http.MethodPost, `{"decision":""}`, "application/json")

		var req ConsentRequest
		HandleBindError(c, BindAndValidate(c, &req))

		assert.Equal(t, http.StatusBadRequest, w.Code)

		var resp ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, ErrorCodeValidation, resp.Error.Code)
		assert.Equal(t, "this field is required", resp.Error.Details["decision"])
	})

	t.Run("malformed", func(t *testing.T) {
		c, w := newContext(http.MethodPost, `nope`, "application/json")

		var req ConsentRequest
		HandleBindError(c, BindAndValidate(c, &req))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), ErrorCodeBadRequest)
	})
}

func TestAbortWithErrorCode(t *testing.T) {
	c, w := newContext(http.MethodGet, "", "")

	AbortWithErrorCode(c, ErrorCodeNotFound, "route not found")

	assert.True(t, c.IsAborted())
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "route not found")
}

func TestValidationMessage_MinMax(t *testing.T) {
	type sample struct {
		Name  string   `json:"name"  validate:"max=3"`
		Count int      `json:"count" validate:"min=2"`
		Items []string `json:"items" validate:"max=1"`
	}

	err := Validate(sample{Name: "toolong", Count: 1, Items: []string{"a", "b"}})
	require.Error(t, err)

	assert.Equal(t, map[string]string{
		"name":  "must be at most 3 characters",
		"count": "must be at least 2",
		"items": "must contain at most 1 items",
	}, ValidationErrors(err))
}
