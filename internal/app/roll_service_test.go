package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/dice-roller/internal/dice"
	"github.com/jsamuelsen/dice-roller/internal/domain"
	"github.com/jsamuelsen/dice-roller/internal/mocks"
	"github.com/jsamuelsen/dice-roller/internal/ports"
)

// discardLogger returns a logger that discards all output.
func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func okOutcome() domain.RollOutcome {
	g := domain.DiceGroup{Count: 2, Sides: 6}

	return domain.RollOutcome{
		Input:     "2d6+1",
		Total:     8,
		Breakdown: []string{"2d6: [3, 4] = 7", "(+1)"},
		Groups:    []domain.GroupRoll{{Group: g, Rolls: []int{3, 4}, Subtotal: 7}},
		Modifiers: []domain.Modifier{{Value: 1}},
	}
}

func TestNewRollService_PanicsWithoutEvaluator(t *testing.T) {
	assert.Panics(t, func() {
		NewRollService(RollServiceConfig{Logger: discardLogger()})
	})
}

func TestNewRollService_Defaults(t *testing.T) {
	svc := NewRollService(RollServiceConfig{Evaluator: mocks.NewMockDiceEvaluator(t)})

	require.NotNil(t, svc)
	assert.Equal(t, defaultMaxExpressionLength, svc.maxExpressionLength)
	assert.Equal(t, defaultMaxBatchSize, svc.maxBatchSize)
	assert.Equal(t, defaultBatchConcurrency, svc.batchConcurrency)
}

func TestRollService_Roll(t *testing.T) {
	tests := []struct {
		name       string
		req        RollRequest
		setup      func(*mocks.MockDiceEvaluator, *mocks.MockRollRecorder, *mocks.MockEventPublisher)
		wantStep   ExecutionStep
		wantErrMsg string
		wantOK     bool
	}{
		{
			name: "success trims input and records",
			req:  RollRequest{Expression: "  2d6+1 ", Consent: domain.ConsentDeclined},
			setup: func(ev *mocks.MockDiceEvaluator, rec *mocks.MockRollRecorder, _ *mocks.MockEventPublisher) {
				ev.EXPECT().EvaluateContext(mock.Anything, "2d6+1").Return(okOutcome())
				rec.EXPECT().RecordRoll(mock.Anything).Return()
			},
			wantOK: true,
		},
		{
			name: "accepted consent publishes event",
			req:  RollRequest{Expression: "2d6+1", Consent: domain.ConsentAccepted, ClientID: "cid-1"},
			setup: func(ev *mocks.MockDiceEvaluator, rec *mocks.MockRollRecorder, pub *mocks.MockEventPublisher) {
				ev.EXPECT().EvaluateContext(mock.Anything, "2d6+1").Return(okOutcome())
				rec.EXPECT().RecordRoll(mock.Anything).Return()
				pub.EXPECT().Publish(mock.Anything, mock.MatchedBy(func(e ports.Event) bool {
					return e.EventType() == EventTypeRoll && e.ClientID() == "cid-1" && e.Payload()["dice"] == 2
				})).Return(nil)
			},
			wantOK: true,
		},
		{
			name: "publish failure does not fail the roll",
			req:  RollRequest{Expression: "2d6+1", Consent: domain.ConsentAccepted},
			setup: func(ev *mocks.MockDiceEvaluator, rec *mocks.MockRollRecorder, pub *mocks.MockEventPublisher) {
				ev.EXPECT().EvaluateContext(mock.Anything, "2d6+1").Return(okOutcome())
				rec.EXPECT().RecordRoll(mock.Anything).Return()
				pub.EXPECT().Publish(mock.Anything, mock.Anything).Return(domain.NewUnavailableError("analytics", "queue full"))
			},
			wantOK: true,
		},
		{
			name: "notation error is an outcome not an error",
			req:  RollRequest{Expression: "hello"},
			setup: func(ev *mocks.MockDiceEvaluator, rec *mocks.MockRollRecorder, _ *mocks.MockEventPublisher) {
				ev.EXPECT().EvaluateContext(mock.Anything, "hello").
					Return(domain.Failed("hello", domain.NewParseError("hello")))
				rec.EXPECT().RecordRoll(mock.Anything).Return()
			},
			wantOK: false,
		},
		{
			name:       "empty expression",
			req:        RollRequest{Expression: "   "},
			wantStep:   StepValidate,
			wantErrMsg: domain.MsgEmptyExpression,
		},
		{
			name:       "expression too long",
			req:        RollRequest{Expression: strings.Repeat("1d6+", 20)},
			wantStep:   StepValidate,
			wantErrMsg: "must be at most 32 characters",
		},
		{
			name: "inconsistent outcome fails verification",
			req:  RollRequest{Expression: "2d6+1"},
			setup: func(ev *mocks.MockDiceEvaluator, _ *mocks.MockRollRecorder, _ *mocks.MockEventPublisher) {
				bad := okOutcome()
				bad.Total = 99
				ev.EXPECT().EvaluateContext(mock.Anything, "2d6+1").Return(bad)
			},
			wantStep:   StepVerify,
			wantErrMsg: "total 99, parts sum to 8",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := mocks.NewMockDiceEvaluator(t)
			rec := mocks.NewMockRollRecorder(t)
			pub := mocks.NewMockEventPublisher(t)
			if tt.setup != nil {
				tt.setup(ev, rec, pub)
			}

			svc := NewRollService(RollServiceConfig{
				Evaluator:           ev,
				Recorder:            rec,
				Publisher:           pub,
				Logger:              discardLogger(),
				MaxExpressionLength: 32,
			})

			out, err := svc.Roll(context.Background(), tt.req)

			if tt.wantErrMsg != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErrMsg)

				step, ok := GetExecutionStep(err)
				require.True(t, ok)
				assert.Equal(t, tt.wantStep, step)

				if tt.wantStep == StepValidate {
					assert.True(t, domain.IsValidation(err))
				}

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantOK, out.OK())
		})
	}
}

func TestRollService_Roll_RealEvaluator(t *testing.T) {
	svc := NewRollService(RollServiceConfig{
		Evaluator: dice.NewEvaluator(),
		Logger:    discardLogger(),
	})

	out, err := svc.Roll(context.Background(), RollRequest{Expression: "1d20+5"})

	require.NoError(t, err)
	require.True(t, out.OK())
	require.Len(t, out.Breakdown, 2)
	assert.Equal(t, "(+5)", out.Breakdown[1])
	assert.GreaterOrEqual(t, out.Total, 6)
	assert.LessOrEqual(t, out.Total, 25)
}

func TestRollService_RollBatch(t *testing.T) {
	svc := NewRollService(RollServiceConfig{
		Evaluator:        dice.NewEvaluator(),
		Logger:           discardLogger(),
		MaxBatchSize:     4,
		BatchConcurrency: 2,
	})

	outs, err := svc.RollBatch(context.Background(), BatchRequest{
		Expressions: []string{"1d6", "hello", "", "2d6+1d4"},
	})

	require.NoError(t, err)
	require.Len(t, outs, 4)

	assert.Equal(t, "1d6", outs[0].Input)
	assert.True(t, outs[0].OK())
	assert.Equal(t, domain.MsgInvalidNotation, outs[1].Error)
	assert.Equal(t, domain.MsgEmptyExpression, outs[2].Error)
	assert.True(t, outs[3].OK())
	assert.Len(t, outs[3].Breakdown, 2)
}

func TestRollService_RollBatch_Limits(t *testing.T) {
	svc := NewRollService(RollServiceConfig{
		Evaluator:    mocks.NewMockDiceEvaluator(t),
		Logger:       discardLogger(),
		MaxBatchSize: 2,
	})

	_, err := svc.RollBatch(context.Background(), BatchRequest{})
	require.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.RollBatch(context.Background(), BatchRequest{Expressions: []string{"1d6", "1d6", "1d6"}})
	require.ErrorIs(t, err, domain.ErrValidation)
	assert.Contains(t, err.Error(), "at most 2 expressions")
}

func TestRollService_RollBatch_SharesClientID(t *testing.T) {
	var seen atomic.Value
	var mismatch atomic.Bool

	pub := mocks.NewMockEventPublisher(t)
	pub.EXPECT().Publish(mock.Anything, mock.Anything).RunAndReturn(func(_ context.Context, e ports.Event) error {
		if prev, loaded := seen.Load().(string); loaded && prev != e.ClientID() {
			mismatch.Store(true)
		}
		seen.Store(e.ClientID())

		return nil
	}).Times(3)

	svc := NewRollService(RollServiceConfig{
		Evaluator: dice.NewEvaluator(),
		Publisher: pub,
		Logger:    discardLogger(),
	})

	_, err := svc.RollBatch(context.Background(), BatchRequest{
		Expressions: []string{"1d6", "1d8", "1d10"},
		Consent:     domain.ConsentAccepted,
	})

	require.NoError(t, err)
	assert.False(t, mismatch.Load())
	assert.NotEmpty(t, seen.Load())
}

func TestRollService_RollBatch_Cancelled(t *testing.T) {
	svc := NewRollService(RollServiceConfig{Evaluator: dice.NewEvaluator(), Logger: discardLogger()})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.RollBatch(ctx, BatchRequest{Expressions: []string{"1d6"}})
	require.ErrorIs(t, err, context.Canceled)
}

func TestVerifyOutcome(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*domain.RollOutcome)
		wantErr string
	}{
		{"consistent", func(*domain.RollOutcome) {}, ""},
		{"roll out of range", func(o *domain.RollOutcome) { o.Groups[0].Rolls[0] = 7 }, "roll 7 out of range"},
		{"wrong dice count", func(o *domain.RollOutcome) { o.Groups[0].Rolls = []int{3} }, "drew 1 dice"},
		{"bad subtotal", func(o *domain.RollOutcome) { o.Groups[0].Subtotal = 1 }, "subtotal 1"},
		{"failed outcome skipped", func(o *domain.RollOutcome) { o.Error = "x"; o.Total = -5 }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := okOutcome()
			tt.mutate(&out)

			_, err := verifyOutcome(context.Background(), RollRequest{}, out)
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestRollEvent(t *testing.T) {
	ev := NewRollEvent("cid", okOutcome())

	assert.Equal(t, EventTypeRoll, ev.EventType())
	assert.Equal(t, "cid", ev.ClientID())
	assert.Equal(t, map[string]any{"groups": 1, "dice": 2, "success": true}, ev.Payload())

	failed := NewRollEvent("cid", domain.Failed("0d6", domain.NewRangeError("0d6", domain.MsgCountRange)))
	assert.Equal(t, "range", failed.Payload()["error_kind"])
	assert.Equal(t, false, failed.Payload()["success"])

	parse := NewRollEvent("cid", domain.Failed("x", domain.NewParseError("x")))
	assert.Equal(t, "parse", parse.Payload()["error_kind"])
}

var errBoom = errors.New("boom")
