// Package app contains application services that orchestrate use cases.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/jsamuelsen/dice-roller/internal/domain"
	"github.com/jsamuelsen/dice-roller/internal/ports"
)

// Limits applied when RollServiceConfig leaves them at zero.
const (
	defaultMaxExpressionLength = 256
	defaultMaxBatchSize        = 50
	defaultBatchConcurrency    = 8
)

// RollRequest is a single evaluation request.
type RollRequest struct {
	Expression string
	Consent    domain.ConsentDecision
	// ClientID is the anonymous analytics client; a random one is used when empty.
	ClientID string
}

// BatchRequest evaluates several expressions for the same visitor.
type BatchRequest struct {
	Expressions []string
	Consent     domain.ConsentDecision
	ClientID    string
}

// RollService validates, rolls and records dice expressions.
type RollService struct {
	evaluator ports.DiceEvaluator
	recorder  ports.RollRecorder
	publisher ports.EventPublisher
	executor  *Executor
	logger    *slog.Logger

	maxExpressionLength int
	maxBatchSize        int
	batchConcurrency    int
}

// RollServiceConfig contains the dependencies of RollService.
// Recorder and Publisher are optional.
type RollServiceConfig struct {
	Evaluator ports.DiceEvaluator
	Recorder  ports.RollRecorder
	Publisher ports.EventPublisher
	Logger    *slog.Logger

	MaxExpressionLength int
	MaxBatchSize        int
	BatchConcurrency    int
}

// NewRollService creates a roll service. It panics without an evaluator.
func NewRollService(cfg RollServiceConfig) *RollService {
	if cfg.Evaluator == nil {
		panic("app: RollService requires an Evaluator")
	}

	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &RollService{
		evaluator:           cfg.Evaluator,
		recorder:            cfg.Recorder,
		publisher:           cfg.Publisher,
		executor:            NewExecutor(cfg.Logger),
		logger:              cfg.Logger,
		maxExpressionLength: orDefault(cfg.MaxExpressionLength, defaultMaxExpressionLength),
		maxBatchSize:        orDefault(cfg.MaxBatchSize, defaultMaxBatchSize),
		batchConcurrency:    orDefault(cfg.BatchConcurrency, defaultBatchConcurrency),
	}
}

// Roll evaluates one expression.
//
// The returned error is non-nil only when the request itself is invalid
// (empty or too long). Problems with the dice notation are reported on
// the outcome's Error field.
func (s *RollService) Roll(ctx context.Context, req RollRequest) (domain.RollOutcome, error) {
	req.Expression = strings.TrimSpace(req.Expression)

	op := Operation[RollRequest, domain.RollOutcome, domain.RollOutcome, domain.RollOutcome]{
		Name:     "roll",
		Validate: s.validate,
		Perform: func(ctx context.Context, req RollRequest) (domain.RollOutcome, error) {
			return s.evaluator.EvaluateContext(ctx, req.Expression), nil
		},
		Verify:  verifyOutcome,
		Archive: s.archive,
		Respond: func(_ context.Context, _ RollRequest, out domain.RollOutcome) (domain.RollOutcome, error) {
			return out, nil
		},
	}

	return Execute(ctx, s.executor, op, req)
}

// RollBatch evaluates expressions concurrently and returns outcomes in input order.
// Invalid individual expressions become failed outcomes; only an invalid
// batch or a cancelled context returns an error.
func (s *RollService) RollBatch(ctx context.Context, req BatchRequest) ([]domain.RollOutcome, error) {
	if len(req.Expressions) == 0 {
		return nil, domain.NewValidationError("expressions", "at least one expression is required")
	}

	if len(req.Expressions) > s.maxBatchSize {
		return nil, domain.NewValidationErrorWithValue("expressions",
			fmt.Sprintf("at most %d expressions are allowed", s.maxBatchSize), len(req.Expressions))
	}

	clientID := req.ClientID
	if clientID == "" {
		clientID = uuid.NewString()
	}

	return MapLimit(ctx, s.batchConcurrency, req.Expressions,
		func(ctx context.Context, expr string) (domain.RollOutcome, error) {
			out, err := s.Roll(ctx, RollRequest{Expression: expr, Consent: req.Consent, ClientID: clientID})
			if err == nil {
				return out, nil
			}

			var verr *domain.ValidationError
			if errors.As(err, &verr) {
				return domain.RollOutcome{Input: expr, Breakdown: []string{}, Error: verr.Message, Err: err}, nil
			}

			return domain.RollOutcome{}, err
		})
}

func (s *RollService) validate(_ context.Context, req RollRequest) error {
	if req.Expression == "" {
		return domain.NewValidationError("expression", domain.MsgEmptyExpression)
	}

	if len(req.Expression) > s.maxExpressionLength {
		return domain.NewValidationErrorWithValue("expression",
			fmt.Sprintf("must be at most %d characters", s.maxExpressionLength), len(req.Expression))
	}

	return nil
}

// verifyOutcome rejects outcomes whose rolls or total do not add up.
func verifyOutcome(_ context.Context, _ RollRequest, out domain.RollOutcome) (domain.RollOutcome, error) {
	if !out.OK() {
		return out, nil
	}

	sum := 0
	for _, g := range out.Groups {
		if len(g.Rolls) != g.Group.Count {
			return out, fmt.Errorf("%s: drew %d dice", g.Group, len(g.Rolls))
		}

		sub := 0
		for _, r := range g.Rolls {
			if r < 1 || r > g.Group.Sides {
				return out, fmt.Errorf("%s: roll %d out of range", g.Group, r)
			}
			sub += r
		}

		if sub != g.Subtotal {
			return out, fmt.Errorf("%s: subtotal %d, rolls sum to %d", g.Group, g.Subtotal, sub)
		}
		sum += sub
	}

	for _, m := range out.Modifiers {
		sum += m.Value
	}

	if sum != out.Total {
		return out, fmt.Errorf("total %d, parts sum to %d", out.Total, sum)
	}

	return out, nil
}

// archive records the outcome. Analytics failures are logged and dropped.
func (s *RollService) archive(ctx context.Context, req RollRequest, out domain.RollOutcome) error {
	if s.recorder != nil {
		s.recorder.RecordRoll(out)
	}

	if s.publisher == nil || !req.Consent.AllowsAnalytics() {
		return nil
	}

	clientID := req.ClientID
	if clientID == "" {
		clientID = uuid.NewString()
	}

	if err := s.publisher.Publish(ctx, NewRollEvent(clientID, out)); err != nil {
		s.logger.DebugContext(ctx, "analytics event dropped", slog.Any("error", err))
	}

	return nil
}

func orDefault(v, def int) int {
	if v > 0 {
		return v
	}

	return def
}
