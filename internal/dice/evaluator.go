package dice

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jsamuelsen/dice-roller/internal/domain"
	"github.com/jsamuelsen/dice-roller/internal/platform/logging"
)

const tracerName = "github.com/jsamuelsen/dice-roller/internal/dice"

// Evaluator turns dice expressions into roll outcomes.
// It holds no per-call state and is safe for concurrent use as long as its
// Source is.
type Evaluator struct {
	src       Source
	maxGroups int
	tracer    trace.Tracer
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithSource replaces the crypto/rand source, typically with a seeded one in tests.
func WithSource(src Source) Option {
	return func(e *Evaluator) {
		if src != nil {
			e.src = src
		}
	}
}

// WithMaxGroups caps the number of dice groups per expression. Zero means no cap.
func WithMaxGroups(n int) Option {
	return func(e *Evaluator) {
		e.maxGroups = n
	}
}

// NewEvaluator creates an evaluator backed by crypto/rand unless overridden.
func NewEvaluator(opts ...Option) *Evaluator {
	e := &Evaluator{
		src:    NewCryptoSource(),
		tracer: otel.Tracer(tracerName),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Evaluate rolls input and always returns an outcome.
func (e *Evaluator) Evaluate(input string) domain.RollOutcome {
	return e.EvaluateContext(context.Background(), input)
}

// EvaluateContext is Evaluate with tracing and logging tied to ctx.
func (e *Evaluator) EvaluateContext(ctx context.Context, input string) (out domain.RollOutcome) {
	ctx, span := e.tracer.Start(ctx, "dice.Evaluate",
		trace.WithAttributes(attribute.String("dice.expression", input)),
	)
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			out = domain.Failed(input, fmt.Errorf("evaluate %q: %v", input, r))
			span.SetStatus(codes.Error, "panic")
			logging.FromContext(ctx).ErrorContext(ctx, "dice evaluation panicked",
				slog.String("expression", input),
				slog.Any("panic", r),
			)
		}
	}()

	out, err := e.evaluate(input)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logging.FromContext(ctx).DebugContext(ctx, "dice expression rejected",
			slog.String("expression", input),
			slog.String("error", err.Error()),
		)

		return domain.Failed(input, err)
	}

	span.SetAttributes(
		attribute.Int("dice.groups", len(out.Groups)),
		attribute.Int("dice.count", out.DiceCount()),
		attribute.Int("dice.total", out.Total),
	)
	logging.FromContext(ctx).Log(ctx, logging.LevelTrace, "dice rolled",
		slog.String("expression", input),
		slog.Int("total", out.Total),
		slog.Any("breakdown", out.Breakdown),
	)

	return out
}

func (e *Evaluator) evaluate(input string) (domain.RollOutcome, error) {
	expr, modErr := Scan(input)
	if len(expr.Groups) == 0 {
		return domain.RollOutcome{}, domain.NewParseError(input)
	}

	if e.maxGroups > 0 && len(expr.Groups) > e.maxGroups {
		return domain.RollOutcome{}, domain.NewRangeError(input,
			fmt.Sprintf("Too many dice groups, at most %d allowed", e.maxGroups))
	}

	for _, g := range expr.Groups {
		if verr := g.Validate(); verr != nil {
			return domain.RollOutcome{}, verr
		}
	}

	// Modifier errors surface only once every group is known to be valid.
	if modErr != nil {
		return domain.RollOutcome{}, modErr
	}

	return e.roll(expr), nil
}

func (e *Evaluator) roll(expr domain.Expression) domain.RollOutcome {
	out := domain.RollOutcome{
		Input:     expr.Input,
		Breakdown: make([]string, 0, len(expr.Groups)+len(expr.Modifiers)),
		Groups:    make([]domain.GroupRoll, 0, len(expr.Groups)),
		Modifiers: expr.Modifiers,
	}

	for _, g := range expr.Groups {
		gr := domain.GroupRoll{Group: g, Rolls: make([]int, g.Count)}
		for i := range gr.Rolls {
			gr.Rolls[i] = rollDie(e.src, g.Sides)
			gr.Subtotal += gr.Rolls[i]
		}

		out.Groups = append(out.Groups, gr)
		out.Breakdown = append(out.Breakdown, FormatGroup(gr))
		out.Total += gr.Subtotal
	}

	for _, m := range expr.Modifiers {
		out.Breakdown = append(out.Breakdown, m.String())
		out.Total += m.Value
	}

	return out
}
