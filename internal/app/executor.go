package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/jsamuelsen/dice-roller/internal/platform/logging"
)

// Operations run as Validate → Perform → Verify → Archive → Respond.
//
//  1. VALIDATE  - check inputs before anything is rolled
//  2. PERFORM   - roll the dice
//  3. VERIFY    - confirm the outcome is internally consistent
//  4. ARCHIVE   - record metrics and analytics for the verified outcome
//  5. RESPOND   - shape the result for the caller
//
// Any step may be nil and is then skipped.

// ExecutionStep represents a step of an operation.
type ExecutionStep string

const (
	StepValidate ExecutionStep = "validate"
	StepPerform  ExecutionStep = "perform"
	StepVerify   ExecutionStep = "verify"
	StepArchive  ExecutionStep = "archive"
	StepRespond  ExecutionStep = "respond"
)

// ExecutionError wraps errors with the step where they occurred.
type ExecutionError struct {
	Step    ExecutionStep
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *ExecutionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s failed: %s: %v", e.Step, e.Message, e.Cause)
	}

	return fmt.Sprintf("%s failed: %s", e.Step, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *ExecutionError) Unwrap() error {
	return e.Cause
}

var stepMessages = map[ExecutionStep]string{
	StepValidate: "input validation failed",
	StepPerform:  "operation failed",
	StepVerify:   "verification failed",
	StepArchive:  "recording failed",
	StepRespond:  "response failed",
}

func stepError(step ExecutionStep, cause error) error {
	return &ExecutionError{Step: step, Message: stepMessages[step], Cause: cause}
}

// Executor runs operations step by step with logging and tracing.
type Executor struct {
	logger *slog.Logger
}

// NewExecutor creates a new executor. A nil logger falls back to slog.Default.
func NewExecutor(logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}

	return &Executor{logger: logger}
}

// Operation defines the functions for each step.
type Operation[I, P, V, O any] struct {
	// Name identifies this operation in logs and span events.
	Name string

	Validate func(ctx context.Context, input I) error
	Perform  func(ctx context.Context, input I) (P, error)
	Verify   func(ctx context.Context, input I, performed P) (V, error)
	Archive  func(ctx context.Context, input I, verified V) error
	Respond  func(ctx context.Context, input I, verified V) (O, error)
}

// step runs fn and wraps any failure with the step name.
func step(ctx context.Context, logger *slog.Logger, s ExecutionStep, fn func() error) error {
	logger.Log(ctx, logging.LevelTrace, "step started", slog.String("step", string(s)))
	trace.SpanFromContext(ctx).AddEvent(string(s))

	if err := fn(); err != nil {
		level := slog.LevelError
		if s == StepValidate {
			level = slog.LevelWarn
		}

		logger.Log(ctx, level, "step failed",
			slog.String("step", string(s)),
			slog.Any("error", err),
		)

		return stepError(s, err)
	}

	return nil
}

// Execute runs an operation through all steps, stopping at the first failure.
func Execute[I, P, V, O any](ctx context.Context, exec *Executor, op Operation[I, P, V, O], input I) (O, error) {
	var (
		zero      O
		performed P
		verified  V
		result    O
	)

	logger := exec.logger
	if l, ok := logging.Lookup(ctx); ok {
		logger = l
	}

	logger = logger.With(slog.String("operation", op.Name))
	start := time.Now()

	if op.Validate != nil {
		if err := step(ctx, logger, StepValidate, func() error { return op.Validate(ctx, input) }); err != nil {
			return zero, err
		}
	}

	if op.Perform != nil {
		err := step(ctx, logger, StepPerform, func() (err error) {
			performed, err = op.Perform(ctx, input)
			return err
		})
		if err != nil {
			return zero, err
		}
	}

	if op.Verify != nil {
		err := step(ctx, logger, StepVerify, func() (err error) {
			verified, err = op.Verify(ctx, input, performed)
			return err
		})
		if err != nil {
			return zero, err
		}
	}

	if op.Archive != nil {
		if err := step(ctx, logger, StepArchive, func() error { return op.Archive(ctx, input, verified) }); err != nil {
			return zero, err
		}
	}

	if op.Respond != nil {
		err := step(ctx, logger, StepRespond, func() (err error) {
			result, err = op.Respond(ctx, input, verified)
			return err
		})
		if err != nil {
			return zero, err
		}
	}

	logger.DebugContext(ctx, "operation completed", slog.Duration("duration", time.Since(start)))

	return result, nil
}

// IsExecutionError checks if an error occurred during execution.
func IsExecutionError(err error) bool {
	var execErr *ExecutionError

	return errors.As(err, &execErr)
}

// GetExecutionStep extracts the step from an execution error.
func GetExecutionStep(err error) (ExecutionStep, bool) {
	var execErr *ExecutionError
	if errors.As(err, &execErr) {
		return execErr.Step, true
	}

	return "", false
}
