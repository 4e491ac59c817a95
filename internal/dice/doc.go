// Package dice evaluates dice notation such as "2d6+3" or "1d20+2d6-1".
//
// Evaluation has three phases:
//
//   - Scan: a hand-written scanner walks the input once and records every
//     NdS group together with its byte span, then collects signed integer
//     modifiers whose digits do not fall inside a group span.
//   - Validate: groups are checked in source order and the first group that
//     is out of bounds stops evaluation.
//   - Roll: each die is drawn uniformly from [1, sides] using a
//     crypto/rand backed source.
//
// Evaluate never returns an error. Failures are reported on
// domain.RollOutcome.Error so callers always have an outcome to render.
//
//	ev := dice.NewEvaluator()
//	out := ev.Evaluate("2d6+3")
//	fmt.Println(out.Total, out.Breakdown)
package dice
