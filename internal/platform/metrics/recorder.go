// Package metrics exposes roll statistics as Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/jsamuelsen/dice-roller/internal/domain"
)

const namespace = "dice"

// Recorder implements ports.RollRecorder on Prometheus collectors.
type Recorder struct {
	rolls  *prometheus.CounterVec
	dice   prometheus.Counter
	totals prometheus.Histogram
}

// NewRecorder creates the collectors and registers them with reg.
// Pass prometheus.DefaultRegisterer to expose them on /-/metrics.
func NewRecorder(reg prometheus.Registerer) (*Recorder, error) {
	r := &Recorder{
		rolls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rolls_total",
			Help:      "Evaluated dice expressions by outcome.",
		}, []string{"outcome", "error_kind"}),
		dice: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dice_rolled_total",
			Help:      "Individual dice drawn across all successful rolls.",
		}),
		totals: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "roll_total",
			Help:      "Distribution of successful roll totals.",
			Buckets:   []float64{-10, 0, 1, 5, 10, 20, 50, 100, 500, 1000, 10000},
		}),
	}

	for _, c := range []prometheus.Collector{r.rolls, r.dice, r.totals} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// RecordRoll counts one evaluated expression.
func (r *Recorder) RecordRoll(out domain.RollOutcome) {
	if !out.OK() {
		r.rolls.WithLabelValues("error", out.ErrorKind()).Inc()
		return
	}

	r.rolls.WithLabelValues("ok", "").Inc()
	r.dice.Add(float64(out.DiceCount()))
	r.totals.Observe(float64(out.Total))
}
