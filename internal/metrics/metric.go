package metrics

import (
	"sort"

	"github.com/san-kum/nbodysim/internal/body"
)

// Metric accumulates a scalar over the states of a run.
type Metric interface {
	Name() string
	Observe(t float64, set *body.Set)
	Value() float64
	Reset()
}

// Recorder forwards every tick to its metrics. It satisfies sim.Observer.
type Recorder struct {
	metrics []Metric
}

// NewRecorder resets each metric and primes it with the initial state.
func NewRecorder(initial *body.Set, metrics ...Metric) *Recorder {
	r := &Recorder{metrics: metrics}
	for _, m := range metrics {
		m.Reset()
		m.Observe(0, initial)
	}
	return r
}

func (r *Recorder) OnStep(t float64, set *body.Set) error {
	for _, m := range r.metrics {
		m.Observe(t, set)
	}
	return nil
}

func (r *Recorder) Values() map[string]float64 {
	out := make(map[string]float64, len(r.metrics))
	for _, m := range r.metrics {
		out[m.Name()] = m.Value()
	}
	return out
}

// Names returns metric names in a stable order for reporting.
func (r *Recorder) Names() []string {
	names := make([]string, len(r.metrics))
	for i, m := range r.metrics {
		names[i] = m.Name()
	}
	sort.Strings(names)
	return names
}

// Standard returns the metrics every run reports.
func Standard() []Metric {
	return []Metric{
		NewEnergy(),
		NewEnergyDrift(),
		NewEnergyStats(),
		NewMomentum(),
	}
}
