package metrics

import (
	"math"

	"github.com/san-kum/nbodysim/internal/body"
	"github.com/san-kum/nbodysim/internal/gravity"
)

// Momentum reports the largest absolute change in total linear momentum.
type Momentum struct {
	name     string
	initial  body.Vec
	maxDrift float64
	samples  int
}

func NewMomentum() *Momentum {
	return &Momentum{name: "momentum_drift"}
}

func (m *Momentum) Name() string { return m.name }

func (m *Momentum) Observe(t float64, set *body.Set) {
	p := gravity.Momentum(set)
	if m.samples == 0 {
		m.initial = p
	}
	m.samples++
	m.maxDrift = math.Max(m.maxDrift, p.Sub(m.initial).Len())
}

func (m *Momentum) Value() float64 { return m.maxDrift }

func (m *Momentum) Reset() {
	m.initial = body.Vec{}
	m.maxDrift = 0
	m.samples = 0
}
