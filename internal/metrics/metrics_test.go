package metrics

import (
	"math"
	"testing"

	"github.com/san-kum/nbodysim/internal/body"
	"github.com/san-kum/nbodysim/internal/gravity"
	"github.com/san-kum/nbodysim/internal/integrators"
	"github.com/san-kum/nbodysim/internal/sim"
)

var _ sim.Observer = (*Recorder)(nil)

func orbit() *body.Set {
	return body.NewSet(
		body.Body{Name: "sun", Mass: 1, Radius: 0.00465},
		body.Body{Name: "earth", Mass: 3.003e-6, Position: body.Vec{1, 0, 0}, Velocity: body.Vec{0, math.Sqrt(gravity.G), 0}},
	)
}

func runWith(t *testing.T, kind integrators.Kind, days float64, metrics ...Metric) *Recorder {
	t.Helper()
	set := orbit()
	rec := NewRecorder(set, metrics...)
	s, err := sim.FromConfig(set, sim.Config{Dt: 1, EndTime: days, Integrator: kind})
	if err != nil {
		t.Fatal(err)
	}
	s.AddObserver(rec)
	if _, err := s.Run(t.Context()); err != nil {
		t.Fatal(err)
	}
	return rec
}

func TestEnergyTracksCurrentValue(t *testing.T) {
	set := orbit()
	m := NewEnergy()
	m.Observe(0, set)

	want := gravity.Default().TotalEnergy(set)
	if m.Value() != want {
		t.Errorf("expected energy %g, got %g", want, m.Value())
	}

	m.Reset()
	if m.Value() != 0 {
		t.Error("expected zero energy after reset")
	}
}

func TestEnergyDriftOrdering(t *testing.T) {
	drift := func(kind integrators.Kind) float64 {
		m := NewEnergyDrift()
		runWith(t, kind, 365, m)
		return m.Value()
	}

	euler, verlet, rk4 := drift(integrators.KindEuler), drift(integrators.KindVerlet), drift(integrators.KindRK4)
	if !(rk4 < verlet && verlet < euler) {
		t.Errorf("expected rk4 < verlet < euler, got %.3e %.3e %.3e", rk4, verlet, euler)
	}
}

func TestEnergyDriftStartsAtZero(t *testing.T) {
	m := NewEnergyDrift()
	NewRecorder(orbit(), m)
	if m.Value() != 0 {
		t.Errorf("drift before any step should be 0, got %g", m.Value())
	}
}

func TestEnergyStats(t *testing.T) {
	m := NewEnergyStats()
	runWith(t, integrators.KindEuler, 100, m)

	if got := len(m.Samples()); got != 101 {
		t.Fatalf("expected 101 samples, got %d", got)
	}
	if m.Value() <= 0 {
		t.Error("euler drift should vary")
	}
	// Euler gains energy, so the mean signed drift is positive.
	if m.Mean() <= 0 {
		t.Errorf("expected positive mean drift, got %g", m.Mean())
	}
	if m.Peak() < m.Mean() {
		t.Errorf("peak %g below mean %g", m.Peak(), m.Mean())
	}

	m.Reset()
	if m.Value() != 0 || len(m.Samples()) != 0 {
		t.Error("reset should clear samples")
	}
}

func TestMomentumConserved(t *testing.T) {
	for _, kind := range integrators.Kinds() {
		t.Run(kind.String(), func(t *testing.T) {
			m := NewMomentum()
			runWith(t, kind, 200, m)
			if m.Value() > 1e-15 {
				t.Errorf("momentum drift %.3e", m.Value())
			}
		})
	}
}

func TestRecorderValues(t *testing.T) {
	rec := runWith(t, integrators.KindVerlet, 10, Standard()...)
	values := rec.Values()
	for _, name := range rec.Names() {
		if _, ok := values[name]; !ok {
			t.Errorf("missing metric %s", name)
		}
	}
	if len(values) != 4 {
		t.Errorf("expected 4 metrics, got %d", len(values))
	}
	if values["energy"] >= 0 {
		t.Errorf("bound orbit energy should be negative, got %g", values["energy"])
	}
}
