package optim

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/san-kum/nbodysim/internal/body"
	"github.com/san-kum/nbodysim/internal/gravity"
	"github.com/san-kum/nbodysim/internal/integrators"
	"github.com/san-kum/nbodysim/internal/metrics"
	"github.com/san-kum/nbodysim/internal/sim"
)

func sunEarth() *body.Set {
	return body.NewSet(
		body.Body{Name: "sun", Mass: 1, Radius: 0.00465},
		body.Body{Name: "earth", Mass: 3.003e-6, Position: body.Vec{1, 0, 0}, Velocity: body.Vec{0, math.Sqrt(gravity.G), 0}},
	)
}

func drift() metrics.Metric { return metrics.NewEnergyDrift() }

func TestSearchCoversGrid(t *testing.T) {
	g := NewGridSearch(integrators.Kinds(), []float64{1, 2, 5})
	points, err := g.Search(context.Background(), sunEarth(), 100, drift)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(points) != 9 {
		t.Fatalf("got %d points, want 9", len(points))
	}
	for _, p := range points {
		if p.Err != nil {
			t.Errorf("%s dt=%g: %v", p.Kind, p.Dt, p.Err)
		}
		want := int(math.Ceil(100/p.Dt - 1e-9))
		if p.Steps != want {
			t.Errorf("%s dt=%g: %d steps, want %d", p.Kind, p.Dt, p.Steps, want)
		}
	}

	// Euler at dt=1 drifts more than RK4 at dt=5.
	var euler1, rk45 Point
	for _, p := range points {
		if p.Kind == integrators.KindEuler && p.Dt == 1 {
			euler1 = p
		}
		if p.Kind == integrators.KindRK4 && p.Dt == 5 {
			rk45 = p
		}
	}
	if !(rk45.Score < euler1.Score) {
		t.Errorf("rk4 dt=5 drift %.3e not below euler dt=1 drift %.3e", rk45.Score, euler1.Score)
	}
}

func TestSearchRecordsDivergence(t *testing.T) {
	g := NewGridSearch([]integrators.Kind{integrators.KindEuler}, []float64{1e300})
	points, err := g.Search(context.Background(), sunEarth(), 1e301, drift)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if !errors.Is(points[0].Err, sim.ErrDiverged) || !math.IsInf(points[0].Score, 1) {
		t.Errorf("got %+v, want diverged point", points[0])
	}
}

func TestSearchCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	g := NewGridSearch(integrators.Kinds(), []float64{1})
	if _, err := g.Search(ctx, sunEarth(), 10, drift); !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}
}

func TestCheapest(t *testing.T) {
	points := []Point{
		{Kind: integrators.KindEuler, Dt: 1, Steps: 100, Score: 1e-2},
		{Kind: integrators.KindVerlet, Dt: 1, Steps: 100, Score: 1e-6},
		{Kind: integrators.KindRK4, Dt: 1, Steps: 100, Score: 1e-9},
		{Kind: integrators.KindVerlet, Dt: 5, Steps: 20, Score: 1e-4},
		{Kind: integrators.KindRK4, Dt: 5, Steps: 20, Score: 1e-7},
		{Kind: integrators.KindEuler, Dt: 10, Steps: 10, Score: math.Inf(1), Err: sim.ErrDiverged},
	}

	tests := []struct {
		tol  float64
		want integrators.Kind
		dt   float64
	}{
		{1e-3, integrators.KindRK4, 5},
		{1e-8, integrators.KindRK4, 1},
		{1, integrators.KindRK4, 5},
	}
	for _, tt := range tests {
		got, err := Cheapest(points, tt.tol)
		if err != nil {
			t.Fatalf("tol %g: %v", tt.tol, err)
		}
		if got.Kind != tt.want || got.Dt != tt.dt {
			t.Errorf("tol %g: got %s dt=%g, want %s dt=%g", tt.tol, got.Kind, got.Dt, tt.want, tt.dt)
		}
	}

	if _, err := Cheapest(points, 1e-12); !errors.Is(err, ErrNoCandidate) {
		t.Errorf("got %v, want ErrNoCandidate", err)
	}
}
