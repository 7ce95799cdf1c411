package integrators

import (
	"math"
	"testing"

	"github.com/san-kum/nbodysim/internal/gravity"
)

func TestRK4Accuracy(t *testing.T) {
	set, period := circularOrbit(1, 1)
	integ := NewRK4(gravity.Default())
	integ.Init(set)

	dt := 1.0
	steps := 100
	for i := 0; i < steps; i++ {
		integ.Step(set, dt)
	}

	omega := 2 * math.Pi / period
	phase := omega * float64(steps) * dt
	expectedX := math.Cos(phase)
	expectedY := math.Sin(phase)

	p := set.At(1).Position
	if math.Abs(p[0]-expectedX) > 1e-8 {
		t.Errorf("x error too large: got %.10f, expected %.10f", p[0], expectedX)
	}
	if math.Abs(p[1]-expectedY) > 1e-8 {
		t.Errorf("y error too large: got %.10f, expected %.10f", p[1], expectedY)
	}

	v := set.At(1).Velocity
	speed := math.Sqrt(gravity.G)
	if math.Abs(v[0]+speed*expectedY) > 1e-9 || math.Abs(v[1]-speed*expectedX) > 1e-9 {
		t.Errorf("velocity off circle: got %v", v)
	}
}

func TestRK4StoresStartOfStepAcceleration(t *testing.T) {
	law := gravity.Default()
	set := threeBody()
	want := law.Acceleration(1, set)

	integ := NewRK4(law)
	integ.Step(set, 1)

	if got := set.At(1).Acceleration; got != want {
		t.Errorf("acceleration = %v, want %v", got, want)
	}
}
