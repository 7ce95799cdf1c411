package integrators

import (
	"github.com/san-kum/nbodysim/internal/body"
	"github.com/san-kum/nbodysim/internal/gravity"
)

// Verlet is velocity-Verlet. The acceleration carried on each body between
// steps is the one evaluated at the body's current position.
type Verlet struct {
	law    gravity.Law
	pos    []body.Vec
	acc    []body.Vec
	seeded bool
}

func NewVerlet(law gravity.Law) *Verlet {
	return &Verlet{law: law}
}

func (v *Verlet) Kind() Kind { return KindVerlet }

func (v *Verlet) Init(set *body.Set) {
	v.pos, v.acc = seedAccelerations(v.law, set, v.pos, v.acc)
	v.seeded = true
}

func (v *Verlet) Step(set *body.Set, dt float64) {
	if !v.seeded || len(v.acc) != set.Len() {
		v.Init(set)
	}
	halfDt2 := 0.5 * dt * dt

	for i := 0; i < set.Len(); i++ {
		b := set.At(i)
		b.Position = b.Position.Add(b.Velocity.Mul(dt)).Add(b.Acceleration.Mul(halfDt2))
	}

	v.pos = set.CopyPositions(v.pos)
	v.acc = v.law.Accelerations(v.pos, set, v.acc)

	halfDt := 0.5 * dt
	for i := range v.acc {
		b := set.At(i)
		b.Velocity = b.Velocity.Add(b.Acceleration.Add(v.acc[i]).Mul(halfDt))
		b.Acceleration = v.acc[i]
	}
}
