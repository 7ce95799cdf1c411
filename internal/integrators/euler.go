package integrators

import (
	"github.com/san-kum/nbodysim/internal/body"
	"github.com/san-kum/nbodysim/internal/gravity"
)

// Euler is the explicit first-order method. Velocities are updated from one
// position snapshot, then positions advance with the new velocities.
type Euler struct {
	law gravity.Law
	pos []body.Vec
	acc []body.Vec
}

func NewEuler(law gravity.Law) *Euler {
	return &Euler{law: law}
}

func (e *Euler) Kind() Kind { return KindEuler }

func (e *Euler) Init(set *body.Set) {
	e.pos, e.acc = seedAccelerations(e.law, set, e.pos, e.acc)
}

func (e *Euler) Step(set *body.Set, dt float64) {
	e.pos = set.CopyPositions(e.pos)
	e.acc = e.law.Accelerations(e.pos, set, e.acc)

	for i := range e.acc {
		b := set.At(i)
		b.Acceleration = e.acc[i]
		b.Velocity = b.Velocity.Add(e.acc[i].Mul(dt))
	}

	for i := 0; i < set.Len(); i++ {
		b := set.At(i)
		b.Position = b.Position.Add(b.Velocity.Mul(dt))
	}
}
