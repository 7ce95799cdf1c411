package integrators

import (
	"github.com/san-kum/nbodysim/internal/body"
	"github.com/san-kum/nbodysim/internal/gravity"
)

// stage holds one RK4 derivative sample for every body, already scaled by dt.
type stage struct {
	dx []body.Vec
	dv []body.Vec
}

func (s *stage) ensure(n int) {
	if len(s.dx) != n {
		s.dx = make([]body.Vec, n)
		s.dv = make([]body.Vec, n)
	}
}

// RK4 is the classical fourth-order Runge-Kutta method over the whole set.
// Each stage shifts every body to its stage position before any stage
// acceleration is evaluated.
type RK4 struct {
	law            gravity.Law
	k1, k2, k3, k4 stage
	x0, v0         []body.Vec
	scratch        []body.Vec
	acc            []body.Vec
}

func NewRK4(law gravity.Law) *RK4 {
	return &RK4{law: law}
}

func (r *RK4) Kind() Kind { return KindRK4 }

func (r *RK4) Init(set *body.Set) {
	r.x0, r.acc = seedAccelerations(r.law, set, r.x0, r.acc)
}

func (r *RK4) ensureScratch(n int) {
	r.k1.ensure(n)
	r.k2.ensure(n)
	r.k3.ensure(n)
	r.k4.ensure(n)
	if len(r.v0) != n {
		r.x0 = make([]body.Vec, n)
		r.v0 = make([]body.Vec, n)
		r.scratch = make([]body.Vec, n)
		r.acc = make([]body.Vec, n)
	}
}

func (r *RK4) Step(set *body.Set, dt float64) {
	n := set.Len()
	r.ensureScratch(n)

	for i := 0; i < n; i++ {
		b := set.At(i)
		r.x0[i] = b.Position
		r.v0[i] = b.Velocity
	}

	// k1 at the true current state.
	r.evaluate(set, &r.k1, r.x0, nil, 0, dt)
	// k2, k3 at the midpoint shifted by the previous stage, k4 at the full shift.
	r.evaluate(set, &r.k2, r.x0, &r.k1, 0.5, dt)
	r.evaluate(set, &r.k3, r.x0, &r.k2, 0.5, dt)
	r.evaluate(set, &r.k4, r.x0, &r.k3, 1, dt)

	const sixth = 1.0 / 6.0
	for i := 0; i < n; i++ {
		b := set.At(i)
		dx := r.k1.dx[i].Add(r.k2.dx[i].Mul(2)).Add(r.k3.dx[i].Mul(2)).Add(r.k4.dx[i])
		dv := r.k1.dv[i].Add(r.k2.dv[i].Mul(2)).Add(r.k3.dv[i].Mul(2)).Add(r.k4.dv[i])
		b.Position = r.x0[i].Add(dx.Mul(sixth))
		b.Velocity = r.v0[i].Add(dv.Mul(sixth))
		b.Acceleration = r.acc[i]
	}
}

// evaluate fills out with dt*(v, a) sampled at x0 + c*prev.dx, v0 + c*prev.dv.
// prev == nil samples the unshifted state. The whole temp position set is
// built before any acceleration is computed.
func (r *RK4) evaluate(set *body.Set, out *stage, x0 []body.Vec, prev *stage, c, dt float64) {
	n := len(x0)
	pos := x0
	if prev != nil {
		for i := 0; i < n; i++ {
			r.scratch[i] = x0[i].Add(prev.dx[i].Mul(c))
		}
		pos = r.scratch
	}

	for i := 0; i < n; i++ {
		a := r.law.AccelerationAt(i, pos, set)
		v := r.v0[i]
		if prev != nil {
			v = v.Add(prev.dv[i].Mul(c))
		} else {
			r.acc[i] = a
		}
		out.dx[i] = v.Mul(dt)
		out.dv[i] = a.Mul(dt)
	}
}
