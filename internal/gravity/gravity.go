// Package gravity implements the Newtonian force law between bodies.
//
// Units are solar masses, astronomical units and days. Accelerations are
// computed directly (a = G*m_other/r²), never via force/mass, so every
// integrator sees the same convention.
//
// Two bodies closer than the sum of their radii contribute nothing to each
// other. This also excludes a body from acting on itself.
package gravity

import (
	"github.com/san-kum/nbodysim/internal/body"
)

// G in AU³/(M☉·day²). Kept as in the original solar system runs; it is about
// 400,000x larger than the literal conversion and must not be re-derived.
const G = 2.9592e-04

type Law struct {
	G float64
}

func Default() Law {
	return Law{G: G}
}

// AccelerationAt returns the net acceleration on body i when all bodies sit at
// positions. positions must be indexed like set.
func (l Law) AccelerationAt(i int, positions []body.Vec, set *body.Set) body.Vec {
	var sum body.Vec
	pi := positions[i]
	ri := set.At(i).Radius

	for j := range positions {
		if j == i {
			continue
		}
		other := set.At(j)
		d := positions[j].Sub(pi)
		r := d.Len()
		if r == 0 || r < ri+other.Radius {
			continue
		}
		sum = sum.Add(d.Mul(l.G * other.Mass / (r * r * r)))
	}
	return sum
}

// Acceleration evaluates AccelerationAt against the set's current positions.
func (l Law) Acceleration(i int, set *body.Set) body.Vec {
	return l.AccelerationAt(i, set.Positions(), set)
}

// Accelerations evaluates every body against one position snapshot and writes
// the result into dst.
func (l Law) Accelerations(positions []body.Vec, set *body.Set, dst []body.Vec) []body.Vec {
	if len(dst) != len(positions) {
		dst = make([]body.Vec, len(positions))
	}
	for i := range positions {
		dst[i] = l.AccelerationAt(i, positions, set)
	}
	return dst
}

// Force is the force on body i in M☉·AU/day².
func (l Law) Force(i int, set *body.Set) body.Vec {
	return l.Acceleration(i, set).Mul(set.At(i).Mass)
}
