package gravity

import (
	"github.com/san-kum/nbodysim/internal/body"
)

func KineticEnergy(set *body.Set) float64 {
	ke := 0.0
	for i := 0; i < set.Len(); i++ {
		b := set.At(i)
		ke += 0.5 * b.Mass * b.Velocity.LenSqr()
	}
	return ke
}

// PotentialEnergy sums -G*m_i*m_j/r over pairs. Overlapping pairs are skipped
// to match the force law.
func (l Law) PotentialEnergy(set *body.Set) float64 {
	pe := 0.0
	n := set.Len()
	for i := 0; i < n; i++ {
		bi := set.At(i)
		for j := i + 1; j < n; j++ {
			bj := set.At(j)
			r := bj.Position.Sub(bi.Position).Len()
			if r == 0 || r < bi.Radius+bj.Radius {
				continue
			}
			pe -= l.G * bi.Mass * bj.Mass / r
		}
	}
	return pe
}

func (l Law) TotalEnergy(set *body.Set) float64 {
	return KineticEnergy(set) + l.PotentialEnergy(set)
}

func Momentum(set *body.Set) body.Vec {
	var p body.Vec
	for i := 0; i < set.Len(); i++ {
		b := set.At(i)
		p = p.Add(b.Velocity.Mul(b.Mass))
	}
	return p
}

func AngularMomentum(set *body.Set) body.Vec {
	var L body.Vec
	for i := 0; i < set.Len(); i++ {
		b := set.At(i)
		L = L.Add(b.Position.Cross(b.Velocity).Mul(b.Mass))
	}
	return L
}

// CenterOfMass returns the mass-weighted mean position.
func CenterOfMass(set *body.Set) body.Vec {
	var c body.Vec
	total := 0.0
	for i := 0; i < set.Len(); i++ {
		b := set.At(i)
		c = c.Add(b.Position.Mul(b.Mass))
		total += b.Mass
	}
	if total == 0 {
		return c
	}
	return c.Mul(1 / total)
}
