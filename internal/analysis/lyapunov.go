package analysis

import (
	"context"
	"math"

	"github.com/san-kum/nbodysim/internal/body"
	"github.com/san-kum/nbodysim/internal/integrators"
	"github.com/san-kum/nbodysim/internal/sim"
)

// separation is the phase-space distance between two sets.
func separation(a, b *body.Set) float64 {
	sum := 0.0
	for i := 0; i < a.Len(); i++ {
		dx := b.At(i).Position.Sub(a.At(i).Position)
		dv := b.At(i).Velocity.Sub(a.At(i).Velocity)
		sum += dx.LenSqr() + dv.LenSqr()
	}
	return math.Sqrt(sum)
}

// rescale pulls b back toward a so their separation becomes d0.
func rescale(a, b *body.Set, factor float64) {
	for i := 0; i < a.Len(); i++ {
		ai, bi := a.At(i), b.At(i)
		bi.Position = ai.Position.Add(bi.Position.Sub(ai.Position).Mul(factor))
		bi.Velocity = ai.Velocity.Add(bi.Velocity.Sub(ai.Velocity).Mul(factor))
	}
}

// LyapunovExponent estimates the largest Lyapunov exponent in 1/day using
// the trajectory separation method. The shadow trajectory starts with the
// first body displaced by perturbation AU along x and is renormalised every
// renorm ticks. A positive value indicates chaos.
func LyapunovExponent(ctx context.Context, set *body.Set, kind integrators.Kind, dt, duration, perturbation float64, renorm int) (float64, error) {
	if renorm < 1 {
		renorm = 1
	}
	cfg := sim.Config{Dt: dt, Integrator: kind}
	if err := cfg.Validate(); err != nil {
		return 0, err
	}

	base := set.Clone()
	shadow := set.Clone()
	shadow.At(0).Position[0] += perturbation

	a, err := sim.FromConfig(base, cfg)
	if err != nil {
		return 0, err
	}
	b, err := sim.FromConfig(shadow, cfg)
	if err != nil {
		return 0, err
	}

	d0 := separation(base, shadow)
	if d0 == 0 {
		return 0, nil
	}

	steps := int(math.Round(duration / dt))
	sumLog := 0.0
	for i := 1; i <= steps; i++ {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		if err := a.Step(); err != nil {
			return 0, err
		}
		if err := b.Step(); err != nil {
			return 0, err
		}
		if i%renorm != 0 && i != steps {
			continue
		}
		d := separation(base, shadow)
		if d == 0 {
			continue
		}
		sumLog += math.Log(d / d0)
		rescale(base, shadow, d0/d)
	}

	if steps == 0 {
		return 0, nil
	}
	return sumLog / (float64(steps) * dt), nil
}
