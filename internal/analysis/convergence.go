package analysis

import (
	"context"
	"errors"
	"math"

	"github.com/san-kum/nbodysim/internal/body"
	"github.com/san-kum/nbodysim/internal/integrators"
	"github.com/san-kum/nbodysim/internal/sim"
)

// ReferenceRefinement is how much finer the RK4 reference step is than dt.
const ReferenceRefinement = 64

var ErrSpan = errors.New("analysis: span must be a positive multiple of dt")

type ConvergenceResult struct {
	Kind      integrators.Kind
	Dt        float64
	Span      float64
	ErrCoarse float64 // at dt
	ErrFine   float64 // at dt/2
	Ratio     float64
	Order     float64
}

// propagate runs a copy of set for steps ticks of span/steps days.
func propagate(ctx context.Context, set *body.Set, kind integrators.Kind, span float64, steps int) (*body.Set, error) {
	work := set.Clone()
	s, err := sim.FromConfig(work, sim.Config{Dt: span / float64(steps), EndTime: span, Integrator: kind})
	if err != nil {
		return nil, err
	}
	if _, err := s.Run(ctx); err != nil {
		return nil, err
	}
	return work, nil
}

// maxDistance is the largest position difference between matching bodies.
func maxDistance(a, b *body.Set) float64 {
	d := 0.0
	for i := 0; i < a.Len(); i++ {
		d = math.Max(d, a.At(i).Position.Sub(b.At(i).Position).Len())
	}
	return d
}

// Convergence measures the global position error of kind after span days
// at dt and dt/2 against an RK4 reference run at dt/ReferenceRefinement.
func Convergence(ctx context.Context, set *body.Set, kind integrators.Kind, dt, span float64) (*ConvergenceResult, error) {
	if !(dt > 0) || !(span > 0) {
		return nil, ErrSpan
	}
	steps := int(math.Round(span / dt))
	if steps < 1 {
		return nil, ErrSpan
	}

	ref, err := propagate(ctx, set, integrators.KindRK4, span, steps*ReferenceRefinement)
	if err != nil {
		return nil, err
	}
	coarse, err := propagate(ctx, set, kind, span, steps)
	if err != nil {
		return nil, err
	}
	fine, err := propagate(ctx, set, kind, span, steps*2)
	if err != nil {
		return nil, err
	}

	res := &ConvergenceResult{
		Kind:      kind,
		Dt:        span / float64(steps),
		Span:      span,
		ErrCoarse: maxDistance(coarse, ref),
		ErrFine:   maxDistance(fine, ref),
	}
	if res.ErrFine > 0 {
		res.Ratio = res.ErrCoarse / res.ErrFine
		res.Order = math.Log2(res.Ratio)
	}
	return res, nil
}
