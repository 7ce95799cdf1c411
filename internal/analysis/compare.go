package analysis

import (
	"context"
	"math"
	"time"

	"github.com/san-kum/nbodysim/internal/body"
	"github.com/san-kum/nbodysim/internal/integrators"
	"github.com/san-kum/nbodysim/internal/metrics"
	"github.com/san-kum/nbodysim/internal/sim"
)

type Comparison struct {
	Kind          integrators.Kind
	Steps         int
	EnergyDrift   float64 // largest relative drift over the run
	EnergyStdDev  float64
	MomentumDrift float64
	// RefError is the largest position error against an RK4 run at dt/16.
	RefError float64
	// EndError is the summed end-position error, NaN when any body lacks a reference.
	EndError float64
	Elapsed  time.Duration
}

// Compare runs set once per integrator with the same dt and end time. The
// runs are independent and execute concurrently.
func Compare(ctx context.Context, set *body.Set, kinds []integrators.Kind, cfg sim.Config) ([]Comparison, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Infinite() {
		return nil, ErrSpan
	}

	steps := cfg.StepsUntil(0)
	refCfg := cfg
	refCfg.Integrator = integrators.KindRK4
	refCfg.Dt = cfg.Dt / 16
	refCfg.EndTime = float64(steps) * cfg.Dt
	refCfg.Rate = 0

	sims := make([]*sim.Simulator, 0, len(kinds)+1)
	drifts := make([]*metrics.EnergyDrift, len(kinds))
	stats := make([]*metrics.EnergyStats, len(kinds))
	momenta := make([]*metrics.Momentum, len(kinds))

	for i, kind := range kinds {
		c := cfg
		c.Integrator = kind
		work := set.Clone()
		s, err := sim.FromConfig(work, c)
		if err != nil {
			return nil, err
		}
		drifts[i], stats[i], momenta[i] = metrics.NewEnergyDrift(), metrics.NewEnergyStats(), metrics.NewMomentum()
		s.AddObserver(metrics.NewRecorder(work, drifts[i], stats[i], momenta[i]))
		sims = append(sims, s)
	}

	ref, err := sim.FromConfig(set.Clone(), refCfg)
	if err != nil {
		return nil, err
	}
	sims = append(sims, ref)

	results, err := sim.RunAll(ctx, sims)
	if err != nil {
		return nil, err
	}

	out := make([]Comparison, len(kinds))
	for i, kind := range kinds {
		final := sims[i].Set()
		c := Comparison{
			Kind:          kind,
			Steps:         results[i].Steps,
			EnergyDrift:   drifts[i].Value(),
			EnergyStdDev:  stats[i].Value(),
			MomentumDrift: momenta[i].Value(),
			RefError:      maxDistance(final, ref.Set()),
			EndError:      math.NaN(),
			Elapsed:       results[i].Elapsed,
		}
		if report := sim.CheckEndPositions(final); report.Missing == 0 {
			c.EndError = report.Total
		}
		out[i] = c
	}
	return out, nil
}
