// Package optim searches integrator settings for the cheapest run that
// meets an accuracy target.
package optim

import (
	"context"
	"errors"
	"math"
	"sort"
	"time"

	"github.com/san-kum/nbodysim/internal/body"
	"github.com/san-kum/nbodysim/internal/integrators"
	"github.com/san-kum/nbodysim/internal/metrics"
	"github.com/san-kum/nbodysim/internal/sim"
)

var ErrNoCandidate = errors.New("optim: no setting meets the tolerance")

// Point is one evaluated grid cell. Diverged runs score +Inf and keep their error.
type Point struct {
	Kind    integrators.Kind
	Dt      float64
	Steps   int
	Score   float64
	Elapsed time.Duration
	Err     error
}

type GridSearch struct {
	kinds []integrators.Kind
	dts   []float64
}

func NewGridSearch(kinds []integrators.Kind, dts []float64) *GridSearch {
	return &GridSearch{kinds: kinds, dts: dts}
}

// Search runs set for span days at every integrator and dt, scoring each
// run with a fresh metric from newMetric. Only context errors abort.
func (g *GridSearch) Search(ctx context.Context, set *body.Set, span float64, newMetric func() metrics.Metric) ([]Point, error) {
	points := make([]Point, 0, len(g.kinds)*len(g.dts))
	for _, kind := range g.kinds {
		for _, dt := range g.dts {
			p, err := evaluate(ctx, set, span, kind, dt, newMetric())
			if err != nil {
				return points, err
			}
			points = append(points, p)
		}
	}
	return points, nil
}

func evaluate(ctx context.Context, set *body.Set, span float64, kind integrators.Kind, dt float64, metric metrics.Metric) (Point, error) {
	p := Point{Kind: kind, Dt: dt, Score: math.Inf(1)}

	work := set.Clone()
	s, err := sim.FromConfig(work, sim.Config{Dt: dt, EndTime: span, Integrator: kind})
	if err != nil {
		p.Err = err
		return p, nil
	}
	s.AddObserver(metrics.NewRecorder(work, metric))

	res, err := s.Run(ctx)
	if res != nil {
		p.Steps = res.Steps
		p.Elapsed = res.Elapsed
	}
	if ctx.Err() != nil {
		return p, ctx.Err()
	}
	if err != nil {
		p.Err = err
		return p, nil
	}
	p.Score = metric.Value()
	return p, nil
}

// Cheapest returns the point with the fewest steps whose score is at most
// tol, preferring the lower score on a tie.
func Cheapest(points []Point, tol float64) (Point, error) {
	ok := make([]Point, 0, len(points))
	for _, p := range points {
		if p.Err == nil && p.Score <= tol {
			ok = append(ok, p)
		}
	}
	if len(ok) == 0 {
		return Point{}, ErrNoCandidate
	}
	sort.SliceStable(ok, func(i, j int) bool {
		if ok[i].Steps != ok[j].Steps {
			return ok[i].Steps < ok[j].Steps
		}
		return ok[i].Score < ok[j].Score
	})
	return ok[0], nil
}
