package sim_test

import (
	"context"
	"errors"
	"math"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/nbodysim/internal/body"
	"github.com/san-kum/nbodysim/internal/gravity"
	"github.com/san-kum/nbodysim/internal/integrators"
	"github.com/san-kum/nbodysim/internal/sim"
)

func sunEarth() *body.Set {
	v := math.Sqrt(gravity.G)
	return body.NewSet(
		body.Body{Name: "sun", Mass: 1, Radius: 0.00465},
		body.Body{Name: "earth", Mass: 3.003e-6, Radius: 4.26e-5, Position: body.Vec{1, 0, 0}, Velocity: body.Vec{0, v, 0}},
	)
}

func newSim(kind integrators.Kind, cfg sim.Config) *sim.Simulator {
	cfg.Integrator = kind
	s, err := sim.FromConfig(sunEarth(), cfg)
	Expect(err).NotTo(HaveOccurred())
	return s
}

var _ = Describe("Simulator", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	Describe("finite runs", func() {
		It("stops once time reaches the end time", func() {
			s := newSim(integrators.KindVerlet, sim.Config{Dt: 0.1, EndTime: 1})
			result, err := s.Run(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Steps).To(Equal(10))
			Expect(result.Time).To(BeNumerically("~", 1.0, 1e-12))
		})

		It("does not lose a tick to float rounding", func() {
			s := newSim(integrators.KindEuler, sim.Config{Dt: 0.1, EndTime: 0.3})
			result, err := s.Run(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Steps).To(Equal(3))
		})

		It("overshoots by less than one step when dt does not divide the end time", func() {
			s := newSim(integrators.KindEuler, sim.Config{Dt: 0.3, EndTime: 1})
			result, err := s.Run(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Steps).To(Equal(4))
			Expect(result.Time).To(BeNumerically(">=", 1.0))
			Expect(result.Time).To(BeNumerically("<", 1.3))
		})

		It("resumes from a moved clock", func() {
			s := newSim(integrators.KindRK4, sim.Config{Dt: 1, EndTime: 10})
			s.SetTime(6)
			result, err := s.Run(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Steps).To(Equal(4))
		})

		It("reports energy drift", func() {
			s := newSim(integrators.KindVerlet, sim.Config{Dt: 1, EndTime: 365})
			result, err := s.Run(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.InitialEnergy).To(BeNumerically("<", 0))
			Expect(result.EnergyDrift).To(BeNumerically("<", 1e-3))
		})
	})

	Describe("observers", func() {
		It("are notified after every tick in registration order", func() {
			s := newSim(integrators.KindEuler, sim.Config{Dt: 0.5, EndTime: 5})
			var calls []string
			var times []float64
			s.AddObserver(sim.ObserverFunc(func(t float64, set *body.Set) error {
				calls = append(calls, "first")
				times = append(times, t)
				return nil
			}))
			s.AddObserver(sim.ObserverFunc(func(t float64, set *body.Set) error {
				calls = append(calls, "second")
				return nil
			}))

			result, err := s.Run(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(times).To(HaveLen(result.Steps))
			Expect(times[0]).To(BeNumerically("~", 0.5, 1e-12))
			Expect(calls[:4]).To(Equal([]string{"first", "second", "first", "second"}))
		})

		It("abort the run with a step error", func() {
			boom := errors.New("disk full")
			s := newSim(integrators.KindEuler, sim.Config{Dt: 1, EndTime: 100})
			s.AddObserver(sim.ObserverFunc(func(t float64, set *body.Set) error {
				if t >= 3 {
					return boom
				}
				return nil
			}))

			result, err := s.Run(ctx)
			Expect(err).To(MatchError(boom))
			var stepErr *sim.StepError
			Expect(errors.As(err, &stepErr)).To(BeTrue())
			Expect(stepErr.Step).To(Equal(3))
			Expect(result).NotTo(BeNil())
			Expect(result.Steps).To(Equal(2))
		})
	})

	Describe("infinite runs", func() {
		It("run until the context is cancelled", func() {
			ctx, cancel := context.WithCancel(ctx)
			defer cancel()

			s := newSim(integrators.KindRK4, sim.Config{Dt: 0.1})
			s.AddObserver(sim.ObserverFunc(func(t float64, set *body.Set) error {
				if s.Steps() == 50 {
					cancel()
				}
				return nil
			}))

			result, err := s.Run(ctx)
			Expect(err).To(MatchError(context.Canceled))
			Expect(result.Steps).To(Equal(50))
			Expect(result.Time).To(BeNumerically("~", 5.0, 1e-9))
		})
	})

	Describe("pacing", func() {
		It("limits ticks to the configured rate", func() {
			s := newSim(integrators.KindEuler, sim.Config{Dt: 1, EndTime: 20, Rate: 200})
			result, err := s.Run(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Steps).To(Equal(20))
			Expect(result.Elapsed).To(BeNumerically(">=", 80*time.Millisecond))
		})

		It("stops waiting when the context is cancelled", func() {
			ctx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
			defer cancel()
			s := newSim(integrators.KindEuler, sim.Config{Dt: 1, Rate: 10})
			result, err := s.Run(ctx)
			Expect(err).To(MatchError(context.DeadlineExceeded))
			Expect(result.Steps).To(BeNumerically("<=", 1))
		})

		It("rejects a negative rate", func() {
			Expect(sim.Config{Dt: 1, Rate: -1}.Validate()).To(MatchError(sim.ErrInvalidConfig))
		})
	})

	Describe("failures", func() {
		It("rejects a non-positive timestep", func() {
			s := newSim(integrators.KindEuler, sim.Config{Dt: 0, EndTime: 1})
			_, err := s.Run(ctx)
			Expect(err).To(MatchError(sim.ErrInvalidConfig))
		})

		It("rejects a negative end time", func() {
			Expect(sim.Config{Dt: 1, EndTime: -1}.Validate()).To(MatchError(sim.ErrInvalidConfig))
		})

		It("rejects an empty body set", func() {
			s, err := sim.FromConfig(body.NewSet(), sim.DefaultConfig())
			Expect(err).NotTo(HaveOccurred())
			_, err = s.Run(ctx)
			Expect(err).To(MatchError(body.ErrEmptySet))
		})

		It("rejects an unknown integrator", func() {
			_, err := sim.FromConfig(sunEarth(), sim.Config{Dt: 1, Integrator: integrators.Kind(42)})
			Expect(err).To(MatchError(integrators.ErrUnknownIntegrator))
		})

		It("detects divergence", func() {
			s := newSim(integrators.KindEuler, sim.Config{Dt: 1e300})
			_, err := s.Run(ctx)
			Expect(err).To(MatchError(sim.ErrDiverged))
		})
	})

	Describe("RunAll", func() {
		It("runs independent simulators and keeps input order", func() {
			cfg := sim.Config{Dt: 1, EndTime: 30}
			sims := []*sim.Simulator{
				newSim(integrators.KindEuler, cfg),
				newSim(integrators.KindVerlet, cfg),
				newSim(integrators.KindRK4, cfg),
			}

			results, err := sim.RunAll(ctx, sims)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(3))
			for i, r := range results {
				Expect(r.Steps).To(Equal(30))
				Expect(sims[i].Time()).To(BeNumerically("~", 30, 1e-9))
			}
			Expect(results[2].EnergyDrift).To(BeNumerically("<", results[0].EnergyDrift))
		})
	})
})

var _ = Describe("CheckEndPositions", func() {
	It("sums per-body distances and reports missing references", func() {
		ref := body.Vec{1, 0, 0}
		set := body.NewSet(
			body.Body{Name: "a", Mass: 1, Position: body.Vec{1, 3, 4}, EndPosition: &ref},
			body.Body{Name: "b", Mass: 1, Position: body.Vec{2, 0, 0}},
		)

		report := sim.CheckEndPositions(set)
		Expect(report.Bodies).To(HaveLen(2))
		Expect(report.Bodies[0].Error).To(BeNumerically("~", 5, 1e-12))
		Expect(report.Bodies[1].Missing).To(BeTrue())
		Expect(report.Missing).To(Equal(1))
		Expect(report.Total).To(BeNumerically("~", 5, 1e-12))
	})

	It("reports zero after recording the current positions", func() {
		set := sunEarth()
		sim.SetEndPositions(set)
		report := sim.CheckEndPositions(set)
		Expect(report.Total).To(BeZero())
		Expect(report.Missing).To(BeZero())
	})
})
