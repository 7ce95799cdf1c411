package sim

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/charmbracelet/log"

	"github.com/san-kum/nbodysim/internal/body"
	"github.com/san-kum/nbodysim/internal/gravity"
	"github.com/san-kum/nbodysim/internal/integrators"
)

// Simulator owns a body set and advances it with one integrator. It is not
// safe for concurrent use; run separate simulators for parallel work.
type Simulator struct {
	set        *body.Set
	integrator integrators.Integrator
	law        gravity.Law
	cfg        Config
	observers  []Observer
	logger     *log.Logger

	time        float64
	steps       int
	initialized bool
}

func New(set *body.Set, integrator integrators.Integrator, cfg Config) *Simulator {
	cfg.Integrator = integrator.Kind()
	return &Simulator{
		set:        set,
		integrator: integrator,
		law:        gravity.Default(),
		cfg:        cfg,
		observers:  make([]Observer, 0),
		logger:     log.Default(),
	}
}

// FromConfig builds the integrator named by cfg.Integrator.
func FromConfig(set *body.Set, cfg Config) (*Simulator, error) {
	integ, err := integrators.New(cfg.Integrator, gravity.Default())
	if err != nil {
		return nil, err
	}
	return New(set, integ, cfg), nil
}

func (s *Simulator) AddObserver(o Observer)  { s.observers = append(s.observers, o) }
func (s *Simulator) SetLogger(l *log.Logger) { s.logger = l }
func (s *Simulator) SetLaw(law gravity.Law)  { s.law = law }

func (s *Simulator) Set() *body.Set         { return s.set }
func (s *Simulator) Time() float64          { return s.time }
func (s *Simulator) Steps() int             { return s.steps }
func (s *Simulator) Config() Config         { return s.cfg }
func (s *Simulator) Kind() integrators.Kind { return s.integrator.Kind() }
func (s *Simulator) Energy() float64        { return s.law.TotalEnergy(s.set) }

// SetTime moves the simulation clock, used when resuming from a checkpoint.
func (s *Simulator) SetTime(t float64) { s.time = t }

func (s *Simulator) init() error {
	if s.initialized {
		return nil
	}
	if err := s.cfg.Validate(); err != nil {
		return err
	}
	if err := s.set.Validate(); err != nil {
		return err
	}
	s.integrator.Init(s.set)
	s.initialized = true
	return nil
}

// Step advances one tick, checks the new state and notifies observers.
func (s *Simulator) Step() error {
	if err := s.init(); err != nil {
		return err
	}

	s.integrator.Step(s.set, s.cfg.Dt)
	s.time += s.cfg.Dt
	s.steps++

	if !s.set.IsValid() {
		return &StepError{Step: s.steps, Time: s.time, Err: ErrDiverged}
	}

	for _, obs := range s.observers {
		if err := obs.OnStep(s.time, s.set); err != nil {
			return &StepError{Step: s.steps, Time: s.time, Err: err}
		}
	}
	return nil
}

// Run advances until EndTime, or until ctx is cancelled when EndTime is 0.
// The returned Result is non-nil whenever the run started, even on error.
func (s *Simulator) Run(ctx context.Context) (*Result, error) {
	if err := s.init(); err != nil {
		return nil, err
	}

	start := time.Now()
	result := &Result{InitialEnergy: s.Energy()}
	total := s.cfg.StepsUntil(s.time)

	s.logger.Debug("run started",
		"integrator", s.integrator.Kind(),
		"bodies", s.set.Len(),
		"dt", s.cfg.Dt,
		"end", s.cfg.EndTime,
		"steps", total,
	)

	pace := newPacer(s.cfg.Rate, start)

	var runErr error
	for i := 0; s.cfg.Infinite() || i < total; i++ {
		select {
		case <-ctx.Done():
			runErr = ctx.Err()
		default:
		}
		if runErr == nil {
			runErr = pace.wait(ctx, i)
		}
		if runErr != nil {
			break
		}

		if err := s.Step(); err != nil {
			runErr = err
			break
		}
		result.Steps++
	}

	result.Time = s.time
	result.Elapsed = time.Since(start)
	result.FinalEnergy = s.Energy()
	if result.InitialEnergy != 0 {
		result.EnergyDrift = math.Abs(result.FinalEnergy-result.InitialEnergy) / math.Abs(result.InitialEnergy)
	}

	s.logger.Debug("run finished",
		"steps", result.Steps,
		"time", fmt.Sprintf("%.4f", result.Time),
		"drift", result.EnergyDrift,
		"elapsed", result.Elapsed,
	)

	return result, runErr
}
