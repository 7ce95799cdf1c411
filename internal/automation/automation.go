// Package automation runs scripted batches of simulations and Monte Carlo
// stability trials.
package automation

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/nbodysim/internal/body"
	"github.com/san-kum/nbodysim/internal/config"
	"github.com/san-kum/nbodysim/internal/gravity"
	"github.com/san-kum/nbodysim/internal/integrators"
	"github.com/san-kum/nbodysim/internal/metrics"
	"github.com/san-kum/nbodysim/internal/sim"
	"github.com/san-kum/nbodysim/internal/storage"
)

var ErrStep = errors.New("automation: invalid step")

// Scenario defines a scripted simulation sequence
type Scenario struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Steps       []Step `yaml:"steps"`
}

// Step names its bodies by preset or config path. Non-zero fields override
// the document's simulation block.
type Step struct {
	Preset     string  `yaml:"preset"`
	Config     string  `yaml:"config"`
	Integrator string  `yaml:"integrator"`
	Dt         float64 `yaml:"dt"`
	Time       float64 `yaml:"time"`
	Every      int     `yaml:"every"`
	SaveAs     string  `yaml:"save_as"`
}

// LoadScenario loads a scenario from a YAML file. Config paths are resolved
// against the scenario's directory.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("automation: %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	for i := range scenario.Steps {
		if c := scenario.Steps[i].Config; c != "" && !filepath.IsAbs(c) {
			scenario.Steps[i].Config = filepath.Join(dir, c)
		}
	}
	return &scenario, nil
}

func (s Step) source() string {
	if s.Preset != "" {
		return "preset:" + s.Preset
	}
	return s.Config
}

func (s Step) load() (*body.Set, sim.Config, error) {
	var (
		file *config.File
		err  error
	)
	switch {
	case s.Preset != "":
		if file = config.GetPreset(s.Preset); file == nil {
			return nil, sim.Config{}, fmt.Errorf("%w: unknown preset %q", ErrStep, s.Preset)
		}
	case s.Config != "":
		if file, err = config.Load(s.Config); err != nil {
			return nil, sim.Config{}, err
		}
	default:
		return nil, sim.Config{}, fmt.Errorf("%w: needs a preset or a config", ErrStep)
	}

	settings := file.Simulation
	if s.Integrator != "" {
		settings.Integrator = s.Integrator
	}
	if s.Dt != 0 {
		settings.Dt = s.Dt
	}
	if s.Time != 0 {
		settings.Time = s.Time
	}
	if err := settings.Validate(); err != nil {
		return nil, sim.Config{}, err
	}
	if settings.Time == 0 {
		return nil, sim.Config{}, fmt.Errorf("%w: needs an end time", ErrStep)
	}
	kind, err := settings.Kind()
	if err != nil {
		return nil, sim.Config{}, err
	}

	set, err := file.BodySet()
	if err != nil {
		return nil, sim.Config{}, err
	}
	return set, sim.Config{Dt: settings.Dt, EndTime: settings.Time, Integrator: kind}, nil
}

type StepResult struct {
	Index   int
	Source  string
	Kind    integrators.Kind
	Result  *sim.Result
	Metrics map[string]float64
	// RunID is set when the step was recorded.
	RunID string
}

// RunScenario executes all steps in a scenario. With a non-nil store every
// step is recorded.
func RunScenario(ctx context.Context, scenario *Scenario, store *storage.Store, logger *log.Logger) ([]StepResult, error) {
	if logger == nil {
		logger = log.Default()
	}
	results := make([]StepResult, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		logger.Info("running step", "step", fmt.Sprintf("%d/%d", i+1, len(scenario.Steps)), "source", step.source())

		set, cfg, err := step.load()
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}

		s, err := sim.FromConfig(set, cfg)
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}
		s.SetLogger(logger)
		recorder := metrics.NewRecorder(set, metrics.Standard()...)
		s.AddObserver(recorder)

		var run *storage.Run
		if store != nil {
			run, err = store.Create(storage.RunMetadata{
				ID:         step.SaveAs,
				Source:     step.source(),
				Dt:         cfg.Dt,
				EndTime:    cfg.EndTime,
				Integrator: cfg.Integrator.String(),
				Every:      step.Every,
			}, set)
			if err != nil {
				return results, fmt.Errorf("step %d record: %w", i+1, err)
			}
			s.AddObserver(run)
		}

		result, err := s.Run(ctx)
		sr := StepResult{Index: i, Source: step.source(), Kind: cfg.Integrator, Result: result, Metrics: recorder.Values()}
		if run != nil {
			if cerr := run.Close(result, sr.Metrics); cerr != nil && err == nil {
				err = cerr
			}
			sr.RunID = run.ID()
		}
		if err != nil {
			return results, fmt.Errorf("step %d run: %w", i+1, err)
		}

		results = append(results, sr)
	}

	return results, nil
}

// MonteCarloConfig defines Monte Carlo simulation parameters
type MonteCarloConfig struct {
	Integrator integrators.Kind
	Dt         float64
	Duration   float64
	// Perturbation is the largest shift in AU applied to each position component.
	Perturbation float64
	NumTrials    int
	Seed         int64
	// EscapeRadius in AU from the centre of mass marks a trial unstable.
	EscapeRadius float64
	Logger       *log.Logger
}

// MonteCarloResult holds the outcome of one perturbed trial
type MonteCarloResult struct {
	TrialID     int
	Stable      bool
	Escaped     string // first body past the escape radius
	MaxRadius   float64
	EnergyDrift float64
	Err         error
}

// escapeWatch tracks the largest distance from the centre of mass.
type escapeWatch struct {
	radius  float64
	max     float64
	escaped string
}

var errEscaped = errors.New("automation: body escaped")

func (w *escapeWatch) OnStep(t float64, set *body.Set) error {
	com := gravity.CenterOfMass(set)
	for i := 0; i < set.Len(); i++ {
		b := set.At(i)
		r := b.Position.Sub(com).Len()
		w.max = math.Max(w.max, r)
		if w.radius > 0 && r > w.radius {
			w.escaped = b.Name
			return errEscaped
		}
	}
	return nil
}

// RunMonteCarlo executes multiple trials with random position perturbations
func RunMonteCarlo(ctx context.Context, base *body.Set, cfg *MonteCarloConfig) ([]MonteCarloResult, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	results := make([]MonteCarloResult, 0, cfg.NumTrials)

	rng := rand.New(rand.NewSource(cfg.Seed))
	if cfg.Seed == 0 {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	for trial := 0; trial < cfg.NumTrials; trial++ {
		set := base.Clone()
		for i := 0; i < set.Len(); i++ {
			b := set.At(i)
			for k := 0; k < 3; k++ {
				b.Position[k] += (rng.Float64() - 0.5) * 2 * cfg.Perturbation
			}
		}

		s, err := sim.FromConfig(set, sim.Config{Dt: cfg.Dt, EndTime: cfg.Duration, Integrator: cfg.Integrator})
		if err != nil {
			return results, err
		}
		watch := &escapeWatch{radius: cfg.EscapeRadius}
		drift := metrics.NewEnergyDrift()
		s.AddObserver(metrics.NewRecorder(set, drift))
		s.AddObserver(watch)

		_, err = s.Run(ctx)
		if ctx.Err() != nil {
			return results, ctx.Err()
		}

		r := MonteCarloResult{
			TrialID:     trial,
			Stable:      err == nil,
			Escaped:     watch.escaped,
			MaxRadius:   watch.max,
			EnergyDrift: drift.Value(),
		}
		if err != nil && !errors.Is(err, errEscaped) {
			r.Err = err
		}
		results = append(results, r)

		if (trial+1)%10 == 0 {
			logger.Info("monte carlo", "trials", fmt.Sprintf("%d/%d", trial+1, cfg.NumTrials))
		}
	}

	return results, nil
}

// MonteCarloStats computes summary statistics from Monte Carlo results
func MonteCarloStats(results []MonteCarloResult) (stableCount int, unstableCount int) {
	for _, r := range results {
		if r.Stable {
			stableCount++
		} else {
			unstableCount++
		}
	}
	return
}
