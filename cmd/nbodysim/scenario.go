package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/san-kum/nbodysim/internal/body"
	"github.com/san-kum/nbodysim/internal/checkpoint"
	"github.com/san-kum/nbodysim/internal/config"
	"github.com/san-kum/nbodysim/internal/integrators"
	"github.com/san-kum/nbodysim/internal/sim"
)

// scenario is everything a command needs to build a simulator.
type scenario struct {
	source     string
	set        *body.Set
	settings   config.Simulation
	cfg        sim.Config
	startTime  float64
	startSteps int
}

// loadScenario reads bodies from --preset or --configfile and settles the
// simulation settings. With --useconfig the document's simulation block wins
// over the flags. A --state checkpoint replaces bodies, clock, dt and
// integrator; an explicit --time still sets the end.
func loadScenario(cmd *cobra.Command) (*scenario, error) {
	var (
		file   *config.File
		source string
		err    error
	)
	if preset != "" {
		file = config.GetPreset(preset)
		if file == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
		source = "preset:" + preset
	} else {
		file, err = config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		source = configFile
	}

	settings := config.Simulation{
		Dt:          dt,
		ScaleFactor: scaleFactor,
		Time:        endTime,
		Integrator:  integrator,
	}
	if useConfig {
		settings = file.Simulation
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	kind, err := settings.Kind()
	if err != nil {
		return nil, err
	}

	set, err := file.BodySet()
	if err != nil {
		return nil, err
	}

	sc := &scenario{
		source:   source,
		set:      set,
		settings: settings,
		cfg: sim.Config{
			Dt:         settings.Dt,
			EndTime:    settings.Time,
			Integrator: kind,
		},
	}

	if statePath != "" {
		if err := sc.resume(cmd, statePath); err != nil {
			return nil, err
		}
	}

	logger.Debug("scenario loaded",
		"source", sc.source,
		"bodies", sc.set.Len(),
		"dt", sc.cfg.Dt,
		"end", sc.cfg.EndTime,
		"integrator", sc.cfg.Integrator,
	)
	return sc, nil
}

func (sc *scenario) resume(cmd *cobra.Command, path string) error {
	snap, err := checkpoint.Load(path)
	if err != nil {
		return err
	}
	sc.set = snap.Set()
	if err := sc.set.Validate(); err != nil {
		return fmt.Errorf("checkpoint %s: %w", path, err)
	}
	sc.source = path
	sc.startTime = snap.Time
	sc.startSteps = snap.Steps
	sc.cfg.Dt = snap.Dt
	sc.cfg.Integrator = snap.Integrator
	sc.cfg.EndTime = snap.EndTime
	if cmd.Flags().Changed("time") {
		sc.cfg.EndTime = endTime
	}
	sc.settings.Dt = snap.Dt
	sc.settings.Integrator = snap.Integrator.String()
	sc.settings.Time = sc.cfg.EndTime

	logger.Info("resuming from checkpoint", "path", path, "time", snap.Time, "steps", snap.Steps)
	return nil
}

// simulator builds a simulator on the scenario's set with the clock restored.
func (sc *scenario) simulator(cfg sim.Config) (*sim.Simulator, error) {
	s, err := sim.FromConfig(sc.set, cfg)
	if err != nil {
		return nil, err
	}
	s.SetLogger(logger)
	s.SetTime(sc.startTime)
	return s, nil
}

// kinds parses integrator names, defaulting to all of them.
func kinds(args []string) ([]integrators.Kind, error) {
	if len(args) == 0 {
		return integrators.Kinds(), nil
	}
	out := make([]integrators.Kind, 0, len(args))
	for _, a := range args {
		k, err := integrators.ParseKind(a)
		if err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	return out, nil
}
