package automation

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/nbodysim/internal/config"
	"github.com/san-kum/nbodysim/internal/integrators"
	"github.com/san-kum/nbodysim/internal/storage"
)

const twoBody = `
bodies:
  - {name: a, mass: 1, radius: 0.001, position: [0, 0, 0], velocity: [0, 0, 0]}
  - {name: b, mass: 0.001, radius: 0.0001, position: [1, 0, 0], velocity: [0, 0.0172, 0]}
simulation: {dt: 0.5, integrator: rk4, time: 0}
`

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadScenarioResolvesConfigPaths(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "bodies.yaml", twoBody)
	path := writeFile(t, dir, "batch.yaml", `
name: smoke
steps:
  - {config: bodies.yaml, time: 5}
  - {preset: sun-earth, integrator: euler, dt: 1, time: 3}
`)

	sc, err := LoadScenario(path)
	if err != nil {
		t.Fatalf("LoadScenario: %v", err)
	}
	if sc.Name != "smoke" || len(sc.Steps) != 2 {
		t.Fatalf("got %+v", sc)
	}
	if want := filepath.Join(dir, "bodies.yaml"); sc.Steps[0].Config != want {
		t.Errorf("config path %q, want %q", sc.Steps[0].Config, want)
	}
}

func TestRunScenario(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "bodies.yaml", twoBody)
	store := storage.New(filepath.Join(dir, "data"))
	if err := store.Init(); err != nil {
		t.Fatal(err)
	}

	sc := &Scenario{Steps: []Step{
		{Config: cfgPath, Time: 5},
		{Preset: "sun-earth", Integrator: "euler", Dt: 1, Time: 10, SaveAs: "euler-run", Every: 2},
	}}

	results, err := RunScenario(context.Background(), sc, store, nil)
	if err != nil {
		t.Fatalf("RunScenario: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results", len(results))
	}

	if results[0].Kind != integrators.KindRK4 || results[0].Result.Steps != 10 {
		t.Errorf("step 1: %s with %d steps, want rk4 with 10", results[0].Kind, results[0].Result.Steps)
	}
	if results[1].Kind != integrators.KindEuler || results[1].Result.Steps != 10 {
		t.Errorf("step 2: %s with %d steps, want euler with 10", results[1].Kind, results[1].Result.Steps)
	}
	if _, ok := results[1].Metrics["energy_drift"]; !ok {
		t.Error("metrics missing energy_drift")
	}

	if results[1].RunID != "euler-run" {
		t.Errorf("run id %q", results[1].RunID)
	}
	meta, err := store.Load("euler-run")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	// Frame 0 plus every second tick.
	if meta.Frames != 6 || meta.Steps != 10 {
		t.Errorf("frames=%d steps=%d, want 6 and 10", meta.Frames, meta.Steps)
	}
}

func TestRunScenarioStepErrors(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "bodies.yaml", twoBody)

	tests := []struct {
		name string
		step Step
	}{
		{"no source", Step{Time: 1}},
		{"unknown preset", Step{Preset: "nope", Time: 1}},
		{"no end time", Step{Config: cfgPath}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := RunScenario(context.Background(), &Scenario{Steps: []Step{tt.step}}, nil, nil)
			if !errors.Is(err, ErrStep) {
				t.Errorf("got %v, want ErrStep", err)
			}
		})
	}

	_, err := RunScenario(context.Background(), &Scenario{Steps: []Step{{Config: cfgPath, Time: 1, Integrator: "leapfrog"}}}, nil, nil)
	if !errors.Is(err, integrators.ErrUnknownIntegrator) {
		t.Errorf("got %v, want ErrUnknownIntegrator", err)
	}
}

func TestMonteCarlo(t *testing.T) {
	set, err := config.GetPreset("sun-earth").BodySet()
	if err != nil {
		t.Fatal(err)
	}

	cfg := &MonteCarloConfig{
		Integrator:   integrators.KindVerlet,
		Dt:           1,
		Duration:     100,
		Perturbation: 1e-3,
		NumTrials:    5,
		Seed:         42,
		EscapeRadius: 5,
	}
	results, err := RunMonteCarlo(context.Background(), set, cfg)
	if err != nil {
		t.Fatalf("RunMonteCarlo: %v", err)
	}
	stable, unstable := MonteCarloStats(results)
	if stable != 5 || unstable != 0 {
		t.Errorf("stable=%d unstable=%d, want 5/0", stable, unstable)
	}
	for _, r := range results {
		if r.MaxRadius < 0.99 || r.MaxRadius > 1.01 {
			t.Errorf("trial %d: max radius %.4f", r.TrialID, r.MaxRadius)
		}
	}

	// The base set is not perturbed in place.
	if set.At(1).Position != config.GetPreset("sun-earth").Bodies[1].Body().Position {
		t.Error("base set modified")
	}

	cfg.EscapeRadius = 0.5
	results, err = RunMonteCarlo(context.Background(), set, cfg)
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range results {
		if r.Stable || r.Escaped != "Earth" || r.Err != nil {
			t.Errorf("trial %d: %+v, want Earth escaping", r.TrialID, r)
		}
	}
}

func TestMonteCarloDeterministicSeed(t *testing.T) {
	set, _ := config.GetPreset("sun-earth").BodySet()
	cfg := &MonteCarloConfig{Integrator: integrators.KindRK4, Dt: 2, Duration: 20, Perturbation: 0.01, NumTrials: 3, Seed: 7}

	a, _ := RunMonteCarlo(context.Background(), set, cfg)
	b, _ := RunMonteCarlo(context.Background(), set, cfg)
	for i := range a {
		if a[i].MaxRadius != b[i].MaxRadius || a[i].EnergyDrift != b[i].EnergyDrift {
			t.Errorf("trial %d differs between seeded runs", i)
		}
	}
}
