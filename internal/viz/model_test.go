package viz

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/nbodysim/internal/body"
	"github.com/san-kum/nbodysim/internal/gravity"
	"github.com/san-kum/nbodysim/internal/integrators"
	"github.com/san-kum/nbodysim/internal/sim"
)

func newTestModel(t *testing.T, cfg sim.Config, opts Options) Model {
	t.Helper()
	set := body.NewSet(
		body.Body{Name: "Sun", Mass: 1, Radius: 0.00465, Display: body.Display{Color: [3]uint8{255, 204, 0}}},
		body.Body{Name: "Earth", Mass: 3.003e-6, Radius: 4.26e-5, Position: body.Vec{1, 0, 0}, Velocity: body.Vec{0, math.Sqrt(gravity.G), 0},
			Display: body.Display{Trail: true, Scale: true, Color: [3]uint8{70, 130, 230}}},
	)
	s, err := sim.FromConfig(set, cfg)
	if err != nil {
		t.Fatal(err)
	}
	return NewModel(s, opts)
}

func tick(m Model) Model {
	next, _ := m.Update(TickMsg(time.Now()))
	return next.(Model)
}

func key(m Model, k string) (Model, tea.Cmd) {
	var msg tea.KeyMsg
	switch k {
	case " ":
		msg = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	case "tab":
		msg = tea.KeyMsg{Type: tea.KeyTab}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func TestTickAdvancesAtRate(t *testing.T) {
	m := newTestModel(t, sim.Config{Dt: 0.1, Integrator: integrators.KindVerlet}, Options{Rate: 300, FPS: 30})

	m = tick(m)
	if got := m.sim.Steps(); got != 10 {
		t.Errorf("expected 10 steps per frame, got %d", got)
	}
	m = tick(m)
	if got := m.sim.Steps(); got != 20 {
		t.Errorf("expected 20 steps after two frames, got %d", got)
	}
	if len(m.energyHistory) != 3 {
		t.Errorf("expected 3 energy samples, got %d", len(m.energyHistory))
	}
}

func TestFractionalRateAccumulates(t *testing.T) {
	m := newTestModel(t, sim.Config{Dt: 1, Integrator: integrators.KindEuler}, Options{Rate: 15, FPS: 30})
	for i := 0; i < 4; i++ {
		m = tick(m)
	}
	if got := m.sim.Steps(); got != 2 {
		t.Errorf("expected 2 steps at half a step per frame, got %d", got)
	}
}

func TestPause(t *testing.T) {
	m := newTestModel(t, sim.Config{Dt: 1, Integrator: integrators.KindEuler}, Options{Rate: 30, FPS: 30})
	m, _ = key(m, " ")
	m = tick(m)
	if m.sim.Steps() != 0 {
		t.Error("paused model advanced")
	}
	if m.status() != statusPaused {
		t.Errorf("status = %s", m.status())
	}
	m, _ = key(m, " ")
	m = tick(m)
	if m.sim.Steps() != 1 {
		t.Errorf("resumed model should step once, got %d", m.sim.Steps())
	}
}

func TestFiniteRunFinishes(t *testing.T) {
	m := newTestModel(t, sim.Config{Dt: 1, EndTime: 5, Integrator: integrators.KindRK4}, Options{Rate: 300, FPS: 30})
	m = tick(m)
	if !m.Finished() {
		t.Fatal("expected finished run")
	}
	if m.sim.Steps() != 5 {
		t.Errorf("expected exactly 5 steps, got %d", m.sim.Steps())
	}
	if m.status() != statusFinished {
		t.Errorf("status = %s", m.status())
	}
	m = tick(m)
	if m.sim.Steps() != 5 {
		t.Error("finished model kept stepping")
	}
}

func TestStepErrorStopsModel(t *testing.T) {
	m := newTestModel(t, sim.Config{Dt: 1, Integrator: integrators.KindEuler}, Options{Rate: 300, FPS: 30})
	boom := errors.New("observer failed")
	m.sim.AddObserver(sim.ObserverFunc(func(float64, *body.Set) error { return boom }))

	m = tick(m)
	if !errors.Is(m.Err(), boom) {
		t.Errorf("expected observer error, got %v", m.Err())
	}
	if m.status() != statusFailed {
		t.Errorf("status = %s", m.status())
	}
	if !strings.Contains(m.View(), "observer") {
		t.Error("view should show the error")
	}
}

func TestSelectionAndQuit(t *testing.T) {
	m := newTestModel(t, sim.Config{Dt: 1, Integrator: integrators.KindEuler}, Options{})
	m, _ = key(m, "tab")
	if m.selected != 1 {
		t.Errorf("selected = %d", m.selected)
	}
	m, _ = key(m, "tab")
	if m.selected != 0 {
		t.Errorf("selection should wrap, got %d", m.selected)
	}

	_, cmd := key(m, "q")
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should quit")
	}
}

func TestViewShowsState(t *testing.T) {
	m := newTestModel(t, sim.Config{Dt: 1, Integrator: integrators.KindVerlet}, Options{Rate: 3650, FPS: 10, ScaleFactor: 1000})
	m = tick(m)

	view := m.View()
	for _, want := range []string{"N-BODY", "RUNNING", "days", "years", "verlet", "Sun", "Energy"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}

	m, _ = key(m, "tab")
	if !strings.Contains(m.View(), "Earth") {
		t.Error("view should describe the selected body")
	}

	m, _ = key(m, "?")
	if !strings.Contains(m.View(), "KEYBOARD SHORTCUTS") {
		t.Error("help overlay missing")
	}
}

func TestFollowCentersCamera(t *testing.T) {
	m := newTestModel(t, sim.Config{Dt: 1, Integrator: integrators.KindEuler}, Options{})
	m, _ = key(m, "tab")
	m, _ = key(m, "f")
	m.View()
	if m.camera.Center != m.sim.Set().At(1).Position {
		t.Errorf("camera center = %v", m.camera.Center)
	}
	m, _ = key(m, "0")
	if m.follow || m.camera.Center != (body.Vec{}) {
		t.Error("reset should stop following")
	}
}
