package viz

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/nbodysim/internal/body"
	"github.com/san-kum/nbodysim/internal/sim"
)

const (
	defaultWidth    = 80
	defaultHeight   = 24
	defaultFPS      = 30
	historyCapacity = 600
	trailCapacity   = 200
)

const (
	statusRunning  = "RUNNING"
	statusPaused   = "PAUSED"
	statusFinished = "FINISHED"
	statusFailed   = "FAILED"
)

type TickMsg time.Time

type Options struct {
	// Rate is the simulation ticks per wall-clock second.
	Rate float64
	FPS  int
	// ScaleFactor enlarges drawn radii of bodies that opt into scaling.
	ScaleFactor   float64
	Width, Height int
	Theme         string
}

func (o Options) withDefaults() Options {
	if o.Rate <= 0 {
		o.Rate = 10000
	}
	if o.FPS <= 0 {
		o.FPS = defaultFPS
	}
	if o.ScaleFactor <= 0 {
		o.ScaleFactor = 1
	}
	if o.Width <= 0 {
		o.Width = defaultWidth
	}
	if o.Height <= 0 {
		o.Height = defaultHeight
	}
	return o
}

// Model drives a simulator from Bubble Tea ticks and keeps the buffers the
// view needs. The simulator is only touched from Update.
type Model struct {
	sim    *sim.Simulator
	opts   Options
	canvas *Canvas
	camera *Camera
	theme  Theme
	styles styles

	trails        [][]body.Vec
	energyHistory []float64
	initialEnergy float64

	running  bool
	finished bool
	err      error
	selected int
	follow   bool
	showHelp bool
	budget   float64
}

func NewModel(s *sim.Simulator, opts Options) Model {
	opts = opts.withDefaults()
	theme := GetTheme(opts.Theme)
	m := Model{
		sim:           s,
		opts:          opts,
		canvas:        NewCanvas(opts.Width, opts.Height),
		camera:        NewCamera(),
		theme:         theme,
		styles:        newStyles(theme),
		trails:        make([][]body.Vec, s.Set().Len()),
		energyHistory: make([]float64, 0, historyCapacity),
		initialEnergy: s.Energy(),
		running:       true,
	}
	w, h := m.canvas.PixelSize()
	m.camera.Fit(s.Set().Positions(), w, h)
	m.recordTrails()
	m.record()
	return m
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(m.opts.FPS), func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return m.tick()
}

// Err is the error that stopped the simulation, if any.
func (m Model) Err() error { return m.err }

func (m Model) Finished() bool { return m.finished }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "+", "=":
			m.camera.ZoomIn()
		case "-", "_":
			m.camera.ZoomOut()
		case "tab":
			m.selected = (m.selected + 1) % m.sim.Set().Len()
		case "shift+tab":
			n := m.sim.Set().Len()
			m.selected = (m.selected + n - 1) % n
		case "f":
			m.follow = !m.follow
			if !m.follow {
				m.camera.Center = body.Vec{}
			}
		case "x":
			m.camera.Rotate(0.1, 0)
		case "X":
			m.camera.Rotate(-0.1, 0)
		case "z":
			m.camera.Rotate(0, 0.1)
		case "Z":
			m.camera.Rotate(0, -0.1)
		case "0":
			m.camera.Reset()
			m.follow = false
		case "t":
			m.theme = nextTheme(m.theme)
			m.styles = newStyles(m.theme)
		case "?":
			m.showHelp = !m.showHelp
		}
	case tea.WindowSizeMsg:
		w, h := max(20, msg.Width-50), max(8, msg.Height-2)
		if w != m.canvas.Width || h != m.canvas.Height {
			m.canvas = NewCanvas(w, h)
			pw, ph := m.canvas.PixelSize()
			m.camera.Fit(m.sim.Set().Positions(), pw, ph)
		}
	case TickMsg:
		if m.running && !m.finished {
			m.advance()
		}
		return m, m.tick()
	}
	return m, nil
}

// advance runs the ticks owed for one frame at the configured rate.
func (m *Model) advance() {
	m.budget += m.opts.Rate / float64(m.opts.FPS)
	n := int(m.budget)
	m.budget -= float64(n)

	cfg := m.sim.Config()
	for i := 0; i < n; i++ {
		if !cfg.Infinite() && cfg.StepsUntil(m.sim.Time()) == 0 {
			m.finished = true
			break
		}
		if err := m.sim.Step(); err != nil {
			m.err = err
			m.finished = true
			break
		}
	}
	m.recordTrails()
	m.record()
}

func (m *Model) recordTrails() {
	set := m.sim.Set()
	for i := 0; i < set.Len(); i++ {
		b := set.At(i)
		if !b.Display.Trail {
			continue
		}
		m.trails[i] = append(m.trails[i], b.Position)
		if len(m.trails[i]) > trailCapacity {
			m.trails[i] = m.trails[i][1:]
		}
	}
}

func (m *Model) record() {
	m.energyHistory = append(m.energyHistory, m.sim.Energy())
	if len(m.energyHistory) > historyCapacity {
		m.energyHistory = m.energyHistory[1:]
	}
}

func (m Model) status() string {
	switch {
	case m.err != nil:
		return statusFailed
	case m.finished:
		return statusFinished
	case !m.running:
		return statusPaused
	}
	return statusRunning
}

// Run starts the program on the alternate screen and returns the final model.
func Run(s *sim.Simulator, opts Options) (Model, error) {
	final, err := tea.NewProgram(NewModel(s, opts), tea.WithAltScreen()).Run()
	if err != nil {
		return Model{}, err
	}
	return final.(Model), nil
}
