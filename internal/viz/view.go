package viz

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/nbodysim/internal/body"
)

const (
	daysPerYear = 365.25
	// kmPerSecond converts AU/day.
	kmPerSecond = 1731.456837
)

const helpText = `
╔══════════════════════════════════════╗
║          KEYBOARD SHORTCUTS          ║
╠══════════════════════════════════════╣
║  Space    - Pause/Resume simulation  ║
║  + / -    - Zoom in / out            ║
║  Tab      - Select next body         ║
║  F        - Follow selected body     ║
║  X / x    - Tilt view                ║
║  Z / z    - Spin view                ║
║  0        - Reset view               ║
║  T        - Cycle themes             ║
║  Q        - Quit                     ║
║  ?        - Toggle this help         ║
╚══════════════════════════════════════╝
`

func (m Model) color(b *body.Body) lipgloss.Color {
	c := b.Display.Color
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", c[0], c[1], c[2]))
}

// radiusDots converts a physical radius to drawn dots.
func (m Model) radiusDots(b *body.Body) int {
	r := b.Radius
	if b.Display.Scale {
		r *= m.opts.ScaleFactor
	}
	return int(math.Round(r * m.camera.Scale()))
}

func (m Model) draw() {
	set := m.sim.Set()
	if m.follow {
		m.camera.Center = set.At(m.selected).Position
	}

	m.canvas.Clear()
	w, h := m.canvas.PixelSize()

	for i, trail := range m.trails {
		if !set.At(i).Display.Trail {
			continue
		}
		for _, p := range trail {
			if x, y, ok := m.camera.Project(p, w, h); ok {
				m.canvas.SetColor(x, y, m.theme.Trail)
			}
		}
	}

	for i := 0; i < set.Len(); i++ {
		b := set.At(i)
		x, y, _ := m.camera.Project(b.Position, w, h)
		m.canvas.Disc(x, y, m.radiusDots(b), m.color(b))
	}
}

func (m Model) View() string {
	m.draw()
	canvasView := lipgloss.NewStyle().Padding(1, 2).Render(m.canvas.String())

	set := m.sim.Set()
	cfg := m.sim.Config()
	st := m.styles
	row := func(label, value string) string {
		return st.label.Render(label) + st.value.Render(value) + "\n"
	}

	var s strings.Builder
	s.WriteString(st.header.Render(fmt.Sprintf("N-BODY · %d bodies", set.Len())) + "\n")
	status := m.status()
	s.WriteString(st.status[status].Render(status) + "\n")
	if m.err != nil {
		s.WriteString(st.status[statusFailed].Render(m.err.Error()) + "\n")
	}
	s.WriteString("\n")

	t := m.sim.Time()
	s.WriteString(row("Time", fmt.Sprintf("%.2f days (%.3f years)", t, t/daysPerYear)))
	if !cfg.Infinite() {
		s.WriteString(row("End", fmt.Sprintf("%.2f days", cfg.EndTime)))
	}
	s.WriteString(row("Integrator", m.sim.Kind().String()))
	s.WriteString(row("dt", fmt.Sprintf("%g days", cfg.Dt)))
	s.WriteString(row("Steps", fmt.Sprintf("%d", m.sim.Steps())))

	energy := m.energyHistory[len(m.energyHistory)-1]
	s.WriteString(row("Energy", fmt.Sprintf("%.6e", energy)))
	if m.initialEnergy != 0 {
		drift := math.Abs(energy-m.initialEnergy) / math.Abs(m.initialEnergy)
		s.WriteString(row("Drift", fmt.Sprintf("%.3e", drift)))
	}
	if len(m.energyHistory) > 1 {
		chart := asciigraph.Plot(m.energyHistory, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("Energy"))
		s.WriteString(st.graph.Render(chart) + "\n")
	}

	b := set.At(m.selected)
	s.WriteString("\n" + st.header.Render(b.Name) + "\n")
	s.WriteString(row("Mass", fmt.Sprintf("%.4g M☉", b.Mass)))
	s.WriteString(row("Radius", fmt.Sprintf("%.4g AU", b.Radius)))
	s.WriteString(row("Distance", fmt.Sprintf("%.4f AU", b.Position.Len())))
	s.WriteString(row("Speed", fmt.Sprintf("%.3f km/s", b.Velocity.Len()*kmPerSecond)))
	if m.follow {
		s.WriteString(row("Camera", "following"))
	}

	s.WriteString(st.help.Render("─────────────────────\nSP:Pause Tab:Select Q:Quit\n+/-:Zoom F:Follow ?:Help"))
	panel := st.panel.Render(s.String())
	main := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, panel)
	if m.showHelp {
		return helpText + "\n" + main
	}
	return main
}
