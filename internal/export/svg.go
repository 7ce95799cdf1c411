// Package export renders recorded trajectories for use outside the terminal.
package export

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
)

var ErrNoPoints = errors.New("export: no trajectory points")

// Track is the XY path of one body, in AU.
type Track struct {
	Name   string
	Color  [3]uint8
	Points [][2]float64
}

type bounds struct {
	minX, maxX, minY, maxY float64
}

// extent finds a square region around every point with 10% padding, so
// circular orbits stay circular.
func extent(tracks []Track) (bounds, bool) {
	b := bounds{math.Inf(1), math.Inf(-1), math.Inf(1), math.Inf(-1)}
	found := false
	for _, t := range tracks {
		for _, p := range t.Points {
			b.minX, b.maxX = math.Min(b.minX, p[0]), math.Max(b.maxX, p[0])
			b.minY, b.maxY = math.Min(b.minY, p[1]), math.Max(b.maxY, p[1])
			found = true
		}
	}
	if !found {
		return b, false
	}

	side := math.Max(b.maxX-b.minX, b.maxY-b.minY)
	if side == 0 {
		side = 1
	}
	side *= 1.2
	cx, cy := (b.minX+b.maxX)/2, (b.minY+b.maxY)/2
	return bounds{cx - side/2, cx + side/2, cy - side/2, cy + side/2}, true
}

func hex(c [3]uint8) string {
	if c == [3]uint8{} {
		c = [3]uint8{255, 255, 255}
	}
	return fmt.Sprintf("#%02x%02x%02x", c[0], c[1], c[2])
}

// Orbits writes an SVG of size px square with one path per track and a dot
// at each body's last position.
func Orbits(w io.Writer, tracks []Track, size int) error {
	b, ok := extent(tracks)
	if !ok {
		return ErrNoPoints
	}
	if size <= 0 {
		size = 800
	}

	px := func(p [2]float64) (float64, float64) {
		x := (p[0] - b.minX) / (b.maxX - b.minX) * float64(size)
		y := float64(size) - (p[1]-b.minY)/(b.maxY-b.minY)*float64(size)
		return x, y
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, size, size, size, size)

	for _, t := range tracks {
		if len(t.Points) == 0 {
			continue
		}
		color := hex(t.Color)
		if len(t.Points) > 1 {
			fmt.Fprintf(&sb, `<path fill="none" stroke="%s" stroke-width="1.5" d="M`, color)
			for i, p := range t.Points {
				x, y := px(p)
				if i == 0 {
					fmt.Fprintf(&sb, "%.1f,%.1f", x, y)
				} else {
					fmt.Fprintf(&sb, " L%.1f,%.1f", x, y)
				}
			}
			sb.WriteString("\"/>\n")
		}
		x, y := px(t.Points[len(t.Points)-1])
		fmt.Fprintf(&sb, `<circle cx="%.1f" cy="%.1f" r="4" fill="%s"><title>%s</title></circle>
`, x, y, color, t.Name)
	}

	sb.WriteString("</svg>\n")
	_, err := io.WriteString(w, sb.String())
	return err
}
