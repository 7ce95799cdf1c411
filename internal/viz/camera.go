package viz

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/nbodysim/internal/body"
)

// Camera is an orthographic view onto the XY plane. Tilt rotates about the
// screen X axis, Spin about the world Z axis.
type Camera struct {
	Center      body.Vec
	Tilt, Spin  float64
	Zoom        float64
	PixelsPerAU float64
}

func NewCamera() *Camera {
	return &Camera{Zoom: 1, PixelsPerAU: 1}
}

func (c *Camera) ZoomIn()  { c.Zoom = math.Min(1e4, c.Zoom*1.25) }
func (c *Camera) ZoomOut() { c.Zoom = math.Max(1e-4, c.Zoom/1.25) }

func (c *Camera) Rotate(tilt, spin float64) {
	c.Tilt += tilt
	c.Spin += spin
}

func (c *Camera) Reset() {
	c.Center = body.Vec{}
	c.Tilt, c.Spin = 0, 0
	c.Zoom = 1
}

// Fit sets the scale so every position lands inside a w x h dot area.
func (c *Camera) Fit(positions []body.Vec, w, h int) {
	extent := 0.0
	for _, p := range positions {
		extent = math.Max(extent, math.Max(math.Abs(p[0]), math.Abs(p[1])))
	}
	if extent == 0 {
		extent = 1
	}
	c.PixelsPerAU = float64(min(w, h)) / 2 / (extent * 1.15)
}

// Scale is the current dots per AU.
func (c *Camera) Scale() float64 {
	return c.PixelsPerAU * c.Zoom
}

func (c *Camera) rotation() mgl64.Mat3 {
	return mgl64.Rotate3DX(c.Tilt).Mul3(mgl64.Rotate3DZ(c.Spin))
}

// Project maps a world position to dot coordinates on a w x h area and
// reports whether it is on screen.
func (c *Camera) Project(p body.Vec, w, h int) (int, int, bool) {
	q := c.rotation().Mul3x1(p.Sub(c.Center))
	s := c.Scale()
	x := int(math.Round(q[0]*s)) + w/2
	y := h/2 - int(math.Round(q[1]*s))
	return x, y, x >= 0 && x < w && y >= 0 && y < h
}
