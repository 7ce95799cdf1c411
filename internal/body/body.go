package body

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Vec is a position, velocity or acceleration in AU, AU/day or AU/day².
type Vec = mgl64.Vec3

var (
	ErrEmptySet     = errors.New("body: set has no bodies")
	ErrInvalidMass  = errors.New("body: mass must be positive")
	ErrInvalidShape = errors.New("body: radius must be non-negative")
	ErrNonFinite    = errors.New("body: non-finite vector component")
)

// Display carries presentation-only fields. Physics never reads them.
type Display struct {
	Trail bool
	Color [3]uint8
	Scale bool
}

type Body struct {
	Name         string
	Mass         float64 // solar masses
	Radius       float64 // AU, overlap threshold only
	Position     Vec
	Velocity     Vec
	Acceleration Vec

	// EndPosition is the optional reference used by end-position checks.
	EndPosition *Vec
	Display     Display
}

func (b *Body) Validate() error {
	if !(b.Mass > 0) {
		return fmt.Errorf("%w: %q has mass %g", ErrInvalidMass, b.Name, b.Mass)
	}
	if b.Radius < 0 || math.IsNaN(b.Radius) {
		return fmt.Errorf("%w: %q has radius %g", ErrInvalidShape, b.Name, b.Radius)
	}
	if !Finite(b.Position) || !Finite(b.Velocity) || !Finite(b.Acceleration) {
		return fmt.Errorf("%w: %q", ErrNonFinite, b.Name)
	}
	return nil
}

func (b Body) String() string {
	p, v := b.Position, b.Velocity
	return fmt.Sprintf("%s m=%.6g p=[%.6f, %.6f, %.6f] v=[%.6f, %.6f, %.6f]",
		b.Name, b.Mass, p[0], p[1], p[2], v[0], v[1], v[2])
}

// Finite reports whether every component of v is neither NaN nor Inf.
func Finite(v Vec) bool {
	for _, c := range v {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}
