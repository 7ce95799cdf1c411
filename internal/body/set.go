package body

// Set is the ordered body store. Insertion order is the stable index used for
// reporting; the set is never resized after construction.
type Set struct {
	bodies []Body
}

// NewSet copies bodies into a new set.
func NewSet(bodies ...Body) *Set {
	s := &Set{bodies: make([]Body, len(bodies))}
	copy(s.bodies, bodies)
	for i := range s.bodies {
		if ref := s.bodies[i].EndPosition; ref != nil {
			v := *ref
			s.bodies[i].EndPosition = &v
		}
	}
	return s
}

func (s *Set) Len() int { return len(s.bodies) }

// At returns a pointer into the store; callers may mutate the body in place.
func (s *Set) At(i int) *Body { return &s.bodies[i] }

// Index returns the position of the first body called name, or -1.
func (s *Set) Index(name string) int {
	for i := range s.bodies {
		if s.bodies[i].Name == name {
			return i
		}
	}
	return -1
}

// Positions returns a snapshot of all positions.
func (s *Set) Positions() []Vec {
	return s.CopyPositions(make([]Vec, len(s.bodies)))
}

// CopyPositions fills dst with the current positions, reallocating if it is too short.
func (s *Set) CopyPositions(dst []Vec) []Vec {
	if len(dst) != len(s.bodies) {
		dst = make([]Vec, len(s.bodies))
	}
	for i := range s.bodies {
		dst[i] = s.bodies[i].Position
	}
	return dst
}

func (s *Set) Clone() *Set {
	return NewSet(s.bodies...)
}

// Validate checks every body and that the set is non-empty.
func (s *Set) Validate() error {
	if len(s.bodies) == 0 {
		return ErrEmptySet
	}
	for i := range s.bodies {
		if err := s.bodies[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}

// IsValid reports whether all kinematic state is finite.
func (s *Set) IsValid() bool {
	for i := range s.bodies {
		b := &s.bodies[i]
		if !Finite(b.Position) || !Finite(b.Velocity) || !Finite(b.Acceleration) {
			return false
		}
	}
	return true
}

// Bodies returns a copy of the stored bodies.
func (s *Set) Bodies() []Body {
	out := make([]Body, len(s.bodies))
	copy(out, s.bodies)
	return out
}
