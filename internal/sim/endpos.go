package sim

import "github.com/san-kum/nbodysim/internal/body"

type EndPositionError struct {
	Index int
	Name  string
	// Error is the Euclidean distance to the reference in AU.
	Error   float64
	Missing bool
}

type EndPositionReport struct {
	Bodies  []EndPositionError
	Total   float64
	Missing int
}

// CheckEndPositions compares every body with its EndPosition reference.
// Bodies without a reference are reported as missing and add nothing to Total.
func CheckEndPositions(set *body.Set) EndPositionReport {
	report := EndPositionReport{Bodies: make([]EndPositionError, 0, set.Len())}
	for i := 0; i < set.Len(); i++ {
		b := set.At(i)
		entry := EndPositionError{Index: i, Name: b.Name}
		if b.EndPosition == nil {
			entry.Missing = true
			report.Missing++
		} else {
			entry.Error = b.Position.Sub(*b.EndPosition).Len()
			report.Total += entry.Error
		}
		report.Bodies = append(report.Bodies, entry)
	}
	return report
}

// SetEndPositions stores the current positions as references, which is how
// a run records its own end state for later comparison.
func SetEndPositions(set *body.Set) {
	for i := 0; i < set.Len(); i++ {
		b := set.At(i)
		p := b.Position
		b.EndPosition = &p
	}
}
