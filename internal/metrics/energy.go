package metrics

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/nbodysim/internal/body"
	"github.com/san-kum/nbodysim/internal/gravity"
)

// Energy reports the most recent total energy.
type Energy struct {
	name    string
	law     gravity.Law
	current float64
}

func NewEnergy() *Energy {
	return &Energy{name: "energy", law: gravity.Default()}
}

func (e *Energy) Name() string { return e.name }

func (e *Energy) Observe(t float64, set *body.Set) {
	e.current = e.law.TotalEnergy(set)
}

func (e *Energy) Value() float64 { return e.current }
func (e *Energy) Reset()         { e.current = 0 }

// EnergyDrift reports the largest relative departure from the first observed energy.
type EnergyDrift struct {
	name          string
	law           gravity.Law
	initialEnergy float64
	maxDrift      float64
	samples       int
}

func NewEnergyDrift() *EnergyDrift {
	return &EnergyDrift{name: "energy_drift", law: gravity.Default()}
}

func (e *EnergyDrift) Name() string { return e.name }

func (e *EnergyDrift) Observe(t float64, set *body.Set) {
	energy := e.law.TotalEnergy(set)
	if e.samples == 0 {
		e.initialEnergy = energy
	}
	e.samples++

	if e.initialEnergy != 0 {
		drift := math.Abs(energy-e.initialEnergy) / math.Abs(e.initialEnergy)
		e.maxDrift = math.Max(e.maxDrift, drift)
	}
}

func (e *EnergyDrift) Value() float64 { return e.maxDrift }

func (e *EnergyDrift) Reset() {
	e.initialEnergy = 0
	e.maxDrift = 0
	e.samples = 0
}

// EnergyStats keeps the signed relative drift of every sample. Value is the
// standard deviation.
type EnergyStats struct {
	name          string
	law           gravity.Law
	initialEnergy float64
	drifts        []float64
}

func NewEnergyStats() *EnergyStats {
	return &EnergyStats{name: "energy_stddev", law: gravity.Default()}
}

func (e *EnergyStats) Name() string { return e.name }

func (e *EnergyStats) Observe(t float64, set *body.Set) {
	energy := e.law.TotalEnergy(set)
	if len(e.drifts) == 0 {
		e.initialEnergy = energy
	}
	if e.initialEnergy == 0 {
		e.drifts = append(e.drifts, 0)
		return
	}
	e.drifts = append(e.drifts, (energy-e.initialEnergy)/math.Abs(e.initialEnergy))
}

func (e *EnergyStats) Value() float64 {
	if len(e.drifts) < 2 {
		return 0
	}
	return stat.StdDev(e.drifts, nil)
}

func (e *EnergyStats) Mean() float64 {
	if len(e.drifts) == 0 {
		return 0
	}
	return stat.Mean(e.drifts, nil)
}

// Peak is the largest absolute relative drift seen.
func (e *EnergyStats) Peak() float64 {
	if len(e.drifts) == 0 {
		return 0
	}
	return math.Max(floats.Max(e.drifts), -floats.Min(e.drifts))
}

func (e *EnergyStats) Samples() []float64 { return e.drifts }

func (e *EnergyStats) Reset() {
	e.initialEnergy = 0
	e.drifts = e.drifts[:0]
}
