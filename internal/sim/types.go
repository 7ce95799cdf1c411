package sim

import (
	"fmt"
	"math"
	"time"

	"github.com/san-kum/nbodysim/internal/body"
	"github.com/san-kum/nbodysim/internal/integrators"
)

// Observer is notified after every completed tick with the updated set.
// Implementations must not keep set past the call; copy what they need.
type Observer interface {
	OnStep(t float64, set *body.Set) error
}

type ObserverFunc func(t float64, set *body.Set) error

func (f ObserverFunc) OnStep(t float64, set *body.Set) error { return f(t, set) }

type Config struct {
	Dt float64 // days
	// EndTime in days; 0 runs until the context is cancelled.
	EndTime    float64
	Integrator integrators.Kind
	// Rate caps ticks per wall-clock second; 0 runs unthrottled.
	Rate float64
}

func DefaultConfig() Config {
	return Config{
		Dt:         0.01,
		EndTime:    0,
		Integrator: integrators.KindEuler,
	}
}

func (c Config) Infinite() bool { return c.EndTime == 0 }

func (c Config) Validate() error {
	if !(c.Dt > 0) || math.IsInf(c.Dt, 0) {
		return fmt.Errorf("%w: dt must be positive, got %g", ErrInvalidConfig, c.Dt)
	}
	if c.Rate < 0 || math.IsNaN(c.Rate) {
		return fmt.Errorf("%w: rate must be >= 0, got %g", ErrInvalidConfig, c.Rate)
	}
	if c.EndTime < 0 || math.IsNaN(c.EndTime) || math.IsInf(c.EndTime, 0) {
		return fmt.Errorf("%w: end time must be >= 0, got %g", ErrInvalidConfig, c.EndTime)
	}
	return nil
}

// StepsUntil returns the number of ticks needed to move from t to EndTime.
func (c Config) StepsUntil(t float64) int {
	if c.Infinite() || t >= c.EndTime {
		return 0
	}
	return int(math.Ceil((c.EndTime-t)/c.Dt - 1e-9))
}

type Result struct {
	Steps         int
	Time          float64
	InitialEnergy float64
	FinalEnergy   float64
	// EnergyDrift is |E_final - E_initial| / |E_initial|.
	EnergyDrift float64
	Elapsed     time.Duration
}
