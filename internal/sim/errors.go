package sim

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig indicates a non-positive timestep or negative end time.
	ErrInvalidConfig = errors.New("sim: invalid configuration")

	// ErrDiverged indicates a body position, velocity or acceleration became NaN or Inf.
	ErrDiverged = errors.New("sim: simulation diverged (NaN or Inf detected)")
)

// StepError wraps a failure with the tick it happened on.
type StepError struct {
	Step int
	Time float64
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f days): %v", e.Step, e.Time, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}
