// Package integrators advances a body set by one timestep.
//
// Every integrator evaluates forces for a step against a single consistent
// position snapshot before any body's primary state is written, so results do
// not depend on body order.
package integrators

import (
	"errors"
	"fmt"
	"strings"

	"github.com/san-kum/nbodysim/internal/body"
	"github.com/san-kum/nbodysim/internal/gravity"
)

var ErrUnknownIntegrator = errors.New("integrators: unknown integrator")

type Kind int

const (
	KindEuler Kind = iota
	KindVerlet
	KindRK4
)

var kindNames = [...]string{
	KindEuler:  "euler",
	KindVerlet: "verlet",
	KindRK4:    "rk4",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// Kinds lists every integrator in declaration order.
func Kinds() []Kind {
	return []Kind{KindEuler, KindVerlet, KindRK4}
}

func ParseKind(name string) (Kind, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for k, s := range kindNames {
		if s == n {
			return Kind(k), nil
		}
	}
	return 0, fmt.Errorf("%w: %q (options: euler, verlet, rk4)", ErrUnknownIntegrator, name)
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

type Integrator interface {
	Kind() Kind
	// Init prepares per-body state from the initial positions. It must be
	// called once before the first Step of a run.
	Init(set *body.Set)
	Step(set *body.Set, dt float64)
}

// New returns a fresh integrator of the given kind.
func New(kind Kind, law gravity.Law) (Integrator, error) {
	switch kind {
	case KindEuler:
		return NewEuler(law), nil
	case KindVerlet:
		return NewVerlet(law), nil
	case KindRK4:
		return NewRK4(law), nil
	}
	return nil, fmt.Errorf("%w: %v", ErrUnknownIntegrator, kind)
}

// seedAccelerations stores the acceleration at the current positions on each body.
func seedAccelerations(law gravity.Law, set *body.Set, pos, acc []body.Vec) ([]body.Vec, []body.Vec) {
	pos = set.CopyPositions(pos)
	acc = law.Accelerations(pos, set, acc)
	for i := range acc {
		set.At(i).Acceleration = acc[i]
	}
	return pos, acc
}
