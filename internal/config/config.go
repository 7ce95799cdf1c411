package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/nbodysim/internal/body"
	"github.com/san-kum/nbodysim/internal/integrators"
)

const (
	DefaultDt          = 0.01
	DefaultScaleFactor = 1000.0
	DefaultTime        = 0.0
	DefaultIntegrator  = "euler"
)

var (
	ErrMissingField = errors.New("config: missing required field")
	ErrInvalidField = errors.New("config: invalid field")
	ErrLayout       = errors.New("config: unrecognised document layout")
)

type Simulation struct {
	Dt          float64 `yaml:"dt" json:"dt"`
	ScaleFactor float64 `yaml:"scale_factor" json:"scale_factor"`
	// Time is the end time in days; 0 runs until interrupted.
	Time       float64 `yaml:"time" json:"time"`
	Integrator string  `yaml:"integrator" json:"integrator"`
}

type Body struct {
	Name        string    `yaml:"name" json:"name"`
	Mass        *float64  `yaml:"mass" json:"mass"`
	Radius      float64   `yaml:"radius" json:"radius"`
	Position    []float64 `yaml:"position" json:"position"`
	Velocity    []float64 `yaml:"velocity" json:"velocity"`
	Trail       *bool     `yaml:"trail,omitempty" json:"trail,omitempty"`
	Color       []int     `yaml:"color,omitempty" json:"color,omitempty"`
	Scale       *bool     `yaml:"scale,omitempty" json:"scale,omitempty"`
	EndPosition []float64 `yaml:"end_position,omitempty" json:"end_position,omitempty"`
}

type File struct {
	Bodies     []Body     `yaml:"bodies" json:"bodies"`
	Simulation Simulation `yaml:"simulation" json:"simulation"`
}

func DefaultSimulation() Simulation {
	return Simulation{
		Dt:          DefaultDt,
		ScaleFactor: DefaultScaleFactor,
		Time:        DefaultTime,
		Integrator:  DefaultIntegrator,
	}
}

func (s Simulation) Kind() (integrators.Kind, error) {
	return integrators.ParseKind(s.Integrator)
}

func (s Simulation) Validate() error {
	if !(s.Dt > 0) {
		return fmt.Errorf("%w: dt must be positive, got %g", ErrInvalidField, s.Dt)
	}
	if s.Time < 0 {
		return fmt.Errorf("%w: time must be >= 0, got %g", ErrInvalidField, s.Time)
	}
	if _, err := s.Kind(); err != nil {
		return err
	}
	return nil
}

func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Parse accepts YAML or JSON in either the mapping layout
// {bodies, simulation} or the two-element [bodies, simulation] array.
func Parse(data []byte) (*File, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, fmt.Errorf("%w: empty document", ErrLayout)
	}

	f := &File{Simulation: DefaultSimulation()}
	root := doc.Content[0]
	switch root.Kind {
	case yaml.MappingNode:
		if err := root.Decode(f); err != nil {
			return nil, fmt.Errorf("config: decode: %w", err)
		}
	case yaml.SequenceNode:
		if len(root.Content) != 2 {
			return nil, fmt.Errorf("%w: array form needs [bodies, simulation], got %d elements", ErrLayout, len(root.Content))
		}
		if err := root.Content[0].Decode(&f.Bodies); err != nil {
			return nil, fmt.Errorf("config: decode bodies: %w", err)
		}
		if err := root.Content[1].Decode(&f.Simulation); err != nil {
			return nil, fmt.Errorf("config: decode simulation: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: top level must be a mapping or an array", ErrLayout)
	}

	if err := f.Validate(); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *File) Validate() error {
	if len(f.Bodies) == 0 {
		return fmt.Errorf("%w: bodies", ErrMissingField)
	}
	for i := range f.Bodies {
		if err := f.Bodies[i].validate(i); err != nil {
			return err
		}
	}
	return f.Simulation.Validate()
}

func (b *Body) validate(idx int) error {
	switch {
	case b.Name == "":
		return fmt.Errorf("%w: body %d: name", ErrMissingField, idx)
	case b.Mass == nil:
		return fmt.Errorf("%w: body %d (%s): mass", ErrMissingField, idx, b.Name)
	case b.Position == nil:
		return fmt.Errorf("%w: body %d (%s): position", ErrMissingField, idx, b.Name)
	case b.Velocity == nil:
		return fmt.Errorf("%w: body %d (%s): velocity", ErrMissingField, idx, b.Name)
	}

	vectors := []struct {
		field string
		v     []float64
	}{
		{"position", b.Position},
		{"velocity", b.Velocity},
	}
	if b.EndPosition != nil {
		vectors = append(vectors, struct {
			field string
			v     []float64
		}{"end_position", b.EndPosition})
	}
	for _, vec := range vectors {
		if len(vec.v) != 3 {
			return fmt.Errorf("%w: body %d (%s): %s needs 3 components, got %d", ErrInvalidField, idx, b.Name, vec.field, len(vec.v))
		}
	}

	if b.Color != nil {
		if len(b.Color) != 3 {
			return fmt.Errorf("%w: body %d (%s): color needs 3 components", ErrInvalidField, idx, b.Name)
		}
		for _, c := range b.Color {
			if c < 0 || c > 255 {
				return fmt.Errorf("%w: body %d (%s): color component %d outside 0-255", ErrInvalidField, idx, b.Name, c)
			}
		}
	}
	return nil
}

func vec(v []float64) body.Vec {
	return body.Vec{v[0], v[1], v[2]}
}

// Body converts the descriptor; it assumes Validate has passed.
func (b *Body) Body() body.Body {
	out := body.Body{
		Name:     b.Name,
		Mass:     *b.Mass,
		Radius:   b.Radius,
		Position: vec(b.Position),
		Velocity: vec(b.Velocity),
		Display: body.Display{
			Trail: b.Trail == nil || *b.Trail,
			Scale: b.Scale == nil || *b.Scale,
			Color: [3]uint8{255, 255, 255},
		},
	}
	if len(b.Color) == 3 {
		out.Display.Color = [3]uint8{uint8(b.Color[0]), uint8(b.Color[1]), uint8(b.Color[2])}
	}
	if b.EndPosition != nil {
		end := vec(b.EndPosition)
		out.EndPosition = &end
	}
	return out
}

// BodySet validates the document and builds the physical body set.
func (f *File) BodySet() (*body.Set, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	bodies := make([]body.Body, len(f.Bodies))
	for i := range f.Bodies {
		bodies[i] = f.Bodies[i].Body()
	}
	set := body.NewSet(bodies...)
	if err := set.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return set, nil
}

// FromSet builds a document from a body set, used to export end states.
func FromSet(set *body.Set, sim Simulation) *File {
	f := &File{Simulation: sim, Bodies: make([]Body, set.Len())}
	for i := 0; i < set.Len(); i++ {
		b := set.At(i)
		mass := b.Mass
		trail, scale := b.Display.Trail, b.Display.Scale
		f.Bodies[i] = Body{
			Name:     b.Name,
			Mass:     &mass,
			Radius:   b.Radius,
			Position: []float64{b.Position[0], b.Position[1], b.Position[2]},
			Velocity: []float64{b.Velocity[0], b.Velocity[1], b.Velocity[2]},
			Trail:    &trail,
			Scale:    &scale,
			Color:    []int{int(b.Display.Color[0]), int(b.Display.Color[1]), int(b.Display.Color[2])},
		}
		if b.EndPosition != nil {
			e := *b.EndPosition
			f.Bodies[i].EndPosition = []float64{e[0], e[1], e[2]}
		}
	}
	return f
}

// Save writes JSON for a .json path and YAML otherwise.
func Save(path string, f *File) error {
	var (
		data []byte
		err  error
	)
	if strings.EqualFold(filepath.Ext(path), ".json") {
		data, err = json.MarshalIndent(f, "", "  ")
	} else {
		data, err = yaml.Marshal(f)
	}
	if err != nil {
		return fmt.Errorf("config: encode: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}
