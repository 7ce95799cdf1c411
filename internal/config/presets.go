package config

import (
	"math"
	"sort"

	"github.com/san-kum/nbodysim/internal/gravity"
)

type planet struct {
	name   string
	mass   float64
	radius float64
	orbit  float64 // AU
	color  []int
}

var sun = planet{name: "Sun", mass: 1, radius: 0.00465, color: []int{255, 204, 0}}

var (
	mercury = planet{"Mercury", 1.660e-7, 1.63e-5, 0.387, []int{160, 160, 160}}
	venus   = planet{"Venus", 2.447e-6, 4.05e-5, 0.723, []int{230, 190, 120}}
	earth   = planet{"Earth", 3.003e-6, 4.26e-5, 1.0, []int{70, 130, 230}}
	mars    = planet{"Mars", 3.227e-7, 2.27e-5, 1.524, []int{210, 90, 50}}
)

func ptr[T any](v T) *T { return &v }

// circular places p on a circular orbit around a central mass at the origin.
func circular(p planet, central float64) Body {
	v := math.Sqrt(gravity.G * (central + p.mass) / p.orbit)
	return Body{
		Name:     p.name,
		Mass:     ptr(p.mass),
		Radius:   p.radius,
		Position: []float64{p.orbit, 0, 0},
		Velocity: []float64{0, v, 0},
		Color:    p.color,
	}
}

func central(p planet) Body {
	return Body{
		Name:     p.name,
		Mass:     ptr(p.mass),
		Radius:   p.radius,
		Position: []float64{0, 0, 0},
		Velocity: []float64{0, 0, 0},
		Color:    p.color,
		Scale:    ptr(false),
		Trail:    ptr(false),
	}
}

var Presets = map[string]func() *File{
	"sun-earth": func() *File {
		return &File{
			Bodies: []Body{central(sun), circular(earth, sun.mass)},
			Simulation: Simulation{
				Dt: 0.1, ScaleFactor: DefaultScaleFactor, Time: 365.25, Integrator: "verlet",
			},
		}
	},
	"inner-solar": func() *File {
		bodies := []Body{central(sun)}
		for _, p := range []planet{mercury, venus, earth, mars} {
			bodies = append(bodies, circular(p, sun.mass))
		}
		return &File{
			Bodies: bodies,
			Simulation: Simulation{
				Dt: 0.05, ScaleFactor: DefaultScaleFactor, Time: 687, Integrator: "rk4",
			},
		}
	},
	"binary": func() *File {
		// Two half-solar masses one AU apart, each circling the barycenter.
		const m, sep = 0.5, 1.0
		v := math.Sqrt(gravity.G*m*(sep/2)) / sep
		star := func(name string, x, vy float64, color []int) Body {
			return Body{
				Name:     name,
				Mass:     ptr(m),
				Radius:   0.0037,
				Position: []float64{x, 0, 0},
				Velocity: []float64{0, vy, 0},
				Color:    color,
			}
		}
		return &File{
			Bodies: []Body{
				star("A", sep/2, v, []int{255, 230, 180}),
				star("B", -sep/2, -v, []int{180, 200, 255}),
			},
			Simulation: Simulation{
				Dt: 0.1, ScaleFactor: 100, Time: 1000, Integrator: "verlet",
			},
		}
	},
	"figure8": func() *File {
		// Chenciner-Montgomery choreography, given for G = 1 and scaled to
		// days by sqrt(G). One period is about 368 days.
		k := math.Sqrt(gravity.G)
		vx, vy := 0.93240737*k, 0.86473146*k
		star := func(name string, x, y, vx, vy float64, color []int) Body {
			return Body{
				Name:     name,
				Mass:     ptr(1.0),
				Radius:   0.00465,
				Position: []float64{x, y, 0},
				Velocity: []float64{vx, vy, 0},
				Color:    color,
			}
		}
		return &File{
			Bodies: []Body{
				star("A", -0.97000436, 0.24308753, vx/2, vy/2, []int{255, 120, 120}),
				star("B", 0.97000436, -0.24308753, vx/2, vy/2, []int{120, 255, 120}),
				star("C", 0, 0, -vx, -vy, []int{120, 160, 255}),
			},
			Simulation: Simulation{
				Dt: 0.05, ScaleFactor: 10, Time: 367.74, Integrator: "rk4",
			},
		}
	},
}

// GetPreset returns a fresh copy of the named preset, or nil.
func GetPreset(name string) *File {
	build, ok := Presets[name]
	if !ok {
		return nil
	}
	return build()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
