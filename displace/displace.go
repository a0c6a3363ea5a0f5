// Package displace bumps surface vertices sideways with noise.
package displace

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/reef/noise"
	"github.com/pthm-cable/reef/surface"
)

// Scheme selects how vertex offsets are derived.
type Scheme uint8

const (
	None       Scheme = iota // Smooth surface, vertices untouched
	ValueNoise               // Vector noise at the vertex
	Turbulence               // Octave-summed vector noise
	Stucco                   // Unit gradient of the turbulence field
)

var schemeNames = map[Scheme]string{
	None:       "none",
	ValueNoise: "perlin",
	Turbulence: "turbulence",
	Stucco:     "stucco",
}

func (s Scheme) String() string {
	if name, ok := schemeNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Scheme(%d)", uint8(s))
}

// ParseScheme maps a config name to a Scheme.
func ParseScheme(name string) (Scheme, error) {
	for s, n := range schemeNames {
		if n == name {
			return s, nil
		}
	}
	return None, fmt.Errorf("unknown texturing scheme %q", name)
}

// MarshalText implements encoding.TextMarshaler.
func (s Scheme) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Scheme) UnmarshalText(text []byte) error {
	parsed, err := ParseScheme(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Spec holds displacement parameters.
type Spec struct {
	Scheme    Scheme
	BumpScale int // 1-10; larger means bigger bumps

	Octaves   int
	Amplitude float64 // Per-octave amplitude multiplier
	Frequency float64 // Per-octave frequency multiplier

	H float64 // Stucco finite-difference step
}

// BumpReducer draws the divisor applied to every offset. Larger n gives a
// smaller divisor and therefore larger bumps.
func BumpReducer(rng *rand.Rand, n int) float64 {
	lo := float64((10-n)*10 + 5)
	hi := float64((10-n)*10 + 15)
	return lo + rng.Float64()*(hi-lo)
}

// Displacer computes per-vertex offsets for a Spec.
type Displacer struct {
	spec  Spec
	field noise.Field
}

// New creates a Displacer sampling field.
func New(spec Spec, field noise.Field) *Displacer {
	return &Displacer{spec: spec, field: field}
}

// Offset returns the raw (x, y) offset for p before the reducer is
// applied. Z is always zero.
func (d *Displacer) Offset(p r3.Vec) r3.Vec {
	var off r3.Vec
	switch d.spec.Scheme {
	case ValueNoise:
		off = noise.Vector(d.field, p)
	case Turbulence:
		off = d.turbulence(p)
	case Stucco:
		off = d.stucco(p)
	default:
		return r3.Vec{}
	}
	off.Z = 0
	return off
}

func (d *Displacer) turbulence(p r3.Vec) r3.Vec {
	return noise.Turbulence(d.field, p, d.spec.Octaves, d.spec.Amplitude, d.spec.Frequency)
}

// stucco estimates the turbulence gradient with forward differences along
// x and y and normalises it. A zero gradient stays zero.
func (d *Displacer) stucco(p r3.Vec) r3.Vec {
	h := d.spec.H
	if h <= 0 {
		return r3.Vec{}
	}
	base := d.turbulence(p)
	x2 := d.turbulence(r3.Vec{X: p.X + h, Y: p.Y, Z: p.Z}).X
	y2 := d.turbulence(r3.Vec{X: p.X, Y: p.Y + h, Z: p.Z}).Y

	grad := r3.Vec{X: (x2 - base.X) / h, Y: (y2 - base.Y) / h}
	if grad == (r3.Vec{}) {
		return grad
	}
	return r3.Unit(grad)
}

// Apply displaces every vertex of m in place and returns the reducer used.
// X and Y move by offset/reducer; Z is never modified. The None scheme
// uses a reducer of 1 and leaves the mesh untouched.
func Apply(m *surface.Mesh, spec Spec, field noise.Field, rng *rand.Rand) float64 {
	if spec.Scheme == None {
		return 1
	}

	reducer := BumpReducer(rng, spec.BumpScale)
	d := New(spec, field)
	for i, v := range m.Vertices {
		off := d.Offset(v)
		m.Vertices[i] = r3.Vec{
			X: v.X + off.X/reducer,
			Y: v.Y + off.Y/reducer,
			Z: v.Z,
		}
	}
	return reducer
}
