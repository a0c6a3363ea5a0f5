// Package noise provides deterministic, seeded noise fields and the vector
// and turbulence samplers used to bump sponge surfaces.
package noise

import (
	"fmt"
	"math"

	"github.com/ojrac/opensimplex-go"
	"gonum.org/v1/gonum/spatial/r3"
)

// Field is a scalar noise function over 3D space. Implementations must be
// pure: the same point always yields the same value.
type Field interface {
	Eval3(x, y, z float64) float64
}

// Basis names accepted by New.
const (
	BasisPerlin      = "perlin"
	BasisOpenSimplex = "opensimplex"
)

// New returns the named noise basis seeded with seed.
func New(basis string, seed int64) (Field, error) {
	switch basis {
	case BasisPerlin, "":
		return NewPerlin(seed), nil
	case BasisOpenSimplex:
		return NewOpenSimplex(seed), nil
	}
	return nil, fmt.Errorf("unknown noise basis %q", basis)
}

// OpenSimplex adapts an opensimplex noise generator to Field.
type OpenSimplex struct {
	n opensimplex.Noise
}

// NewOpenSimplex creates an OpenSimplex field for seed.
func NewOpenSimplex(seed int64) *OpenSimplex {
	return &OpenSimplex{n: opensimplex.New(seed)}
}

// Eval3 returns noise in [-1, 1].
func (o *OpenSimplex) Eval3(x, y, z float64) float64 {
	return o.n.Eval3(x, y, z)
}

// Channel offsets keep the three components of a vector sample
// decorrelated and off the integer lattice.
var channelOffsets = [3]r3.Vec{
	{X: 13.71, Y: 59.13, Z: 27.37},
	{X: 71.93, Y: 3.31, Z: 41.77},
	{X: 29.39, Y: 87.17, Z: 5.97},
}

// Vector samples f three times around p, one sample per component.
func Vector(f Field, p r3.Vec) r3.Vec {
	var out [3]float64
	for i, off := range channelOffsets {
		q := r3.Add(p, off)
		out[i] = f.Eval3(q.X, q.Y, q.Z)
	}
	return r3.Vec{X: out[0], Y: out[1], Z: out[2]}
}

// Turbulence sums octaves of vector noise. Each octave multiplies the
// amplitude by amplitudeScale and the frequency by frequencyScale,
// starting from 1 and 1. Zero octaves yields the zero vector.
func Turbulence(f Field, p r3.Vec, octaves int, amplitudeScale, frequencyScale float64) r3.Vec {
	var sum r3.Vec
	amp, freq := 1.0, 1.0
	for i := 0; i < octaves; i++ {
		sum = r3.Add(sum, r3.Scale(amp, Vector(f, r3.Scale(freq, p))))
		amp *= amplitudeScale
		freq *= frequencyScale
		if amp == 0 || math.IsInf(freq, 0) {
			break
		}
	}
	return sum
}
