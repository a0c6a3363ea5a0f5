package flock

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// DefaultProbeCount is the number of escape directions tried when an
// obstacle is ahead.
const DefaultProbeCount = 200

// Probes returns n unit directions spread over the sphere on a Fibonacci
// lattice. Probe 0 is +Z, the boid's forward axis, and later probes spiral
// away from it toward -Z.
func Probes(n int) []r3.Vec {
	if n < 2 {
		n = DefaultProbeCount
	}
	phi := (1 + math.Sqrt(5)) / 2
	out := make([]r3.Vec, n)
	for i := range out {
		t := float64(i) / float64(n-1)
		inc := math.Acos(1 - 2*t)
		a := 2 * math.Pi * phi * float64(i)
		out[i] = r3.Vec{
			X: math.Sin(inc) * math.Cos(a),
			Y: math.Sin(inc) * math.Sin(a),
			Z: math.Cos(inc),
		}
	}
	return out
}

// Basis is a boid-local frame: Forward tracks the velocity and Up is the
// world Z axis projected off it.
type Basis struct {
	Right, Up, Forward r3.Vec
}

var identityBasis = Basis{
	Right:   r3.Vec{X: 1},
	Up:      r3.Vec{Y: 1},
	Forward: r3.Vec{Z: 1},
}

// BasisFor returns the frame tracking vel. A zero velocity gives the
// world frame.
func BasisFor(vel r3.Vec) Basis {
	if vel == (r3.Vec{}) {
		return identityBasis
	}
	f := r3.Unit(vel)
	ref := r3.Vec{Z: 1}
	if math.Abs(f.Z) > 1-1e-9 {
		ref = r3.Vec{Y: 1}
	}
	x := r3.Unit(r3.Cross(ref, f))
	y := r3.Cross(f, x)
	return Basis{Right: x, Up: y, Forward: f}
}

// ToWorld maps a local direction into the frame.
func (b Basis) ToWorld(local r3.Vec) r3.Vec {
	return r3.Add(r3.Add(r3.Scale(local.X, b.Right), r3.Scale(local.Y, b.Up)), r3.Scale(local.Z, b.Forward))
}

// Quat returns the rotation taking the world axes onto the frame.
func (b Basis) Quat() quat.Number {
	// Rotation matrix columns are Right, Up, Forward
	m00, m01, m02 := b.Right.X, b.Up.X, b.Forward.X
	m10, m11, m12 := b.Right.Y, b.Up.Y, b.Forward.Y
	m20, m21, m22 := b.Right.Z, b.Up.Z, b.Forward.Z

	var q quat.Number
	switch tr := m00 + m11 + m22; {
	case tr > 0:
		s := 2 * math.Sqrt(tr+1)
		q = quat.Number{Real: s / 4, Imag: (m21 - m12) / s, Jmag: (m02 - m20) / s, Kmag: (m10 - m01) / s}
	case m00 > m11 && m00 > m22:
		s := 2 * math.Sqrt(1+m00-m11-m22)
		q = quat.Number{Real: (m21 - m12) / s, Imag: s / 4, Jmag: (m01 + m10) / s, Kmag: (m02 + m20) / s}
	case m11 > m22:
		s := 2 * math.Sqrt(1+m11-m00-m22)
		q = quat.Number{Real: (m02 - m20) / s, Imag: (m01 + m10) / s, Jmag: s / 4, Kmag: (m12 + m21) / s}
	default:
		s := 2 * math.Sqrt(1+m22-m00-m11)
		q = quat.Number{Real: (m10 - m01) / s, Imag: (m02 + m20) / s, Jmag: (m12 + m21) / s, Kmag: s / 4}
	}
	return quat.Scale(1/quat.Abs(q), q)
}
