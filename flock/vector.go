package flock

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// setMag rescales v to length mag. The zero vector stays zero.
func setMag(v r3.Vec, mag float64) r3.Vec {
	n := r3.Norm(v)
	if n == 0 {
		return r3.Vec{}
	}
	return r3.Scale(mag/n, v)
}

// limit caps the length of v at mag.
func limit(v r3.Vec, mag float64) r3.Vec {
	if r3.Norm(v) > mag {
		return setMag(v, mag)
	}
	return v
}

// angleBetween returns the angle between a and b in radians. Either
// vector being zero yields NaN.
func angleBetween(a, b r3.Vec) float64 {
	denom := r3.Norm(a) * r3.Norm(b)
	if denom == 0 {
		return math.NaN()
	}
	c := r3.Dot(a, b) / denom
	return math.Acos(math.Max(-1, math.Min(1, c)))
}

// steer turns a desired heading into a bounded acceleration: the heading
// is set to full speed, the current velocity subtracted and the result
// capped at maxAcc.
func steer(desired, vel r3.Vec, maxVel, maxAcc float64) r3.Vec {
	return limit(r3.Sub(setMag(desired, maxVel), vel), maxAcc)
}
