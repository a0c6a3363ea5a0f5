package flock

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/reef/components"
)

// Perceives reports whether a boid at self sees other: other must be
// closer than radius and within angle degrees of self's heading. A
// stationary boid sees in every direction. A neighbor at exactly the same
// position has no direction and is never seen.
func Perceives(self, other r3.Vec, selfVel r3.Vec, radius, angle float64) bool {
	to := r3.Sub(other, self)
	d := r3.Norm(to)
	if d == 0 || d >= radius {
		return false
	}
	if selfVel == (r3.Vec{}) {
		return true
	}
	return angleBetween(selfVel, to)*180/math.Pi < angle
}

// Align steers toward the mean heading of the neighbors.
func Align(self components.Kinematics, neighbors []components.Kinematics, maxVel, maxAcc float64) r3.Vec {
	if len(neighbors) == 0 {
		return r3.Vec{}
	}
	var sum r3.Vec
	for _, n := range neighbors {
		sum = r3.Add(sum, n.Velocity)
	}
	avg := r3.Scale(1/float64(len(neighbors)), sum)
	return steer(avg, self.Velocity, maxVel, maxAcc)
}

// Cohesion steers toward the neighbors' center of mass.
func Cohesion(self components.Kinematics, neighbors []components.Kinematics, maxVel, maxAcc float64) r3.Vec {
	if len(neighbors) == 0 {
		return r3.Vec{}
	}
	var sum r3.Vec
	for _, n := range neighbors {
		sum = r3.Add(sum, n.Position)
	}
	center := r3.Scale(1/float64(len(neighbors)), sum)
	return steer(r3.Sub(center, self.Position), self.Velocity, maxVel, maxAcc)
}

// Separation steers away from the neighbors. Each away vector is divided
// by its distance before averaging.
func Separation(self components.Kinematics, neighbors []components.Kinematics, maxVel, maxAcc float64) r3.Vec {
	if len(neighbors) == 0 {
		return r3.Vec{}
	}
	var sum r3.Vec
	for _, n := range neighbors {
		diff := r3.Sub(self.Position, n.Position)
		d := r3.Norm(diff)
		if d == 0 {
			continue
		}
		sum = r3.Add(sum, r3.Scale(1/d, diff))
	}
	avg := r3.Scale(1/float64(len(neighbors)), sum)
	return steer(avg, self.Velocity, maxVel, maxAcc)
}

// Arbitrate combines steering forces under a budget of maxAcc.
// Avoidance is always applied. Unless suppressed, separation, cohesion
// and alignment follow in that priority order; the first rule that would
// push the running magnitude past maxAcc is rescaled to use exactly the
// remaining budget and every rule after it is dropped.
func Arbitrate(avoidance, separation, cohesion, alignment r3.Vec, maxAcc float64, suppressed bool) r3.Vec {
	acc := avoidance
	if suppressed {
		return acc
	}

	used := r3.Norm(avoidance)
	for _, rule := range [...]r3.Vec{separation, cohesion, alignment} {
		mag := r3.Norm(rule)
		if used+mag > maxAcc {
			return r3.Add(acc, setMag(rule, math.Max(0, maxAcc-used)))
		}
		acc = r3.Add(acc, rule)
		used += mag
	}
	return acc
}
