package components

import "gonum.org/v1/gonum/spatial/r3"

// Kinematics is a boid's motion state. Acceleration is cleared by every
// integration step.
type Kinematics struct {
	Position     r3.Vec
	Velocity     r3.Vec
	Acceleration r3.Vec
}
