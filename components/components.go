// Package components defines ECS components for flock boids.
package components

// Agent holds a boid's identity, steering limits and avoidance state.
type Agent struct {
	ID    int // Creation order; stable for the life of a run
	Group int

	MaxVelocity     float64
	MaxAcceleration float64

	// Cooldown counts frames in which only avoidance steers. It is set on
	// every obstacle hit and decremented once per frame while positive.
	Cooldown int
	Avoiding bool // Rules were suppressed in the last frame

	Neighbors int // Perceived neighbors in the last frame
}
