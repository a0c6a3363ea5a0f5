package flock

import (
	"github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/reef/telemetry"
)

// groupColors are the first group colors; further groups get evenly
// spaced hues.
var groupColors = []colorful.Color{
	{R: 1, G: 0.5, B: 0},
	{R: 1, G: 0, B: 0},
	{R: 1, G: 0.9, B: 0},
	{R: 1, G: 0, B: 0.28},
}

// GroupColor returns the display color of group g.
func GroupColor(g int) colorful.Color {
	if g >= 0 && g < len(groupColors) {
		return groupColors[g]
	}
	return colorful.Hsv(float64(g*47%360), 0.85, 1)
}

// Pose is what a renderer needs to place one boid on one frame.
type Pose struct {
	Frame       int
	Boid        int
	Group       int
	Position    r3.Vec
	Orientation quat.Number // Local +Z along the velocity, +Y toward world up
	Color       colorful.Color
	Avoiding    bool
}

// Record flattens the pose for CSV output.
func (p Pose) Record() telemetry.PoseRecord {
	return telemetry.PoseRecord{
		Frame:    p.Frame,
		Boid:     p.Boid,
		Group:    p.Group,
		X:        p.Position.X,
		Y:        p.Position.Y,
		Z:        p.Position.Z,
		QW:       p.Orientation.Real,
		QX:       p.Orientation.Imag,
		QY:       p.Orientation.Jmag,
		QZ:       p.Orientation.Kmag,
		Color:    p.Color.Hex(),
		Avoiding: p.Avoiding,
	}
}

// Records flattens a frame of poses.
func Records(poses []Pose) []telemetry.PoseRecord {
	out := make([]telemetry.PoseRecord, len(poses))
	for i, p := range poses {
		out[i] = p.Record()
	}
	return out
}

// Poses returns the current pose of every boid in creation order.
func (s *Sim) Poses() []Pose {
	poses := make([]Pose, 0, len(s.boids))
	for _, e := range s.boids {
		k, a := s.mapper.Get(e)
		poses = append(poses, Pose{
			Frame:       s.frame,
			Boid:        a.ID,
			Group:       a.Group,
			Position:    k.Position,
			Orientation: BasisFor(k.Velocity).Quat(),
			Color:       GroupColor(a.Group),
			Avoiding:    a.Avoiding,
		})
	}
	return poses
}
