package flock

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/reef/config"
)

// Obstacle is a solid boids steer around. Raycast reports the first
// surface point hit along dir (a unit vector) within maxDist of origin.
// An error is treated as a miss.
type Obstacle interface {
	Raycast(origin, dir r3.Vec, maxDist float64) (hit r3.Vec, ok bool, err error)
}

// RaycastFunc adapts a function to Obstacle.
type RaycastFunc func(origin, dir r3.Vec, maxDist float64) (r3.Vec, bool, error)

// Raycast calls f.
func (f RaycastFunc) Raycast(origin, dir r3.Vec, maxDist float64) (r3.Vec, bool, error) {
	return f(origin, dir, maxDist)
}

// Box is an axis-aligned box surface. Rays starting inside hit the far
// wall, so a box can enclose the flock.
type Box struct {
	r3.Box
}

// NewBox returns the box centred on center with the given half extents.
func NewBox(center, half r3.Vec) Box {
	return Box{r3.Box{Min: r3.Sub(center, half), Max: r3.Add(center, half)}}
}

// Raycast intersects the ray with the box faces using the slab method.
func (b Box) Raycast(origin, dir r3.Vec, maxDist float64) (r3.Vec, bool, error) {
	tNear, tFar := math.Inf(-1), math.Inf(1)
	o := [3]float64{origin.X, origin.Y, origin.Z}
	d := [3]float64{dir.X, dir.Y, dir.Z}
	lo := [3]float64{b.Min.X, b.Min.Y, b.Min.Z}
	hi := [3]float64{b.Max.X, b.Max.Y, b.Max.Z}

	for i := 0; i < 3; i++ {
		if d[i] == 0 {
			if o[i] < lo[i] || o[i] > hi[i] {
				return r3.Vec{}, false, nil
			}
			continue
		}
		t1 := (lo[i] - o[i]) / d[i]
		t2 := (hi[i] - o[i]) / d[i]
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tNear = math.Max(tNear, t1)
		tFar = math.Min(tFar, t2)
	}
	if tNear > tFar || tFar < 0 {
		return r3.Vec{}, false, nil
	}

	t := tNear
	if t < 0 {
		t = tFar
	}
	if t > maxDist {
		return r3.Vec{}, false, nil
	}
	return r3.Add(origin, r3.Scale(t, dir)), true, nil
}

// Sphere is a spherical surface. Rays starting inside hit the far side.
type Sphere struct {
	Center r3.Vec
	Radius float64
}

// Raycast intersects the ray with the sphere.
func (s Sphere) Raycast(origin, dir r3.Vec, maxDist float64) (r3.Vec, bool, error) {
	oc := r3.Sub(origin, s.Center)
	a := r3.Dot(dir, dir)
	if a == 0 {
		return r3.Vec{}, false, nil
	}
	b := r3.Dot(oc, dir)
	c := r3.Dot(oc, oc) - s.Radius*s.Radius
	disc := b*b - a*c
	if disc < 0 {
		return r3.Vec{}, false, nil
	}

	sq := math.Sqrt(disc)
	t := (-b - sq) / a
	if t < 0 {
		t = (-b + sq) / a
	}
	if t < 0 || t > maxDist {
		return r3.Vec{}, false, nil
	}
	return r3.Add(origin, r3.Scale(t, dir)), true, nil
}

// BuildObstacles turns the configured obstacle list into solids. When
// RegionObstacle is set the region walls come first.
func BuildObstacles(c config.FlockConfig) ([]Obstacle, error) {
	var out []Obstacle
	if c.RegionObstacle {
		out = append(out, NewBox(r3.Vec{}, r3.Vec{X: c.XRange, Y: c.YRange, Z: c.ZRange}))
	}
	for i, o := range c.Obstacles {
		center := r3.Vec{X: o.Center[0], Y: o.Center[1], Z: o.Center[2]}
		switch o.Kind {
		case "box":
			out = append(out, NewBox(center, r3.Vec{X: o.HalfExtents[0], Y: o.HalfExtents[1], Z: o.HalfExtents[2]}))
		case "sphere":
			out = append(out, Sphere{Center: center, Radius: o.Radius})
		default:
			return nil, fmt.Errorf("obstacle %d: unknown kind %q", i, o.Kind)
		}
	}
	return out, nil
}
