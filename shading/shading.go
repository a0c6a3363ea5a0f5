// Package shading assigns per-face colors to sponge meshes.
//
// Distance-based schemes group faces by the ring they were built on, find
// each ring's local center, and shade faces by their normalised planar
// distance from it. Faces whose rounded distances match share a material.
package shading

import (
	"fmt"
	"math"
	"strconv"

	"github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/reef/surface"
)

// Scheme selects the coloring policy.
type Scheme uint8

const (
	CustomMatte Scheme = iota
	CustomDepth
	Rugrats
	Glass
)

var schemeNames = map[Scheme]string{
	CustomMatte: "custom_matte",
	CustomDepth: "custom_depth",
	Rugrats:     "rugrats",
	Glass:       "glass",
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
	return CustomMatte, fmt.Errorf("unknown shading scheme %q", name)
}

// ProceduralGlass names the host-side shader graph glass materials route to.
const ProceduralGlass = "glass"

// Material is a flat color, or a reference to a host procedural shader.
type Material struct {
	Name       string
	Color      colorful.Color
	Alpha      float64
	Procedural string // Non-empty when the host should build a shader graph
}

// Hex returns the color as #rrggbb.
func (m Material) Hex() string {
	return m.Color.Clamped().Hex()
}

// Assignment binds each face to a material index.
type Assignment struct {
	Materials    []Material
	FaceMaterial []int
}

// Palette holds the scheme and base channels.
type Palette struct {
	Scheme Scheme
	Base   colorful.Color
}

// MapRange linearly rescales value from [inMin, inMax] to [outMin, outMax].
func MapRange(value, inMin, inMax, outMin, outMax float64) float64 {
	return (value-inMin)/(inMax-inMin)*(outMax-outMin) + outMin
}

// ColorForDistance returns the color of a face at normalised distance d.
func ColorForDistance(scheme Scheme, base colorful.Color, d float64) colorful.Color {
	switch scheme {
	case CustomDepth:
		return colorful.Color{
			R: 1 - (1-base.R)*(1-d),
			G: 1 - (1-base.G)*(1-d),
			B: 1 - (1-base.B)*(1-d),
		}
	case Rugrats:
		switch {
		case d > 0.75:
			return colorful.Color{R: d / 5, G: 1, B: d / 5}
		case d < 0.25:
			return colorful.Color{R: 1, G: d / 5, B: d / 5}
		default:
			return colorful.Color{R: d / 5, G: d / 5, B: 1}
		}
	}
	return base
}

// Paint assigns materials to every face of m.
func Paint(m *surface.Mesh, p Palette) Assignment {
	switch p.Scheme {
	case CustomMatte:
		return uniform(m, Material{Name: "color", Color: p.Base, Alpha: 1})
	case Glass:
		return uniform(m, Material{Name: "glass", Color: p.Base, Alpha: 1, Procedural: ProceduralGlass})
	}
	return byDistance(m, p)
}

func uniform(m *surface.Mesh, mat Material) Assignment {
	return Assignment{
		Materials:    []Material{mat},
		FaceMaterial: make([]int, len(m.Faces)),
	}
}

// Ring holds the per-row statistics of distance shading.
type Ring struct {
	Center   r3.Vec
	Min, Max float64
}

// RingDistances returns, for every face, its planar distance from the
// local center of its ring and that ring's statistics.
func RingDistances(m *surface.Mesh) (dist []float64, rings []Ring) {
	rows := m.Rows()
	centroids := make([]r3.Vec, len(m.Faces))
	members := make(map[int][]int)
	for i, f := range m.Faces {
		centroids[i] = m.Centroid(f)
		members[rows[i]] = append(members[rows[i]], i)
	}

	dist = make([]float64, len(m.Faces))
	rings = make([]Ring, len(m.Faces))
	for _, faces := range members {
		xs := make([]float64, len(faces))
		ys := make([]float64, len(faces))
		for k, fi := range faces {
			xs[k] = centroids[fi].X
			ys[k] = centroids[fi].Y
		}
		center := r3.Vec{X: floats.Sum(xs) / float64(len(faces)), Y: floats.Sum(ys) / float64(len(faces))}

		ds := make([]float64, len(faces))
		for k, fi := range faces {
			ds[k] = math.Hypot(centroids[fi].X-center.X, centroids[fi].Y-center.Y)
			dist[fi] = ds[k]
		}
		ring := Ring{Center: center, Min: floats.Min(ds), Max: floats.Max(ds)}
		for _, fi := range faces {
			rings[fi] = ring
		}
	}
	return dist, rings
}

// NormalizedDistances maps each face's ring distance into [0, 1], rounded
// to two decimals. A ring whose faces are all equidistant maps to 0.
func NormalizedDistances(m *surface.Mesh) []float64 {
	dist, rings := RingDistances(m)
	out := make([]float64, len(dist))
	for i, d := range dist {
		r := rings[i]
		if r.Max == r.Min {
			continue
		}
		out[i] = round2(MapRange(d, r.Min, r.Max, 0, 1))
	}
	return out
}

func byDistance(m *surface.Mesh, p Palette) Assignment {
	norm := NormalizedDistances(m)

	a := Assignment{FaceMaterial: make([]int, len(m.Faces))}
	index := make(map[int]int)
	for i, d := range norm {
		key := int(math.Round(d * 100))
		mi, ok := index[key]
		if !ok {
			mi = len(a.Materials)
			index[key] = mi
			a.Materials = append(a.Materials, Material{
				Name:  fmt.Sprintf("color_%d", i),
				Color: ColorForDistance(p.Scheme, p.Base, d),
				Alpha: 1,
			})
		}
		a.FaceMaterial[i] = mi
	}
	return a
}

// round2 rounds to two decimals from the exact binary value, with exact
// halves going to the even digit.
func round2(v float64) float64 {
	r, _ := strconv.ParseFloat(strconv.FormatFloat(v, 'f', 2, 64), 64)
	return r
}
