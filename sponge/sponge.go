// Package sponge generates sea sponge meshes: rotund cylinders bumped by
// noise, shaded per face and tilted at random.
package sponge

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand"

	"github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/reef/config"
	"github.com/pthm-cable/reef/displace"
	"github.com/pthm-cable/reef/noise"
	"github.com/pthm-cable/reef/shading"
	"github.com/pthm-cable/reef/surface"
	"github.com/pthm-cable/reef/telemetry"
)

// Sponge is one generated sponge in its local frame.
type Sponge struct {
	Name    string
	Mesh    *surface.Mesh
	Paint   shading.Assignment
	Radius  float64
	Length  float64
	Reducer float64
	// Euler XYZ rotation in radians, applied by World.
	Rotation r3.Vec
}

// Orientation returns the rotation as a unit quaternion. X is applied
// first, then Y, then Z.
func (s *Sponge) Orientation() quat.Number {
	half := r3.Scale(0.5, s.Rotation)
	qx := quat.Number{Real: math.Cos(half.X), Imag: math.Sin(half.X)}
	qy := quat.Number{Real: math.Cos(half.Y), Jmag: math.Sin(half.Y)}
	qz := quat.Number{Real: math.Cos(half.Z), Kmag: math.Sin(half.Z)}
	return quat.Mul(qz, quat.Mul(qy, qx))
}

// Rotate turns p by the unit quaternion q.
func Rotate(q quat.Number, p r3.Vec) r3.Vec {
	r := quat.Mul(quat.Mul(q, quat.Number{Imag: p.X, Jmag: p.Y, Kmag: p.Z}), quat.Conj(q))
	return r3.Vec{X: r.Imag, Y: r.Jmag, Z: r.Kmag}
}

// World returns a rotated copy of the mesh.
func (s *Sponge) World() *surface.Mesh {
	q := s.Orientation()
	out := surface.Empty()
	out.Append(s.Mesh)
	out.Transform(func(p r3.Vec) r3.Vec { return Rotate(q, p) })
	return out
}

// Record summarises the sponge for telemetry output.
func (s *Sponge) Record() telemetry.SpongeRecord {
	return telemetry.SpongeRecord{
		Name:      s.Name,
		Radius:    s.Radius,
		Length:    s.Length,
		Reducer:   s.Reducer,
		RotX:      s.Rotation.X * 180 / math.Pi,
		RotY:      s.Rotation.Y * 180 / math.Pi,
		RotZ:      s.Rotation.Z * 180 / math.Pi,
		Vertices:  len(s.Mesh.Vertices),
		Faces:     len(s.Mesh.Faces),
		Materials: len(s.Paint.Materials),
	}
}

// Generator produces sponges from one configuration and random stream.
type Generator struct {
	cfg     config.SpongeConfig
	rng     *rand.Rand
	field   noise.Field
	bumps   displace.Spec
	palette shading.Palette
	perf    *telemetry.PerfCollector
}

// NewGenerator validates the scheme names in cfg and returns a Generator.
func NewGenerator(cfg config.SpongeConfig, rng *rand.Rand, field noise.Field) (*Generator, error) {
	texturing, err := displace.ParseScheme(cfg.TexturingScheme)
	if err != nil {
		return nil, err
	}
	shade, err := shading.ParseScheme(cfg.ShadingScheme)
	if err != nil {
		return nil, err
	}

	return &Generator{
		cfg:   cfg,
		rng:   rng,
		field: field,
		bumps: displace.Spec{
			Scheme:    texturing,
			BumpScale: cfg.BumpScale,
			Octaves:   cfg.TurbulenceOctaves,
			Amplitude: cfg.TurbulenceAmplitude,
			Frequency: cfg.TurbulenceFrequency,
			H:         cfg.DnoiseDist,
		},
		palette: shading.Palette{
			Scheme: shade,
			Base:   colorful.Color{R: cfg.RedChannel, G: cfg.GreenChannel, B: cfg.BlueChannel},
		},
	}, nil
}

// SetPerf enables phase timing; each sponge is one tick.
func (g *Generator) SetPerf(p *telemetry.PerfCollector) {
	g.perf = p
}

func (g *Generator) uniform(a, b float64) float64 {
	return a + (b-a)*g.rng.Float64()
}

// degrees draws an integer in [lo, hi) and returns it in radians. An
// empty range yields 0.
func (g *Generator) degrees(lo, hi int) float64 {
	if hi <= lo {
		return 0
	}
	return float64(lo+g.rng.Intn(hi-lo)) * math.Pi / 180
}

func (g *Generator) phase(name string) {
	if g.perf != nil {
		g.perf.StartPhase(name)
	}
}

// Make builds, displaces, paints and tilts one sponge.
func (g *Generator) Make(name string) (*Sponge, error) {
	if g.perf != nil {
		g.perf.StartTick()
		defer g.perf.EndTick()
	}

	s := &Sponge{Name: name}
	s.Radius = g.uniform(g.cfg.MinRadius, g.cfg.MaxRadius)
	s.Length = g.uniform(g.cfg.MinHeight, g.cfg.MaxHeight)

	g.phase(telemetry.PhaseSpongeBuild)
	spec := RotundCylinder(s.Radius, g.cfg.Rotundness, s.Length, g.cfg.Resolution)
	spec.CloseV = g.cfg.CloseV
	m, err := surface.Build(spec)
	if err != nil {
		return nil, fmt.Errorf("building %s: %w", name, err)
	}
	s.Mesh = m

	g.phase(telemetry.PhaseDisplace)
	s.Reducer = displace.Apply(m, g.bumps, g.field, g.rng)

	g.phase(telemetry.PhasePaint)
	s.Paint = shading.Paint(m, g.palette)

	s.Rotation = r3.Vec{
		X: g.degrees(-g.cfg.XRot, g.cfg.XRot),
		Y: g.degrees(-g.cfg.YRot, g.cfg.YRot),
		Z: g.degrees(0, g.cfg.ZRot),
	}

	slog.Debug("sponge generated",
		"name", name,
		"radius", s.Radius,
		"length", s.Length,
		"reducer", s.Reducer,
		"faces", len(m.Faces),
		"materials", len(s.Paint.Materials),
	)
	return s, nil
}

// Generate makes the configured number of sponges and commits each, in
// world orientation, to sink. Sponges are named sponge_0, sponge_1, ...
func (g *Generator) Generate(sink MeshSink) ([]*Sponge, error) {
	sponges := make([]*Sponge, 0, g.cfg.Count)
	for i := 0; i < g.cfg.Count; i++ {
		s, err := g.Make(fmt.Sprintf("sponge_%d", i))
		if err != nil {
			return sponges, err
		}
		if _, err := sink.Commit(s.Name, s.World(), s.Paint); err != nil {
			return sponges, err
		}
		sponges = append(sponges, s)
	}
	return sponges, nil
}

// Join merges the world-space meshes of sponges into one object. Material
// lists are concatenated and face indices remapped accordingly.
func Join(sponges []*Sponge) (*surface.Mesh, shading.Assignment) {
	m := surface.Empty()
	var paint shading.Assignment
	for _, s := range sponges {
		offset := len(paint.Materials)
		m.Append(s.World())
		paint.Materials = append(paint.Materials, s.Paint.Materials...)
		for _, mi := range s.Paint.FaceMaterial {
			paint.FaceMaterial = append(paint.FaceMaterial, mi+offset)
		}
	}
	return m, paint
}
