package surface

import (
	"fmt"
	"log/slog"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/reef/expr"
)

// Axis describes one parameter range of the grid.
type Axis struct {
	Min   float64
	Max   float64
	Steps int  // Number of faces along the axis
	Wrap  bool // Last point joins the first instead of being emitted
}

// Points returns the number of grid points along the axis.
func (a Axis) Points() int {
	if a.Wrap {
		return a.Steps
	}
	return a.Steps + 1
}

// Delta returns the parameter distance between neighbouring points.
func (a Axis) Delta() float64 {
	return (a.Max - a.Min) / float64(a.Steps)
}

// Spec fully describes a parametric surface.
type Spec struct {
	U, V   Axis
	Exprs  expr.Sources
	N      float64 // Free scalar visible to every expression as n
	CloseV bool    // Fan-close both poles when U wraps and V does not
}

// ConfigError reports an invalid Spec, detected before any evaluation.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("surface %s: %s", e.Field, e.Reason)
}

// Validate checks the axis ranges.
func (s Spec) Validate() error {
	for _, ax := range []struct {
		name string
		a    Axis
	}{{"u", s.U}, {"v", s.V}} {
		switch {
		case ax.a.Steps < 1:
			return &ConfigError{Field: ax.name + ".steps", Reason: fmt.Sprintf("must be at least 1, got %d", ax.a.Steps)}
		case math.IsNaN(ax.a.Min) || math.IsInf(ax.a.Min, 0) || math.IsNaN(ax.a.Max) || math.IsInf(ax.a.Max, 0):
			return &ConfigError{Field: ax.name + ".range", Reason: "bounds must be finite"}
		case ax.a.Max < ax.a.Min:
			return &ConfigError{Field: ax.name + ".range", Reason: fmt.Sprintf("inverted range [%g, %g]", ax.a.Min, ax.a.Max)}
		case ax.a.Max == ax.a.Min:
			return &ConfigError{Field: ax.name + ".range", Reason: "zero-length step"}
		}
	}
	return nil
}

// Build evaluates the surface on its (u, v) grid and emits a quad mesh.
// On any failure it returns an empty mesh and the error; partial geometry
// is never returned.
func Build(spec Spec) (*Mesh, error) {
	m, err := build(spec)
	if err != nil {
		slog.Warn("surface generation aborted", "error", err)
		return Empty(), err
	}
	return m, nil
}

func build(spec Spec) (*Mesh, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	sys, err := expr.CompileSystem(spec.Exprs)
	if err != nil {
		return nil, err
	}

	uPoints := spec.U.Points()
	vPoints := spec.V.Points()
	du := spec.U.Delta()
	dv := spec.V.Delta()

	m := &Mesh{
		Vertices: make([]r3.Vec, 0, uPoints*vPoints),
		Faces:    make([]Face, 0, spec.U.Steps*spec.V.Steps),
		Edges:    [][2]int{},
		FaceRows: make([]int, 0, spec.U.Steps*spec.V.Steps),
	}

	for j := 0; j < vPoints; j++ {
		v := spec.V.Min + float64(j)*dv
		for i := 0; i < uPoints; i++ {
			u := spec.U.Min + float64(i)*du
			p, err := sys.Eval(u, v, spec.N)
			if err != nil {
				return nil, err
			}
			m.Vertices = append(m.Vertices, p)
		}
	}

	for j := 0; j < spec.V.Steps; j++ {
		jNext := j + 1
		if spec.V.Wrap && jNext >= vPoints {
			jNext = 0
		}
		for i := 0; i < spec.U.Steps; i++ {
			iNext := i + 1
			if spec.U.Wrap && iNext >= uPoints {
				iNext = 0
			}
			m.Faces = append(m.Faces, Face{
				jNext*uPoints + iNext,
				jNext*uPoints + i,
				j*uPoints + i,
				j*uPoints + iNext,
			})
			m.FaceRows = append(m.FaceRows, j)
		}
	}

	if spec.CloseV && spec.U.Wrap && !spec.V.Wrap {
		closePoles(m, spec)
	}

	return m, nil
}

// closePoles fans triangles across the first and last rings.
func closePoles(m *Mesh, spec Spec) {
	uSteps := spec.U.Steps
	top := spec.V.Steps * spec.U.Points()
	for i := 1; i < uSteps-1; i++ {
		m.Faces = append(m.Faces, Face{uSteps - 1, uSteps - 1 - i, uSteps - 2 - i})
		m.FaceRows = append(m.FaceRows, -1)
		m.Faces = append(m.Faces, Face{top, top + i, top + i + 1})
		m.FaceRows = append(m.FaceRows, spec.V.Steps)
	}
}
