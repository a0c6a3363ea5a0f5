// Package surface builds quad meshes from parametric (u, v) surfaces.
package surface

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

// Face is an ordered list of vertex indices. Grid faces are quads;
// pole caps are triangles.
type Face []int

// Mesh is the data handed to a host for rendering.
type Mesh struct {
	Vertices []r3.Vec
	Faces    []Face
	Edges    [][2]int // Always empty for generated surfaces

	// FaceRows holds the grid row each face was built from. Faces on the
	// same ring share a row; pole caps use -1 (first ring) and the
	// v step count (last ring). It may be left empty on meshes built by
	// hand; Rows then derives rows from centroid heights.
	FaceRows []int
}

// Empty returns a mesh with no geometry.
func Empty() *Mesh {
	return &Mesh{
		Vertices: []r3.Vec{},
		Faces:    []Face{},
		Edges:    [][2]int{},
		FaceRows: []int{},
	}
}

// IsEmpty reports whether the mesh has no vertices and no faces.
func (m *Mesh) IsEmpty() bool {
	return len(m.Vertices) == 0 && len(m.Faces) == 0
}

// Centroid returns the mean of the face's vertex positions.
func (m *Mesh) Centroid(f Face) r3.Vec {
	var sum r3.Vec
	for _, idx := range f {
		sum = r3.Add(sum, m.Vertices[idx])
	}
	return r3.Scale(1/float64(len(f)), sum)
}

// Check verifies every face index refers to an existing vertex.
func (m *Mesh) Check() error {
	for i, f := range m.Faces {
		if len(f) < 3 {
			return fmt.Errorf("face %d has %d corners", i, len(f))
		}
		for _, idx := range f {
			if idx < 0 || idx >= len(m.Vertices) {
				return fmt.Errorf("face %d index %d out of range [0, %d)", i, idx, len(m.Vertices))
			}
		}
	}
	if len(m.FaceRows) != 0 && len(m.FaceRows) != len(m.Faces) {
		return fmt.Errorf("%d face rows for %d faces", len(m.FaceRows), len(m.Faces))
	}
	return nil
}

// Rows returns the ring row of every face. When FaceRows does not cover
// every face, faces whose centroids share an exact z share a row,
// numbered in first-seen order.
func (m *Mesh) Rows() []int {
	if len(m.FaceRows) == len(m.Faces) {
		return m.FaceRows
	}
	rows := make([]int, len(m.Faces))
	byZ := make(map[float64]int)
	for i, f := range m.Faces {
		z := m.Centroid(f).Z
		r, ok := byZ[z]
		if !ok {
			r = len(byZ)
			byZ[z] = r
		}
		rows[i] = r
	}
	return rows
}

// Append joins other into m, offsetting its face indices. Row indices of
// the appended faces are shifted past m's rows so rings stay distinct.
func (m *Mesh) Append(other *Mesh) {
	m.FaceRows = m.Rows()
	otherRows := other.Rows()
	offset := len(m.Vertices)
	rowOffset := 0
	for _, r := range m.FaceRows {
		if r+2 > rowOffset {
			rowOffset = r + 2
		}
	}

	m.Vertices = append(m.Vertices, other.Vertices...)
	for i, f := range other.Faces {
		shifted := make(Face, len(f))
		for j, idx := range f {
			shifted[j] = idx + offset
		}
		m.Faces = append(m.Faces, shifted)
		m.FaceRows = append(m.FaceRows, otherRows[i]+rowOffset)
	}
	for _, e := range other.Edges {
		m.Edges = append(m.Edges, [2]int{e[0] + offset, e[1] + offset})
	}
}

// Transform applies fn to every vertex in place.
func (m *Mesh) Transform(fn func(r3.Vec) r3.Vec) {
	for i, v := range m.Vertices {
		m.Vertices[i] = fn(v)
	}
}
