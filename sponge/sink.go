package sponge

import (
	"fmt"

	"github.com/pthm-cable/reef/shading"
	"github.com/pthm-cable/reef/surface"
)

// Handle identifies a committed object within its sink.
type Handle int

// MeshSink receives finished meshes. A host application implements it to
// turn them into scene objects.
type MeshSink interface {
	Commit(name string, m *surface.Mesh, paint shading.Assignment) (Handle, error)
}

// Object is a mesh held by a MemorySink.
type Object struct {
	Name  string
	Mesh  *surface.Mesh
	Paint shading.Assignment
}

// MemorySink keeps committed objects in order.
type MemorySink struct {
	Objects []Object
}

// Commit stores the object and returns its index.
func (s *MemorySink) Commit(name string, m *surface.Mesh, paint shading.Assignment) (Handle, error) {
	if err := m.Check(); err != nil {
		return -1, fmt.Errorf("committing %s: %w", name, err)
	}
	if len(paint.FaceMaterial) != len(m.Faces) {
		return -1, fmt.Errorf("committing %s: %d face materials for %d faces", name, len(paint.FaceMaterial), len(m.Faces))
	}
	s.Objects = append(s.Objects, Object{Name: name, Mesh: m, Paint: paint})
	return Handle(len(s.Objects) - 1), nil
}

// Lookup returns the object for h.
func (s *MemorySink) Lookup(h Handle) (Object, bool) {
	if h < 0 || int(h) >= len(s.Objects) {
		return Object{}, false
	}
	return s.Objects[h], true
}
