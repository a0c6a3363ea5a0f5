package surface

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/reef/expr"
)

func unitCylinder(uSteps, vSteps int) Spec {
	return Spec{
		U:     Axis{Min: -math.Pi, Max: math.Pi, Steps: uSteps, Wrap: true},
		V:     Axis{Min: 0, Max: 1, Steps: vSteps},
		Exprs: expr.Sources{X: "cos(u)", Y: "sin(u)", Z: "v"},
		N:     1,
	}
}

func TestAxisPoints(t *testing.T) {
	tests := []struct {
		axis Axis
		want int
	}{
		{Axis{Min: 0, Max: 1, Steps: 4}, 5},
		{Axis{Min: 0, Max: 1, Steps: 4, Wrap: true}, 4},
		{Axis{Min: 0, Max: 1, Steps: 1}, 2},
	}
	for _, tt := range tests {
		if got := tt.axis.Points(); got != tt.want {
			t.Errorf("%+v.Points() = %d, want %d", tt.axis, got, tt.want)
		}
	}
}

func TestBuildCounts(t *testing.T) {
	tests := []struct {
		name         string
		uSteps       int
		vSteps       int
		uWrap, vWrap bool
		wantVerts    int
		wantFaces    int
	}{
		{"open grid", 3, 2, false, false, 4 * 3, 6},
		{"u wrapped", 8, 1, true, false, 8 * 2, 8},
		{"v wrapped", 3, 4, false, true, 4 * 4, 12},
		{"torus", 6, 5, true, true, 6 * 5, 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := Spec{
				U:     Axis{Min: 0, Max: 2 * math.Pi, Steps: tt.uSteps, Wrap: tt.uWrap},
				V:     Axis{Min: 0, Max: 2 * math.Pi, Steps: tt.vSteps, Wrap: tt.vWrap},
				Exprs: expr.Sources{X: "u", Y: "v", Z: "sin(u)*cos(v)"},
			}
			m, err := Build(spec)
			if err != nil {
				t.Fatalf("Build failed: %v", err)
			}
			if len(m.Vertices) != tt.wantVerts {
				t.Errorf("vertices = %d, want %d", len(m.Vertices), tt.wantVerts)
			}
			if len(m.Faces) != tt.wantFaces {
				t.Errorf("faces = %d, want %d", len(m.Faces), tt.wantFaces)
			}
			if len(m.Edges) != 0 {
				t.Errorf("edges = %d, want 0", len(m.Edges))
			}
			if err := m.Check(); err != nil {
				t.Errorf("Check() = %v", err)
			}
		})
	}
}

func TestBuildUnitCylinder(t *testing.T) {
	m, err := Build(unitCylinder(8, 1))
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if len(m.Faces) != 8 || len(m.Vertices) != 16 {
		t.Fatalf("got %d faces, %d vertices; want 8 faces, 16 vertices", len(m.Faces), len(m.Vertices))
	}

	// Exact corner order of the first face: (vNext,uNext), (vNext,u), (v,u), (v,uNext)
	want := Face{9, 8, 0, 1}
	for k := range want {
		if m.Faces[0][k] != want[k] {
			t.Fatalf("face 0 = %v, want %v", m.Faces[0], want)
		}
	}

	// Last face wraps back to column 0
	last := m.Faces[7]
	wantLast := Face{8, 15, 7, 0}
	for k := range wantLast {
		if last[k] != wantLast[k] {
			t.Fatalf("face 7 = %v, want %v", last, wantLast)
		}
	}

	// Every face normal points away from the cylinder axis
	for i, f := range m.Faces {
		a, b, c := m.Vertices[f[0]], m.Vertices[f[1]], m.Vertices[f[2]]
		normal := r3.Cross(r3.Sub(b, a), r3.Sub(c, b))
		centroid := m.Centroid(f)
		radial := r3.Vec{X: centroid.X, Y: centroid.Y}
		if r3.Dot(normal, radial) <= 0 {
			t.Errorf("face %d normal %v points inward (centroid %v)", i, normal, centroid)
		}
	}

	// Every edge is shared by exactly two faces except the open rims
	edgeUse := make(map[[2]int]int)
	for _, f := range m.Faces {
		for k := range f {
			a, b := f[k], f[(k+1)%len(f)]
			if a > b {
				a, b = b, a
			}
			edgeUse[[2]int{a, b}]++
		}
	}
	for e, n := range edgeUse {
		if n > 2 {
			t.Errorf("edge %v used by %d faces", e, n)
		}
	}
}

func TestBuildFaceRows(t *testing.T) {
	m, err := Build(unitCylinder(4, 3))
	if err != nil {
		t.Fatal(err)
	}
	for i, row := range m.FaceRows {
		if want := i / 4; row != want {
			t.Errorf("FaceRows[%d] = %d, want %d", i, row, want)
		}
	}
}

func TestBuildClosePoles(t *testing.T) {
	spec := unitCylinder(6, 2)
	spec.CloseV = true

	m, err := Build(spec)
	if err != nil {
		t.Fatal(err)
	}

	quads := 6 * 2
	caps := 2 * (6 - 2)
	if len(m.Faces) != quads+caps {
		t.Fatalf("faces = %d, want %d", len(m.Faces), quads+caps)
	}
	for _, f := range m.Faces[quads:] {
		if len(f) != 3 {
			t.Errorf("cap face %v is not a triangle", f)
		}
	}
	if err := m.Check(); err != nil {
		t.Errorf("Check() = %v", err)
	}

	// Caps only close when U wraps and V does not
	spec.V.Wrap = true
	m, err = Build(spec)
	if err != nil {
		t.Fatal(err)
	}
	if len(m.Faces) != 6*2 {
		t.Errorf("faces with wrapped v = %d, want %d", len(m.Faces), 12)
	}
}

func TestBuildConfigErrors(t *testing.T) {
	tests := []struct {
		name  string
		spec  Spec
		field string
	}{
		{"zero steps", Spec{U: Axis{Min: 0, Max: 1, Steps: 0}, V: Axis{Min: 0, Max: 1, Steps: 1}}, "u.steps"},
		{"inverted", Spec{U: Axis{Min: 0, Max: 1, Steps: 1}, V: Axis{Min: 1, Max: 0, Steps: 1}}, "v.range"},
		{"zero length", Spec{U: Axis{Min: 2, Max: 2, Steps: 3}, V: Axis{Min: 0, Max: 1, Steps: 1}}, "u.range"},
		{"infinite", Spec{U: Axis{Min: 0, Max: math.Inf(1), Steps: 3}, V: Axis{Min: 0, Max: 1, Steps: 1}}, "u.range"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Build(tt.spec)
			var ce *ConfigError
			if !errors.As(err, &ce) {
				t.Fatalf("Build error = %v, want *ConfigError", err)
			}
			if ce.Field != tt.field {
				t.Errorf("ConfigError.Field = %q, want %q", ce.Field, tt.field)
			}
			if m == nil || !m.IsEmpty() {
				t.Errorf("Build returned non-empty mesh on config error")
			}
		})
	}
}

func TestBuildAbortsWithoutPartialMesh(t *testing.T) {
	// log(2 - v) fails on the last ring where v reaches 2
	spec := Spec{
		U:     Axis{Min: 0, Max: 1, Steps: 2},
		V:     Axis{Min: -1, Max: 2, Steps: 3},
		Exprs: expr.Sources{X: "u", Y: "v", Z: "log(2 - v)"},
	}

	m, err := Build(spec)
	var ev *expr.EvaluationError
	if !errors.As(err, &ev) {
		t.Fatalf("Build error = %v, want *expr.EvaluationError", err)
	}
	if !m.IsEmpty() {
		t.Errorf("Build returned %d vertices after evaluation error, want none", len(m.Vertices))
	}

	spec.Exprs.Z = "system(v)"
	m, err = Build(spec)
	var ee *expr.ExpressionError
	if !errors.As(err, &ee) {
		t.Fatalf("Build error = %v, want *expr.ExpressionError", err)
	}
	if !m.IsEmpty() {
		t.Error("Build returned geometry after expression error")
	}
}

func TestMeshAppend(t *testing.T) {
	a, err := Build(unitCylinder(4, 1))
	if err != nil {
		t.Fatal(err)
	}
	b, err := Build(unitCylinder(4, 2))
	if err != nil {
		t.Fatal(err)
	}

	nA := len(a.Vertices)
	a.Append(b)

	if len(a.Vertices) != nA+len(b.Vertices) {
		t.Errorf("vertices = %d, want %d", len(a.Vertices), nA+len(b.Vertices))
	}
	if len(a.Faces) != 4+8 {
		t.Errorf("faces = %d, want 12", len(a.Faces))
	}
	if a.Faces[4][2] != b.Faces[0][2]+nA {
		t.Errorf("appended face index = %d, want %d", a.Faces[4][2], b.Faces[0][2]+nA)
	}
	if a.FaceRows[4] <= a.FaceRows[3] {
		t.Errorf("appended rows %d not shifted past %d", a.FaceRows[4], a.FaceRows[3])
	}
	if err := a.Check(); err != nil {
		t.Errorf("Check() = %v", err)
	}
}

func TestRowsWithoutFaceRows(t *testing.T) {
	// Two triangles at z=0 and one at z=1, no FaceRows
	hand := &Mesh{
		Vertices: []r3.Vec{
			{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}, {X: 0, Y: 1, Z: 0},
			{X: 2, Y: 0, Z: 0}, {X: 3, Y: 0, Z: 0}, {X: 2, Y: 1, Z: 0},
			{X: 0, Y: 0, Z: 1}, {X: 1, Y: 0, Z: 1}, {X: 0, Y: 1, Z: 1},
		},
		Faces: []Face{{0, 1, 2}, {3, 4, 5}, {6, 7, 8}},
	}

	if err := hand.Check(); err != nil {
		t.Errorf("Check() = %v, want nil for a mesh without rows", err)
	}
	want := []int{0, 0, 1}
	rows := hand.Rows()
	for i := range want {
		if rows[i] != want[i] {
			t.Errorf("Rows()[%d] = %d, want %d", i, rows[i], want[i])
		}
	}

	m, err := Build(unitCylinder(4, 1))
	if err != nil {
		t.Fatal(err)
	}
	m.Append(hand)
	if len(m.FaceRows) != len(m.Faces) {
		t.Fatalf("FaceRows = %d after append, want %d", len(m.FaceRows), len(m.Faces))
	}
	if m.FaceRows[4] == m.FaceRows[6] || m.FaceRows[4] != m.FaceRows[5] {
		t.Errorf("appended rows = %v, want two rings", m.FaceRows[4:])
	}
	if err := m.Check(); err != nil {
		t.Errorf("Check() = %v", err)
	}

	// Appending into a row-less mesh fills in its rows first
	hand.Append(hand)
	if len(hand.FaceRows) != 6 {
		t.Errorf("FaceRows = %d after self append, want 6", len(hand.FaceRows))
	}
}
