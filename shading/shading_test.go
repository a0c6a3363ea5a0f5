package shading

import (
	"math"
	"testing"

	"github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/reef/expr"
	"github.com/pthm-cable/reef/surface"
)

func ellipse(t *testing.T, z string) *surface.Mesh {
	t.Helper()
	m, err := surface.Build(surface.Spec{
		U:     surface.Axis{Min: -math.Pi, Max: math.Pi, Steps: 16, Wrap: true},
		V:     surface.Axis{Min: 0, Max: 1, Steps: 3},
		Exprs: expr.Sources{X: "2*cos(u)", Y: "sin(u)", Z: z},
	})
	if err != nil {
		t.Fatalf("building ellipse: %v", err)
	}
	return m
}

func TestMapRange(t *testing.T) {
	if got := MapRange(2, 2, 6, 0, 1); got != 0 {
		t.Errorf("MapRange(min) = %v, want 0", got)
	}
	if got := MapRange(6, 2, 6, 0, 1); got != 1 {
		t.Errorf("MapRange(max) = %v, want 1", got)
	}
	if got := MapRange(3, 2, 6, 0, 1); got != 0.25 {
		t.Errorf("MapRange(3) = %v, want 0.25", got)
	}

	prev := math.Inf(-1)
	for v := 2.0; v <= 6; v += 0.1 {
		got := MapRange(v, 2, 6, 0, 1)
		if got < prev {
			t.Fatalf("MapRange not monotonic at %v: %v < %v", v, got, prev)
		}
		prev = got
	}
}

func TestColorForDistance(t *testing.T) {
	base := colorful.Color{R: 0.8, G: 0.4, B: 0.2}

	tests := []struct {
		name   string
		scheme Scheme
		d      float64
		want   colorful.Color
	}{
		{"depth near", CustomDepth, 0, base},
		{"depth far", CustomDepth, 1, colorful.Color{R: 1, G: 1, B: 1}},
		{"rugrats low band", Rugrats, 0.1, colorful.Color{R: 1, G: 0.02, B: 0.02}},
		{"rugrats mid band", Rugrats, 0.5, colorful.Color{R: 0.1, G: 0.1, B: 1}},
		{"rugrats at 0.75", Rugrats, 0.75, colorful.Color{R: 0.15, G: 0.15, B: 1}},
		{"rugrats high band", Rugrats, 1, colorful.Color{R: 0.2, G: 1, B: 0.2}},
		{"matte ignores distance", CustomMatte, 0.9, base},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ColorForDistance(tt.scheme, base, tt.d)
			if math.Abs(got.R-tt.want.R) > 1e-12 || math.Abs(got.G-tt.want.G) > 1e-12 || math.Abs(got.B-tt.want.B) > 1e-12 {
				t.Errorf("ColorForDistance(%v, %v) = %v, want %v", tt.scheme, tt.d, got, tt.want)
			}
		})
	}
}

func TestPaintMatteAndGlass(t *testing.T) {
	m := ellipse(t, "v")
	base := colorful.Color{R: 0.8, G: 0.8, B: 0.8}

	matte := Paint(m, Palette{Scheme: CustomMatte, Base: base})
	if len(matte.Materials) != 1 || matte.Materials[0].Color != base {
		t.Errorf("matte materials = %+v, want one base material", matte.Materials)
	}

	glass := Paint(m, Palette{Scheme: Glass, Base: base})
	if len(glass.Materials) != 1 || glass.Materials[0].Procedural != ProceduralGlass {
		t.Errorf("glass materials = %+v, want one procedural glass material", glass.Materials)
	}

	for _, a := range []Assignment{matte, glass} {
		if len(a.FaceMaterial) != len(m.Faces) {
			t.Fatalf("FaceMaterial has %d entries for %d faces", len(a.FaceMaterial), len(m.Faces))
		}
		for i, mi := range a.FaceMaterial {
			if mi != 0 {
				t.Errorf("face %d material = %d, want 0", i, mi)
			}
		}
	}
}

func TestNormalizedDistancesPerRing(t *testing.T) {
	// z wobbles around each ring; grouping follows construction rows, not z
	m := ellipse(t, "v + 0.001*sin(3*u)")
	norm := NormalizedDistances(m)

	for row := 0; row < 3; row++ {
		lo, hi := math.Inf(1), math.Inf(-1)
		for i, d := range norm {
			if m.FaceRows[i] != row {
				continue
			}
			if d < 0 || d > 1 {
				t.Fatalf("face %d normalized distance %v outside [0, 1]", i, d)
			}
			if math.Round(d*100) != d*100 && math.Abs(math.Round(d*100)-d*100) > 1e-9 {
				t.Errorf("face %d distance %v not rounded to 2 decimals", i, d)
			}
			lo = math.Min(lo, d)
			hi = math.Max(hi, d)
		}
		if lo != 0 || hi != 1 {
			t.Errorf("row %d spans [%v, %v], want [0, 1]", row, lo, hi)
		}
	}
}

func TestNormalizedDistancesDegenerateRing(t *testing.T) {
	m, err := surface.Build(surface.Spec{
		U:     surface.Axis{Min: -math.Pi, Max: math.Pi, Steps: 8, Wrap: true},
		V:     surface.Axis{Min: 0, Max: 1, Steps: 2},
		Exprs: expr.Sources{X: "cos(u)", Y: "sin(u)", Z: "v"},
	})
	if err != nil {
		t.Fatal(err)
	}

	for i, d := range NormalizedDistances(m) {
		if d != 0 {
			t.Errorf("face %d on circular ring = %v, want 0", i, d)
		}
	}

	a := Paint(m, Palette{Scheme: Rugrats})
	if len(a.Materials) != 1 {
		t.Errorf("circular cylinder has %d materials, want 1", len(a.Materials))
	}
}

func TestPaintSharesMaterialsByRoundedDistance(t *testing.T) {
	m := ellipse(t, "v")
	norm := NormalizedDistances(m)
	a := Paint(m, Palette{Scheme: Rugrats})

	if len(a.Materials) < 2 {
		t.Fatalf("ellipse produced %d materials, want several", len(a.Materials))
	}
	for i := range m.Faces {
		for j := range m.Faces {
			same := norm[i] == norm[j]
			if same != (a.FaceMaterial[i] == a.FaceMaterial[j]) {
				t.Fatalf("faces %d (%v) and %d (%v): material sharing mismatch", i, norm[i], j, norm[j])
			}
		}
	}

	// Materials appear in first-seen face order
	seen := -1
	for _, mi := range a.FaceMaterial {
		if mi > seen+1 {
			t.Fatalf("material %d used before %d", mi, seen+1)
		}
		if mi > seen {
			seen = mi
		}
	}
}

func TestParseScheme(t *testing.T) {
	for s, name := range schemeNames {
		got, err := ParseScheme(name)
		if err != nil || got != s {
			t.Errorf("ParseScheme(%q) = %v, %v; want %v", name, got, err, s)
		}
	}
	if _, err := ParseScheme("neon"); err == nil {
		t.Error("ParseScheme(\"neon\") = nil error, want error")
	}
}

// tri returns a triangle whose centroid is (cx, 0, z).
func tri(m *surface.Mesh, cx, z float64) {
	base := len(m.Vertices)
	m.Vertices = append(m.Vertices,
		r3.Vec{X: cx - 1, Y: -1, Z: z},
		r3.Vec{X: cx + 1, Y: -1, Z: z},
		r3.Vec{X: cx, Y: 2, Z: z},
	)
	m.Faces = append(m.Faces, surface.Face{base, base + 1, base + 2})
}

func TestPaintWithoutFaceRows(t *testing.T) {
	m := &surface.Mesh{}
	tri(m, 0, 0)
	tri(m, 1, 0)
	tri(m, 3, 0)
	tri(m, 5, 1)

	a := Paint(m, Palette{Scheme: Rugrats, Base: colorful.Color{R: 1, G: 1, B: 1}})

	wantFaces := []int{0, 1, 2, 1}
	for i, want := range wantFaces {
		if a.FaceMaterial[i] != want {
			t.Errorf("FaceMaterial[%d] = %d, want %d", i, a.FaceMaterial[i], want)
		}
	}
	if len(a.Materials) != 3 {
		t.Fatalf("materials = %d, want 3", len(a.Materials))
	}
	if got := a.Materials[0].Color; got.B != 1 {
		t.Errorf("ring distance 0.75 color = %v, want the blue band", got)
	}
}

func TestRound2(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0.125, 0.12}, // exact half rounds to even
		{0.375, 0.38},
		{0.135, 0.14}, // stored just above the half
		{0.5, 0.5},
		{1, 1},
		{0, 0},
	}
	for _, tt := range tests {
		if got := round2(tt.in); got != tt.want {
			t.Errorf("round2(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
