package expr

import (
	"errors"
	"math"
	"strings"
	"testing"
)

func TestCompileAndEval(t *testing.T) {
	tests := []struct {
		src  string
		env  Env
		want float64
	}{
		{"1 + 2*3", nil, 7},
		{"-u", Env{"u": 2}, -2},
		{"cos(u)*sin(v)", Env{"u": 0, "v": math.Pi / 2}, 1},
		{"pow(2, 10)", nil, 1024},
		{"log(e)", nil, 1},
		{"log(8, 2)", nil, 3},
		{"atan2(1, 1)", nil, math.Pi / 4},
		{"degrees(pi)", nil, 180},
		{"-7 % 3", nil, 2},
		{"fmod(-7, 3)", nil, -1},
		{"hypot(3, 4)", nil, 5},
		{"0.5*cos((0.5)*v)*cos(u)", Env{"u": 0, "v": 0}, 0.5},
		{"u**2", Env{"u": 3}, 9},
		{"2**3**2", nil, 512},
		{"-2**2", nil, -4},
		{"(-2)**2", nil, 4},
		{"u**0.5 + v", Env{"u": 16, "v": 1}, 5},
		{"ceil(u) + floor(v)", Env{"u": 1.2, "v": 1.8}, 3},
		{"1e-05*100000", nil, 1},
		{"   ", nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			e, err := Compile("x", tt.src, []string{"u", "v"})
			if err != nil {
				t.Fatalf("Compile(%q) failed: %v", tt.src, err)
			}
			got, err := e.Eval(tt.env)
			if err != nil {
				t.Fatalf("Eval(%q) failed: %v", tt.src, err)
			}
			if math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("Eval(%q) = %v, want %v", tt.src, got, tt.want)
			}
		})
	}
}

func TestCompileRejectsOutsideAllowList(t *testing.T) {
	tests := []string{
		"os.Exit(1)",
		"open(u)",
		"w + 1",
		"u == v",
		"u ^ 2",
		"u and v",
		"true",
		"u > 0 ? u : v",
		"[u, v]",
		"\"text\"",
		"x[0]",
		"sin(u, v)",
		"pow(u)",
		"func() {}",
		"u +",
	}

	for _, src := range tests {
		t.Run(src, func(t *testing.T) {
			_, err := Compile("x", src, []string{"u", "v"})
			if err == nil {
				t.Fatalf("Compile(%q) = nil error, want ExpressionError", src)
			}
			var ee *ExpressionError
			if !errors.As(err, &ee) {
				t.Fatalf("Compile(%q) error %T is not *ExpressionError", src, err)
			}
			if ee.Slot != "x" || ee.Source != src {
				t.Errorf("ExpressionError = %+v, want slot x and source %q", ee, src)
			}
			if strings.Contains(err.Error(), "ast.") {
				t.Errorf("error %q names parser internals", err)
			}
		})
	}
}

func TestEvalDomainErrors(t *testing.T) {
	tests := []string{
		"log(u)",
		"sqrt(u - 1)",
		"1 / u",
		"acos(2)",
		"pow(u, -1)",
		"exp(1000)",
		"u % 0",
		"u ** -1",
		"(u - 8) ** (1/3)",
		"10 ** (u + 400)",
	}

	for _, src := range tests {
		t.Run(src, func(t *testing.T) {
			e, err := Compile("z", src, []string{"u"})
			if err != nil {
				t.Fatalf("Compile(%q) failed: %v", src, err)
			}
			_, err = e.Eval(Env{"u": 0})
			if !errors.Is(err, ErrDomain) {
				t.Errorf("Eval(%q) error = %v, want ErrDomain", src, err)
			}
		})
	}
}

func TestSystemStagedEvaluation(t *testing.T) {
	sys, err := CompileSystem(Sources{
		A: "u + v",
		B: "n",
		C: "2",
		F: "a * c",
		G: "b + a",
		H: "",
		X: "f",
		Y: "g",
		Z: "h + c",
	})
	if err != nil {
		t.Fatalf("CompileSystem failed: %v", err)
	}

	p, err := sys.Eval(1, 2, 5)
	if err != nil {
		t.Fatalf("Eval failed: %v", err)
	}
	// a=3, b=5, c=2, f=6, g=8, h=0
	if p.X != 6 || p.Y != 8 || p.Z != 2 {
		t.Errorf("Eval(1, 2, 5) = %v, want (6, 8, 2)", p)
	}
}

func TestSystemWaveVisibility(t *testing.T) {
	tests := []struct {
		name string
		src  Sources
		slot string
	}{
		{"first wave sees second", Sources{A: "f"}, "a"},
		{"first wave sees sibling", Sources{B: "a"}, "b"},
		{"second wave sees coordinates", Sources{G: "x"}, "g"},
		{"coordinates see each other", Sources{Z: "x"}, "z"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CompileSystem(tt.src)
			var ee *ExpressionError
			if !errors.As(err, &ee) {
				t.Fatalf("CompileSystem error = %v, want *ExpressionError", err)
			}
			if ee.Slot != tt.slot {
				t.Errorf("failing slot = %q, want %q", ee.Slot, tt.slot)
			}
			if !errors.Is(err, ErrDisallowed) {
				t.Errorf("error %v does not wrap ErrDisallowed", err)
			}
		})
	}
}

func TestSystemEvaluationError(t *testing.T) {
	sys, err := CompileSystem(Sources{X: "u", Y: "v", Z: "log(v)"})
	if err != nil {
		t.Fatal(err)
	}

	_, err = sys.Eval(1, -1, 1)
	var ev *EvaluationError
	if !errors.As(err, &ev) {
		t.Fatalf("Eval error = %v, want *EvaluationError", err)
	}
	if ev.Slot != "z" || ev.U != 1 || ev.V != -1 {
		t.Errorf("EvaluationError = %+v, want slot z at (1, -1)", ev)
	}
}

func TestDisallowedConstructsAreNamed(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"x[0]", "indexing"},
		{"\"text\"", "string literal"},
		{"u > 0 ? u : v", "conditional"},
		{"u ^ 2", "operator ^"},
		{"os.Exit(1)", "function names"},
	}
	for _, tt := range tests {
		_, err := Compile("x", tt.src, []string{"u", "v"})
		if err == nil || !strings.Contains(err.Error(), tt.want) {
			t.Errorf("Compile(%q) error = %v, want mention of %q", tt.src, err, tt.want)
		}
	}
}
