package expr

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

// Sources holds the source text of a coordinate system: three coordinate
// expressions plus six auxiliary scalars. Empty auxiliary slots are inert
// (constant 0), which is how most surfaces leave them.
type Sources struct {
	X, Y, Z string
	A, B, C string
	F, G, H string
}

// Variables visible to each evaluation wave.
var (
	waveOneVars  = []string{"u", "v", "n"}
	waveTwoVars  = []string{"u", "v", "n", "a", "b", "c"}
	coordVars    = []string{"u", "v", "n", "a", "b", "c", "f", "g", "h"}
	waveOneSlots = []string{"a", "b", "c"}
	waveTwoSlots = []string{"f", "g", "h"}
	coordSlots   = []string{"x", "y", "z"}
)

// EvaluationError reports a runtime failure at a single grid point.
type EvaluationError struct {
	Slot string
	U, V float64
	Err  error
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("evaluating %s at u=%g v=%g: %v", e.Slot, e.U, e.V, e.Err)
}

func (e *EvaluationError) Unwrap() error { return e.Err }

// System evaluates a, b, c, then f, g, h, then x, y, z for one (u, v, n).
type System struct {
	waveOne [3]*Expr
	waveTwo [3]*Expr
	coords  [3]*Expr
	env     Env
}

// CompileSystem compiles every slot. The first failing slot is returned as
// an *ExpressionError.
func CompileSystem(src Sources) (*System, error) {
	s := &System{env: make(Env, len(coordVars))}

	compileWave := func(dst *[3]*Expr, slots []string, sources [3]string, allowed []string) error {
		for i, slot := range slots {
			e, err := Compile(slot, sources[i], allowed)
			if err != nil {
				return err
			}
			dst[i] = e
		}
		return nil
	}

	if err := compileWave(&s.waveOne, waveOneSlots, [3]string{src.A, src.B, src.C}, waveOneVars); err != nil {
		return nil, err
	}
	if err := compileWave(&s.waveTwo, waveTwoSlots, [3]string{src.F, src.G, src.H}, waveTwoVars); err != nil {
		return nil, err
	}
	if err := compileWave(&s.coords, coordSlots, [3]string{src.X, src.Y, src.Z}, coordVars); err != nil {
		return nil, err
	}
	return s, nil
}

// Eval returns the (x, y, z) point for the given parameters.
// A System is not safe for concurrent use.
func (s *System) Eval(u, v, n float64) (r3.Vec, error) {
	env := s.env
	env["u"] = u
	env["v"] = v
	env["n"] = n

	runWave := func(wave [3]*Expr, out *[3]float64) error {
		for i, e := range wave {
			val, err := e.Eval(env)
			if err != nil {
				return &EvaluationError{Slot: e.Slot(), U: u, V: v, Err: err}
			}
			out[i] = val
		}
		return nil
	}

	var vals [3]float64
	if err := runWave(s.waveOne, &vals); err != nil {
		return r3.Vec{}, err
	}
	env["a"], env["b"], env["c"] = vals[0], vals[1], vals[2]

	if err := runWave(s.waveTwo, &vals); err != nil {
		return r3.Vec{}, err
	}
	env["f"], env["g"], env["h"] = vals[0], vals[1], vals[2]

	if err := runWave(s.coords, &vals); err != nil {
		return r3.Vec{}, err
	}
	return r3.Vec{X: vals[0], Y: vals[1], Z: vals[2]}, nil
}
