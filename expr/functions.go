package expr

import (
	"fmt"
	"math"
)

type function struct {
	minArgs, maxArgs int
	call             func(args []float64) (float64, error)
}

func (f function) arity() string {
	if f.minArgs == f.maxArgs {
		return fmt.Sprint(f.minArgs)
	}
	return fmt.Sprintf("%d-%d", f.minArgs, f.maxArgs)
}

func unary(f func(float64) float64) function {
	return function{1, 1, func(a []float64) (float64, error) { return f(a[0]), nil }}
}

func binary(f func(float64, float64) float64) function {
	return function{2, 2, func(a []float64) (float64, error) { return f(a[0], a[1]), nil }}
}

func domain(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrDomain}, args...)...)
}

// functions is the allow-list of callable names.
var functions = map[string]function{
	"sin":   unary(math.Sin),
	"cos":   unary(math.Cos),
	"tan":   unary(math.Tan),
	"sinh":  unary(math.Sinh),
	"cosh":  unary(math.Cosh),
	"tanh":  unary(math.Tanh),
	"atan":  unary(math.Atan),
	"exp":   unary(math.Exp),
	"ceil":  unary(math.Ceil),
	"floor": unary(math.Floor),
	"fabs":  unary(math.Abs),

	"atan2": binary(math.Atan2),
	"hypot": binary(math.Hypot),

	"degrees": unary(func(x float64) float64 { return x * 180 / math.Pi }),
	"radians": unary(func(x float64) float64 { return x * math.Pi / 180 }),

	"asin": {1, 1, func(a []float64) (float64, error) {
		if a[0] < -1 || a[0] > 1 {
			return 0, domain("asin(%v)", a[0])
		}
		return math.Asin(a[0]), nil
	}},
	"acos": {1, 1, func(a []float64) (float64, error) {
		if a[0] < -1 || a[0] > 1 {
			return 0, domain("acos(%v)", a[0])
		}
		return math.Acos(a[0]), nil
	}},
	"sqrt": {1, 1, func(a []float64) (float64, error) {
		if a[0] < 0 {
			return 0, domain("sqrt(%v)", a[0])
		}
		return math.Sqrt(a[0]), nil
	}},
	"log": {1, 2, func(a []float64) (float64, error) {
		if a[0] <= 0 {
			return 0, domain("log(%v)", a[0])
		}
		if len(a) == 1 {
			return math.Log(a[0]), nil
		}
		if a[1] <= 0 || a[1] == 1 {
			return 0, domain("log base %v", a[1])
		}
		return math.Log(a[0]) / math.Log(a[1]), nil
	}},
	"log10": {1, 1, func(a []float64) (float64, error) {
		if a[0] <= 0 {
			return 0, domain("log10(%v)", a[0])
		}
		return math.Log10(a[0]), nil
	}},
	"pow": {2, 2, func(a []float64) (float64, error) {
		return power(a[0], a[1])
	}},
	"fmod": {2, 2, func(a []float64) (float64, error) {
		if a[1] == 0 {
			return 0, domain("fmod(%v, 0)", a[0])
		}
		return math.Mod(a[0], a[1]), nil
	}},
	"ldexp": {2, 2, func(a []float64) (float64, error) {
		return math.Ldexp(a[0], int(a[1])), nil
	}},
}

// power backs both pow(x, y) and x ** y.
func power(x, y float64) (float64, error) {
	if x == 0 && y < 0 {
		return 0, domain("pow(0, %v)", y)
	}
	if x < 0 && y != math.Trunc(y) {
		return 0, domain("pow(%v, %v)", x, y)
	}
	return finite("**", math.Pow(x, y))
}
