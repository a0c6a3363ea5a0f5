package sponge

import (
	"fmt"
	"math"
	"strconv"

	"github.com/pthm-cable/reef/expr"
	"github.com/pthm-cable/reef/surface"
)

// num renders v as a parenthesised literal so negative values and
// exponents splice safely into an expression.
func num(v float64) string {
	return "(" + strconv.FormatFloat(v, 'g', -1, 64) + ")"
}

// RotundCylinder returns the surface of a sponge body: a tube of the given
// radius that bulges by rotundness and stretches along z by length. U runs
// around the tube and wraps; V runs along it with four times the
// resolution.
func RotundCylinder(radius, rotundness, length float64, resolution int) surface.Spec {
	vMax := math.Pi / 2
	zShift := math.Log(3*vMax) * length * vMax

	return surface.Spec{
		U: surface.Axis{Min: -math.Pi, Max: math.Pi, Steps: resolution, Wrap: true},
		V: surface.Axis{Min: -vMax, Max: vMax, Steps: 4 * resolution},
		Exprs: expr.Sources{
			X: fmt.Sprintf("%s*cos(%s*v)*cos(u)", num(radius), num(rotundness)),
			Y: fmt.Sprintf("%s*cos(%s*v)*sin(u)", num(radius), num(rotundness)),
			Z: fmt.Sprintf("%s*v*log((-v)+%s)+%s", num(length), num(2*vMax), num(zShift)),
		},
		N: 1,
	}
}
