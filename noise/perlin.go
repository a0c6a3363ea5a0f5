package noise

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/spatial/r3"
)

// edges are the twelve cube edge midpoint directions used as lattice gradients.
var edges = [12]r3.Vec{
	{X: 1, Y: 1}, {X: -1, Y: 1}, {X: 1, Y: -1}, {X: -1, Y: -1},
	{X: 1, Z: 1}, {X: -1, Z: 1}, {X: 1, Z: -1}, {X: -1, Z: -1},
	{Y: 1, Z: 1}, {Y: -1, Z: 1}, {Y: 1, Z: -1}, {Y: -1, Z: -1},
}

// Perlin is a seeded gradient noise field on the integer lattice.
type Perlin struct {
	perm []int
}

// NewPerlin shuffles the lattice hash table from seed. Equal seeds produce
// identical fields.
func NewPerlin(seed int64) *Perlin {
	return &Perlin{perm: rand.New(rand.NewSource(seed)).Perm(256)}
}

// gradient picks the edge vector for lattice cell (i, j, k).
func (p *Perlin) gradient(i, j, k int) r3.Vec {
	h := p.perm[i&255]
	h = p.perm[(h+j)&255]
	h = p.perm[(h+k)&255]
	return edges[h%len(edges)]
}

// Eval3 returns noise in roughly [-1, 1]. Integer lattice points return 0.
func (p *Perlin) Eval3(x, y, z float64) float64 {
	cell := r3.Vec{X: math.Floor(x), Y: math.Floor(y), Z: math.Floor(z)}
	local := r3.Sub(r3.Vec{X: x, Y: y, Z: z}, cell)
	ease := r3.Vec{X: smooth(local.X), Y: smooth(local.Y), Z: smooth(local.Z)}
	i, j, k := int(cell.X), int(cell.Y), int(cell.Z)

	var sum float64
	for corner := 0; corner < 8; corner++ {
		dx, dy, dz := corner&1, corner>>1&1, corner>>2&1
		offset := r3.Sub(local, r3.Vec{X: float64(dx), Y: float64(dy), Z: float64(dz)})
		weight := blend(ease.X, dx) * blend(ease.Y, dy) * blend(ease.Z, dz)
		sum += weight * r3.Dot(p.gradient(i+dx, j+dy, k+dz), offset)
	}
	return sum
}

// smooth is the quintic ease curve 6t^5 - 15t^4 + 10t^3.
func smooth(t float64) float64 {
	return t * t * t * (t*(t*6-15) + 10)
}

// blend weights the near (side 0) or far (side 1) corner along one axis.
func blend(t float64, side int) float64 {
	if side == 1 {
		return t
	}
	return 1 - t
}
