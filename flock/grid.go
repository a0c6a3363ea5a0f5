package flock

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/r3"
)

// grid provides neighbor candidate lookups over the flock region using
// cubic cells. Boids are stored by index, so results can be returned in
// creation order.
type grid struct {
	cellSize float64
	min      r3.Vec
	dims     [3]int
	cells    [][]int
}

// maxGridCells bounds grid memory for regions much larger than the
// perception radius.
const maxGridCells = 1 << 15

// newGrid creates a grid covering [-half, half] on each axis. Cells are at
// least cellSize wide and grow until the grid fits in maxGridCells.
func newGrid(half r3.Vec, cellSize float64) *grid {
	dim := func(extent float64) int {
		return int(math.Ceil(2*extent/cellSize)) + 1
	}
	for dim(half.X)*dim(half.Y)*dim(half.Z) > maxGridCells {
		cellSize *= 2
	}
	g := &grid{
		cellSize: cellSize,
		min:      r3.Scale(-1, half),
		dims:     [3]int{dim(half.X), dim(half.Y), dim(half.Z)},
	}
	g.cells = make([][]int, g.dims[0]*g.dims[1]*g.dims[2])
	for i := range g.cells {
		g.cells[i] = make([]int, 0, 8)
	}
	return g
}

// clear removes all boids from the grid.
func (g *grid) clear() {
	for i := range g.cells {
		g.cells[i] = g.cells[i][:0]
	}
}

// coord returns the clamped cell coordinate of p along each axis.
func (g *grid) coord(p r3.Vec) [3]int {
	rel := r3.Sub(p, g.min)
	c := [3]int{
		int(math.Floor(rel.X / g.cellSize)),
		int(math.Floor(rel.Y / g.cellSize)),
		int(math.Floor(rel.Z / g.cellSize)),
	}
	for i := range c {
		if c[i] < 0 {
			c[i] = 0
		} else if c[i] >= g.dims[i] {
			c[i] = g.dims[i] - 1
		}
	}
	return c
}

func (g *grid) index(c [3]int) int {
	return (c[2]*g.dims[1]+c[1])*g.dims[0] + c[0]
}

// insert adds boid i at p.
func (g *grid) insert(i int, p r3.Vec) {
	idx := g.index(g.coord(p))
	g.cells[idx] = append(g.cells[idx], i)
}

// queryInto appends to dst every boid in the cells overlapping the cube
// of half-size radius around p, excluding exclude, in ascending index
// order. Callers still apply the exact distance test.
func (g *grid) queryInto(dst []int, p r3.Vec, radius float64, exclude int) []int {
	lo := g.coord(r3.Sub(p, r3.Vec{X: radius, Y: radius, Z: radius}))
	hi := g.coord(r3.Add(p, r3.Vec{X: radius, Y: radius, Z: radius}))

	start := len(dst)
	for z := lo[2]; z <= hi[2]; z++ {
		for y := lo[1]; y <= hi[1]; y++ {
			for x := lo[0]; x <= hi[0]; x++ {
				for _, i := range g.cells[g.index([3]int{x, y, z})] {
					if i != exclude {
						dst = append(dst, i)
					}
				}
			}
		}
	}
	sort.Ints(dst[start:])
	return dst
}
