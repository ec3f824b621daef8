package systems

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// SpatialGrid buckets agent slots by XY cell for radius queries.
// Cells outside the covered rectangle clamp to the border cells. The clamp is
// monotonic, so a query over [x-r, x+r] still visits every slot within r.
type SpatialGrid struct {
	cellSize float64
	cols     int
	rows     int
	minX     float64
	minY     float64
	cells    [][]int // flat grid of agent slot lists
}

// NewSpatialGrid creates a grid covering [minX, maxX] x [minY, maxY].
func NewSpatialGrid(minX, minY, maxX, maxY, cellSize float64) *SpatialGrid {
	cols := int((maxX-minX)/cellSize) + 1
	rows := int((maxY-minY)/cellSize) + 1

	cells := make([][]int, cols*rows)
	for i := range cells {
		cells[i] = make([]int, 0, 8) // pre-allocate small capacity
	}

	return &SpatialGrid{
		cellSize: cellSize,
		cols:     cols,
		rows:     rows,
		minX:     minX,
		minY:     minY,
		cells:    cells,
	}
}

// Clear removes all slots from the grid.
func (g *SpatialGrid) Clear() {
	for i := range g.cells {
		g.cells[i] = g.cells[i][:0]
	}
}

// Rebuild clears the grid and inserts every position under its slice index.
func (g *SpatialGrid) Rebuild(positions []r3.Vec) {
	g.Clear()
	for i, p := range positions {
		g.Insert(i, p.X, p.Y)
	}
}

// Insert adds a slot to the grid at the given position.
func (g *SpatialGrid) Insert(slot int, x, y float64) {
	idx := g.row(y)*g.cols + g.col(x)
	g.cells[idx] = append(g.cells[idx], slot)
}

// QueryRadiusInto appends the slots whose position is strictly closer than radius
// to center. positions must be the slice the grid was built from.
func (g *SpatialGrid) QueryRadiusInto(dst []int, center r3.Vec, radius float64, positions []r3.Vec) []int {
	c0, c1 := g.col(center.X-radius), g.col(center.X+radius)
	r0, r1 := g.row(center.Y-radius), g.row(center.Y+radius)

	for row := r0; row <= r1; row++ {
		for col := c0; col <= c1; col++ {
			for _, slot := range g.cells[row*g.cols+col] {
				if r3.Norm(r3.Sub(positions[slot], center)) < radius {
					dst = append(dst, slot)
				}
			}
		}
	}
	return dst
}

// col returns the clamped column for an x coordinate.
func (g *SpatialGrid) col(x float64) int {
	return clampCell(math.Floor((x-g.minX)/g.cellSize), g.cols)
}

// row returns the clamped row for a y coordinate.
func (g *SpatialGrid) row(y float64) int {
	return clampCell(math.Floor((y-g.minY)/g.cellSize), g.rows)
}

// clampCell clamps before converting so far-away coordinates never overflow int.
func clampCell(c float64, n int) int {
	if c < 0 {
		return 0
	}
	if c >= float64(n) {
		return n - 1
	}
	return int(c)
}
