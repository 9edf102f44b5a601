package simulation

import (
	"math"

	"github.com/ryanamatt/Fish-Predator/pkg/geometry"
)

// SpatialGrid is a uniform bucket grid over the world plane. It makes the
// per-boid neighbor lookup O(1) amortized: a boid only ever scans the 3x3
// block of cells around its own cell.
//
// Buckets hold int32 indices into the simulation's boid slice, never
// pointers, so nothing can dangle past a removal. The grid is rebuilt from
// scratch every frame and holds no state across frames: write-once,
// read-many within a single step.
//
// Insertion clamps out-of-range cell indices to the border cell while
// queries wrap modulo the grid dimensions. A boid sitting exactly at
// x == width lands in the border cell but is still found by queries coming
// from the wrapped side. This asymmetry is deliberate; unifying it would
// change flocking behavior near the edges.
type SpatialGrid struct {
	cellSize float32
	cols     int
	rows     int
	cells    [][]int32
}

// NewSpatialGrid creates a grid covering a width x height world.
// cellSize must be >= the largest interaction radius used by steering so
// that the 3x3 query covers every true neighbor; Config.Validate enforces
// this at construction.
func NewSpatialGrid(width, height, cellSize float32) *SpatialGrid {
	cols := int(math.Ceil(float64(width / cellSize)))
	rows := int(math.Ceil(float64(height / cellSize)))
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}
	return &SpatialGrid{
		cellSize: cellSize,
		cols:     cols,
		rows:     rows,
		cells:    make([][]int32, cols*rows),
	}
}

// Clear empties all buckets. Bucket slices are reset to length 0 but keep
// their capacity, so after warm-up a rebuild allocates nothing.
func (g *SpatialGrid) Clear() {
	for i := range g.cells {
		g.cells[i] = g.cells[i][:0]
	}
}

// Insert appends the boid index to the bucket containing pos.
// Cell indices are clamped into range, so positions on or beyond the border
// map to the border cell.
func (g *SpatialGrid) Insert(pos geometry.Vector2D, idx int32) {
	ix := int(pos.X / g.cellSize)
	iy := int(pos.Y / g.cellSize)
	if ix < 0 {
		ix = 0
	} else if ix >= g.cols {
		ix = g.cols - 1
	}
	if iy < 0 {
		iy = 0
	} else if iy >= g.rows {
		iy = g.rows - 1
	}
	c := iy*g.cols + ix
	g.cells[c] = append(g.cells[c], idx)
}

// Query collects boid indices from the 3x3 block of cells centered on the
// cell containing (px, py), appending into buf. Neighbor cell indices wrap
// modulo the grid dimensions, so boids near one edge see boids near the
// opposite edge. Collection stops once buf reaches its capacity. No ordering
// guarantee among results.
func (g *SpatialGrid) Query(px, py float32, buf []int32) []int32 {
	ix := int(px / g.cellSize)
	iy := int(py / g.cellSize)

	for dy := -1; dy <= 1; dy++ {
		cy := ((iy+dy)%g.rows + g.rows) % g.rows
		rowOffset := cy * g.cols
		for dx := -1; dx <= 1; dx++ {
			cx := ((ix+dx)%g.cols + g.cols) % g.cols
			for _, idx := range g.cells[rowOffset+cx] {
				if len(buf) == cap(buf) {
					return buf
				}
				buf = append(buf, idx)
			}
		}
	}
	return buf
}

// Cols returns the number of grid columns.
func (g *SpatialGrid) Cols() int { return g.cols }

// Rows returns the number of grid rows.
func (g *SpatialGrid) Rows() int { return g.rows }
