package main

import "math"

// SpatialCellSize is a bucket side, above the widest body diameter so most
// bodies touch at most four buckets
const SpatialCellSize = 100.0

// SpatialGrid is a uniform bucket grid for broad-phase collision queries.
// Entries are indexes into the caller's entity list. Positions outside the
// world clamp to the border buckets.
type SpatialGrid struct {
	cols, rows int
	cells      [][]int
}

// NewSpatialGrid sizes a grid to cover a w by h world
func NewSpatialGrid(w, h float64) *SpatialGrid {
	cols := int(math.Ceil(w/SpatialCellSize)) + 1
	rows := int(math.Ceil(h/SpatialCellSize)) + 1
	return &SpatialGrid{
		cols:  cols,
		rows:  rows,
		cells: make([][]int, cols*rows),
	}
}

// Clear resets all cells (keeps allocated capacity)
func (g *SpatialGrid) Clear() {
	for i := range g.cells {
		g.cells[i] = g.cells[i][:0]
	}
}

func (g *SpatialGrid) clampX(v float64) int {
	c := int(math.Floor(v / SpatialCellSize))
	if c < 0 {
		return 0
	}
	if c >= g.cols {
		return g.cols - 1
	}
	return c
}

func (g *SpatialGrid) clampY(v float64) int {
	c := int(math.Floor(v / SpatialCellSize))
	if c < 0 {
		return 0
	}
	if c >= g.rows {
		return g.rows - 1
	}
	return c
}

// InsertCircle adds an entry to all cells overlapping its bounding box
func (g *SpatialGrid) InsertCircle(x, y, radius float64, ref int) {
	minCX, maxCX := g.clampX(x-radius), g.clampX(x+radius)
	minCY, maxCY := g.clampY(y-radius), g.clampY(y+radius)
	for cy := minCY; cy <= maxCY; cy++ {
		for cx := minCX; cx <= maxCX; cx++ {
			idx := cy*g.cols + cx
			g.cells[idx] = append(g.cells[idx], ref)
		}
	}
}

// QueryBuf appends the entries of every cell overlapping the given bounding
// box to buf. An entry spanning several cells is appended once per cell.
func (g *SpatialGrid) QueryBuf(x, y, radius float64, buf []int) []int {
	minCX, maxCX := g.clampX(x-radius), g.clampX(x+radius)
	minCY, maxCY := g.clampY(y-radius), g.clampY(y+radius)
	for cy := minCY; cy <= maxCY; cy++ {
		for cx := minCX; cx <= maxCX; cx++ {
			buf = append(buf, g.cells[cy*g.cols+cx]...)
		}
	}
	return buf
}
