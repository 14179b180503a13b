package main

import "math"

// CellSize is the side length of one body cell in world units
const CellSize = 10.0

// Point is a position in world or body-local space
type Point struct {
	X, Y float64
}

// Frame places a cell grid in the world
type Frame struct {
	X, Y     float64 // centre of the grid in world space
	Rotation float64
	Cols     int
	Rows     int
}

// LocalToWorld rotates p by the frame rotation and translates it to the frame position
func (f Frame) LocalToWorld(p Point) Point {
	sin, cos := math.Sincos(f.Rotation)
	return Point{
		X: p.X*cos - p.Y*sin + f.X,
		Y: p.Y*cos + p.X*sin + f.Y,
	}
}

// WorldToLocal is the inverse of LocalToWorld
func (f Frame) WorldToLocal(p Point) Point {
	sin, cos := math.Sincos(-f.Rotation)
	dx := p.X - f.X
	dy := p.Y - f.Y
	return Point{
		X: dx*cos - dy*sin,
		Y: dy*cos + dx*sin,
	}
}

// CellAt returns the grid coordinates containing a local-space point.
// The result may be out of range; callers bounds-check.
func (f Frame) CellAt(p Point) (int, int) {
	cx := math.Floor((p.X + float64(f.Cols)/2*CellSize) / CellSize)
	cy := math.Floor((p.Y + float64(f.Rows)/2*CellSize) / CellSize)
	return int(cx), int(cy)
}

// CellToLocal returns the local offset of the centre of cell (cx, cy)
func (f Frame) CellToLocal(cx, cy int) Point {
	return Point{
		X: CellSize*(float64(cx)-float64(f.Cols)/2) + CellSize/2,
		Y: CellSize*(float64(cy)-float64(f.Rows)/2) + CellSize/2,
	}
}

// CellToWorld returns the world position of the centre of cell (cx, cy)
func (f Frame) CellToWorld(cx, cy int) Point {
	return f.LocalToWorld(f.CellToLocal(cx, cy))
}

// WorldToCell maps a world point straight to grid coordinates
func (f Frame) WorldToCell(p Point) (int, int) {
	return f.CellAt(f.WorldToLocal(p))
}
