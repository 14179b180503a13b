package main

// Cell is the role of one grid position in a body
type Cell uint8

const (
	CellEmpty  Cell = 0
	CellHull   Cell = 1
	CellArmor  Cell = 2 // absorbs one turret hit before becoming hull
	CellTurret Cell = 3
	CellCannon Cell = 4
)

// Structural reports whether the cell counts toward hull
func (c Cell) Structural() bool {
	switch c {
	case CellHull, CellArmor, CellTurret, CellCannon:
		return true
	}
	return false
}

func (c Cell) String() string {
	switch c {
	case CellEmpty:
		return "empty"
	case CellHull:
		return "hull"
	case CellArmor:
		return "armor"
	case CellTurret:
		return "turret"
	case CellCannon:
		return "cannon"
	}
	return "unknown"
}

// DamageTier is the strength of a hit
type DamageTier int

const (
	TierTurret DamageTier = 1
	TierCannon DamageTier = 2
)

// CellPos addresses a cell as column X, row Y
type CellPos struct {
	X, Y int
}

// Grid is a row-major cell body: grid[y][x]
type Grid [][]Cell

// ParseGrid builds a Grid from integer rows. Rows must be non-empty and equal length.
func ParseGrid(rows [][]int) Grid {
	g := make(Grid, len(rows))
	for y, row := range rows {
		g[y] = make([]Cell, len(row))
		for x, v := range row {
			g[y][x] = Cell(v)
		}
	}
	return g
}

// Rows returns the grid height
func (g Grid) Rows() int {
	return len(g)
}

// Cols returns the grid width
func (g Grid) Cols() int {
	if len(g) == 0 {
		return 0
	}
	return len(g[0])
}

// InBounds reports whether (x, y) addresses a cell
func (g Grid) InBounds(x, y int) bool {
	return y >= 0 && y < len(g) && x >= 0 && x < len(g[y])
}

// At returns the cell at (x, y), or CellEmpty when out of range
func (g Grid) At(x, y int) Cell {
	if !g.InBounds(x, y) {
		return CellEmpty
	}
	return g[y][x]
}

// Clone deep-copies the grid
func (g Grid) Clone() Grid {
	out := make(Grid, len(g))
	for y := range g {
		out[y] = append([]Cell(nil), g[y]...)
	}
	return out
}

// Count returns the number of non-empty cells and of structural cells
func (g Grid) Count() (cells, structural int) {
	for _, row := range g {
		for _, c := range row {
			if c != CellEmpty {
				cells++
			}
			if c.Structural() {
				structural++
			}
		}
	}
	return cells, structural
}

// FirstOccupied scans in raster order for the first non-empty cell
func (g Grid) FirstOccupied() (CellPos, bool) {
	for y, row := range g {
		for x, c := range row {
			if c != CellEmpty {
				return CellPos{X: x, Y: y}, true
			}
		}
	}
	return CellPos{}, false
}

// Ints flattens the grid for snapshots
func (g Grid) Ints() [][]uint8 {
	out := make([][]uint8, len(g))
	for y, row := range g {
		out[y] = make([]uint8, len(row))
		for x, c := range row {
			out[y][x] = uint8(c)
		}
	}
	return out
}

// Resource is a kind of material in the shared pool
type Resource string

const (
	ResourceAlloy   Resource = "alloy"
	ResourceCrystal Resource = "crystal"
	ResourceScrap   Resource = "scrap"
)

// Resources lists every resource kind in a stable order
var Resources = []Resource{ResourceAlloy, ResourceCrystal, ResourceScrap}

// RepairRecord is one destroyed layer of a cell awaiting restoration
type RepairRecord struct {
	Cell     CellPos
	Original Cell
	Requires Resource
}
