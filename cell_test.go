package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGridCount(t *testing.T) {
	g := ParseGrid([][]int{
		{0, 2, 2},
		{1, 3, 4},
	})
	cells, structural := g.Count()
	assert.Equal(t, 5, cells)
	assert.Equal(t, 5, structural)
	assert.Equal(t, 2, g.Rows())
	assert.Equal(t, 3, g.Cols())
}

func TestGridAtOutOfRange(t *testing.T) {
	g := ParseGrid([][]int{{1, 1}})
	assert.Equal(t, CellHull, g.At(1, 0))
	assert.Equal(t, CellEmpty, g.At(2, 0))
	assert.Equal(t, CellEmpty, g.At(0, -1))
	assert.False(t, g.InBounds(-1, 0))
}

func TestGridFirstOccupiedRasterOrder(t *testing.T) {
	g := ParseGrid([][]int{
		{0, 0, 0},
		{0, 0, 2},
		{1, 0, 0},
	})
	pos, ok := g.FirstOccupied()
	require.True(t, ok)
	assert.Equal(t, CellPos{X: 2, Y: 1}, pos)

	_, ok = ParseGrid([][]int{{0, 0}}).FirstOccupied()
	assert.False(t, ok)
}

func TestGridCloneIsDeep(t *testing.T) {
	g := ParseGrid([][]int{{1, 2}})
	c := g.Clone()
	c[0][0] = CellEmpty
	assert.Equal(t, CellHull, g[0][0])
}

func TestResourcePool(t *testing.T) {
	p := NewResourcePool()
	assert.False(t, p.Take(ResourceAlloy, 1), "empty pool must refuse")

	p.Add(ResourceAlloy, 2)
	p.Add(ResourceCrystal, -3)
	assert.Equal(t, 2, p.Count(ResourceAlloy))
	assert.Equal(t, 0, p.Count(ResourceCrystal))

	assert.True(t, p.Take(ResourceAlloy, 1))
	assert.False(t, p.Take(ResourceAlloy, 2))
	assert.Equal(t, 1, p.Count(ResourceAlloy))

	snap := p.Snapshot()
	assert.Equal(t, map[Resource]int{ResourceAlloy: 1, ResourceCrystal: 0, ResourceScrap: 0}, snap)
	snap[ResourceAlloy] = 99
	assert.Equal(t, 1, p.Count(ResourceAlloy), "snapshot must be a copy")
}

func TestHandleArena(t *testing.T) {
	var a arena
	e1 := &Entity{Name: "one"}
	h1 := a.insert(e1)
	assert.Equal(t, h1, e1.ID)
	assert.False(t, h1.IsZero())
	assert.Same(t, e1, a.get(h1))

	assert.Nil(t, a.get(Handle{}), "zero handle never resolves")

	require.True(t, a.remove(h1))
	assert.Nil(t, a.get(h1))
	assert.False(t, a.remove(h1), "double remove is a no-op")

	// the slot is reused under a new generation
	e2 := &Entity{Name: "two"}
	h2 := a.insert(e2)
	assert.Equal(t, h1.Index, h2.Index)
	assert.NotEqual(t, h1.Gen, h2.Gen)
	assert.Nil(t, a.get(h1), "old handle stays stale after reuse")
	assert.Same(t, e2, a.get(h2))
}
