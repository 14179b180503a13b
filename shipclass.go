package main

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownKind is returned when spawning a body kind with no template
var ErrUnknownKind = errors.New("unknown body kind")

// Template is the fixed layout and handling of one spawnable body kind
type Template struct {
	Name      string
	Kind      EntityKind
	Faction   Faction
	Body      [][]int
	Accel     float64
	TurnSpeed float64
	MaxSpeed  float64
	Resource  Resource // asteroids only
}

var battleshipBody = [][]int{
	{2, 2, 2, 2, 0, 0, 0, 0, 0, 0},
	{2, 1, 1, 2, 2, 2, 4, 2, 0, 0},
	{0, 0, 1, 1, 3, 1, 1, 1, 2, 0},
	{0, 0, 0, 1, 1, 1, 1, 1, 3, 2},
	{0, 0, 1, 1, 3, 1, 1, 1, 2, 0},
	{2, 1, 1, 2, 2, 2, 4, 2, 0, 0},
	{2, 2, 2, 2, 0, 0, 0, 0, 0, 0},
}

// the single turret-role cell at the nose is the beam emitter
var minerBody = [][]int{
	{2, 2, 2, 0, 0, 0, 0},
	{2, 1, 1, 1, 2, 0, 0},
	{0, 1, 1, 1, 1, 3, 0},
	{2, 1, 1, 1, 2, 0, 0},
	{2, 2, 2, 0, 0, 0, 0},
}

var asteroidBody = [][]int{
	{0, 0, 1, 1, 1, 1, 0, 0},
	{0, 1, 2, 1, 1, 2, 1, 0},
	{1, 1, 1, 2, 2, 1, 1, 1},
	{1, 2, 2, 2, 2, 2, 1, 1},
	{1, 1, 2, 2, 2, 2, 2, 1},
	{1, 1, 1, 2, 2, 1, 1, 1},
	{0, 1, 2, 1, 1, 2, 1, 0},
	{0, 0, 1, 1, 1, 1, 0, 0},
}

// Templates are the spawnable kinds, keyed by the name passed to CreateEntity
var Templates = map[string]Template{
	"battleship": {
		Name: "battleship", Kind: KindBattleship, Faction: FactionPlayer, Body: battleshipBody,
		Accel: 0.01, TurnSpeed: 0.02, MaxSpeed: 1,
	},
	"pirate_battleship": {
		Name: "pirate_battleship", Kind: KindBattleship, Faction: FactionPirate, Body: battleshipBody,
		Accel: 0.01, TurnSpeed: 0.02, MaxSpeed: 1,
	},
	"miner": {
		Name: "miner", Kind: KindMiner, Faction: FactionPlayer, Body: minerBody,
		Accel: 0.015, TurnSpeed: 0.03, MaxSpeed: 1.2,
	},
	"pirate_miner": {
		Name: "pirate_miner", Kind: KindMiner, Faction: FactionPirate, Body: minerBody,
		Accel: 0.015, TurnSpeed: 0.03, MaxSpeed: 1.2,
	},
	"asteroid_alloy": {
		Name: "asteroid_alloy", Kind: KindAsteroid, Faction: FactionNeutral, Body: asteroidBody,
		Resource: ResourceAlloy,
	},
	"asteroid_crystal": {
		Name: "asteroid_crystal", Kind: KindAsteroid, Faction: FactionNeutral, Body: asteroidBody,
		Resource: ResourceCrystal,
	},
}

// Validate checks the template can build a body
func (t *Template) Validate() error {
	if len(t.Body) == 0 || len(t.Body[0]) == 0 {
		return fmt.Errorf("template %q: empty body", t.Name)
	}
	for y, row := range t.Body {
		if len(row) != len(t.Body[0]) {
			return fmt.Errorf("template %q: row %d has %d cells, want %d", t.Name, y, len(row), len(t.Body[0]))
		}
		for x, v := range row {
			if v < int(CellEmpty) || v > int(CellCannon) {
				return fmt.Errorf("template %q: cell (%d,%d) has code %d", t.Name, x, y, v)
			}
		}
	}
	if t.Kind != KindAsteroid && t.MaxSpeed <= 0 {
		return fmt.Errorf("template %q: ship needs a positive max speed", t.Name)
	}
	return nil
}

// LookupTemplate returns the template for kind
func LookupTemplate(kind string) (Template, error) {
	t, ok := Templates[kind]
	if !ok {
		return Template{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	return t, nil
}

// TemplateNames lists every spawnable kind in sorted order
func TemplateNames() []string {
	names := make([]string, 0, len(Templates))
	for name := range Templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
