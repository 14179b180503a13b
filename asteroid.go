package main

import "math"

// AsteroidSpin is the passive rotation applied every tick, in radians
const AsteroidSpin = 0.001

// AsteroidState tags an asteroid with the resource its armor cells yield
type AsteroidState struct {
	Resource Resource
	Spin     float64
}

// newAsteroid builds an asteroid body facing a random direction
func newAsteroid(t *Template, pos Point, b *Battlefield) *Entity {
	e := newEntity(t.Name, KindAsteroid, FactionNeutral, ParseGrid(t.Body), pos)
	e.Rotation = float64(b.rng.Intn(629)) / 100
	e.Asteroid = &AsteroidState{Resource: t.Resource, Spin: AsteroidSpin}
	return e
}

// spin turns the asteroid by its passive spin
func (e *Entity) spin() {
	e.Rotation = math.Mod(e.Rotation+e.Asteroid.Spin, 2*math.Pi)
}
