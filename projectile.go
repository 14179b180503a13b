package main

import "math"

const (
	ProjectileSpeed      = 2.0 // world units per tick
	TurretShotLifetime   = 250 // ticks
	CannonShotLifetime   = 500 // ticks
	maxProjectilesPerMap = 4000
)

// Projectile is a shot travelling across the battlefield
type Projectile struct {
	X, Y     float64
	VX, VY   float64
	Rotation float64
	Faction  Faction
	Tier     DamageTier
	Life     int // ticks remaining
	Alive    bool
}

// NewProjectile creates a shot at pos heading along rotation
func NewProjectile(pos Point, rotation float64, faction Faction, tier DamageTier) *Projectile {
	life := TurretShotLifetime
	if tier == TierCannon {
		life = CannonShotLifetime
	}
	sin, cos := math.Sincos(rotation)
	return &Projectile{
		X:        pos.X,
		Y:        pos.Y,
		VX:       ProjectileSpeed * cos,
		VY:       ProjectileSpeed * sin,
		Rotation: rotation,
		Faction:  faction,
		Tier:     tier,
		Life:     life,
		Alive:    true,
	}
}

// Update moves the projectile one tick
func (p *Projectile) Update() {
	if !p.Alive {
		return
	}
	p.X += p.VX
	p.Y += p.VY
	p.Life--
	if p.Life <= 0 {
		p.Alive = false
	}
}

// Position returns the projectile's world position
func (p *Projectile) Position() Point {
	return Point{X: p.X, Y: p.Y}
}

// ToState converts to protocol state
func (p *Projectile) ToState() ProjectileState {
	return ProjectileState{
		X:       round1(p.X),
		Y:       round1(p.Y),
		R:       round1(p.Rotation),
		Faction: string(p.Faction),
		Tier:    int(p.Tier),
	}
}
