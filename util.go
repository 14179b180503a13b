package main

import (
	"crypto/rand"
	"encoding/hex"
	"math"

	"github.com/google/uuid"
)

// GenerateID returns a random hex string of the given byte length
func GenerateID(byteLen int) string {
	b := make([]byte, byteLen)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// GenerateUUID returns a random RFC 4122 v4 UUID string
func GenerateUUID() string {
	return uuid.NewString()
}

// Distance returns the distance between two points
func Distance(x1, y1, x2, y2 float64) float64 {
	return math.Hypot(x2-x1, y2-y1)
}

// WrapAngle wraps angle to [0, 2*PI)
func WrapAngle(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	// math.Mod of a tiny negative can round back up to 2*PI
	if a >= 2*math.Pi {
		a = 0
	}
	return a
}

// Bearing returns the angle from (x1,y1) to (x2,y2) in [0, 2*PI)
func Bearing(x1, y1, x2, y2 float64) float64 {
	return WrapAngle(math.Atan2(y2-y1, x2-x1))
}

// round1 rounds to one decimal place for snapshots
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
