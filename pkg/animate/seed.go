package animate

import "math"

// UnitHash maps an index to a stable value in [0,1) using index*prime mod
// rng. It is not random, but neighboring indices land far apart, which is
// all the visuals need.
func UnitHash(i, prime, rng int) float64 {
	if rng <= 0 {
		return 0
	}
	v := (i * prime) % rng
	if v < 0 {
		v += rng
	}
	return float64(v) / float64(rng)
}

// PhaseOffset returns a per-instance oscillation offset in [0, 2π).
func PhaseOffset(i int) float64 {
	return UnitHash(i, 37, 100) * 2 * math.Pi
}

// ParticleDelay returns a per-particle delay in [0, cycle) so particles on
// neighboring connections do not travel in lockstep.
func ParticleDelay(i int, cycle float64) float64 {
	return UnitHash(i, 53, 97) * cycle
}

// SpiralSeed is the fixed per-particle parameter tuple of a light-cone
// spiral particle.
type SpiralSeed struct {
	Angle  float64 `json:"angle"`
	Speed  float64 `json:"speed"`
	Radial float64 `json:"radial"`
	Spiral float64 `json:"spiral"`
}

// SpiralSeedFor derives the seed tuple for particle i.
//
//	angle  = ((i*137) mod 360) degrees
//	speed  = 0.5 + ((i*73) mod 100) / 200
//	radial = 0.3 + ((i*47) mod 70) / 100
//	spiral = 0.5 + ((i*31) mod 50) / 100
func SpiralSeedFor(i int) SpiralSeed {
	return SpiralSeed{
		Angle:  UnitHash(i, 137, 360) * 2 * math.Pi,
		Speed:  0.5 + UnitHash(i, 73, 100)/2,
		Radial: 0.3 + UnitHash(i, 47, 70)*0.7,
		Spiral: 0.5 + UnitHash(i, 31, 50)/2,
	}
}
