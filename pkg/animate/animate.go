// Package animate holds the per-primitive update rules.
//
// Every animator is a pure function of the clock's elapsed time, a stable
// per-instance seed and the current toggles. Elapsed time is already scaled
// by the speed multiplier (see package clock), so oscillation frequencies
// here are fixed and the whole scene speeds up or slows down together.
//
// Animators never return NaN or Inf: non-finite inputs degrade to safe
// defaults or hide the primitive.
package animate

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Transform places a primitive.
type Transform struct {
	Position r3.Vec  `json:"position"`
	Scale    float64 `json:"scale"`
}

// Material shades a primitive.
type Material struct {
	Color    string  `json:"color"`
	Opacity  float64 `json:"opacity"`
	Emissive float64 `json:"emissive"`
	Visible  bool    `json:"visible"`
}

// =============================================================================
// Neuron pulse
// =============================================================================

const (
	NeuronBaseIntensity = 0.2
	neuronPulseAmp      = 0.15
	neuronPulseFreq     = 2.0
	neuronScaleAmp      = 0.06
	neuronScaleFreq     = 3.0
	NeuronBaseSize      = 0.25
)

// Neuron is the static input to [NeuronPulse].
type Neuron struct {
	Position   r3.Vec
	Index      int
	Activation float64
}

// NeuronStyle carries the global knobs that affect every neuron.
type NeuronStyle struct {
	Glow            float64
	Size            float64
	ShowActivations bool
}

// NeuronPulse computes one neuron's transform and material at time t.
// Emissive intensity is the base plus activation×glow, with a bounded sine
// on top. Scale pulses by a small sine keyed on the unit index.
func NeuronPulse(t float64, n Neuron, s NeuronStyle) (Transform, Material) {
	t = finite(t)
	act := clamp01(n.Activation)
	if !s.ShowActivations {
		act = 0
	}
	offset := PhaseOffset(n.Index)

	emissive := NeuronBaseIntensity + act*clamp01(s.Glow)
	emissive += neuronPulseAmp * (0.5 + 0.5*act) * math.Sin(t*neuronPulseFreq+offset)
	emissive = math.Max(emissive, 0)

	size := finite(s.Size)
	if size <= 0 {
		size = 1
	}
	scale := NeuronBaseSize * size * (1 + neuronScaleAmp*math.Sin(t*neuronScaleFreq+float64(n.Index)*0.5))

	color := ActivationColor(0.3)
	if s.ShowActivations {
		color = ActivationColor(act)
	}
	return Transform{Position: finiteVec(n.Position), Scale: scale},
		Material{Color: Hex(color), Opacity: 1, Emissive: emissive, Visible: true}
}

// =============================================================================
// Connection line
// =============================================================================

const connectionSlowFreq = 0.5

// ConnectionLine shades a connection curve. Opacity is the global connection
// opacity times |weight|, slowly modulated when animated is set.
func ConnectionLine(t, weight, opacity float64, seed int, animated bool) Material {
	w := finite(weight)
	alpha := clamp01(opacity) * math.Min(math.Abs(w), 1)
	if animated {
		alpha *= 0.7 + 0.3*math.Sin(finite(t)*connectionSlowFreq+PhaseOffset(seed))
	}
	return Material{
		Color:   Hex(WeightColor(w)),
		Opacity: clamp01(alpha),
		Visible: alpha > 0,
	}
}

// =============================================================================
// Data-flow particle
// =============================================================================

const particleBaseSize = 0.12

// Progress returns the looping curve parameter (t+delay) mod cycle / cycle.
// The second result is false when the value is non-finite or outside [0,1].
func Progress(t, delay, cycle float64) (float64, bool) {
	if !(cycle > 0) {
		return 0, false
	}
	u := math.Mod(t+delay, cycle) / cycle
	if math.IsNaN(u) || math.IsInf(u, 0) || u < 0 || u > 1 {
		return 0, false
	}
	return u, true
}

// DataFlowParticle moves a packet along curve. Its size follows sin(uπ),
// peaking at the midpoint and vanishing at both ends.
func DataFlowParticle(t, delay, cycle float64, curve Bezier, color string) (Transform, Material, float64) {
	u, ok := Progress(t, delay, cycle)
	if !ok {
		return Transform{}, Material{Color: color}, 0
	}
	pos := curve.Point(u)
	if !isFinite(pos) {
		return Transform{}, Material{Color: color}, 0
	}
	size := math.Sin(u * math.Pi)
	return Transform{Position: pos, Scale: particleBaseSize * size},
		Material{Color: color, Opacity: 0.9, Emissive: 0.6 + 0.4*size, Visible: size > 0},
		u
}

// =============================================================================
// Attention beam
// =============================================================================

const (
	beamMinLift    = DefaultLift
	beamLiftRange  = 0.4
	beamMinOpacity = 0.1
	beamOpacity    = 0.8
)

// AttentionBeam draws an arc between two token positions. Curve height and
// opacity both grow with strength in [0,1]. Heads at or beyond MaxHeads are
// hidden.
func AttentionBeam(t float64, from, to r3.Vec, strength float64, head int) (Bezier, Material) {
	s := clamp01(strength)
	curve := ArcBetween(finiteVec(from), finiteVec(to), beamMinLift+beamLiftRange*s)
	if head < 0 || head >= MaxHeads {
		return curve, Material{Color: Hex(HeadColor(head))}
	}
	shimmer := 0.85 + 0.15*math.Sin(finite(t)*2+float64(head)*math.Pi/2)
	alpha := (beamMinOpacity + beamOpacity*s) * shimmer
	return curve, Material{
		Color:    Hex(HeadColor(head)),
		Opacity:  clamp01(alpha),
		Emissive: 0.3 + 0.7*s,
		Visible:  true,
	}
}

// =============================================================================
// Light-cone spiral particle
// =============================================================================

// SpiralProgress returns particle progress along its cone in [0,1).
func SpiralProgress(t float64, seed SpiralSeed, cycle float64) float64 {
	if !(cycle > 0) {
		return 0
	}
	u := math.Mod(finite(t)*seed.Speed/cycle+seed.Angle/(2*math.Pi), 1)
	if u < 0 {
		u += 1
	}
	return u
}

// SpiralPosition places a spiral particle at progress u in [0,1]:
//
//	radius = u * maxRadius * radial
//	angle  = seedAngle + u * spiral * 4π
//	depth  = sign * u * height
//
// The cone opens along the Z axis from origin.
func SpiralPosition(u float64, seed SpiralSeed, origin r3.Vec, maxRadius, height, sign float64) r3.Vec {
	u = clamp01(u)
	radius := u * finite(maxRadius) * seed.Radial
	angle := seed.Angle + u*seed.Spiral*4*math.Pi
	return finiteVec(r3.Add(origin, r3.Vec{
		X: radius * math.Cos(angle),
		Y: radius * math.Sin(angle),
		Z: sign * u * finite(height),
	}))
}

// SpiralParticle combines progress, position and a fade-out toward the open
// end of the cone.
func SpiralParticle(t float64, i int, origin r3.Vec, maxRadius, height, sign, cycle float64, color string) (Transform, Material) {
	seed := SpiralSeedFor(i)
	u := SpiralProgress(t, seed, cycle)
	pos := SpiralPosition(u, seed, origin, maxRadius, height, sign)
	fade := 1 - u
	return Transform{Position: pos, Scale: 0.06 + 0.06*fade},
		Material{Color: color, Opacity: clamp01(0.2 + 0.8*fade), Emissive: 0.8, Visible: true}
}

// =============================================================================
// Finite guards
// =============================================================================

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func finiteVec(v r3.Vec) r3.Vec {
	return r3.Vec{X: finite(v.X), Y: finite(v.Y), Z: finite(v.Z)}
}

func isFinite(v r3.Vec) bool {
	return finite(v.X) == v.X && finite(v.Y) == v.Y && finite(v.Z) == v.Z
}
