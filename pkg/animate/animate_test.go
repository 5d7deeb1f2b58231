package animate

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/spatial/r3"
)

const tol = 1e-9

func vecEqual(a, b r3.Vec) bool {
	return scalar.EqualWithinAbs(a.X, b.X, tol) &&
		scalar.EqualWithinAbs(a.Y, b.Y, tol) &&
		scalar.EqualWithinAbs(a.Z, b.Z, tol)
}

func TestArcBetween(t *testing.T) {
	a := r3.Vec{X: 0, Z: -3}
	b := r3.Vec{X: 0, Z: 3}
	curve := ArcBetween(a, b, DefaultLift)

	want := r3.Vec{Y: 0.3}
	if !vecEqual(curve.Control, want) {
		t.Errorf("Control = %v, want %v", curve.Control, want)
	}
	if !vecEqual(curve.Point(0), a) || !vecEqual(curve.Point(1), b) {
		t.Error("curve should pass through its endpoints")
	}
	if !scalar.EqualWithinAbs(curve.Point(0.5).Y, 0.15, tol) {
		t.Errorf("midpoint y = %v, want 0.15", curve.Point(0.5).Y)
	}
	if !scalar.EqualWithinAbs(curve.Apex(), 0.15, tol) {
		t.Errorf("Apex() = %v, want 0.15", curve.Apex())
	}
	if got := len(curve.Points(8)); got != 9 {
		t.Errorf("len(Points(8)) = %d, want 9", got)
	}
	if tan := curve.Tangent(0.5); !scalar.EqualWithinAbs(tan.Y, 0, tol) || tan.Z <= 0 {
		t.Errorf("Tangent(0.5) = %v, want flat and forward", tan)
	}
}

func TestSpiralSeedFor(t *testing.T) {
	tests := []struct {
		i    int
		want SpiralSeed
	}{
		{0, SpiralSeed{Angle: 0, Speed: 0.5, Radial: 0.3, Spiral: 0.5}},
		{1, SpiralSeed{Angle: 137.0 / 360 * 2 * math.Pi, Speed: 0.5 + 73.0/200, Radial: 0.3 + 47.0/100, Spiral: 0.5 + 31.0/100}},
		{3, SpiralSeed{Angle: 51.0 / 360 * 2 * math.Pi, Speed: 0.5 + 19.0/200, Radial: 0.3 + 1.0/100, Spiral: 0.5 + 43.0/100}},
	}
	for _, tt := range tests {
		got := SpiralSeedFor(tt.i)
		if !scalar.EqualWithinAbs(got.Angle, tt.want.Angle, tol) ||
			!scalar.EqualWithinAbs(got.Speed, tt.want.Speed, tol) ||
			!scalar.EqualWithinAbs(got.Radial, tt.want.Radial, tol) ||
			!scalar.EqualWithinAbs(got.Spiral, tt.want.Spiral, tol) {
			t.Errorf("SpiralSeedFor(%d) = %+v, want %+v", tt.i, got, tt.want)
		}
	}
	if SpiralSeedFor(17) != SpiralSeedFor(17) {
		t.Error("SpiralSeedFor should be stable")
	}
}

func TestUnitHash(t *testing.T) {
	if got := UnitHash(3, 7, 10); !scalar.EqualWithinAbs(got, 0.1, tol) {
		t.Errorf("UnitHash(3,7,10) = %v, want 0.1", got)
	}
	if got := UnitHash(-3, 7, 10); got < 0 || got >= 1 {
		t.Errorf("UnitHash of negative index = %v, want [0,1)", got)
	}
	if UnitHash(5, 7, 0) != 0 {
		t.Error("UnitHash with empty range should be 0")
	}
}

func TestSpiralPosition(t *testing.T) {
	seed := SpiralSeed{Angle: 0, Radial: 0.5, Spiral: 0.5}
	origin := r3.Vec{Z: 3}

	start := SpiralPosition(0, seed, origin, 2, 6, 1)
	if !vecEqual(start, origin) {
		t.Errorf("u=0 should sit at the cone origin, got %v", start)
	}

	// u=1: radius 2*0.5=1, angle 0.5*4π = 2π, depth +6.
	end := SpiralPosition(1, seed, origin, 2, 6, 1)
	if !vecEqual(end, r3.Vec{X: 1, Z: 9}) {
		t.Errorf("u=1 forward = %v, want {1 0 9}", end)
	}
	back := SpiralPosition(1, seed, origin, 2, 6, -1)
	if !scalar.EqualWithinAbs(back.Z, -3, tol) {
		t.Errorf("backward cone depth = %v, want -3", back.Z)
	}
}

func TestProgress(t *testing.T) {
	tests := []struct {
		name         string
		t, delay, cy float64
		want         float64
		ok           bool
	}{
		{"start", 0, 0, 4, 0, true},
		{"half", 2, 0, 4, 0.5, true},
		{"delay wraps", 3, 2, 4, 0.25, true},
		{"negative time hidden", -1, 0, 4, 0, false},
		{"nan hidden", math.NaN(), 0, 4, 0, false},
		{"zero cycle hidden", 1, 0, 0, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Progress(tt.t, tt.delay, tt.cy)
			if ok != tt.ok || !scalar.EqualWithinAbs(got, tt.want, tol) {
				t.Errorf("Progress = (%v, %v), want (%v, %v)", got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestDataFlowParticle(t *testing.T) {
	curve := ArcBetween(r3.Vec{Z: -3}, r3.Vec{Z: 3}, DefaultLift)

	tr, mat, u := DataFlowParticle(2, 0, 4, curve, "#ffffff")
	if !scalar.EqualWithinAbs(u, 0.5, tol) {
		t.Fatalf("u = %v, want 0.5", u)
	}
	if !scalar.EqualWithinAbs(tr.Scale, particleBaseSize, tol) {
		t.Errorf("size at midpoint = %v, want peak %v", tr.Scale, particleBaseSize)
	}
	if !mat.Visible {
		t.Error("midpoint particle should be visible")
	}

	_, mat, _ = DataFlowParticle(0, 0, 4, curve, "#ffffff")
	if mat.Visible {
		t.Error("particle at the loop boundary should have zero size and be hidden")
	}
	_, mat, _ = DataFlowParticle(math.Inf(1), 0, 4, curve, "#ffffff")
	if mat.Visible {
		t.Error("non-finite time should hide the particle")
	}
}

func TestNeuronPulse(t *testing.T) {
	n := Neuron{Position: r3.Vec{X: 1}, Index: 3, Activation: 0.8}
	style := NeuronStyle{Glow: 0.5, Size: 1, ShowActivations: true}

	for _, tm := range []float64{0, 0.3, 1.7, 100} {
		tr, mat := NeuronPulse(tm, n, style)
		base := NeuronBaseIntensity + 0.8*0.5
		if math.Abs(mat.Emissive-base) > neuronPulseAmp+tol {
			t.Errorf("t=%v: emissive %v strays more than %v from %v", tm, mat.Emissive, neuronPulseAmp, base)
		}
		if math.Abs(tr.Scale-NeuronBaseSize) > NeuronBaseSize*neuronScaleAmp+tol {
			t.Errorf("t=%v: scale %v outside pulse band", tm, tr.Scale)
		}
	}

	a, _ := NeuronPulse(1, Neuron{Index: 0}, style)
	b, _ := NeuronPulse(1, Neuron{Index: 1}, style)
	if a.Scale == b.Scale {
		t.Error("neighboring neurons should pulse out of sync")
	}

	_, off := NeuronPulse(1, n, NeuronStyle{Glow: 1, Size: 1})
	_, on := NeuronPulse(1, n, NeuronStyle{Glow: 1, Size: 1, ShowActivations: true})
	if off.Emissive >= on.Emissive {
		t.Errorf("activations off emissive %v should be below on %v", off.Emissive, on.Emissive)
	}

	tr, mat := NeuronPulse(math.NaN(), Neuron{Position: r3.Vec{X: math.Inf(1)}, Activation: math.NaN()}, NeuronStyle{Size: math.NaN()})
	if math.IsNaN(tr.Scale) || math.IsInf(tr.Position.X, 0) || math.IsNaN(mat.Emissive) {
		t.Errorf("non-finite inputs leaked: %+v %+v", tr, mat)
	}
}

func TestConnectionLine(t *testing.T) {
	m := ConnectionLine(0, -0.5, 0.6, 0, false)
	if !scalar.EqualWithinAbs(m.Opacity, 0.3, tol) {
		t.Errorf("Opacity = %v, want 0.3", m.Opacity)
	}
	pos := ConnectionLine(0, 0.5, 0.6, 0, false)
	if pos.Color == m.Color {
		t.Error("weight sign should pick the colour")
	}
	animated := ConnectionLine(1.2, -0.5, 0.6, 4, true)
	if animated.Opacity > 0.3+tol || animated.Opacity < 0.3*0.4-tol {
		t.Errorf("animated opacity %v outside modulation band", animated.Opacity)
	}
	if zero := ConnectionLine(0, 0, 1, 0, false); zero.Visible {
		t.Error("zero weight should be invisible")
	}
}

func TestAttentionBeam(t *testing.T) {
	from, to := r3.Vec{X: -1}, r3.Vec{X: 1}
	weakCurve, weak := AttentionBeam(0, from, to, 0.1, 0)
	strongCurve, strong := AttentionBeam(0, from, to, 0.9, 0)

	if strongCurve.Apex() <= weakCurve.Apex() {
		t.Error("stronger attention should arc higher")
	}
	if strong.Opacity <= weak.Opacity {
		t.Error("stronger attention should be more opaque")
	}

	seen := map[string]bool{}
	for h := range MaxHeads {
		_, m := AttentionBeam(0, from, to, 0.5, h)
		seen[m.Color] = true
	}
	if len(seen) != MaxHeads {
		t.Errorf("got %d distinct head colours, want %d", len(seen), MaxHeads)
	}
	if _, m := AttentionBeam(0, from, to, 0.5, MaxHeads); m.Visible {
		t.Error("heads beyond the palette should be hidden")
	}
}

func TestHeadColorWraps(t *testing.T) {
	tests := []struct {
		head, want int
	}{
		{0, 0},
		{MaxHeads, 0},
		{MaxHeads + 3, 3},
		{-1, MaxHeads - 1},
		{math.MinInt, ((math.MinInt % MaxHeads) + MaxHeads) % MaxHeads},
		{math.MaxInt, math.MaxInt % MaxHeads},
	}
	for _, tt := range tests {
		if got, want := Hex(HeadColor(tt.head)), Hex(HeadColor(tt.want)); got != want {
			t.Errorf("HeadColor(%d) = %s, want %s", tt.head, got, want)
		}
	}
}

func TestDim(t *testing.T) {
	c := HeadColor(0)
	if Hex(Dim(c, 1)) != Hex(c) {
		t.Error("Dim(c, 1) should leave the colour unchanged")
	}
	if Hex(Dim(c, 0)) != Hex(background) {
		t.Error("Dim(c, 0) should yield the background")
	}
}
