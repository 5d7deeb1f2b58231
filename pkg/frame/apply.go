package frame

import (
	"strconv"

	"github.com/matzehuels/layerscope/pkg/animate"
)

// Handle is a renderer-side primitive the frame writes into.
type Handle interface {
	SetTransform(animate.Transform)
	SetMaterial(animate.Material)
}

// CurveHandle is implemented by handles that draw a curve (connections and
// attention beams).
type CurveHandle interface {
	Handle
	SetCurve(animate.Bezier)
}

// Target resolves primitive keys to renderer handles. Lookup returns false
// for primitives the renderer has not created yet.
type Target interface {
	Lookup(key string) (Handle, bool)
}

// ApplyStats reports how many primitives were written and how many were
// skipped because their handle did not exist.
type ApplyStats struct {
	Applied int
	Skipped int
}

// Primitive keys. Each identifies one primitive stably across frames.
func LayerKey(layer int) string { return "layer/" + strconv.Itoa(layer) }

func NeuronKey(layer, unit int) string {
	return "neuron/" + strconv.Itoa(layer) + "/" + strconv.Itoa(unit)
}

func ConnectionKey(pair, index int) string {
	return "connection/" + strconv.Itoa(pair) + "/" + strconv.Itoa(index)
}

func ParticleKey(pair, index int) string {
	return "particle/" + strconv.Itoa(pair) + "/" + strconv.Itoa(index)
}

func BeamKey(layer, index int) string {
	return "beam/" + strconv.Itoa(layer) + "/" + strconv.Itoa(index)
}

func ConeKey(cone int) string { return "cone/" + strconv.Itoa(cone) }

func ConeParticleKey(cone, index int) string {
	return "cone-particle/" + strconv.Itoa(cone) + "/" + strconv.Itoa(index)
}

// Apply writes every primitive of f to its handle in target. Missing handles
// are skipped silently; the next frame picks them up once they exist.
func Apply(f Frame, target Target) ApplyStats {
	var st ApplyStats
	if target == nil {
		st.Skipped = f.Count()
		return st
	}
	put := func(key string, tr animate.Transform, mat animate.Material, curve *animate.Bezier) {
		h, ok := target.Lookup(key)
		if !ok || h == nil {
			st.Skipped++
			return
		}
		h.SetTransform(tr)
		h.SetMaterial(mat)
		if curve != nil {
			if ch, ok := h.(CurveHandle); ok {
				ch.SetCurve(*curve)
			}
		}
		st.Applied++
	}

	for _, l := range f.Layers {
		put(LayerKey(l.Index), l.Transform, l.Material, nil)
	}
	for _, n := range f.Neurons {
		put(NeuronKey(n.Layer, n.Unit), n.Transform, n.Material, nil)
	}
	for _, c := range f.Connections {
		put(ConnectionKey(c.Pair, c.Index), animate.Transform{Position: c.Curve.Start, Scale: 1}, c.Material, &c.Curve)
	}
	for _, p := range f.Particles {
		put(ParticleKey(p.Pair, p.Index), p.Transform, p.Material, nil)
	}
	for _, b := range f.Beams {
		put(BeamKey(b.Layer, b.Index), animate.Transform{Position: b.Curve.Start, Scale: 1}, b.Material, &b.Curve)
	}
	for i, c := range f.Cones {
		put(ConeKey(i), animate.Transform{Position: c.Origin, Scale: c.Radius},
			animate.Material{Color: coneColor, Opacity: 0.12, Emissive: 0.3, Visible: true}, nil)
	}
	for _, p := range f.ConeParticles {
		put(ConeParticleKey(p.Cone, p.Index), p.Transform, p.Material, nil)
	}
	return st
}

// MapTarget is a Target backed by a map. It is handy for tests and for
// renderers that register handles up front.
type MapTarget map[string]Handle

// Lookup implements Target.
func (m MapTarget) Lookup(key string) (Handle, bool) {
	h, ok := m[key]
	return h, ok
}
