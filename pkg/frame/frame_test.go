package frame

import (
	"math"
	"reflect"
	"testing"

	"github.com/matzehuels/layerscope/pkg/animate"
	"github.com/matzehuels/layerscope/pkg/clock"
	"github.com/matzehuels/layerscope/pkg/lightcone"
	"github.com/matzehuels/layerscope/pkg/model"
	"github.com/matzehuels/layerscope/pkg/scene"
)

func buildScene(t *testing.T, name string) *scene.Scene {
	t.Helper()
	m, err := model.Preset(name)
	if err != nil {
		t.Fatalf("Preset(%q): %v", name, err)
	}
	return scene.Build(m, scene.DefaultOptions(), nil)
}

func playing(seconds float64) clock.Snapshot {
	c := clock.New(clock.DefaultCycle)
	c.Play()
	for range int(seconds * 60) {
		c.Tick(1.0/60, 1)
	}
	return c.Snapshot()
}

func TestComputeDeterministic(t *testing.T) {
	for _, name := range model.PresetNames() {
		t.Run(name, func(t *testing.T) {
			s := buildScene(t, name)
			snap := playing(1.37)
			st := DefaultSettings()
			st.Toggles.AnimatedConnections = true
			st.Scope = lightcone.ComputeScope(1, lightcone.Both, 2, len(s.Layout.Layers))

			a := Compute(s, snap, st)
			b := Compute(s, snap, st)
			if !reflect.DeepEqual(a, b) {
				t.Error("Compute should be bit-identical for identical inputs")
			}
		})
	}
}

func TestComputeFinite(t *testing.T) {
	for _, name := range model.PresetNames() {
		s := buildScene(t, name)
		st := DefaultSettings()
		st.Glow = math.NaN()
		st.NeuronSize = math.Inf(1)
		st.Scope = lightcone.ComputeScope(0, lightcone.Forward, 3, len(s.Layout.Layers))
		f := Compute(s, playing(2.5), st)

		check := func(kind string, tr animate.Transform, m animate.Material) {
			vals := []float64{tr.Position.X, tr.Position.Y, tr.Position.Z, tr.Scale, m.Opacity, m.Emissive}
			for _, v := range vals {
				if math.IsNaN(v) || math.IsInf(v, 0) {
					t.Fatalf("%s %s: non-finite value in %+v %+v", name, kind, tr, m)
				}
			}
		}
		for _, n := range f.Neurons {
			check("neuron", n.Transform, n.Material)
		}
		for _, p := range f.Particles {
			check("particle", p.Transform, p.Material)
		}
		for _, p := range f.ConeParticles {
			check("cone particle", p.Transform, p.Material)
		}
	}
}

func TestComputePausedFreezes(t *testing.T) {
	s := buildScene(t, model.PresetMLP)
	c := clock.New(clock.DefaultCycle)
	c.Play()
	for range 50 {
		c.Tick(1.0/60, 1)
	}
	c.Pause()
	before := Compute(s, c.Snapshot(), DefaultSettings())
	for range 100 {
		c.Tick(1.0/60, 1)
	}
	after := Compute(s, c.Snapshot(), DefaultSettings())
	if !reflect.DeepEqual(before, after) {
		t.Error("paused frames should not change")
	}
}

func TestComputeToggles(t *testing.T) {
	s := buildScene(t, model.PresetMLP)
	snap := playing(1)

	st := DefaultSettings()
	all := Compute(s, snap, st)
	if len(all.Connections) == 0 || len(all.Particles) == 0 {
		t.Fatal("default settings should draw connections and particles")
	}

	st.Toggles.ShowWeights = false
	st.Toggles.ShowDataFlow = false
	st.Toggles.ShowLabels = false
	off := Compute(s, snap, st)
	if len(off.Connections) != 0 || len(off.Particles) != 0 {
		t.Error("disabled toggles should drop connections and particles")
	}
	for _, l := range off.Layers {
		if l.Label != "" {
			t.Errorf("layer %d label %q should be hidden", l.Index, l.Label)
		}
	}
	if len(off.Neurons) != len(all.Neurons) {
		t.Error("neurons should not depend on weight or data-flow toggles")
	}
}

func TestComputeLightCone(t *testing.T) {
	s := buildScene(t, model.PresetMLP)
	snap := playing(0.5)

	plain := Compute(s, snap, DefaultSettings())
	st := DefaultSettings()
	st.Scope = lightcone.ComputeScope(1, lightcone.Forward, 1, len(s.Layout.Layers))
	lit := Compute(s, snap, st)

	if len(lit.Cones) != 1 || lit.Cones[0].Sign != 1 {
		t.Fatalf("Cones = %+v, want one forward cone", lit.Cones)
	}
	if len(lit.ConeParticles) != s.Options.ConeParticles {
		t.Errorf("len(ConeParticles) = %d, want %d", len(lit.ConeParticles), s.Options.ConeParticles)
	}
	if len(plain.Cones) != 0 || len(plain.ConeParticles) != 0 {
		t.Error("inactive scope should draw no cones")
	}

	for i := range lit.Neurons {
		p, l := plain.Neurons[i], lit.Neurons[i]
		switch {
		case l.Layer == 1 || l.Layer == 2:
			if l.Emissive <= p.Emissive {
				t.Fatalf("in-scope neuron %d/%d not boosted", l.Layer, l.Unit)
			}
		default:
			if l.Opacity >= p.Opacity {
				t.Fatalf("out-of-scope neuron %d/%d not dimmed", l.Layer, l.Unit)
			}
			if l.Opacity <= 0 {
				t.Fatalf("out-of-scope neuron %d/%d should stay visible", l.Layer, l.Unit)
			}
		}
	}
	for _, l := range lit.Layers {
		if l.InScope != (l.Index == 1 || l.Index == 2) {
			t.Errorf("layer %d InScope = %v", l.Index, l.InScope)
		}
	}
}

func TestComputeStepping(t *testing.T) {
	s := buildScene(t, model.PresetMLP)
	c := clock.New(clock.DefaultCycle)
	c.Step(len(s.Layout.Layers))
	f := Compute(s, c.Snapshot(), DefaultSettings())

	if f.ClockState != "stepping" || f.Step != 1 {
		t.Fatalf("ClockState = %s, Step = %d", f.ClockState, f.Step)
	}
	for _, p := range f.Particles {
		if p.Pair != 1 {
			t.Errorf("stepping should only animate pair 1, got pair %d", p.Pair)
		}
	}
	if !f.Layers[1].Current || f.Layers[0].Current {
		t.Error("stepping should mark the current layer")
	}
}

func TestComputeTransformer(t *testing.T) {
	s := buildScene(t, model.PresetBERTTiny)
	f := Compute(s, playing(1), DefaultSettings())
	if len(f.Beams) == 0 {
		t.Fatal("transformer frame should draw attention beams")
	}
	for _, b := range f.Beams {
		if b.Head >= animate.MaxHeads {
			t.Errorf("beam head %d beyond palette", b.Head)
		}
	}
}

func TestComputeUnknownFamily(t *testing.T) {
	m := &model.Model{Family: "recurrent", Layers: []model.Layer{{ID: "a", Units: 4}, {ID: "b", Units: 4}}}
	s := scene.Build(m, scene.DefaultOptions(), nil)
	f := Compute(s, playing(1), DefaultSettings())
	if len(f.Neurons)+len(f.Connections)+len(f.Particles)+len(f.Beams) != 0 {
		t.Error("unknown family should render an empty frame")
	}
	for _, l := range f.Layers {
		if l.Visible {
			t.Error("empty layers should not draw a plate")
		}
	}
}

func TestComputeNilScene(t *testing.T) {
	f := Compute(nil, playing(1), DefaultSettings())
	if f.Count() != 0 {
		t.Errorf("nil scene Count() = %d, want 0", f.Count())
	}
}

type recordingHandle struct {
	transforms int
	materials  int
	curves     int
}

func (h *recordingHandle) SetTransform(animate.Transform) { h.transforms++ }
func (h *recordingHandle) SetMaterial(animate.Material)   { h.materials++ }

type curveHandle struct{ recordingHandle }

func (h *curveHandle) SetCurve(animate.Bezier) { h.curves++ }

func TestApplySkipsMissingHandles(t *testing.T) {
	s := buildScene(t, model.PresetMLP)
	f := Compute(s, playing(1), DefaultSettings())

	neuron := &recordingHandle{}
	conn := &curveHandle{}
	target := MapTarget{
		NeuronKey(0, 0):     neuron,
		ConnectionKey(0, 0): conn,
	}
	st := Apply(f, target)
	if st.Applied != 2 {
		t.Errorf("Applied = %d, want 2", st.Applied)
	}
	if st.Applied+st.Skipped != f.Count() {
		t.Errorf("Applied+Skipped = %d, want %d", st.Applied+st.Skipped, f.Count())
	}
	if neuron.transforms != 1 || neuron.materials != 1 {
		t.Errorf("neuron handle = %+v", neuron)
	}
	if conn.curves != 1 {
		t.Errorf("connection curve set %d times, want 1", conn.curves)
	}

	nilTarget := Apply(f, nil)
	if nilTarget.Skipped != f.Count() || nilTarget.Applied != 0 {
		t.Errorf("Apply(nil) = %+v", nilTarget)
	}
}

func TestCentroid(t *testing.T) {
	s := buildScene(t, model.PresetMLP)
	c := Centroid(s, 0)
	if math.Abs(c.X) > 1e-9 || math.Abs(c.Y) > 1e-9 || c.Z != s.Layout.Layers[0].Origin.Z {
		t.Errorf("Centroid(0) = %v", c)
	}
	if Centroid(s, 99) != Centroid(nil, 0) {
		t.Error("out-of-range centroid should be the zero vector")
	}
}
