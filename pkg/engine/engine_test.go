package engine

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/matzehuels/layerscope/pkg/clock"
	"github.com/matzehuels/layerscope/pkg/errors"
	"github.com/matzehuels/layerscope/pkg/lightcone"
	"github.com/matzehuels/layerscope/pkg/model"
	"github.com/matzehuels/layerscope/pkg/observability"
)

type recorder struct{ events []observability.Event }

func (r *recorder) OnEvent(e observability.Event) { r.events = append(r.events, e) }

func (r *recorder) kinds() []observability.EventKind {
	out := make([]observability.EventKind, len(r.events))
	for i, e := range r.events {
		out[i] = e.Kind
	}
	return out
}

func record(t *testing.T) *recorder {
	t.Helper()
	r := &recorder{}
	observability.SetEventHooks(r)
	t.Cleanup(observability.Reset)
	return r
}

func loaded(t *testing.T, name string) *Engine {
	t.Helper()
	m, err := model.Preset(name)
	if err != nil {
		t.Fatal(err)
	}
	e := New(Options{})
	if err := e.LoadModel(m); err != nil {
		t.Fatalf("LoadModel: %v", err)
	}
	return e
}

func TestSettersClamp(t *testing.T) {
	e := New(Options{})
	tests := []struct {
		name string
		set  func(float64)
		get  func() float64
		in   float64
		want float64
	}{
		{"speed low", e.SetSpeed, func() float64 { return e.State().Speed }, 0, clock.MinSpeed},
		{"speed high", e.SetSpeed, func() float64 { return e.State().Speed }, 10, clock.MaxSpeed},
		{"speed ok", e.SetSpeed, func() float64 { return e.State().Speed }, 1.5, 1.5},
		{"glow low", e.SetGlow, func() float64 { return e.State().Glow }, -1, 0},
		{"glow high", e.SetGlow, func() float64 { return e.State().Glow }, 2, 1},
		{"size low", e.SetNeuronSize, func() float64 { return e.State().NeuronSize }, 0.1, MinNeuronSize},
		{"size high", e.SetNeuronSize, func() float64 { return e.State().NeuronSize }, 9, MaxNeuronSize},
		{"opacity high", e.SetConnectionOpacity, func() float64 { return e.State().ConnectionOpacity }, 1.2, 1},
		{"opacity inf", e.SetConnectionOpacity, func() float64 { return e.State().ConnectionOpacity }, math.Inf(-1), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.set(tt.in)
			if got := tt.get(); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}

	t.Run("nan keeps current", func(t *testing.T) {
		e.SetGlow(0.3)
		e.SetGlow(math.NaN())
		if e.State().Glow != 0.3 {
			t.Errorf("Glow = %v, want 0.3", e.State().Glow)
		}
	})

	t.Run("cone depth", func(t *testing.T) {
		e.SetConeDepth(0)
		if e.State().ConeDepth != lightcone.MinDepth {
			t.Errorf("ConeDepth = %d", e.State().ConeDepth)
		}
		e.SetConeDepth(99)
		if e.State().ConeDepth != lightcone.MaxDepth {
			t.Errorf("ConeDepth = %d", e.State().ConeDepth)
		}
	})
}

func TestLoadModelRejectsInvalid(t *testing.T) {
	e := New(Options{})
	if err := e.LoadModel(nil); !errors.Is(err, errors.ErrCodeInvalidModel) {
		t.Errorf("LoadModel(nil) = %v", err)
	}
	if err := e.LoadModel(&model.Model{Name: "empty"}); err == nil {
		t.Error("LoadModel should reject a model without layers")
	}
	if e.Scene() != nil {
		t.Error("failed loads should not install a scene")
	}
}

func TestSceneCache(t *testing.T) {
	e := loaded(t, model.PresetMLP)
	first := e.Scene()
	gen := e.Generation()

	// Same content, fresh pointer: scene is reused.
	again, _ := model.Preset(model.PresetMLP)
	if err := e.LoadModel(again); err != nil {
		t.Fatal(err)
	}
	if e.Scene() != first || e.Generation() != gen {
		t.Error("same model hash should keep the cached scene")
	}

	other, _ := model.Preset(model.PresetMNISTMLP)
	if err := e.LoadModel(other); err != nil {
		t.Fatal(err)
	}
	if e.Scene() == first || e.Generation() <= gen {
		t.Error("a model swap should rebuild the scene")
	}
	if e.Scene().ModelHash != other.Hash() {
		t.Error("scene should belong to the new model")
	}

	before := e.Scene()
	e.Reload()
	if e.Scene() == before {
		t.Error("Reload should rebuild")
	}
	for i := range before.Pairs {
		if len(before.Pairs[i].Connections) != len(e.Scene().Pairs[i].Connections) {
			t.Fatal("rebuild should sample identically")
		}
		for j, c := range before.Pairs[i].Connections {
			if e.Scene().Pairs[i].Connections[j] != c {
				t.Fatal("rebuild should reproduce identical weights")
			}
		}
	}
}

func TestSetSceneOptionsShrinksLayout(t *testing.T) {
	e := loaded(t, model.PresetMNISTMLP)
	opts := e.opts.Scene
	opts.Layout.MaxUnits = 64
	e.SetSceneOptions(opts)

	s := e.Scene()
	for _, p := range s.Pairs {
		from, to := s.Layout.Layers[p.From], s.Layout.Layers[p.To]
		for _, c := range p.Connections {
			if c.Src >= len(from.Positions) || c.Dst >= len(to.Positions) {
				t.Fatalf("pair %d: connection %d->%d outside %d x %d units",
					p.From, c.Src, c.Dst, len(from.Positions), len(to.Positions))
			}
		}
	}
	if got := len(s.Layout.Layers[0].Positions); got != 64 {
		t.Errorf("input units = %d, want 64", got)
	}
	_ = e.Tick(1.0 / 60)
}

func TestCameraTransitionCancels(t *testing.T) {
	e := loaded(t, model.PresetMLP)
	if e.CameraTransition() != nil {
		t.Fatal("first load should place the camera without a transition")
	}

	conv, _ := model.Preset(model.PresetLeNet5)
	if err := e.LoadModel(conv); err != nil {
		t.Fatal(err)
	}
	t1 := e.CameraTransition()
	if t1 == nil {
		t.Fatal("family change should start a transition")
	}
	e.Tick(0.05)

	tr, _ := model.Preset(model.PresetGPT2Small)
	if err := e.LoadModel(tr); err != nil {
		t.Fatal(err)
	}
	t2 := e.CameraTransition()
	if !t1.Cancelled() {
		t.Error("starting a transition should cancel the previous one")
	}
	if t2 == nil || t2.Cancelled() {
		t.Fatal("newest transition should be active")
	}

	elapsed := t1.elapsed
	for range 200 {
		e.Tick(1.0 / 60)
	}
	if t1.elapsed != elapsed {
		t.Error("cancelled transitions must not advance")
	}
	if e.CameraTransition() != nil || !t2.Done() {
		t.Error("transition should finish")
	}
	want := PoseFor(model.FamilyTransformer, &e.Scene().Layout)
	if e.Camera() != want {
		t.Errorf("Camera() = %+v, want %+v", e.Camera(), want)
	}
}

func TestAutoRotateOrbits(t *testing.T) {
	e := loaded(t, model.PresetMLP)
	start := e.Camera()
	e.SetToggle(ToggleAutoRotate, true)
	e.Tick(0.1)
	got := e.Camera()
	if got.Position == start.Position {
		t.Fatal("auto-rotate should move the camera")
	}
	r0 := r3.Norm(r3.Sub(start.Position, start.Target))
	r1 := r3.Norm(r3.Sub(got.Position, got.Target))
	if !scalar.EqualWithinAbs(r0, r1, 1e-9) {
		t.Errorf("orbit radius changed: %v -> %v", r0, r1)
	}
	if !scalar.EqualWithinAbs(got.Position.Y, start.Position.Y, 1e-9) {
		t.Error("orbit should stay level")
	}
}

func TestScopeFollowsSelection(t *testing.T) {
	e := loaded(t, model.PresetMLP)
	if e.Scope().Active() {
		t.Fatal("no selection should mean an inactive scope")
	}

	e.SelectLayer("hidden_1")
	e.SetConeMode(lightcone.Forward)
	e.SetConeDepth(1)
	if got := e.Scope().Layers; len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Errorf("Scope().Layers = %v, want [1 2]", got)
	}

	e.SetConeMode("sideways")
	if e.State().ConeMode != lightcone.Both {
		t.Errorf("unknown mode should fall back to both, got %q", e.State().ConeMode)
	}

	e.SetConeEnabled(false)
	if e.Scope().Active() {
		t.Error("disabled light cone should scope nothing")
	}
	e.SetConeEnabled(true)

	e.SelectLayer("missing")
	if e.Scope().Active() {
		t.Error("unknown layer ids should scope nothing")
	}

	e.SelectIndex(0)
	if id, ok := e.Selected(); !ok || id != "input_0" {
		t.Errorf("Selected() = %q, %v", id, ok)
	}
	e.SelectIndex(42)
	if _, ok := e.Selected(); ok {
		t.Error("out-of-range index should clear the selection")
	}
}

func TestTickPlayPause(t *testing.T) {
	e := loaded(t, model.PresetMLP)
	f := e.Tick(1.0 / 60)
	if f.Time != 0 {
		t.Error("idle engine should not advance time")
	}

	e.Play()
	e.SetSpeed(2)
	for range 60 {
		f = e.Tick(1.0 / 60)
	}
	if !scalar.EqualWithinAbs(f.Time, 2, 1e-9) {
		t.Errorf("Time = %v, want 2", f.Time)
	}

	e.Pause()
	frozen := e.Tick(0.5)
	if frozen.Time != f.Time {
		t.Error("paused engine should not advance time")
	}

	e.Stop()
	if e.Clock().Elapsed != 0 || e.Clock().State != clock.Idle {
		t.Errorf("Stop should reset, got %+v", e.Clock())
	}
}

func TestStepBounded(t *testing.T) {
	e := loaded(t, model.PresetMLP)
	for range 10 {
		e.Step()
	}
	if got, want := e.Clock().Step, len(e.Scene().Layout.Layers)-1; got != want {
		t.Errorf("Step = %d, want %d", got, want)
	}
	if e.Clock().Elapsed != 0 {
		t.Error("stepping should not advance elapsed time")
	}
}

func TestEvents(t *testing.T) {
	r := record(t)
	e := loaded(t, model.PresetMLP)
	e.Play()
	e.Pause()
	e.Pause() // no-op
	e.SetToggle(ToggleLabels, false)
	e.SetToggle(ToggleLabels, false) // unchanged
	e.SelectLayer("hidden_1")
	e.SetConeDepth(3)
	e.Step()
	e.Stop()

	want := []observability.EventKind{
		observability.EventModelLoaded,
		observability.EventPlay,
		observability.EventPause,
		observability.EventToggle,
		observability.EventLayerSelected,
		observability.EventLightCone,
		observability.EventStep,
		observability.EventStop,
	}
	got := r.kinds()
	if len(got) != len(want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d = %s, want %s", i, got[i], want[i])
		}
	}
	ids := map[string]bool{}
	for _, ev := range r.events {
		if ev.ID == "" || ids[ev.ID] {
			t.Errorf("event %s has empty or duplicate id %q", ev.Kind, ev.ID)
		}
		ids[ev.ID] = true
	}
	if r.events[3].Fields["toggle"] != string(ToggleLabels) || r.events[3].Fields["on"] != false {
		t.Errorf("toggle event fields = %v", r.events[3].Fields)
	}
}

func TestFlipToggle(t *testing.T) {
	e := New(Options{})
	if e.FlipToggle(ToggleWeights) {
		t.Error("weights start on, flip should turn them off")
	}
	if !e.FlipToggle(ToggleWeights) {
		t.Error("second flip should turn weights back on")
	}
	if e.FlipToggle("bogus") {
		t.Error("unknown toggle should report false")
	}
}

func TestSetStateNormalizes(t *testing.T) {
	e := loaded(t, model.PresetMLP)
	id := "hidden_2"
	e.SetState(State{
		Speed:       99,
		Glow:        math.NaN(),
		NeuronSize:  0,
		ConeEnabled: true,
		ConeMode:    "BACKWARD",
		ConeDepth:   1,
		Selected:    &id,
	})
	st := e.State()
	if st.Speed != clock.MaxSpeed || st.Glow != DefaultState().Glow || st.NeuronSize != MinNeuronSize {
		t.Errorf("State() = %+v", st)
	}
	if st.ConeMode != lightcone.Backward {
		t.Errorf("ConeMode = %q", st.ConeMode)
	}
	if got := e.Scope().Layers; len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Errorf("Scope().Layers = %v, want [1 2]", got)
	}

	// State returns a copy.
	*st.Selected = "input_0"
	if sel, _ := e.Selected(); sel != "hidden_2" {
		t.Error("mutating a State copy should not affect the engine")
	}
}

func TestFrameWithoutModel(t *testing.T) {
	e := New(Options{})
	e.Play()
	f := e.Tick(0.016)
	if f.Count() != 0 {
		t.Errorf("frame without a model has %d primitives", f.Count())
	}
}
