// Package engine is the stateful owner of a running visualization.
//
// An [Engine] holds the only state that changes across frames: the animation
// clock, the visualization controls and the camera rig. Everything else (the
// scene, the light-cone scope) is derived data, rebuilt wholesale when its
// inputs change and never patched in place.
//
// The engine is driven by a host frame loop calling [Engine.Tick] with the
// measured frame delta. It is single-threaded: callers must not use one
// Engine from several goroutines at once.
//
// State transitions (play, pause, stop, step, layer selected, toggle flipped,
// model loaded, light cone changed) are reported through
// [observability.Events] and never wait on the receiver.
package engine

import (
	"io"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/layerscope/pkg/clock"
	"github.com/matzehuels/layerscope/pkg/errors"
	"github.com/matzehuels/layerscope/pkg/frame"
	"github.com/matzehuels/layerscope/pkg/lightcone"
	"github.com/matzehuels/layerscope/pkg/model"
	"github.com/matzehuels/layerscope/pkg/observability"
	"github.com/matzehuels/layerscope/pkg/sampler"
	"github.com/matzehuels/layerscope/pkg/scene"
)

// Options configures a new Engine.
type Options struct {
	// Cycle is the data-flow loop length in seconds.
	Cycle float64
	// Scene shapes layout, sampling density and particle counts.
	Scene scene.Options
	// State is the initial visualization state. It is normalized on use.
	State *State
	// TransitionDuration is the camera move length on a family change.
	TransitionDuration float64
	// Logger receives debug output. Nil discards.
	Logger *log.Logger
}

// SetDefaults fills unset fields.
func (o *Options) SetDefaults() {
	if !(o.Cycle > 0) {
		o.Cycle = clock.DefaultCycle
	}
	o.Scene.SetDefaults()
	if !(o.TransitionDuration > 0) {
		o.TransitionDuration = DefaultTransitionDuration
	}
	if o.Logger == nil {
		o.Logger = log.New(io.Discard)
	}
}

type sceneKey struct {
	hash string
	gen  uint64
}

// Engine drives one visualization.
type Engine struct {
	opts    Options
	logger  *log.Logger
	clock   *clock.Clock
	state   State
	rig     *Rig
	samples *sampler.Cache

	model *model.Model
	scene *scene.Scene
	key   sceneKey
	gen   uint64
	scope lightcone.Scope
}

// New creates an engine with no model loaded.
func New(opts Options) *Engine {
	opts.SetDefaults()
	st := DefaultState()
	if opts.State != nil {
		st = *opts.State
	}
	st.Normalize()
	e := &Engine{
		opts:    opts,
		logger:  opts.Logger,
		clock:   clock.New(opts.Cycle),
		state:   st,
		rig:     NewRig(PoseFor("", nil)),
		samples: sampler.NewCache(opts.Scene.DensityCap),
	}
	e.recomputeScope()
	return e
}

// =============================================================================
// Model and scene
// =============================================================================

// LoadModel validates m and makes it the current model. Loading a model with
// the same content hash as the current one keeps the existing scene. A
// change of family starts a camera transition, cancelling any in flight.
func (e *Engine) LoadModel(m *model.Model) error {
	if m == nil {
		return errors.New(errors.ErrCodeInvalidModel, "model is nil")
	}
	if err := m.Validate(); err != nil {
		return err
	}
	hash := m.Hash()
	if e.scene != nil && e.key.hash == hash {
		e.model = m
		e.logger.Debug("model unchanged, keeping scene", "model", m.Name, "generation", e.key.gen)
		observability.Emit(observability.EventModelLoaded,
			"model", m.Name, "hash", hash, "family", string(m.Family), "cached", true)
		return nil
	}

	prev := e.scene
	if prev != nil {
		e.samples.Invalidate(prev.ModelHash)
	}
	e.model = m
	e.rebuild()
	e.recomputeScope()

	pose := PoseFor(m.Family, &e.scene.Layout)
	switch {
	case prev == nil:
		e.rig = NewRig(pose)
	case prev.Family != m.Family:
		e.rig.Start(pose, e.opts.TransitionDuration)
		e.logger.Debug("camera transition", "from", prev.Family, "to", m.Family, "generation", e.rig.Generation())
	}

	observability.Emit(observability.EventModelLoaded,
		"model", m.Name, "hash", hash, "family", string(m.Family), "cached", false)
	return nil
}

// SetSceneOptions replaces the scene options and rebuilds the current scene.
// A different density cap discards every cached connection sample.
func (e *Engine) SetSceneOptions(opts scene.Options) {
	opts.SetDefaults()
	if opts.DensityCap != e.opts.Scene.DensityCap {
		e.samples = sampler.NewCache(opts.DensityCap)
	}
	e.opts.Scene = opts
	if e.model != nil {
		e.rebuild()
		e.recomputeScope()
	}
}

// Reload drops cached samples for the current model and rebuilds its scene.
func (e *Engine) Reload() {
	if e.model == nil {
		return
	}
	e.samples.Invalidate(e.key.hash)
	e.rebuild()
	e.recomputeScope()
}

func (e *Engine) rebuild() {
	e.gen++
	e.scene = scene.Build(e.model, e.opts.Scene, e.samples)
	e.key = sceneKey{hash: e.scene.ModelHash, gen: e.gen}
	e.logger.Debug("built scene",
		"model", e.model.Name,
		"layers", len(e.scene.Layout.Layers),
		"connections", e.scene.ConnectionCount(),
		"generation", e.gen)
}

// Model returns the current model, or nil.
func (e *Engine) Model() *model.Model { return e.model }

// Scene returns the current scene, or nil before the first load.
func (e *Engine) Scene() *scene.Scene { return e.scene }

// Generation increases every time the scene is rebuilt.
func (e *Engine) Generation() uint64 { return e.key.gen }

// =============================================================================
// Clock
// =============================================================================

// Play starts or resumes the animation.
func (e *Engine) Play() {
	e.clock.Play()
	observability.Emit(observability.EventPlay, "elapsed", e.clock.Elapsed())
}

// Pause freezes the animation if it is playing.
func (e *Engine) Pause() {
	if e.clock.State() != clock.Playing {
		return
	}
	e.clock.Pause()
	observability.Emit(observability.EventPause, "elapsed", e.clock.Elapsed())
}

// Stop resets the animation to idle at time zero.
func (e *Engine) Stop() {
	e.clock.Stop()
	observability.Emit(observability.EventStop)
}

// Step advances the discrete step counter by one, bounded by the layer count.
func (e *Engine) Step() {
	e.clock.Step(e.layerCount())
	observability.Emit(observability.EventStep, "step", e.clock.StepIndex())
}

// Clock returns a snapshot of the animation clock.
func (e *Engine) Clock() clock.Snapshot { return e.clock.Snapshot() }

// =============================================================================
// Frame loop
// =============================================================================

// Tick advances the clock and camera by delta seconds and returns the new
// frame. Delta is clamped by the clock; non-positive deltas change nothing.
func (e *Engine) Tick(delta float64) frame.Frame {
	e.clock.Tick(delta, e.state.Speed)
	e.rig.Advance(min(delta, clock.MaxDelta), e.state.Toggles.AutoRotate)
	return e.Frame()
}

// Frame computes the frame for the current state without advancing time.
func (e *Engine) Frame() frame.Frame {
	return frame.Compute(e.scene, e.clock.Snapshot(), e.Settings())
}

// Settings returns the per-frame settings derived from the current state.
func (e *Engine) Settings() frame.Settings {
	return settings(e.state, e.scope)
}

// SettingsFor derives frame settings from a state for a model laid out with
// total layers, without an engine. The state is normalized first.
func SettingsFor(st State, m *model.Model, total int) frame.Settings {
	st.Normalize()
	return settings(st, ScopeFor(st, m, total))
}

// ScopeFor computes the light-cone scope a state selects in m.
func ScopeFor(st State, m *model.Model, total int) lightcone.Scope {
	sel := -1
	if st.ConeEnabled && st.Selected != nil && m != nil {
		sel = m.LayerIndex(*st.Selected)
	}
	return lightcone.ComputeScope(sel, st.ConeMode, st.ConeDepth, total)
}

func settings(st State, scope lightcone.Scope) frame.Settings {
	return frame.Settings{
		Toggles:           st.Toggles,
		Glow:              st.Glow,
		NeuronSize:        st.NeuronSize,
		ConnectionOpacity: st.ConnectionOpacity,
		Scope:             scope,
	}
}

// Camera returns the current camera pose.
func (e *Engine) Camera() Pose { return e.rig.Pose() }

// CameraTransition returns the in-flight camera transition, or nil.
func (e *Engine) CameraTransition() *Transition { return e.rig.Active() }

// =============================================================================
// Visualization state
// =============================================================================

// State returns a copy of the visualization state.
func (e *Engine) State() State {
	st := e.state
	if st.Selected != nil {
		id := *st.Selected
		st.Selected = &id
	}
	return st
}

// SetState replaces the whole visualization state, clamping it into range.
// No events are emitted.
func (e *Engine) SetState(st State) {
	st.Normalize()
	e.state = st
	e.recomputeScope()
}

// SetSpeed sets the speed multiplier, clamped to [clock.MinSpeed, clock.MaxSpeed].
func (e *Engine) SetSpeed(v float64) {
	e.state.Speed = clampOr(v, clock.MinSpeed, clock.MaxSpeed, e.state.Speed)
}

// SetGlow sets the glow intensity, clamped to [0, 1].
func (e *Engine) SetGlow(v float64) {
	e.state.Glow = clampOr(v, MinGlow, MaxGlow, e.state.Glow)
}

// SetNeuronSize sets the neuron size multiplier, clamped to [0.5, 2].
func (e *Engine) SetNeuronSize(v float64) {
	e.state.NeuronSize = clampOr(v, MinNeuronSize, MaxNeuronSize, e.state.NeuronSize)
}

// SetConnectionOpacity sets the global connection opacity, clamped to [0, 1].
func (e *Engine) SetConnectionOpacity(v float64) {
	e.state.ConnectionOpacity = clampOr(v, MinOpacity, MaxOpacity, e.state.ConnectionOpacity)
}

// SetToggle sets a boolean switch. Unknown toggles are ignored. An event is
// emitted only when the value changes.
func (e *Engine) SetToggle(t Toggle, on bool) {
	if !e.state.Set(t, on) {
		return
	}
	observability.Emit(observability.EventToggle, "toggle", string(t), "on", on)
}

// FlipToggle inverts a boolean switch and returns its new value.
func (e *Engine) FlipToggle(t Toggle) bool {
	if t.field(&e.state.Toggles) == nil {
		return false
	}
	e.SetToggle(t, !e.state.Enabled(t))
	return e.state.Enabled(t)
}

// SelectLayer selects a layer by id. An id that does not exist in the
// current model is kept, but scopes nothing.
func (e *Engine) SelectLayer(id string) {
	e.state.Selected = &id
	e.recomputeScope()
	observability.Emit(observability.EventLayerSelected, "layer", id, "index", e.scope.Selected)
}

// SelectIndex selects the layer at index i. An out-of-range index clears the
// selection.
func (e *Engine) SelectIndex(i int) {
	if e.model == nil || i < 0 || i >= len(e.model.Layers) {
		e.ClearSelection()
		return
	}
	e.SelectLayer(e.model.Layers[i].ID)
}

// ClearSelection deselects any layer.
func (e *Engine) ClearSelection() {
	if e.state.Selected == nil {
		return
	}
	e.state.Selected = nil
	e.recomputeScope()
	observability.Emit(observability.EventLayerSelected, "layer", nil, "index", -1)
}

// Selected returns the selected layer id and whether one is set.
func (e *Engine) Selected() (string, bool) {
	if e.state.Selected == nil {
		return "", false
	}
	return *e.state.Selected, true
}

// SetConeEnabled turns light-cone highlighting on or off.
func (e *Engine) SetConeEnabled(on bool) {
	if e.state.ConeEnabled == on {
		return
	}
	e.state.ConeEnabled = on
	e.recomputeScope()
	e.emitCone()
}

// SetConeMode sets the reach direction. Unknown modes are treated as both.
func (e *Engine) SetConeMode(m lightcone.Mode) {
	if parsed, err := lightcone.ParseMode(string(m)); err == nil {
		m = parsed
	} else {
		m = lightcone.Both
	}
	if e.state.ConeMode == m {
		return
	}
	e.state.ConeMode = m
	e.recomputeScope()
	e.emitCone()
}

// SetConeDepth sets the reach depth, clamped to [1, 10].
func (e *Engine) SetConeDepth(d int) {
	d = lightcone.ClampDepth(d)
	if e.state.ConeDepth == d {
		return
	}
	e.state.ConeDepth = d
	e.recomputeScope()
	e.emitCone()
}

// Scope returns the current light-cone scope.
func (e *Engine) Scope() lightcone.Scope { return e.scope }

func (e *Engine) emitCone() {
	observability.Emit(observability.EventLightCone,
		"enabled", e.state.ConeEnabled,
		"mode", string(e.state.ConeMode),
		"depth", e.state.ConeDepth,
		"layers", len(e.scope.Layers))
}

// recomputeScope derives the scope from scratch.
func (e *Engine) recomputeScope() {
	e.scope = ScopeFor(e.state, e.model, e.layerCount())
}

func (e *Engine) layerCount() int {
	if e.scene == nil {
		return 0
	}
	return len(e.scene.Layout.Layers)
}
