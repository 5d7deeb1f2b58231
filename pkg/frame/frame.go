// Package frame computes the complete visual state of one animation frame.
//
// [Compute] is a pure function of a [scene.Scene], a clock snapshot and
// the visualization [Settings]: calling it twice with the same inputs yields
// bit-identical output. Light-cone modulation is applied last, after every
// animator has run.
//
// [Apply] pushes a computed frame to renderer handles. Handles the renderer
// has not created yet are skipped for that frame.
package frame

import (
	colorful "github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/matzehuels/layerscope/pkg/animate"
	"github.com/matzehuels/layerscope/pkg/clock"
	"github.com/matzehuels/layerscope/pkg/lightcone"
	"github.com/matzehuels/layerscope/pkg/model"
	"github.com/matzehuels/layerscope/pkg/scene"
)

// Toggles are the boolean visualization switches.
type Toggles struct {
	ShowWeights         bool `json:"show_weights" toml:"show_weights"`
	ShowActivations     bool `json:"show_activations" toml:"show_activations"`
	ShowLabels          bool `json:"show_labels" toml:"show_labels"`
	ShowDataFlow        bool `json:"show_data_flow" toml:"show_data_flow"`
	AutoRotate          bool `json:"auto_rotate" toml:"auto_rotate"`
	AnimatedConnections bool `json:"animated_connections" toml:"animated_connections"`
}

// Settings is the per-frame input read from visualization state. Values are
// expected to be clamped already; Compute still guards against non-finite
// inputs.
type Settings struct {
	Toggles           Toggles
	Glow              float64
	NeuronSize        float64
	ConnectionOpacity float64
	Scope             lightcone.Scope
}

// DefaultSettings returns the settings a fresh visualization starts with.
func DefaultSettings() Settings {
	return Settings{
		Toggles: Toggles{
			ShowWeights:     true,
			ShowActivations: true,
			ShowLabels:      true,
			ShowDataFlow:    true,
		},
		Glow:              0.6,
		NeuronSize:        1,
		ConnectionOpacity: 0.4,
		Scope:             lightcone.ComputeScope(-1, lightcone.Both, lightcone.DefaultDepth, 0),
	}
}

// =============================================================================
// Frame types
// =============================================================================

// Layer is a layer plate.
type Layer struct {
	Index   int    `json:"index"`
	ID      string `json:"id"`
	Label   string `json:"label,omitempty"`
	InScope bool   `json:"in_scope"`
	Current bool   `json:"current"`
	animate.Transform
	animate.Material
}

// Neuron is one unit (or feature-map plane) of a layer.
type Neuron struct {
	Layer int `json:"layer"`
	Unit  int `json:"unit"`
	animate.Transform
	animate.Material
}

// Connection is one sampled connection curve.
type Connection struct {
	Pair   int            `json:"pair"`
	Index  int            `json:"index"`
	Src    int            `json:"src"`
	Dst    int            `json:"dst"`
	Weight float64        `json:"weight"`
	Curve  animate.Bezier `json:"curve"`
	animate.Material
}

// Particle is a data-flow packet on a connection.
type Particle struct {
	Pair  int     `json:"pair"`
	Index int     `json:"index"`
	T     float64 `json:"t"`
	animate.Transform
	animate.Material
}

// Beam is an attention arc between two token slots.
type Beam struct {
	Layer    int            `json:"layer"`
	Index    int            `json:"index"`
	Head     int            `json:"head"`
	From     int            `json:"from"`
	To       int            `json:"to"`
	Strength float64        `json:"strength"`
	Curve    animate.Bezier `json:"curve"`
	animate.Material
}

// ConeParticle is one spiral particle inside a light cone.
type ConeParticle struct {
	Cone  int `json:"cone"`
	Index int `json:"index"`
	animate.Transform
	animate.Material
}

// Frame is the full output of one tick.
type Frame struct {
	Time          float64          `json:"time"`
	Phase         float64          `json:"phase"`
	ClockState    string           `json:"clock_state"`
	Step          int              `json:"step"`
	Family        model.Family     `json:"family"`
	Layers        []Layer          `json:"layers"`
	Neurons       []Neuron         `json:"neurons"`
	Connections   []Connection     `json:"connections"`
	Particles     []Particle       `json:"particles"`
	Beams         []Beam           `json:"beams"`
	Cones         []lightcone.Cone `json:"cones"`
	ConeParticles []ConeParticle   `json:"cone_particles"`
}

// Count returns the number of primitives in the frame.
func (f *Frame) Count() int {
	return len(f.Layers) + len(f.Neurons) + len(f.Connections) + len(f.Particles) +
		len(f.Beams) + len(f.Cones) + len(f.ConeParticles)
}

// =============================================================================
// Compute
// =============================================================================

const coneColor = "#e0f2fe"

// Compute derives the frame for scene s at clock snapshot c.
func Compute(s *scene.Scene, c clock.Snapshot, st Settings) Frame {
	f := Frame{
		Time:       c.Elapsed,
		Phase:      c.Phase,
		ClockState: c.State.String(),
		Step:       c.Step,
	}
	if s == nil {
		return f
	}
	f.Family = s.Family
	cycle := c.Cycle
	if !(cycle > 0) {
		cycle = clock.DefaultCycle
	}
	t := c.Elapsed
	stepping := c.State == clock.Stepping

	f.Layers = layers(s, st, c.Step, stepping)
	f.Neurons = neurons(s, st, t)
	if st.Toggles.ShowWeights {
		f.Connections = connections(s, st, t)
	}
	if st.Toggles.ShowDataFlow {
		f.Particles = particles(s, st, t, cycle, c.Step, stepping)
	}
	f.Beams = beams(s, st, t)
	if st.Scope.Active() {
		f.Cones, f.ConeParticles = cones(s, st, t, cycle)
	}
	return f
}

func layers(s *scene.Scene, st Settings, step int, stepping bool) []Layer {
	accent := animate.FamilyAccent(s.Family)
	out := make([]Layer, len(s.Layout.Layers))
	for i, slot := range s.Layout.Layers {
		factor := st.Scope.Factor(i)
		label := ""
		if st.Toggles.ShowLabels {
			label = slot.Label
		}
		l := Layer{
			Index:     i,
			ID:        slot.ID,
			Label:     label,
			InScope:   st.Scope.Contains(i),
			Current:   stepping && step == i,
			Transform: animate.Transform{Position: slot.Origin, Scale: 1},
			Material: animate.Material{
				Color:    animate.Hex(accent),
				Opacity:  0.15,
				Emissive: 0.1,
				Visible:  slot.Units > 0,
			},
		}
		if l.Current {
			l.Emissive = 0.6
		}
		l.Material = modulate(l.Material, factor)
		out[i] = l
	}
	return out
}

func neurons(s *scene.Scene, st Settings, t float64) []Neuron {
	style := animate.NeuronStyle{
		Glow:            st.Glow,
		Size:            st.NeuronSize,
		ShowActivations: st.Toggles.ShowActivations,
	}
	out := make([]Neuron, 0, s.Layout.UnitCount())
	for i, slot := range s.Layout.Layers {
		factor := st.Scope.Factor(i)
		for u, pos := range slot.Positions {
			act := 0.0
			if i < len(s.Activations) && u < len(s.Activations[i]) {
				act = s.Activations[i][u]
			}
			tr, mat := animate.NeuronPulse(t, animate.Neuron{Position: pos, Index: u, Activation: act}, style)
			if slot.PlaneSize > 0 {
				tr.Scale *= slot.PlaneSize / animate.NeuronBaseSize
			}
			out = append(out, Neuron{
				Layer:     i,
				Unit:      u,
				Transform: tr,
				Material:  modulate(mat, factor),
			})
		}
	}
	return out
}

func connections(s *scene.Scene, st Settings, t float64) []Connection {
	n := 0
	for _, p := range s.Pairs {
		n += len(p.Connections)
	}
	out := make([]Connection, 0, n)
	seed := 0
	for pi, p := range s.Pairs {
		factor := st.Scope.ConnectionFactor(p.From, p.To)
		for ci, c := range p.Connections {
			mat := animate.ConnectionLine(t, c.Weight, st.ConnectionOpacity, seed, st.Toggles.AnimatedConnections)
			seed++
			out = append(out, Connection{
				Pair:     pi,
				Index:    ci,
				Src:      c.Src,
				Dst:      c.Dst,
				Weight:   c.Weight,
				Curve:    p.Curves[ci],
				Material: modulate(mat, factor),
			})
		}
	}
	return out
}

func particles(s *scene.Scene, st Settings, t, cycle float64, step int, stepping bool) []Particle {
	color := animate.Hex(animate.ActivationColor(1))
	var out []Particle
	for pi, p := range s.Pairs {
		if stepping && pi != step {
			continue
		}
		factor := st.Scope.ConnectionFactor(p.From, p.To)
		for k, part := range p.Particles {
			if part.Connection >= len(p.Curves) {
				continue
			}
			delay := animate.ParticleDelay(part.Seed, cycle)
			tr, mat, u := animate.DataFlowParticle(t, delay, cycle, p.Curves[part.Connection], color)
			out = append(out, Particle{
				Pair:      pi,
				Index:     k,
				T:         u,
				Transform: tr,
				Material:  modulate(mat, factor),
			})
		}
	}
	return out
}

func beams(s *scene.Scene, st Settings, t float64) []Beam {
	var out []Beam
	for _, att := range s.Attention {
		if att.Layer < 0 || att.Layer >= len(s.Layout.Layers) {
			continue
		}
		slot := s.Layout.Layers[att.Layer]
		factor := st.Scope.Factor(att.Layer)
		for k, link := range att.Links {
			if link.From >= len(slot.Positions) || link.To >= len(slot.Positions) {
				continue
			}
			curve, mat := animate.AttentionBeam(t, slot.Positions[link.From], slot.Positions[link.To], link.Strength, link.Head)
			out = append(out, Beam{
				Layer:    att.Layer,
				Index:    k,
				Head:     link.Head,
				From:     link.From,
				To:       link.To,
				Strength: link.Strength,
				Curve:    curve,
				Material: modulate(mat, factor),
			})
		}
	}
	return out
}

func cones(s *scene.Scene, st Settings, t, cycle float64) ([]lightcone.Cone, []ConeParticle) {
	sel := st.Scope.Selected
	if sel < 0 || sel >= len(s.Layout.Layers) {
		return nil, nil
	}
	origin := s.Layout.Layers[sel].Origin
	geo := lightcone.Geometry(origin, st.Scope.Mode, st.Scope.Depth, s.Layout.Options.LayerSpacing)
	per := s.Options.ConeParticles
	out := make([]ConeParticle, 0, len(geo)*per)
	for ci, cone := range geo {
		for i := range per {
			tr, mat := animate.SpiralParticle(t, ci*per+i, cone.Origin, cone.Radius, cone.Length, cone.Sign, cycle, coneColor)
			out = append(out, ConeParticle{Cone: ci, Index: i, Transform: tr, Material: mat})
		}
	}
	return geo, out
}

// modulate applies a light-cone factor: opacity and emissive scale by the
// factor (opacity capped at 1) and dimmed primitives fade toward the
// background colour.
func modulate(m animate.Material, factor float64) animate.Material {
	if factor == 1 {
		return m
	}
	m.Opacity = min(m.Opacity*factor, 1)
	m.Emissive *= factor
	if factor < 1 {
		if c, err := colorful.Hex(m.Color); err == nil {
			m.Color = animate.Hex(animate.Dim(c, 0.35))
		}
	}
	return m
}

// Centroid returns the mean position of a layer's units, or its origin if
// it has none.
func Centroid(s *scene.Scene, layer int) r3.Vec {
	if s == nil || layer < 0 || layer >= len(s.Layout.Layers) {
		return r3.Vec{}
	}
	slot := s.Layout.Layers[layer]
	if len(slot.Positions) == 0 {
		return slot.Origin
	}
	var sum r3.Vec
	for _, p := range slot.Positions {
		sum = r3.Add(sum, p)
	}
	return r3.Scale(1/float64(len(slot.Positions)), sum)
}
