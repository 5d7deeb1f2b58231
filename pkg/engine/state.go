package engine

import (
	"math"

	"github.com/matzehuels/layerscope/pkg/clock"
	"github.com/matzehuels/layerscope/pkg/frame"
	"github.com/matzehuels/layerscope/pkg/lightcone"
)

// Bounds for the continuous visualization controls.
const (
	MinGlow       = 0.0
	MaxGlow       = 1.0
	MinNeuronSize = 0.5
	MaxNeuronSize = 2.0
	MinOpacity    = 0.0
	MaxOpacity    = 1.0
)

// Toggle names one boolean visualization switch.
type Toggle string

const (
	ToggleWeights             Toggle = "show_weights"
	ToggleActivations         Toggle = "show_activations"
	ToggleLabels              Toggle = "show_labels"
	ToggleDataFlow            Toggle = "show_data_flow"
	ToggleAutoRotate          Toggle = "auto_rotate"
	ToggleAnimatedConnections Toggle = "animated_connections"
)

// Toggles lists every toggle name in display order.
func Toggles() []Toggle {
	return []Toggle{
		ToggleWeights, ToggleActivations, ToggleLabels,
		ToggleDataFlow, ToggleAutoRotate, ToggleAnimatedConnections,
	}
}

func (t Toggle) field(ts *frame.Toggles) *bool {
	switch t {
	case ToggleWeights:
		return &ts.ShowWeights
	case ToggleActivations:
		return &ts.ShowActivations
	case ToggleLabels:
		return &ts.ShowLabels
	case ToggleDataFlow:
		return &ts.ShowDataFlow
	case ToggleAutoRotate:
		return &ts.AutoRotate
	case ToggleAnimatedConnections:
		return &ts.AnimatedConnections
	}
	return nil
}

// State is the visualization state the engine reads every tick. Values held
// here are always within their bounds: the setters on [Engine] clamp rather
// than reject.
type State struct {
	Speed             float64        `json:"speed" toml:"speed"`
	Glow              float64        `json:"glow" toml:"glow"`
	NeuronSize        float64        `json:"neuron_size" toml:"neuron_size"`
	ConnectionOpacity float64        `json:"connection_opacity" toml:"connection_opacity"`
	Toggles           frame.Toggles  `json:"toggles" toml:"toggles"`
	Selected          *string        `json:"selected,omitempty" toml:"selected,omitempty"`
	ConeEnabled       bool           `json:"cone_enabled" toml:"cone_enabled"`
	ConeMode          lightcone.Mode `json:"cone_mode" toml:"cone_mode"`
	ConeDepth         int            `json:"cone_depth" toml:"cone_depth"`
}

// DefaultState returns the state a fresh engine starts with.
func DefaultState() State {
	d := frame.DefaultSettings()
	return State{
		Speed:             1,
		Glow:              d.Glow,
		NeuronSize:        d.NeuronSize,
		ConnectionOpacity: d.ConnectionOpacity,
		Toggles:           d.Toggles,
		ConeEnabled:       true,
		ConeMode:          lightcone.Both,
		ConeDepth:         lightcone.DefaultDepth,
	}
}

// Normalize clamps every field into range. NaN falls back to the default
// for that field; an unknown cone mode falls back to both.
func (s *State) Normalize() {
	d := DefaultState()
	s.Speed = clampOr(s.Speed, clock.MinSpeed, clock.MaxSpeed, d.Speed)
	s.Glow = clampOr(s.Glow, MinGlow, MaxGlow, d.Glow)
	s.NeuronSize = clampOr(s.NeuronSize, MinNeuronSize, MaxNeuronSize, d.NeuronSize)
	s.ConnectionOpacity = clampOr(s.ConnectionOpacity, MinOpacity, MaxOpacity, d.ConnectionOpacity)
	if m, err := lightcone.ParseMode(string(s.ConeMode)); err == nil {
		s.ConeMode = m
	} else {
		s.ConeMode = d.ConeMode
	}
	s.ConeDepth = lightcone.ClampDepth(s.ConeDepth)
	if s.Selected != nil {
		id := *s.Selected
		s.Selected = &id
	}
}

// Set switches t and reports whether the value changed. Unknown toggles
// are ignored.
func (s *State) Set(t Toggle, on bool) bool {
	f := t.field(&s.Toggles)
	if f == nil || *f == on {
		return false
	}
	*f = on
	return true
}

// Enabled reports whether t is on.
func (s State) Enabled(t Toggle) bool {
	f := t.field(&s.Toggles)
	return f != nil && *f
}

func clampOr(v, lo, hi, fallback float64) float64 {
	if math.IsNaN(v) {
		return fallback
	}
	return math.Min(math.Max(v, lo), hi)
}
