// Package lightcone computes selection-scoped highlighting.
//
// Given a selected layer, a direction mode and a reach depth, [ComputeScope]
// returns the set of layers "reachable" within depth hops. Everything outside
// the scope is dimmed steeply rather than hidden, and everything inside is
// boosted. A scope is recomputed from scratch whenever any input changes.
package lightcone

import (
	"slices"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/matzehuels/layerscope/pkg/errors"
)

// Mode selects the direction of reach.
type Mode string

const (
	Forward  Mode = "forward"
	Backward Mode = "backward"
	Both     Mode = "both"
)

// ParseMode parses a mode name case-insensitively.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case Forward, Backward, Both:
		return m, nil
	}
	return "", errors.New(errors.ErrCodeInvalidMode, "unknown light-cone mode %q (want forward, backward or both)", s)
}

func (m Mode) forward() bool  { return m == Forward || m == Both }
func (m Mode) backward() bool { return m == Backward || m == Both }

const (
	MinDepth     = 1
	MaxDepth     = 10
	DefaultDepth = 2

	// Boost multiplies in-scope activation and opacity.
	Boost = 1.5
	// DimFactor multiplies out-of-scope opacity.
	DimFactor = 0.1

	BaseRadius   = 1.5
	RadiusGrowth = 0.75
)

// ClampDepth bounds depth to [MinDepth, MaxDepth].
func ClampDepth(depth int) int {
	return min(max(depth, MinDepth), MaxDepth)
}

// Scope is an immutable set of in-scope layer indices.
type Scope struct {
	Selected int   `json:"selected"`
	Mode     Mode  `json:"mode"`
	Depth    int   `json:"depth"`
	Layers   []int `json:"layers"`
}

// ComputeScope returns the in-scope layers for a selection. A negative or
// out-of-range selection, or zero layers, yields an empty (inactive) scope.
// Depth is clamped to [MinDepth, MaxDepth]. An unknown mode is treated as
// Both.
func ComputeScope(selected int, mode Mode, depth, total int) Scope {
	depth = ClampDepth(depth)
	if !mode.forward() && !mode.backward() {
		mode = Both
	}
	s := Scope{Selected: -1, Mode: mode, Depth: depth}
	if selected < 0 || selected >= total {
		return s
	}
	s.Selected = selected

	lo, hi := selected, selected
	if mode.backward() {
		lo = max(selected-depth, 0)
	}
	if mode.forward() {
		hi = min(selected+depth, total-1)
	}
	s.Layers = make([]int, 0, hi-lo+1)
	for i := lo; i <= hi; i++ {
		s.Layers = append(s.Layers, i)
	}
	return s
}

// Active reports whether the scope highlights anything.
func (s Scope) Active() bool { return len(s.Layers) > 0 }

// Contains reports whether layer i is in scope.
func (s Scope) Contains(i int) bool {
	_, ok := slices.BinarySearch(s.Layers, i)
	return ok
}

// Factor returns the opacity/activation multiplier for layer i: Boost in
// scope, DimFactor outside it, and 1 when the scope is inactive.
func (s Scope) Factor(i int) float64 {
	switch {
	case !s.Active():
		return 1
	case s.Contains(i):
		return Boost
	default:
		return DimFactor
	}
}

// ConnectionFactor returns the multiplier for a connection between layers a
// and b. A connection is in scope only if both ends are.
func (s Scope) ConnectionFactor(a, b int) float64 {
	switch {
	case !s.Active():
		return 1
	case s.Contains(a) && s.Contains(b):
		return Boost
	default:
		return DimFactor
	}
}

// Cone is the rendered geometry of one direction of a light cone. The cone
// opens along Z from Origin; Sign is +1 for the forward cone and -1 for the
// backward one.
type Cone struct {
	Origin r3.Vec  `json:"origin"`
	Radius float64 `json:"radius"`
	Length float64 `json:"length"`
	Sign   float64 `json:"sign"`
}

// Tip returns the center of the cone's open end.
func (c Cone) Tip() r3.Vec {
	return r3.Add(c.Origin, r3.Vec{Z: c.Sign * c.Length})
}

// Geometry derives cone shapes for a selection at origin. Radius is
// BaseRadius + depth*RadiusGrowth and length is depth*spacing.
func Geometry(origin r3.Vec, mode Mode, depth int, spacing float64) []Cone {
	depth = ClampDepth(depth)
	if !mode.forward() && !mode.backward() {
		mode = Both
	}
	radius := BaseRadius + float64(depth)*RadiusGrowth
	length := float64(depth) * spacing
	var cones []Cone
	if mode.forward() {
		cones = append(cones, Cone{Origin: origin, Radius: radius, Length: length, Sign: 1})
	}
	if mode.backward() {
		cones = append(cones, Cone{Origin: origin, Radius: radius, Length: length, Sign: -1})
	}
	return cones
}
