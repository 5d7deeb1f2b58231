// Package layout maps a model's layer list to 3D positions.
//
// Layers are placed along the Z (depth) axis, centered on zero and evenly
// spaced. Units within a layer are placed on a centered X/Y grid around the
// layer origin. Layout runs once per model load; the result is read-only.
//
// All functions are total: malformed inputs degrade to defaults and every
// returned coordinate is finite.
package layout

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/matzehuels/layerscope/pkg/model"
)

// =============================================================================
// Defaults
// =============================================================================

const (
	DefaultLayerSpacing = 6.0
	DefaultUnitSpacing  = 0.8
	DefaultMaxPerRow    = 16
	DefaultMaxUnits     = 256

	// DefaultPlaneSize is the edge length of a feature-map plane when the
	// layer carries no spatial dimensions.
	DefaultPlaneSize = 1.0
)

// Options controls spacing and caps.
type Options struct {
	LayerSpacing float64 `json:"layer_spacing" toml:"layer_spacing"`
	UnitSpacing  float64 `json:"unit_spacing" toml:"unit_spacing"`
	MaxPerRow    int     `json:"max_per_row" toml:"max_per_row"`
	MaxUnits     int     `json:"max_units" toml:"max_units"`
}

// DefaultOptions returns the standard layout options.
func DefaultOptions() Options {
	return Options{
		LayerSpacing: DefaultLayerSpacing,
		UnitSpacing:  DefaultUnitSpacing,
		MaxPerRow:    DefaultMaxPerRow,
		MaxUnits:     DefaultMaxUnits,
	}
}

// SetDefaults fills zero, negative or non-finite fields with defaults.
func (o *Options) SetDefaults() {
	if !finitePositive(o.LayerSpacing) {
		o.LayerSpacing = DefaultLayerSpacing
	}
	if !finitePositive(o.UnitSpacing) {
		o.UnitSpacing = DefaultUnitSpacing
	}
	if o.MaxPerRow < 1 {
		o.MaxPerRow = DefaultMaxPerRow
	}
	if o.MaxUnits < 1 {
		o.MaxUnits = DefaultMaxUnits
	}
}

// =============================================================================
// Layout types
// =============================================================================

// LayerSlot is one layer's derived placement.
type LayerSlot struct {
	Index  int             `json:"index"`
	ID     string          `json:"id"`
	Kind   model.LayerKind `json:"kind"`
	Label  string          `json:"label"`
	Origin r3.Vec          `json:"origin"`

	// Units is the number of displayed units after capping.
	Units int `json:"units"`
	// Actual is the unit count before capping.
	Actual int `json:"actual"`

	Positions []r3.Vec `json:"positions"`

	// PlaneSize is the edge length of each feature-map plane for volume
	// layers and zero otherwise.
	PlaneSize float64 `json:"plane_size,omitempty"`
}

// Layout is the static placement of a whole model.
type Layout struct {
	Family  model.Family `json:"family"`
	Options Options      `json:"options"`
	Layers  []LayerSlot  `json:"layers"`
}

// Depth returns the Z coordinate of layer i, or 0 if out of range.
func (l *Layout) Depth(i int) float64 {
	if i < 0 || i >= len(l.Layers) {
		return 0
	}
	return l.Layers[i].Origin.Z
}

// UnitCount returns the number of displayed units across all layers.
func (l *Layout) UnitCount() int {
	n := 0
	for _, s := range l.Layers {
		n += s.Units
	}
	return n
}

// Bounds returns the axis-aligned bounding box of every unit position and
// layer origin. An empty layout yields two zero vectors.
func (l *Layout) Bounds() (lo, hi r3.Vec) {
	first := true
	grow := func(p r3.Vec) {
		if first {
			lo, hi, first = p, p, false
			return
		}
		lo = r3.Vec{X: math.Min(lo.X, p.X), Y: math.Min(lo.Y, p.Y), Z: math.Min(lo.Z, p.Z)}
		hi = r3.Vec{X: math.Max(hi.X, p.X), Y: math.Max(hi.Y, p.Y), Z: math.Max(hi.Z, p.Z)}
	}
	for _, s := range l.Layers {
		grow(s.Origin)
		for _, p := range s.Positions {
			grow(p)
		}
	}
	return lo, hi
}

// =============================================================================
// Primitives
// =============================================================================

// LayerDepths returns count depth values centered on zero and spaced by
// spacing. count <= 0 yields an empty slice.
func LayerDepths(count int, spacing float64) []float64 {
	if count <= 0 {
		return []float64{}
	}
	spacing = finiteOr(spacing, DefaultLayerSpacing)
	depths := make([]float64, count)
	mid := float64(count-1) / 2
	for i := range depths {
		depths[i] = (float64(i) - mid) * spacing
	}
	return depths
}

// UnitPositions arranges count units on a centered grid around origin.
// Columns are min(count, maxPerRow); rows fill as needed. A partial last row
// is centered on its own so the mean x of all units stays on the origin.
// maxPerRow < 1 is treated as 1.
func UnitPositions(count int, origin r3.Vec, spacing float64, maxPerRow int) []r3.Vec {
	if count <= 0 {
		return []r3.Vec{}
	}
	origin = Finite(origin)
	spacing = finiteOr(spacing, DefaultUnitSpacing)
	maxPerRow = max(maxPerRow, 1)

	cols := min(count, maxPerRow)
	rows := (count + cols - 1) / cols
	cy := float64(rows-1) / 2

	out := make([]r3.Vec, count)
	for i := range out {
		col := i % cols
		row := i / cols
		cx := float64(cols-1) / 2
		if row == rows-1 {
			cx = float64(count-row*cols-1) / 2
		}
		out[i] = r3.Add(origin, r3.Vec{
			X: (float64(col) - cx) * spacing,
			Y: (float64(row) - cy) * spacing,
		})
	}
	return out
}

// =============================================================================
// Build
// =============================================================================

// Build lays out every layer of m. Layers with an unknown family or kind
// keep their depth slot but have no units.
func Build(m *model.Model, opts Options) Layout {
	opts.SetDefaults()
	out := Layout{Options: opts}
	if m == nil {
		return out
	}
	out.Family = m.Family

	depths := LayerDepths(len(m.Layers), opts.LayerSpacing)
	out.Layers = make([]LayerSlot, len(m.Layers))
	for i, l := range m.Layers {
		actual := UnitCount(m, i)
		units := min(actual, opts.MaxUnits)
		origin := r3.Vec{Z: depths[i]}

		slot := LayerSlot{
			Index:     i,
			ID:        l.ID,
			Kind:      l.Kind,
			Label:     l.DisplayLabel(),
			Origin:    origin,
			Units:     units,
			Actual:    actual,
			Positions: UnitPositions(units, origin, opts.UnitSpacing, opts.MaxPerRow),
		}
		if m.Family == model.FamilyConvolutional && l.IsVolume() && units > 0 {
			slot.PlaneSize = planeSize(l, opts.UnitSpacing)
		}
		out.Layers[i] = slot
	}
	return out
}

// UnitCount resolves the number of units layer i contributes, by family.
// Fully connected and dense layers use Units, volume layers use Channels
// (one plane per channel) and transformer layers show one slot per token.
// Missing dimensions fall back to a single unit; unknown families and kinds
// contribute nothing.
func UnitCount(m *model.Model, i int) int {
	if m == nil || i < 0 || i >= len(m.Layers) {
		return 0
	}
	l := m.Layers[i]
	switch m.Family {
	case model.FamilyFullyConnected:
		switch l.Kind {
		case model.KindInput, model.KindHidden, model.KindOutput, model.KindDense:
			return orOne(l.Units)
		}
	case model.FamilyConvolutional:
		switch l.Kind {
		case model.KindConv2D, model.KindPool:
			return orOne(l.Channels)
		case model.KindInput:
			if l.IsVolume() {
				return orOne(l.Channels)
			}
			return orOne(l.Units)
		case model.KindFlatten, model.KindDense, model.KindOutput:
			return orOne(l.Units)
		}
	case model.FamilyTransformer:
		switch l.Kind {
		case model.KindEmbedding, model.KindAttention, model.KindFeedForward, model.KindLayerNorm, model.KindOutput:
			return m.SeqLength()
		}
	}
	return 0
}

// planeSize scales a feature map's W×H footprint into scene units, keeping
// planes between one and three unit spacings wide.
func planeSize(l model.Layer, spacing float64) float64 {
	side := max(l.Width, l.Height)
	if side <= 0 {
		return DefaultPlaneSize * spacing
	}
	return spacing * (1 + math.Min(math.Log2(float64(side))/4, 2))
}

// =============================================================================
// Finite guards
// =============================================================================

// Finite replaces NaN and ±Inf components with zero.
func Finite(v r3.Vec) r3.Vec {
	return r3.Vec{X: finiteOr(v.X, 0), Y: finiteOr(v.Y, 0), Z: finiteOr(v.Z, 0)}
}

func finiteOr(v, fallback float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fallback
	}
	return v
}

func finitePositive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0)
}

func orOne(n int) int {
	if n < 1 {
		return 1
	}
	return n
}
