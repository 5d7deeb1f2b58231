// Package pipeline provides the batch visualization pipeline for layerscope.
//
// This package implements the complete load → scene → simulate → render
// pipeline used by the CLI. By centralizing this logic, every command caches
// and logs the same way.
//
// # Architecture
//
// The pipeline consists of four stages:
//
//  1. Load: Resolve a preset name or model file into a validated model
//  2. Scene: Derive layout, connection samples and seeds (cached)
//  3. Simulate: Play the animation clock at a fixed rate and collect frames (cached)
//  4. Render: Generate output in various formats (JSON, SVG, PNG, PDF, DOT) (cached)
//
// Each stage can be run independently or as part of the complete pipeline.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    Model:   "lenet5",
//	    Frames:  120,
//	    Formats: []string{"json", "svg"},
//	}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
//
// Run individual stages:
//
//	m, err := pipeline.Load(opts)
//	s, err := runner.BuildScene(ctx, m, opts)
//	frames, err := runner.Simulate(ctx, s, m, opts)
//	artifacts, err := runner.Render(ctx, s, m, frames, opts)
package pipeline

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/layerscope/pkg/cache"
	"github.com/matzehuels/layerscope/pkg/engine"
	"github.com/matzehuels/layerscope/pkg/frame"
	"github.com/matzehuels/layerscope/pkg/layout"
	"github.com/matzehuels/layerscope/pkg/model"
	"github.com/matzehuels/layerscope/pkg/render/sink"
	"github.com/matzehuels/layerscope/pkg/sampler"
	"github.com/matzehuels/layerscope/pkg/scene"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and tests
// =============================================================================

const (
	// DefaultFrames is the number of frames simulated when none is given.
	DefaultFrames = 120

	// DefaultFPS is the simulation sampling rate.
	DefaultFPS = 30.0

	// MaxFrames bounds a single simulation run.
	MaxFrames = 10000

	// DefaultWidth is the default snapshot width in pixels.
	DefaultWidth = 1200.0

	// DefaultHeight is the default snapshot height in pixels.
	DefaultHeight = 700.0

	// DefaultScale is the PNG scale factor.
	DefaultScale = 2.0
)

// DefaultView is the default snapshot projection.
const DefaultView = string(sink.ViewSide)

// Format constants for output formats.
const (
	FormatJSON  = "json"
	FormatJSONL = "jsonl"
	FormatSVG   = "svg"
	FormatPNG   = "png"
	FormatPDF   = "pdf"
	FormatDOT   = "dot"
	FormatGraph = "graph"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatJSON:  true,
	FormatJSONL: true,
	FormatSVG:   true,
	FormatPNG:   true,
	FormatPDF:   true,
	FormatDOT:   true,
	FormatGraph: true,
}

// ValidViews is the set of supported snapshot projections.
var ValidViews = map[string]bool{
	string(sink.ViewSide):  true,
	string(sink.ViewTop):   true,
	string(sink.ViewFront): true,
}

// Extension returns the file extension for a format.
func Extension(format string) string {
	switch format {
	case FormatGraph:
		return "graph.svg"
	default:
		return format
	}
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the visualization pipeline.
// This struct supports JSON serialization so a run can be recorded.
type Options struct {
	// Load options
	Model string `json:"model"` // preset name or .toml/.json path

	// Scene options
	LayerSpacing float64 `json:"layer_spacing,omitempty"`
	UnitSpacing  float64 `json:"unit_spacing,omitempty"`
	MaxPerRow    int     `json:"max_per_row,omitempty"`
	MaxUnits     int     `json:"max_units,omitempty"`
	DensityCap   int     `json:"density_cap,omitempty"`

	// Simulation options
	Frames  int           `json:"frames,omitempty"`
	FPS     float64       `json:"fps,omitempty"`
	Visual  *engine.State `json:"visual,omitempty"` // nil uses engine.DefaultState
	Refresh bool          `json:"refresh,omitempty"`

	// Render options
	Formats  []string `json:"formats,omitempty"`
	Frame    int      `json:"frame,omitempty"` // snapshot frame index; negative counts from the end
	View     string   `json:"view,omitempty"`
	Width    float64  `json:"width,omitempty"`
	Height   float64  `json:"height,omitempty"`
	Scale    float64  `json:"scale,omitempty"`
	Detailed bool     `json:"detailed,omitempty"` // detailed layer-graph labels

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Model is the loaded model.
	Model *model.Model

	// Scene is the derived scene.
	Scene *scene.Scene

	// Frames are the simulated frames in time order.
	Frames []frame.Frame

	// FramesHash is the content hash of the encoded frames.
	FramesHash string

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	LayerCount      int
	UnitCount       int
	ConnectionCount int
	FrameCount      int
	Primitives      int // primitives in the last frame
	LoadTime        time.Duration
	SceneTime       time.Duration
	SimulateTime    time.Duration
	RenderTime      time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	SceneHit  bool // Whether the scene came from cache
	FramesHit bool // Whether the frames came from cache
	RenderHit bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return fmt.Errorf("invalid format: %q (must be one of: json, jsonl, svg, png, pdf, dot, graph)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateView checks that a projection name is valid.
func ValidateView(view string) error {
	if !ValidViews[view] {
		return fmt.Errorf("invalid view: %q (must be one of: side, top, front)", view)
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults for the full pipeline.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForLoad(); err != nil {
		return err
	}
	o.SetSceneDefaults()
	if err := o.ValidateForSimulate(); err != nil {
		return err
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForLoad checks required fields for loading.
func (o *Options) ValidateForLoad() error {
	o.Model = strings.TrimSpace(o.Model)
	if o.Model == "" {
		return fmt.Errorf("model is required")
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return nil
}

// SetSceneDefaults sets default values for scene derivation.
func (o *Options) SetSceneDefaults() {
	if o.LayerSpacing <= 0 {
		o.LayerSpacing = layout.DefaultLayerSpacing
	}
	if o.UnitSpacing <= 0 {
		o.UnitSpacing = layout.DefaultUnitSpacing
	}
	if o.MaxPerRow <= 0 {
		o.MaxPerRow = layout.DefaultMaxPerRow
	}
	if o.MaxUnits <= 0 {
		o.MaxUnits = layout.DefaultMaxUnits
	}
	if o.DensityCap <= 0 {
		o.DensityCap = sampler.DefaultCap
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// SetSimulateDefaults sets default values for simulation.
func (o *Options) SetSimulateDefaults() {
	o.SetSceneDefaults()
	if o.Frames <= 0 {
		o.Frames = DefaultFrames
	}
	if !(o.FPS > 0) {
		o.FPS = DefaultFPS
	}
	st := engine.DefaultState()
	if o.Visual != nil {
		st = *o.Visual
	}
	st.Normalize()
	o.Visual = &st
}

// ValidateForSimulate validates and sets defaults for simulation.
func (o *Options) ValidateForSimulate() error {
	o.SetSimulateDefaults()
	if o.Frames > MaxFrames {
		return fmt.Errorf("frames: %d exceeds the maximum of %d", o.Frames, MaxFrames)
	}
	return nil
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatJSON}
	}
	if o.View == "" {
		o.View = DefaultView
	}
	if o.Width <= 0 {
		o.Width = DefaultWidth
	}
	if o.Height <= 0 {
		o.Height = DefaultHeight
	}
	if !(o.Scale > 0) {
		o.Scale = DefaultScale
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForRender validates and sets defaults for rendering.
func (o *Options) ValidateForRender() error {
	o.SetRenderDefaults()
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	return ValidateView(o.View)
}

// SceneOptions returns the scene options these pipeline options describe.
func (o *Options) SceneOptions() scene.Options {
	opts := scene.DefaultOptions()
	opts.Layout = layout.Options{
		LayerSpacing: o.LayerSpacing,
		UnitSpacing:  o.UnitSpacing,
		MaxPerRow:    o.MaxPerRow,
		MaxUnits:     o.MaxUnits,
	}
	opts.DensityCap = o.DensityCap
	opts.SetDefaults()
	return opts
}

// SnapshotIndex resolves the snapshot frame against n frames. Negative
// indices count from the end; out-of-range indices clamp.
func (o *Options) SnapshotIndex(n int) int {
	if n == 0 {
		return 0
	}
	i := o.Frame
	if i < 0 {
		i += n
	}
	return min(max(i, 0), n-1)
}

// SceneKeyOpts returns cache key options for scene derivation.
func (o *Options) SceneKeyOpts() cache.SceneKeyOpts {
	return cache.SceneKeyOpts{
		LayerSpacing: o.LayerSpacing,
		UnitSpacing:  o.UnitSpacing,
		MaxPerRow:    o.MaxPerRow,
		MaxUnits:     o.MaxUnits,
		DensityCap:   o.DensityCap,
	}
}

// FramesKeyOpts returns cache key options for simulation.
func (o *Options) FramesKeyOpts() cache.FramesKeyOpts {
	st := engine.DefaultState()
	if o.Visual != nil {
		st = *o.Visual
	}
	sel := ""
	if st.Selected != nil {
		sel = *st.Selected
	}
	t := st.Toggles
	return cache.FramesKeyOpts{
		Frames:    o.Frames,
		FPS:       o.FPS,
		Speed:     st.Speed,
		Selection: sel,
		ConeMode:  fmt.Sprintf("%s:%t", st.ConeMode, st.ConeEnabled),
		ConeDepth: st.ConeDepth,
		Toggles: fmt.Sprintf("w%t a%t l%t d%t r%t c%t g%g n%g o%g",
			t.ShowWeights, t.ShowActivations, t.ShowLabels, t.ShowDataFlow,
			t.AutoRotate, t.AnimatedConnections, st.Glow, st.NeuronSize, st.ConnectionOpacity),
	}
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Format:   format,
		Width:    o.Width,
		Height:   o.Height,
		Frame:    o.Frame,
		View:     o.View,
		Scale:    o.Scale,
		Detailed: o.Detailed,
	}
}
