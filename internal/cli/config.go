package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/matzehuels/layerscope/pkg/engine"
	"github.com/matzehuels/layerscope/pkg/layout"
	"github.com/matzehuels/layerscope/pkg/lightcone"
	"github.com/matzehuels/layerscope/pkg/pipeline"
	"github.com/matzehuels/layerscope/pkg/scene"
)

// configFile is looked up in the working directory when --config is not given.
const configFile = "layerscope.toml"

// Config holds visualization defaults read from layerscope.toml. Keys that are
// absent keep their built-in defaults; command-line flags override both.
//
//	[visual]
//	speed = 1.5
//	cone_mode = "forward"
//
//	[visual.toggles]
//	show_labels = false
//
//	[layout]
//	layer_spacing = 8.0
//
//	[render]
//	view = "top"
type Config struct {
	Visual     engine.State   `toml:"visual"`
	Layout     layout.Options `toml:"layout"`
	DensityCap int            `toml:"density_cap"`
	Render     RenderConfig   `toml:"render"`
}

// RenderConfig holds output defaults.
type RenderConfig struct {
	Frames int     `toml:"frames"`
	FPS    float64 `toml:"fps"`
	Width  float64 `toml:"width"`
	Height float64 `toml:"height"`
	View   string  `toml:"view"`
}

func defaultConfig() Config {
	return Config{
		Visual: engine.DefaultState(),
		Layout: layout.DefaultOptions(),
		Render: RenderConfig{
			Frames: pipeline.DefaultFrames,
			FPS:    pipeline.DefaultFPS,
			Width:  pipeline.DefaultWidth,
			Height: pipeline.DefaultHeight,
			View:   pipeline.DefaultView,
		},
	}
}

// loadConfig reads path over the defaults. An empty path tries configFile in
// the working directory and silently falls back to defaults when it is
// missing; an explicit path must exist.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	explicit := path != ""
	if !explicit {
		path = configFile
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.Visual.Normalize()
	cfg.Layout.SetDefaults()
	return cfg, nil
}

// =============================================================================
// Visual flags
// =============================================================================

// visualFlags binds the visualization controls shared by simulate, render and
// play. Only flags the user actually set override the config.
type visualFlags struct {
	speed, glow, neuronSize, opacity float64
	selected                         string
	coneMode                         string
	coneDepth                        int
	noCone                           bool
	show, hide                       []string

	layerSpacing, unitSpacing float64
	maxPerRow, maxUnits       int
	densityCap                int
}

func (v *visualFlags) register(cmd *cobra.Command) {
	d := engine.DefaultState()
	f := cmd.Flags()
	f.Float64Var(&v.speed, "speed", d.Speed, "animation speed multiplier (0.1-3)")
	f.Float64Var(&v.glow, "glow", d.Glow, "activation glow intensity (0-1)")
	f.Float64Var(&v.neuronSize, "neuron-size", d.NeuronSize, "neuron size multiplier (0.5-2)")
	f.Float64Var(&v.opacity, "opacity", d.ConnectionOpacity, "connection opacity (0-1)")
	f.StringVar(&v.selected, "select", "", "select a layer by id")
	f.StringVar(&v.coneMode, "cone", string(d.ConeMode), "light cone mode: forward, backward, both")
	f.IntVar(&v.coneDepth, "cone-depth", d.ConeDepth, "light cone depth in layers (1-10)")
	f.BoolVar(&v.noCone, "no-cone", false, "disable the light cone")
	f.StringSliceVar(&v.show, "show", nil, "enable toggles (comma-separated: "+toggleNames()+")")
	f.StringSliceVar(&v.hide, "hide", nil, "disable toggles (comma-separated)")

	f.Float64Var(&v.layerSpacing, "layer-spacing", layout.DefaultLayerSpacing, "distance between layers")
	f.Float64Var(&v.unitSpacing, "unit-spacing", layout.DefaultUnitSpacing, "distance between units")
	f.IntVar(&v.maxPerRow, "max-per-row", layout.DefaultMaxPerRow, "units per grid row")
	f.IntVar(&v.maxUnits, "max-units", layout.DefaultMaxUnits, "displayed units per layer")
	f.IntVar(&v.densityCap, "density", 0, "max sampled connections per layer pair")

	cmd.ValidArgsFunction = completeModel
	toggles := strings.Split(toggleNames(), ", ")
	_ = cmd.RegisterFlagCompletionFunc("cone", completeFixed(string(lightcone.Forward), string(lightcone.Backward), string(lightcone.Both)))
	_ = cmd.RegisterFlagCompletionFunc("show", completeFixed(toggles...))
	_ = cmd.RegisterFlagCompletionFunc("hide", completeFixed(toggles...))
}

// state overlays the changed flags on the config's visual state.
func (v *visualFlags) state(cmd *cobra.Command, cfg Config) (engine.State, error) {
	st := cfg.Visual
	f := cmd.Flags()
	if f.Changed("speed") {
		st.Speed = v.speed
	}
	if f.Changed("glow") {
		st.Glow = v.glow
	}
	if f.Changed("neuron-size") {
		st.NeuronSize = v.neuronSize
	}
	if f.Changed("opacity") {
		st.ConnectionOpacity = v.opacity
	}
	if f.Changed("select") {
		if v.selected == "" {
			st.Selected = nil
		} else {
			id := v.selected
			st.Selected = &id
		}
	}
	if f.Changed("cone") {
		m, err := lightcone.ParseMode(v.coneMode)
		if err != nil {
			return st, err
		}
		st.ConeMode = m
	}
	if f.Changed("cone-depth") {
		st.ConeDepth = v.coneDepth
	}
	if v.noCone {
		st.ConeEnabled = false
	}
	if err := setToggles(&st, v.show, true); err != nil {
		return st, err
	}
	if err := setToggles(&st, v.hide, false); err != nil {
		return st, err
	}
	st.Normalize()
	return st, nil
}

// sceneOptions overlays the changed layout flags on the config's layout.
func (v *visualFlags) sceneOptions(cmd *cobra.Command, cfg Config) scene.Options {
	opts := scene.DefaultOptions()
	opts.Layout = cfg.Layout
	opts.DensityCap = cfg.DensityCap
	f := cmd.Flags()
	if f.Changed("layer-spacing") {
		opts.Layout.LayerSpacing = v.layerSpacing
	}
	if f.Changed("unit-spacing") {
		opts.Layout.UnitSpacing = v.unitSpacing
	}
	if f.Changed("max-per-row") {
		opts.Layout.MaxPerRow = v.maxPerRow
	}
	if f.Changed("max-units") {
		opts.Layout.MaxUnits = v.maxUnits
	}
	if f.Changed("density") {
		opts.DensityCap = v.densityCap
	}
	opts.SetDefaults()
	return opts
}

// options builds pipeline options for model from config and flags.
func (v *visualFlags) options(cmd *cobra.Command, cfg Config, model string) (pipeline.Options, error) {
	st, err := v.state(cmd, cfg)
	if err != nil {
		return pipeline.Options{}, err
	}
	so := v.sceneOptions(cmd, cfg)
	return pipeline.Options{
		Model:        model,
		LayerSpacing: so.Layout.LayerSpacing,
		UnitSpacing:  so.Layout.UnitSpacing,
		MaxPerRow:    so.Layout.MaxPerRow,
		MaxUnits:     so.Layout.MaxUnits,
		DensityCap:   so.DensityCap,
		Frames:       cfg.Render.Frames,
		FPS:          cfg.Render.FPS,
		Width:        cfg.Render.Width,
		Height:       cfg.Render.Height,
		View:         cfg.Render.View,
		Visual:       &st,
	}, nil
}

func setToggles(st *engine.State, names []string, on bool) error {
	for _, name := range names {
		t, err := parseToggle(name)
		if err != nil {
			return err
		}
		st.Set(t, on)
	}
	return nil
}

// parseToggle accepts toggle names with dashes or underscores, with or
// without the "show" prefix.
func parseToggle(name string) (engine.Toggle, error) {
	n := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "-", "_")
	for _, t := range engine.Toggles() {
		if n == string(t) || "show_"+n == string(t) {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown toggle: %q (must be one of: %s)", name, toggleNames())
}

func toggleNames() string {
	names := make([]string, 0, len(engine.Toggles()))
	for _, t := range engine.Toggles() {
		names = append(names, strings.TrimPrefix(string(t), "show_"))
	}
	return strings.Join(names, ", ")
}
