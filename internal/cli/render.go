package cli

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/spf13/cobra"

	"github.com/matzehuels/layerscope/pkg/pipeline"
)

// simulateCommand creates the simulate command, which plays the animation
// clock at a fixed rate and writes the computed frames.
func (c *CLI) simulateCommand() *cobra.Command {
	var (
		output     string
		formatsStr string
		noCache    bool
		frames     int
		fps        float64
		flags      visualFlags
	)

	cmd := &cobra.Command{
		Use:   "simulate [preset|model.toml|model.json]",
		Short: "Simulate animation frames and write them as JSON",
		Long: `Simulate animation frames and write them as JSON.

The simulate command plays the animation from zero at a fixed frame rate and
records every frame: layer plates, neurons, connections, data-flow particles,
attention beams and light cones. Use -f jsonl to stream one frame per line.

Results are cached locally for faster subsequent runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.config()
			if err != nil {
				return err
			}
			opts, err := flags.options(cmd, cfg, args[0])
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("frames") {
				opts.Frames = frames
			}
			if cmd.Flags().Changed("fps") {
				opts.FPS = fps
			}
			opts.Formats = parseFormats(formatsStr, pipeline.FormatJSON)
			for _, f := range opts.Formats {
				if f != pipeline.FormatJSON && f != pipeline.FormatJSONL {
					return fmt.Errorf("invalid format: %q (simulate writes json or jsonl)", f)
				}
			}
			return c.runPipeline(cmd.Context(), opts, output, noCache, "Simulating")
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): json (default), jsonl (comma-separated)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().IntVarP(&frames, "frames", "n", pipeline.DefaultFrames, "number of frames to simulate")
	cmd.Flags().Float64Var(&fps, "fps", pipeline.DefaultFPS, "simulation frame rate")
	flags.register(cmd)

	return cmd
}

// renderCommand creates the render command for snapshot and graph outputs.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		output     string
		formatsStr string
		noCache    bool
		frames     int
		frameIdx   int
		view       string
		width      float64
		height     float64
		scale      float64
		detailed   bool
		flags      visualFlags
	)

	cmd := &cobra.Command{
		Use:   "render [preset|model.toml|model.json]",
		Short: "Render a model to SVG, PNG, PDF or a layer graph",
		Long: `Render a model to SVG, PNG, PDF or a layer graph.

Snapshot formats (svg, png, pdf) draw one simulated frame as an orthographic
projection; pick it with --frame (negative counts from the end) and the
projection with --view. Graph formats (dot, graph) draw the layer sequence
with the light cone around --select highlighted.

PNG and PDF output require rsvg-convert (librsvg).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.config()
			if err != nil {
				return err
			}
			opts, err := flags.options(cmd, cfg, args[0])
			if err != nil {
				return err
			}
			f := cmd.Flags()
			if f.Changed("frames") {
				opts.Frames = frames
			}
			if f.Changed("view") {
				opts.View = view
			}
			if f.Changed("width") {
				opts.Width = width
			}
			if f.Changed("height") {
				opts.Height = height
			}
			opts.Frame = frameIdx
			opts.Scale = scale
			opts.Detailed = detailed
			opts.Formats = parseFormats(formatsStr, pipeline.FormatSVG)
			if err := pipeline.ValidateFormats(opts.Formats); err != nil {
				return err
			}
			return c.runPipeline(cmd.Context(), opts, output, noCache, "Rendering")
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), png, pdf, dot, graph, json, jsonl (comma-separated)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().IntVarP(&frames, "frames", "n", pipeline.DefaultFrames, "number of frames to simulate")
	cmd.Flags().IntVar(&frameIdx, "frame", -1, "snapshot frame index (negative counts from the end)")
	cmd.Flags().StringVar(&view, "view", pipeline.DefaultView, "projection: side, top, front")
	cmd.Flags().Float64Var(&width, "width", pipeline.DefaultWidth, "snapshot width")
	cmd.Flags().Float64Var(&height, "height", pipeline.DefaultHeight, "snapshot height")
	cmd.Flags().Float64Var(&scale, "scale", pipeline.DefaultScale, "PNG scale factor")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "show kinds, unit and connection counts (dot, graph)")
	flags.register(cmd)
	_ = cmd.RegisterFlagCompletionFunc("view", completeFixed(slices.Sorted(maps.Keys(pipeline.ValidViews))...))
	_ = cmd.RegisterFlagCompletionFunc("format", completeFixed(slices.Sorted(maps.Keys(pipeline.ValidFormats))...))

	return cmd
}

// runPipeline executes the full pipeline and writes the artifacts.
func (c *CLI) runPipeline(ctx context.Context, opts pipeline.Options, output string, noCache bool, verb string) error {
	runner, err := c.newRunner(noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts.Logger = c.Logger

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("%s %s...", verb, opts.Model))
	spinner.Start()

	prog := newProgress(c.Logger)
	result, err := runner.Execute(ctx, opts)
	if err != nil {
		spinner.StopWithError(verb + " failed")
		return err
	}
	spinner.Stop()
	prog.done(verb+" "+result.Model.Name,
		"frames", result.Stats.FrameCount,
		"scene_cached", result.CacheInfo.SceneHit,
		"frames_cached", result.CacheInfo.FramesHit)

	if ctx.Err() != nil {
		return ctx.Err()
	}

	paths, err := writeArtifacts(artifactWriteParams{
		artifacts: result.Artifacts,
		formats:   opts.Formats,
		model:     opts.Model,
		output:    output,
	})
	if err != nil {
		return err
	}

	printSuccess("%s complete", verb)
	for _, p := range paths {
		printFile(p)
	}
	printStats(result.CacheInfo.FramesHit && result.CacheInfo.RenderHit,
		stat{result.Stats.LayerCount, "layers"},
		stat{result.Stats.UnitCount, "units"},
		stat{result.Stats.ConnectionCount, "connections"},
		stat{result.Stats.FrameCount, "frames"},
	)
	return nil
}
