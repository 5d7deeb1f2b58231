package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/layerscope/pkg/pipeline"
	"github.com/matzehuels/layerscope/pkg/scene"
)

// layoutCommand creates the layout command for inspecting a derived scene.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		output  string
		noCache bool
		flags   visualFlags
	)

	cmd := &cobra.Command{
		Use:   "layout [preset|model.toml|model.json]",
		Short: "Compute the 3D layout of a model",
		Long: `Compute the 3D layout of a model.

The layout command places every layer along the depth axis, arranges its units
in a grid and samples the connections between consecutive layers. It prints a
per-layer summary; with -o the full scene is written as JSON.

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
			return c.runLayout(cmd.Context(), opts, output, noCache)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write the scene as JSON to this file")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	flags.register(cmd)

	return cmd
}

// runLayout loads the model, builds its scene and prints the summary.
func (c *CLI) runLayout(ctx context.Context, opts pipeline.Options, output string, noCache bool) error {
	runner, err := c.newRunner(noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts.Logger = c.Logger
	spinner := newSpinnerWithContext(ctx, "Loading "+opts.Model+"...")
	spinner.Start()
	m, err := runner.Load(ctx, opts)
	if err != nil {
		spinner.StopWithError("Load failed")
		return err
	}

	spinner.SetMessage("Laying out " + m.Name + "...")
	prog := newProgress(c.Logger)
	s, cacheHit, err := runner.BuildSceneWithCacheInfo(ctx, m, opts)
	if err != nil {
		spinner.StopWithError("Layout failed")
		return fmt.Errorf("build scene: %w", err)
	}
	spinner.Stop()
	prog.done("Built scene for "+m.Name, "cached", cacheHit)

	printSuccess("Layout of %s", StyleTitle.Render(m.Name))
	printKeyValue("Family", familyStyle(m.Family).Render(string(m.Family)))
	printKeyValue("Params", formatCount(m.ParameterCount()))
	fmt.Fprintln(out, sceneTable(s))
	printStats(cacheHit,
		stat{len(s.Layout.Layers), "layers"},
		stat{s.Layout.UnitCount(), "units"},
		stat{s.ConnectionCount(), "connections"},
	)

	if output != "" {
		data, err := json.MarshalIndent(s, "", "  ")
		if err != nil {
			return fmt.Errorf("encode scene: %w", err)
		}
		if err := os.WriteFile(output, data, 0o644); err != nil {
			return fmt.Errorf("write output %s: %w", output, err)
		}
		printFile(output)
	}

	printNextStep("Render", appName+" render "+opts.Model+" -f svg")
	return nil
}

// sceneTable renders one row per layer slot.
func sceneTable(s *scene.Scene) string {
	conns := make(map[int]int, len(s.Pairs))
	for _, p := range s.Pairs {
		conns[p.From] = len(p.Connections)
	}

	rows := make([][]string, 0, len(s.Layout.Layers))
	for i, l := range s.Layout.Layers {
		units := strconv.Itoa(l.Units)
		if l.Actual > l.Units {
			units += StyleDim.Render(" / " + strconv.Itoa(l.Actual))
		}
		out := "—"
		if n, ok := conns[i]; ok {
			out = strconv.Itoa(n)
		}
		rows = append(rows, []string{
			strconv.Itoa(i),
			l.ID,
			string(l.Kind),
			units,
			fmt.Sprintf("%.1f", l.Origin.Z),
			out,
		})
	}

	return newTable(func(row, col int) lipgloss.Style {
		switch col {
		case 1:
			return StyleHighlight
		case 3, 4, 5:
			return StyleNumber
		}
		return StyleValue
	}, "#", "Layer", "Kind", "Units", "Depth", "Conns →").Rows(rows...).Render()
}
