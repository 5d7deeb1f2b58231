package cli

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/layerscope/pkg/model"
)

// presetsCommand creates the command listing the built-in models.
func (c *CLI) presetsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "List the built-in model presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := presetTable()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			printNextStep("Preview", appName+" play "+model.PresetMLP)
			return nil
		},
	}
}

// presetTable renders every preset as a table row.
func presetTable() (string, error) {
	var (
		rows     [][]string
		families []model.Family
	)
	for _, name := range model.PresetNames() {
		m, err := model.Preset(name)
		if err != nil {
			return "", err
		}
		rows = append(rows, []string{
			name,
			m.Name,
			string(m.Family),
			strconv.Itoa(len(m.Layers)),
			formatCount(m.ParameterCount()),
		})
		families = append(families, m.Family)
	}

	t := newTable(func(row, col int) lipgloss.Style {
		switch {
		case col == 0:
			return StyleHighlight
		case col == 2:
			return familyStyle(families[row])
		case col >= 3:
			return StyleNumber
		default:
			return StyleValue
		}
	}, "Preset", "Name", "Family", "Layers", "Params").Rows(rows...)
	return t.Render(), nil
}

// formatCount abbreviates large counts: 1234 → 1.2K, 117000000 → 117.0M.
func formatCount(n int64) string {
	switch {
	case n >= 1_000_000_000:
		return fmt.Sprintf("%.1fB", float64(n)/1e9)
	case n >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(n)/1e6)
	case n >= 1_000:
		return fmt.Sprintf("%.1fK", float64(n)/1e3)
	default:
		return strconv.FormatInt(n, 10)
	}
}
