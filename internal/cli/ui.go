package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/layerscope/pkg/model"
)

// out receives all status output. Tests swap it for a buffer.
var out io.Writer = os.Stdout

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("44")  // activation cyan
	colorGreen  = lipgloss.Color("78")  // success
	colorYellow = lipgloss.Color("214") // light cone
	colorRed    = lipgloss.Color("203") // errors
	colorViolet = lipgloss.Color("141") // commands, transformers
	colorOrange = lipgloss.Color("209") // convolutional
	colorWhite  = lipgloss.Color("255")
	colorGray   = lipgloss.Color("245")
	colorDim    = lipgloss.Color("240")
)

// familyColors tints model families the same way across tables and the
// live preview.
var familyColors = map[model.Family]lipgloss.Color{
	model.FamilyFullyConnected: colorCyan,
	model.FamilyConvolutional:  colorOrange,
	model.FamilyTransformer:    colorViolet,
}

// =============================================================================
// Public Styles
// =============================================================================

var (
	// StyleTitle for main headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleHighlight for emphasized values.
	StyleHighlight = lipgloss.NewStyle().Foreground(colorCyan)

	// StyleDim for secondary text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleNumber for numeric table cells.
	StyleNumber = lipgloss.NewStyle().Foreground(colorGray).Align(lipgloss.Right)

	// StyleSuccess for success messages.
	StyleSuccess = lipgloss.NewStyle().Foreground(colorGreen)
)

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)
	styleHeader      = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	styleKey         = lipgloss.NewStyle().Foreground(colorGray).Width(12)
	styleCommand     = lipgloss.NewStyle().Foreground(colorViolet)
	styleCached      = lipgloss.NewStyle().Foreground(colorGreen)
)

// familyStyle returns the text style for a model family.
func familyStyle(f model.Family) lipgloss.Style {
	if c, ok := familyColors[f]; ok {
		return lipgloss.NewStyle().Foreground(c)
	}
	return StyleValue
}

// =============================================================================
// Status Output
// =============================================================================

func printSuccess(format string, args ...any) {
	fmt.Fprintln(out, styleIconSuccess.Render("✓")+" "+fmt.Sprintf(format, args...))
}

func printError(format string, args ...any) {
	fmt.Fprintln(out, styleIconError.Render("✗")+" "+fmt.Sprintf(format, args...))
}

// printNote prints a neutral status line.
func printNote(format string, args ...any) {
	fmt.Fprintln(out, StyleDim.Render("›")+" "+fmt.Sprintf(format, args...))
}

// printFile prints one written output path.
func printFile(path string) {
	fmt.Fprintln(out, "  "+StyleDim.Render("→")+" "+StyleValue.Render(path))
}

func printKeyValue(key, value string) {
	fmt.Fprintln(out, styleKey.Render(key)+" "+StyleValue.Render(value))
}

// printNextStep suggests a follow-up command.
func printNextStep(description, cmd string) {
	fmt.Fprintln(out, "\n"+StyleDim.Render(description+":")+" "+styleCommand.Render(cmd))
}

// =============================================================================
// Stats and Tables
// =============================================================================

// stat is one labelled count on a stats line.
type stat struct {
	n     int
	label string
}

// printStats prints counts on one line followed by whether the result came
// from the cache. Zero counts are omitted.
func printStats(cached bool, stats ...stat) {
	parts := make([]string, 0, len(stats)+1)
	for _, s := range stats {
		if s.n > 0 {
			parts = append(parts, StyleDim.Render(fmt.Sprintf("%d %s", s.n, s.label)))
		}
	}
	if cached {
		parts = append(parts, styleCached.Render("cached"))
	} else {
		parts = append(parts, StyleDim.Render("fresh"))
	}
	fmt.Fprintln(out, "  "+strings.Join(parts, StyleDim.Render(" · ")))
}

// newTable returns a rounded table with styled headers. cell styles the body.
func newTable(cell func(row, col int) lipgloss.Style, headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return styleHeader
			}
			return cell(row, col)
		})
}
