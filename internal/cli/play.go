package cli

import (
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/matzehuels/layerscope/pkg/clock"
	"github.com/matzehuels/layerscope/pkg/engine"
	"github.com/matzehuels/layerscope/pkg/frame"
	"github.com/matzehuels/layerscope/pkg/lightcone"
	"github.com/matzehuels/layerscope/pkg/model"
	"github.com/matzehuels/layerscope/pkg/observability"
)

const (
	playRate       = time.Second / 60
	historyLimit   = 120
	eventLogLimit  = 4
	activityBarLen = 12
)

// TUI styles
var (
	playHeaderStyle = lipgloss.NewStyle().Foreground(colorCyan).Bold(true)
	playLabelStyle  = lipgloss.NewStyle().Foreground(colorGray).Width(12)
	playPanelStyle  = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(colorDim).Padding(0, 2)
	playGraphStyle  = lipgloss.NewStyle().Foreground(colorGreen).Padding(1, 0)
	playHelpStyle   = lipgloss.NewStyle().Foreground(colorDim).MarginTop(1)
	playScopeStyle  = lipgloss.NewStyle().Foreground(colorYellow)
)

// playCommand creates the live terminal preview.
func (c *CLI) playCommand() *cobra.Command {
	var flags visualFlags

	cmd := &cobra.Command{
		Use:   "play [preset|model.toml|model.json]",
		Short: "Preview the animation live in the terminal",
		Long: `Preview the animation live in the terminal.

The play command drives the animation clock at 60 Hz and shows the clock,
camera, per-layer activity and the light cone around the selected layer.
Press ? inside the preview for key bindings.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := model.PresetMLP
			if len(args) == 1 {
				name = args[0]
			}
			cfg, err := c.config()
			if err != nil {
				return err
			}
			st, err := flags.state(cmd, cfg)
			if err != nil {
				return err
			}
			m, err := model.Resolve(name)
			if err != nil {
				return err
			}

			events := &eventLog{}
			observability.SetEventHooks(events)
			defer observability.Reset()

			eng := engine.New(engine.Options{
				Scene:  flags.sceneOptions(cmd, cfg),
				State:  &st,
				Logger: c.Logger,
			})
			if err := eng.LoadModel(m); err != nil {
				return err
			}
			eng.Play()

			p := tea.NewProgram(newPlayModel(eng, events), tea.WithContext(cmd.Context()), tea.WithAltScreen())
			_, err = p.Run()
			return err
		},
	}

	flags.register(cmd)
	return cmd
}

// =============================================================================
// Event log
// =============================================================================

// eventLog keeps the most recent state-transition events for display.
type eventLog struct {
	recent []observability.Event
}

func (l *eventLog) OnEvent(e observability.Event) {
	l.recent = append(l.recent, e)
	if len(l.recent) > eventLogLimit {
		l.recent = l.recent[len(l.recent)-eventLogLimit:]
	}
}

// =============================================================================
// Model
// =============================================================================

type playTickMsg time.Time

func playTick() tea.Cmd {
	return tea.Tick(playRate, func(t time.Time) tea.Msg { return playTickMsg(t) })
}

// playModel is the bubbletea model for the live preview. The engine is
// shared between model copies and only touched from Update.
type playModel struct {
	eng      *engine.Engine
	events   *eventLog
	presets  []string
	frame    frame.Frame
	last     time.Time
	history  []float64
	showHelp bool
}

func newPlayModel(eng *engine.Engine, events *eventLog) playModel {
	return playModel{
		eng:     eng,
		events:  events,
		presets: model.PresetNames(),
		frame:   eng.Frame(),
	}
}

func (m playModel) Init() tea.Cmd {
	return playTick()
}

func (m playModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.handleKey(msg.String()) {
			return m, tea.Quit
		}
		m.frame = m.eng.Frame()
	case playTickMsg:
		now := time.Time(msg)
		delta := playRate.Seconds()
		if !m.last.IsZero() {
			delta = now.Sub(m.last).Seconds()
		}
		m.last = now
		m.frame = m.eng.Tick(delta)
		m.history = append(m.history, activity(m.frame.Neurons))
		if len(m.history) > historyLimit {
			m.history = m.history[len(m.history)-historyLimit:]
		}
		return m, playTick()
	}
	return m, nil
}

// handleKey applies one key binding and reports whether to quit.
func (m *playModel) handleKey(key string) bool {
	e := m.eng
	st := e.State()
	switch key {
	case "q", "ctrl+c":
		return true
	case " ":
		if e.Clock().State == clock.Playing {
			e.Pause()
		} else {
			e.Play()
		}
	case "s":
		e.Stop()
	case "n", "right":
		e.Step()
	case "+", "=":
		e.SetSpeed(st.Speed + 0.25)
	case "-", "_":
		e.SetSpeed(st.Speed - 0.25)
	case "g":
		e.SetGlow(st.Glow + 0.1)
	case "G":
		e.SetGlow(st.Glow - 0.1)
	case "down", "j", "tab":
		e.SelectIndex(m.selectedIndex() + 1)
	case "up", "k", "shift+tab":
		i := m.selectedIndex()
		if i < 0 {
			i = len(m.frame.Layers)
		}
		e.SelectIndex(i - 1)
	case "esc", "backspace":
		e.ClearSelection()
	case "c":
		e.SetConeEnabled(!st.ConeEnabled)
	case "v":
		e.SetConeMode(nextMode(st.ConeMode))
	case "]":
		e.SetConeDepth(st.ConeDepth + 1)
	case "[":
		e.SetConeDepth(st.ConeDepth - 1)
	case "1", "2", "3", "4", "5", "6":
		e.FlipToggle(engine.Toggles()[key[0]-'1'])
	case "m":
		m.cycleModel()
	case "?":
		m.showHelp = !m.showHelp
	}
	return false
}

func (m *playModel) selectedIndex() int {
	id, ok := m.eng.Selected()
	if !ok || m.eng.Model() == nil {
		return -1
	}
	return m.eng.Model().LayerIndex(id)
}

// cycleModel loads the next preset, which moves the camera when the family
// changes.
func (m *playModel) cycleModel() {
	cur := ""
	if m.eng.Model() != nil {
		cur = m.eng.Model().Name
	}
	i := 0
	for j, name := range m.presets {
		if p, err := model.Preset(name); err == nil && p.Name == cur {
			i = j + 1
			break
		}
	}
	next, err := model.Preset(m.presets[i%len(m.presets)])
	if err != nil {
		return
	}
	m.eng.ClearSelection()
	_ = m.eng.LoadModel(next)
}

func nextMode(mode lightcone.Mode) lightcone.Mode {
	modes := []lightcone.Mode{lightcone.Forward, lightcone.Backward, lightcone.Both}
	i := slices.Index(modes, mode)
	return modes[(i+1)%len(modes)]
}

// activity is the mean emissive intensity of the visible neurons.
func activity(ns []frame.Neuron) float64 {
	sum, n := 0.0, 0
	for _, v := range ns {
		if v.Visible {
			sum += v.Emissive
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// =============================================================================
// View
// =============================================================================

func (m playModel) View() string {
	e := m.eng
	mdl := e.Model()
	if mdl == nil {
		return "no model loaded\n"
	}
	snap := e.Clock()
	st := e.State()

	var left strings.Builder
	left.WriteString(playHeaderStyle.Render(strings.ToUpper(mdl.Name)) + "  " + familyStyle(mdl.Family).Render(string(mdl.Family)) + "\n\n")
	left.WriteString(m.layerList())
	if len(m.history) > 1 {
		chart := asciigraph.Plot(m.history,
			asciigraph.Height(5),
			asciigraph.Width(48),
			asciigraph.Precision(2),
			asciigraph.Caption("activity"))
		left.WriteString(playGraphStyle.Render(chart) + "\n")
	}

	var right strings.Builder
	kv := func(k, v string) {
		right.WriteString(playLabelStyle.Render(k) + StyleValue.Render(v) + "\n")
	}
	kv("Clock", snap.State.String())
	kv("Time", fmt.Sprintf("%.2fs", snap.Elapsed))
	kv("Phase", fmt.Sprintf("%.2f", snap.Phase))
	if snap.State == clock.Stepping {
		kv("Step", fmt.Sprintf("%d / %d", snap.Step, max(len(mdl.Layers)-1, 0)))
	}
	kv("Speed", fmt.Sprintf("%.2fx", st.Speed))
	kv("Glow", fmt.Sprintf("%.1f", st.Glow))
	kv("Primitives", fmt.Sprintf("%d", m.frame.Count()))

	right.WriteString("\n")
	pose := e.Camera()
	kv("Camera", fmt.Sprintf("(%.1f, %.1f, %.1f)", pose.Position.X, pose.Position.Y, pose.Position.Z))
	if tr := e.CameraTransition(); tr != nil && !tr.Done() {
		kv("Moving", fmt.Sprintf("%.0f%%", tr.Progress()*100))
	}

	right.WriteString("\n")
	cone := "off"
	if st.ConeEnabled {
		cone = fmt.Sprintf("%s, depth %d", st.ConeMode, st.ConeDepth)
	}
	kv("Light cone", cone)
	for i, t := range engine.Toggles() {
		mark := StyleDim.Render("○")
		if st.Enabled(t) {
			mark = StyleSuccess.Render("●")
		}
		right.WriteString(fmt.Sprintf("%s %d %s\n", mark, i+1, StyleDim.Render(strings.TrimPrefix(string(t), "show_"))))
	}

	if len(m.events.recent) > 0 {
		right.WriteString("\n")
		for _, ev := range m.events.recent {
			right.WriteString(StyleDim.Render(fmt.Sprintf("%s %s", ev.At.Format("15:04:05"), ev.Kind)) + "\n")
		}
	}

	body := lipgloss.JoinHorizontal(lipgloss.Top, left.String(), playPanelStyle.Render(right.String()))
	help := "space play/pause · n step · s stop · j/k select · c cone · m model · ? help · q quit"
	if m.showHelp {
		help = strings.Join([]string{
			"space  play / pause        n, →   step to next layer   s      stop",
			"+ / -  speed               g / G  glow                 m      next preset",
			"j / k  select layer        esc    clear selection      1-6    toggles",
			"c      light cone on/off   v      cone mode            [ / ]  cone depth",
		}, "\n")
	}
	return body + "\n" + playHelpStyle.Render(help) + "\n"
}

// layerList renders one line per layer with a per-layer activity bar.
func (m playModel) layerList() string {
	perLayer := make([]float64, len(m.frame.Layers))
	counts := make([]int, len(m.frame.Layers))
	for _, n := range m.frame.Neurons {
		if n.Layer >= 0 && n.Layer < len(perLayer) && n.Visible {
			perLayer[n.Layer] += n.Emissive
			counts[n.Layer]++
		}
	}
	sel, _ := m.eng.Selected()

	var b strings.Builder
	for i, l := range m.frame.Layers {
		level := 0.0
		if counts[i] > 0 {
			level = perLayer[i] / float64(counts[i])
		}
		filled := int(math.Round(math.Min(math.Max(level, 0), 1) * activityBarLen))
		bar := strings.Repeat("█", filled) + strings.Repeat("░", activityBarLen-filled)

		cursor := "  "
		if l.ID == sel {
			cursor = "▸ "
		}
		label := fmt.Sprintf("%-14s", truncate(l.Label, 14))
		switch {
		case l.ID == sel:
			label = StyleTitle.Render(label)
		case l.InScope:
			label = playScopeStyle.Render(label)
		case l.Current:
			label = StyleHighlight.Render(label)
		default:
			label = StyleValue.Render(label)
		}
		b.WriteString(cursor + label + " " + StyleSuccess.Render(bar) + "\n")
	}
	return b.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
