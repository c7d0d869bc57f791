// SPDX-License-Identifier: MIT
//
// Package tui renders the pipeline's visual state as full-screen
// spectrum bars in the terminal. The bubbletea program owns the
// terminal; the render loop feeds it one frame message per tick via
// Program.Send, so the audio path never waits on terminal I/O.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"pulseviz/internal/analysis"
	"pulseviz/internal/render"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5")).
			Background(lipgloss.Color("#25A065")).
			Padding(0, 1).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262"))

	specLowStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#25A065"))
	specMidStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F2C14E"))
	specHighStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#E4572E"))

	statusCalm   = lipgloss.NewStyle().Foreground(lipgloss.Color("#64C864")).Bold(true)
	statusActive = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFA500")).Bold(true)
	statusHot    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF3232")).Bold(true)

	pulseStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF3232"))
)

// Partial block glyphs for the top cell of each bar, 8 levels plus empty.
var barBlocks = []string{" ", "▁", "▂", "▃", "▄", "▅", "▆", "▇", "█"}

// Onset density thresholds for the status line, counted over a sliding
// window.
const (
	statusWindow    = 10 * time.Second
	activeThreshold = 2
	hotThreshold    = 4
)

// frameMsg carries one render tick's state into the bubbletea model.
// All slices are copies; the VisualState itself never crosses the
// goroutine boundary.
type frameMsg struct {
	bars       []float64
	bands      []float64
	energy     float64
	pulse      float64
	onsetCount uint64
	onset      bool
}

type keyMap struct {
	Quit  key.Binding
	Reset key.Binding
}

var keys = keyMap{
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c", "esc"),
		key.WithHelp("q", "quit"),
	),
	Reset: key.NewBinding(
		key.WithKeys(" "),
		key.WithHelp("space", "reset onsets"),
	),
}

// Model is the bubbletea model for the spectrum view.
type Model struct {
	width  int
	height int
	ready  bool

	frame frameMsg

	// onsetTimes holds the arrival times of recent onsets for the
	// status line; pruned past statusWindow.
	onsetTimes []time.Time
	lastCount  uint64

	resetOnsets func()
}

// NewModel creates the spectrum model. resetOnsets is invoked when the
// user resets the onset counter; it may be nil.
func NewModel(resetOnsets func()) Model {
	return Model{resetOnsets: resetOnsets}
}

// Init implements tea.Model. Frames arrive via Program.Send, so there
// is no initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true

	case frameMsg:
		if msg.onset && msg.onsetCount != m.lastCount {
			m.onsetTimes = append(m.onsetTimes, time.Now())
		}
		m.lastCount = msg.onsetCount
		m.frame = msg
		m.pruneOnsets(time.Now())

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, keys.Reset):
			if m.resetOnsets != nil {
				m.resetOnsets()
			}
			m.onsetTimes = nil
			m.lastCount = 0
		}
	}
	return m, nil
}

func (m *Model) pruneOnsets(now time.Time) {
	cutoff := now.Add(-statusWindow)
	i := 0
	for i < len(m.onsetTimes) && m.onsetTimes[i].Before(cutoff) {
		i++
	}
	m.onsetTimes = m.onsetTimes[i:]
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	var sb strings.Builder

	title := titleStyle.Render("pulseviz")
	sb.WriteString(title)
	sb.WriteString("  ")
	sb.WriteString(m.statusLine())
	sb.WriteString("\n\n")

	barRows := m.height - 6
	if barRows < 3 {
		barRows = 3
	}
	sb.WriteString(m.renderBars(barRows))
	sb.WriteString("\n")
	sb.WriteString(m.renderBands())
	sb.WriteString("\n")
	sb.WriteString(helpStyle.Render("space: reset onsets • q: quit"))

	return sb.String()
}

// statusLine maps recent onset density to calm/active/hot, with the
// running counter and an onset flash.
func (m Model) statusLine() string {
	recent := len(m.onsetTimes)
	var status string
	switch {
	case recent >= hotThreshold:
		status = statusHot.Render("HOT")
	case recent >= activeThreshold:
		status = statusActive.Render("ACTIVE")
	default:
		status = statusCalm.Render("CALM")
	}

	line := fmt.Sprintf("%s  onsets: %d", status, m.frame.onsetCount)
	if m.frame.pulse > 0.5 {
		line += "  " + pulseStyle.Render("●")
	}
	return line
}

// renderBars draws the spectrum as vertical bars of block glyphs, one
// column per bar, colored by frequency region.
func (m Model) renderBars(rows int) string {
	bars := m.frame.bars
	if len(bars) == 0 {
		bars = make([]float64, 32)
	}

	var sb strings.Builder
	for row := range rows {
		// Row 0 is the top of the display.
		for b, v := range bars {
			cells := v * float64(rows)
			var glyph string
			switch {
			case cells >= float64(rows-row):
				glyph = "█"
			case cells > float64(rows-row-1):
				frac := cells - float64(rows-row-1)
				glyph = barBlocks[int(frac*8)]
			default:
				glyph = " "
			}
			sb.WriteString(m.barStyle(b, len(bars)).Render(glyph + " "))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func (m Model) barStyle(bar, total int) lipgloss.Style {
	switch {
	case bar < total/3:
		return specLowStyle
	case bar < 2*total/3:
		return specMidStyle
	default:
		return specHighStyle
	}
}

// renderBands draws the named band meters under the spectrum.
func (m Model) renderBands() string {
	const meterWidth = 16

	var sb strings.Builder
	for i, band := range analysis.DefaultBands {
		level := 0.0
		if i < len(m.frame.bands) {
			level = m.frame.bands[i]
		}
		filled := int(level * meterWidth)
		if filled > meterWidth {
			filled = meterWidth
		}
		meter := strings.Repeat("█", filled) + strings.Repeat("░", meterWidth-filled)
		sb.WriteString(fmt.Sprintf("%-7s %s  ", band.Name, m.barStyle(i, len(analysis.DefaultBands)).Render(meter)))
	}
	sb.WriteString(fmt.Sprintf(" rms %.3f", m.frame.energy))
	return sb.String()
}

// Screen adapts a running bubbletea program to the render.Renderer
// interface. Present copies the state into a frameMsg; Send never
// blocks the render loop for long since bubbletea queues messages.
type Screen struct {
	prog *tea.Program
}

// NewScreen wraps a program.
func NewScreen(prog *tea.Program) *Screen {
	return &Screen{prog: prog}
}

// Present implements render.Renderer.
func (s *Screen) Present(st *render.VisualState) error {
	msg := frameMsg{
		bars:       append([]float64(nil), st.Bars...),
		bands:      append([]float64(nil), st.Bands...),
		energy:     st.Energy,
		pulse:      st.Pulse,
		onsetCount: st.OnsetCount,
		onset:      st.Pulse == 1.0,
	}
	s.prog.Send(msg)
	return nil
}

var _ render.Renderer = (*Screen)(nil)
