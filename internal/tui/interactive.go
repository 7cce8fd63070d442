package tui

import (
	"fmt"
	"math"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/tfsim/internal/config"
	"github.com/san-kum/tfsim/internal/experiment"
	"github.com/san-kum/tfsim/internal/lti"
	"github.com/san-kum/tfsim/internal/pz"
	"github.com/san-kum/tfsim/internal/timeresp"
)

var (
	cyan    = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	white   = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	dim     = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	dimmer  = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	green   = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	yellow  = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	magenta = lipgloss.NewStyle().Foreground(lipgloss.Color("213"))
	red     = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
)

const (
	gainStep   = 1.1
	poleStep   = 0.1
	tuneStop   = 20.0
	tunePoints = 400
)

type state int

const (
	stateMenu state = iota
	stateTune
)

type model struct {
	state   state
	cursor  int
	presets []string

	name string
	base *config.Config
	cfg  *config.Config
	pole int

	sim timeresp.Simulator
	rf  lti.RootFinder

	step     *timeresp.Series
	poles    []complex128
	zeros    []complex128
	settling pz.Estimate
	err      error

	width  int
	height int
}

func newModel() *model {
	var names []string
	for _, group := range []string{"open-loop", "closed-loop", "allocation"} {
		for _, name := range config.ListPresets(group) {
			names = append(names, group+"/"+name)
		}
	}
	return &model{
		state:   stateMenu,
		presets: names,
		sim:     timeresp.NewZOH(),
		rf:      lti.Companion{},
		width:   80,
		height:  24,
	}
}

// NewTuner starts directly on the tuning screen for cfg.
func NewTuner(name string, cfg *config.Config) *model {
	m := newModel()
	m.load(name, cfg)
	return m
}

func (m *model) load(name string, cfg *config.Config) {
	m.name = name
	m.base = cfg
	m.reset()
	m.state = stateTune
}

func (m *model) reset() {
	cfg := *m.base
	cfg.Plant.Poles = append([]float64(nil), m.base.Plant.Poles...)
	cfg.Plant.Zeros = append([]float64(nil), m.base.Plant.Zeros...)
	if cfg.Controller.Gain == 0 {
		cfg.Controller.Gain = 1
	}
	m.cfg = &cfg
	m.pole = 0
	m.recompute()
}

// recompute rebuilds the closed loop and its step response after every
// change of gain or plant.
func (m *model) recompute() {
	m.step, m.poles, m.zeros, m.err = nil, nil, nil, nil
	ls, err := experiment.LoopsFromConfig(m.cfg)
	if err != nil {
		m.err = err
		return
	}
	if m.poles, err = ls.Closed.Poles(m.rf); err != nil {
		m.err = err
		return
	}
	m.zeros, _ = ls.Closed.Zeros(m.rf)
	lti.SortRoots(m.poles)
	lti.SortRoots(m.zeros)

	if m.step, err = timeresp.Step(m.sim, ls.Closed, timeresp.Linspace(0, tuneStop, tunePoints)); err != nil {
		m.err = err
		return
	}
	m.settling = pz.EstimateSettling(m.poles, m.step.T, m.step.Y)
}

func (m *model) gain() float64 {
	return m.cfg.Controller.Gain
}

func (m model) Init() tea.Cmd { return nil }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	}
	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (model, tea.Cmd) {
	switch m.state {
	case stateMenu:
		return m.menuKey(msg)
	case stateTune:
		return m.tuneKey(msg)
	}
	return m, nil
}

func (m model) menuKey(msg tea.KeyMsg) (model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.presets)-1 {
			m.cursor++
		}
	case "enter", " ":
		if len(m.presets) == 0 {
			return m, nil
		}
		group, name, _ := strings.Cut(m.presets[m.cursor], "/")
		if cfg := config.GetPreset(group, name); cfg != nil {
			m.load(m.presets[m.cursor], cfg)
			return m, tea.ClearScreen
		}
	}
	return m, nil
}

func (m model) tuneKey(msg tea.KeyMsg) (model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.state = stateMenu
		return m, tea.ClearScreen
	case "up", "right":
		m.cfg.Controller.Gain *= gainStep
	case "down", "left":
		m.cfg.Controller.Gain /= gainStep
	case "tab":
		if n := len(m.cfg.Plant.Poles); n > 0 {
			m.pole = (m.pole + 1) % n
		}
		return m, nil
	case "s":
		if !m.movePole(-poleStep) {
			return m, nil
		}
	case "S":
		if !m.movePole(poleStep) {
			return m, nil
		}
	case "r":
		m.reset()
		return m, nil
	default:
		return m, nil
	}
	m.recompute()
	return m, nil
}

// movePole shifts the selected plant pole. A pole that would land within
// the origin tolerance skips over it, so the plant order never changes.
func (m *model) movePole(delta float64) bool {
	poles := m.cfg.Plant.Poles
	if len(poles) == 0 {
		return false
	}
	p := poles[m.pole] + delta
	if math.Abs(p) <= lti.OriginTol {
		p += delta
	}
	poles[m.pole] = p
	return true
}

func (m model) View() string {
	switch m.state {
	case stateMenu:
		return m.viewMenu()
	case stateTune:
		return m.viewTune()
	}
	return ""
}

func (m model) viewMenu() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(dimmer.Render("    ╺━━━━━━━━━━━━━━━━━━━━━━━━╸") + "\n")
	b.WriteString("           " + cyan.Render("t f s i m") + "\n")
	b.WriteString(dimmer.Render("    ╺━━━━━━━━━━━━━━━━━━━━━━━━╸") + "\n")
	b.WriteString("\n")

	for i, name := range m.presets {
		group, preset, _ := strings.Cut(name, "/")
		if i == m.cursor {
			b.WriteString("      " + cyan.Render("▸ ") + white.Render(fmt.Sprintf("%-18s", preset)) + dim.Render(group) + "\n")
		} else {
			b.WriteString("        " + dim.Render(fmt.Sprintf("%-18s", preset)) + dimmer.Render(group) + "\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(dim.Render("      ↑↓ select   enter tune   q quit") + "\n")
	return b.String()
}

func (m model) viewTune() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("\n   %s  %s %s\n", cyan.Render(m.name),
		dim.Render("K ="), magenta.Render(fmt.Sprintf("%.4g", m.gain()))))
	b.WriteString("   " + dim.Render("plant poles ") + m.plantPoles() + "\n\n")

	if m.err != nil {
		b.WriteString("   " + red.Render(m.err.Error()) + "\n")
	} else {
		gw := m.width - 16
		if gw < 40 {
			gw = 40
		}
		gh := m.height - 16
		if gh < 8 {
			gh = 8
		}
		graph := asciigraph.Plot(m.step.Y,
			asciigraph.Height(gh),
			asciigraph.Width(gw),
			asciigraph.Caption(fmt.Sprintf("closed-loop step, 0..%gs", tuneStop)))
		for _, line := range strings.Split(graph, "\n") {
			b.WriteString("   " + line + "\n")
		}
		b.WriteString("\n")
		b.WriteString("   " + dim.Render("closed-loop poles ") + m.closedPoles() + "\n")
		b.WriteString("   " + dim.Render("settling ") + m.settlingText() + "\n")

		plane := NewPlane(36, 9)
		plane.Fit(m.poles, m.zeros)
		for _, row := range plane.Render(m.poles, m.zeros) {
			b.WriteString("   " + dimmer.Render(row) + "\n")
		}
	}

	b.WriteString("\n" + dim.Render("   ↑↓←→ gain  s/S move pole  tab next pole  r reset  esc presets  q quit") + "\n")
	return b.String()
}

func (m model) plantPoles() string {
	if len(m.cfg.Plant.Poles) == 0 {
		return dimmer.Render("none")
	}
	parts := make([]string, len(m.cfg.Plant.Poles))
	for i, p := range m.cfg.Plant.Poles {
		s := fmt.Sprintf("%.3g", p)
		if i == m.pole {
			parts[i] = cyan.Render("[" + s + "]")
		} else {
			parts[i] = white.Render(s)
		}
	}
	return strings.Join(parts, " ")
}

func (m model) closedPoles() string {
	parts := make([]string, len(m.poles))
	for i, p := range m.poles {
		s := lti.ToComplex(p).String()
		if real(p) >= 0 {
			parts[i] = red.Render(s)
		} else {
			parts[i] = white.Render(s)
		}
	}
	return strings.Join(parts, "  ")
}

func (m model) settlingText() string {
	v := m.settling.Value
	if math.IsInf(v, 0) || math.IsNaN(v) || v <= 0 {
		return yellow.Render("not settled")
	}
	return green.Render(fmt.Sprintf("%.3gs", v)) + dim.Render(" ("+string(m.settling.Method)+")")
}

// RunTuner opens the preset menu, or the tuner directly when cfg is set.
func RunTuner(name string, cfg *config.Config) error {
	m := newModel()
	if cfg != nil {
		m = NewTuner(name, cfg)
	}
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
