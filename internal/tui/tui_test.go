package tui

import (
	"math"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/tfsim/internal/config"
)

func press(m model, key tea.KeyMsg) (model, tea.Cmd) {
	next, cmd := m.Update(key)
	return next.(model), cmd
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestTunerGain(t *testing.T) {
	m := *NewTuner("closed-loop/unity", config.GetPreset("closed-loop", "unity"))
	k0 := m.gain()

	m, _ = press(m, tea.KeyMsg{Type: tea.KeyUp})
	if math.Abs(m.gain()-k0*1.1) > 1e-12 {
		t.Errorf("gain after up = %v, want %v", m.gain(), k0*1.1)
	}
	m, _ = press(m, tea.KeyMsg{Type: tea.KeyLeft})
	m, _ = press(m, tea.KeyMsg{Type: tea.KeyLeft})
	if math.Abs(m.gain()-k0/1.1) > 1e-12 {
		t.Errorf("gain after two lefts = %v, want %v", m.gain(), k0/1.1)
	}

	m, _ = press(m, runes("r"))
	if m.gain() != k0 {
		t.Errorf("reset gain = %v, want %v", m.gain(), k0)
	}
}

func TestTunerClosedLoop(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Plant.Poles = []float64{-1}
	cfg.Controller.Gain = 1
	m := *NewTuner("first-order", cfg)

	if m.err != nil {
		t.Fatalf("unexpected error: %v", m.err)
	}
	if len(m.poles) != 1 || math.Abs(real(m.poles[0])+2) > 1e-9 {
		t.Errorf("closed-loop poles = %v, want [-2]", m.poles)
	}
	if y := m.step.Final(); math.Abs(y-0.5) > 1e-3 {
		t.Errorf("final value = %v, want 0.5", y)
	}

	// raising K moves the pole left: s + 1 + K
	m, _ = press(m, tea.KeyMsg{Type: tea.KeyUp})
	if math.Abs(real(m.poles[0])+2.1) > 1e-9 {
		t.Errorf("pole after gain step = %v, want -2.1", m.poles[0])
	}
}

func TestTunerMovePole(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Plant.Poles = []float64{-0.1, -3}
	m := *NewTuner("two-pole", cfg)

	m, _ = press(m, runes("S"))
	if p := m.cfg.Plant.Poles[0]; math.Abs(p-0.1) > 1e-12 {
		t.Errorf("pole should skip the origin, got %v", p)
	}
	m, _ = press(m, tea.KeyMsg{Type: tea.KeyTab})
	m, _ = press(m, runes("s"))
	if p := m.cfg.Plant.Poles[1]; math.Abs(p+3.1) > 1e-12 {
		t.Errorf("second pole = %v, want -3.1", p)
	}
	if cfg.Plant.Poles[1] != -3 {
		t.Errorf("tuning mutated the base config")
	}

	m, _ = press(m, runes("r"))
	if m.cfg.Plant.Poles[0] != -0.1 || m.pole != 0 {
		t.Errorf("reset plant = %v, pole cursor %d", m.cfg.Plant.Poles, m.pole)
	}
}

func TestTunerQuit(t *testing.T) {
	m := *NewTuner("unity", config.GetPreset("closed-loop", "unity"))
	if _, cmd := press(m, runes("q")); cmd == nil {
		t.Error("q should return a quit command")
	}
}

func TestTunerView(t *testing.T) {
	m := *NewTuner("closed-loop/unity", config.GetPreset("closed-loop", "unity"))
	view := m.View()
	for _, want := range []string{"K =", "closed-loop poles", "settling"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestMenu(t *testing.T) {
	m := *newModel()
	if len(m.presets) == 0 {
		t.Fatal("menu has no presets")
	}
	if !strings.Contains(m.View(), "enter tune") {
		t.Error("menu view missing key help")
	}

	m, _ = press(m, tea.KeyMsg{Type: tea.KeyDown})
	m, _ = press(m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.state != stateTune || m.name != m.presets[1] {
		t.Errorf("state = %v, name = %q", m.state, m.name)
	}
}

func TestPlane(t *testing.T) {
	p := NewPlane(21, 7)
	p.Fit([]complex128{-2 + 1i, -2 - 1i})
	rows := p.Render([]complex128{-2 + 1i, -2 - 1i}, []complex128{-1})

	if len(rows) != 7 {
		t.Fatalf("rows = %d", len(rows))
	}
	mid := rows[3]
	if !strings.ContainsRune(mid, 'o') || !strings.ContainsRune(mid, '┼') {
		t.Errorf("real axis row %q should hold the zero and the origin", mid)
	}
	if strings.IndexRune(mid, 'o') > strings.IndexRune(mid, '┼') {
		t.Errorf("zero at -1 drawn right of the origin: %q", mid)
	}
	if strings.Count(strings.Join(rows, "\n"), "x") != 2 {
		t.Errorf("expected two poles drawn:\n%s", strings.Join(rows, "\n"))
	}
}
