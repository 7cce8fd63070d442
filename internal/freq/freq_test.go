package freq

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/san-kum/tfsim/internal/lti"
)

func firstOrder(t *testing.T) lti.System {
	t.Helper()
	g, err := lti.FromZPK(nil, []float64{-1}, 1)
	if err != nil {
		t.Fatal(err)
	}
	return g
}

func TestBodeCornerFrequency(t *testing.T) {
	data, err := Bode(firstOrder(t), []float64{1})
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(data.MagDB[0]-(-3.0103)) > 1e-3 {
		t.Errorf("magnitude at w=1: got %.4f dB, want -3.01", data.MagDB[0])
	}
	if math.Abs(data.PhaseDeg[0]-(-45)) > 1e-9 {
		t.Errorf("phase at w=1: got %.4f, want -45", data.PhaseDeg[0])
	}
}

func TestBodePhaseWraps(t *testing.T) {
	g, _ := lti.FromZPK(nil, []float64{-1, -1, -1}, 1)
	data, err := Bode(g, []float64{0.1, 10})
	if err != nil {
		t.Fatal(err)
	}
	for i, p := range data.PhaseDeg {
		if p > 180 || p < -180 {
			t.Errorf("phase[%d] = %v outside [-180, 180]", i, p)
		}
	}
	// true phase at w=10 is about -253 degrees
	if data.PhaseDeg[1] < 0 {
		t.Errorf("expected wrapped positive phase at w=10, got %v", data.PhaseDeg[1])
	}
}

func TestBodeSingular(t *testing.T) {
	den := lti.Poly{1, 0, 1}
	g, err := lti.New(lti.Poly{1}, den)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Bode(g, []float64{0.5, 1, 2}); !errors.Is(err, lti.ErrSingularEvaluation) {
		t.Errorf("expected ErrSingularEvaluation, got %v", err)
	}
}

func TestNyquistMirror(t *testing.T) {
	w := LogSpace(-2, 2, 50)
	data, err := Nyquist(firstOrder(t), w)
	if err != nil {
		t.Fatal(err)
	}
	if len(data.Re) != len(w) || len(data.MirrorIm) != len(w) {
		t.Fatalf("unexpected lengths")
	}
	for i := range w {
		if data.MirrorRe[i] != data.Re[i] || data.MirrorIm[i] != -data.Im[i] {
			t.Errorf("mirror mismatch at %d", i)
		}
		if data.Im[i] > 0 {
			t.Errorf("first-order lag should stay in lower half-plane, Im=%v", data.Im[i])
		}
	}
}

func TestDiscreteEvaluatesUnitCircle(t *testing.T) {
	g, err := lti.NewDiscrete(lti.Poly{0.5}, lti.Poly{1, -0.5}, 0.1)
	if err != nil {
		t.Fatal(err)
	}
	data, err := Bode(g, []float64{1e-6})
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(data.MagDB[0]) > 1e-6 {
		t.Errorf("discrete DC magnitude = %v dB, want 0", data.MagDB[0])
	}
}

func TestLogSpace(t *testing.T) {
	w := LogSpace(-2, 2, 5)
	want := []float64{0.01, 0.1, 1, 10, 100}
	for i := range want {
		if math.Abs(w[i]-want[i]) > 1e-12*want[i] {
			t.Errorf("LogSpace[%d] = %v, want %v", i, w[i], want[i])
		}
	}
}

func TestBodeZeroOnAxisClamped(t *testing.T) {
	// (s^2+1)/(s+1)^2 vanishes at w = 1
	g, err := lti.New(lti.Poly{1, 0, 1}, lti.Poly{1, 2, 1})
	if err != nil {
		t.Fatal(err)
	}
	data, err := Bode(g, []float64{0.5, 1, 2})
	if err != nil {
		t.Fatal(err)
	}
	if data.MagDB[1] != MinMagDB {
		t.Errorf("magnitude at the notch = %v, want %v", data.MagDB[1], MinMagDB)
	}
	for i, m := range data.MagDB {
		if math.IsInf(m, 0) || math.IsNaN(m) {
			t.Errorf("MagDB[%d] = %v", i, m)
		}
	}
	if data.MagDB[0] <= MinMagDB {
		t.Errorf("off-notch magnitude clamped: %v", data.MagDB[0])
	}
	if _, err := json.Marshal(data); err != nil {
		t.Errorf("marshal: %v", err)
	}
}
