package discrete

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/tfsim/internal/lti"
	"github.com/san-kum/tfsim/internal/timeresp"
)

func TestTustinFirstOrder(t *testing.T) {
	g, _ := lti.FromZPK(nil, []float64{-1}, 1)
	gz, err := Tustin(g, 0.1)
	if err != nil {
		t.Fatal(err)
	}
	// (z+1)/(21z-19) normalized by 21
	num, den := gz.Num(), gz.Den()
	wantNum := []float64{1.0 / 21, 1.0 / 21}
	wantDen := []float64{1, -19.0 / 21}
	for i := range wantNum {
		if math.Abs(num[i]-wantNum[i]) > 1e-12 {
			t.Errorf("num[%d] = %v, want %v", i, num[i], wantNum[i])
		}
	}
	for i := range wantDen {
		if math.Abs(den[i]-wantDen[i]) > 1e-12 {
			t.Errorf("den[%d] = %v, want %v", i, den[i], wantDen[i])
		}
	}
	if gz.Ts() != 0.1 || gz.Var() != "z" {
		t.Errorf("unexpected discrete metadata: ts=%v var=%s", gz.Ts(), gz.Var())
	}
}

func TestTustinSteadyState(t *testing.T) {
	g, _ := lti.FromZPK(nil, []float64{-1}, 1)
	gz, err := Tustin(g, 0.1)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := timeresp.Step(nil, gz, timeresp.Arange(0, 10, 0.1))
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(resp.Final()-1) > 1e-3 {
		t.Errorf("discrete steady state = %v, want 1", resp.Final())
	}
	dc, err := gz.DCGain()
	if err != nil || math.Abs(dc-1) > 1e-12 {
		t.Errorf("DC gain = %v (%v), want 1", dc, err)
	}
}

func TestTustinPreservesDCGainHigherOrder(t *testing.T) {
	g, _ := lti.FromZPK([]float64{-3}, []float64{-1, -2, -4}, 5)
	gz, err := Tustin(g, 0.05)
	if err != nil {
		t.Fatal(err)
	}
	want, _ := g.DCGain()
	got, err := gz.DCGain()
	if err != nil || math.Abs(got-want) > 1e-9 {
		t.Errorf("DC gain = %v, want %v", got, want)
	}
	if gz.Den().Degree() != 3 || gz.Num().Degree() != 3 {
		t.Errorf("expected degree-3 numerator and denominator, got %v", gz)
	}
}

func TestTustinInvalidSampleTime(t *testing.T) {
	g, _ := lti.FromZPK(nil, []float64{-1}, 1)
	for _, ts := range []float64{0, -1, math.NaN()} {
		if _, err := Tustin(g, ts); !errors.Is(err, lti.ErrInvalidSampleTime) {
			t.Errorf("ts=%v: expected ErrInvalidSampleTime, got %v", ts, err)
		}
	}
}
