package timeresp

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/tfsim/internal/lti"
)

func zpk(t *testing.T, zeros, poles []float64, k float64) lti.System {
	t.Helper()
	sys, err := lti.FromZPK(zeros, poles, k)
	if err != nil {
		t.Fatal(err)
	}
	return sys
}

// constSim returns a fixed value regardless of the system.
type constSim struct{ v float64 }

func (c constSim) Simulate(sys lti.System, t, u []float64) ([]float64, error) {
	y := make([]float64, len(t))
	for i := range y {
		y[i] = c.v
	}
	return y, nil
}

func TestStepFirstOrder(t *testing.T) {
	g := zpk(t, nil, []float64{-1}, 1)
	grid := Linspace(0, 10, 1001)
	resp, err := Step(NewZOH(), g, grid)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(resp.Y[100]-(1-math.Exp(-1))) > 1e-9 {
		t.Errorf("y(1) = %.6f, want %.6f", resp.Y[100], 1-math.Exp(-1))
	}
	if math.Abs(resp.Final()-1) > 1e-4 {
		t.Errorf("y_final = %.6f, want 1", resp.Final())
	}
	if resp.Y[0] != 0 {
		t.Errorf("y(0) = %v, want 0", resp.Y[0])
	}
}

func TestStepIntegrator(t *testing.T) {
	g, err := lti.New(lti.Poly{1}, lti.Poly{1, 0})
	if err != nil {
		t.Fatal(err)
	}
	resp, err := Step(NewZOH(), g, Linspace(0, 5, 51))
	if err != nil {
		t.Fatal(err)
	}
	for i, ti := range resp.T {
		if math.Abs(resp.Y[i]-ti) > 1e-9 {
			t.Fatalf("ramp mismatch at t=%v: %v", ti, resp.Y[i])
		}
	}
}

func TestStepSecondOrderWithZero(t *testing.T) {
	// (s+3)/((s+1)(s+2)) has DC gain 1.5
	g := zpk(t, []float64{-3}, []float64{-1, -2}, 1)
	resp, err := Step(NewZOH(), g, Linspace(0, 20, 2001))
	if err != nil {
		t.Fatal(err)
	}
	// y(t) = 1.5 - 2 e^{-t} + 0.5 e^{-2t}
	for _, k := range []int{50, 100, 300} {
		ti := resp.T[k]
		want := 1.5 - 2*math.Exp(-ti) + 0.5*math.Exp(-2*ti)
		if math.Abs(resp.Y[k]-want) > 1e-8 {
			t.Errorf("y(%v) = %v, want %v", ti, resp.Y[k], want)
		}
	}
}

func TestStepBiproper(t *testing.T) {
	// (s+2)/(s+1): y(0+) = 1, y_final = 2
	g := zpk(t, []float64{-2}, []float64{-1}, 1)
	resp, err := Step(NewZOH(), g, Linspace(0, 15, 301))
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(resp.Y[0]-1) > 1e-12 {
		t.Errorf("y(0) = %v, want 1", resp.Y[0])
	}
	if math.Abs(resp.Final()-2) > 1e-5 {
		t.Errorf("y_final = %v, want 2", resp.Final())
	}
}

func TestStepNonCausal(t *testing.T) {
	g := zpk(t, []float64{-1, -2}, []float64{-3}, 1)
	_, err := Step(NewZOH(), g, Linspace(0, 1, 10))
	if !errors.Is(err, lti.ErrNonCausal) {
		t.Errorf("expected ErrNonCausal, got %v", err)
	}
}

func TestForcedGridErrors(t *testing.T) {
	g := zpk(t, nil, []float64{-1}, 1)
	if _, err := Forced(NewZOH(), g, []float64{0, 1}, []float64{1}); !errors.Is(err, ErrGridMismatch) {
		t.Errorf("expected ErrGridMismatch, got %v", err)
	}
	if _, err := Forced(NewZOH(), g, []float64{0, 1, 1}, []float64{1, 1, 1}); !errors.Is(err, ErrGridOrder) {
		t.Errorf("expected ErrGridOrder, got %v", err)
	}
}

func TestStepUsesSimulator(t *testing.T) {
	g := zpk(t, nil, []float64{-1}, 1)
	resp, err := Step(constSim{v: 0.25}, g, Linspace(0, 1, 5))
	if err != nil {
		t.Fatal(err)
	}
	for _, y := range resp.Y {
		if y != 0.25 {
			t.Fatalf("expected stub output, got %v", y)
		}
	}
}

func TestPerturbedStep(t *testing.T) {
	grid := Linspace(0, 50, 1000)
	u := PerturbedStep(grid, 20, 0.5)
	for i, ti := range grid {
		want := 1.0
		if ti >= 20 {
			want = 1.5
		}
		if u[i] != want {
			t.Fatalf("u(%v) = %v, want %v", ti, u[i], want)
		}
	}

	g := zpk(t, nil, []float64{-1}, 1)
	resp, err := StepWithPerturbation(NewZOH(), g, grid, 20, 0.5)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(resp.Final()-1.5) > 1e-4 {
		t.Errorf("perturbed final = %v, want 1.5", resp.Final())
	}
}

func TestDiscreteDifference(t *testing.T) {
	// y[k] = 0.5 y[k-1] + 0.5 u[k-1]
	g, err := lti.NewDiscrete(lti.Poly{0.5}, lti.Poly{1, -0.5}, 0.1)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := Step(nil, g, Arange(0, 5, 0.1))
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{0, 0.5, 0.75, 0.875}
	for i, w := range want {
		if math.Abs(resp.Y[i]-w) > 1e-12 {
			t.Errorf("y[%d] = %v, want %v", i, resp.Y[i], w)
		}
	}
}

func TestResample(t *testing.T) {
	s := &Series{T: []float64{0, 1, 2}, Y: []float64{0, 10, 20}}
	out := Resample(s, []float64{-1, 0.5, 1.25, 2, 3})
	want := []float64{0, 5, 12.5, 20, 20}
	for i := range want {
		if math.Abs(out.Y[i]-want[i]) > 1e-12 {
			t.Errorf("Resample[%d] = %v, want %v", i, out.Y[i], want[i])
		}
	}
}

func TestRealizeStaticGain(t *testing.T) {
	g, _ := lti.New(lti.Poly{3}, lti.Poly{2})
	ss, err := Realize(g)
	if err != nil {
		t.Fatal(err)
	}
	if ss.Order() != 0 || ss.D != 1.5 {
		t.Errorf("static realization: order=%d D=%v", ss.Order(), ss.D)
	}
}

func TestArange(t *testing.T) {
	got := Arange(0, 5, 0.1)
	if len(got) != 50 {
		t.Errorf("len = %d, want 50", len(got))
	}
}

func TestFOHRampExact(t *testing.T) {
	g := zpk(t, nil, []float64{-1}, 1)
	grid := Linspace(0, 5, 11)
	u := make([]float64, len(grid))
	copy(u, grid)

	resp, err := Forced(NewFOH(), g, grid, u)
	if err != nil {
		t.Fatal(err)
	}
	// y = t - 1 + e^-t for a unit ramp into 1/(s+1)
	for i, ti := range grid {
		want := ti - 1 + math.Exp(-ti)
		if math.Abs(resp.Y[i]-want) > 1e-9 {
			t.Errorf("y(%v) = %.12f, want %.12f", ti, resp.Y[i], want)
		}
	}

	zoh, err := Forced(NewZOH(), g, grid, u)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(zoh.Final()-(5-1+math.Exp(-5))) < 1e-3 {
		t.Errorf("zero-order hold should lag a coarse ramp, got %v", zoh.Final())
	}
}

func TestFOHMatchesZOHOnConstantInput(t *testing.T) {
	g := zpk(t, []float64{-3}, []float64{-1, -2}, 2)
	grid := Linspace(0, 6, 61)
	foh, err := Step(NewFOH(), g, grid)
	if err != nil {
		t.Fatal(err)
	}
	zoh, err := Step(NewZOH(), g, grid)
	if err != nil {
		t.Fatal(err)
	}
	for i := range grid {
		if math.Abs(foh.Y[i]-zoh.Y[i]) > 1e-9 {
			t.Fatalf("step mismatch at t=%v: foh %v, zoh %v", grid[i], foh.Y[i], zoh.Y[i])
		}
	}
}

func TestFOHStaticGain(t *testing.T) {
	g, err := lti.New(lti.Poly{3}, lti.Poly{1})
	if err != nil {
		t.Fatal(err)
	}
	y, err := NewFOH().Simulate(g, []float64{0, 1, 2}, []float64{1, 2, 3})
	if err != nil {
		t.Fatal(err)
	}
	for i, want := range []float64{3, 6, 9} {
		if y[i] != want {
			t.Errorf("y[%d] = %v, want %v", i, y[i], want)
		}
	}
}
