package integrators

import (
	"math"
	"sync"
	"testing"

	"github.com/san-kum/tfsim/internal/lti"
	"github.com/san-kum/tfsim/internal/timeresp"
)

func TestSimulatorsMatchAnalyticStep(t *testing.T) {
	g, err := lti.FromZPK(nil, []float64{-1, -2}, 2)
	if err != nil {
		t.Fatal(err)
	}
	grid := timeresp.Linspace(0, 5, 51)

	tests := []struct {
		name string
		sim  timeresp.Simulator
		tol  float64
	}{
		{"euler", NewEulerSimulator(1e-4), 1e-3},
		{"rk4", NewRK4Simulator(1e-2), 1e-8},
		{"rk45", NewRK45(1e-10), 1e-6},
	}

	// 2/((s+1)(s+2)) step: 1 - 2e^{-t} + e^{-2t}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := timeresp.Step(tt.sim, g, grid)
			if err != nil {
				t.Fatal(err)
			}
			for i, ti := range resp.T {
				want := 1 - 2*math.Exp(-ti) + math.Exp(-2*ti)
				if math.Abs(resp.Y[i]-want) > tt.tol {
					t.Fatalf("y(%v) = %v, want %v", ti, resp.Y[i], want)
				}
			}
		})
	}
}

func TestRK4Accuracy(t *testing.T) {
	// s/(s^2+1) realizes the harmonic oscillator
	g, err := lti.New(lti.Poly{1, 0}, lti.Poly{1, 0, 1})
	if err != nil {
		t.Fatal(err)
	}
	ss, err := timeresp.Realize(g)
	if err != nil {
		t.Fatal(err)
	}

	integ := NewRK4()
	x := []float64{1, 0}
	dt := 0.01
	steps := 100
	for i := 0; i < steps; i++ {
		x = integ.Step(ss, x, 0, dt)
	}

	expectedX := math.Cos(float64(steps) * dt)
	expectedV := -math.Sin(float64(steps) * dt)
	if math.Abs(x[0]-expectedX) > 1e-4 {
		t.Errorf("position error too large: got %.6f, expected %.6f", x[0], expectedX)
	}
	if math.Abs(x[1]-expectedV) > 1e-4 {
		t.Errorf("velocity error too large: got %.6f, expected %.6f", x[1], expectedV)
	}
}

func TestRK45RejectsLargeStep(t *testing.T) {
	g, _ := lti.FromZPK(nil, []float64{-50}, 50)
	ss, _ := timeresp.Realize(g)
	integ := NewRK45(1e-9)
	_, dtNew, ok := integ.StepAdaptive(ss, []float64{0}, 1, 1.0)
	if ok {
		t.Error("expected a stiff full step to be rejected")
	}
	if dtNew >= 1.0 {
		t.Errorf("expected step to shrink, got %v", dtNew)
	}
}

func BenchmarkRK4Step(b *testing.B) {
	g, _ := lti.FromZPK(nil, []float64{-1, -2, -3}, 1)
	grid := timeresp.Linspace(0, 10, 1000)
	sim := NewRK4Simulator(1e-2)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = timeresp.Step(sim, g, grid)
	}
}

func TestSimulatorsShareAcrossGoroutines(t *testing.T) {
	grid := timeresp.Linspace(0, 3, 31)
	for name, sim := range map[string]timeresp.Simulator{
		"euler": NewEulerSimulator(1e-3),
		"rk4":   NewRK4Simulator(1e-2),
		"rk45":  NewRK45(1e-8),
	} {
		t.Run(name, func(t *testing.T) {
			const workers = 8
			results := make([]*timeresp.Series, workers)
			errs := make([]error, workers)

			var wg sync.WaitGroup
			for w := 0; w < workers; w++ {
				wg.Add(1)
				go func(idx int) {
					defer wg.Done()
					// each worker uses a different plant order
					poles := make([]float64, idx%3+1)
					for i := range poles {
						poles[i] = -float64(i + 1)
					}
					g, err := lti.FromZPK(nil, poles, 1)
					if err != nil {
						errs[idx] = err
						return
					}
					results[idx], errs[idx] = timeresp.Step(sim, g, grid)
				}(w)
			}
			wg.Wait()

			for w := 0; w < workers; w++ {
				if errs[w] != nil {
					t.Fatalf("worker %d: %v", w, errs[w])
				}
				if results[w].T[0] != 0 || results[w].Y[0] != 0 {
					t.Errorf("worker %d: response starts at (%v, %v)", w, results[w].T[0], results[w].Y[0])
				}
				if results[w].Y[len(results[w].Y)-1] != results[w%3].Y[len(results[w%3].Y)-1] {
					t.Errorf("worker %d disagrees with worker %d for the same plant", w, w%3)
				}
			}
		})
	}
}
