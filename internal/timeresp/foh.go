package timeresp

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/tfsim/internal/lti"
)

// FOH simulates a continuous system exactly for an input that is linear
// between samples. It matches ZOH on constant input and is the right choice
// when u is itself a sampled continuous signal, such as a tracking error.
type FOH struct{}

func NewFOH() *FOH {
	return &FOH{}
}

func (f *FOH) Simulate(sys lti.System, t, u []float64) ([]float64, error) {
	if err := checkGrid(t, u); err != nil {
		return nil, err
	}
	ss, err := Realize(sys)
	if err != nil {
		return nil, err
	}

	y := make([]float64, len(t))
	n := ss.Order()
	if n == 0 {
		for k := range t {
			y[k] = ss.D * u[k]
		}
		return y, nil
	}

	x := mat.NewVecDense(n, nil)
	next := mat.NewVecDense(n, nil)
	var (
		phi    *mat.Dense
		g0, g1 *mat.VecDense
		lastDt = math.NaN()
	)
	for k := range t {
		y[k] = ss.Output(x.RawVector().Data, u[k])
		if k == len(t)-1 {
			break
		}
		dt := t[k+1] - t[k]
		if math.IsNaN(lastDt) || math.Abs(dt-lastDt) > 1e-12*dt {
			p, a, b := ss.DiscretizeFOH(dt)
			phi, g0, g1 = p, mat.NewVecDense(n, a), mat.NewVecDense(n, b)
			lastDt = dt
		}
		next.MulVec(phi, x)
		next.AddScaledVec(next, u[k], g0)
		next.AddScaledVec(next, u[k+1]-u[k], g1)
		x, next = next, x
	}
	return y, nil
}
