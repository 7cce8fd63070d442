package timeresp

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/tfsim/internal/lti"
)

// ZOH simulates a continuous system exactly under a zero-order hold on the
// input, using the matrix exponential of the canonical realization. The
// transition matrices are rebuilt only when the step size changes.
type ZOH struct{}

func NewZOH() *ZOH {
	return &ZOH{}
}

func (z *ZOH) Simulate(sys lti.System, t, u []float64) ([]float64, error) {
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
		gamma  *mat.VecDense
		lastDt = math.NaN()
	)
	for k := range t {
		y[k] = ss.Output(x.RawVector().Data, u[k])
		if k == len(t)-1 {
			break
		}
		dt := t[k+1] - t[k]
		if math.IsNaN(lastDt) || math.Abs(dt-lastDt) > 1e-12*dt {
			var g []float64
			phi, g = ss.Discretize(dt)
			gamma = mat.NewVecDense(n, g)
			lastDt = dt
		}
		next.MulVec(phi, x)
		next.AddScaledVec(next, u[k], gamma)
		x, next = next, x
	}
	return y, nil
}
