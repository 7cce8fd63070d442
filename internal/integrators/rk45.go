package integrators

import (
	"math"

	"github.com/san-kum/tfsim/internal/lti"
	"github.com/san-kum/tfsim/internal/timeresp"
)

// Dormand-Prince coefficients (RK45)
const (
	b21 = 1.0 / 5.0
	b31 = 3.0 / 40.0
	b32 = 9.0 / 40.0
	b41 = 44.0 / 45.0
	b42 = -56.0 / 15.0
	b43 = 32.0 / 9.0
	b51 = 19372.0 / 6561.0
	b52 = -25360.0 / 2187.0
	b53 = 64448.0 / 6561.0
	b54 = -212.0 / 729.0
	b61 = 9017.0 / 3168.0
	b62 = -355.0 / 33.0
	b63 = 46732.0 / 5247.0
	b64 = 49.0 / 176.0
	b65 = -5103.0 / 18656.0

	c1 = 35.0 / 384.0
	c3 = 500.0 / 1113.0
	c4 = 125.0 / 192.0
	c5 = -2187.0 / 6784.0
	c6 = 11.0 / 84.0

	dc1 = c1 - 5179.0/57600.0
	dc3 = c3 - 7571.0/16695.0
	dc4 = c4 - 393.0/640.0
	dc5 = c5 - -92097.0/339200.0
	dc6 = c6 - 187.0/2100.0
	dc7 = -1.0 / 40.0
)

const maxRejections = 10000

type RK45 struct {
	Tol float64

	safety   float64
	minScale float64
	maxScale float64
}

func NewRK45(tol float64) *RK45 {
	if tol <= 0 {
		tol = 1e-8
	}
	return &RK45{
		Tol:      tol,
		safety:   0.9,
		minScale: 0.2,
		maxScale: 10.0,
	}
}

// StepAdaptive attempts one step of length dt and returns the new state, the
// suggested next step and whether the error estimate was within tolerance.
func (r *RK45) StepAdaptive(ss *timeresp.StateSpace, x []float64, u, dt float64) ([]float64, float64, bool) {
	n := len(x)
	stage := func(coef func(i int) float64) []float64 {
		out := make([]float64, n)
		for i := 0; i < n; i++ {
			out[i] = x[i] + dt*coef(i)
		}
		return out
	}
	deriv := func(s []float64) []float64 {
		d := make([]float64, n)
		ss.Derivative(d, s, u)
		return d
	}

	k1 := deriv(x)
	k2 := deriv(stage(func(i int) float64 { return b21 * k1[i] }))
	k3 := deriv(stage(func(i int) float64 { return b31*k1[i] + b32*k2[i] }))
	k4 := deriv(stage(func(i int) float64 { return b41*k1[i] + b42*k2[i] + b43*k3[i] }))
	k5 := deriv(stage(func(i int) float64 { return b51*k1[i] + b52*k2[i] + b53*k3[i] + b54*k4[i] }))
	k6 := deriv(stage(func(i int) float64 { return b61*k1[i] + b62*k2[i] + b63*k3[i] + b64*k4[i] + b65*k5[i] }))
	xNew := stage(func(i int) float64 { return c1*k1[i] + c3*k3[i] + c4*k4[i] + c5*k5[i] + c6*k6[i] })
	k7 := deriv(xNew)

	errMax := 0.0
	for i := 0; i < n; i++ {
		errEst := dt * (dc1*k1[i] + dc3*k3[i] + dc4*k4[i] + dc5*k5[i] + dc6*k6[i] + dc7*k7[i])
		scale := math.Abs(x[i]) + math.Abs(dt*k1[i]) + 1e-10
		errMax = math.Max(errMax, math.Abs(errEst)/scale)
	}

	errRatio := errMax / r.Tol
	var dtNew float64
	switch {
	case errRatio > 1:
		dtNew = dt * math.Max(r.minScale, r.safety*math.Pow(errRatio, -0.25))
	case errRatio > 0:
		dtNew = dt * math.Min(r.maxScale, r.safety*math.Pow(errRatio, -0.2))
	default:
		dtNew = dt * r.maxScale
	}
	return xNew, dtNew, errRatio <= 1
}

// Simulate integrates each grid interval with adaptive steps, landing exactly
// on every sample time.
func (r *RK45) Simulate(sys lti.System, t, u []float64) ([]float64, error) {
	ss, err := timeresp.Realize(sys)
	if err != nil {
		return nil, err
	}

	y := make([]float64, len(t))
	x := make([]float64, ss.Order())
	h := 0.0
	for k := range t {
		y[k] = ss.Output(x, u[k])
		if k == len(t)-1 || len(x) == 0 {
			continue
		}
		interval := t[k+1] - t[k]
		if h <= 0 {
			h = interval
		}
		elapsed := 0.0
		rejections := 0
		for elapsed < interval {
			step := math.Min(h, interval-elapsed)
			xNew, hNew, ok := r.StepAdaptive(ss, x, u[k], step)
			h = hNew
			if !ok {
				rejections++
				if rejections > maxRejections || h < 1e-14*interval {
					return nil, &lti.Error{Op: "rk45", Wrapped: lti.ErrNumericalFailure, Detail: "step size underflow"}
				}
				continue
			}
			x = xNew
			elapsed += step
		}
	}
	return y, nil
}
