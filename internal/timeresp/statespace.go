package timeresp

import (
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/tfsim/internal/lti"
)

// StateSpace is the controllable canonical realization of a proper system.
// A is nil for a static gain.
type StateSpace struct {
	A *mat.Dense
	B *mat.VecDense
	C *mat.VecDense
	D float64
}

// Realize converts a proper transfer function to controllable canonical form:
//
//	x' = A x + B u
//	y  = C x + D u
func Realize(sys lti.System) (*StateSpace, error) {
	if !sys.IsProper() {
		return nil, &lti.Error{Op: "realize", Wrapped: lti.ErrNonCausal}
	}
	den := sys.Den()
	lead := den[0]
	n := len(den) - 1

	a := make([]float64, n+1)
	for i, c := range den {
		a[i] = c / lead
	}
	num := sys.Num()
	b := make([]float64, n+1)
	off := n + 1 - len(num)
	for i, c := range num {
		b[off+i] = c / lead
	}

	ss := &StateSpace{D: b[0]}
	if n == 0 {
		return ss, nil
	}

	ss.A = mat.NewDense(n, n, nil)
	for i := 0; i < n-1; i++ {
		ss.A.Set(i, i+1, 1)
	}
	for j := 0; j < n; j++ {
		ss.A.Set(n-1, j, -a[n-j])
	}
	ss.B = mat.NewVecDense(n, nil)
	ss.B.SetVec(n-1, 1)
	ss.C = mat.NewVecDense(n, nil)
	for j := 0; j < n; j++ {
		i := n - j
		ss.C.SetVec(j, b[i]-b[0]*a[i])
	}
	return ss, nil
}

// Order is the state dimension.
func (ss *StateSpace) Order() int {
	if ss.A == nil {
		return 0
	}
	r, _ := ss.A.Dims()
	return r
}

// Derivative writes A x + B u into dst.
func (ss *StateSpace) Derivative(dst, x []float64, u float64) {
	n := ss.Order()
	for i := 0; i < n; i++ {
		acc := ss.B.AtVec(i) * u
		for j := 0; j < n; j++ {
			acc += ss.A.At(i, j) * x[j]
		}
		dst[i] = acc
	}
}

// Output is C x + D u.
func (ss *StateSpace) Output(x []float64, u float64) float64 {
	y := ss.D * u
	for i := 0; i < ss.Order(); i++ {
		y += ss.C.AtVec(i) * x[i]
	}
	return y
}

// Discretize returns the zero-order-hold transition matrix and input vector
// for step dt, read from expm([[A, B], [0, 0]] dt).
func (ss *StateSpace) Discretize(dt float64) (*mat.Dense, []float64) {
	n := ss.Order()
	aug := mat.NewDense(n+1, n+1, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			aug.Set(i, j, ss.A.At(i, j)*dt)
		}
		aug.Set(i, n, ss.B.AtVec(i)*dt)
	}
	var e mat.Dense
	e.Exp(aug)

	phi := mat.DenseCopyOf(e.Slice(0, n, 0, n))
	gamma := make([]float64, n)
	for i := range gamma {
		gamma[i] = e.At(i, n)
	}
	return phi, gamma
}

// DiscretizeFOH returns the first-order-hold transition matrix and the two
// input vectors for step dt, read from
// expm([[A, B, 0], [0, 0, I/dt], [0, 0, 0]] dt). Over one step
// x[k+1] = phi x[k] + g0 u[k] + g1 (u[k+1] - u[k]).
func (ss *StateSpace) DiscretizeFOH(dt float64) (phi *mat.Dense, g0, g1 []float64) {
	n := ss.Order()
	aug := mat.NewDense(n+2, n+2, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			aug.Set(i, j, ss.A.At(i, j)*dt)
		}
		aug.Set(i, n, ss.B.AtVec(i)*dt)
	}
	aug.Set(n, n+1, 1)
	var e mat.Dense
	e.Exp(aug)

	phi = mat.DenseCopyOf(e.Slice(0, n, 0, n))
	g0 = make([]float64, n)
	g1 = make([]float64, n)
	for i := 0; i < n; i++ {
		g0[i] = e.At(i, n)
		g1[i] = e.At(i, n+1)
	}
	return phi, g0, g1
}
