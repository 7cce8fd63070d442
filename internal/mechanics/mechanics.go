// Package mechanics assembles the state matrix of a lumped mass-spring-damper
// network M x'' + C x' + K x = 0.
package mechanics

import (
	"errors"
	"fmt"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// Ground as an element endpoint attaches it to a fixed wall.
const Ground = -1

var (
	ErrEmpty        = errors.New("mechanics: network has no masses")
	ErrEndpoint     = errors.New("mechanics: element endpoint out of range")
	ErrSingularMass = errors.New("mechanics: mass matrix is singular")
)

type Spring struct {
	From int     `json:"from" yaml:"from"`
	To   int     `json:"to" yaml:"to"`
	K    float64 `json:"k" yaml:"k"`
}

type Damper struct {
	From int     `json:"from" yaml:"from"`
	To   int     `json:"to" yaml:"to"`
	C    float64 `json:"c" yaml:"c"`
}

type Network struct {
	Masses  []float64 `json:"masses" yaml:"masses" minItems:"1"`
	Springs []Spring  `json:"springs,omitempty" yaml:"springs"`
	Dampers []Damper  `json:"dampers,omitempty" yaml:"dampers"`
}

// Model holds the assembled matrices. A is the 2n x 2n first-order form
// [[0, I], [-M^-1 K, -M^-1 C]] over the state (x, x').
type Model struct {
	M *mat.Dense
	C *mat.Dense
	K *mat.Dense
	A *mat.Dense
}

func (n Network) checkEndpoint(from, to int) error {
	size := len(n.Masses)
	if from < 0 || from >= size {
		return fmt.Errorf("%w: from=%d", ErrEndpoint, from)
	}
	if to != Ground && (to < 0 || to >= size || to == from) {
		return fmt.Errorf("%w: to=%d", ErrEndpoint, to)
	}
	return nil
}

// stamp adds a two-terminal element of value v between i and j.
func stamp(m *mat.Dense, i, j int, v float64) {
	m.Set(i, i, m.At(i, i)+v)
	if j == Ground {
		return
	}
	m.Set(j, j, m.At(j, j)+v)
	m.Set(i, j, m.At(i, j)-v)
	m.Set(j, i, m.At(j, i)-v)
}

func Build(n Network) (*Model, error) {
	size := len(n.Masses)
	if size == 0 {
		return nil, ErrEmpty
	}
	M := mat.NewDense(size, size, nil)
	K := mat.NewDense(size, size, nil)
	C := mat.NewDense(size, size, nil)
	for i, m := range n.Masses {
		if m == 0 {
			return nil, fmt.Errorf("%w: mass %d is zero", ErrSingularMass, i)
		}
		M.Set(i, i, m)
	}
	for _, s := range n.Springs {
		if err := n.checkEndpoint(s.From, s.To); err != nil {
			return nil, fmt.Errorf("spring: %w", err)
		}
		stamp(K, s.From, s.To, s.K)
	}
	for _, d := range n.Dampers {
		if err := n.checkEndpoint(d.From, d.To); err != nil {
			return nil, fmt.Errorf("damper: %w", err)
		}
		stamp(C, d.From, d.To, d.C)
	}

	var Minv mat.Dense
	if err := Minv.Inverse(M); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSingularMass, err)
	}

	A := mat.NewDense(2*size, 2*size, nil)
	for i := 0; i < size; i++ {
		A.Set(i, size+i, 1)
	}
	var mk, mc mat.Dense
	mk.Mul(&Minv, K)
	mc.Mul(&Minv, C)
	for i := 0; i < size; i++ {
		for j := 0; j < size; j++ {
			A.Set(size+i, j, -mk.At(i, j))
			A.Set(size+i, size+j, -mc.At(i, j))
		}
	}
	return &Model{M: M, C: C, K: K, A: A}, nil
}

// Modes returns the eigenvalues of A.
func (m *Model) Modes() ([]complex128, error) {
	var eig mat.Eigen
	if ok := eig.Factorize(m.A, mat.EigenNone); !ok {
		return nil, errors.New("mechanics: eigen decomposition failed")
	}
	return eig.Values(nil), nil
}

// BMatrix renders a matrix as a LaTeX bmatrix.
func BMatrix(a mat.Matrix) string {
	r, c := a.Dims()
	var b strings.Builder
	b.WriteString(`\begin{bmatrix}`)
	for i := 0; i < r; i++ {
		if i > 0 {
			b.WriteString(` \\ `)
		}
		for j := 0; j < c; j++ {
			if j > 0 {
				b.WriteString(" & ")
			}
			fmt.Fprintf(&b, "%g", a.At(i, j)+0)
		}
	}
	b.WriteString(`\end{bmatrix}`)
	return b.String()
}

func (m *Model) EquationLatex() string {
	return `M \ddot{x} + C \dot{x} + K x = 0 \\` +
		"M = " + BMatrix(m.M) + `\quad ` +
		"C = " + BMatrix(m.C) + `\quad ` +
		"K = " + BMatrix(m.K)
}

func (m *Model) ALatex() string {
	return BMatrix(m.A)
}

// Equation is the displayable result of building a network. A failed build
// carries the error text in Equation and leaves A empty.
type Equation struct {
	Equation string `json:"equation"`
	A        string `json:"a_latex"`
}

func Describe(n Network) Equation {
	m, err := Build(n)
	if err != nil {
		return Equation{Equation: "error building system: " + err.Error()}
	}
	return Equation{Equation: m.EquationLatex(), A: m.ALatex()}
}
