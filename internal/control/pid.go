package control

import (
	"errors"
	"fmt"
	"strings"

	"github.com/san-kum/tfsim/internal/lti"
	"github.com/san-kum/tfsim/internal/timeresp"
)

type Kind string

const (
	P   Kind = "P"
	I   Kind = "I"
	PI  Kind = "PI"
	PD  Kind = "PD"
	PID Kind = "PID"
)

var (
	ErrUnknownKind = errors.New("control: unknown controller type")
	ErrIntegral    = errors.New("control: integral time must be non-zero")
	ErrFilter      = errors.New("control: derivative filter N must be positive")
)

var kinds = []Kind{P, I, PI, PD, PID}

func Kinds() []Kind {
	return append([]Kind(nil), kinds...)
}

func ParseKind(s string) (Kind, error) {
	for _, k := range kinds {
		if strings.EqualFold(s, string(k)) {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

type Params struct {
	Kind Kind    `yaml:"type" json:"type,omitempty"`
	K    float64 `yaml:"k" json:"k,omitempty"`
	Ti   float64 `yaml:"ti" json:"ti,omitempty"`
	Td   float64 `yaml:"td" json:"td,omitempty"`
	N    float64 `yaml:"n" json:"n,omitempty"`
}

func DefaultParams() Params {
	return Params{Kind: PID, K: 1, Ti: 1, Td: 1, N: 10}
}

func (p Params) usesIntegral() bool {
	return p.Kind == I || p.Kind == PI || p.Kind == PID
}

func (p Params) usesDerivative() bool {
	return p.Kind == PD || p.Kind == PID
}

func (p Params) Validate() error {
	if _, err := ParseKind(string(p.Kind)); err != nil {
		return err
	}
	if p.usesIntegral() && p.Ti == 0 {
		return ErrIntegral
	}
	if p.usesDerivative() && p.N <= 0 {
		return ErrFilter
	}
	return nil
}

// TransferFunction returns Gc(s) for the configured controller type.
func (p Params) TransferFunction() (lti.System, error) {
	if err := p.Validate(); err != nil {
		return lti.System{}, err
	}
	K, Ti, Td, N := p.K, p.Ti, p.Td, p.N
	switch p.Kind {
	case P:
		return lti.New(lti.Poly{K}, lti.Poly{1})
	case I:
		return lti.New(lti.Poly{K}, lti.Poly{Ti, 0})
	case PI:
		return lti.New(lti.Poly{K * Ti, K}, lti.Poly{Ti, 0})
	case PD:
		return lti.New(lti.Poly{K * Td * N, K}, lti.Poly{1, N})
	default:
		return lti.New(lti.Poly{K * Td * N, K * N, K}, lti.Poly{Ti, Ti * N, 0})
	}
}

// Latex renders the controller in its parametric form.
func (p Params) Latex() string {
	switch p.Kind {
	case P:
		return fmt.Sprintf(`G_c(s) = %.2f`, p.K)
	case I:
		return fmt.Sprintf(`G_c(s) = \frac{%.2f}{%.2f\,s}`, p.K, p.Ti)
	case PI:
		return fmt.Sprintf(`G_c(s) = %.2f \left(1 + \frac{1}{%.2f\,s}\right)`, p.K, p.Ti)
	case PD:
		return fmt.Sprintf(`G_c(s) = %.2f \left(1 + %.2f\,s \frac{%.2f}{s+%.2f}\right)`, p.K, p.Td, p.N, p.N)
	default:
		return fmt.Sprintf(`G_c(s) = %.2f \left(1 + \frac{1}{%.2f\,s} + \frac{%.2f\,s\,%.2f}{s+%.2f}\right)`,
			p.K, p.Ti, p.Td, p.N, p.N)
	}
}

// Get returns tunable parameters for live adjustment.
func (p Params) Get() map[string]float64 {
	return map[string]float64{"K": p.K, "Ti": p.Ti, "Td": p.Td, "N": p.N}
}

func ParamNames() []string {
	return []string{"K", "Ti", "Td", "N"}
}

// Set adjusts one parameter by name. Unknown names are ignored.
func (p *Params) Set(name string, value float64) {
	switch name {
	case "K":
		p.K = value
	case "Ti":
		p.Ti = value
	case "Td":
		p.Td = value
	case "N":
		p.N = value
	}
}

type Response struct {
	Output *timeresp.Series
	Effort *timeresp.Series
}

// Simulate closes the loop around Gc·G with unity feedback, steps it, and
// recovers the controller effort by driving Gc with the error 1 - y. The
// error is a sampled continuous signal, so the effort pass interpolates it
// linearly with a first-order hold whatever sim is.
func Simulate(plant lti.System, p Params, sim timeresp.Simulator, t []float64) (*Response, error) {
	gc, err := p.TransferFunction()
	if err != nil {
		return nil, err
	}
	closed, err := lti.Feedback(lti.Series(gc, plant), lti.Unity(), lti.Negative)
	if err != nil {
		return nil, fmt.Errorf("control: closed loop: %w", err)
	}
	y, err := timeresp.Step(sim, closed, t)
	if err != nil {
		return nil, fmt.Errorf("control: step: %w", err)
	}
	e := make([]float64, len(y.Y))
	for i, v := range y.Y {
		e[i] = 1 - v
	}
	u, err := timeresp.Forced(timeresp.NewFOH(), gc, t, e)
	if err != nil {
		return nil, fmt.Errorf("control: effort: %w", err)
	}
	return &Response{Output: y, Effort: u}, nil
}
