package experiment

import (
	"fmt"

	"github.com/san-kum/tfsim/internal/freq"
	"github.com/san-kum/tfsim/internal/lti"
	"github.com/san-kum/tfsim/internal/pz"
	"github.com/san-kum/tfsim/internal/timeresp"
)

// Signal view defaults for an arbitrary num/den transfer function.
const (
	SignalStop   = 20.0
	SignalPoints = 500
)

// SignalView describes a transfer function given by raw coefficients.
type SignalView struct {
	System SystemView        `json:"system"`
	Zeros  []RootView        `json:"zeros"`
	Poles  []RootView        `json:"poles"`
	Step   *timeresp.Series  `json:"step,omitempty"`
	Bode   *freq.BodeData    `json:"bode,omitempty"`
	Errors map[string]string `json:"errors,omitempty"`
}

// Signals analyzes num/den without display snapping. A nil omega skips the
// Bode section.
func Signals(num, den []float64, sim timeresp.Simulator, rf lti.RootFinder, omega []float64) (*SignalView, error) {
	sys, err := lti.New(num, den)
	if err != nil {
		return nil, err
	}
	v := &SignalView{System: ViewSystem("G", sys, rf)}
	fail := func(section string, err error) {
		if v.Errors == nil {
			v.Errors = make(map[string]string)
		}
		v.Errors[section] = err.Error()
	}

	zeros, err := sys.Zeros(rf)
	if err != nil {
		fail("zeros", err)
	}
	poles, err := sys.Poles(rf)
	if err != nil {
		fail("poles", err)
	}
	lti.SortRoots(zeros)
	lti.SortRoots(poles)
	v.Zeros = ViewRoots(pz.Tag(zeros, pz.Zero))
	v.Poles = ViewRoots(pz.Tag(poles, pz.Pole))

	if v.Step, err = timeresp.Step(sim, sys, timeresp.Linspace(0, SignalStop, SignalPoints)); err != nil {
		fail("step", err)
	}
	if omega != nil {
		if v.Bode, err = freq.Bode(sys, omega); err != nil {
			fail("bode", fmt.Errorf("bode: %w", err))
		}
	}
	return v, nil
}
