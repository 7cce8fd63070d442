package experiment

import (
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/tfsim/internal/config"
	"github.com/san-kum/tfsim/internal/control"
	"github.com/san-kum/tfsim/internal/discrete"
	"github.com/san-kum/tfsim/internal/freq"
	"github.com/san-kum/tfsim/internal/locus"
	"github.com/san-kum/tfsim/internal/lti"
	"github.com/san-kum/tfsim/internal/pz"
	"github.com/san-kum/tfsim/internal/timeresp"
)

func (e *Experiment) latex(r *Report) error {
	ls, cfg := e.loops, e.cfg
	r.Plant = ViewZPK("G", ls.Plant, cfg.Plant.Zeros, cfg.Plant.Poles, cfg.Plant.Gain, e.rf)
	r.Controller = ViewZPK("G_c", ls.Controller, cfg.Controller.Zeros, cfg.Controller.Poles, cfg.Controller.Gain, e.rf)
	r.Filter = ViewSystem("F", ls.Filter, e.rf)
	r.Open = ViewSystem("L", ls.Open, e.rf)
	r.Closed = ViewSystem("T", ls.Closed, e.rf)
	return nil
}

func (e *Experiment) responses(r *Report) error {
	ls, cfg := e.loops, e.cfg
	t := e.timeGrid()
	var errs []error

	step := func(name string, sys lti.System) *timeresp.Series {
		s, err := timeresp.Step(e.sim, sys, t)
		if err != nil {
			if errors.Is(err, lti.ErrNonCausal) {
				r.Warnings = append(r.Warnings, fmt.Sprintf("%s is improper; step response unavailable", name))
			}
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
		return s
	}
	perturbed := func(name string, sys lti.System) *timeresp.Series {
		s, err := timeresp.StepWithPerturbation(e.sim, sys, t, cfg.Perturbation.Time, cfg.Perturbation.Amplitude)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
		return s
	}

	r.Responses = Responses{
		Open:            step("plant", ls.Plant),
		Closed:          step("closed loop", ls.Closed),
		Error:           step("error", ls.Error),
		Disturbance:     step("disturbance", ls.Disturbance),
		PerturbedOpen:   perturbed("perturbed plant", ls.Plant),
		PerturbedClosed: perturbed("perturbed closed loop", ls.Closed),
	}
	if cfg.Filter.Enabled {
		r.Responses.Filtered = step("filtered", ls.Filtered)
	}
	return errors.Join(errs...)
}

func (e *Experiment) frequency(r *Report) error {
	omega := e.freqGrid()
	bode, err := freq.Bode(e.loops.Open, omega)
	if err != nil {
		return fmt.Errorf("bode: %w", err)
	}
	nyq, err := freq.Nyquist(e.loops.Open, omega)
	if err != nil {
		return fmt.Errorf("nyquist: %w", err)
	}
	r.Bode, r.Nyquist = bode, nyq
	return nil
}

func (e *Experiment) poleZero(r *Report) error {
	ls := e.loops
	var errs []error
	analyze := func(name string, sys lti.System) *PoleZeroView {
		set, err := pz.Analyze(sys, e.rf, e.cfg.Snap)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			return nil
		}
		return ViewPoleZero(set)
	}
	r.PoleZero = PoleZeroSets{
		Plant:       analyze("plant", ls.Plant),
		Closed:      analyze("closed loop", ls.Closed),
		Error:       analyze("error", ls.Error),
		Disturbance: analyze("disturbance", ls.Disturbance),
	}
	if e.cfg.Filter.Enabled {
		r.PoleZero.Filtered = analyze("filtered", ls.Filtered)
	}
	return errors.Join(errs...)
}

// settling estimates the open loop from the plant poles, falling back to the
// plant step, and the closed loop from its step response.
func (e *Experiment) settling(r *Report) error {
	t := e.timeGrid()
	open, closed := r.Responses.Open, r.Responses.Closed
	var err error
	if open == nil {
		if open, err = timeresp.Step(e.sim, e.loops.Plant, t); err != nil {
			return fmt.Errorf("plant step: %w", err)
		}
	}
	if closed == nil {
		if closed, err = timeresp.Step(e.sim, e.loops.Closed, t); err != nil {
			return fmt.Errorf("closed-loop step: %w", err)
		}
	}
	poles, err := e.loops.Plant.Poles(e.rf)
	if err != nil {
		return fmt.Errorf("plant poles: %w", err)
	}

	s := &Settling{
		Open: pz.EstimateSettling(poles, open.T, open.Y),
		Closed: pz.Estimate{
			Value:  pz.SettlingTimeFromSignal(closed.T, closed.Y, pz.DefaultPct),
			Method: pz.Signal,
		},
	}
	s.Desired = s.Open.Value * e.cfg.Allocation.TsMultiplier
	r.Settling = s
	return nil
}

func (e *Experiment) allocation(r *Report) error {
	char := lti.Characteristic(e.loops.Plant, e.loops.Controller)
	a := &Allocation{
		Characteristic:      char,
		CharacteristicLatex: lti.RenderPolynomial(char, "s"),
	}
	r.Allocation = a
	if r.Settling == nil {
		return errors.New("desired polynomial needs a settling estimate")
	}

	cfg := e.cfg.Allocation
	d, err := pz.DesiredPolynomial(r.Settling.Desired, cfg.Order, cfg.Kind)
	if err != nil {
		return err
	}
	a.Desired = d.Poly
	a.DesiredPoles = d.Poles
	a.DesiredLatex = lti.RenderPolynomial(d.Poly, "s")
	if cfg.Order == 2 && cfg.Kind == pz.SecondDistinct {
		a.Value = fmt.Sprintf(`p_{slow} = %.3g,\ p_{fast} = %.3g`, -d.Poles[0], -d.Poles[1])
	} else {
		a.Value = fmt.Sprintf(`P_d = %.4g`, -d.Poles[0])
	}
	return nil
}

func (e *Experiment) discrete(r *Report) error {
	if e.cfg.Discrete.Ts <= 0 {
		return nil
	}
	d, err := CompareDiscrete(e.loops.Plant, e.cfg.Discrete, e.sim, e.rf)
	if err != nil {
		return err
	}
	r.Discrete = d
	return nil
}

// CompareDiscrete compares sys with its Tustin equivalent: a dense
// continuous step over Periods*Ts against one sample per period.
func CompareDiscrete(sys lti.System, cfg config.DiscreteConfig, sim timeresp.Simulator, rf lti.RootFinder) (*Discrete, error) {
	d, err := discrete.Tustin(sys, cfg.Ts)
	if err != nil {
		return nil, err
	}
	horizon := float64(cfg.Periods) * cfg.Ts
	cont, err := timeresp.Step(sim, sys, timeresp.Linspace(0, horizon, cfg.Points))
	if err != nil {
		return nil, fmt.Errorf("continuous step: %w", err)
	}
	samp, err := timeresp.Step(sim, d, timeresp.Arange(0, horizon, cfg.Ts))
	if err != nil {
		return nil, fmt.Errorf("discrete step: %w", err)
	}

	interp := timeresp.Resample(samp, cont.T)
	var maxErr float64
	for i := range cont.Y {
		maxErr = math.Max(maxErr, math.Abs(cont.Y[i]-interp.Y[i]))
	}
	return &Discrete{
		Ts:         cfg.Ts,
		System:     ViewSystem("G", d, rf),
		Continuous: cont,
		Sampled:    samp,
		MaxError:   maxErr,
	}, nil
}

func (e *Experiment) locus(r *Report) error {
	cfg := e.cfg.Locus
	if !cfg.Enabled {
		return nil
	}
	l, err := locus.Trace(e.loops.Open, locus.GainGrid(cfg.MaxGain, cfg.Points, cfg.Log), e.rf)
	if err != nil {
		return err
	}
	r.Locus = ViewLocus(l)
	return nil
}

func (e *Experiment) pid(r *Report) error {
	cfg := e.cfg.PID
	if !cfg.Enabled {
		return nil
	}
	gc, err := cfg.Params.TransferFunction()
	if err != nil {
		return err
	}
	resp, err := control.Simulate(e.loops.Plant, cfg.Params, e.sim, timeresp.Linspace(0, cfg.Stop, cfg.Points))
	if err != nil {
		return err
	}
	r.PID = &PID{
		Latex:  cfg.Params.Latex(),
		System: ViewSystem("G_c", gc, e.rf),
		Output: resp.Output,
		Effort: resp.Effort,
	}
	return nil
}
