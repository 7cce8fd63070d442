// Package experiment turns an analysis configuration into a report.
//
// Each report section is computed independently. A failing section records
// its error under Report.Errors and the remaining sections still run; only a
// malformed plant, controller or filter aborts the whole run.
package experiment

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/san-kum/tfsim/internal/config"
	"github.com/san-kum/tfsim/internal/freq"
	"github.com/san-kum/tfsim/internal/lti"
	"github.com/san-kum/tfsim/internal/pz"
	"github.com/san-kum/tfsim/internal/timeresp"
)

// Section names used as keys of Report.Errors.
const (
	SectionLatex      = "latex"
	SectionResponses  = "responses"
	SectionFrequency  = "frequency"
	SectionPoleZero   = "pole_zero"
	SectionSettling   = "settling"
	SectionAllocation = "allocation"
	SectionDiscrete   = "discrete"
	SectionLocus      = "locus"
	SectionPID        = "pid"
)

type Responses struct {
	Open            *timeresp.Series `json:"open,omitempty"`
	Closed          *timeresp.Series `json:"closed,omitempty"`
	Error           *timeresp.Series `json:"error,omitempty"`
	Disturbance     *timeresp.Series `json:"disturbance,omitempty"`
	Filtered        *timeresp.Series `json:"filtered,omitempty"`
	PerturbedOpen   *timeresp.Series `json:"perturbed_open,omitempty"`
	PerturbedClosed *timeresp.Series `json:"perturbed_closed,omitempty"`
}

type Settling struct {
	Open    pz.Estimate `json:"open"`
	Closed  pz.Estimate `json:"closed"`
	Desired float64     `json:"desired"`
}

type Allocation struct {
	Characteristic      []float64 `json:"characteristic"`
	CharacteristicLatex string    `json:"characteristic_latex"`
	Desired             []float64 `json:"desired,omitempty"`
	DesiredLatex        string    `json:"desired_latex,omitempty"`
	DesiredPoles        []float64 `json:"desired_poles,omitempty"`
	Value               string    `json:"value,omitempty"`
}

type Discrete struct {
	Ts         float64          `json:"ts"`
	System     SystemView       `json:"system"`
	Continuous *timeresp.Series `json:"continuous"`
	Sampled    *timeresp.Series `json:"sampled"`
	MaxError   float64          `json:"max_error"`
}

type PID struct {
	Latex  string           `json:"latex"`
	System SystemView       `json:"system"`
	Output *timeresp.Series `json:"output"`
	Effort *timeresp.Series `json:"effort"`
}

type PoleZeroSets struct {
	Plant       *PoleZeroView `json:"plant,omitempty"`
	Closed      *PoleZeroView `json:"closed,omitempty"`
	Error       *PoleZeroView `json:"error,omitempty"`
	Disturbance *PoleZeroView `json:"disturbance,omitempty"`
	Filtered    *PoleZeroView `json:"filtered,omitempty"`
}

type Report struct {
	Name       string            `json:"name,omitempty"`
	Plant      SystemView        `json:"plant"`
	Controller SystemView        `json:"controller"`
	Filter     SystemView        `json:"filter"`
	Open       SystemView        `json:"open"`
	Closed     SystemView        `json:"closed"`
	Responses  Responses         `json:"responses"`
	Bode       *freq.BodeData    `json:"bode,omitempty"`
	Nyquist    *freq.NyquistData `json:"nyquist,omitempty"`
	PoleZero   PoleZeroSets      `json:"pole_zero"`
	Settling   *Settling         `json:"settling,omitempty"`
	Allocation *Allocation       `json:"allocation,omitempty"`
	Discrete   *Discrete         `json:"discrete,omitempty"`
	Locus      *LocusView        `json:"locus,omitempty"`
	PID        *PID              `json:"pid,omitempty"`
	Errors     map[string]string `json:"errors,omitempty"`
	Warnings   []string          `json:"warnings,omitempty"`
}

func (r *Report) fail(section string, err error) {
	if r.Errors == nil {
		r.Errors = make(map[string]string)
	}
	if prev, ok := r.Errors[section]; ok {
		r.Errors[section] = prev + "; " + err.Error()
	} else {
		r.Errors[section] = err.Error()
	}
	log.Debug().Str("section", section).Err(err).Msg("report section failed")
}

type Experiment struct {
	cfg   *config.Config
	sim   timeresp.Simulator
	rf    lti.RootFinder
	loops *LoopSet
}

func New(cfg *config.Config) *Experiment {
	return &Experiment{cfg: cfg}
}

// Setup validates the configuration and builds the loop systems.
func (e *Experiment) Setup(sim timeresp.Simulator, rf lti.RootFinder) error {
	if err := e.cfg.Validate(); err != nil {
		return err
	}
	loops, err := LoopsFromConfig(e.cfg)
	if err != nil {
		return err
	}
	e.sim = sim
	e.rf = rf
	e.loops = loops
	return nil
}

func (e *Experiment) Loops() *LoopSet {
	return e.loops
}

func (e *Experiment) Run(ctx context.Context) (*Report, error) {
	if e.loops == nil {
		return nil, fmt.Errorf("experiment not setup")
	}
	cfg := e.cfg
	r := &Report{Name: cfg.Name}

	steps := []struct {
		name string
		fn   func(*Report) error
	}{
		{SectionLatex, e.latex},
		{SectionResponses, e.responses},
		{SectionFrequency, e.frequency},
		{SectionPoleZero, e.poleZero},
		{SectionSettling, e.settling},
		{SectionAllocation, e.allocation},
		{SectionDiscrete, e.discrete},
		{SectionLocus, e.locus},
		{SectionPID, e.pid},
	}
	for _, s := range steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := s.fn(r); err != nil {
			r.fail(s.name, err)
		}
	}
	log.Debug().Str("name", cfg.Name).Int("errors", len(r.Errors)).Msg("report complete")
	return r, nil
}

// Analyze is New, Setup and Run with simulator and root finder resolved by
// name from the registry.
func Analyze(ctx context.Context, cfg *config.Config) (*Report, error) {
	reg := NewRegistry()
	sim, err := reg.GetSimulator(cfg.Simulator)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", config.ErrInvalid, err)
	}
	rf, _ := reg.GetRootFinder("companion")
	exp := New(cfg)
	if err := exp.Setup(sim, rf); err != nil {
		return nil, err
	}
	return exp.Run(ctx)
}

func (e *Experiment) timeGrid() []float64 {
	return timeresp.Linspace(e.cfg.Time.Start, e.cfg.Time.Stop, e.cfg.Time.Points)
}

func (e *Experiment) freqGrid() []float64 {
	return freq.LogSpace(e.cfg.Frequency.Min, e.cfg.Frequency.Max, e.cfg.Frequency.Points)
}
