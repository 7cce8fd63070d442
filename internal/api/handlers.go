package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/rs/zerolog/log"

	"github.com/san-kum/tfsim/internal/config"
	"github.com/san-kum/tfsim/internal/experiment"
	"github.com/san-kum/tfsim/internal/freq"
	"github.com/san-kum/tfsim/internal/locus"
	"github.com/san-kum/tfsim/internal/lti"
	"github.com/san-kum/tfsim/internal/mechanics"
	"github.com/san-kum/tfsim/internal/pfe"
	"github.com/san-kum/tfsim/internal/pz"
	"github.com/san-kum/tfsim/internal/timeresp"
)

const Version = "1.0.0"

// Handler serves the analysis operations. Grids larger than maxPoints
// samples are rejected; zero disables the limit.
type Handler struct {
	maxPoints int
	registry  *experiment.Registry
	rf        lti.RootFinder
}

func NewHandler(maxPoints int) *Handler {
	return &Handler{
		maxPoints: maxPoints,
		registry:  experiment.NewRegistry(),
		rf:        lti.Companion{},
	}
}

// problem maps engine errors onto HTTP errors. Malformed input is a 400;
// well-formed systems the engine cannot evaluate are a 422.
func problem(msg string, err error) error {
	switch {
	case errors.Is(err, lti.ErrInvalidSystem),
		errors.Is(err, lti.ErrNonCausal),
		errors.Is(err, lti.ErrInvalidSampleTime),
		errors.Is(err, config.ErrInvalid),
		errors.Is(err, locus.ErrGainGrid),
		errors.Is(err, mechanics.ErrEmpty),
		errors.Is(err, mechanics.ErrEndpoint):
		return huma.Error400BadRequest(fmt.Sprintf("%s: %v", msg, err), err)
	case errors.Is(err, lti.ErrSingularEvaluation),
		errors.Is(err, lti.ErrNumericalFailure),
		errors.Is(err, mechanics.ErrSingularMass):
		return huma.Error422UnprocessableEntity(fmt.Sprintf("%s: %v", msg, err), err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return huma.Error503ServiceUnavailable("request cancelled", err)
	}
	log.Error().Err(err).Str("operation", msg).Msg("analysis failed")
	return huma.Error500InternalServerError(msg, err)
}

func (h *Handler) checkPoints(counts map[string]int) error {
	if h.maxPoints <= 0 {
		return nil
	}
	for name, n := range counts {
		if n > h.maxPoints {
			return huma.Error400BadRequest(fmt.Sprintf("%s grid of %d points exceeds limit %d", name, n, h.maxPoints))
		}
	}
	return nil
}

// selectLoop builds the loop set of b and returns the requested system.
func (h *Handler) selectLoop(b LoopBody) (lti.System, error) {
	cfg := &config.Config{Plant: b.Plant, Controller: b.Controller, Filter: b.Filter}
	cfg.ApplyDefaults()
	ls, err := experiment.LoopsFromConfig(cfg)
	if err != nil {
		return lti.System{}, problem("building loop", err)
	}
	if b.Loop == experiment.FilteredLoop && !cfg.Filter.Enabled {
		return lti.System{}, huma.Error400BadRequest("filtered loop requested without an enabled filter")
	}
	sys, err := ls.Select(b.Loop)
	if err != nil {
		return lti.System{}, problem("selecting loop", err)
	}
	return sys, nil
}

func (h *Handler) Health(ctx context.Context, input *struct{}) (*HealthResponse, error) {
	resp := &HealthResponse{}
	resp.Body.Status = "healthy"
	resp.Body.Version = Version
	resp.Body.Time = time.Now()
	resp.Body.Simulators = h.registry.ListSimulators()
	return resp, nil
}

func (h *Handler) Analyze(ctx context.Context, req *AnalyzeRequest) (*AnalyzeResponse, error) {
	cfg := req.Body
	cfg.ApplyDefaults()
	if err := cfg.CheckLimits(h.maxPoints); err != nil {
		return nil, problem("limits", err)
	}
	log.Info().Str("name", cfg.Name).Str("simulator", cfg.Simulator).Msg("analysis requested")

	report, err := experiment.Analyze(ctx, &cfg)
	if err != nil {
		return nil, problem("analyze", err)
	}
	return &AnalyzeResponse{Body: report}, nil
}

func (h *Handler) Bode(ctx context.Context, req *BodeRequest) (*BodeResponse, error) {
	sys, omega, err := h.frequencyInput(req)
	if err != nil {
		return nil, err
	}
	data, err := freq.Bode(sys, omega)
	if err != nil {
		return nil, problem("bode", err)
	}
	resp := &BodeResponse{}
	resp.Body.System = experiment.ViewSystem("H", sys, h.rf)
	resp.Body.Bode = data
	return resp, nil
}

func (h *Handler) Nyquist(ctx context.Context, req *NyquistRequest) (*NyquistResponse, error) {
	sys, omega, err := h.frequencyInput(req)
	if err != nil {
		return nil, err
	}
	data, err := freq.Nyquist(sys, omega)
	if err != nil {
		return nil, problem("nyquist", err)
	}
	resp := &NyquistResponse{}
	resp.Body.System = experiment.ViewSystem("H", sys, h.rf)
	resp.Body.Nyquist = data
	return resp, nil
}

func (h *Handler) frequencyInput(req *BodeRequest) (lti.System, []float64, error) {
	f := req.Body.Frequency
	if f.Points < 2 || !(f.Max > f.Min) {
		return lti.System{}, nil, huma.Error400BadRequest(fmt.Sprintf("frequency decades [%g, %g] with %d points", f.Min, f.Max, f.Points))
	}
	if err := h.checkPoints(map[string]int{"frequency": f.Points}); err != nil {
		return lti.System{}, nil, err
	}
	sys, err := h.selectLoop(req.Body.LoopBody)
	if err != nil {
		return lti.System{}, nil, err
	}
	return sys, freq.LogSpace(f.Min, f.Max, f.Points), nil
}

func (h *Handler) Step(ctx context.Context, req *StepRequest) (*StepResponse, error) {
	b := req.Body
	if b.Time.Points < 2 || !(b.Time.Stop > b.Time.Start) {
		return nil, huma.Error400BadRequest(fmt.Sprintf("time range [%g, %g] with %d points", b.Time.Start, b.Time.Stop, b.Time.Points))
	}
	if err := h.checkPoints(map[string]int{"time": b.Time.Points}); err != nil {
		return nil, err
	}
	sim, err := h.registry.GetSimulator(b.Simulator)
	if err != nil {
		return nil, huma.Error400BadRequest(err.Error())
	}
	sys, err := h.selectLoop(b.LoopBody)
	if err != nil {
		return nil, err
	}

	t := timeresp.Linspace(b.Time.Start, b.Time.Stop, b.Time.Points)
	step, err := timeresp.Step(sim, sys, t)
	if err != nil {
		return nil, problem("step", err)
	}
	resp := &StepResponse{}
	resp.Body.System = experiment.ViewSystem("H", sys, h.rf)
	resp.Body.Step = step
	if poles, err := sys.Poles(h.rf); err == nil {
		resp.Body.Settling = pz.EstimateSettling(poles, step.T, step.Y)
	} else {
		resp.Body.Settling = pz.Estimate{Value: pz.SettlingTimeFromSignal(step.T, step.Y, pz.DefaultPct), Method: pz.Signal}
	}
	if b.Perturb {
		p := b.Perturbation
		if resp.Body.Perturbed, err = timeresp.StepWithPerturbation(sim, sys, t, p.Time, p.Amplitude); err != nil {
			return nil, problem("perturbed step", err)
		}
	}
	return resp, nil
}

func (h *Handler) Discretize(ctx context.Context, req *DiscretizeRequest) (*DiscretizeResponse, error) {
	b := req.Body
	if err := h.checkPoints(map[string]int{"discrete": b.Points, "periods": b.Periods}); err != nil {
		return nil, err
	}
	cfg := &config.Config{Plant: b.System}
	cfg.ApplyDefaults()
	sys, err := cfg.Plant.System()
	if err != nil {
		return nil, problem("system", err)
	}
	d, err := experiment.CompareDiscrete(sys, config.DiscreteConfig{Ts: b.Ts, Periods: b.Periods, Points: b.Points}, timeresp.NewZOH(), h.rf)
	if err != nil {
		return nil, problem("discretize", err)
	}
	resp := &DiscretizeResponse{}
	resp.Body.Continuous = experiment.ViewSystem("G", sys, h.rf)
	resp.Body.Discrete = d
	return resp, nil
}

func (h *Handler) PartialFractions(ctx context.Context, req *PartialFractionsRequest) (*PartialFractionsResponse, error) {
	sys, err := lti.New(req.Body.Num, req.Body.Den)
	if err != nil {
		return nil, problem("system", err)
	}
	exp, err := pfe.Expand(sys.Num(), sys.Den(), h.rf)
	if err != nil {
		return nil, problem("partial fractions", err)
	}
	resp := &PartialFractionsResponse{}
	resp.Body.System = experiment.ViewSystem("G", sys, h.rf)
	resp.Body.Partial = experiment.ViewPartial(exp, sys.Var())
	return resp, nil
}

func (h *Handler) PoleZero(ctx context.Context, req *PoleZeroRequest) (*PoleZeroResponse, error) {
	sys, err := h.selectLoop(req.Body.LoopBody)
	if err != nil {
		return nil, err
	}
	snap := req.Body.Snap
	if snap == (pz.SnapConfig{}) {
		snap = pz.DefaultSnapConfig()
	}
	set, err := pz.Analyze(sys, h.rf, snap)
	if err != nil {
		return nil, problem("pole-zero", err)
	}
	resp := &PoleZeroResponse{}
	resp.Body.System = experiment.ViewSystem("H", sys, h.rf)
	resp.Body.PoleZero = experiment.ViewPoleZero(set)
	return resp, nil
}

// RootLocus traces the roots of 1 + k H(s) where H is the selected loop,
// normally the open loop.
func (h *Handler) RootLocus(ctx context.Context, req *RootLocusRequest) (*RootLocusResponse, error) {
	b := req.Body
	if err := h.checkPoints(map[string]int{"locus": b.Points}); err != nil {
		return nil, err
	}
	sys, err := h.selectLoop(b.LoopBody)
	if err != nil {
		return nil, err
	}
	l, err := locus.Trace(sys, locus.GainGrid(b.MaxGain, b.Points, b.Log), h.rf)
	if err != nil {
		return nil, problem("root locus", err)
	}
	resp := &RootLocusResponse{}
	resp.Body.System = experiment.ViewSystem("H", sys, h.rf)
	resp.Body.Locus = experiment.ViewLocus(l)
	return resp, nil
}

// StateEquation never fails on a singular network: the error text is
// returned in place of the equation.
func (h *Handler) StateEquation(ctx context.Context, req *StateEquationRequest) (*StateEquationResponse, error) {
	resp := &StateEquationResponse{}
	resp.Body.Equation = mechanics.Describe(req.Body)
	if m, err := mechanics.Build(req.Body); err == nil {
		if modes, err := m.Modes(); err == nil {
			lti.SortRoots(modes)
			resp.Body.Modes = experiment.ViewRoots(pz.Tag(modes, pz.Pole))
		}
	}
	return resp, nil
}

// Register adds every operation to api.
func (h *Handler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
		Description: "Returns the health status of the API",
		Tags:        []string{"System"},
	}, h.Health)

	huma.Register(api, huma.Operation{
		OperationID: "analyze",
		Method:      http.MethodPost,
		Path:        "/api/analyze",
		Summary:     "Run a full analysis",
		Description: "Builds the feedback loops and returns every report section. Failing sections are listed under errors",
		Tags:        []string{"Analysis"},
	}, h.Analyze)

	huma.Register(api, huma.Operation{
		OperationID: "bode",
		Method:      http.MethodPost,
		Path:        "/api/bode",
		Summary:     "Bode diagram",
		Description: "Returns magnitude in dB and wrapped phase in degrees over a logarithmic frequency grid",
		Tags:        []string{"Frequency"},
	}, h.Bode)

	huma.Register(api, huma.Operation{
		OperationID: "nyquist",
		Method:      http.MethodPost,
		Path:        "/api/nyquist",
		Summary:     "Nyquist diagram",
		Description: "Returns the positive-frequency contour and its mirror image",
		Tags:        []string{"Frequency"},
	}, h.Nyquist)

	huma.Register(api, huma.Operation{
		OperationID: "step",
		Method:      http.MethodPost,
		Path:        "/api/step",
		Summary:     "Step response",
		Description: "Simulates the unit step response and estimates the settling time",
		Tags:        []string{"Time"},
	}, h.Step)

	huma.Register(api, huma.Operation{
		OperationID: "discretize",
		Method:      http.MethodPost,
		Path:        "/api/discretize",
		Summary:     "Tustin discretization",
		Description: "Returns the Tustin equivalent and compares its step response with the continuous one",
		Tags:        []string{"Time"},
	}, h.Discretize)

	huma.Register(api, huma.Operation{
		OperationID: "partialFractions",
		Method:      http.MethodPost,
		Path:        "/api/partial-fractions",
		Summary:     "Partial-fraction expansion",
		Description: "Expands num/den into residue terms and a direct polynomial part",
		Tags:        []string{"Algebra"},
	}, h.PartialFractions)

	huma.Register(api, huma.Operation{
		OperationID: "poleZero",
		Method:      http.MethodPost,
		Path:        "/api/pole-zero",
		Summary:     "Poles and zeros",
		Description: "Returns zeros and display-snapped poles of the selected loop",
		Tags:        []string{"Algebra"},
	}, h.PoleZero)

	huma.Register(api, huma.Operation{
		OperationID: "rootLocus",
		Method:      http.MethodPost,
		Path:        "/api/root-locus",
		Summary:     "Root locus",
		Description: "Traces closed-loop poles as continuous branches over a gain grid",
		Tags:        []string{"Algebra"},
	}, h.RootLocus)

	huma.Register(api, huma.Operation{
		OperationID: "stateEquation",
		Method:      http.MethodPost,
		Path:        "/api/state-equation",
		Summary:     "Mass-spring-damper state equation",
		Description: "Assembles M, C and K and returns the first-order state matrix in LaTeX",
		Tags:        []string{"Mechanics"},
	}, h.StateEquation)
}
