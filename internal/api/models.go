package api

import (
	"time"

	"github.com/san-kum/tfsim/internal/config"
	"github.com/san-kum/tfsim/internal/experiment"
	"github.com/san-kum/tfsim/internal/freq"
	"github.com/san-kum/tfsim/internal/mechanics"
	"github.com/san-kum/tfsim/internal/pz"
	"github.com/san-kum/tfsim/internal/timeresp"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Body struct {
		Status     string    `json:"status" example:"healthy" doc:"Service health status"`
		Version    string    `json:"version" example:"1.0.0" doc:"API version"`
		Time       time.Time `json:"time" doc:"Current server time"`
		Simulators []string  `json:"simulators" doc:"Available step simulators"`
	}
}

// AnalyzeRequest carries a full analysis configuration. Omitted fields take
// the documented defaults.
type AnalyzeRequest struct {
	Body config.Config
}

type AnalyzeResponse struct {
	Body *experiment.Report
}

// LoopBody selects one transfer function of the feedback loop built from
// plant, controller and filter.
type LoopBody struct {
	Plant      config.SystemConfig `json:"plant,omitempty" doc:"Plant zeros, poles and gain"`
	Controller config.SystemConfig `json:"controller,omitempty" doc:"Series controller zeros, poles and gain"`
	Filter     config.FilterConfig `json:"filter,omitempty" doc:"Output filter"`
	Loop       experiment.Loop     `json:"loop,omitempty" enum:"plant,open,closed,error,disturbance,filtered" default:"open" doc:"Transfer function to analyze"`
}

type BodeRequest struct {
	Body struct {
		LoopBody
		Frequency config.FrequencyConfig `json:"frequency,omitempty" doc:"Frequency grid in decades of rad/s"`
	}
}

type BodeResponse struct {
	Body struct {
		System experiment.SystemView `json:"system"`
		Bode   *freq.BodeData        `json:"bode"`
	}
}

type NyquistRequest = BodeRequest

type NyquistResponse struct {
	Body struct {
		System  experiment.SystemView `json:"system"`
		Nyquist *freq.NyquistData     `json:"nyquist"`
	}
}

type StepRequest struct {
	Body struct {
		LoopBody
		Time         config.TimeConfig         `json:"time,omitempty" doc:"Simulation time grid"`
		Perturb      bool                      `json:"perturb,omitempty" doc:"Also simulate a perturbed input step"`
		Perturbation config.PerturbationConfig `json:"perturbation,omitempty" doc:"Time and amplitude of the added input step"`
		Simulator    string                    `json:"simulator,omitempty" enum:"euler,foh,rk4,rk45,zoh" default:"zoh" doc:"Step simulator"`
	}
}

type StepResponse struct {
	Body struct {
		System    experiment.SystemView `json:"system"`
		Step      *timeresp.Series      `json:"step"`
		Perturbed *timeresp.Series      `json:"perturbed,omitempty"`
		Settling  pz.Estimate           `json:"settling"`
	}
}

type DiscretizeRequest struct {
	Body struct {
		System  config.SystemConfig `json:"system,omitempty" doc:"Continuous system"`
		Ts      float64             `json:"ts" exclusiveMinimum:"0" required:"true" doc:"Sample period in seconds"`
		Periods int                 `json:"periods,omitempty" minimum:"1" maximum:"10000" default:"50" doc:"Comparison horizon in sample periods"`
		Points  int                 `json:"points,omitempty" minimum:"2" default:"500" doc:"Continuous reference samples"`
	}
}

type DiscretizeResponse struct {
	Body struct {
		Continuous experiment.SystemView `json:"continuous"`
		Discrete   *experiment.Discrete  `json:"discrete"`
	}
}

// CoefficientBody is a transfer function given by descending coefficients.
type CoefficientBody struct {
	Num []float64 `json:"num" minItems:"1" required:"true" doc:"Numerator coefficients, highest power first"`
	Den []float64 `json:"den" minItems:"1" required:"true" doc:"Denominator coefficients, highest power first"`
}

type PartialFractionsRequest struct {
	Body CoefficientBody
}

type PartialFractionsResponse struct {
	Body struct {
		System  experiment.SystemView   `json:"system"`
		Partial *experiment.PartialView `json:"partial"`
	}
}

type PoleZeroRequest struct {
	Body struct {
		LoopBody
		Snap pz.SnapConfig `json:"snap,omitempty" doc:"Display snapping tolerances"`
	}
}

type PoleZeroResponse struct {
	Body struct {
		System   experiment.SystemView    `json:"system"`
		PoleZero *experiment.PoleZeroView `json:"pole_zero"`
	}
}

type RootLocusRequest struct {
	Body struct {
		LoopBody
		MaxGain float64 `json:"max_gain,omitempty" exclusiveMinimum:"0" default:"50" doc:"Largest loop gain"`
		Points  int     `json:"points,omitempty" minimum:"2" default:"200" doc:"Gain samples"`
		Log     bool    `json:"log,omitempty" doc:"Logarithmic gain spacing"`
	}
}

type RootLocusResponse struct {
	Body struct {
		System experiment.SystemView `json:"system"`
		Locus  *experiment.LocusView `json:"locus"`
	}
}

type StateEquationRequest struct {
	Body mechanics.Network
}

type StateEquationResponse struct {
	Body struct {
		mechanics.Equation
		Modes []experiment.RootView `json:"modes,omitempty"`
	}
}
