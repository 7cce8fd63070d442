package experiment

import (
	"fmt"

	"github.com/san-kum/tfsim/internal/config"
	"github.com/san-kum/tfsim/internal/lti"
)

// Loop selects one of the unity-feedback transfer functions.
type Loop string

const (
	PlantLoop       Loop = "plant"
	OpenLoop        Loop = "open"
	ClosedLoop      Loop = "closed"
	ErrorLoop       Loop = "error"
	DisturbanceLoop Loop = "disturbance"
	FilteredLoop    Loop = "filtered"
)

func Loops() []Loop {
	return []Loop{PlantLoop, OpenLoop, ClosedLoop, ErrorLoop, DisturbanceLoop, FilteredLoop}
}

// LoopSet holds the systems of a plant G under series controller C with
// unity negative feedback and output filter F:
//
//	L   = C G
//	Y/R = L / (1 + L)
//	E/R = 1 / (1 + L)
//	Y/Q = G / (1 + C G)
//	F Y/R
type LoopSet struct {
	Plant       lti.System
	Controller  lti.System
	Filter      lti.System
	Open        lti.System
	Closed      lti.System
	Error       lti.System
	Disturbance lti.System
	Filtered    lti.System
}

func BuildLoops(plant, controller, filter lti.System) (*LoopSet, error) {
	ls := &LoopSet{Plant: plant, Controller: controller, Filter: filter}
	ls.Open = lti.Series(controller, plant)

	var err error
	if ls.Closed, err = lti.Feedback(ls.Open, lti.Unity(), lti.Negative); err != nil {
		return nil, fmt.Errorf("closed loop: %w", err)
	}
	if ls.Error, err = lti.Feedback(lti.Unity(), ls.Open, lti.Negative); err != nil {
		return nil, fmt.Errorf("error loop: %w", err)
	}
	if ls.Disturbance, err = lti.Feedback(plant, controller, lti.Negative); err != nil {
		return nil, fmt.Errorf("disturbance loop: %w", err)
	}
	ls.Filtered = lti.Series(filter, ls.Closed)
	return ls, nil
}

// LoopsFromConfig builds the loop set from the plant, controller and filter
// sections of cfg.
func LoopsFromConfig(cfg *config.Config) (*LoopSet, error) {
	plant, err := cfg.Plant.System()
	if err != nil {
		return nil, fmt.Errorf("plant: %w", err)
	}
	controller, err := cfg.Controller.System()
	if err != nil {
		return nil, fmt.Errorf("controller: %w", err)
	}
	filter, err := cfg.Filter.System()
	if err != nil {
		return nil, fmt.Errorf("filter: %w", err)
	}
	return BuildLoops(plant, controller, filter)
}

func (ls *LoopSet) Select(l Loop) (lti.System, error) {
	switch l {
	case PlantLoop:
		return ls.Plant, nil
	case OpenLoop:
		return ls.Open, nil
	case ClosedLoop, "":
		return ls.Closed, nil
	case ErrorLoop:
		return ls.Error, nil
	case DisturbanceLoop:
		return ls.Disturbance, nil
	case FilteredLoop:
		return ls.Filtered, nil
	}
	return lti.System{}, fmt.Errorf("unknown loop: %s", l)
}
