package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/tfsim/internal/integrators"
	"github.com/san-kum/tfsim/internal/lti"
	"github.com/san-kum/tfsim/internal/timeresp"
)

type Registry struct {
	simulators  map[string]func() timeresp.Simulator
	rootFinders map[string]func() lti.RootFinder
}

func NewRegistry() *Registry {
	r := &Registry{
		simulators:  make(map[string]func() timeresp.Simulator),
		rootFinders: make(map[string]func() lti.RootFinder),
	}

	r.simulators["zoh"] = func() timeresp.Simulator { return timeresp.NewZOH() }
	r.simulators["foh"] = func() timeresp.Simulator { return timeresp.NewFOH() }
	r.simulators["euler"] = func() timeresp.Simulator {
		return integrators.NewEulerSimulator(integrators.DefaultMaxStep)
	}
	r.simulators["rk4"] = func() timeresp.Simulator {
		return integrators.NewRK4Simulator(integrators.DefaultMaxStep)
	}
	r.simulators["rk45"] = func() timeresp.Simulator { return integrators.NewRK45(1e-8) }

	r.rootFinders["companion"] = func() lti.RootFinder { return lti.Companion{} }

	return r
}

func (r *Registry) GetSimulator(name string) (timeresp.Simulator, error) {
	fn, ok := r.simulators[name]
	if !ok {
		return nil, fmt.Errorf("unknown simulator: %s", name)
	}
	return fn(), nil
}

func (r *Registry) GetRootFinder(name string) (lti.RootFinder, error) {
	fn, ok := r.rootFinders[name]
	if !ok {
		return nil, fmt.Errorf("unknown root finder: %s", name)
	}
	return fn(), nil
}

func (r *Registry) ListSimulators() []string {
	names := make([]string, 0, len(r.simulators))
	for name := range r.simulators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
