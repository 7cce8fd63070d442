// Package optim searches controller parameter grids for the closed loop that
// settles fastest.
package optim

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"sync"

	"github.com/san-kum/tfsim/internal/control"
	"github.com/san-kum/tfsim/internal/lti"
	"github.com/san-kum/tfsim/internal/pz"
	"github.com/san-kum/tfsim/internal/timeresp"
)

var (
	ErrGrid        = errors.New("optim: invalid parameter grid")
	ErrNoCandidate = errors.New("optim: no stable candidate in grid")
)

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
	workers    int
}

func NewGridSearch(params []string, ranges [][]float64) (*GridSearch, error) {
	if len(params) == 0 || len(params) != len(ranges) {
		return nil, fmt.Errorf("%w: %d names for %d ranges", ErrGrid, len(params), len(ranges))
	}
	known := make(map[string]bool)
	for _, n := range control.ParamNames() {
		known[n] = true
	}
	for i, name := range params {
		if !known[name] {
			return nil, fmt.Errorf("%w: unknown parameter %q", ErrGrid, name)
		}
		if len(ranges[i]) == 0 {
			return nil, fmt.Errorf("%w: empty range for %s", ErrGrid, name)
		}
	}
	return &GridSearch{paramNames: params, ranges: ranges, workers: runtime.NumCPU()}, nil
}

// SetWorkers bounds the number of concurrent evaluations. Values below one
// mean a single worker. The simulator passed to Search is shared by all
// workers and must be safe for concurrent use.
func (g *GridSearch) SetWorkers(n int) {
	if n < 1 {
		n = 1
	}
	g.workers = n
}

// Candidate is one evaluated grid point.
type Candidate struct {
	Params    control.Params `json:"params"`
	Settling  pz.Estimate    `json:"settling"`
	Overshoot float64        `json:"overshoot"`
	Stable    bool           `json:"stable"`
	Err       string         `json:"error,omitempty"`
}

type Result struct {
	Best      *Candidate  `json:"best"`
	Evaluated int         `json:"evaluated"`
	Rejected  int         `json:"rejected"`
	All       []Candidate `json:"-"`
}

// Search evaluates every grid point of base with the named parameters
// replaced and returns the stable candidate with the smallest settling
// time. Ties go to the point enumerated first.
func (g *GridSearch) Search(
	ctx context.Context,
	plant lti.System,
	base control.Params,
	sim timeresp.Simulator,
	rf lti.RootFinder,
	t []float64,
) (*Result, error) {
	var points []control.Params
	g.enumerate(0, base, &points)

	all := make([]Candidate, len(points))
	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < g.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				all[idx] = evaluate(plant, points[idx], sim, rf, t)
			}
		}()
	}

	var cancelled error
	for i := range points {
		if err := ctx.Err(); err != nil {
			cancelled = err
			break
		}
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	if cancelled != nil {
		return nil, cancelled
	}

	res := &Result{Evaluated: len(all), All: all}
	for i := range all {
		c := &all[i]
		if !c.Stable {
			res.Rejected++
			continue
		}
		if res.Best == nil || c.Settling.Value < res.Best.Settling.Value {
			res.Best = c
		}
	}
	if res.Best == nil {
		return res, ErrNoCandidate
	}
	return res, nil
}

func (g *GridSearch) enumerate(depth int, current control.Params, out *[]control.Params) {
	if depth == len(g.paramNames) {
		*out = append(*out, current)
		return
	}
	for _, val := range g.ranges[depth] {
		next := current
		next.Set(g.paramNames[depth], val)
		g.enumerate(depth+1, next, out)
	}
}

func evaluate(plant lti.System, p control.Params, sim timeresp.Simulator, rf lti.RootFinder, t []float64) Candidate {
	c := Candidate{Params: p, Settling: pz.Estimate{Value: math.Inf(1)}}
	fail := func(err error) Candidate {
		c.Err = err.Error()
		return c
	}

	gc, err := p.TransferFunction()
	if err != nil {
		return fail(err)
	}
	closed, err := lti.Feedback(lti.Series(gc, plant), lti.Unity(), lti.Negative)
	if err != nil {
		return fail(err)
	}
	poles, err := closed.Poles(rf)
	if err != nil {
		return fail(err)
	}
	ts, ok := pz.SettlingTime(poles)
	if !ok {
		return c
	}
	y, err := timeresp.Step(sim, closed, t)
	if err != nil {
		return fail(err)
	}

	c.Stable = true
	c.Settling = pz.Estimate{Value: ts, Method: pz.ClosedForm}
	c.Overshoot = overshoot(y.Y)
	return c
}

// overshoot is the peak excursion past the final value, relative to it.
func overshoot(y []float64) float64 {
	if len(y) == 0 {
		return 0
	}
	final := y[len(y)-1]
	if math.Abs(final) <= 1e-12 {
		return 0
	}
	peak := final
	for _, v := range y {
		if (final > 0 && v > peak) || (final < 0 && v < peak) {
			peak = v
		}
	}
	return (peak - final) / final
}

// Range returns n evenly spaced values from lo to hi inclusive.
func Range(lo, hi float64, n int) []float64 {
	if n <= 1 {
		return []float64{lo}
	}
	return timeresp.Linspace(lo, hi, n)
}
