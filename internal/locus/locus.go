// Package locus traces closed-loop pole trajectories of a plant under
// unity negative feedback as a scalar gain sweeps a grid.
package locus

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"
	"sort"

	"github.com/san-kum/tfsim/internal/lti"
)

var ErrGainGrid = errors.New("locus: gain grid must be non-empty and finite")

type Point struct {
	Gain float64
	Root complex128
}

// Branch is the trajectory of one closed-loop pole across the gain grid.
type Branch []Point

func (b Branch) Start() Point { return b[0] }
func (b Branch) End() Point   { return b[len(b)-1] }

type Locus struct {
	Gains    []float64
	Branches []Branch
}

// Empty reports whether the plant produced no trajectories.
func (l *Locus) Empty() bool {
	return len(l.Branches) == 0
}

// Trace sweeps each gain k and records the roots of den + k*num. Branches are
// continued by nearest-root matching against the previous gain.
func Trace(plant lti.System, gains []float64, rf lti.RootFinder) (*Locus, error) {
	if len(gains) == 0 {
		return nil, ErrGainGrid
	}
	for _, k := range gains {
		if math.IsNaN(k) || math.IsInf(k, 0) {
			return nil, ErrGainGrid
		}
	}
	if rf == nil {
		rf = lti.Companion{}
	}

	num, den := plant.Num(), plant.Den()
	out := &Locus{Gains: append([]float64(nil), gains...)}
	if den.Degree() == 0 && num.Degree() == 0 {
		return out, nil
	}

	// open[i] is the index of the branch still being extended at slot i.
	var open []int
	var prev []complex128
	for gi, k := range gains {
		char := lti.Add(den, num.Scale(k))
		roots, err := rf.Roots(char)
		if err != nil {
			return nil, fmt.Errorf("locus: gain %g: %w", k, err)
		}
		if gi == 0 || len(prev) == 0 {
			lti.SortRoots(roots)
			open = open[:0]
			for _, r := range roots {
				out.Branches = append(out.Branches, Branch{{Gain: k, Root: r}})
				open = append(open, len(out.Branches)-1)
			}
			prev = roots
			continue
		}

		assign := match(prev, roots)
		nextOpen := make([]int, len(roots))
		for j := range roots {
			nextOpen[j] = -1
		}
		for i, j := range assign {
			if j < 0 {
				continue
			}
			b := open[i]
			out.Branches[b] = append(out.Branches[b], Point{Gain: k, Root: roots[j]})
			nextOpen[j] = b
		}
		for j, r := range roots {
			if nextOpen[j] < 0 {
				out.Branches = append(out.Branches, Branch{{Gain: k, Root: r}})
				nextOpen[j] = len(out.Branches) - 1
			}
		}
		open = nextOpen
		prev = roots
	}
	return out, nil
}

// match pairs previous roots with current roots by increasing distance.
// assign[i] is the current index for prev[i], or -1 when unmatched.
func match(prev, cur []complex128) []int {
	type pair struct {
		i, j int
		d    float64
	}
	pairs := make([]pair, 0, len(prev)*len(cur))
	for i, p := range prev {
		for j, c := range cur {
			pairs = append(pairs, pair{i, j, cmplx.Abs(p - c)})
		}
	}
	sort.SliceStable(pairs, func(a, b int) bool { return pairs[a].d < pairs[b].d })

	assign := make([]int, len(prev))
	for i := range assign {
		assign[i] = -1
	}
	used := make([]bool, len(cur))
	for _, p := range pairs {
		if assign[p.i] >= 0 || used[p.j] {
			continue
		}
		assign[p.i] = p.j
		used[p.j] = true
	}
	return assign
}

// GainGrid returns n gains from 0 to kmax. With log set the nonzero gains are
// log-spaced from kmax*1e-3, which resolves the locus near the open-loop poles.
func GainGrid(kmax float64, n int, log bool) []float64 {
	if n <= 0 || kmax <= 0 {
		return nil
	}
	if n == 1 {
		return []float64{0}
	}
	out := make([]float64, n)
	if !log {
		for i := range out {
			out[i] = kmax * float64(i) / float64(n-1)
		}
		return out
	}
	if n == 2 {
		return []float64{0, kmax}
	}
	lo, hi := math.Log10(kmax*1e-3), math.Log10(kmax)
	for i := 1; i < n; i++ {
		out[i] = math.Pow(10, lo+(hi-lo)*float64(i-1)/float64(n-2))
	}
	return out
}
