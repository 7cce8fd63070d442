package pz

import (
	"github.com/san-kum/tfsim/internal/lti"
)

type Kind string

const (
	Zero Kind = "zero"
	Pole Kind = "pole"
)

// Root is a tagged zero or pole. Multiplicity counts exactly equal values.
type Root struct {
	Value        complex128
	Kind         Kind
	Multiplicity int
}

// Tag groups exactly equal values, preserving first-seen order.
func Tag(values []complex128, kind Kind) []Root {
	var out []Root
	for _, v := range values {
		found := false
		for i := range out {
			if out[i].Value == v {
				out[i].Multiplicity++
				found = true
				break
			}
		}
		if !found {
			out = append(out, Root{Value: v, Kind: kind, Multiplicity: 1})
		}
	}
	return out
}

// Set holds the zeros and display-snapped poles of a system.
type Set struct {
	Zeros     []Root
	Poles     []Root
	PlotPoles []complex128
	Den       lti.Poly
}

// Analyze finds zeros and poles of sys, snaps the poles and rebuilds the
// denominator from them, and spreads coincident poles for plotting.
func Analyze(sys lti.System, rf lti.RootFinder, cfg SnapConfig) (*Set, error) {
	zeros, err := sys.Zeros(rf)
	if err != nil {
		return nil, err
	}
	poles, err := sys.Poles(rf)
	if err != nil {
		return nil, err
	}
	lti.SortRoots(zeros)
	lti.SortRoots(poles)

	snapped, den := Snap(poles, cfg)
	return &Set{
		Zeros:     Tag(zeros, Zero),
		Poles:     Tag(snapped, Pole),
		PlotPoles: Spread(snapped, cfg.SpreadShift),
		Den:       den,
	}, nil
}
