package pz

import (
	"math"

	"github.com/san-kum/tfsim/internal/lti"
)

type SnapConfig struct {
	TolImag       float64 `yaml:"tol_imag" json:"tol_imag,omitempty"`
	TolPair       float64 `yaml:"tol_pair" json:"tol_pair,omitempty"`
	RoundDecimals int     `yaml:"round_decimals" json:"round_decimals,omitempty"`
	SpreadShift   float64 `yaml:"spread_shift" json:"spread_shift,omitempty"`
}

func DefaultSnapConfig() SnapConfig {
	return SnapConfig{
		TolImag:       1e-2,
		TolPair:       4e-2,
		RoundDecimals: 1,
		SpreadShift:   0.01,
	}
}

// Snap treats poles with |Im| <= TolImag as real, then replaces the first
// unclaimed pair of real poles within TolPair of each other by their midpoint
// rounded to RoundDecimals, updating both positions. Passes repeat until the
// set stops changing, so Snap(Snap(p)) equals Snap(p). The returned
// polynomial is rebuilt from the snapped poles.
func Snap(poles []complex128, cfg SnapConfig) ([]complex128, lti.Poly) {
	out := make([]complex128, len(poles))
	for i, p := range poles {
		if math.Abs(imag(p)) <= cfg.TolImag {
			p = complex(real(p), 0)
		}
		out[i] = p
	}

	for pass := 0; pass <= len(out); pass++ {
		if !snapPass(out, cfg) {
			break
		}
	}
	return out, lti.FromRoots(out)
}

func snapPass(poles []complex128, cfg SnapConfig) bool {
	var reals []int
	for i, p := range poles {
		if imag(p) == 0 {
			reals = append(reals, i)
		}
	}

	scale := math.Pow(10, float64(cfg.RoundDecimals))
	changed := false
	used := make(map[int]bool)
	for _, i := range reals {
		if used[i] {
			continue
		}
		for _, j := range reals {
			if j <= i || used[j] {
				continue
			}
			ri, rj := real(poles[i]), real(poles[j])
			if math.Abs(ri-rj) > cfg.TolPair {
				continue
			}
			target := math.Round((ri+rj)/2*scale) / scale
			if target != ri || target != rj {
				changed = true
			}
			poles[i] = complex(target, 0)
			poles[j] = complex(target, 0)
			used[j] = true
			break
		}
	}
	return changed
}

// Spread offsets real poles that share a value (to 6 decimals) by successive
// multiples of shift from the first member, for plotting only.
func Spread(poles []complex128, shift float64) []complex128 {
	out := append([]complex128(nil), poles...)
	type group struct {
		key  float64
		idxs []int
	}
	var groups []*group
	byKey := map[float64]*group{}
	for i, p := range poles {
		if imag(p) != 0 {
			continue
		}
		key := math.Round(real(p)*1e6) / 1e6
		g, ok := byKey[key]
		if !ok {
			g = &group{key: key}
			byKey[key] = g
			groups = append(groups, g)
		}
		g.idxs = append(g.idxs, i)
	}
	for _, g := range groups {
		if len(g.idxs) < 2 {
			continue
		}
		r0 := real(out[g.idxs[0]])
		for k, idx := range g.idxs[1:] {
			out[idx] = complex(r0+float64(k+1)*shift, 0)
		}
	}
	return out
}
