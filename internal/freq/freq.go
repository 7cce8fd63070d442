// Package freq evaluates transfer functions along the frequency axis.
//
// Continuous systems are evaluated at s = jω. Discrete systems are evaluated
// on the unit circle at z = exp(jωTs).
package freq

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/san-kum/tfsim/internal/lti"
)

// MinMagDB is the magnitude floor. A zero on the evaluation contour gives
// |G| = 0, which is reported as MinMagDB instead of -Inf so the data stays
// JSON encodable.
const MinMagDB = -400.0

// BodeData holds magnitude and phase over a frequency grid.
// Phase is atan2(Im, Re) in degrees and wraps at ±180°. Magnitudes never
// fall below MinMagDB.
type BodeData struct {
	Omega    []float64 `json:"omega"`
	MagDB    []float64 `json:"mag_db"`
	PhaseDeg []float64 `json:"phase_deg"`
}

// NyquistData holds the positive-frequency contour and its mirror image
// (Re, -Im) for negative frequencies.
type NyquistData struct {
	Omega    []float64 `json:"omega"`
	Re       []float64 `json:"re"`
	Im       []float64 `json:"im"`
	MirrorRe []float64 `json:"mirror_re"`
	MirrorIm []float64 `json:"mirror_im"`
}

// Response evaluates sys at every grid frequency.
func Response(sys lti.System, omega []float64) ([]complex128, error) {
	out := make([]complex128, len(omega))
	for i, w := range omega {
		x := complex(0, w)
		if sys.IsDiscrete() {
			x = cmplx.Exp(complex(0, w*sys.Ts()))
		}
		g, err := sys.Eval(x)
		if err != nil {
			return nil, fmt.Errorf("frequency %g rad/s: %w", w, err)
		}
		out[i] = g
	}
	return out, nil
}

// Bode computes magnitude in dB and wrapped phase in degrees.
func Bode(sys lti.System, omega []float64) (*BodeData, error) {
	h, err := Response(sys, omega)
	if err != nil {
		return nil, err
	}
	data := &BodeData{
		Omega:    append([]float64(nil), omega...),
		MagDB:    make([]float64, len(h)),
		PhaseDeg: make([]float64, len(h)),
	}
	for i, g := range h {
		data.MagDB[i] = math.Max(20*math.Log10(cmplx.Abs(g)), MinMagDB)
		data.PhaseDeg[i] = math.Atan2(imag(g), real(g)) * 180 / math.Pi
	}
	return data, nil
}

// Nyquist computes the complex-plane trace of sys over omega.
func Nyquist(sys lti.System, omega []float64) (*NyquistData, error) {
	h, err := Response(sys, omega)
	if err != nil {
		return nil, err
	}
	n := len(h)
	data := &NyquistData{
		Omega:    append([]float64(nil), omega...),
		Re:       make([]float64, n),
		Im:       make([]float64, n),
		MirrorRe: make([]float64, n),
		MirrorIm: make([]float64, n),
	}
	for i, g := range h {
		data.Re[i] = real(g)
		data.Im[i] = imag(g)
		data.MirrorRe[i] = real(g)
		data.MirrorIm[i] = -imag(g)
	}
	return data, nil
}

// LogSpace returns n points spaced evenly on a log scale from 10^lo to 10^hi.
func LogSpace(lo, hi float64, n int) []float64 {
	if n <= 0 {
		return nil
	}
	if n == 1 {
		return []float64{math.Pow(10, hi)}
	}
	out := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = math.Pow(10, lo+float64(i)*step)
	}
	return out
}
