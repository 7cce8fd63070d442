// Package export renders report series to SVG and PNG files with gonum/plot.
package export

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/san-kum/tfsim/internal/experiment"
	"github.com/san-kum/tfsim/internal/freq"
	"github.com/san-kum/tfsim/internal/timeresp"
)

var ErrNoData = errors.New("export: nothing to plot")

var palette = []color.Color{
	color.RGBA{R: 0x07, G: 0x7f, B: 0xff, A: 0xff},
	color.RGBA{R: 0xff, G: 0x98, B: 0x00, A: 0xff},
	color.RGBA{R: 0x06, G: 0xb9, B: 0x00, A: 0xff},
	color.RGBA{R: 0x9c, G: 0x27, B: 0xb0, A: 0xff},
	color.RGBA{R: 0xe5, G: 0x39, B: 0x35, A: 0xff},
	color.RGBA{R: 0x00, G: 0x00, B: 0x00, A: 0xff},
	color.RGBA{R: 0x79, G: 0x55, B: 0x48, A: 0xff},
}

const (
	width  = 8 * vg.Inch
	height = 5 * vg.Inch
)

// Named is a labelled series.
type Named struct {
	Name   string
	Series *timeresp.Series
}

func limitedTicker(maxLabels int, labelFmt string) plot.Ticker {
	if maxLabels < 2 {
		maxLabels = 2
	}
	return plot.TickerFunc(func(min, max float64) []plot.Tick {
		if math.IsNaN(min) || math.IsNaN(max) || math.IsInf(min, 0) || math.IsInf(max, 0) {
			return nil
		}
		if min == max {
			return []plot.Tick{{Value: min, Label: fmt.Sprintf(labelFmt, min)}}
		}
		step := (max - min) / float64(maxLabels-1)
		ticks := make([]plot.Tick, 0, maxLabels)
		for i := 0; i < maxLabels; i++ {
			v := min + float64(i)*step
			ticks = append(ticks, plot.Tick{Value: v, Label: fmt.Sprintf(labelFmt, v)})
		}
		return ticks
	})
}

func newPlot(title, xlabel, ylabel string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xlabel
	p.Y.Label.Text = ylabel
	p.Title.Padding = vg.Points(8)
	p.X.Padding = vg.Points(10)
	p.Y.Padding = vg.Points(10)
	p.X.Tick.Marker = limitedTicker(8, "%.3g")
	p.Y.Tick.Marker = limitedTicker(8, "%.3g")
	p.Add(plotter.NewGrid())
	p.Legend.Top = true
	return p
}

func xys(x, y []float64) plotter.XYs {
	pts := make(plotter.XYs, 0, len(x))
	for i := range x {
		if math.IsNaN(y[i]) || math.IsInf(y[i], 0) {
			continue
		}
		pts = append(pts, plotter.XY{X: x[i], Y: y[i]})
	}
	return pts
}

func addLine(p *plot.Plot, name string, pts plotter.XYs, idx int, dashed bool) error {
	line, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	line.LineStyle.Width = vg.Points(1.8)
	line.LineStyle.Color = palette[idx%len(palette)]
	if dashed {
		line.LineStyle.Dashes = []vg.Length{vg.Points(6), vg.Points(4)}
	}
	p.Add(line)
	if name != "" {
		p.Legend.Add(name, line)
	}
	return nil
}

// StepPlot overlays time series sharing a time axis. Nil series are skipped.
func StepPlot(title string, series []Named) (*plot.Plot, error) {
	p := newPlot(title, "time (s)", "amplitude")
	n := 0
	for i, s := range series {
		if s.Series == nil || len(s.Series.T) == 0 {
			continue
		}
		if err := addLine(p, s.Name, xys(s.Series.T, s.Series.Y), i, false); err != nil {
			return nil, err
		}
		n++
	}
	if n == 0 {
		return nil, ErrNoData
	}
	return p, nil
}

// BodePlots returns the magnitude and phase plots on a log frequency axis.
func BodePlots(b *freq.BodeData) (mag, phase *plot.Plot, err error) {
	if b == nil || len(b.Omega) == 0 {
		return nil, nil, ErrNoData
	}
	mag = newPlot("Bode magnitude", "ω (rad/s)", "magnitude (dB)")
	phase = newPlot("Bode phase", "ω (rad/s)", "phase (deg)")
	for _, p := range []*plot.Plot{mag, phase} {
		p.X.Scale = plot.LogScale{}
		p.X.Tick.Marker = plot.LogTicks{Prec: -1}
	}
	if err := addLine(mag, "", xys(b.Omega, b.MagDB), 0, false); err != nil {
		return nil, nil, err
	}
	if err := addLine(phase, "", xys(b.Omega, b.PhaseDeg), 1, false); err != nil {
		return nil, nil, err
	}
	return mag, phase, nil
}

func NyquistPlot(n *freq.NyquistData) (*plot.Plot, error) {
	if n == nil || len(n.Re) == 0 {
		return nil, ErrNoData
	}
	p := newPlot("Nyquist", "Re", "Im")
	if err := addLine(p, "ω > 0", xys(n.Re, n.Im), 0, false); err != nil {
		return nil, err
	}
	if err := addLine(p, "ω < 0", xys(n.MirrorRe, n.MirrorIm), 0, true); err != nil {
		return nil, err
	}
	crit, err := plotter.NewScatter(plotter.XYs{{X: -1, Y: 0}})
	if err != nil {
		return nil, err
	}
	crit.GlyphStyle.Shape = draw.PlusGlyph{}
	crit.GlyphStyle.Color = palette[4]
	p.Add(crit)
	return p, nil
}

// PoleZeroPlot marks zeros with circles and poles with crosses, using the
// spread plot positions for the poles.
func PoleZeroPlot(title string, v *experiment.PoleZeroView) (*plot.Plot, error) {
	if v == nil || (len(v.Zeros) == 0 && len(v.PlotPoles) == 0) {
		return nil, ErrNoData
	}
	p := newPlot(title, "Re", "Im")
	if len(v.Zeros) > 0 {
		pts := make(plotter.XYs, len(v.Zeros))
		for i, z := range v.Zeros {
			pts[i] = plotter.XY{X: z.Re, Y: z.Im}
		}
		s, err := plotter.NewScatter(pts)
		if err != nil {
			return nil, err
		}
		s.GlyphStyle.Shape = draw.RingGlyph{}
		s.GlyphStyle.Radius = vg.Points(5)
		s.GlyphStyle.Color = palette[0]
		p.Add(s)
		p.Legend.Add("zeros", s)
	}
	if len(v.PlotPoles) > 0 {
		pts := make(plotter.XYs, len(v.PlotPoles))
		for i, c := range v.PlotPoles {
			pts[i] = plotter.XY{X: c.Re, Y: c.Im}
		}
		s, err := plotter.NewScatter(pts)
		if err != nil {
			return nil, err
		}
		s.GlyphStyle.Shape = draw.CrossGlyph{}
		s.GlyphStyle.Radius = vg.Points(5)
		s.GlyphStyle.Color = palette[4]
		p.Add(s)
		p.Legend.Add("poles", s)
	}
	return p, nil
}

func LocusPlot(l *experiment.LocusView) (*plot.Plot, error) {
	if l == nil || len(l.Branches) == 0 {
		return nil, ErrNoData
	}
	p := newPlot("Root locus", "Re", "Im")
	starts := make(plotter.XYs, 0, len(l.Branches))
	for i, b := range l.Branches {
		pts := make(plotter.XYs, len(b))
		for j, pt := range b {
			pts[j] = plotter.XY{X: pt.Re, Y: pt.Im}
		}
		if err := addLine(p, "", pts, i, false); err != nil {
			return nil, err
		}
		if len(pts) > 0 {
			starts = append(starts, pts[0])
		}
	}
	s, err := plotter.NewScatter(starts)
	if err != nil {
		return nil, err
	}
	s.GlyphStyle.Shape = draw.CrossGlyph{}
	s.GlyphStyle.Radius = vg.Points(4)
	p.Add(s)
	p.Legend.Add("open-loop poles", s)
	return p, nil
}

// Save writes p to path; the extension selects the format (svg, png, pdf).
func Save(p *plot.Plot, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("cannot create directory: %w", err)
	}
	return p.Save(width, height, path)
}

// WriteReport renders every available plot of r into dir and returns the
// written paths. Sections without data are skipped.
func WriteReport(r *experiment.Report, dir, format string) ([]string, error) {
	format = strings.TrimPrefix(strings.ToLower(format), ".")
	if format != "svg" && format != "png" && format != "pdf" {
		return nil, fmt.Errorf("export: unsupported format %q", format)
	}

	plots := make(map[string]*plot.Plot)
	add := func(name string, p *plot.Plot, err error) error {
		if errors.Is(err, ErrNoData) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		plots[name] = p
		return nil
	}

	resp := r.Responses
	p, err := StepPlot("Step response", []Named{
		{"plant", resp.Open},
		{"Y/R", resp.Closed},
		{"F·Y/R", resp.Filtered},
		{"Y/R perturbed", resp.PerturbedClosed},
	})
	if err := add("step", p, err); err != nil {
		return nil, err
	}
	p, err = StepPlot("Error and disturbance", []Named{{"E/R", resp.Error}, {"Y/Q", resp.Disturbance}})
	if err := add("loops", p, err); err != nil {
		return nil, err
	}
	mag, phase, err := BodePlots(r.Bode)
	if err := add("bode_mag", mag, err); err != nil {
		return nil, err
	}
	if err := add("bode_phase", phase, err); err != nil {
		return nil, err
	}
	p, err = NyquistPlot(r.Nyquist)
	if err := add("nyquist", p, err); err != nil {
		return nil, err
	}
	p, err = PoleZeroPlot("Poles and zeros (plant)", r.PoleZero.Plant)
	if err := add("pz_plant", p, err); err != nil {
		return nil, err
	}
	p, err = PoleZeroPlot("Poles and zeros (Y/R)", r.PoleZero.Closed)
	if err := add("pz_closed", p, err); err != nil {
		return nil, err
	}
	p, err = LocusPlot(r.Locus)
	if err := add("locus", p, err); err != nil {
		return nil, err
	}
	if d := r.Discrete; d != nil {
		p, err = StepPlot(fmt.Sprintf("Tustin, Ts = %g", d.Ts), []Named{{"continuous", d.Continuous}, {"discrete", d.Sampled}})
		if err := add("discrete", p, err); err != nil {
			return nil, err
		}
	}
	if pid := r.PID; pid != nil {
		p, err = StepPlot("PID output", []Named{{"y", pid.Output}, {"u", pid.Effort}})
		if err := add("pid", p, err); err != nil {
			return nil, err
		}
	}

	paths := make([]string, 0, len(plots))
	for name, p := range plots {
		path := filepath.Join(dir, name+"."+format)
		if err := Save(p, path); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths, nil
}
