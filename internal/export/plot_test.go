package export

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/san-kum/tfsim/internal/config"
	"github.com/san-kum/tfsim/internal/experiment"
	"github.com/san-kum/tfsim/internal/freq"
	"github.com/san-kum/tfsim/internal/timeresp"
)

func report(t *testing.T) *experiment.Report {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Plant.Poles = []float64{-1, -2}
	cfg.Discrete.Ts = 0.2
	cfg.PID.Enabled = true
	r, err := experiment.Analyze(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	return r
}

func TestWriteReportSVG(t *testing.T) {
	dir := t.TempDir()
	paths, err := WriteReport(report(t), dir, "svg")
	if err != nil {
		t.Fatalf("WriteReport: %v", err)
	}

	want := []string{"bode_mag", "bode_phase", "discrete", "locus", "loops", "nyquist", "pid", "pz_closed", "pz_plant", "step"}
	if len(paths) != len(want) {
		t.Fatalf("wrote %d plots, want %d: %v", len(paths), len(want), paths)
	}
	for i, name := range want {
		if filepath.Base(paths[i]) != name+".svg" {
			t.Errorf("paths[%d] = %s, want %s.svg", i, paths[i], name)
		}
		data, err := os.ReadFile(paths[i])
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(string(data), "<svg") {
			t.Errorf("%s is not an SVG document", paths[i])
		}
	}
}

func TestWriteReportFormat(t *testing.T) {
	if _, err := WriteReport(&experiment.Report{}, t.TempDir(), "gif"); err == nil {
		t.Error("expected error for gif")
	}
	paths, err := WriteReport(&experiment.Report{}, t.TempDir(), ".PNG")
	if err != nil {
		t.Fatalf("empty report: %v", err)
	}
	if len(paths) != 0 {
		t.Errorf("empty report wrote %v", paths)
	}
}

func TestSavePNG(t *testing.T) {
	s := &timeresp.Series{T: []float64{0, 1, 2}, Y: []float64{0, 0.6, 0.9}}
	p, err := StepPlot("step", []Named{{"y", s}, {"missing", nil}})
	if err != nil {
		t.Fatalf("StepPlot: %v", err)
	}
	path := filepath.Join(t.TempDir(), "nested", "step.png")
	if err := Save(p, path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "\x89PNG") {
		t.Error("missing PNG signature")
	}
}

func TestNoData(t *testing.T) {
	if _, err := StepPlot("empty", []Named{{"a", nil}}); !errors.Is(err, ErrNoData) {
		t.Errorf("StepPlot: got %v", err)
	}
	if _, _, err := BodePlots(&freq.BodeData{}); !errors.Is(err, ErrNoData) {
		t.Errorf("BodePlots: got %v", err)
	}
	if _, err := NyquistPlot(nil); !errors.Is(err, ErrNoData) {
		t.Errorf("NyquistPlot: got %v", err)
	}
	if _, err := PoleZeroPlot("pz", &experiment.PoleZeroView{}); !errors.Is(err, ErrNoData) {
		t.Errorf("PoleZeroPlot: got %v", err)
	}
	if _, err := LocusPlot(&experiment.LocusView{}); !errors.Is(err, ErrNoData) {
		t.Errorf("LocusPlot: got %v", err)
	}
}
