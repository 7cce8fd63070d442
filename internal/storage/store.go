package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/tfsim/internal/config"
	"github.com/san-kum/tfsim/internal/experiment"
	"github.com/san-kum/tfsim/internal/pz"
	"github.com/san-kum/tfsim/internal/timeresp"
)

const (
	metadataFile  = "metadata.json"
	reportFile    = "report.json"
	responsesFile = "responses.csv"
	bodeFile      = "bode.csv"
)

var ErrNoSeries = errors.New("storage: run has no series")

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *Store) Dir(runID string) string {
	return filepath.Join(s.baseDir, runID)
}

type RunMetadata struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Timestamp time.Time         `json:"timestamp"`
	Simulator string            `json:"simulator"`
	Settling  *pz.Estimate      `json:"settling_open,omitempty"`
	Closed    *pz.Estimate      `json:"settling_closed,omitempty"`
	Errors    map[string]string `json:"errors,omitempty"`
	Config    *config.Config    `json:"config"`
}

func slug(name string) string {
	if name == "" {
		return "analysis"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			return r
		case r >= 'A' && r <= 'Z':
			return r + 'a' - 'A'
		}
		return '_'
	}, name)
}

// Save writes the configuration, the report, and its series to a new run
// directory and returns the run ID.
func (s *Store) Save(cfg *config.Config, report *experiment.Report) (string, error) {
	runID := fmt.Sprintf("%s_%s", slug(cfg.Name), uuid.NewString()[:8])
	runDir := s.Dir(runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:        runID,
		Name:      cfg.Name,
		Timestamp: time.Now(),
		Simulator: cfg.Simulator,
		Errors:    report.Errors,
		Config:    cfg,
	}
	if report.Settling != nil {
		meta.Settling = &report.Settling.Open
		meta.Closed = &report.Settling.Closed
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, reportFile), report); err != nil {
		return "", err
	}

	header, cols := responseColumns(&report.Responses)
	if err := writeCSV(filepath.Join(runDir, responsesFile), header, cols); err != nil {
		return "", err
	}
	if b := report.Bode; b != nil {
		err := writeCSV(filepath.Join(runDir, bodeFile),
			[]string{"omega", "mag_db", "phase_deg"}, [][]float64{b.Omega, b.MagDB, b.PhaseDeg})
		if err != nil {
			return "", err
		}
	}
	return runID, nil
}

// responseColumns lays the step responses that share the time grid out as
// CSV columns, time first.
func responseColumns(r *experiment.Responses) ([]string, [][]float64) {
	named := []struct {
		name string
		s    *timeresp.Series
	}{
		{"open", r.Open},
		{"closed", r.Closed},
		{"error", r.Error},
		{"disturbance", r.Disturbance},
		{"filtered", r.Filtered},
		{"perturbed_open", r.PerturbedOpen},
		{"perturbed_closed", r.PerturbedClosed},
	}
	header := []string{"time"}
	var cols [][]float64
	for _, n := range named {
		if n.s == nil {
			continue
		}
		if cols == nil {
			cols = append(cols, n.s.T)
		}
		header = append(header, n.name)
		cols = append(cols, n.s.Y)
	}
	if cols == nil {
		return nil, nil
	}
	return header, cols
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return WriteJSON(f, v)
}

func writeCSV(path string, header []string, cols [][]float64) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if len(cols) == 0 {
		w.Flush()
		return w.Error()
	}
	if err := w.Write(header); err != nil {
		return err
	}
	row := make([]string, len(cols))
	for i := range cols[0] {
		for j, c := range cols {
			row[j] = strconv.FormatFloat(c[i], 'g', 10, 64)
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// List returns saved runs, newest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.After(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.Dir(runID), metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (s *Store) LoadReport(runID string) (*experiment.Report, error) {
	data, err := os.ReadFile(filepath.Join(s.Dir(runID), reportFile))
	if err != nil {
		return nil, err
	}

	var report experiment.Report
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// LoadResponses reads the response CSV back as a header and columns.
func (s *Store) LoadResponses(runID string) ([]string, [][]float64, error) {
	return readCSV(filepath.Join(s.Dir(runID), responsesFile))
}

func (s *Store) ResponsesPath(runID string) string {
	return filepath.Join(s.Dir(runID), responsesFile)
}

func readCSV(path string) ([]string, [][]float64, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(records) < 2 {
		return nil, nil, ErrNoSeries
	}

	header := records[0]
	cols := make([][]float64, len(header))
	for _, record := range records[1:] {
		if len(record) != len(header) {
			continue
		}
		for j, field := range record {
			val, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, nil, fmt.Errorf("storage: %s: %w", path, err)
			}
			cols[j] = append(cols[j], val)
		}
	}
	return header, cols, nil
}
