package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/tfsim/internal/control"
	"github.com/san-kum/tfsim/internal/lti"
	"github.com/san-kum/tfsim/internal/pz"
)

const (
	DefaultTimeStop        = 50.0
	DefaultTimePoints      = 1000
	DefaultFreqMin         = -2.0
	DefaultFreqMax         = 2.0
	DefaultFreqPoints      = 500
	DefaultPerturbTime     = 20.0
	DefaultPerturbAmp      = 0.5
	DefaultDiscretePeriods = 50
	DefaultDiscretePoints  = 500
	DefaultTsMultiplier    = 0.5
	DefaultDesiredOrder    = 2
	DefaultLocusMaxGain    = 50.0
	DefaultLocusPoints     = 200
	DefaultPIDStop         = 40.0
	DefaultPIDPoints       = 400
	DefaultSimulator       = "zoh"
)

var ErrInvalid = errors.New("config: invalid configuration")

// SystemConfig is a zero/pole/gain description. Roots within lti.OriginTol
// of the origin are dropped when the system is built.
type SystemConfig struct {
	Zeros []float64 `yaml:"zeros" json:"zeros,omitempty"`
	Poles []float64 `yaml:"poles" json:"poles,omitempty"`
	Gain  float64   `yaml:"gain" json:"gain,omitempty" default:"1"`
}

func (s SystemConfig) System() (lti.System, error) {
	return lti.FromZPK(s.Zeros, s.Poles, s.Gain)
}

// FilterConfig is the output filter F(s) = gain / prod(s - p).
type FilterConfig struct {
	Enabled bool      `yaml:"enabled" json:"enabled,omitempty"`
	Poles   []float64 `yaml:"poles" json:"poles,omitempty"`
	Gain    float64   `yaml:"gain" json:"gain,omitempty" default:"1"`
}

// System returns F(s), or unity when the filter is off or has no poles.
func (f FilterConfig) System() (lti.System, error) {
	if !f.Enabled || len(f.Poles) == 0 {
		return lti.Unity(), nil
	}
	return lti.New(lti.Poly{f.Gain}, lti.FromRealRoots(f.Poles))
}

type TimeConfig struct {
	Start  float64 `yaml:"start" json:"start,omitempty"`
	Stop   float64 `yaml:"stop" json:"stop,omitempty" default:"50"`
	Points int     `yaml:"points" json:"points,omitempty" default:"1000"`
}

// FrequencyConfig spans 10^Min to 10^Max rad/s.
type FrequencyConfig struct {
	Min    float64 `yaml:"min" json:"min,omitempty" default:"-2"`
	Max    float64 `yaml:"max" json:"max,omitempty" default:"2"`
	Points int     `yaml:"points" json:"points,omitempty" default:"500"`
}

type PerturbationConfig struct {
	Time      float64 `yaml:"time" json:"time,omitempty" default:"20"`
	Amplitude float64 `yaml:"amplitude" json:"amplitude,omitempty" default:"0.5"`
}

// DiscreteConfig enables the Tustin comparison when Ts is positive. The
// continuous reference runs over Periods*Ts with Points samples.
type DiscreteConfig struct {
	Ts      float64 `yaml:"ts" json:"ts,omitempty"`
	Periods int     `yaml:"periods" json:"periods,omitempty" default:"50"`
	Points  int     `yaml:"points" json:"points,omitempty" default:"500"`
}

type AllocationConfig struct {
	TsMultiplier float64 `yaml:"ts_multiplier" json:"ts_multiplier,omitempty" default:"0.5"`
	Order        int     `yaml:"order" json:"order,omitempty" default:"2"`
	Kind         string  `yaml:"kind" json:"kind,omitempty" default:"2nd_equal"`
}

type LocusConfig struct {
	Enabled bool    `yaml:"enabled" json:"enabled,omitempty"`
	MaxGain float64 `yaml:"max_gain" json:"max_gain,omitempty" default:"50"`
	Points  int     `yaml:"points" json:"points,omitempty" default:"200"`
	Log     bool    `yaml:"log" json:"log,omitempty"`
}

type PIDConfig struct {
	Enabled bool           `yaml:"enabled" json:"enabled,omitempty"`
	Params  control.Params `yaml:"params" json:"params,omitempty"`
	Stop    float64        `yaml:"stop" json:"stop,omitempty" default:"40"`
	Points  int            `yaml:"points" json:"points,omitempty" default:"400"`
}

// Config enumerates every input of an analysis request.
type Config struct {
	Name         string             `yaml:"name" json:"name,omitempty"`
	Plant        SystemConfig       `yaml:"plant" json:"plant,omitempty"`
	Controller   SystemConfig       `yaml:"controller" json:"controller,omitempty"`
	Filter       FilterConfig       `yaml:"filter" json:"filter,omitempty"`
	Time         TimeConfig         `yaml:"time" json:"time,omitempty"`
	Frequency    FrequencyConfig    `yaml:"frequency" json:"frequency,omitempty"`
	Perturbation PerturbationConfig `yaml:"perturbation" json:"perturbation,omitempty"`
	Discrete     DiscreteConfig     `yaml:"discrete" json:"discrete,omitempty"`
	Allocation   AllocationConfig   `yaml:"allocation" json:"allocation,omitempty"`
	Locus        LocusConfig        `yaml:"locus" json:"locus,omitempty"`
	PID          PIDConfig          `yaml:"pid" json:"pid,omitempty"`
	Snap         pz.SnapConfig      `yaml:"snap" json:"snap,omitempty"`
	Simulator    string             `yaml:"simulator" json:"simulator,omitempty" default:"zoh"`
}

func DefaultConfig() *Config {
	return &Config{
		Plant:      SystemConfig{Zeros: []float64{}, Poles: []float64{-1}, Gain: 1},
		Controller: SystemConfig{Zeros: []float64{}, Poles: []float64{}, Gain: 1},
		Filter:     FilterConfig{Poles: []float64{}, Gain: 1},
		Time:       TimeConfig{Stop: DefaultTimeStop, Points: DefaultTimePoints},
		Frequency:  FrequencyConfig{Min: DefaultFreqMin, Max: DefaultFreqMax, Points: DefaultFreqPoints},
		Perturbation: PerturbationConfig{
			Time:      DefaultPerturbTime,
			Amplitude: DefaultPerturbAmp,
		},
		Discrete: DiscreteConfig{Periods: DefaultDiscretePeriods, Points: DefaultDiscretePoints},
		Allocation: AllocationConfig{
			TsMultiplier: DefaultTsMultiplier,
			Order:        DefaultDesiredOrder,
			Kind:         pz.SecondEqual,
		},
		Locus: LocusConfig{Enabled: true, MaxGain: DefaultLocusMaxGain, Points: DefaultLocusPoints},
		PID: PIDConfig{
			Params: control.DefaultParams(),
			Stop:   DefaultPIDStop,
			Points: DefaultPIDPoints,
		},
		Snap:      pz.DefaultSnapConfig(),
		Simulator: DefaultSimulator,
	}
}

// rootless reports a system given without either root list.
func (s SystemConfig) rootless() bool {
	return s.Zeros == nil && s.Poles == nil
}

// ApplyDefaults fills omitted sections and non-positive counts from
// DefaultConfig. A plant without root lists takes the default poles, and
// a zero gain becomes 1; pass an explicit empty list for a static plant.
func (c *Config) ApplyDefaults() {
	d := DefaultConfig()
	if c.Plant.rootless() {
		c.Plant.Zeros, c.Plant.Poles = d.Plant.Zeros, d.Plant.Poles
	}
	if c.Plant.Gain == 0 {
		c.Plant.Gain = d.Plant.Gain
	}
	if c.Controller.Gain == 0 {
		c.Controller.Gain = d.Controller.Gain
	}
	if c.Filter.Enabled && c.Filter.Gain == 0 {
		c.Filter.Gain = d.Filter.Gain
	}
	if c.Time.Points <= 0 {
		c.Time.Points = d.Time.Points
	}
	if c.Time.Stop == 0 && c.Time.Start == 0 {
		c.Time.Stop = d.Time.Stop
	}
	if c.Frequency.Points <= 0 {
		c.Frequency.Points = d.Frequency.Points
	}
	if c.Frequency.Min == 0 && c.Frequency.Max == 0 {
		c.Frequency.Min, c.Frequency.Max = d.Frequency.Min, d.Frequency.Max
	}
	if c.Discrete.Periods <= 0 {
		c.Discrete.Periods = d.Discrete.Periods
	}
	if c.Discrete.Points <= 0 {
		c.Discrete.Points = d.Discrete.Points
	}
	if c.Allocation.TsMultiplier == 0 {
		c.Allocation.TsMultiplier = d.Allocation.TsMultiplier
	}
	if c.Allocation.Order == 0 {
		c.Allocation.Order = d.Allocation.Order
	}
	if c.Allocation.Kind == "" {
		c.Allocation.Kind = d.Allocation.Kind
	}
	if c.Locus.MaxGain == 0 {
		c.Locus.MaxGain = d.Locus.MaxGain
	}
	if c.Locus.Points <= 0 {
		c.Locus.Points = d.Locus.Points
	}
	if c.PID.Params.Kind == "" {
		c.PID.Params = d.PID.Params
	}
	if c.PID.Stop == 0 {
		c.PID.Stop = d.PID.Stop
	}
	if c.PID.Points <= 0 {
		c.PID.Points = d.PID.Points
	}
	if c.Snap == (pz.SnapConfig{}) {
		c.Snap = d.Snap
	}
	if c.Simulator == "" {
		c.Simulator = d.Simulator
	}
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

func (c *Config) Validate() error {
	if c.Time.Points < 2 || !(c.Time.Stop > c.Time.Start) {
		return invalid("time range [%g, %g] with %d points", c.Time.Start, c.Time.Stop, c.Time.Points)
	}
	if c.Frequency.Points < 2 || !(c.Frequency.Max > c.Frequency.Min) {
		return invalid("frequency decades [%g, %g] with %d points", c.Frequency.Min, c.Frequency.Max, c.Frequency.Points)
	}
	if c.Discrete.Ts < 0 {
		return fmt.Errorf("%w: %w: ts=%g", ErrInvalid, lti.ErrInvalidSampleTime, c.Discrete.Ts)
	}
	if c.Discrete.Ts > 0 && (c.Discrete.Periods < 1 || c.Discrete.Points < 2) {
		return invalid("discrete comparison needs periods >= 1 and points >= 2")
	}
	if !(c.Allocation.TsMultiplier > 0) {
		return invalid("ts multiplier %g", c.Allocation.TsMultiplier)
	}
	if c.Allocation.Order < 1 {
		return invalid("desired order %d", c.Allocation.Order)
	}
	if c.Allocation.Kind != pz.SecondEqual && c.Allocation.Kind != pz.SecondDistinct {
		return invalid("desired pole kind %q", c.Allocation.Kind)
	}
	if c.Locus.Enabled && (!(c.Locus.MaxGain > 0) || c.Locus.Points < 2) {
		return invalid("locus max gain %g with %d points", c.Locus.MaxGain, c.Locus.Points)
	}
	if c.PID.Enabled {
		if err := c.PID.Params.Validate(); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalid, err)
		}
		if c.PID.Points < 2 || !(c.PID.Stop > 0) {
			return invalid("pid horizon %g with %d points", c.PID.Stop, c.PID.Points)
		}
	}
	return nil
}

// CheckLimits rejects grids larger than max samples. A max of zero disables
// the check.
func (c *Config) CheckLimits(max int) error {
	if max <= 0 {
		return nil
	}
	for name, n := range map[string]int{
		"time":      c.Time.Points,
		"frequency": c.Frequency.Points,
		"discrete":  c.Discrete.Points,
		"locus":     c.Locus.Points,
		"pid":       c.PID.Points,
	} {
		if n > max {
			return invalid("%s grid of %d points exceeds limit %d", name, n, max)
		}
	}
	return nil
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
