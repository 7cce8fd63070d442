package config

import (
	"sort"

	"github.com/san-kum/tfsim/internal/control"
)

// presets builds a fresh copy on every call so callers may modify the result.
func presets() map[string]map[string]*Config {
	with := func(name string, edit func(*Config)) *Config {
		c := DefaultConfig()
		c.Name = name
		edit(c)
		return c
	}
	return map[string]map[string]*Config{
		"open-loop": {
			"first-order": with("first-order", func(c *Config) {
				c.Plant.Poles = []float64{-1}
			}),
			"second-order": with("second-order", func(c *Config) {
				c.Plant.Poles = []float64{-1, -2}
			}),
			"lead-zero": with("lead-zero", func(c *Config) {
				c.Plant = SystemConfig{Zeros: []float64{-3}, Poles: []float64{-1, -2}, Gain: 1}
			}),
			"triple-pole": with("triple-pole", func(c *Config) {
				c.Plant.Poles = []float64{-1, -1, -1}
			}),
		},
		"closed-loop": {
			"unity": with("unity", func(c *Config) {
				c.Plant.Poles = []float64{-1, -2}
				c.Controller.Gain = 1
			}),
			"high-gain": with("high-gain", func(c *Config) {
				c.Plant.Poles = []float64{-1, -2}
				c.Controller.Gain = 10
			}),
			"lag-compensated": with("lag-compensated", func(c *Config) {
				c.Plant.Poles = []float64{-1, -2}
				c.Controller = SystemConfig{Zeros: []float64{-0.5}, Poles: []float64{-0.05}, Gain: 5}
			}),
			"filtered": with("filtered", func(c *Config) {
				c.Plant.Poles = []float64{-1, -2}
				c.Controller.Gain = 4
				c.Filter = FilterConfig{Enabled: true, Poles: []float64{-5}, Gain: 5}
			}),
		},
		"allocation": {
			"slow-plant": with("slow-plant", func(c *Config) {
				c.Plant.Poles = []float64{-0.0758}
				c.Time.Stop = 50
			}),
			"distinct": with("distinct", func(c *Config) {
				c.Plant.Poles = []float64{-0.5, -1}
				c.Allocation.Kind = "2nd_distinct"
			}),
			"third-order": with("third-order", func(c *Config) {
				c.Plant.Poles = []float64{-1, -2, -3}
				c.Allocation.Order = 3
			}),
		},
		"discrete": {
			"tustin": with("tustin", func(c *Config) {
				c.Plant.Poles = []float64{-1}
				c.Discrete.Ts = 0.1
			}),
			"coarse": with("coarse", func(c *Config) {
				c.Plant.Poles = []float64{-1, -2}
				c.Discrete.Ts = 0.5
			}),
		},
		"pid": {
			"pi": with("pi", func(c *Config) {
				c.Plant.Poles = []float64{-1, -2}
				c.PID.Enabled = true
				c.PID.Params = control.Params{Kind: control.PI, K: 2, Ti: 1, Td: 0, N: 10}
			}),
			"pid": with("pid", func(c *Config) {
				c.Plant.Poles = []float64{-1, -2}
				c.PID.Enabled = true
				c.PID.Params = control.DefaultParams()
			}),
			"pd": with("pd", func(c *Config) {
				c.Plant.Poles = []float64{-0.5, -3}
				c.PID.Enabled = true
				c.PID.Params = control.Params{Kind: control.PD, K: 3, Td: 0.5, N: 10}
			}),
		},
	}
}

func GetPreset(group, preset string) *Config {
	groupPresets, ok := presets()[group]
	if !ok {
		return nil
	}
	cfg, ok := groupPresets[preset]
	if !ok {
		return nil
	}
	return cfg
}

func ListPresets(group string) []string {
	groupPresets, ok := presets()[group]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(groupPresets))
	for name := range groupPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func ListGroups() []string {
	all := presets()
	names := make([]string, 0, len(all))
	for name := range all {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
