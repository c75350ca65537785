// Package config holds the YAML configuration of gomfi runs.
package config

import (
	"fmt"
	"math"
	"os"

	mfi "github.com/rmera/gomfi"
	"github.com/rmera/gomfi/fes"
	"gopkg.in/yaml.v3"
)

const (
	DefaultBins      = 100
	DefaultHills     = "HILLS"
	DefaultColvar    = "position"
	DefaultOutput    = "."
	DefaultMethod    = "fft"
	DefaultTolerance = 1e-10
)

type Config struct {
	Name         string         `yaml:"name"`
	Hills        string         `yaml:"hills"`
	Colvar       string         `yaml:"colvar"`
	ColvarFields []string       `yaml:"colvar_fields,omitempty"`
	Walkers      []WalkerConfig `yaml:"walkers,omitempty"`
	Grid         GridConfig     `yaml:"grid"`
	MFI          MFIConfig      `yaml:"mfi"`
	FES          FESConfig      `yaml:"fes"`
	Output       string         `yaml:"output"`
}

// WalkerConfig gives the input files of one walker.
type WalkerConfig struct {
	Name   string `yaml:"name"`
	Hills  string `yaml:"hills"`
	Colvar string `yaml:"colvar"`
}

type GridConfig struct {
	Min       [2]float64 `yaml:"min"`
	Max       [2]float64 `yaml:"max"`
	Bins      [2]int     `yaml:"bins"`
	Periodic  [2]bool    `yaml:"periodic"`
	Extension float64    `yaml:"extension"`
}

type MFIConfig struct {
	Bandwidth    float64 `yaml:"bandwidth"`
	KT           float64 `yaml:"kt"`
	LogPace      int     `yaml:"log_pace"`
	ErrorPace    int     `yaml:"error_pace"`
	WellTempered bool    `yaml:"well_tempered"`
	NHills       int     `yaml:"nhills"`
	Cpus         int     `yaml:"cpus"`
}

type FESConfig struct {
	Method   string  `yaml:"method"`
	IntConst float64 `yaml:"int_const"`
	Tol      float64 `yaml:"tol"`
	MaxIter  int     `yaml:"max_iter"`
}

// DefaultConfig returns a configuration for a single periodic run on [-π, π]²,
// with the defaults of mfi.DefaultOptions.
func DefaultConfig() *Config {
	O := mfi.DefaultOptions()
	return &Config{
		Name:   "mfi",
		Hills:  DefaultHills,
		Colvar: DefaultColvar,
		Grid: GridConfig{
			Min:       [2]float64{-math.Pi, -math.Pi},
			Max:       [2]float64{math.Pi, math.Pi},
			Bins:      [2]int{DefaultBins, DefaultBins},
			Periodic:  [2]bool{true, true},
			Extension: mfi.DefaultExtension,
		},
		MFI: MFIConfig{
			Bandwidth:    O.Bandwidth,
			KT:           O.KT,
			LogPace:      O.LogPace,
			ErrorPace:    O.ErrorPace,
			WellTempered: O.WellTempered,
			NHills:       O.NHills,
			Cpus:         O.Cpus,
		},
		FES: FESConfig{
			Method: DefaultMethod,
			Tol:    DefaultTolerance,
		},
		Output: DefaultOutput,
	}
}

// Load reads the configuration in path. Values missing in the file keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks the values that can be checked without reading the inputs.
func (c *Config) Validate() error {
	if _, err := c.NewGrid(); err != nil {
		return err
	}
	if _, err := c.Method(); err != nil {
		return err
	}
	if c.ColvarFields != nil && len(c.ColvarFields) != 2 {
		return fmt.Errorf("config: 2 colvar fields needed, got %d", len(c.ColvarFields))
	}
	for i, w := range c.Walkers {
		if w.Hills == "" || w.Colvar == "" {
			return fmt.Errorf("config: walker %d needs both hills and colvar files", i)
		}
	}
	return nil
}

// NewGrid returns the grid described by the configuration.
func (c *Config) NewGrid() (*mfi.Grid, error) {
	g, err := mfi.NewGrid(c.Grid.Min, c.Grid.Max, c.Grid.Bins, c.Grid.Periodic)
	if err != nil {
		return nil, err
	}
	return g.WithExtension(c.Grid.Extension)
}

// Options returns the MFI options of the configuration. The observer is left as
// the default one.
func (c *Config) Options() *mfi.Options {
	O := mfi.DefaultOptions()
	O.Bandwidth = c.MFI.Bandwidth
	O.KT = c.MFI.KT
	O.LogPace = c.MFI.LogPace
	O.ErrorPace = c.MFI.ErrorPace
	O.WellTempered = c.MFI.WellTempered
	O.NHills = c.MFI.NHills
	if c.MFI.Cpus > 0 {
		O.Cpus = c.MFI.Cpus
	}
	O.Name = c.Name
	return O
}

// Method returns the integration method of the configuration.
func (c *Config) Method() (fes.Method, error) {
	return fes.ParseMethod(c.FES.Method)
}

// SparseOptions returns the options for the sparse integration.
func (c *Config) SparseOptions() *fes.SparseOptions {
	O := fes.DefaultSparseOptions()
	O.IntConst = c.FES.IntConst
	if c.FES.Tol > 0 {
		O.Tol = c.FES.Tol
	}
	O.MaxIter = c.FES.MaxIter
	return O
}
