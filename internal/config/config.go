package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml"
	"gopkg.in/yaml.v3"
)

const (
	DefaultDt           = 0.002
	DefaultSteps        = 1000
	DefaultCutoff       = 2.5
	DefaultSkin         = 0.3
	DefaultRebuildEvery = 10
	DefaultMaxIter      = 500
	DefaultTolerance    = 1e-8
)

type Config struct {
	Name        string           `yaml:"name" toml:"name"`
	Cell        CellConfig       `yaml:"cell" toml:"cell"`
	Particles   ParticleConfig   `yaml:"particles" toml:"particles"`
	Forces      ForceConfig      `yaml:"forces" toml:"forces"`
	Neighbor    NeighborConfig   `yaml:"neighbor" toml:"neighbor"`
	Integrator  string           `yaml:"integrator" toml:"integrator"`
	Thermostat  ThermostatConfig `yaml:"thermostat" toml:"thermostat"`
	Bonds       []BondConfig     `yaml:"bonds,omitempty" toml:"bonds,omitempty"`
	Constraints ConstraintConfig `yaml:"constraints" toml:"constraints"`
	Run         RunConfig        `yaml:"run" toml:"run"`
}

type CellConfig struct {
	// Kind is cubic, orthorhombic or triclinic.
	Kind    string     `yaml:"kind" toml:"kind"`
	Length  float64    `yaml:"length,omitempty" toml:"length,omitempty"`
	Lengths [3]float64 `yaml:"lengths,omitempty" toml:"lengths,omitempty"`
	A       [3]float64 `yaml:"a,omitempty" toml:"a,omitempty"`
	B       [3]float64 `yaml:"b,omitempty" toml:"b,omitempty"`
	C       [3]float64 `yaml:"c,omitempty" toml:"c,omitempty"`
}

type ParticleConfig struct {
	Count   int     `yaml:"count" toml:"count"`
	Mass    float64 `yaml:"mass" toml:"mass"`
	Charge  float64 `yaml:"charge" toml:"charge"`
	Sigma   float64 `yaml:"sigma" toml:"sigma"`
	Epsilon float64 `yaml:"epsilon" toml:"epsilon"`
	// Alternate negates the charge on every second particle, which gives a
	// neutral ionic lattice without per-particle tables.
	Alternate bool    `yaml:"alternate_charge" toml:"alternate_charge"`
	InitTemp  float64 `yaml:"init_temp" toml:"init_temp"`
	Seed      int64   `yaml:"seed" toml:"seed"`
}

type ForceConfig struct {
	LennardJones bool    `yaml:"lennard_jones" toml:"lennard_jones"`
	SoftSphere   bool    `yaml:"soft_sphere" toml:"soft_sphere"`
	Coulomb      bool    `yaml:"coulomb" toml:"coulomb"`
	Mixing       string  `yaml:"mixing" toml:"mixing"`
	Dielectric   float64 `yaml:"dielectric,omitempty" toml:"dielectric,omitempty"`
	Weight14     float64 `yaml:"weight_14,omitempty" toml:"weight_14,omitempty"`
	Mode14       string  `yaml:"mode_14,omitempty" toml:"mode_14,omitempty"`
	Cutoff       float64 `yaml:"cutoff" toml:"cutoff"`
	// CutoffPolicy is none, hard, shift_potential or shift_force.
	CutoffPolicy string `yaml:"cutoff_policy" toml:"cutoff_policy"`
}

type NeighborConfig struct {
	// Finder is brute, cell or tree.
	Finder string `yaml:"finder" toml:"finder"`
	// Skin widens the finder cutoff beyond the force cutoff so pairs drifting
	// inward between rebuilds are already listed.
	Skin         float64 `yaml:"skin" toml:"skin"`
	RebuildEvery int     `yaml:"rebuild_every" toml:"rebuild_every"`
}

type ThermostatConfig struct {
	// Kind is none, rescale or berendsen.
	Kind   string  `yaml:"kind" toml:"kind"`
	Target float64 `yaml:"target,omitempty" toml:"target,omitempty"`
	Tau    float64 `yaml:"tau,omitempty" toml:"tau,omitempty"`
	Every  int     `yaml:"every,omitempty" toml:"every,omitempty"`
}

type BondConfig struct {
	I  int     `yaml:"i" toml:"i"`
	J  int     `yaml:"j" toml:"j"`
	K  float64 `yaml:"k" toml:"k"`
	R0 float64 `yaml:"r0" toml:"r0"`
}

type ConstraintConfig struct {
	Pairs     []BondConfig `yaml:"pairs,omitempty" toml:"pairs,omitempty"`
	Tolerance float64      `yaml:"tolerance,omitempty" toml:"tolerance,omitempty"`
	MaxIter   int          `yaml:"max_iter,omitempty" toml:"max_iter,omitempty"`
}

type RunConfig struct {
	Dt    float64 `yaml:"dt" toml:"dt"`
	Steps int     `yaml:"steps" toml:"steps"`
}

func DefaultConfig() *Config {
	return &Config{
		Name: "lj-fluid",
		Cell: CellConfig{Kind: "cubic", Length: 8},
		Particles: ParticleConfig{
			Count:    125,
			Mass:     1,
			Sigma:    1,
			Epsilon:  1,
			InitTemp: 120,
			Seed:     42,
		},
		Forces: ForceConfig{
			LennardJones: true,
			Mixing:       "geometric",
			Cutoff:       DefaultCutoff,
			CutoffPolicy: "shift_potential",
		},
		Neighbor:   NeighborConfig{Finder: "cell", Skin: DefaultSkin, RebuildEvery: DefaultRebuildEvery},
		Integrator: "velocity-verlet",
		Thermostat: ThermostatConfig{Kind: "none"},
		Constraints: ConstraintConfig{
			Tolerance: DefaultTolerance,
			MaxIter:   DefaultMaxIter,
		},
		Run: RunConfig{Dt: DefaultDt, Steps: DefaultSteps},
	}
}

// Load reads a config file, choosing the decoder from the extension. Fields
// absent from the file keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(data, cfg)
	case ".yaml", ".yml", "":
		err = yaml.Unmarshal(data, cfg)
	default:
		return nil, fmt.Errorf("unsupported config extension %q", filepath.Ext(path))
	}
	if err != nil {
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

// Validate rejects configurations that cannot produce a runnable setup.
// Configuration errors are fatal; nothing downstream attempts to repair them.
func (c *Config) Validate() error {
	switch c.Cell.Kind {
	case "cubic":
		if c.Cell.Length <= 0 {
			return fmt.Errorf("cubic cell needs a positive length, got %f", c.Cell.Length)
		}
	case "orthorhombic":
		for i, l := range c.Cell.Lengths {
			if l <= 0 {
				return fmt.Errorf("orthorhombic cell length %d must be positive, got %f", i, l)
			}
		}
	case "triclinic":
	default:
		return fmt.Errorf("unknown cell kind %q", c.Cell.Kind)
	}
	if c.Particles.Count <= 0 {
		return fmt.Errorf("particle count must be positive, got %d", c.Particles.Count)
	}
	if c.Particles.Mass <= 0 {
		return fmt.Errorf("particle mass must be positive, got %f", c.Particles.Mass)
	}
	if !c.Forces.LennardJones && !c.Forces.SoftSphere && !c.Forces.Coulomb && len(c.Bonds) == 0 {
		return fmt.Errorf("no interactions enabled")
	}
	if c.Forces.Cutoff <= 0 {
		return fmt.Errorf("cutoff must be positive, got %f", c.Forces.Cutoff)
	}
	switch c.Forces.CutoffPolicy {
	case "", "none", "hard", "shift_potential", "shift_force":
	default:
		return fmt.Errorf("unknown cutoff policy %q", c.Forces.CutoffPolicy)
	}
	switch c.Forces.Mixing {
	case "", "geometric", "arithmetic":
	default:
		return fmt.Errorf("unknown mixing rule %q", c.Forces.Mixing)
	}
	switch c.Neighbor.Finder {
	case "brute", "cell", "tree":
	default:
		return fmt.Errorf("unknown neighbor finder %q", c.Neighbor.Finder)
	}
	if c.Neighbor.Skin < 0 {
		return fmt.Errorf("neighbor skin must not be negative, got %f", c.Neighbor.Skin)
	}
	if c.Neighbor.RebuildEvery <= 0 {
		return fmt.Errorf("rebuild cadence must be positive, got %d", c.Neighbor.RebuildEvery)
	}
	switch c.Integrator {
	case "velocity-verlet", "stormer":
	default:
		return fmt.Errorf("unknown integrator %q", c.Integrator)
	}
	switch c.Thermostat.Kind {
	case "", "none", "rescale", "berendsen":
	default:
		return fmt.Errorf("unknown thermostat %q", c.Thermostat.Kind)
	}
	if c.Integrator == "stormer" {
		if c.Thermostat.Kind != "" && c.Thermostat.Kind != "none" {
			return fmt.Errorf("the stormer integrator does not support thermostats")
		}
		if len(c.Constraints.Pairs) > 0 {
			return fmt.Errorf("the stormer integrator does not support constraints")
		}
	}
	if c.Run.Dt <= 0 {
		return fmt.Errorf("dt must be positive, got %f", c.Run.Dt)
	}
	if c.Run.Steps <= 0 {
		return fmt.Errorf("steps must be positive, got %d", c.Run.Steps)
	}
	return nil
}
