package config

// Presets are complete ready-to-run configurations. Each is built on top of
// the defaults so only the fields that define the scenario appear here.
var Presets = map[string]func() *Config{
	"lj-fluid": func() *Config {
		return DefaultConfig()
	},
	"lj-crystal": func() *Config {
		cfg := DefaultConfig()
		cfg.Name = "lj-crystal"
		cfg.Cell.Length = 6.4
		cfg.Particles.Count = 216
		cfg.Particles.InitTemp = 10
		cfg.Forces.CutoffPolicy = "shift_force"
		cfg.Run.Steps = 2000
		return cfg
	},
	"soft-gas": func() *Config {
		cfg := DefaultConfig()
		cfg.Name = "soft-gas"
		cfg.Cell.Length = 12
		cfg.Particles.Count = 64
		cfg.Particles.InitTemp = 300
		cfg.Forces.LennardJones = false
		cfg.Forces.SoftSphere = true
		cfg.Thermostat = ThermostatConfig{Kind: "berendsen", Target: 300, Tau: 0.1}
		return cfg
	},
	"salt-melt": func() *Config {
		cfg := DefaultConfig()
		cfg.Name = "salt-melt"
		cfg.Cell.Length = 7
		cfg.Particles.Count = 128
		cfg.Particles.Charge = 1
		cfg.Particles.Alternate = true
		cfg.Particles.InitTemp = 1200
		cfg.Forces.Coulomb = true
		cfg.Forces.Dielectric = 1
		cfg.Forces.Cutoff = 3
		cfg.Thermostat = ThermostatConfig{Kind: "rescale", Target: 1200, Every: 50}
		return cfg
	},
	"stormer-drift": func() *Config {
		cfg := DefaultConfig()
		cfg.Name = "stormer-drift"
		cfg.Integrator = "stormer"
		cfg.Particles.InitTemp = 0
		cfg.Run.Steps = 5000
		return cfg
	},
}

func GetPreset(name string) *Config {
	mk, ok := Presets[name]
	if !ok {
		return nil
	}
	return mk()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	return names
}
