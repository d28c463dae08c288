// Package config holds the generator's numeric tuning surface: the
// strictness profile that governs the acceptance threshold, the
// no-improvement tolerance, and the patience before giving up. This is
// distinct from the GeoScript source itself — a CLI (out of scope for this
// module) would expose these as flags or load them from a file with
// config.LoadStrictnessProfile; the core only needs the parsed struct.
package config

import (
	"time"

	"gopkg.in/yaml.v2"
)

// StrictnessProfile parameterizes generator.Coordinator termination.
type StrictnessProfile struct {
	// Tau is the quality threshold at which a run is considered converged.
	Tau float64 `yaml:"tau"`
	// Epsilon is the minimum quality improvement that counts as progress.
	Epsilon float64 `yaml:"epsilon"`
	// Patience is the number of consecutive no-improvement cycles tolerated
	// before the coordinator gives up and returns its best base.
	Patience int `yaml:"patience"`
	// MaxCycles is a hard cap on coordinator cycles regardless of progress.
	MaxCycles int `yaml:"max_cycles"`
	// Budget is a hard wall-clock cap; zero means no budget.
	Budget time.Duration `yaml:"budget"`
	// Seed seeds every worker's independent RNG stream, deterministically,
	// as Seed+workerID. Zero is an ordinary seed and is used as given;
	// nothing substitutes a time-based seed (config stays free of
	// nondeterminism so two profiles loaded from the same bytes compare
	// equal).
	Seed int64 `yaml:"seed"`
	// Workers is the worker pool size. Zero means runtime.GOMAXPROCS(0).
	Workers int `yaml:"workers"`
}

// Default returns the strictness profile named in spec.md §4.5: τ = 1 −
// 10⁻⁶, a small ε, generous patience, and a million-cycle backstop.
func Default() StrictnessProfile {
	return StrictnessProfile{
		Tau:       1 - 1e-6,
		Epsilon:   1e-9,
		Patience:  500,
		MaxCycles: 1_000_000,
		Budget:    30 * time.Second,
		Seed:      1,
		Workers:   0,
	}
}

// Parse decodes a YAML strictness profile, filling unset fields from
// Default().
func Parse(data []byte) (StrictnessProfile, error) {
	p := Default()
	if err := yaml.Unmarshal(data, &p); err != nil {
		return StrictnessProfile{}, err
	}
	return p, nil
}
