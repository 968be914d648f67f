// Package config loads run configuration from TOML files.
//
// A config file collects the optimizer, pipeline, and output settings of a
// run so experiments are reproducible from a single checked-in file:
//
//	[input]
//	path = "iris.csv"
//	label_column = 4
//	has_header = true
//
//	[local]
//	n_epochs = 50
//	initial_alpha = 1.0
//	negative_sample_rate = 5.0
//
//	[global]
//	max_iter = 10
//	alpha = 0.01
//	compute_cost = true
//
//	[output]
//	path = "embedding.csv"
//	snapshot_dir = "snapshots"
//
// CLI flags override config values; config values override defaults.
package config

import (
	"os"

	"github.com/BurntSushi/toml"

	"github.com/HunRotation/umato/pkg/errors"
)

// Input selects and describes the dataset file.
type Input struct {
	Path        string `toml:"path"`
	LabelColumn int    `toml:"label_column"`
	HasHeader   bool   `toml:"has_header"`
}

// Local configures the local layout optimizer.
type Local struct {
	NEpochs            int     `toml:"n_epochs"`
	InitialAlpha       float64 `toml:"initial_alpha"`
	Gamma              float64 `toml:"gamma"`
	NegativeSampleRate float64 `toml:"negative_sample_rate"`
	Workers            int     `toml:"workers"`
}

// Global configures the global layout refiner.
type Global struct {
	MaxIter     int     `toml:"max_iter"`
	Alpha       float64 `toml:"alpha"`
	ComputeCost bool    `toml:"compute_cost"`
}

// Curve holds the similarity kernel shape parameters.
type Curve struct {
	A float64 `toml:"a"`
	B float64 `toml:"b"`
}

// Output configures where results land.
type Output struct {
	Path        string `toml:"path"`
	SnapshotDir string `toml:"snapshot_dir"`
	StoreDir    string `toml:"store_dir"`
}

// Config is a full run configuration.
type Config struct {
	Input  Input  `toml:"input"`
	Local  Local  `toml:"local"`
	Global Global `toml:"global"`
	Curve  Curve  `toml:"curve"`
	Output Output `toml:"output"`
	Seed   int64  `toml:"seed"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Input:  Input{LabelColumn: -1},
		Local:  Local{NEpochs: 50, InitialAlpha: 1.0, Gamma: 1.0, NegativeSampleRate: 5.0, Workers: 1},
		Global: Global{MaxIter: 10, Alpha: 0.01},
		Curve:  Curve{A: 1.577, B: 0.895},
		Seed:   42,
	}
}

// Load reads a TOML config file at path, layered over [Default]. Unknown
// keys are rejected so typos fail loudly instead of silently falling back to
// defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, errors.Wrap(errors.ErrCodeFileNotFound, err, "open config %s", path)
		}
		return cfg, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read config %s", path)
	}

	meta, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse config %s", path)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return cfg, errors.New(errors.ErrCodeInvalidConfig, "config %s: unknown key %q", path, undecoded[0].String())
	}

	return cfg, cfg.validate()
}

func (c Config) validate() error {
	if c.Local.NEpochs < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "local.n_epochs must be non-negative, got %d", c.Local.NEpochs)
	}
	if c.Global.MaxIter < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "global.max_iter must be non-negative, got %d", c.Global.MaxIter)
	}
	if c.Curve.A <= 0 || c.Curve.B <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "curve parameters must be positive, got a=%v b=%v", c.Curve.A, c.Curve.B)
	}
	return nil
}
