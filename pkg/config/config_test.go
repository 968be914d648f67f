package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/HunRotation/umato/pkg/errors"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "umato.toml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
seed = 7

[input]
path = "iris.csv"
label_column = 4
has_header = true

[local]
n_epochs = 200

[global]
compute_cost = true
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Seed != 7 {
		t.Errorf("seed = %d, want 7", cfg.Seed)
	}
	if cfg.Input.Path != "iris.csv" || cfg.Input.LabelColumn != 4 || !cfg.Input.HasHeader {
		t.Errorf("input section not applied: %+v", cfg.Input)
	}
	if cfg.Local.NEpochs != 200 {
		t.Errorf("local.n_epochs = %d, want 200", cfg.Local.NEpochs)
	}
	if !cfg.Global.ComputeCost {
		t.Error("global.compute_cost not applied")
	}

	// Untouched keys keep their defaults.
	def := Default()
	if cfg.Local.InitialAlpha != def.Local.InitialAlpha {
		t.Errorf("local.initial_alpha = %v, want default %v", cfg.Local.InitialAlpha, def.Local.InitialAlpha)
	}
	if cfg.Curve != def.Curve {
		t.Errorf("curve = %+v, want default %+v", cfg.Curve, def.Curve)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := writeConfig(t, `
[local]
n_epochz = 100
`)
	_, err := Load(path)
	if err == nil {
		t.Fatal("expected error for unknown key")
	}
	if !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("got code %q, want INVALID_CONFIG", errors.GetCode(err))
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"negative epochs", "[local]\nn_epochs = -1\n"},
		{"negative max iter", "[global]\nmax_iter = -5\n"},
		{"non-positive curve", "[curve]\na = 0.0\nb = 1.0\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			if !errors.Is(err, errors.ErrCodeInvalidConfig) {
				t.Errorf("got %v, want INVALID_CONFIG", err)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("got %v, want FILE_NOT_FOUND", err)
	}
}

func TestLoadMalformedTOML(t *testing.T) {
	_, err := Load(writeConfig(t, "[local\nbroken"))
	if !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("got %v, want INVALID_CONFIG", err)
	}
}
