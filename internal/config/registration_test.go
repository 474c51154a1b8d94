package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/banshee-data/scanmatch/internal/lidar/factor"
	"github.com/banshee-data/scanmatch/internal/lidar/solver"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}
	return path
}

func TestLoadRegistrationConfig(t *testing.T) {
	path := writeConfig(t, "registration.json", `{
  "max_iterations": 20,
  "function_tolerance": 1e-8,
  "initial_lambda": 0.01,
  "loss": "huber",
  "loss_scale": 0.25,
  "workers": 4,
  "feature_mode": "loam",
  "scan_period": "50ms",
  "verbose": true
}`)

	cfg, err := LoadRegistrationConfig(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if got := cfg.GetMaxIterations(); got != 20 {
		t.Errorf("GetMaxIterations() = %d, want 20", got)
	}
	if got := cfg.GetFunctionTolerance(); got != 1e-8 {
		t.Errorf("GetFunctionTolerance() = %g, want 1e-8", got)
	}
	if got := cfg.GetFeatureMode(); got != factor.ModeLOAM {
		t.Errorf("GetFeatureMode() = %q, want loam", got)
	}
	if got := cfg.GetScanPeriod(); got != 50*time.Millisecond {
		t.Errorf("GetScanPeriod() = %v, want 50ms", got)
	}
	loss, err := cfg.GetLoss()
	if err != nil {
		t.Fatalf("GetLoss() error: %v", err)
	}
	if loss != (solver.HuberLoss{Scale: 0.25}) {
		t.Errorf("GetLoss() = %#v", loss)
	}

	opts := cfg.SolverOptions()
	want := solver.Options{
		MaxIterations:      20,
		FunctionTolerance:  1e-8,
		ParameterTolerance: 1e-8,
		GradientTolerance:  1e-10,
		InitialLambda:      0.01,
		Workers:            4,
		Verbose:            true,
	}
	if opts != want {
		t.Errorf("SolverOptions() = %+v, want %+v", opts, want)
	}
}

func TestGetterDefaults(t *testing.T) {
	cfg := EmptyRegistrationConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty config should validate: %v", err)
	}
	if got, want := cfg.SolverOptions(), solver.DefaultOptions(); got != want {
		t.Errorf("SolverOptions() = %+v, want %+v", got, want)
	}
	if cfg.GetFeatureMode() != factor.ModeAll {
		t.Errorf("GetFeatureMode() = %q, want all", cfg.GetFeatureMode())
	}
	if cfg.GetScanPeriod() != 100*time.Millisecond {
		t.Errorf("GetScanPeriod() = %v, want 100ms", cfg.GetScanPeriod())
	}
	if cfg.GetLossScale() != 0.1 {
		t.Errorf("GetLossScale() = %g, want 0.1", cfg.GetLossScale())
	}
	if loss, err := cfg.GetLoss(); err != nil || loss != (solver.TrivialLoss{}) {
		t.Errorf("GetLoss() = %#v, %v", loss, err)
	}
	if cfg.GetGaussNewton() || cfg.GetVerbose() || cfg.GetWorkers() != 0 {
		t.Error("boolean and worker defaults should be zero")
	}
}

func TestLoadDefaultConfigFile(t *testing.T) {
	cfg := MustLoadDefaultConfig()
	if got, want := cfg.SolverOptions(), solver.DefaultOptions(); got != want {
		t.Errorf("defaults file disagrees with solver.DefaultOptions:\n got %+v\nwant %+v", got, want)
	}
	if cfg.GetFeatureMode() != factor.ModeAll {
		t.Errorf("GetFeatureMode() = %q", cfg.GetFeatureMode())
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     RegistrationConfig
		wantErr string
	}{
		{"empty", RegistrationConfig{}, ""},
		{"zero iterations", RegistrationConfig{MaxIterations: ptrInt(0)}, "max_iterations"},
		{"negative tolerance", RegistrationConfig{GradientTolerance: ptrFloat64(-1)}, "gradient_tolerance"},
		{"zero lambda", RegistrationConfig{InitialLambda: ptrFloat64(0)}, "initial_lambda"},
		{"negative workers", RegistrationConfig{Workers: ptrInt(-2)}, "workers"},
		{"unknown loss", RegistrationConfig{Loss: ptrString("tukey")}, "unknown loss"},
		{"huber without scale", RegistrationConfig{Loss: ptrString("huber"), LossScale: ptrFloat64(0)}, "positive scale"},
		{"unknown mode", RegistrationConfig{FeatureMode: ptrString("ndt")}, "feature mode"},
		{"bad period", RegistrationConfig{ScanPeriod: ptrString("fast")}, "scan_period"},
		{"negative period", RegistrationConfig{ScanPeriod: ptrString("-1s")}, "scan_period"},
		{"valid", RegistrationConfig{
			MaxIterations: ptrInt(5),
			GaussNewton:   ptrBool(true),
			Loss:          ptrString("cauchy"),
			FeatureMode:   ptrString("icpn"),
			ScanPeriod:    ptrString("1s"),
		}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestUnknownLossIsTyped(t *testing.T) {
	cfg := RegistrationConfig{Loss: ptrString("tukey")}
	if _, err := cfg.GetLoss(); !errors.Is(err, solver.ErrUnknownLoss) {
		t.Errorf("GetLoss() error = %v, want ErrUnknownLoss", err)
	}
}

func TestLoadRegistrationConfigRejects(t *testing.T) {
	tests := []struct {
		name string
		path func(t *testing.T) string
	}{
		{"missing", func(t *testing.T) string { return filepath.Join(t.TempDir(), "nope.json") }},
		{"non json extension", func(t *testing.T) string { return writeConfig(t, "cfg.yaml", "{}") }},
		{"malformed", func(t *testing.T) string { return writeConfig(t, "cfg.json", "{not json") }},
		{"invalid values", func(t *testing.T) string { return writeConfig(t, "cfg.json", `{"max_iterations": -1}`) }},
		{"too large", func(t *testing.T) string {
			return writeConfig(t, "big.json", `{"loss": "`+strings.Repeat("x", 1024*1024)+`"}`)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadRegistrationConfig(tt.path(t)); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestInvalidGettersFallBack(t *testing.T) {
	cfg := RegistrationConfig{FeatureMode: ptrString("ndt"), ScanPeriod: ptrString("soon")}
	if cfg.GetFeatureMode() != factor.ModeAll {
		t.Errorf("GetFeatureMode() = %q, want all", cfg.GetFeatureMode())
	}
	if cfg.GetScanPeriod() != 100*time.Millisecond {
		t.Errorf("GetScanPeriod() = %v, want 100ms", cfg.GetScanPeriod())
	}
}
