package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/banshee-data/scanmatch/internal/lidar/factor"
	"github.com/banshee-data/scanmatch/internal/lidar/solver"
)

// DefaultConfigPath is the path to the canonical registration defaults file.
const DefaultConfigPath = "config/registration.defaults.json"

// RegistrationConfig is the root configuration of a registration run.
// Every field is optional; the Get* methods supply defaults for omitted
// fields so partial files are safe.
type RegistrationConfig struct {
	// Solver params
	MaxIterations      *int     `json:"max_iterations,omitempty"`
	FunctionTolerance  *float64 `json:"function_tolerance,omitempty"`
	ParameterTolerance *float64 `json:"parameter_tolerance,omitempty"`
	GradientTolerance  *float64 `json:"gradient_tolerance,omitempty"`
	InitialLambda      *float64 `json:"initial_lambda,omitempty"`
	GaussNewton        *bool    `json:"gauss_newton,omitempty"`
	Workers            *int     `json:"workers,omitempty"`
	Verbose            *bool    `json:"verbose,omitempty"`

	// Robust loss
	Loss      *string  `json:"loss,omitempty"` // "trivial", "huber" or "cauchy"
	LossScale *float64 `json:"loss_scale,omitempty"`

	// Correspondence selection and timing
	FeatureMode *string `json:"feature_mode,omitempty"`
	ScanPeriod  *string `json:"scan_period,omitempty"` // duration string like "100ms"
}

func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyRegistrationConfig returns a RegistrationConfig with all fields nil.
func EmptyRegistrationConfig() *RegistrationConfig {
	return &RegistrationConfig{}
}

// LoadRegistrationConfig loads a RegistrationConfig from a JSON file. The
// file must have a .json extension and be under 1MB.
func LoadRegistrationConfig(path string) (*RegistrationConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyRegistrationConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// MustLoadDefaultConfig loads DefaultConfigPath from the current directory
// or one of its parents. Panics if the file cannot be loaded, intended for
// test setup.
func MustLoadDefaultConfig() *RegistrationConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,    // from internal/config/
		"../../../" + DefaultConfigPath, // from cmd/scanmatch/ or internal/lidar/*
		"../../../../" + DefaultConfigPath,
	}
	for _, path := range candidates {
		if cfg, err := LoadRegistrationConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configured values are usable.
func (c *RegistrationConfig) Validate() error {
	if c.MaxIterations != nil && *c.MaxIterations <= 0 {
		return fmt.Errorf("max_iterations must be positive, got %d", *c.MaxIterations)
	}
	for name, v := range map[string]*float64{
		"function_tolerance":  c.FunctionTolerance,
		"parameter_tolerance": c.ParameterTolerance,
		"gradient_tolerance":  c.GradientTolerance,
	} {
		if v != nil && *v < 0 {
			return fmt.Errorf("%s must be non-negative, got %g", name, *v)
		}
	}
	if c.InitialLambda != nil && *c.InitialLambda <= 0 {
		return fmt.Errorf("initial_lambda must be positive, got %g", *c.InitialLambda)
	}
	if c.Workers != nil && *c.Workers < 0 {
		return fmt.Errorf("workers must be non-negative, got %d", *c.Workers)
	}
	if _, err := c.GetLoss(); err != nil {
		return err
	}
	if c.FeatureMode != nil {
		if _, err := factor.ParseMode(*c.FeatureMode); err != nil {
			return err
		}
	}
	if c.ScanPeriod != nil && *c.ScanPeriod != "" {
		d, err := time.ParseDuration(*c.ScanPeriod)
		if err != nil {
			return fmt.Errorf("invalid scan_period '%s': %w", *c.ScanPeriod, err)
		}
		if d <= 0 {
			return fmt.Errorf("scan_period must be positive, got %s", d)
		}
	}
	return nil
}

// GetMaxIterations returns the max_iterations value or the default.
func (c *RegistrationConfig) GetMaxIterations() int {
	if c.MaxIterations == nil {
		return 50
	}
	return *c.MaxIterations
}

// GetFunctionTolerance returns the function_tolerance value or the default.
func (c *RegistrationConfig) GetFunctionTolerance() float64 {
	if c.FunctionTolerance == nil {
		return 1e-6
	}
	return *c.FunctionTolerance
}

// GetParameterTolerance returns the parameter_tolerance value or the default.
func (c *RegistrationConfig) GetParameterTolerance() float64 {
	if c.ParameterTolerance == nil {
		return 1e-8
	}
	return *c.ParameterTolerance
}

// GetGradientTolerance returns the gradient_tolerance value or the default.
func (c *RegistrationConfig) GetGradientTolerance() float64 {
	if c.GradientTolerance == nil {
		return 1e-10
	}
	return *c.GradientTolerance
}

// GetInitialLambda returns the initial_lambda value or the default.
func (c *RegistrationConfig) GetInitialLambda() float64 {
	if c.InitialLambda == nil {
		return 1e-4
	}
	return *c.InitialLambda
}

// GetGaussNewton returns the gauss_newton value or the default.
func (c *RegistrationConfig) GetGaussNewton() bool {
	if c.GaussNewton == nil {
		return false
	}
	return *c.GaussNewton
}

// GetWorkers returns the workers value or the default (0: one per CPU).
func (c *RegistrationConfig) GetWorkers() int {
	if c.Workers == nil {
		return 0
	}
	return *c.Workers
}

// GetVerbose returns the verbose value or the default.
func (c *RegistrationConfig) GetVerbose() bool {
	if c.Verbose == nil {
		return false
	}
	return *c.Verbose
}

// GetLossScale returns the loss_scale value or the default.
func (c *RegistrationConfig) GetLossScale() float64 {
	if c.LossScale == nil {
		return 0.1
	}
	return *c.LossScale
}

// GetLoss builds the configured robust loss.
func (c *RegistrationConfig) GetLoss() (solver.Loss, error) {
	name := "trivial"
	if c.Loss != nil {
		name = *c.Loss
	}
	return solver.NewLoss(name, c.GetLossScale())
}

// GetFeatureMode returns the feature_mode value or factor.ModeAll. An
// invalid mode also yields ModeAll; Validate reports it.
func (c *RegistrationConfig) GetFeatureMode() factor.Mode {
	if c.FeatureMode == nil {
		return factor.ModeAll
	}
	m, err := factor.ParseMode(*c.FeatureMode)
	if err != nil {
		return factor.ModeAll
	}
	return m
}

// GetScanPeriod parses and returns the ScanPeriod as a time.Duration.
func (c *RegistrationConfig) GetScanPeriod() time.Duration {
	if c.ScanPeriod == nil || *c.ScanPeriod == "" {
		return 100 * time.Millisecond // 10 Hz
	}
	d, err := time.ParseDuration(*c.ScanPeriod)
	if err != nil || d <= 0 {
		return 100 * time.Millisecond
	}
	return d
}

// SolverOptions converts the solver fields to solver.Options.
func (c *RegistrationConfig) SolverOptions() solver.Options {
	return solver.Options{
		MaxIterations:      c.GetMaxIterations(),
		FunctionTolerance:  c.GetFunctionTolerance(),
		ParameterTolerance: c.GetParameterTolerance(),
		GradientTolerance:  c.GetGradientTolerance(),
		InitialLambda:      c.GetInitialLambda(),
		GaussNewton:        c.GetGaussNewton(),
		Workers:            c.GetWorkers(),
		Verbose:            c.GetVerbose(),
	}
}
