package config

import "fmt"

// AnalysisConfig configures the statistical battery.
type AnalysisConfig struct {
	Parallelism   int     `yaml:"parallelism"`    // procedures run at once; 1 is sequential
	RidgeLambda   float64 `yaml:"ridge_lambda"`   // penalty on standardized coefficients
	Alpha         float64 `yaml:"alpha"`          // significance level flagged in the report
	MaxIterations int     `yaml:"max_iterations"` // IRLS cap for logit/probit
	Tolerance     float64 `yaml:"tolerance"`      // IRLS convergence on max |delta beta|
	Timeout       string  `yaml:"timeout"`
}

func DefaultAnalysisConfig() AnalysisConfig {
	return AnalysisConfig{
		Parallelism:   1,
		RidgeLambda:   1.0,
		Alpha:         0.05,
		MaxIterations: 25,
		Tolerance:     1e-8,
		Timeout:       "10m",
	}
}

func (a AnalysisConfig) Validate() error {
	if a.Parallelism < 1 {
		return fmt.Errorf("analysis.parallelism must be at least 1, got %d", a.Parallelism)
	}
	if a.RidgeLambda < 0 || !finite(a.RidgeLambda) {
		return fmt.Errorf("analysis.ridge_lambda must be non-negative, got %v", a.RidgeLambda)
	}
	if a.Alpha <= 0 || a.Alpha >= 1 {
		return fmt.Errorf("analysis.alpha must be in (0, 1), got %v", a.Alpha)
	}
	if a.MaxIterations < 1 {
		return fmt.Errorf("analysis.max_iterations must be at least 1, got %d", a.MaxIterations)
	}
	if !positive(a.Tolerance) {
		return fmt.Errorf("analysis.tolerance must be positive, got %v", a.Tolerance)
	}
	return nil
}
