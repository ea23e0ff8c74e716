package config

import (
	"fmt"
	"sort"

	"censuswage/internal/dataset"
)

// Subsample purposes.
const (
	PurposePlot  = "plot"
	PurposeRidge = "ridge"
	PurposeModel = "model"
)

// SamplingConfig names the divisor used for each subsample purpose. A
// divisor d keeps the last N - round(N/d) rows.
type SamplingConfig struct {
	Plot  float64 `yaml:"plot"`
	Ridge float64 `yaml:"ridge"`
	Model float64 `yaml:"model"`
}

func DefaultSamplingConfig() SamplingConfig {
	return SamplingConfig{
		Plot:  dataset.PlotSampleDivisor,
		Ridge: dataset.RidgeSampleDivisor,
		Model: dataset.ModelSampleDivisor,
	}
}

func (s SamplingConfig) byPurpose() map[string]float64 {
	return map[string]float64{
		PurposePlot:  s.Plot,
		PurposeRidge: s.Ridge,
		PurposeModel: s.Model,
	}
}

// Purposes lists the known purposes in sorted order.
func Purposes() []string {
	names := make([]string, 0, 3)
	for name := range DefaultSamplingConfig().byPurpose() {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Divisor returns the divisor configured for purpose.
func (c *Config) Divisor(purpose string) (float64, error) {
	d, ok := c.Sampling.byPurpose()[purpose]
	if !ok {
		return 0, fmt.Errorf("unknown sample purpose %q (valid: %v)", purpose, Purposes())
	}
	return d, nil
}

// Validate rejects divisors that cannot yield a start index inside [0, N].
func (s SamplingConfig) Validate() error {
	for _, name := range Purposes() {
		if d := s.byPurpose()[name]; !positive(d) || d < 1 {
			return fmt.Errorf("sampling.%s must be a finite divisor >= 1, got %v", name, d)
		}
	}
	return nil
}
