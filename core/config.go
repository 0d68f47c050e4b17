package core

import (
	"fmt"
	"strings"
)

// QualityConfig externalizes the estimated-quality heuristics; these are
// business thresholds, not safety invariants.
type QualityConfig struct {
	DegradedFailureRate float64 `koanf:"degraded_failure_rate" mapstructure:"degraded_failure_rate"`
	HealthyFailureRate  float64 `koanf:"healthy_failure_rate" mapstructure:"healthy_failure_rate"`
	ScanLimit           int     `koanf:"scan_limit" mapstructure:"scan_limit"`
}

type Config struct {
	ServiceName string        `koanf:"service_name" mapstructure:"service_name"`
	Quality     QualityConfig `koanf:"quality" mapstructure:"quality"`
}

func DefaultConfig() Config {
	return Config{
		ServiceName: "messaging",
		Quality: QualityConfig{
			DegradedFailureRate: 0.10,
			HealthyFailureRate:  0.05,
			ScanLimit:           1000,
		},
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ServiceName) == "" {
		return fmt.Errorf("core: service_name is required")
	}
	if c.Quality.DegradedFailureRate < 0 || c.Quality.DegradedFailureRate > 1 {
		return fmt.Errorf("core: quality.degraded_failure_rate must be within [0, 1]")
	}
	if c.Quality.HealthyFailureRate < 0 || c.Quality.HealthyFailureRate > c.Quality.DegradedFailureRate {
		return fmt.Errorf("core: quality.healthy_failure_rate must be within [0, degraded_failure_rate]")
	}
	if c.Quality.ScanLimit < 0 {
		return fmt.Errorf("core: quality.scan_limit must not be negative")
	}
	return nil
}
