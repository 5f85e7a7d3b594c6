package metrics

import "fmt"

// Default policy thresholds.
const (
	DefaultMinSalaryRatio    = 1.2
	DefaultMaxSalaryRatio    = 1.5
	DefaultMaxReportingDepth = 4
)

// Policy holds the thresholds the derived predicates are measured against.
type Policy struct {
	// MinSalaryRatio multiplies the average direct-report salary to get the
	// lowest acceptable manager salary.
	MinSalaryRatio float64
	// MaxSalaryRatio multiplies the average direct-report salary to get the
	// highest acceptable manager salary.
	MaxSalaryRatio float64
	// MaxReportingDepth is the largest number of managers allowed between an
	// employee and the root.
	MaxReportingDepth int
}

// DefaultPolicy returns the 1.2x / 1.5x / 4 managers policy.
func DefaultPolicy() Policy {
	return Policy{
		MinSalaryRatio:    DefaultMinSalaryRatio,
		MaxSalaryRatio:    DefaultMaxSalaryRatio,
		MaxReportingDepth: DefaultMaxReportingDepth,
	}
}

// Validate checks that the thresholds describe a usable band.
func (p Policy) Validate() error {
	if p.MinSalaryRatio <= 0 {
		return fmt.Errorf("min salary ratio must be positive, got %g", p.MinSalaryRatio)
	}
	if p.MaxSalaryRatio < p.MinSalaryRatio {
		return fmt.Errorf("max salary ratio %g is below min salary ratio %g", p.MaxSalaryRatio, p.MinSalaryRatio)
	}
	if p.MaxReportingDepth < 0 {
		return fmt.Errorf("max reporting depth must not be negative, got %d", p.MaxReportingDepth)
	}
	return nil
}
