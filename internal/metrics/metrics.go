package metrics

import "github.com/specialistvlad/orgaudit/internal/employee"

// Metrics is the derived view of one employee. Values are exact; rounding is
// left to whoever renders them.
type Metrics struct {
	Employee employee.Employee
	// DirectReports is the number of immediate reports.
	DirectReports int
	// AverageSubordinateSalary is the mean salary of immediate reports, 0 without reports.
	AverageSubordinateSalary float64
	ExpectedMinSalary        float64
	ExpectedMaxSalary        float64
	// Depth is the number of managers between the employee and the root.
	Depth int

	maxReportingDepth int
}

// HasDirectReports reports whether anyone reports to the employee.
func (m Metrics) HasDirectReports() bool {
	return m.DirectReports > 0
}

// IsUnderpaid reports a manager paid below the expected band.
func (m Metrics) IsUnderpaid() bool {
	return m.HasDirectReports() && m.Employee.Salary < m.ExpectedMinSalary
}

// IsOverpaid reports a manager paid above the expected band.
func (m Metrics) IsOverpaid() bool {
	return m.HasDirectReports() && m.Employee.Salary > m.ExpectedMaxSalary
}

// SalaryDeficit is how far the salary sits below the band. Only meaningful when IsUnderpaid.
func (m Metrics) SalaryDeficit() float64 {
	return m.ExpectedMinSalary - m.Employee.Salary
}

// SalaryExcess is how far the salary sits above the band. Only meaningful when IsOverpaid.
func (m Metrics) SalaryExcess() float64 {
	return m.Employee.Salary - m.ExpectedMaxSalary
}

// HasLongReportingLine reports more managers above the employee than the policy allows.
func (m Metrics) HasLongReportingLine() bool {
	return m.Depth > m.maxReportingDepth
}

// ExcessManagerCount is the number of managers above the allowed depth.
func (m Metrics) ExcessManagerCount() int {
	return m.Depth - m.maxReportingDepth
}
