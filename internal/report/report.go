// Package report selects the compliance findings of a run and renders them
// as the human-readable report.
package report

import (
	"context"
	"fmt"
	"io"
	"slices"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/specialistvlad/orgaudit/internal/ctxlog"
	"github.com/specialistvlad/orgaudit/internal/metrics"
	"github.com/specialistvlad/orgaudit/internal/workpool"
)

// Section names, also used as metric labels.
const (
	SectionUnderpaid          = "underpaid"
	SectionOverpaid           = "overpaid"
	SectionLongReportingLines = "long_reporting_lines"
)

// Findings holds the employees selected for each section, in ascending id order.
type Findings struct {
	Underpaid          []metrics.Metrics
	Overpaid           []metrics.Metrics
	LongReportingLines []metrics.Metrics
}

// Counts returns the number of findings per section.
func (f Findings) Counts() map[string]int {
	return map[string]int{
		SectionUnderpaid:          len(f.Underpaid),
		SectionOverpaid:           len(f.Overpaid),
		SectionLongReportingLines: len(f.LongReportingLines),
	}
}

// Generator filters metrics into findings and renders them.
type Generator struct {
	pool    *workpool.Pool
	printer *message.Printer
}

// NewGenerator creates a Generator filtering on pool. Amounts are printed
// with English digit grouping.
func NewGenerator(pool *workpool.Pool) *Generator {
	return &Generator{
		pool:    pool,
		printer: message.NewPrinter(language.English),
	}
}

// Collect applies the section predicates to all. all must be sorted by id;
// the findings keep that order.
func (g *Generator) Collect(ctx context.Context, all []metrics.Metrics) Findings {
	parts := make([]Findings, g.pool.Size())
	workpool.ForEach(g.pool, all, func(chunk int, m metrics.Metrics) {
		p := &parts[chunk]
		if m.IsUnderpaid() {
			p.Underpaid = append(p.Underpaid, m)
		}
		if m.IsOverpaid() {
			p.Overpaid = append(p.Overpaid, m)
		}
		if m.HasLongReportingLine() {
			p.LongReportingLines = append(p.LongReportingLines, m)
		}
	})

	var f Findings
	for _, p := range parts {
		f.Underpaid = slices.Concat(f.Underpaid, p.Underpaid)
		f.Overpaid = slices.Concat(f.Overpaid, p.Overpaid)
		f.LongReportingLines = slices.Concat(f.LongReportingLines, p.LongReportingLines)
	}
	ctxlog.FromContext(ctx).Debug("Findings collected.",
		"underpaid", len(f.Underpaid), "overpaid", len(f.Overpaid), "long_reporting_lines", len(f.LongReportingLines))
	return f
}

// Render formats f as report lines.
func (g *Generator) Render(f Findings) []string {
	lines := []string{
		"ORGANIZATIONAL ANALYSIS REPORT",
		"===========================",
		"",
		"1. UNDERPAID MANAGERS",
		"-------------------",
	}
	if len(f.Underpaid) == 0 {
		lines = append(lines, "No underpaid managers found.")
	}
	for _, m := range f.Underpaid {
		lines = append(lines, fmt.Sprintf("%s (ID: %d) is underpaid by $%s. Current salary: $%s, required minimum: $%s.",
			m.Employee.FullName(), m.Employee.ID,
			g.money(m.SalaryDeficit()), g.money(m.Employee.Salary), g.money(m.ExpectedMinSalary)))
	}

	lines = append(lines, "", "2. OVERPAID MANAGERS", "------------------")
	if len(f.Overpaid) == 0 {
		lines = append(lines, "No overpaid managers found.")
	}
	for _, m := range f.Overpaid {
		lines = append(lines, fmt.Sprintf("%s (ID: %d) is overpaid by $%s. Current salary: $%s, maximum allowed: $%s.",
			m.Employee.FullName(), m.Employee.ID,
			g.money(m.SalaryExcess()), g.money(m.Employee.Salary), g.money(m.ExpectedMaxSalary)))
	}

	lines = append(lines, "", "3. EMPLOYEES WITH LONG REPORTING LINES", "-------------------------------------")
	if len(f.LongReportingLines) == 0 {
		lines = append(lines, "No employees with excessively long reporting lines found.")
	}
	for _, m := range f.LongReportingLines {
		lines = append(lines, fmt.Sprintf("%s (ID: %d) has a reporting line that is too long by %d managers. Current: %d managers in chain.",
			m.Employee.FullName(), m.Employee.ID, m.ExcessManagerCount(), m.Depth))
	}

	return append(lines, "", "END OF REPORT")
}

// money rounds half-to-even to cents and groups thousands: 1234.565 -> "1,234.56".
func (g *Generator) money(v float64) string {
	cents := decimal.NewFromFloat(v).RoundBank(2)
	return g.printer.Sprintf("%.2f", cents.InexactFloat64())
}

// Write prints lines to w, one per line.
func Write(w io.Writer, lines []string) error {
	for _, l := range lines {
		if _, err := fmt.Fprintln(w, l); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
	}
	return nil
}
