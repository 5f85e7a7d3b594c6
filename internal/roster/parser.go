// Package roster turns raw roster lines into employees.
//
// Lines are parsed by recursively halving the input until a partition is no
// larger than the batch size. Leaf partitions run on the shared worker pool
// and produce independent partial maps; sibling results are merged as they
// complete. The merge lets the right-hand partition win on duplicate ids, so
// the final map always holds the last record for an id no matter where the
// input was split.
package roster

import (
	"context"
	"strings"

	"github.com/specialistvlad/orgaudit/internal/ctxlog"
	"github.com/specialistvlad/orgaudit/internal/employee"
	"github.com/specialistvlad/orgaudit/internal/workpool"
)

// DefaultBatchSize bounds the number of lines parsed sequentially by one task.
const DefaultBatchSize = 10_000

// Result is the outcome of parsing a roster.
type Result struct {
	// Employees holds the accepted records keyed by id, last record winning.
	Employees map[int]employee.Employee
	// Accepted counts valid lines, including ones later overwritten by a duplicate id.
	Accepted int
	// Skipped lists the dropped lines in input order.
	Skipped []*RecordError
}

// Parser parses rosters on a worker pool.
type Parser struct {
	pool      *workpool.Pool
	batchSize int
}

// NewParser creates a Parser. A batchSize below 1 selects DefaultBatchSize.
func NewParser(pool *workpool.Pool, batchSize int) *Parser {
	if batchSize < 1 {
		batchSize = DefaultBatchSize
	}
	return &Parser{pool: pool, batchSize: batchSize}
}

// ParseRoster discards the header line and parses the rest.
func (p *Parser) ParseRoster(ctx context.Context, lines []string) *Result {
	if len(lines) > 0 {
		lines = lines[1:]
	}
	return p.parse(ctx, lines, 2)
}

// Parse parses lines that carry no header. Row numbers in errors start at 1.
func (p *Parser) Parse(ctx context.Context, lines []string) *Result {
	return p.parse(ctx, lines, 1)
}

func (p *Parser) parse(ctx context.Context, lines []string, firstRow int) *Result {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Roster parse started.", "lines", len(lines), "batch_size", p.batchSize)

	res := p.reduce(lines, firstRow, 0, len(lines))

	logger.Debug("Roster parse finished.", "employees", len(res.Employees), "accepted", res.Accepted, "skipped", len(res.Skipped))
	return res
}

// reduce parses lines[lo:hi]. Inner partitions wait on their own goroutines so
// pool workers only ever run leaf batches.
func (p *Parser) reduce(lines []string, firstRow, lo, hi int) *Result {
	if hi-lo <= p.batchSize {
		return workpool.Do(p.pool, func() *Result {
			return parseBatch(lines[lo:hi], firstRow+lo)
		})
	}

	mid := lo + (hi-lo)/2
	leftCh := make(chan *Result, 1)
	go func() {
		leftCh <- p.reduce(lines, firstRow, lo, mid)
	}()
	right := p.reduce(lines, firstRow, mid, hi)
	left := <-leftCh
	return merge(left, right)
}

// parseBatch parses a partition sequentially.
func parseBatch(lines []string, firstRow int) *Result {
	res := &Result{Employees: make(map[int]employee.Employee, len(lines))}
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		e, err := ParseLine(line)
		if err != nil {
			res.Skipped = append(res.Skipped, &RecordError{Row: firstRow + i, Line: line, Err: err})
			continue
		}
		res.Employees[e.ID] = e
		res.Accepted++
	}
	return res
}

// merge folds right into left. Right wins on duplicate ids.
func merge(left, right *Result) *Result {
	for id, e := range right.Employees {
		left.Employees[id] = e
	}
	left.Accepted += right.Accepted
	// Every row of left precedes every row of right.
	left.Skipped = append(left.Skipped, right.Skipped...)
	return left
}
