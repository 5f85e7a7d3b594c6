package roster

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/orgaudit/internal/testutil"
)

func TestParseRoster_Scenario(t *testing.T) {
	p := NewParser(testutil.NewPool(t, 4), 0)

	res := p.ParseRoster(context.Background(), testutil.Lines(testutil.ScenarioRoster))

	require.Len(t, res.Employees, 5)
	assert.Equal(t, 5, res.Accepted)
	assert.Empty(t, res.Skipped)
	assert.Equal(t, "Martin", res.Employees[124].FirstName)
	require.NotNil(t, res.Employees[124].ManagerID)
	assert.Equal(t, 123, *res.Employees[124].ManagerID)
	assert.Nil(t, res.Employees[123].ManagerID)
}

func TestParseRoster_HeaderOnly(t *testing.T) {
	p := NewParser(testutil.NewPool(t, 2), 0)

	res := p.ParseRoster(context.Background(), []string{testutil.Header})

	assert.Empty(t, res.Employees)
	assert.Empty(t, res.Skipped)
}

func TestParseRoster_Empty(t *testing.T) {
	p := NewParser(testutil.NewPool(t, 2), 0)

	res := p.ParseRoster(context.Background(), nil)

	assert.Empty(t, res.Employees)
	assert.Zero(t, res.Accepted)
}

func TestParseRoster_MalformedLinesOnlyDropThemselves(t *testing.T) {
	lines := []string{
		testutil.Header,
		"1,Joe,Doe,60000,",
		"2,Broken",
		"3,Ann,Lee,50000,1",
		"",
		"x,Bad,Id,100,",
		"4,Sam,Roe,abc,1",
		"5,Kim,Poe,40000,3",
	}
	p := NewParser(testutil.NewPool(t, 3), 2)

	res := p.ParseRoster(context.Background(), lines)

	assert.Len(t, res.Employees, 3)
	require.Len(t, res.Skipped, 3, "blank lines are ignored, malformed ones are reported")
	var rows []int
	for _, s := range res.Skipped {
		rows = append(rows, s.Row)
	}
	assert.Equal(t, []int{3, 6, 7}, rows, "rows count the header as line 1 and stay in input order")
	assert.Equal(t, "2,Broken", res.Skipped[0].Line)
}

func TestParse_LastWriteWinsAcrossPartitions(t *testing.T) {
	lines := []string{
		"1,First,Version,100,",
		"2,Other,Person,200,1",
		"3,Third,Person,300,1",
		"1,Second,Version,150,",
	}

	for _, batch := range []int{1, 2, 3, 4} {
		p := NewParser(testutil.NewPool(t, 4), batch)
		res := p.Parse(context.Background(), lines)

		assert.Equal(t, "Second", res.Employees[1].FirstName, "batch=%d", batch)
		assert.Equal(t, 4, res.Accepted, "batch=%d", batch)
		assert.Len(t, res.Employees, 3, "batch=%d", batch)
	}
}

func TestParse_PartitionInvariance(t *testing.T) {
	var lines []string
	for i := 0; i < 2000; i++ {
		// Every 97th line is broken, every id repeats once with a new salary.
		switch {
		case i%97 == 0:
			lines = append(lines, fmt.Sprintf("%d,Broken", i))
		default:
			lines = append(lines, fmt.Sprintf("%d,F%d,L%d,%d,%d", i%1500, i, i, 1000+i, i%50))
		}
	}

	reference := NewParser(testutil.NewPool(t, 1), len(lines)).Parse(context.Background(), lines)

	for _, batch := range []int{1, 7, 64, 500, 1999} {
		for _, workers := range []int{1, 4} {
			got := NewParser(testutil.NewPool(t, workers), batch).Parse(context.Background(), lines)
			if diff := cmp.Diff(reference.Employees, got.Employees); diff != "" {
				t.Fatalf("batch=%d workers=%d registry mismatch (-want +got):\n%s", batch, workers, diff)
			}
			assert.Equal(t, reference.Accepted, got.Accepted)
			assert.Equal(t, len(reference.Skipped), len(got.Skipped))
		}
	}
}

func TestNewParser_DefaultBatchSize(t *testing.T) {
	p := NewParser(testutil.NewPool(t, 1), -5)
	assert.Equal(t, DefaultBatchSize, p.batchSize)
}
