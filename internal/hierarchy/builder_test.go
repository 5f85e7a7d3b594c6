package hierarchy

import (
	"context"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/orgaudit/internal/employee"
	"github.com/specialistvlad/orgaudit/internal/registry"
	"github.com/specialistvlad/orgaudit/internal/testutil"
)

func newRegistry(emps ...employee.Employee) *registry.Registry {
	r := registry.New()
	for _, e := range emps {
		r.Insert(e)
	}
	return r
}

func TestBuild_LinksManagersAndReports(t *testing.T) {
	// --- Arrange ---
	reg := newRegistry(
		employee.New(123, "Joe", "Doe", 60000, nil),
		employee.New(125, "Bob", "Ronstad", 47000, employee.IntPtr(123)),
		employee.New(124, "Martin", "Chekov", 45000, employee.IntPtr(123)),
		employee.New(300, "Alice", "Hasacat", 50000, employee.IntPtr(124)),
	)
	b := New(testutil.NewPool(t, 4))

	// --- Act ---
	stats, err := b.Build(context.Background(), reg)

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, Stats{Groups: 2, Linked: 3}, stats)
	assert.Equal(t, []int{124, 125}, reg.DirectReportIDs(123), "reports are linked in id order")
	assert.Equal(t, []int{300}, reg.DirectReportIDs(124))

	mgr, ok := reg.Manager(300)
	require.True(t, ok)
	assert.Equal(t, 124, mgr)
	_, ok = reg.Manager(123)
	assert.False(t, ok)
}

func TestBuild_UnresolvedManagerLeavesRoot(t *testing.T) {
	reg := newRegistry(
		employee.New(1, "A", "A", 100, nil),
		employee.New(2, "B", "B", 100, employee.IntPtr(999)),
		employee.New(3, "C", "C", 100, employee.IntPtr(2)),
	)

	stats, err := New(testutil.NewPool(t, 2)).Build(context.Background(), reg)

	require.NoError(t, err)
	assert.Equal(t, Stats{Groups: 2, Linked: 1, Unresolved: 1}, stats)
	_, ok := reg.Manager(2)
	assert.False(t, ok, "an unresolved manager reference leaves the employee without a manager")
	assert.Empty(t, reg.DirectReportIDs(999))
	assert.Equal(t, []int{3}, reg.DirectReportIDs(2))
}

func TestBuild_EmptyRegistry(t *testing.T) {
	reg := registry.New()

	stats, err := New(testutil.NewPool(t, 2)).Build(context.Background(), reg)

	require.NoError(t, err)
	assert.Equal(t, Stats{}, stats)
}

func TestGroup_IsIndependentOfWorkerCount(t *testing.T) {
	var emps []employee.Employee
	for i := 1; i <= 500; i++ {
		var mgr *int
		if i > 1 {
			mgr = employee.IntPtr(i / 10)
		}
		emps = append(emps, employee.New(i, "F", "L", 1000, mgr))
	}

	normalize := func(groups map[int][]int) map[int][]int {
		for k := range groups {
			slices.Sort(groups[k])
		}
		return groups
	}

	single := normalize(New(testutil.NewPool(t, 1)).Group(context.Background(), emps))
	many := normalize(New(testutil.NewPool(t, 8)).Group(context.Background(), emps))

	if diff := cmp.Diff(single, many); diff != "" {
		t.Errorf("grouping depends on worker count (-1 worker +8 workers):\n%s", diff)
	}
	assert.Len(t, single[0], 8, "ids 2..9 name manager 0")
}

func TestLink_IsDeterministic(t *testing.T) {
	build := func(groups map[int][]int) []int {
		reg := newRegistry(
			employee.New(1, "A", "A", 1, nil),
			employee.New(2, "B", "B", 1, employee.IntPtr(1)),
			employee.New(3, "C", "C", 1, employee.IntPtr(1)),
			employee.New(4, "D", "D", 1, employee.IntPtr(1)),
		)
		_, err := Link(context.Background(), reg, groups)
		require.NoError(t, err)
		return reg.DirectReportIDs(1)
	}

	assert.Equal(t, []int{2, 3, 4}, build(map[int][]int{1: {4, 2, 3}}))
	assert.Equal(t, []int{2, 3, 4}, build(map[int][]int{1: {3, 4, 2}}))
}
