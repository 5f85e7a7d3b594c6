// Package registry provides the in-memory arena that owns every employee of
// an audit run.
//
// Entities are stored by identifier. Manager and direct-report relations are
// kept as identifier links next to the entities, never as pointers inside
// them.
//
// Writes are expected during parsing (Insert) and hierarchy building (Link);
// after that the registry is only read, often from many goroutines at once.
// All methods are safe for concurrent use.
package registry

import (
	"fmt"
	"slices"
	"sync"

	"github.com/specialistvlad/orgaudit/internal/employee"
)

// Registry holds employees by id plus the manager/direct-report links between them.
type Registry struct {
	mu        sync.RWMutex
	employees map[int]employee.Employee
	managers  map[int]int   // Key: employee id, Value: resolved manager id
	reports   map[int][]int // Key: manager id, Value: direct report ids in link order
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		employees: make(map[int]employee.Employee),
		managers:  make(map[int]int),
		reports:   make(map[int][]int),
	}
}

// FromMap creates a registry holding every employee of m.
func FromMap(m map[int]employee.Employee) *Registry {
	r := New()
	for id, e := range m {
		r.employees[id] = e
	}
	return r
}

// Insert stores e, replacing any earlier employee with the same id.
func (r *Registry) Insert(e employee.Employee) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.employees[e.ID] = e
}

// Get returns the employee with the given id.
func (r *Registry) Get(id int) (employee.Employee, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.employees[id]
	return e, ok
}

// Len returns the number of stored employees.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.employees)
}

// All returns every stored employee in ascending id order.
func (r *Registry) All() []employee.Employee {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]employee.Employee, 0, len(r.employees))
	for _, e := range r.employees {
		all = append(all, e)
	}
	slices.SortFunc(all, func(a, b employee.Employee) int { return a.ID - b.ID })
	return all
}

// IDs returns every stored id in ascending order.
func (r *Registry) IDs() []int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]int, 0, len(r.employees))
	for id := range r.employees {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Link records managerID as the manager of reportID and appends reportID to
// the manager's direct reports. Linking the same pair twice is a no-op.
func (r *Registry) Link(managerID, reportID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.employees[managerID]; !ok {
		return fmt.Errorf("manager %d not found in registry", managerID)
	}
	if _, ok := r.employees[reportID]; !ok {
		return fmt.Errorf("employee %d not found in registry", reportID)
	}
	if current, linked := r.managers[reportID]; linked {
		if current == managerID {
			return nil
		}
		return fmt.Errorf("employee %d already reports to %d", reportID, current)
	}

	r.managers[reportID] = managerID
	r.reports[managerID] = append(r.reports[managerID], reportID)
	return nil
}

// Manager returns the id of the resolved manager of id. It reports false for
// roots and for employees whose manager reference did not resolve.
func (r *Registry) Manager(id int) (int, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.managers[id]
	return m, ok
}

// DirectReportIDs returns a copy of the direct report ids of id.
func (r *Registry) DirectReportIDs(id int) []int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.reports[id])
}

// DirectReports returns the direct reports of id in link order.
func (r *Registry) DirectReports(id int) []employee.Employee {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := r.reports[id]
	out := make([]employee.Employee, 0, len(ids))
	for _, rid := range ids {
		out = append(out, r.employees[rid])
	}
	return out
}
