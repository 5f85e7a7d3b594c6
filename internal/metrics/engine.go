// Package metrics computes the derived per-employee figures of an audit:
// average direct-report salary, the expected salary band and the depth below
// the organizational root.
//
// The Engine reads a registry whose links are final and memoizes every value
// it computes, keyed by employee id, so each figure is produced at most once
// per run. Employees themselves stay immutable.
//
// Depth is resolved by walking manager links iteratively with a visited set.
// A manager cycle is reported as ErrManagementCycle instead of looping.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/specialistvlad/orgaudit/internal/ctxlog"
	"github.com/specialistvlad/orgaudit/internal/registry"
	"github.com/specialistvlad/orgaudit/internal/workpool"
)

var (
	// ErrManagementCycle is returned when following manager links never reaches a root.
	ErrManagementCycle = errors.New("management cycle detected")
	// ErrUnknownEmployee is returned for ids absent from the registry.
	ErrUnknownEmployee = errors.New("unknown employee")
)

// Engine computes and memoizes metrics over one linked registry.
type Engine struct {
	reg    *registry.Registry
	policy Policy

	mu    sync.RWMutex
	avg   map[int]float64 // Key: employee id
	depth map[int]int     // Key: employee id
}

// NewEngine creates an Engine for reg. reg must not be linked further once
// the engine has been queried.
func NewEngine(reg *registry.Registry, policy Policy) *Engine {
	return &Engine{
		reg:    reg,
		policy: policy,
		avg:    make(map[int]float64),
		depth:  make(map[int]int),
	}
}

// Policy returns the thresholds the engine applies.
func (e *Engine) Policy() Policy {
	return e.policy
}

// AverageSubordinateSalary returns the mean salary of id's direct reports,
// or 0 when there are none.
func (e *Engine) AverageSubordinateSalary(id int) float64 {
	e.mu.RLock()
	v, ok := e.avg[id]
	e.mu.RUnlock()
	if ok {
		return v
	}

	reports := e.reg.DirectReports(id)
	if len(reports) > 0 {
		var total float64
		for _, r := range reports {
			total += r.Salary
		}
		v = total / float64(len(reports))
	}

	e.mu.Lock()
	e.avg[id] = v
	e.mu.Unlock()
	return v
}

// Depth returns the number of manager hops from id to a root.
func (e *Engine) Depth(id int) (int, error) {
	e.mu.RLock()
	d, ok := e.depth[id]
	e.mu.RUnlock()
	if ok {
		return d, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.resolveDepthLocked(id)
}

// resolveDepthLocked walks up from id until it meets a root or a memoized
// depth, then fills in every employee on the way.
func (e *Engine) resolveDepthLocked(id int) (int, error) {
	var path []int
	seen := make(map[int]int) // Key: id, Value: index in path
	known := -1               // depth of the node above the last path entry

	for cur := id; ; {
		if d, ok := e.depth[cur]; ok {
			known = d
			break
		}
		if at, looped := seen[cur]; looped {
			return 0, fmt.Errorf("%w: %v", ErrManagementCycle, append(path[at:], cur))
		}
		seen[cur] = len(path)
		path = append(path, cur)

		mgr, ok := e.reg.Manager(cur)
		if !ok {
			break
		}
		cur = mgr
	}

	for i := len(path) - 1; i >= 0; i-- {
		known++
		e.depth[path[i]] = known
	}
	return e.depth[id], nil
}

// Metrics returns every derived figure for id.
func (e *Engine) Metrics(id int) (Metrics, error) {
	emp, ok := e.reg.Get(id)
	if !ok {
		return Metrics{}, fmt.Errorf("%w: %d", ErrUnknownEmployee, id)
	}
	depth, err := e.Depth(id)
	if err != nil {
		return Metrics{}, err
	}
	avg := e.AverageSubordinateSalary(id)

	return Metrics{
		Employee:                 emp,
		DirectReports:            len(e.reg.DirectReportIDs(id)),
		AverageSubordinateSalary: avg,
		ExpectedMinSalary:        avg * e.policy.MinSalaryRatio,
		ExpectedMaxSalary:        avg * e.policy.MaxSalaryRatio,
		Depth:                    depth,
		maxReportingDepth:        e.policy.MaxReportingDepth,
	}, nil
}

// ComputeAll returns the metrics of every employee in ascending id order,
// spreading the work over pool.
func (e *Engine) ComputeAll(ctx context.Context, pool *workpool.Pool) ([]Metrics, error) {
	ids := e.reg.IDs()
	results := make([][]Metrics, pool.Size())
	errs := make([]error, pool.Size())

	workpool.ForEach(pool, ids, func(chunk int, id int) {
		if errs[chunk] != nil {
			return
		}
		m, err := e.Metrics(id)
		if err != nil {
			errs[chunk] = err
			return
		}
		results[chunk] = append(results[chunk], m)
	})

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	all := slices.Concat(results...)
	ctxlog.FromContext(ctx).Debug("Metrics computed.", "employees", len(all))
	return all, nil
}
