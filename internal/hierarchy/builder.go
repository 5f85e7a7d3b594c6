// Package hierarchy links a populated registry into a management tree.
//
// # How It Works
//
// Building happens in two phases:
//  1. **Group (parallel):** every employee naming a manager id is appended to
//     that id's group. Workers share one grouping table whose entries each
//     carry their own lock, so no worker ever waits on a global mutex.
//  2. **Link (single coordinator):** groups are visited in ascending manager
//     id order. A group whose manager id resolves in the registry has each
//     member, sorted by id, linked as a direct report. A group whose manager
//     id does not resolve is left alone and its members stay roots.
//
// Direct-report lists are only ever touched by the coordinator in phase 2.
package hierarchy

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/specialistvlad/orgaudit/internal/ctxlog"
	"github.com/specialistvlad/orgaudit/internal/employee"
	"github.com/specialistvlad/orgaudit/internal/registry"
	"github.com/specialistvlad/orgaudit/internal/workpool"
)

// Stats summarizes one Build.
type Stats struct {
	// Groups is the number of distinct manager ids referenced.
	Groups int
	// Linked is the number of employees attached to a manager.
	Linked int
	// Unresolved is the number of employees whose manager id is absent.
	Unresolved int
}

// Builder links registries using a shared worker pool for grouping.
type Builder struct {
	pool *workpool.Pool
}

// New creates a Builder that groups on pool.
func New(pool *workpool.Pool) *Builder {
	return &Builder{pool: pool}
}

// Build groups every employee of reg by manager id and links the groups.
func (b *Builder) Build(ctx context.Context, reg *registry.Registry) (Stats, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Hierarchy build started.", "employees", reg.Len())

	groups := b.Group(ctx, reg.All())
	stats, err := Link(ctx, reg, groups)
	if err != nil {
		return stats, err
	}

	logger.Debug("Hierarchy build finished.", "groups", stats.Groups, "linked", stats.Linked, "unresolved", stats.Unresolved)
	return stats, nil
}

// group is one entry of the grouping table.
type group struct {
	mu  sync.Mutex
	ids []int
}

// Group returns employee ids keyed by the manager id they name. Employees
// without a manager id are not included. Member order inside a group is not
// defined; Link sorts it.
func (b *Builder) Group(ctx context.Context, employees []employee.Employee) map[int][]int {
	var table sync.Map // Key: manager id, Value: *group

	workpool.ForEach(b.pool, employees, func(_ int, e employee.Employee) {
		if !e.HasManagerID() {
			return
		}
		v, _ := table.LoadOrStore(*e.ManagerID, &group{})
		g := v.(*group)
		g.mu.Lock()
		g.ids = append(g.ids, e.ID)
		g.mu.Unlock()
	})

	out := make(map[int][]int)
	table.Range(func(k, v any) bool {
		out[k.(int)] = v.(*group).ids
		return true
	})
	ctxlog.FromContext(ctx).Debug("Employees grouped by manager.", "groups", len(out))
	return out
}

// Link attaches every group whose manager id resolves in reg. It must be run
// by a single goroutine.
func Link(ctx context.Context, reg *registry.Registry, groups map[int][]int) (Stats, error) {
	logger := ctxlog.FromContext(ctx)
	stats := Stats{Groups: len(groups)}

	managerIDs := make([]int, 0, len(groups))
	for id := range groups {
		managerIDs = append(managerIDs, id)
	}
	slices.Sort(managerIDs)

	for _, managerID := range managerIDs {
		members := slices.Clone(groups[managerID])
		slices.Sort(members)

		if _, ok := reg.Get(managerID); !ok {
			logger.Debug("Manager reference does not resolve, members stay roots.", "managerID", managerID, "members", len(members))
			stats.Unresolved += len(members)
			continue
		}
		for _, id := range members {
			if err := reg.Link(managerID, id); err != nil {
				return stats, fmt.Errorf("failed to link employee %d to manager %d: %w", id, managerID, err)
			}
			stats.Linked++
		}
	}
	return stats, nil
}
