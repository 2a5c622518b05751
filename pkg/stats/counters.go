// Package stats holds the per-role, per-error-kind counters every
// worker increments on the hot path, plus durable persistence so an
// operator restarting the node keeps its drop history.
package stats

import (
	"sync/atomic"

	"github.com/srv6pot/potnode/pkg/errs"
	"github.com/srv6pot/potnode/pkg/potcfg"
)

const (
	numRoles = 3
	numKinds = 6
)

// Counters is a fixed array of atomics: safe for concurrent increment by
// workers and concurrent read by the snapshot writer and the management
// endpoint.
type Counters struct {
	errorCounts [numRoles][numKinds]atomic.Uint64
	delivered   [numRoles]atomic.Uint64
}

// New returns a zeroed counter set.
func New() *Counters {
	return &Counters{}
}

// IncError bumps the (role, kind) counter by one.
func (c *Counters) IncError(role potcfg.Role, kind errs.Kind) {
	c.errorCounts[role][kind].Add(1)
}

// IncDelivered bumps role's delivered/forwarded counter by one.
func (c *Counters) IncDelivered(role potcfg.Role) {
	c.delivered[role].Add(1)
}

// Snapshot is a point-in-time, JSON-serialisable read of every counter.
type Snapshot struct {
	Errors    map[string]map[string]uint64 `json:"errors"`
	Delivered map[string]uint64            `json:"delivered"`
}

// Snapshot takes a consistent-enough read of all counters for reporting.
// Individual counter reads are atomic; the set as a whole is not a single
// atomic transaction, which is acceptable for monotonically increasing
// operational counters.
func (c *Counters) Snapshot() Snapshot {
	snap := Snapshot{
		Errors:    make(map[string]map[string]uint64, numRoles),
		Delivered: make(map[string]uint64, numRoles),
	}
	for r := potcfg.Role(0); r < numRoles; r++ {
		kinds := make(map[string]uint64, numKinds)
		for k := errs.Kind(0); k < numKinds; k++ {
			if v := c.errorCounts[r][k].Load(); v != 0 {
				kinds[k.String()] = v
			}
		}
		snap.Errors[r.String()] = kinds
		snap.Delivered[r.String()] = c.delivered[r].Load()
	}
	return snap
}

// restore seeds the in-memory counters from a previously persisted
// snapshot. Called once, at start-up, before any worker runs.
func (c *Counters) restore(snap Snapshot) {
	for roleName, kinds := range snap.Errors {
		role, err := potcfg.ParseRole(roleName)
		if err != nil {
			continue
		}
		for kindName, v := range kinds {
			kind, ok := errs.ParseKind(kindName)
			if !ok {
				continue
			}
			c.errorCounts[role][kind].Store(v)
		}
	}
	for roleName, v := range snap.Delivered {
		role, err := potcfg.ParseRole(roleName)
		if err != nil {
			continue
		}
		c.delivered[role].Store(v)
	}
}
