package dataplane

import (
	"sync/atomic"

	"github.com/srv6pot/potnode/pkg/driver"
	"github.com/srv6pot/potnode/pkg/potcfg"
	"github.com/srv6pot/potnode/pkg/stats"
)

// BurstSize bounds how many buffers a single RXBurst call may return.
const BurstSize = 256

// Processor dispatches one received buffer. Ingress, Transit, and Egress
// all satisfy this signature.
type Processor func(cfg *potcfg.Config, counters *stats.Counters, port driver.Port, queue int, buf driver.Buffer)

// ProcessorFor returns the role-appropriate Processor.
func ProcessorFor(role potcfg.Role) Processor {
	switch role {
	case potcfg.RoleIngress:
		return Ingress
	case potcfg.RoleTransit:
		return Transit
	case potcfg.RoleEgress:
		return Egress
	default:
		return nil
	}
}

// Loop runs one worker's tight receive-dispatch-transmit cycle against
// its assigned queue until shutdown is set. Each processor call reseals
// and re-serialises into the same buffer it received from RXBurst, so
// this loop never allocates on its own; it polls shutdown only between
// bursts so a burst already in flight always finishes.
func Loop(cfg *potcfg.Config, counters *stats.Counters, port driver.Port, queue int, shutdown *atomic.Bool) {
	proc := ProcessorFor(cfg.Role)
	rx := make([]driver.Buffer, BurstSize)

	for !shutdown.Load() {
		n, err := port.RXBurst(queue, rx)
		if err != nil || n == 0 {
			continue
		}
		for i := 0; i < n; i++ {
			proc(cfg, counters, port, queue, rx[i])
		}
	}
}
