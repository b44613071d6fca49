// Package tracing records every sync point a machine dispatches. A trace is
// the ground truth for reproducibility checks: two runs fed identical
// inputs must produce identical traces.
package tracing

import (
	"github.com/rs/xid"

	"github.com/emulab/tempo/hooking"
	"github.com/emulab/tempo/timing"
)

// FireRecord describes one dispatched sync point.
type FireRecord struct {
	ID      string
	Machine string
	Owner   string
	Tag     int
	Time    timing.VirtualTime
}

// A Tracer consumes fire records.
type Tracer interface {
	RecordFire(r FireRecord)
}

// CollectFires attaches a tracer to a scheduler. Every sync point the
// scheduler dispatches from now on is forwarded to the tracer after its
// callback returns.
func CollectFires(s *timing.Scheduler, machineName string, t Tracer) {
	s.AcceptHook(&fireHook{machine: machineName, tracer: t})
}

type fireHook struct {
	machine string
	tracer  Tracer
}

func (h *fireHook) Func(ctx hooking.HookCtx) {
	if ctx.Pos != timing.HookPosAfterFire {
		return
	}

	fired, ok := ctx.Item.(timing.FiredSyncPoint)
	if !ok {
		return
	}

	h.tracer.RecordFire(FireRecord{
		ID:      xid.New().String(),
		Machine: h.machine,
		Owner:   fired.Owner.Name(),
		Tag:     fired.Tag,
		Time:    fired.Time,
	})
}
