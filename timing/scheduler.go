// Package timing is the time-synchronization core of the emulator. It keeps
// every chip model of one emulated machine in a single deterministic
// temporal order: a virtual clock value type, a sync-point scheduler, and
// the catch-up contract used by lazily evaluated peripherals.
package timing

import (
	"log"

	"github.com/emulab/tempo/hooking"
)

// HookPosBeforeFire is the hook position right before a sync-point callback
// runs. The hook item is a FiredSyncPoint.
var HookPosBeforeFire = &hooking.HookPos{Name: "BeforeFire"}

// HookPosAfterFire is the hook position right after a sync-point callback
// returned.
var HookPosAfterFire = &hooking.HookPos{Name: "AfterFire"}

// FiredSyncPoint describes one dispatched callback to hooks.
type FiredSyncPoint struct {
	Owner Schedulable
	Time  VirtualTime
	Tag   int
}

// A Scheduler owns the pending sync points of one emulated machine and
// dispatches their callbacks in a single global deterministic order:
// ascending time, ties broken by registration order.
//
// Exactly one logical thread of control may own virtual-time progression.
// The Scheduler is not safe for concurrent use; that is the machine's
// run-to-completion model, not an oversight.
type Scheduler struct {
	hooking.HookableBase

	queue   syncQueue
	now     VirtualTime
	nextSeq uint64
}

// NewScheduler creates a Scheduler with the cursor at power-on time.
func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// Now returns the cursor: the time up to which all due callbacks have been
// dispatched. It never decreases.
func (s *Scheduler) Now() VirtualTime {
	return s.now
}

// NextTime returns the earliest pending sync-point time, or Infinity when
// nothing is pending. The driving loop uses it to bound how far it may
// advance without skipping an event.
func (s *Scheduler) NextTime() VirtualTime {
	if s.queue.Len() == 0 {
		return Infinity
	}

	return s.queue.Front().time
}

// SetSyncPoint registers a callback for owner at time t. Scheduling at the
// cursor is legal and fires on the next drain; scheduling before the cursor
// means the simulation state is inconsistent and halts execution. A sync
// point already pending for (owner, tag) is replaced, never accumulated.
func (s *Scheduler) SetSyncPoint(owner Schedulable, t VirtualTime, tag int) {
	if t == Infinity {
		log.Panicf("%s: sync point at infinity, tag %d", owner.Name(), tag)
	}

	if t < s.now {
		log.Panicf(
			"%s: sync point at %s, tag %d, before current time %s",
			owner.Name(), t, tag, s.now,
		)
	}

	s.queue.Remove(owner, tag)
	s.queue.Insert(syncPoint{time: t, owner: owner, tag: tag, seq: s.nextSeq})
	s.nextSeq++
}

// RemoveSyncPoint cancels the sync point for (owner, tag). Cancellation is
// unconditional: once this returns, the entry will never fire. Nothing
// pending is a no-op.
func (s *Scheduler) RemoveSyncPoint(owner Schedulable, tag int) {
	s.queue.Remove(owner, tag)
}

// RemoveSyncPoints cancels all sync points owned by owner.
func (s *Scheduler) RemoveSyncPoints(owner Schedulable) {
	s.queue.RemoveAll(owner)
}

// PendingSyncPoint reports whether a sync point for (owner, tag) is pending.
func (s *Scheduler) PendingSyncPoint(owner Schedulable, tag int) bool {
	return s.queue.Contains(owner, tag)
}

// ScheduleUpTo fires, in order, every sync point due at or before target,
// then advances the cursor to exactly target even if nothing fired there.
//
// Each entry is removed from the pending set before its callback runs, so a
// callback re-registering the same tag is never confused with the
// already-fired copy. Callbacks may freely add or remove sync points; a
// newly added entry due within this drain still fires before the call
// returns.
func (s *Scheduler) ScheduleUpTo(target VirtualTime) {
	if target == Infinity {
		log.Panic("cannot advance the machine to infinity")
	}

	if target < s.now {
		log.Panicf(
			"cannot advance backwards from %s to %s", s.now, target,
		)
	}

	for s.queue.Len() > 0 {
		p := s.queue.Front()
		if p.time > target {
			break
		}

		s.queue.PopFront()
		s.now = p.time

		fired := FiredSyncPoint{Owner: p.owner, Time: p.time, Tag: p.tag}
		hookCtx := hooking.HookCtx{
			Domain: s,
			Pos:    HookPosBeforeFire,
			Item:   fired,
		}
		s.InvokeHook(hookCtx)

		p.owner.ExecuteUntil(p.time, p.tag)

		hookCtx.Pos = HookPosAfterFire
		s.InvokeHook(hookCtx)
	}

	s.now = target
}

// Delete tears the Scheduler down. Every Schedulable still holding sync
// points is notified so it can release them; any registration remaining
// afterward is a bug and halts execution.
func (s *Scheduler) Delete() {
	for _, owner := range s.queue.Owners() {
		owner.SchedulerDeleted()
	}

	if s.queue.Len() > 0 {
		p := s.queue.Front()
		log.Panicf(
			"%s still registered after scheduler teardown (tag %d at %s)",
			p.owner.Name(), p.tag, p.time,
		)
	}
}
