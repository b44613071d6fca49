package timing

import "log"

// DefaultTag is the tag used by devices that only ever hold one sync point.
const DefaultTag = 0

// A Schedulable is a hardware-component model that can receive time-based
// callbacks from a Scheduler.
//
// A Schedulable may hold any number of outstanding sync points at a time,
// distinguished by a small integer tag of its own choosing. At most one sync
// point exists per (Schedulable, tag) pair; registering a tag again replaces
// the previous registration.
type Schedulable interface {
	// ExecuteUntil is invoked exactly once per fired sync point, at the
	// moment it fires. It may mutate arbitrary state and may register or
	// remove sync points, including ones due within the current drain.
	ExecuteUntil(t VirtualTime, tag int)

	// Name returns a stable diagnostic label. It has no behavioral effect,
	// but it identifies the device in traces, snapshots and panic messages.
	Name() string

	// SchedulerDeleted is called on every Schedulable that still holds
	// outstanding sync points when its Scheduler is torn down. An
	// implementation must release its registrations here; a Schedulable
	// still registered afterward is a bug.
	SchedulerDeleted()
}

// SchedulableBase gives device models the sync-point helpers by delegation.
// Embed it and construct it with the device itself as the owner; all helper
// calls are restricted to the owner's own registrations.
//
// The back-reference to the Scheduler is non-owning and is only valid until
// the Scheduler's teardown notification.
type SchedulableBase struct {
	owner     Schedulable
	scheduler *Scheduler
}

// NewSchedulableBase creates the helper for one device model.
func NewSchedulableBase(
	owner Schedulable,
	scheduler *Scheduler,
) SchedulableBase {
	if owner == nil || scheduler == nil {
		log.Panic("a schedulable needs an owner and a scheduler")
	}

	return SchedulableBase{owner: owner, scheduler: scheduler}
}

// SetSyncPoint registers a callback for the owner at time t. A sync point
// already pending for the same tag is replaced.
func (b *SchedulableBase) SetSyncPoint(t VirtualTime, tag int) {
	b.scheduler.SetSyncPoint(b.owner, t, tag)
}

// RemoveSyncPoint cancels the owner's sync point for tag, if any.
func (b *SchedulableBase) RemoveSyncPoint(tag int) {
	b.scheduler.RemoveSyncPoint(b.owner, tag)
}

// RemoveSyncPoints cancels all of the owner's sync points.
func (b *SchedulableBase) RemoveSyncPoints() {
	b.scheduler.RemoveSyncPoints(b.owner)
}

// PendingSyncPoint reports whether the owner has a sync point pending for
// tag.
func (b *SchedulableBase) PendingSyncPoint(tag int) bool {
	return b.scheduler.PendingSyncPoint(b.owner, tag)
}

// Now returns the Scheduler's cursor, the time up to which all due
// callbacks have been dispatched.
func (b *SchedulableBase) Now() VirtualTime {
	return b.scheduler.Now()
}

// Scheduler returns the owning machine's scheduler.
func (b *SchedulableBase) Scheduler() *Scheduler {
	return b.scheduler
}

// SchedulerDeleted logs a diagnostic. A device that can still hold sync
// points at teardown must shadow this method and release them.
func (b *SchedulableBase) SchedulerDeleted() {
	log.Printf(
		"scheduler deleted while %s still has sync points pending",
		b.owner.Name(),
	)
}
