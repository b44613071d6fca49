package timing

import "log"

// SyncPointState is one pending registration in a snapshot. The owner is
// identified by its diagnostic name; resolving it back to a live device is
// the job of a Resolver.
type SyncPointState struct {
	Owner string      `json:"owner"`
	Time  VirtualTime `json:"time"`
	Tag   int         `json:"tag"`
}

// SchedulerState is everything the Scheduler itself persists: the cursor
// and the pending set, in dispatch order. Restoring it reproduces the exact
// prior schedule, including same-time tie-breaks.
type SchedulerState struct {
	Now     VirtualTime      `json:"now"`
	Pending []SyncPointState `json:"pending"`
}

// A Resolver maps an owner identifier from a snapshot back to the live
// device registered under that name.
type Resolver interface {
	SchedulableByName(name string) (Schedulable, bool)
}

// State captures the Scheduler for a snapshot.
func (s *Scheduler) State() SchedulerState {
	st := SchedulerState{Now: s.now}

	for _, p := range s.queue.points {
		st.Pending = append(st.Pending, SyncPointState{
			Owner: p.owner.Name(),
			Time:  p.time,
			Tag:   p.tag,
		})
	}

	return st
}

// Restore replaces the Scheduler's cursor and pending set with a snapshot.
// Registration order follows the snapshot's pending order, so replayed
// dispatch is bit-for-bit identical to the run that was saved. Device state
// must be restored before this is called.
func (s *Scheduler) Restore(st SchedulerState, r Resolver) {
	s.queue.points = nil
	s.now = st.Now

	for _, p := range st.Pending {
		owner, ok := r.SchedulableByName(p.Owner)
		if !ok {
			log.Panicf("snapshot refers to unknown device %q", p.Owner)
		}

		s.SetSyncPoint(owner, p.Time, p.Tag)
	}
}
