package timing

import "log"

// Syncable is the catch-up contract of a stateful peripheral whose internal
// model is too expensive to update every tick (scanline buffers, envelope
// generators, flash command matching). SyncTo incrementally advances the
// internal state from the peripheral's own bookmark to t and moves the
// bookmark there.
//
// Contract:
//   - t lies between the bookmark and the Scheduler's cursor; syncing ahead
//     of "now" or behind the bookmark is a contract violation.
//   - Calling twice with the same t does no incremental work the second
//     time and leaves identical observable state.
//   - Any mutation that changes future output (register write, mix-level
//     change) must call SyncTo(now) under the old configuration first, so
//     effects already in flight are produced with the state that was active
//     when they occurred.
//
// Scheduler callbacks and catch-up are complementary: callbacks drive state
// changes that must happen at a specific time; catch-up defers state that
// only needs to be correct when observed.
type Syncable interface {
	SyncTo(t VirtualTime)
}

// Bookmark tracks the last time a lazily evaluated device model was brought
// up to date, and enforces the catch-up guards.
type Bookmark struct {
	last VirtualTime
}

// Time returns the bookmark position.
func (b *Bookmark) Time() VirtualTime {
	return b.last
}

// AdvanceTo moves the bookmark to t and returns the ticks the device model
// has to integrate. now is the owning Scheduler's cursor. Advancing to the
// bookmark itself returns zero, which is what makes SyncTo idempotent.
func (b *Bookmark) AdvanceTo(t, now VirtualTime) Duration {
	if t > now {
		log.Panicf("syncing to %s, ahead of current time %s", t, now)
	}

	if t < b.last {
		log.Panicf("syncing to %s, behind bookmark %s", t, b.last)
	}

	d := t.Sub(b.last)
	b.last = t

	return d
}

// Reset moves the bookmark without integration, for power-on and snapshot
// restore.
func (b *Bookmark) Reset(t VirtualTime) {
	b.last = t
}
