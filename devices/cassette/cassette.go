// Package cassette models a tape deck. The tape position is integrated
// lazily from a catch-up bookmark; the only hard deadline, reaching the end
// of the tape, is a scheduler sync point that is re-registered (replacing
// the previous one) whenever motor state or tape position changes.
package cassette

import (
	"encoding/json"

	"github.com/emulab/tempo/timing"
)

// TagEndOfTape marks the instant the tape runs out.
const TagEndOfTape = 0

// Deck is the tape deck model.
type Deck struct {
	timing.SchedulableBase

	name string

	bookmark timing.Bookmark
	motor    bool
	pos      timing.Duration
	length   timing.Duration
}

// New creates a tape deck attached to the given scheduler.
func New(name string, scheduler *timing.Scheduler) *Deck {
	d := &Deck{name: name}
	d.SchedulableBase = timing.NewSchedulableBase(d, scheduler)

	return d
}

// Name returns the diagnostic label of the deck.
func (d *Deck) Name() string {
	return d.name
}

// InsertTape loads a tape of the given play length at time t, rewound.
func (d *Deck) InsertTape(length timing.Duration, t timing.VirtualTime) {
	d.SyncTo(t)

	d.pos = 0
	d.length = length
	d.updateEndOfTape(t)
}

// RemoveTape ejects the tape at time t.
func (d *Deck) RemoveTape(t timing.VirtualTime) {
	d.SyncTo(t)

	d.pos = 0
	d.length = 0
	d.updateEndOfTape(t)
}

// SetMotor switches the motor at time t. The position is brought up to date
// under the old motor state first.
func (d *Deck) SetMotor(on bool, t timing.VirtualTime) {
	if on == d.motor {
		return
	}

	d.SyncTo(t)

	d.motor = on
	d.updateEndOfTape(t)
}

// Motor reports whether the motor is running.
func (d *Deck) Motor() bool {
	return d.motor
}

// Position returns the tape position as of time t.
func (d *Deck) Position(t timing.VirtualTime) timing.Duration {
	d.SyncTo(t)

	return d.pos
}

// SyncTo advances the tape position from the bookmark to t.
func (d *Deck) SyncTo(t timing.VirtualTime) {
	elapsed := d.bookmark.AdvanceTo(t, d.Now())

	if !d.motor || d.length == 0 {
		return
	}

	d.pos += elapsed
	if d.pos > d.length {
		d.pos = d.length
	}
}

// updateEndOfTape re-registers the end-of-tape deadline for the current
// motor state and position. Replace-by-tag keeps at most one pending.
func (d *Deck) updateEndOfTape(t timing.VirtualTime) {
	d.RemoveSyncPoint(TagEndOfTape)

	if d.motor && d.length > d.pos {
		d.SetSyncPoint(t.Add(d.length-d.pos), TagEndOfTape)
	}
}

// ExecuteUntil stops the motor when the tape runs out.
func (d *Deck) ExecuteUntil(t timing.VirtualTime, tag int) {
	if tag != TagEndOfTape {
		return
	}

	d.SyncTo(t)
	d.motor = false
}

// SchedulerDeleted releases the end-of-tape registration.
func (d *Deck) SchedulerDeleted() {
	d.RemoveSyncPoints()
}

type deckState struct {
	Motor  bool            `json:"motor"`
	Pos    timing.Duration `json:"pos"`
	Length timing.Duration `json:"length"`
}

// State returns the snapshot view of the deck.
func (d *Deck) State() any {
	return deckState{Motor: d.motor, Pos: d.pos, Length: d.length}
}

// RestoreState replaces the deck state from a snapshot and moves the
// bookmark to the restored machine's cursor.
func (d *Deck) RestoreState(data []byte, now timing.VirtualTime) error {
	st := deckState{}

	err := json.Unmarshal(data, &st)
	if err != nil {
		return err
	}

	d.motor = st.Motor
	d.pos = st.Pos
	d.length = st.Length
	d.bookmark.Reset(now)

	return nil
}
