// Package vdp models the display timing of the video chip: a scanline
// counter driven entirely by scheduler callbacks. It is the canonical
// "state changes that must happen at a specific time" device; compare the
// lazily synced devices in devices/tonegen and devices/cassette.
package vdp

import (
	"encoding/json"

	"github.com/emulab/tempo/timing"
)

// Sync point tags.
const (
	TagHSync = iota
	TagVBlank
)

// CPUClock is the master CPU rate the display timing is derived from.
const CPUClock = 3579545 * timing.Hz

// Display geometry, in CPU cycles and scanlines.
const (
	CyclesPerLine = 228
	LinesPerFrame = 313
	VBlankLine    = 243
)

// VDP is the display-timing model. Every horizontal sync callback advances
// the line counter and registers the next one; the vertical blanking line
// additionally raises the frame interrupt.
type VDP struct {
	timing.SchedulableBase

	name string

	linePeriod timing.Duration
	line       int
	frame      uint64

	onVBlank func(t timing.VirtualTime)
}

// New creates a VDP attached to the given scheduler. onVBlank, if not nil,
// is invoked once per frame at the vertical blanking instant.
func New(
	name string,
	scheduler *timing.Scheduler,
	onVBlank func(t timing.VirtualTime),
) *VDP {
	v := &VDP{
		name:       name,
		linePeriod: CPUClock.Period() * CyclesPerLine,
		onVBlank:   onVBlank,
	}
	v.SchedulableBase = timing.NewSchedulableBase(v, scheduler)

	return v
}

// Name returns the diagnostic label of the chip.
func (v *VDP) Name() string {
	return v.name
}

// PowerOn starts the scanline engine at time t.
func (v *VDP) PowerOn(t timing.VirtualTime) {
	v.line = 0
	v.frame = 0
	v.SetSyncPoint(t.Add(v.linePeriod), TagHSync)
}

// Line returns the scanline the beam is on.
func (v *VDP) Line() int {
	return v.line
}

// Frame returns the number of completed frames.
func (v *VDP) Frame() uint64 {
	return v.frame
}

// FrameDuration returns the ticks of one full frame.
func (v *VDP) FrameDuration() timing.Duration {
	return v.linePeriod * LinesPerFrame
}

// ExecuteUntil dispatches the chip's sync points.
func (v *VDP) ExecuteUntil(t timing.VirtualTime, tag int) {
	switch tag {
	case TagHSync:
		v.line++
		if v.line == VBlankLine {
			// Fires within the same drain, after the remaining
			// same-time work.
			v.SetSyncPoint(t, TagVBlank)
		}

		if v.line == LinesPerFrame {
			v.line = 0
			v.frame++
		}

		v.SetSyncPoint(t.Add(v.linePeriod), TagHSync)

	case TagVBlank:
		if v.onVBlank != nil {
			v.onVBlank(t)
		}
	}
}

// SchedulerDeleted releases the scanline engine's registrations.
func (v *VDP) SchedulerDeleted() {
	v.RemoveSyncPoints()
}

type vdpState struct {
	Line  int    `json:"line"`
	Frame uint64 `json:"frame"`
}

// State returns the snapshot view of the chip.
func (v *VDP) State() any {
	return vdpState{Line: v.line, Frame: v.frame}
}

// RestoreState replaces the beam position from a snapshot. The pending hsync
// registration itself is restored with the schedule, not here.
func (v *VDP) RestoreState(data []byte, _ timing.VirtualTime) error {
	st := vdpState{}

	err := json.Unmarshal(data, &st)
	if err != nil {
		return err
	}

	v.line = st.Line
	v.frame = st.Frame

	return nil
}
