// Package tonegen models the envelope generator of the sound chip. Its
// output is only computed when observed: the generator keeps a catch-up
// bookmark and integrates envelope steps lazily, while a scheduler sync
// point marks the exact instant the envelope expires.
package tonegen

import (
	"encoding/json"

	"github.com/emulab/tempo/timing"
)

// TagEnvelopeEnd marks the instant the envelope decays to silence.
const TagEnvelopeEnd = 0

// MaxLevel is the envelope level right after key-on.
const MaxLevel = 255

const cpuClock = 3579545 * timing.Hz

// One envelope step every 72 CPU cycles.
const stepCycles = 72

// mixFactors attenuates the output in -3dB-ish steps, 0dB down to mute.
var mixFactors = [8]int32{256, 192, 128, 96, 64, 48, 32, 0}

// ToneGen is the envelope generator model.
type ToneGen struct {
	timing.SchedulableBase

	name string

	bookmark   timing.Bookmark
	stepPeriod timing.Duration
	phase      timing.Duration

	level    int
	mixLevel int
	active   bool

	steps    uint64
	rendered []int32
}

// New creates an envelope generator attached to the given scheduler.
func New(name string, scheduler *timing.Scheduler) *ToneGen {
	g := &ToneGen{
		name:       name,
		stepPeriod: cpuClock.Period() * stepCycles,
	}
	g.SchedulableBase = timing.NewSchedulableBase(g, scheduler)

	return g
}

// Name returns the diagnostic label of the chip.
func (g *ToneGen) Name() string {
	return g.name
}

// StepPeriod returns the ticks between two envelope steps.
func (g *ToneGen) StepPeriod() timing.Duration {
	return g.stepPeriod
}

// SyncTo brings the envelope up to date with time t. Calling it again with
// the same t does no additional work.
func (g *ToneGen) SyncTo(t timing.VirtualTime) {
	d := g.bookmark.AdvanceTo(t, g.Now())

	if !g.active {
		return
	}

	g.phase += d
	for g.phase >= g.stepPeriod {
		g.phase -= g.stepPeriod
		g.step()
	}
}

func (g *ToneGen) step() {
	g.steps++
	g.rendered = append(g.rendered, g.sample())

	if g.level > 0 {
		g.level--
	}
}

func (g *ToneGen) sample() int32 {
	return int32(g.level) * mixFactors[g.mixLevel] >> 8
}

// KeyOn restarts the envelope at time t and registers the expiry sync
// point.
func (g *ToneGen) KeyOn(t timing.VirtualTime) {
	g.SyncTo(t)

	g.level = MaxLevel
	g.phase = 0
	g.active = true

	g.SetSyncPoint(
		t.Add(g.stepPeriod*timing.Duration(g.level)), TagEnvelopeEnd)
}

// KeyOff silences the envelope at time t.
func (g *ToneGen) KeyOff(t timing.VirtualTime) {
	g.SyncTo(t)

	g.active = false
	g.RemoveSyncPoint(TagEnvelopeEnd)
}

// SetMixLevel changes the output attenuation at time t. Output already in
// flight is rendered under the old level first.
func (g *ToneGen) SetMixLevel(x int, t timing.VirtualTime) {
	g.SyncTo(t)

	g.mixLevel = x & 7
}

// Level returns the envelope level as of time t.
func (g *ToneGen) Level(t timing.VirtualTime) int {
	g.SyncTo(t)

	return g.level
}

// Steps returns how many incremental envelope steps have been computed.
// Only meaningful for verifying that catch-up work is not repeated.
func (g *ToneGen) Steps() uint64 {
	return g.steps
}

// Rendered returns the samples produced so far.
func (g *ToneGen) Rendered() []int32 {
	return g.rendered
}

// ExecuteUntil handles the envelope expiry.
func (g *ToneGen) ExecuteUntil(t timing.VirtualTime, tag int) {
	if tag != TagEnvelopeEnd {
		return
	}

	g.SyncTo(t)
	g.active = false
}

// SchedulerDeleted releases the expiry registration.
func (g *ToneGen) SchedulerDeleted() {
	g.RemoveSyncPoints()
}

type toneGenState struct {
	Level    int             `json:"level"`
	MixLevel int             `json:"mix_level"`
	Active   bool            `json:"active"`
	Phase    timing.Duration `json:"phase"`
}

// State returns the snapshot view of the generator.
func (g *ToneGen) State() any {
	return toneGenState{
		Level:    g.level,
		MixLevel: g.mixLevel,
		Active:   g.active,
		Phase:    g.phase,
	}
}

// RestoreState replaces the generator state from a snapshot and moves the
// bookmark to the restored machine's cursor.
func (g *ToneGen) RestoreState(data []byte, now timing.VirtualTime) error {
	st := toneGenState{}

	err := json.Unmarshal(data, &st)
	if err != nil {
		return err
	}

	g.level = st.Level
	g.mixLevel = st.MixLevel
	g.active = st.Active
	g.phase = st.Phase
	g.steps = 0
	g.rendered = nil
	g.bookmark.Reset(now)

	return nil
}
