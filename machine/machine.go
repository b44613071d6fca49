// Package machine provides the per-machine context object. One Machine owns
// one Scheduler and the registry of devices attached to it; every component
// that needs to schedule gets the context injected at construction instead
// of reaching for global state.
package machine

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/rs/xid"

	"github.com/emulab/tempo/state"
	"github.com/emulab/tempo/timing"
)

// A StateHolder is a device whose internal state participates in machine
// snapshots. Devices that are pure functions of their sync points do not
// need to implement it.
type StateHolder interface {
	// State returns a JSON-marshalable view of the device state.
	State() any

	// RestoreState replaces the device state with a previously saved view.
	// The device must also reset any catch-up bookmark to the restored
	// machine's cursor.
	RestoreState(data []byte, now timing.VirtualTime) error
}

// A Machine is one emulated machine instance: a scheduler, its devices, and
// the snapshot plumbing between them.
type Machine struct {
	name      string
	id        string
	scheduler *timing.Scheduler

	devices     []timing.Schedulable
	deviceIndex map[string]int
}

// New creates a machine with a fresh scheduler at power-on time.
func New(name string) *Machine {
	return &Machine{
		name:        name,
		id:          xid.New().String(),
		scheduler:   timing.NewScheduler(),
		deviceIndex: make(map[string]int),
	}
}

// Name returns the machine name.
func (m *Machine) Name() string {
	return m.name
}

// ID returns the unique instance ID of this machine.
func (m *Machine) ID() string {
	return m.id
}

// Scheduler returns the machine's scheduler.
func (m *Machine) Scheduler() *timing.Scheduler {
	return m.scheduler
}

// RegisterDevice attaches a device to the machine. Device names identify
// devices in snapshots and traces, so duplicates are not allowed.
func (m *Machine) RegisterDevice(d timing.Schedulable) {
	name := d.Name()
	if _, ok := m.deviceIndex[name]; ok {
		panic("device " + name + " already registered")
	}

	m.devices = append(m.devices, d)
	m.deviceIndex[name] = len(m.devices) - 1
}

// Devices returns the registered devices in registration order.
func (m *Machine) Devices() []timing.Schedulable {
	return m.devices
}

// SchedulableByName resolves a snapshot owner identifier to the live
// device. It implements timing.Resolver.
func (m *Machine) SchedulableByName(name string) (timing.Schedulable, bool) {
	i, ok := m.deviceIndex[name]
	if !ok {
		return nil, false
	}

	return m.devices[i], true
}

// AdvanceTo drives the machine forward: it fires every sync point due at or
// before target and leaves the cursor at exactly target.
func (m *Machine) AdvanceTo(target timing.VirtualTime) {
	m.scheduler.ScheduleUpTo(target)
}

// Delete tears the machine down, notifying every device that still holds
// sync points.
func (m *Machine) Delete() {
	m.scheduler.Delete()
}

// Save writes a snapshot of the scheduler and every StateHolder device.
func (m *Machine) Save(w io.Writer) error {
	st := state.MachineState{
		Machine:   m.name,
		Scheduler: m.scheduler.State(),
		Devices:   make(map[string]json.RawMessage),
	}

	for _, d := range m.devices {
		holder, ok := d.(StateHolder)
		if !ok {
			continue
		}

		data, err := json.Marshal(holder.State())
		if err != nil {
			return fmt.Errorf("saving %s: %w", d.Name(), err)
		}

		st.Devices[d.Name()] = data
	}

	return state.NewJSONCodec().Encode(st, w)
}

// Load restores a snapshot: device state first, then the schedule, so that
// re-established sync points reproduce the saved dispatch order exactly.
func (m *Machine) Load(r io.Reader) error {
	st, err := state.NewJSONCodec().Decode(r)
	if err != nil {
		return err
	}

	if st.Machine != m.name {
		return fmt.Errorf(
			"snapshot is for machine %q, not %q", st.Machine, m.name)
	}

	for name, data := range st.Devices {
		d, ok := m.SchedulableByName(name)
		if !ok {
			return fmt.Errorf("snapshot refers to unknown device %q", name)
		}

		holder, ok := d.(StateHolder)
		if !ok {
			return fmt.Errorf("device %q does not hold state", name)
		}

		err = holder.RestoreState(data, st.Scheduler.Now)
		if err != nil {
			return fmt.Errorf("restoring %s: %w", name, err)
		}
	}

	m.scheduler.Restore(st.Scheduler, m)

	return nil
}
