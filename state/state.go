// Package state defines the snapshot model of an emulated machine: the
// scheduler's cursor and pending set, plus each device's own serialized
// state. The scheduler portion must round-trip exactly so that a restored
// machine replays the very same callback order.
package state

import (
	"encoding/json"

	"github.com/emulab/tempo/timing"
)

// MachineState is the on-disk form of one machine snapshot.
type MachineState struct {
	Machine   string                     `json:"machine"`
	Scheduler timing.SchedulerState      `json:"scheduler"`
	Devices   map[string]json.RawMessage `json:"devices"`
}
