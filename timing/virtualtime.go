package timing

import (
	"fmt"
	"log"
	"math"
)

// TicksPerSecond is the resolution of the virtual clock. It is an integer
// multiple of every hardware clock rate in the emulated machine, so any chip
// frequency can be expressed as a whole number of ticks per cycle.
const TicksPerSecond uint64 = 3579545 * 960

// VirtualTime is an absolute point on the virtual clock, counted in ticks
// since machine power-on. It is totally ordered and only ever moves forward
// when observed through a Scheduler.
type VirtualTime uint64

// Duration is a signed tick delta between two VirtualTime values.
type Duration int64

// Infinity compares greater than every finite VirtualTime. It means "nothing
// scheduled" and is never a valid dispatch target.
const Infinity VirtualTime = math.MaxUint64

// Zero is the power-on time.
const Zero VirtualTime = 0

// Add returns the time d ticks after t. Moving a time before zero or adding
// to Infinity indicates inconsistent simulation state.
func (t VirtualTime) Add(d Duration) VirtualTime {
	if t == Infinity {
		log.Panic("cannot offset the infinite time")
	}

	if d < 0 && uint64(-d) > uint64(t) {
		log.Panicf("time underflow: %s %d", t, d)
	}

	return VirtualTime(int64(t) + int64(d))
}

// Sub returns the signed tick delta t - u.
func (t VirtualTime) Sub(u VirtualTime) Duration {
	if t == Infinity || u == Infinity {
		log.Panic("cannot take the difference of the infinite time")
	}

	return Duration(t) - Duration(u)
}

// DurationBetween returns the elapsed ticks from earlier to later. The two
// arguments being out of order is a programmer error.
func DurationBetween(earlier, later VirtualTime) Duration {
	if later < earlier {
		log.Panicf("negative duration: %s to %s", earlier, later)
	}

	return later.Sub(earlier)
}

// Seconds converts the duration to wall-equivalent seconds at the virtual
// clock resolution. Only used for diagnostics.
func (d Duration) Seconds() float64 {
	return float64(d) / float64(TicksPerSecond)
}

func (t VirtualTime) String() string {
	if t == Infinity {
		return "inf"
	}

	return fmt.Sprintf("%d", uint64(t))
}
