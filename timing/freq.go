package timing

import "log"

// Freq is a hardware clock rate in Hz. The virtual clock resolution is an
// integer multiple of every rate used in the machine, so a Freq converts to
// a whole number of ticks per cycle.
type Freq uint64

// Units of frequency.
const (
	Hz  Freq = 1
	KHz Freq = 1e3
	MHz Freq = 1e6
)

// Period returns the ticks between two consecutive cycles of this clock.
func (f Freq) Period() Duration {
	if f == 0 {
		log.Panic("frequency cannot be 0")
	}

	if TicksPerSecond%uint64(f) != 0 {
		log.Panicf("frequency %d Hz does not divide the virtual clock", f)
	}

	return Duration(TicksPerSecond / uint64(f))
}

// Cycle converts a time to the number of full cycles of this clock since
// power-on.
func (f Freq) Cycle(t VirtualTime) uint64 {
	return uint64(t) / uint64(f.Period())
}

// NCyclesLater returns the time n cycles after now.
func (f Freq) NCyclesLater(n int, now VirtualTime) VirtualTime {
	if n < 0 {
		log.Panic("cannot move backwards in cycles")
	}

	return now.Add(Duration(n) * f.Period())
}

// NextCycle returns the first cycle boundary of this clock strictly after
// now.
//
//	           Input
//	           [          )
//	|----------|----------|----------|----->
//	                      |
//	                      Output
func (f Freq) NextCycle(now VirtualTime) VirtualTime {
	period := uint64(f.Period())
	count := uint64(now) / period

	return VirtualTime((count + 1) * period)
}

// ThisCycle returns the cycle boundary of this clock at or right after now.
//
//	           Input
//	           (          ]
//	|----------|----------|----------|----->
//	                      |
//	                      Output
func (f Freq) ThisCycle(now VirtualTime) VirtualTime {
	period := uint64(f.Period())
	count := (uint64(now) + period - 1) / period

	return VirtualTime(count * period)
}
