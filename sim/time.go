package sim

import "log"

// VTime is a point in simulated time, counted in ticks. One tick is one
// picosecond.
type VTime uint64

// TicksPerSecond is the number of ticks in one simulated second.
const TicksPerSecond VTime = 1_000_000_000_000

// Freq defines the type of frequency, in Hz.
type Freq uint64

// Defines the unit of frequency
const (
	Hz  Freq = 1
	KHz Freq = 1e3
	MHz Freq = 1e6
	GHz Freq = 1e9
)

// Period returns the number of ticks between two consecutive cycles.
func (f Freq) Period() VTime {
	if f == 0 {
		log.Panic("frequency cannot be 0")
	}

	return (TicksPerSecond + VTime(f)/2) / VTime(f)
}

// Cycle converts a time to the number of cycles passed since time 0.
func (f Freq) Cycle(time VTime) uint64 {
	return uint64(time / f.Period())
}

// ThisTick returns the current cycle edge. If now is exactly on an edge, now
// is returned; otherwise the next edge is.
//
//	               Input
//	               (          ]
//	    |----------|----------|----------|----->
//	                          |
//	                          Output
func (f Freq) ThisTick(now VTime) VTime {
	period := f.Period()
	if now%period == 0 {
		return now
	}

	return (now/period + 1) * period
}

// NextTick returns the first cycle edge strictly after now.
//
//	               Input
//	               [          )
//	    |----------|----------|----------|----->
//	                          |
//	                          Output
func (f Freq) NextTick(now VTime) VTime {
	period := f.Period()
	return (now/period + 1) * period
}

// NCyclesLater returns the time n cycles after the current cycle edge.
func (f Freq) NCyclesLater(n int, now VTime) VTime {
	if n < 0 {
		log.Panicf("cannot go %d cycles back", n)
	}

	return f.ThisTick(now) + VTime(n)*f.Period()
}

// InSec converts the time to seconds, for reporting.
func (t VTime) InSec() float64 {
	return float64(t) / float64(TicksPerSecond)
}
