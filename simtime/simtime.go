// Package simtime defines the simulation's notion of time: an unsigned
// nanosecond counter shared by every other package in this module.
package simtime

// Time is a count of nanoseconds since simulation start. It is monotonic
// for the life of a run.
type Time = uint64

// Max denotes "unbounded" — used as a window end when the simulation is
// running single-threaded and has no windowing constraint.
const Max Time = ^Time(0)

// Common time units, expressed in nanoseconds.
const (
	Nanosecond  Time = 1
	Microsecond      = 1000 * Nanosecond
	Millisecond      = 1000 * Microsecond
	Second           = 1000 * Millisecond
)
