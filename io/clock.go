package io

import (
	"time"
)

// CYCLE is the duration of one machine cycle on a RealClock.
const CYCLE = time.Millisecond

// RealClock waits in wall-clock time.
type RealClock struct {
	Cycle time.Duration // Duration of one cycle; CYCLE when zero.
}

var _ Clock = (*RealClock)(nil)

// Wait sleeps for cycles machine cycles.
func (rc *RealClock) Wait(cycles uint16) {
	cycle := rc.Cycle
	if cycle == 0 {
		cycle = CYCLE
	}
	time.Sleep(time.Duration(cycles) * cycle)
}

// VirtualClock accounts for waits without any elapsed time.
type VirtualClock struct {
	Cycles uint64 // Total cycles waited.
	Waits  int    // Number of Wait calls.
}

var _ Clock = (*VirtualClock)(nil)

// Wait records the delay and returns at once.
func (vc *VirtualClock) Wait(cycles uint16) {
	vc.Cycles += uint64(cycles)
	vc.Waits++
}

// Elapsed returns the simulated time waited, at CYCLE per cycle.
func (vc *VirtualClock) Elapsed() time.Duration {
	return time.Duration(vc.Cycles) * CYCLE
}
