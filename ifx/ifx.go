// SPDX-License-Identifier: GPL-3.0
// Copyright 2024 Pete Heist

// Package ifx implements the interference buffer (spec §4.4): a
// fixed-capacity set of concurrently active signals seen by one
// receiver, with a running total-power accumulator used for SINR and
// CCA decisions.
package ifx

import (
	"math"

	"github.com/heistp/dot11sim/clock"
)

// DefaultCapacity is the default number of concurrent interference
// records a receiver tracks (spec §3).
const DefaultCapacity = 10

// Record is the interference bookkeeping kept for one active signal:
// source id, received power (linear watts), absolute end time, and the
// metadata the SINR model needs (spec §3 "Interference record").
type Record struct {
	SourceID  int
	RxPowerW  float64
	EndTime   clock.Clock
	StartTime clock.Clock
	Format    int // frametab.Format, stored as a plain int
	Bandwidth int // frametab.Bandwidth
	NumAnt    int
	NumSTS    int
}

// DbmToWatts converts a power in dBm to linear watts.
func DbmToWatts(dbm float64) float64 {
	return math.Pow(10, (dbm-30)/10)
}

// WattsToDbm converts linear watts to dBm.
func WattsToDbm(w float64) float64 {
	if w <= 0 {
		return math.Inf(-1)
	}
	return 10*math.Log10(w) + 30
}

type slot struct {
	active  bool
	record  Record
	endTime clock.Clock
}

// Buffer is a fixed-capacity interference buffer for one receiver.
type Buffer struct {
	slot       []slot
	count      int
	totalPower float64 // watts
}

// NewBuffer returns a new Buffer with the given slot capacity.
func NewBuffer(capacity int) *Buffer {
	return &Buffer{slot: make([]slot, capacity)}
}

// Add inserts rec into the first inactive slot. It panics if the buffer
// is already full — a capacity violation here is a programming error,
// per spec §7.
func (b *Buffer) Add(rec Record) {
	for i := range b.slot {
		if !b.slot[i].active {
			b.slot[i] = slot{active: true, record: rec, endTime: rec.EndTime}
			b.count++
			b.totalPower += rec.RxPowerW
			return
		}
	}
	panic("ifx: interference buffer is full")
}

// Update expires every slot whose end time has passed, decrementing the
// total-power accumulator and count accordingly.
func (b *Buffer) Update(now clock.Clock) {
	for i := range b.slot {
		s := &b.slot[i]
		if s.active && s.endTime <= now {
			b.totalPower -= s.record.RxPowerW
			b.count--
			s.active = false
			s.record = Record{}
		}
	}
}

// Signals returns the currently active records. Callers must call Update
// first to get a view consistent with "now".
func (b *Buffer) Signals() []Record {
	r := make([]Record, 0, b.count)
	for i := range b.slot {
		if b.slot[i].active {
			r = append(r, b.slot[i].record)
		}
	}
	return r
}

// TotalPower returns the sum of RxPowerW over active slots, in watts.
func (b *Buffer) TotalPower() float64 {
	return b.totalPower
}

// NumSignals returns the number of active slots.
func (b *Buffer) NumSignals() int {
	return b.count
}

// Timer returns the minimum end time over active slots, or -1 if the
// buffer is empty.
func (b *Buffer) Timer() clock.Clock {
	t := clock.Clock(-1)
	for i := range b.slot {
		if b.slot[i].active && (t < 0 || b.slot[i].endTime < t) {
			t = b.slot[i].endTime
		}
	}
	return t
}

// Capacity returns the buffer's slot capacity.
func (b *Buffer) Capacity() int {
	return len(b.slot)
}

// InterferenceLog accumulates the total time the current signal-of-
// interest spent overlapped by interferers, handling the three
// geometries (disjoint-after, overlapping-extending, fully-contained)
// so double counting is avoided, per spec §4.4.
type InterferenceLog struct {
	total    clock.Clock
	priorEnd clock.Clock // end of last-logged overlap, -1 if none yet
}

// NewInterferenceLog returns a new, empty InterferenceLog.
func NewInterferenceLog() *InterferenceLog {
	return &InterferenceLog{priorEnd: -1}
}

// Log adds the overlap between [soiStart, soiEnd) and the interferer's
// [rec.StartTime, rec.EndTime) to the running total, skipping any portion
// already counted by a prior Log call for this signal-of-interest.
func (l *InterferenceLog) Log(soiStart, soiEnd clock.Clock, rec Record) {
	start := rec.StartTime
	if start < soiStart {
		start = soiStart
	}
	end := rec.EndTime
	if end > soiEnd {
		end = soiEnd
	}
	if l.priorEnd >= 0 && start < l.priorEnd {
		start = l.priorEnd // fully-contained or overlapping-extending: skip counted portion
	}
	if end <= start {
		return // disjoint-after: no new overlap
	}
	l.total += end - start
	if end > l.priorEnd {
		l.priorEnd = end
	}
}

// Total returns the accumulated interference time.
func (l *InterferenceLog) Total() clock.Clock {
	return l.total
}

// Reset clears the log for the next signal-of-interest.
func (l *InterferenceLog) Reset() {
	l.total = 0
	l.priorEnd = -1
}
