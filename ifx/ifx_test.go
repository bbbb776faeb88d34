// SPDX-License-Identifier: GPL-3.0
// Copyright 2024 Pete Heist

package ifx

import (
	"testing"

	"github.com/heistp/dot11sim/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestBufferAddUpdate(t *testing.T) {
	b := NewBuffer(DefaultCapacity)
	b.Add(Record{SourceID: 1, RxPowerW: 1e-9, EndTime: 100})
	b.Add(Record{SourceID: 2, RxPowerW: 2e-9, EndTime: 200})
	require.Equal(t, 2, b.NumSignals())
	assert.InDelta(t, 3e-9, b.TotalPower(), 1e-15)
	assert.Equal(t, clock.Clock(100), b.Timer())

	b.Update(150)
	require.Equal(t, 1, b.NumSignals())
	assert.InDelta(t, 2e-9, b.TotalPower(), 1e-15)
	assert.Equal(t, clock.Clock(200), b.Timer())

	b.Update(200)
	require.Equal(t, 0, b.NumSignals())
	assert.Equal(t, clock.Clock(-1), b.Timer())
}

func TestBufferFullPanics(t *testing.T) {
	b := NewBuffer(1)
	b.Add(Record{SourceID: 1, RxPowerW: 1e-9, EndTime: 100})
	assert.Panics(t, func() {
		b.Add(Record{SourceID: 2, RxPowerW: 1e-9, EndTime: 100})
	})
}

// TestBufferInvariants exercises spec §8's universal properties: total
// power equals the sum of active RxPowerW, timer equals the minimum
// active end time, and 0 <= NumSignals <= capacity, after any sequence
// of Add/Update operations.
func TestBufferInvariants(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		cap := rapid.IntRange(1, 10).Draw(t, "cap")
		b := NewBuffer(cap)
		live := map[int]Record{}
		nextKey := 0
		var now clock.Clock
		steps := rapid.IntRange(0, 50).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			op := rapid.IntRange(0, 1).Draw(t, "op")
			if op == 0 && len(live) < cap {
				id := rapid.IntRange(0, 1000).Draw(t, "id")
				pw := rapid.Float64Range(0, 1).Draw(t, "pw")
				dur := clock.Clock(rapid.IntRange(1, 1000).Draw(t, "dur"))
				rec := Record{SourceID: id, RxPowerW: pw, EndTime: now + dur, StartTime: now}
				b.Add(rec)
				live[nextKey] = rec
				nextKey++
			} else {
				now += clock.Clock(rapid.IntRange(0, 500).Draw(t, "adv"))
				b.Update(now)
				for k, r := range live {
					if r.EndTime <= now {
						delete(live, k)
					}
				}
			}
			var sum float64
			minEnd := clock.Clock(-1)
			for _, r := range live {
				sum += r.RxPowerW
				if minEnd < 0 || r.EndTime < minEnd {
					minEnd = r.EndTime
				}
			}
			require.LessOrEqual(t, b.NumSignals(), cap)
			require.GreaterOrEqual(t, b.NumSignals(), 0)
			require.InDelta(t, sum, b.TotalPower(), 1e-9+1e-9*sum)
			require.Equal(t, minEnd, b.Timer())
		}
	})
}

func TestInterferenceLogGeometries(t *testing.T) {
	// disjoint-after: interferer fully before SOI window start.
	l := NewInterferenceLog()
	l.Log(100, 200, Record{StartTime: 0, EndTime: 50})
	assert.Equal(t, clock.Clock(0), l.Total())

	// overlapping-extending.
	l = NewInterferenceLog()
	l.Log(100, 200, Record{StartTime: 50, EndTime: 150})
	assert.Equal(t, clock.Clock(50), l.Total())
	l.Log(100, 200, Record{StartTime: 120, EndTime: 180})
	assert.Equal(t, clock.Clock(80), l.Total())

	// fully-contained: second interferer entirely within already-logged range.
	l = NewInterferenceLog()
	l.Log(100, 200, Record{StartTime: 100, EndTime: 200})
	assert.Equal(t, clock.Clock(100), l.Total())
	l.Log(100, 200, Record{StartTime: 120, EndTime: 150})
	assert.Equal(t, clock.Clock(100), l.Total())
}
