// SPDX-License-Identifier: GPL-3.0
// Copyright 2024 Pete Heist

package ratectl

import (
	"testing"

	"github.com/heistp/dot11sim/frametab"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// TestARFScenario is spec §8 scenario 6.
func TestARFScenario(t *testing.T) {
	a := NewARF(frametab.NonHT, 1)
	a.Init([]int{1})
	a.peer[1].currentIdx = 5

	for i := 0; i < 4; i++ {
		a.UpdateStatus(1, AMPDUStatus{Succeeded: 1, Failed: 0})
	}
	assert.Equal(t, 6, a.CurrentIdx(1))
	assert.True(t, a.peer[1].prevIncrement)

	a.UpdateStatus(1, AMPDUStatus{Succeeded: 0, Failed: 1})
	assert.Equal(t, 5, a.CurrentIdx(1))
	assert.False(t, a.peer[1].prevIncrement)
	assert.Equal(t, 0, a.peer[1].consecFail)
}

func TestARFInitialMCS(t *testing.T) {
	cases := []struct {
		format frametab.Format
		chains int
		want   int
	}{
		{frametab.NonHT, 1, 7},
		{frametab.HT, 2, 7},
		{frametab.VHT, 3, 9},
		{frametab.VHT, 2, 8},
		{frametab.HEExtSU, 1, 2},
		{frametab.HESU, 4, 11},
	}
	for _, c := range cases {
		a := NewARF(c.format, c.chains)
		a.Init([]int{1})
		assert.Equal(t, c.want, a.CurrentIdx(1), "%v", c)
	}
}

func TestARFHTMCSEncoding(t *testing.T) {
	a := NewARF(frametab.HT, 3)
	a.Init([]int{1})
	a.peer[1].currentIdx = 4
	assert.Equal(t, (3-1)*8+4, a.MCS(1))
}

// TestARFMonotonicity exercises spec §8's ARF monotonicity properties.
func TestARFMonotonicity(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := NewARF(frametab.NonHT, 1)
		a.Init([]int{1})
		maxMCS := frametab.MaxMCS(frametab.NonHT)

		// all-successes: reaches MaxMCS within the bound, never exceeds it.
		b := *a
		b.peer = map[int]*peerState{1: {currentIdx: a.CurrentIdx(1)}}
		limit := maxMCS * b.SuccessThreshold
		if limit == 0 {
			limit = 1
		}
		for i := 0; i < limit; i++ {
			b.UpdateStatus(1, AMPDUStatus{Succeeded: 1, Failed: 0})
			require.LessOrEqual(t, b.CurrentIdx(1), maxMCS)
		}
		require.Equal(t, maxMCS, b.CurrentIdx(1))

		// all-failures: reaches 0 within the bound, never goes below it.
		c := NewARF(frametab.NonHT, 1)
		c.Init([]int{1})
		fLimit := maxMCS * max(1, c.FailureThreshold)
		for i := 0; i < fLimit; i++ {
			c.UpdateStatus(1, AMPDUStatus{Succeeded: 0, Failed: 1})
			require.GreaterOrEqual(t, c.CurrentIdx(1), 0)
		}
		require.Equal(t, 0, c.CurrentIdx(1))
	})
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func TestFixedPowerIgnoresInfo(t *testing.T) {
	p := NewFixedPower()
	assert.Equal(t, DefaultFixedPowerDbm, p.Power(1, ControlInfo{SINRDb: 40}))
	assert.Equal(t, DefaultFixedPowerDbm, p.Power(1, ControlInfo{SINRDb: -10}))
}
