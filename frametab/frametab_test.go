// SPDX-License-Identifier: GPL-3.0
// Copyright 2024 Pete Heist

package frametab

import (
	"testing"

	"github.com/heistp/dot11sim/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestPreambleDurationIs16us(t *testing.T) {
	assert.Equal(t, clock.Clock(16)*clock.Microsecond, PreambleDuration)
}

// TestHESymbolDurationsAreExact guards against truncating HE's
// fractional-microsecond guard-interval symbol durations (spec §4.2).
func TestHESymbolDurationsAreExact(t *testing.T) {
	assert.Equal(t, 13600*clock.Nanosecond, SymbolDuration(HESU, GI800))
	assert.Equal(t, 14400*clock.Nanosecond, SymbolDuration(HESU, GI1600))
}

func TestGetRateTableRejectsOutOfRangeMCS(t *testing.T) {
	_, err := GetRateTable(Config{Format: NonHT, Bandwidth: BW20, MCS: 8})
	assert.Error(t, err)
}

func TestGetRateTableRejectsUnsupportedBandwidth(t *testing.T) {
	_, err := GetRateTable(Config{Format: NonHT, Bandwidth: 99, MCS: 0})
	assert.Error(t, err)
}

func TestHigherMCSGivesHigherDataRate(t *testing.T) {
	lo, err := GetRateTable(Config{Format: HT, Bandwidth: BW20, NumSTS: 1, MCS: 0})
	require.NoError(t, err)
	hi, err := GetRateTable(Config{Format: HT, Bandwidth: BW20, NumSTS: 1, MCS: 7})
	require.NoError(t, err)
	assert.Greater(t, hi.DataRateBps, lo.DataRateBps)
}

func TestHeaderDurationPositive(t *testing.T) {
	for _, f := range []Format{NonHT, HT, VHT, HESU, HEExtSU} {
		hdr, err := HeaderDuration(Config{Format: f, Bandwidth: BW20, NumSTS: 1, MCS: 0})
		require.NoError(t, err, f)
		assert.Greater(t, int64(hdr), int64(0), f)
	}
}

// TestMaxMCSMatchesTable exercises spec §4.6's per-format max-MCS table
// against the MCS range GetRateTable actually accepts.
func TestMaxMCSMatchesTable(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		f := Format(rapid.IntRange(0, 4).Draw(t, "format"))
		maxMCS := MaxMCS(f)
		_, err := GetRateTable(Config{Format: f, Bandwidth: BW20, NumSTS: 1, MCS: maxMCS})
		require.NoError(t, err)
		_, err = GetRateTable(Config{Format: f, Bandwidth: BW20, NumSTS: 1, MCS: maxMCS + 1})
		require.Error(t, err)
	})
}
