// SPDX-License-Identifier: GPL-3.0
// Copyright 2024 Pete Heist

package chanfreq

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFrequencyGHz24(t *testing.T) {
	got := FrequencyGHz(Band24GHz, 6, 0)
	assert.InDelta(t, 2.437, got, 1e-9)
}

func TestFrequencyGHz5(t *testing.T) {
	got := FrequencyGHz(Band5GHz, 36, DefaultStartingFactor5GHz)
	assert.InDelta(t, 5.180, got, 1e-9)
}

func TestFrequencyGHz6(t *testing.T) {
	got := FrequencyGHz(Band6GHz, 1, DefaultStartingFactor6GHz)
	assert.InDelta(t, (11880.0*0.5+5.0*1)/1000.0, got, 1e-9)
}
