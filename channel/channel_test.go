// SPDX-License-Identifier: GPL-3.0
// Copyright 2024 Pete Heist

package channel

import (
	"testing"

	"github.com/heistp/dot11sim/geoutil"
	"github.com/stretchr/testify/assert"
)

func TestReceivedPowerDecreasesWithDistance(t *testing.T) {
	m := NewLogDistanceModel()
	near := m.ReceivedPower(geoutil.NewPosition(0, 0), geoutil.NewPosition(10, 0), 20)
	far := m.ReceivedPower(geoutil.NewPosition(0, 0), geoutil.NewPosition(100, 0), 20)
	assert.Greater(t, near, far)
}

func TestReceivedPowerAtReferenceDistance(t *testing.T) {
	m := NewLogDistanceModel()
	got := m.ReceivedPower(geoutil.NewPosition(0, 0), geoutil.NewPosition(1, 0), 20)
	assert.InDelta(t, 20-m.ReferenceLossDb, got, 1e-9)
}

func TestReceivedPowerClampsSubReferenceDistance(t *testing.T) {
	m := NewLogDistanceModel()
	got := m.ReceivedPower(geoutil.NewPosition(0, 0), geoutil.NewPosition(0, 0), 20)
	assert.InDelta(t, 20-m.ReferenceLossDb, got, 1e-9)
}
