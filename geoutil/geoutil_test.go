// SPDX-License-Identifier: GPL-3.0
// Copyright 2024 Pete Heist

package geoutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistance(t *testing.T) {
	a := NewPosition(0, 0)
	b := NewPosition(3, 4)
	assert.InDelta(t, 5.0, Distance(a, b), 1e-9)
}

func TestDistanceSymmetric(t *testing.T) {
	a := NewPosition(1, 2)
	b := NewPosition(-3, 5)
	assert.InDelta(t, Distance(a, b), Distance(b, a), 1e-9)
}
